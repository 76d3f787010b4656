package events

import (
	"bytes"
	"context"
	"encoding/json"
	"log/slog"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRedisPublisher(t *testing.T) {
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	defer client.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	publisher := NewRedisPublisher(client, "beerpong")
	tournamentID := uuid.New()
	gameID := uuid.New()

	sub := client.Subscribe(ctx, publisher.Channel(tournamentID))
	defer sub.Close()
	_, err := sub.Receive(ctx)
	require.NoError(t, err, "subscription confirmation")

	event := Event{
		Type:         GameStarted,
		TournamentID: tournamentID,
		GameID:       &gameID,
		OccurredAt:   time.Date(2026, 10, 15, 20, 0, 0, 0, time.UTC),
	}
	require.NoError(t, publisher.Publish(ctx, event))

	msg, err := sub.ReceiveMessage(ctx)
	require.NoError(t, err)
	assert.Equal(t, "beerpong:tournament:"+tournamentID.String(), msg.Channel)

	var got Event
	require.NoError(t, json.Unmarshal([]byte(msg.Payload), &got))
	assert.Equal(t, GameStarted, got.Type)
	assert.Equal(t, tournamentID, got.TournamentID)
	require.NotNil(t, got.GameID)
	assert.Equal(t, gameID, *got.GameID)
	assert.True(t, event.OccurredAt.Equal(got.OccurredAt))
}

func TestRedisPublisher_BrokerDown(t *testing.T) {
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr(), MaxRetries: -1})
	defer client.Close()
	mr.Close()

	publisher := NewRedisPublisher(client, "beerpong")
	err := publisher.Publish(context.Background(), Event{Type: GameUndone, TournamentID: uuid.New()})
	assert.Error(t, err)
}

func TestNewRedisClient_EmptyAddr(t *testing.T) {
	_, err := NewRedisClient("", "")
	assert.Error(t, err)
}

func TestLogPublisher(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(slog.NewJSONHandler(&buf, nil))
	publisher := NewLogPublisher(logger)

	teamID := uuid.New()
	err := publisher.Publish(context.Background(), Event{Type: TeamAdded, TournamentID: uuid.New(), TeamID: &teamID})
	require.NoError(t, err)

	assert.Contains(t, buf.String(), `"type":"team.added"`)
	assert.Contains(t, buf.String(), teamID.String())
}
