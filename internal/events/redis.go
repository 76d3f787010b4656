package events

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

const tournamentChannel = "%s:tournament:%s"

// NewRedisClient creates a Redis client and pings it so a bad address fails at startup.
func NewRedisClient(addr, password string) (*redis.Client, error) {
	if addr == "" {
		return nil, fmt.Errorf("no Redis address provided")
	}

	rdb := redis.NewClient(&redis.Options{
		Addr:         addr,
		Password:     password,
		DialTimeout:  5 * time.Second,
		ReadTimeout:  3 * time.Second,
		WriteTimeout: 3 * time.Second,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := rdb.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("failed to connect to Redis at %s: %w", addr, err)
	}
	log.Println("Successfully connected to Redis.")
	return rdb, nil
}

// RedisPublisher fans events out over Redis pub/sub, one channel per tournament.
type RedisPublisher struct {
	client redis.UniversalClient
	prefix string
}

func NewRedisPublisher(client redis.UniversalClient, prefix string) *RedisPublisher {
	return &RedisPublisher{client: client, prefix: prefix}
}

func (p *RedisPublisher) Channel(tournamentID uuid.UUID) string {
	return fmt.Sprintf(tournamentChannel, p.prefix, tournamentID)
}

func (p *RedisPublisher) Publish(ctx context.Context, event Event) error {
	payload, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("failed to marshal %s event: %w", event.Type, err)
	}

	channel := p.Channel(event.TournamentID)
	if err := p.client.Publish(ctx, channel, payload).Err(); err != nil {
		return fmt.Errorf("failed to publish %s event to %s: %w", event.Type, channel, err)
	}
	return nil
}
