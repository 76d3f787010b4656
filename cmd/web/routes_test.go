package main

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/AdamBeresnev/beer-pong/internal/bracket"
	"github.com/AdamBeresnev/beer-pong/internal/config"
	"github.com/AdamBeresnev/beer-pong/internal/db"
	"github.com/AdamBeresnev/beer-pong/internal/events"
	"github.com/AdamBeresnev/beer-pong/internal/service"
	"github.com/AdamBeresnev/beer-pong/internal/store"
	"github.com/jmoiron/sqlx"
	"github.com/jonboulle/clockwork"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type testServer struct {
	handler http.Handler
	clock   *clockwork.FakeClock
}

func setupServer(t *testing.T) *testServer {
	t.Helper()

	database, err := sqlx.Connect("sqlite3", "file::memory:?_foreign_keys=on")
	require.NoError(t, err)
	database.SetMaxOpenConns(1)
	t.Cleanup(func() { database.Close() })
	require.NoError(t, db.RunMigrations(database.DB))

	clock := clockwork.NewFakeClockAt(time.Date(2026, 10, 15, 20, 0, 0, 0, time.UTC))
	ledger := store.NewBeerLedgerStore(database)
	engine := service.NewEngine(database, store.NewTournamentStore(database), ledger, events.NewLogPublisher(nil), clock)

	return &testServer{
		handler: newRouter(engine, ledger, &config.Config{RequestTimeout: 5 * time.Second}),
		clock:   clock,
	}
}

func (s *testServer) do(t *testing.T, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	s.handler.ServeHTTP(rec, req)
	return rec
}

func decode[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&v))
	return v
}

func TestTournamentFlowOverHTTP(t *testing.T) {
	srv := setupServer(t)

	rec := srv.do(t, http.MethodPost, "/tournaments", map[string]any{
		"parentEventId":      "garden-party",
		"name":               "Friday Night Cup",
		"beersPerPlayer":     1,
		"undoWindowMinutes":  5,
		"cancellationPolicy": "remove_beers",
	})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	tournament := decode[bracket.Tournament](t, rec)

	base := "/tournaments/" + tournament.ID.String()
	for i := 0; i < 8; i++ {
		rec = srv.do(t, http.MethodPost, base+"/teams", service.AddTeamInput{
			Name:      fmt.Sprintf("Team %d", i),
			Player1ID: fmt.Sprintf("p%d-a", i),
			Player2ID: fmt.Sprintf("p%d-b", i),
		})
		require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	}

	rec = srv.do(t, http.MethodPost, base+"/teams", service.AddTeamInput{Name: "team 0", Player1ID: "x", Player2ID: "y"})
	assert.Equal(t, http.StatusConflict, rec.Code)

	rec = srv.do(t, http.MethodPost, base+"/start", nil)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	data := decode[service.TournamentData](t, rec)
	require.Len(t, data.Games, 7)

	qf := data.Games[0]
	require.Equal(t, bracket.Quarterfinal, qf.Round)

	rec = srv.do(t, http.MethodPost, "/games/"+qf.ID.String()+"/start", nil)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	rec = srv.do(t, http.MethodPost, "/games/"+qf.ID.String()+"/start", nil)
	assert.Equal(t, http.StatusConflict, rec.Code)

	rec = srv.do(t, http.MethodGet, "/players/p0-a/beers", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, 1, decode[playerBeersResponse](t, rec).Beers)

	srv.clock.Advance(6 * time.Minute)
	rec = srv.do(t, http.MethodPost, "/games/"+qf.ID.String()+"/undo", nil)
	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)

	rec = srv.do(t, http.MethodPost, "/games/"+qf.ID.String()+"/complete", map[string]any{"winnerTeamId": qf.Team1ID})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Equal(t, bracket.GameCompleted, decode[bracket.Game](t, rec).Status)

	rec = srv.do(t, http.MethodGet, base+"/bracket", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	view := decode[bracket.BracketView](t, rec)
	require.Len(t, view.Rounds, 3)
	assert.Equal(t, qf.Team1ID, view.Rounds[1].Games[0].Team1ID, "winner moved into the semifinal")

	rec = srv.do(t, http.MethodPost, base+"/complete", nil)
	assert.Equal(t, http.StatusPreconditionFailed, rec.Code)

	rec = srv.do(t, http.MethodGet, "/events/garden-party/tournaments", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Len(t, decode[[]bracket.Tournament](t, rec), 1)
}

func TestRequestValidation(t *testing.T) {
	srv := setupServer(t)

	rec := srv.do(t, http.MethodGet, "/tournaments/not-a-uuid", nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = srv.do(t, http.MethodGet, "/games/6f1c1a3e-5b0a-4a57-9d55-0b6f0f9b3c11", nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = srv.do(t, http.MethodPost, "/tournaments", map[string]any{"name": "No Event", "beersPerPlayer": 1, "cancellationPolicy": "keep_beers"})
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = srv.do(t, http.MethodPost, "/tournaments", map[string]any{"unexpected": true})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}
