package service

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/AdamBeresnev/beer-pong/internal/bracket"
	"github.com/AdamBeresnev/beer-pong/internal/db"
	"github.com/AdamBeresnev/beer-pong/internal/events"
	"github.com/AdamBeresnev/beer-pong/internal/store"
	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/jonboulle/clockwork"
	"github.com/stretchr/testify/require"
)

var errLedgerDown = errors.New("ledger unavailable")

// setupTestDB creates an in-memory SQLite database and applies migrations
func setupTestDB(t *testing.T) *sqlx.DB {
	t.Helper()

	database, err := sqlx.Connect("sqlite3", "file::memory:?_foreign_keys=on")
	require.NoError(t, err, "Failed to connect to in-memory DB")

	// Every new connection would see its own empty in-memory database
	database.SetMaxOpenConns(1)

	require.NoError(t, db.RunMigrations(database.DB), "Failed to apply migrations")
	t.Cleanup(func() { database.Close() })
	return database
}

type ledgerCall struct {
	Op       string
	PlayerID string
	Amount   int
	Source   string
}

// fakeLedger keeps per player totals in memory and can be told to fail for one player.
type fakeLedger struct {
	mu            sync.Mutex
	totals        map[string]int
	calls         []ledgerCall
	failCreditFor string
	failRevertFor string
}

func newFakeLedger() *fakeLedger {
	return &fakeLedger{totals: map[string]int{}}
}

func (l *fakeLedger) CreditBeers(ctx context.Context, playerID string, amount int, source string) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	if playerID == l.failCreditFor {
		return errLedgerDown
	}
	l.totals[playerID] += amount
	l.calls = append(l.calls, ledgerCall{"credit", playerID, amount, source})
	return nil
}

func (l *fakeLedger) ReverseBeers(ctx context.Context, playerID string, amount int, source string) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	if playerID == l.failRevertFor {
		return errLedgerDown
	}
	l.totals[playerID] -= amount
	l.calls = append(l.calls, ledgerCall{"reverse", playerID, amount, source})
	return nil
}

func (l *fakeLedger) total(playerID string) int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.totals[playerID]
}

func (l *fakeLedger) count(op, source string) int {
	l.mu.Lock()
	defer l.mu.Unlock()
	n := 0
	for _, c := range l.calls {
		if c.Op == op && (source == "" || c.Source == source) {
			n++
		}
	}
	return n
}

type recordingPublisher struct {
	mu     sync.Mutex
	events []events.Event
	err    error
}

func (p *recordingPublisher) Publish(ctx context.Context, event events.Event) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, event)
	return p.err
}

func (p *recordingPublisher) types() []events.Type {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([]events.Type, 0, len(p.events))
	for _, e := range p.events {
		out = append(out, e.Type)
	}
	return out
}

type testEnv struct {
	engine    *Engine
	ledger    *fakeLedger
	publisher *recordingPublisher
	clock     *clockwork.FakeClock
	store     *store.TournamentStore
	ctx       context.Context
}

func setupEnv(t *testing.T) *testEnv {
	t.Helper()
	ledger := newFakeLedger()
	env := newTestEnv(t, setupTestDB(t), ledger)
	env.ledger = ledger
	return env
}

func newTestEnv(t *testing.T, database *sqlx.DB, ledger BeerLedger) *testEnv {
	t.Helper()
	tournamentStore := store.NewTournamentStore(database)
	publisher := &recordingPublisher{}
	clock := clockwork.NewFakeClockAt(time.Date(2026, 10, 15, 20, 0, 0, 0, time.UTC))

	return &testEnv{
		engine:    NewEngine(database, tournamentStore, ledger, publisher, clock),
		publisher: publisher,
		clock:     clock,
		store:     tournamentStore,
		ctx:       context.Background(),
	}
}

func (e *testEnv) createTournament(t *testing.T, policy bracket.CancellationPolicy) *bracket.Tournament {
	t.Helper()
	tournament, err := e.engine.Tournaments.CreateTournament(e.ctx, CreateTournamentInput{
		ParentEventID:      "garden-party",
		Name:               "Friday Night Cup",
		BeersPerPlayer:     2,
		TimeWindowMinutes:  20,
		UndoWindowMinutes:  5,
		CancellationPolicy: policy,
	})
	require.NoError(t, err)
	return tournament
}

func (e *testEnv) addTeams(t *testing.T, tournamentID uuid.UUID, n int) []bracket.Team {
	t.Helper()
	teams := make([]bracket.Team, 0, n)
	for i := 0; i < n; i++ {
		team, err := e.engine.Teams.AddTeam(e.ctx, tournamentID, AddTeamInput{
			Name:      fmt.Sprintf("T%d", i),
			Player1ID: fmt.Sprintf("T%d-a", i),
			Player2ID: fmt.Sprintf("T%d-b", i),
		})
		require.NoError(t, err)
		teams = append(teams, *team)
	}
	return teams
}

// startedTournament returns an active tournament with teams T0..T7 and its fresh bracket.
func (e *testEnv) startedTournament(t *testing.T, policy bracket.CancellationPolicy) (*bracket.Tournament, []bracket.Team, *TournamentData) {
	t.Helper()
	tournament := e.createTournament(t, policy)
	teams := e.addTeams(t, tournament.ID, 8)
	data, err := e.engine.Tournaments.StartTournament(e.ctx, tournament.ID)
	require.NoError(t, err)
	return data.Tournament, teams, data
}

func (e *testEnv) game(t *testing.T, tournamentID uuid.UUID, round bracket.Round, slot int) *bracket.Game {
	t.Helper()
	games, err := e.store.GetGames(e.ctx, tournamentID)
	require.NoError(t, err)
	for i := range games {
		if games[i].Round == round && games[i].BracketSlot == slot {
			return &games[i]
		}
	}
	t.Fatalf("no %s game in slot %d", round, slot)
	return nil
}

// play starts a game, lets two minutes pass and completes it with the given winner.
func (e *testEnv) play(t *testing.T, gameID, winnerID uuid.UUID) {
	t.Helper()
	_, err := e.engine.Games.StartGame(e.ctx, gameID)
	require.NoError(t, err)
	e.clock.Advance(2 * time.Minute)
	_, err = e.engine.Games.CompleteGame(e.ctx, gameID, winnerID)
	require.NoError(t, err)
}

func playersOf(teams ...bracket.Team) []string {
	var players []string
	for _, team := range teams {
		players = append(players, team.Player1ID, team.Player2ID)
	}
	return players
}
