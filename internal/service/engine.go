package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/AdamBeresnev/beer-pong/internal/bracket"
	"github.com/AdamBeresnev/beer-pong/internal/events"
	"github.com/AdamBeresnev/beer-pong/internal/store"
	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/jonboulle/clockwork"
)

// Engine bundles the services that share a lock table, clock and event publisher.
type Engine struct {
	Tournaments *TournamentService
	Teams       *TeamService
	Games       *GameService
}

func NewEngine(db *sqlx.DB, store *store.TournamentStore, ledger BeerLedger, publisher events.Publisher, clock clockwork.Clock) *Engine {
	if publisher == nil {
		publisher = events.NewLogPublisher(nil)
	}
	if clock == nil {
		clock = clockwork.NewRealClock()
	}
	b := &base{
		db:        db,
		store:     store,
		locks:     NewTournamentLocks(),
		publisher: publisher,
		clock:     clock,
	}
	return &Engine{
		Tournaments: &TournamentService{base: b},
		Teams:       &TeamService{base: b},
		Games:       &GameService{base: b, ledger: ledger},
	}
}

type base struct {
	db        *sqlx.DB
	store     *store.TournamentStore
	locks     *TournamentLocks
	publisher events.Publisher
	clock     clockwork.Clock
}

// now is read once per operation so every check in it sees the same instant.
func (b *base) now() time.Time {
	return b.clock.Now().UTC()
}

func (b *base) inTx(ctx context.Context, fn func(tx *sqlx.Tx) error) error {
	tx, err := b.db.BeginTxx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	if err := fn(tx); err != nil {
		return err
	}
	return tx.Commit()
}

func (b *base) publish(ctx context.Context, event events.Event) {
	if err := b.publisher.Publish(ctx, event); err != nil {
		slog.Warn("failed to publish event", "type", event.Type, "tournament_id", event.TournamentID, "error", err)
	}
}

func (b *base) getTournament(ctx context.Context, id uuid.UUID) (*bracket.Tournament, error) {
	tournament, err := b.store.GetTournament(ctx, id)
	if err != nil {
		return nil, notFound(err, "tournament %s", id)
	}
	return tournament, nil
}

func (b *base) getGame(ctx context.Context, id uuid.UUID) (*bracket.Game, error) {
	game, err := b.store.GetGame(ctx, id)
	if err != nil {
		return nil, notFound(err, "game %s", id)
	}
	return game, nil
}

// notFound turns sql.ErrNoRows into ErrNotFound and wraps anything else.
func notFound(err error, format string, args ...any) error {
	what := fmt.Sprintf(format, args...)
	if errors.Is(err, sql.ErrNoRows) {
		return fmt.Errorf("%w: %s", bracket.ErrNotFound, what)
	}
	return fmt.Errorf("failed to get %s: %w", what, err)
}
