package store

import (
	"context"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"
)

// LedgerEntry is one signed movement of beers for a player. Reversals are negative.
type LedgerEntry struct {
	ID        int64     `db:"id" json:"id"`
	PlayerID  string    `db:"player_id" json:"playerId"`
	Amount    int       `db:"amount" json:"amount"`
	Source    string    `db:"source" json:"source"`
	CreatedAt time.Time `db:"created_at" json:"createdAt"`
}

// BeerLedgerStore is an append only SQL beer ledger.
type BeerLedgerStore struct {
	db *sqlx.DB
}

func NewBeerLedgerStore(db *sqlx.DB) *BeerLedgerStore {
	return &BeerLedgerStore{db: db}
}

func (s *BeerLedgerStore) CreditBeers(ctx context.Context, playerID string, amount int, source string) error {
	return s.record(ctx, playerID, amount, source)
}

func (s *BeerLedgerStore) ReverseBeers(ctx context.Context, playerID string, amount int, source string) error {
	return s.record(ctx, playerID, -amount, source)
}

func (s *BeerLedgerStore) record(ctx context.Context, playerID string, amount int, source string) error {
	_, err := s.db.ExecContext(ctx, "INSERT INTO beer_ledger (player_id, amount, source) VALUES (?, ?, ?)", playerID, amount, source)
	if err != nil {
		return fmt.Errorf("failed to record %d beers for player %s: %w", amount, playerID, err)
	}
	return nil
}

func (s *BeerLedgerStore) PlayerTotal(ctx context.Context, playerID string) (int, error) {
	var total int
	err := s.db.GetContext(ctx, &total, "SELECT COALESCE(SUM(amount), 0) FROM beer_ledger WHERE player_id = ?", playerID)
	return total, err
}

func (s *BeerLedgerStore) EntriesForSource(ctx context.Context, source string) ([]LedgerEntry, error) {
	entries := []LedgerEntry{}
	err := s.db.SelectContext(ctx, &entries, "SELECT * FROM beer_ledger WHERE source = ? ORDER BY id ASC", source)
	return entries, err
}
