package service

import (
	"context"
	"log/slog"

	"github.com/google/uuid"
)

// BeerLedger is the external beer ledger. Deduplication by source is the ledger's job.
type BeerLedger interface {
	CreditBeers(ctx context.Context, playerID string, amount int, source string) error
	ReverseBeers(ctx context.Context, playerID string, amount int, source string) error
}

type ledgerOp func(ctx context.Context, playerID string, amount int, source string) error

func gameSource(gameID uuid.UUID) string {
	return "game:" + gameID.String()
}

// applyAll runs op for every player. If one fails, the players already done are
// rolled back with inverse so the episode leaves no partial effect.
func applyAll(ctx context.Context, players []string, amount int, source string, op, inverse ledgerOp) error {
	for i, playerID := range players {
		if err := op(ctx, playerID, amount, source); err != nil {
			compensate(ctx, players[:i], amount, source, inverse)
			return err
		}
	}
	return nil
}

func compensate(ctx context.Context, players []string, amount int, source string, inverse ledgerOp) {
	// Compensation must run even if the request context is gone
	ctx = context.WithoutCancel(ctx)
	for _, playerID := range players {
		if err := inverse(ctx, playerID, amount, source); err != nil {
			slog.Error("failed to compensate beer ledger", "player_id", playerID, "amount", amount, "source", source, "error", err)
		}
	}
}
