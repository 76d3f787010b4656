package events

import (
	"context"
	"log/slog"
)

// LogPublisher writes events to the structured log. Used when no broker is configured.
type LogPublisher struct {
	logger *slog.Logger
}

func NewLogPublisher(logger *slog.Logger) *LogPublisher {
	if logger == nil {
		logger = slog.Default()
	}
	return &LogPublisher{logger: logger}
}

func (p *LogPublisher) Publish(ctx context.Context, event Event) error {
	attrs := []any{
		"type", event.Type,
		"tournament_id", event.TournamentID,
		"occurred_at", event.OccurredAt,
	}
	if event.GameID != nil {
		attrs = append(attrs, "game_id", *event.GameID)
	}
	if event.TeamID != nil {
		attrs = append(attrs, "team_id", *event.TeamID)
	}
	p.logger.InfoContext(ctx, "domain event", attrs...)
	return nil
}
