// Package events carries domain events out of the engine to whatever relays them to live clients.
package events

import (
	"context"
	"time"

	"github.com/google/uuid"
)

type Type string

const (
	TournamentStarted   Type = "tournament.started"
	TournamentCompleted Type = "tournament.completed"
	TeamAdded           Type = "team.added"
	TeamRemoved         Type = "team.removed"
	GameTeamAssigned    Type = "game.team_assigned"
	GameStarted         Type = "game.started"
	GameCompleted       Type = "game.completed"
	GameUndone          Type = "game.undone"
)

type Event struct {
	Type         Type       `json:"type"`
	TournamentID uuid.UUID  `json:"tournamentId"`
	GameID       *uuid.UUID `json:"gameId,omitempty"`
	TeamID       *uuid.UUID `json:"teamId,omitempty"`
	OccurredAt   time.Time  `json:"occurredAt"`
	Data         any        `json:"data,omitempty"`
}

// Publisher delivers events. Delivery is best effort, callers log failures and move on.
type Publisher interface {
	Publish(ctx context.Context, event Event) error
}
