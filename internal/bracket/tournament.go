package bracket

import (
	"time"

	"github.com/google/uuid"
)

type TournamentStatus string

const (
	TournamentDraft     TournamentStatus = "draft"
	TournamentActive    TournamentStatus = "active"
	TournamentCompleted TournamentStatus = "completed"
)

// CancellationPolicy decides what happens to credited beers when a game start is undone.
type CancellationPolicy string

const (
	KeepBeers   CancellationPolicy = "keep_beers"
	RemoveBeers CancellationPolicy = "remove_beers"
)

func (p CancellationPolicy) Valid() bool {
	return p == KeepBeers || p == RemoveBeers
}

// MaxTeams is the roster size of a bracket.
const MaxTeams = 8

type Tournament struct {
	ID            uuid.UUID        `db:"id" json:"id"`
	ParentEventID string           `db:"parent_event_id" json:"parentEventId"`
	Name          string           `db:"name" json:"name"`
	Slug          string           `db:"slug" json:"slug"`
	Description   *string          `db:"description" json:"description,omitempty"`
	Status        TournamentStatus `db:"status" json:"status"`

	BeersPerPlayer     int                `db:"beers_per_player" json:"beersPerPlayer"`
	TimeWindowMinutes  int                `db:"time_window_minutes" json:"timeWindowMinutes"`
	UndoWindowMinutes  int                `db:"undo_window_minutes" json:"undoWindowMinutes"`
	CancellationPolicy CancellationPolicy `db:"cancellation_policy" json:"cancellationPolicy"`

	CreatedAt   time.Time  `db:"created_at" json:"createdAt"`
	StartedAt   *time.Time `db:"started_at" json:"startedAt,omitempty"`
	CompletedAt *time.Time `db:"completed_at" json:"completedAt,omitempty"`
}

// UndoWindow is how long after a game start the start may still be reverted.
func (t *Tournament) UndoWindow() time.Duration {
	return time.Duration(t.UndoWindowMinutes) * time.Minute
}
