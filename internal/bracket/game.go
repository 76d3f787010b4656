package bracket

import (
	"time"

	"github.com/google/uuid"
)

type GameStatus string

const (
	GamePending    GameStatus = "pending"
	GameInProgress GameStatus = "in_progress"
	GameCompleted  GameStatus = "completed"
)

type Round string

const (
	Quarterfinal Round = "quarterfinal"
	Semifinal    Round = "semifinal"
	Final        Round = "final"
)

// Games returns how many games a round has in an 8 team bracket.
func (r Round) Games() int {
	switch r {
	case Quarterfinal:
		return 4
	case Semifinal:
		return 2
	case Final:
		return 1
	}
	return 0
}

func (r Round) Valid() bool {
	return r.Games() > 0
}

// Position is the side of a game a team plays on.
type Position int

const (
	Team1 Position = 1
	Team2 Position = 2
)

func (p Position) Valid() bool {
	return p == Team1 || p == Team2
}

type Game struct {
	ID           uuid.UUID `db:"id" json:"id"`
	TournamentID uuid.UUID `db:"tournament_id" json:"tournamentId"`

	// Position in the bracket, also enough to recompute where the winner goes
	Round       Round `db:"round" json:"round"`
	BracketSlot int   `db:"bracket_slot" json:"bracketSlot"`

	Team1ID *uuid.UUID `db:"team_1_id" json:"team1Id"`
	Team2ID *uuid.UUID `db:"team_2_id" json:"team2Id"`

	Status       GameStatus `db:"status" json:"status"`
	WinnerTeamID *uuid.UUID `db:"winner_team_id" json:"winnerTeamId"`

	BeersAddedAt *time.Time `db:"beers_added_at" json:"beersAddedAt"`
	CompletedAt  *time.Time `db:"completed_at" json:"completedAt,omitempty"`
	CreatedAt    time.Time  `db:"created_at" json:"createdAt"`
}

func (g *Game) TeamAt(pos Position) *uuid.UUID {
	if pos == Team1 {
		return g.Team1ID
	}
	return g.Team2ID
}

func (g *Game) SetTeam(pos Position, teamID uuid.UUID) {
	if pos == Team1 {
		g.Team1ID = &teamID
	} else {
		g.Team2ID = &teamID
	}
}

func (g *Game) HasTeam(teamID uuid.UUID) bool {
	return (g.Team1ID != nil && *g.Team1ID == teamID) || (g.Team2ID != nil && *g.Team2ID == teamID)
}

func (g *Game) Ready() bool {
	return g.Team1ID != nil && g.Team2ID != nil
}

func (g *Game) IsWinner(teamID uuid.UUID) bool {
	return g.Status == GameCompleted && g.WinnerTeamID != nil && *g.WinnerTeamID == teamID
}
