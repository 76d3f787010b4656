package bracket

import (
	"time"

	"github.com/google/uuid"
)

type Team struct {
	ID           uuid.UUID `db:"id" json:"id"`
	TournamentID uuid.UUID `db:"tournament_id" json:"tournamentId"`
	Name         string    `db:"name" json:"name"`
	// Case folded name, used for uniqueness within a tournament
	NameKey   string    `db:"name_key" json:"-"`
	Player1ID string    `db:"player_1_id" json:"player1Id"`
	Player2ID string    `db:"player_2_id" json:"player2Id"`
	Seed      int       `db:"seed" json:"seed"`
	CreatedAt time.Time `db:"created_at" json:"createdAt"`
}

func (t *Team) Players() [2]string {
	return [2]string{t.Player1ID, t.Player2ID}
}

func (t *Team) HasPlayer(playerID string) bool {
	return t.Player1ID == playerID || t.Player2ID == playerID
}
