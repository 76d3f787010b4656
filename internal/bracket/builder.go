package bracket

import (
	"fmt"

	"github.com/google/uuid"
)

var roundOrder = []Round{Quarterfinal, Semifinal, Final}

// BuildBracket lays out the 7 games of an 8 team single elimination bracket.
// Quarterfinals pair the roster in order: teams[0] vs teams[1], teams[2] vs teams[3] and so on.
// Later rounds start empty and get filled as winners propagate.
func BuildBracket(tournamentID uuid.UUID, teams []Team) ([]Game, error) {
	if len(teams) != MaxTeams {
		return nil, fmt.Errorf("%w: bracket needs exactly %d teams, got %d", ErrPreconditionFailed, MaxTeams, len(teams))
	}

	games := make([]Game, 0, MaxTeams-1)
	for _, round := range roundOrder {
		for slot := 0; slot < round.Games(); slot++ {
			g := Game{
				ID:           uuid.New(),
				TournamentID: tournamentID,
				Round:        round,
				BracketSlot:  slot,
				Status:       GamePending,
			}

			if round == Quarterfinal {
				g.SetTeam(Team1, teams[2*slot].ID)
				g.SetTeam(Team2, teams[2*slot+1].ID)
			}

			games = append(games, g)
		}
	}

	return games, nil
}
