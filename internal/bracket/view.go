package bracket

import (
	"sort"

	"github.com/google/uuid"
)

// Rounds lists the rounds of the bracket in playing order.
var Rounds = []Round{Quarterfinal, Semifinal, Final}

type RoundView struct {
	Round Round  `json:"round"`
	Games []Game `json:"games"`
}

// BracketView is a tournament's games grouped by round with a team lookup, ready for display.
type BracketView struct {
	Rounds []RoundView         `json:"rounds"`
	Teams  map[uuid.UUID]Team `json:"teams"`

	// Winner of the final, nil until it is decided
	Champion *uuid.UUID `json:"champion"`
}

func PrepareBracketView(teams []Team, games []Game) BracketView {
	teamMap := make(map[uuid.UUID]Team, len(teams))
	for _, t := range teams {
		teamMap[t.ID] = t
	}

	byRound := make(map[Round][]Game)
	for _, g := range games {
		byRound[g.Round] = append(byRound[g.Round], g)
	}

	view := BracketView{Teams: teamMap, Rounds: []RoundView{}}
	for _, r := range Rounds {
		roundGames, ok := byRound[r]
		if !ok {
			continue
		}
		sort.Slice(roundGames, func(i, j int) bool {
			return roundGames[i].BracketSlot < roundGames[j].BracketSlot
		})
		view.Rounds = append(view.Rounds, RoundView{Round: r, Games: roundGames})

		if r == Final && roundGames[0].Status == GameCompleted {
			view.Champion = roundGames[0].WinnerTeamID
		}
	}
	return view
}
