package bracket

// Target names the game slot a winner is written into.
type Target struct {
	Round    Round
	Slot     int
	Position Position
}

var nextRound = map[Round]Round{
	Quarterfinal: Semifinal,
	Semifinal:    Final,
}

// Downstream returns where the winner of the game at (round, slot) goes.
// Game i of a round feeds game i/2 of the next one, even slots on the team 1 side.
// The final has no downstream.
func Downstream(round Round, slot int) (Target, bool) {
	next, ok := nextRound[round]
	if !ok || slot < 0 || slot >= round.Games() {
		return Target{}, false
	}

	pos := Team1
	if slot%2 != 0 {
		pos = Team2
	}
	return Target{Round: next, Slot: slot / 2, Position: pos}, true
}
