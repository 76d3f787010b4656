package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/AdamBeresnev/beer-pong/internal/bracket"
	"github.com/AdamBeresnev/beer-pong/internal/events"
	"github.com/AdamBeresnev/beer-pong/internal/utils"
	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
)

// GameService runs single games through pending -> in_progress -> completed.
// Starting a game credits beers to its four players; undoing the start inside
// the tournament's undo window can take them back again.
type GameService struct {
	*base
	ledger BeerLedger
}

func (s *GameService) GetGame(ctx context.Context, id uuid.UUID) (*bracket.Game, error) {
	return s.getGame(ctx, id)
}

// lockGame takes the lock of the game's tournament and loads a fresh copy of both under it.
func (s *GameService) lockGame(ctx context.Context, id uuid.UUID) (*bracket.Tournament, *bracket.Game, func(), error) {
	// The tournament of a game never changes, so reading it before locking is safe
	game, err := s.getGame(ctx, id)
	if err != nil {
		return nil, nil, nil, err
	}

	unlock := s.locks.Lock(game.TournamentID)

	tournament, err := s.getTournament(ctx, game.TournamentID)
	if err != nil {
		unlock()
		return nil, nil, nil, err
	}
	if tournament.Status != bracket.TournamentActive {
		unlock()
		return nil, nil, nil, fmt.Errorf("%w: games can only change while the tournament is active, this one is %s", bracket.ErrInvalidState, tournament.Status)
	}

	game, err = s.getGame(ctx, id)
	if err != nil {
		unlock()
		return nil, nil, nil, err
	}
	return tournament, game, unlock, nil
}

// AssignTeam fills an empty slot of a pending game by hand.
// This is gated on the game being pending rather than on the tournament being a draft:
// a draft has no games yet, so later round slots could never be filled otherwise.
func (s *GameService) AssignTeam(ctx context.Context, gameID uuid.UUID, pos bracket.Position, teamID uuid.UUID) (*bracket.Game, error) {
	if !pos.Valid() {
		return nil, fmt.Errorf("%w: position must be 1 or 2, got %d", bracket.ErrInvalidArgument, pos)
	}

	_, game, unlock, err := s.lockGame(ctx, gameID)
	if err != nil {
		return nil, err
	}
	defer unlock()
	now := s.now()

	if game.Status != bracket.GamePending {
		return nil, fmt.Errorf("%w: teams can only be assigned to a pending game, this one is %s", bracket.ErrInvalidState, game.Status)
	}

	err = s.inTx(ctx, func(tx *sqlx.Tx) error {
		teams, err := s.store.GetTeamsTx(ctx, tx, game.TournamentID)
		if err != nil {
			return fmt.Errorf("failed to get teams: %w", err)
		}
		if _, ok := teamsByID(teams)[teamID]; !ok {
			return fmt.Errorf("%w: team %s is not part of this tournament", bracket.ErrInvalidArgument, teamID)
		}

		if err := s.checkSlot(ctx, tx, game, pos, teamID); err != nil {
			return err
		}

		ok, err := s.store.SetGameTeamTx(ctx, tx, game.ID, pos, teamID)
		if err != nil {
			return fmt.Errorf("failed to assign team: %w", err)
		}
		if !ok {
			return fmt.Errorf("%w: slot %d of game %s was filled concurrently", bracket.ErrConflict, pos, game.ID)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.publish(ctx, events.Event{
		Type:         events.GameTeamAssigned,
		TournamentID: game.TournamentID,
		GameID:       utils.Ptr(game.ID),
		TeamID:       utils.Ptr(teamID),
		OccurredAt:   now,
		Data:         map[string]any{"position": pos},
	})
	return s.getGame(ctx, game.ID)
}

// checkSlot verifies teamID may be written into pos of game: the slot is empty,
// the team is not already on the other side, and it is not busy in another
// unfinished game of the same round.
func (s *GameService) checkSlot(ctx context.Context, tx *sqlx.Tx, game *bracket.Game, pos bracket.Position, teamID uuid.UUID) error {
	if current := game.TeamAt(pos); current != nil {
		return fmt.Errorf("%w: slot %d of %s game %d already holds team %s", bracket.ErrConflict, pos, game.Round, game.BracketSlot, *current)
	}
	if game.HasTeam(teamID) {
		return fmt.Errorf("%w: team %s already plays in this game", bracket.ErrConflict, teamID)
	}

	roundGames, err := s.store.GetRoundGamesTx(ctx, tx, game.TournamentID, game.Round)
	if err != nil {
		return fmt.Errorf("failed to get %s games: %w", game.Round, err)
	}
	for _, other := range roundGames {
		if other.ID != game.ID && other.Status != bracket.GameCompleted && other.HasTeam(teamID) {
			return fmt.Errorf("%w: team %s is already in %s game %d", bracket.ErrConflict, teamID, other.Round, other.BracketSlot)
		}
	}
	return nil
}

// StartGame moves a pending game in progress and credits the tournament's
// beers per player to all four players as one unit. If any credit or the
// state change fails, every credit made for this start is reversed.
func (s *GameService) StartGame(ctx context.Context, gameID uuid.UUID) (*bracket.Game, error) {
	tournament, game, unlock, err := s.lockGame(ctx, gameID)
	if err != nil {
		return nil, err
	}
	defer unlock()
	now := s.now()

	if game.Status != bracket.GamePending {
		return nil, fmt.Errorf("%w: only a pending game can be started, this one is %s", bracket.ErrInvalidState, game.Status)
	}
	if !game.Ready() {
		return nil, fmt.Errorf("%w: both teams must be assigned before the game starts", bracket.ErrInvalidState)
	}

	players, err := s.gamePlayers(ctx, game)
	if err != nil {
		return nil, err
	}

	source := gameSource(game.ID)
	amount := tournament.BeersPerPlayer
	if err := applyAll(ctx, players, amount, source, s.ledger.CreditBeers, s.ledger.ReverseBeers); err != nil {
		return nil, fmt.Errorf("failed to credit beers for game %s: %w", game.ID, err)
	}

	err = s.inTx(ctx, func(tx *sqlx.Tx) error {
		ok, err := s.store.StartGameTx(ctx, tx, game.ID, now)
		if err != nil {
			return fmt.Errorf("failed to start game: %w", err)
		}
		if !ok {
			return fmt.Errorf("%w: game %s is no longer pending", bracket.ErrInvalidState, game.ID)
		}
		return nil
	})
	if err != nil {
		compensate(ctx, players, amount, source, s.ledger.ReverseBeers)
		return nil, err
	}

	s.publish(ctx, events.Event{
		Type:         events.GameStarted,
		TournamentID: game.TournamentID,
		GameID:       utils.Ptr(game.ID),
		OccurredAt:   now,
		Data:         map[string]any{"players": players, "beersPerPlayer": amount},
	})
	return s.getGame(ctx, game.ID)
}

// UndoGame reverts a start that happened at most undoWindowMinutes ago.
// Teams stay assigned. Under remove_beers the exact start credit is reversed,
// under keep_beers the ledger is left alone.
func (s *GameService) UndoGame(ctx context.Context, gameID uuid.UUID) (*bracket.Game, error) {
	tournament, game, unlock, err := s.lockGame(ctx, gameID)
	if err != nil {
		return nil, err
	}
	defer unlock()
	now := s.now()

	if game.Status != bracket.GameInProgress || game.WinnerTeamID != nil {
		return nil, fmt.Errorf("%w: only a running game without a winner can be undone, this one is %s", bracket.ErrInvalidState, game.Status)
	}
	if game.BeersAddedAt == nil {
		return nil, fmt.Errorf("%w: game %s is in progress without a start time", bracket.ErrInconsistent, game.ID)
	}
	if elapsed := now.Sub(*game.BeersAddedAt); elapsed > tournament.UndoWindow() {
		return nil, fmt.Errorf("%w: game started %s ago, undo window is %d minutes", bracket.ErrWindowExpired, elapsed.Round(time.Second), tournament.UndoWindowMinutes)
	}

	removeBeers := tournament.CancellationPolicy == bracket.RemoveBeers
	source := gameSource(game.ID)
	amount := tournament.BeersPerPlayer

	var players []string
	if removeBeers {
		players, err = s.gamePlayers(ctx, game)
		if err != nil {
			return nil, err
		}
		if err := applyAll(ctx, players, amount, source, s.ledger.ReverseBeers, s.ledger.CreditBeers); err != nil {
			return nil, fmt.Errorf("failed to reverse beers for game %s: %w", game.ID, err)
		}
	}

	err = s.inTx(ctx, func(tx *sqlx.Tx) error {
		ok, err := s.store.UndoGameTx(ctx, tx, game.ID)
		if err != nil {
			return fmt.Errorf("failed to undo game: %w", err)
		}
		if !ok {
			return fmt.Errorf("%w: game %s is no longer undoable", bracket.ErrInvalidState, game.ID)
		}
		return nil
	})
	if err != nil {
		if removeBeers {
			compensate(ctx, players, amount, source, s.ledger.CreditBeers)
		}
		return nil, err
	}

	s.publish(ctx, events.Event{
		Type:         events.GameUndone,
		TournamentID: game.TournamentID,
		GameID:       utils.Ptr(game.ID),
		OccurredAt:   now,
		Data:         map[string]any{"beersRemoved": removeBeers},
	})
	return s.getGame(ctx, game.ID)
}

// CompleteGame records the winner and, outside the final, writes the winner into its downstream slot.
// Completing the final does not complete the tournament.
func (s *GameService) CompleteGame(ctx context.Context, gameID, winnerTeamID uuid.UUID) (*bracket.Game, error) {
	_, game, unlock, err := s.lockGame(ctx, gameID)
	if err != nil {
		return nil, err
	}
	defer unlock()
	now := s.now()

	if game.Status != bracket.GameInProgress {
		return nil, fmt.Errorf("%w: only a game in progress can be completed, this one is %s", bracket.ErrInvalidState, game.Status)
	}
	if !game.HasTeam(winnerTeamID) {
		return nil, fmt.Errorf("%w: winner %s is not part of this game", bracket.ErrInvalidArgument, winnerTeamID)
	}

	err = s.inTx(ctx, func(tx *sqlx.Tx) error {
		ok, err := s.store.CompleteGameTx(ctx, tx, game.ID, winnerTeamID, now)
		if err != nil {
			return fmt.Errorf("failed to complete game: %w", err)
		}
		if !ok {
			return fmt.Errorf("%w: game %s is no longer in progress", bracket.ErrInvalidState, game.ID)
		}
		return s.propagateWinner(ctx, tx, game, winnerTeamID)
	})
	if err != nil {
		if errors.Is(err, bracket.ErrInconsistent) {
			slog.Error("bracket invariant violated", "game_id", game.ID, "tournament_id", game.TournamentID, "error", err)
		}
		return nil, err
	}

	s.publish(ctx, events.Event{
		Type:         events.GameCompleted,
		TournamentID: game.TournamentID,
		GameID:       utils.Ptr(game.ID),
		TeamID:       utils.Ptr(winnerTeamID),
		OccurredAt:   now,
		Data:         map[string]any{"round": game.Round, "bracketSlot": game.BracketSlot},
	})
	return s.getGame(ctx, game.ID)
}

// propagateWinner writes the winner into the next round. Writing the same team twice is a no-op;
// finding a different team there means two writers raced and the bracket can no longer be trusted.
func (s *GameService) propagateWinner(ctx context.Context, tx *sqlx.Tx, game *bracket.Game, winnerTeamID uuid.UUID) error {
	target, ok := bracket.Downstream(game.Round, game.BracketSlot)
	if !ok {
		return nil
	}

	next, err := s.store.GetGameBySlotTx(ctx, tx, game.TournamentID, target.Round, target.Slot)
	if err != nil {
		return fmt.Errorf("%w: %s game %d is missing: %v", bracket.ErrInconsistent, target.Round, target.Slot, err)
	}

	if current := next.TeamAt(target.Position); current != nil {
		if *current == winnerTeamID {
			return nil
		}
		return fmt.Errorf("%w: slot %d of %s game %d holds team %s, cannot place winner %s",
			bracket.ErrInconsistent, target.Position, target.Round, target.Slot, *current, winnerTeamID)
	}
	if next.Status != bracket.GamePending {
		return fmt.Errorf("%w: %s game %d is %s with an empty slot", bracket.ErrInconsistent, target.Round, target.Slot, next.Status)
	}
	if err := s.checkSlot(ctx, tx, next, target.Position, winnerTeamID); err != nil {
		return fmt.Errorf("%w: %w", bracket.ErrInconsistent, err)
	}

	ok, err = s.store.SetGameTeamTx(ctx, tx, next.ID, target.Position, winnerTeamID)
	if err != nil {
		return fmt.Errorf("failed to propagate winner: %w", err)
	}
	if !ok {
		return fmt.Errorf("%w: %s game %d changed while propagating", bracket.ErrInconsistent, target.Round, target.Slot)
	}
	return nil
}

// gamePlayers returns the four players of a game: team 1's two players, then team 2's.
func (s *GameService) gamePlayers(ctx context.Context, game *bracket.Game) ([]string, error) {
	teams, err := s.store.GetTeams(ctx, game.TournamentID)
	if err != nil {
		return nil, fmt.Errorf("failed to get teams: %w", err)
	}
	byID := teamsByID(teams)

	players := make([]string, 0, 4)
	for _, pos := range []bracket.Position{bracket.Team1, bracket.Team2} {
		teamID := game.TeamAt(pos)
		if teamID == nil {
			return nil, fmt.Errorf("%w: game %s has no team %d", bracket.ErrInvalidState, game.ID, pos)
		}
		team, ok := byID[*teamID]
		if !ok {
			return nil, fmt.Errorf("%w: team %s of game %s does not exist", bracket.ErrInconsistent, *teamID, game.ID)
		}
		players = append(players, team.Player1ID, team.Player2ID)
	}
	return players, nil
}

func teamsByID(teams []bracket.Team) map[uuid.UUID]bracket.Team {
	byID := make(map[uuid.UUID]bracket.Team, len(teams))
	for _, t := range teams {
		byID[t.ID] = t
	}
	return byID
}
