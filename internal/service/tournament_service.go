package service

import (
	"context"
	"fmt"
	"strings"

	"github.com/AdamBeresnev/beer-pong/internal/bracket"
	"github.com/AdamBeresnev/beer-pong/internal/events"
	"github.com/AdamBeresnev/beer-pong/internal/utils"
	"github.com/google/uuid"
	"github.com/gosimple/slug"
	"github.com/jmoiron/sqlx"
)

type TournamentService struct {
	*base
}

type CreateTournamentInput struct {
	ParentEventID      string                     `json:"parentEventId"`
	Name               string                     `json:"name"`
	Description        string                     `json:"description"`
	BeersPerPlayer     int                        `json:"beersPerPlayer"`
	TimeWindowMinutes  int                        `json:"timeWindowMinutes"`
	UndoWindowMinutes  int                        `json:"undoWindowMinutes"`
	CancellationPolicy bracket.CancellationPolicy `json:"cancellationPolicy"`
}

func (in CreateTournamentInput) validate() error {
	switch {
	case strings.TrimSpace(in.ParentEventID) == "":
		return fmt.Errorf("%w: parent event is required", bracket.ErrInvalidArgument)
	case strings.TrimSpace(in.Name) == "":
		return fmt.Errorf("%w: name is required", bracket.ErrInvalidArgument)
	case in.BeersPerPlayer <= 0:
		return fmt.Errorf("%w: beers per player must be positive, got %d", bracket.ErrInvalidArgument, in.BeersPerPlayer)
	case in.TimeWindowMinutes < 0:
		return fmt.Errorf("%w: time window cannot be negative, got %d", bracket.ErrInvalidArgument, in.TimeWindowMinutes)
	case in.UndoWindowMinutes < 0:
		return fmt.Errorf("%w: undo window cannot be negative, got %d", bracket.ErrInvalidArgument, in.UndoWindowMinutes)
	case !in.CancellationPolicy.Valid():
		return fmt.Errorf("%w: unknown cancellation policy %q", bracket.ErrInvalidArgument, in.CancellationPolicy)
	}
	return nil
}

type TournamentData struct {
	Tournament *bracket.Tournament `json:"tournament"`
	Teams      []bracket.Team      `json:"teams"`
	Games      []bracket.Game      `json:"games"`
}

func (s *TournamentService) CreateTournament(ctx context.Context, input CreateTournamentInput) (*bracket.Tournament, error) {
	if err := input.validate(); err != nil {
		return nil, err
	}

	name := strings.TrimSpace(input.Name)
	tournament := &bracket.Tournament{
		ID:                 uuid.New(),
		ParentEventID:      strings.TrimSpace(input.ParentEventID),
		Name:               name,
		Slug:               slug.Make(name),
		Description:        utils.StringOrNil(input.Description),
		Status:             bracket.TournamentDraft,
		BeersPerPlayer:     input.BeersPerPlayer,
		TimeWindowMinutes:  input.TimeWindowMinutes,
		UndoWindowMinutes:  input.UndoWindowMinutes,
		CancellationPolicy: input.CancellationPolicy,
		CreatedAt:          s.now(),
	}

	err := s.inTx(ctx, func(tx *sqlx.Tx) error {
		return s.store.CreateTournament(ctx, tx, tournament)
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create tournament: %w", err)
	}
	return tournament, nil
}

func (s *TournamentService) GetTournamentData(ctx context.Context, id uuid.UUID) (*TournamentData, error) {
	tournament, err := s.getTournament(ctx, id)
	if err != nil {
		return nil, err
	}

	teams, err := s.store.GetTeams(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("failed to get teams: %w", err)
	}

	games, err := s.store.GetGames(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("failed to get games: %w", err)
	}

	return &TournamentData{
		Tournament: tournament,
		Teams:      teams,
		Games:      games,
	}, nil
}

func (s *TournamentService) ListTournamentsForEvent(ctx context.Context, parentEventID string) ([]bracket.Tournament, error) {
	return s.store.GetTournamentsByEvent(ctx, parentEventID)
}

// StartTournament builds the bracket from the roster and moves the tournament to active.
// Both happen in one transaction, so the bracket exists exactly once.
func (s *TournamentService) StartTournament(ctx context.Context, id uuid.UUID) (*TournamentData, error) {
	unlock := s.locks.Lock(id)
	defer unlock()
	now := s.now()

	tournament, err := s.getTournament(ctx, id)
	if err != nil {
		return nil, err
	}
	if tournament.Status != bracket.TournamentDraft {
		return nil, fmt.Errorf("%w: tournament is %s, only a draft can be started", bracket.ErrInvalidState, tournament.Status)
	}

	var games []bracket.Game
	err = s.inTx(ctx, func(tx *sqlx.Tx) error {
		teams, err := s.store.GetTeamsTx(ctx, tx, id)
		if err != nil {
			return fmt.Errorf("failed to get teams: %w", err)
		}

		games, err = bracket.BuildBracket(id, teams)
		if err != nil {
			return err
		}

		if err := s.store.CreateGames(ctx, tx, games); err != nil {
			return fmt.Errorf("failed to create games: %w", err)
		}

		ok, err := s.store.UpdateTournamentStatusTx(ctx, tx, id, bracket.TournamentDraft, bracket.TournamentActive, now)
		if err != nil {
			return fmt.Errorf("failed to update tournament status: %w", err)
		}
		if !ok {
			return fmt.Errorf("%w: tournament is no longer a draft", bracket.ErrInvalidState)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.publish(ctx, events.Event{
		Type:         events.TournamentStarted,
		TournamentID: id,
		OccurredAt:   now,
		Data:         games,
	})

	return s.GetTournamentData(ctx, id)
}

// CompleteTournament closes an active tournament once its final has a winner.
// Completed tournaments reject every further team and game mutation.
func (s *TournamentService) CompleteTournament(ctx context.Context, id uuid.UUID) (*bracket.Tournament, error) {
	unlock := s.locks.Lock(id)
	defer unlock()
	now := s.now()

	tournament, err := s.getTournament(ctx, id)
	if err != nil {
		return nil, err
	}
	if tournament.Status != bracket.TournamentActive {
		return nil, fmt.Errorf("%w: tournament is %s, only an active tournament can be completed", bracket.ErrInvalidState, tournament.Status)
	}

	var final *bracket.Game
	err = s.inTx(ctx, func(tx *sqlx.Tx) error {
		game, err := s.store.GetGameBySlotTx(ctx, tx, id, bracket.Final, 0)
		if err != nil {
			return notFound(err, "final of tournament %s", id)
		}
		final = game
		if final.Status != bracket.GameCompleted || final.WinnerTeamID == nil {
			return fmt.Errorf("%w: the final has not been decided", bracket.ErrPreconditionFailed)
		}

		ok, err := s.store.UpdateTournamentStatusTx(ctx, tx, id, bracket.TournamentActive, bracket.TournamentCompleted, now)
		if err != nil {
			return fmt.Errorf("failed to update tournament status: %w", err)
		}
		if !ok {
			return fmt.Errorf("%w: tournament is no longer active", bracket.ErrInvalidState)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.publish(ctx, events.Event{
		Type:         events.TournamentCompleted,
		TournamentID: id,
		GameID:       utils.Ptr(final.ID),
		TeamID:       final.WinnerTeamID,
		OccurredAt:   now,
	})

	return s.getTournament(ctx, id)
}
