package service

import (
	"context"
	"fmt"
	"strings"

	"github.com/AdamBeresnev/beer-pong/internal/bracket"
	"github.com/AdamBeresnev/beer-pong/internal/events"
	"github.com/AdamBeresnev/beer-pong/internal/utils"
	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"golang.org/x/text/cases"
)

// TeamService owns tournament rosters. Rosters can only change while the tournament is a draft.
type TeamService struct {
	*base
}

type AddTeamInput struct {
	Name      string `json:"name"`
	Player1ID string `json:"player1Id"`
	Player2ID string `json:"player2Id"`
}

// nameKey folds case so "Hop Stars" and "HOP STARS" collide.
func nameKey(name string) string {
	return cases.Fold().String(strings.TrimSpace(name))
}

func (s *TeamService) AddTeam(ctx context.Context, tournamentID uuid.UUID, input AddTeamInput) (*bracket.Team, error) {
	name := strings.TrimSpace(input.Name)
	player1 := strings.TrimSpace(input.Player1ID)
	player2 := strings.TrimSpace(input.Player2ID)
	if name == "" || player1 == "" || player2 == "" {
		return nil, fmt.Errorf("%w: team name and both players are required", bracket.ErrInvalidArgument)
	}

	unlock := s.locks.Lock(tournamentID)
	defer unlock()
	now := s.now()

	tournament, err := s.getTournament(ctx, tournamentID)
	if err != nil {
		return nil, err
	}
	if tournament.Status != bracket.TournamentDraft {
		return nil, fmt.Errorf("%w: teams can only be added to a draft tournament, this one is %s", bracket.ErrInvalidState, tournament.Status)
	}
	if player1 == player2 {
		return nil, fmt.Errorf("%w: a team needs two different players", bracket.ErrConflict)
	}

	team := &bracket.Team{
		ID:           uuid.New(),
		TournamentID: tournamentID,
		Name:         name,
		NameKey:      nameKey(name),
		Player1ID:    player1,
		Player2ID:    player2,
		CreatedAt:    now,
	}

	err = s.inTx(ctx, func(tx *sqlx.Tx) error {
		teams, err := s.store.GetTeamsTx(ctx, tx, tournamentID)
		if err != nil {
			return fmt.Errorf("failed to get teams: %w", err)
		}
		if len(teams) >= bracket.MaxTeams {
			return fmt.Errorf("%w: tournament already has %d teams", bracket.ErrConflict, bracket.MaxTeams)
		}

		for _, other := range teams {
			if other.NameKey == team.NameKey {
				return fmt.Errorf("%w: team name %q is already taken", bracket.ErrConflict, name)
			}
			for _, playerID := range team.Players() {
				if other.HasPlayer(playerID) {
					return fmt.Errorf("%w: player %s already plays for %q", bracket.ErrConflict, playerID, other.Name)
				}
			}
			if other.Seed >= team.Seed {
				team.Seed = other.Seed + 1
			}
		}
		if team.Seed == 0 {
			team.Seed = 1
		}

		return s.store.CreateTeam(ctx, tx, team)
	})
	if err != nil {
		return nil, err
	}

	s.publish(ctx, events.Event{
		Type:         events.TeamAdded,
		TournamentID: tournamentID,
		TeamID:       utils.Ptr(team.ID),
		OccurredAt:   now,
		Data:         team,
	})
	return team, nil
}

func (s *TeamService) RemoveTeam(ctx context.Context, tournamentID, teamID uuid.UUID) error {
	unlock := s.locks.Lock(tournamentID)
	defer unlock()
	now := s.now()

	tournament, err := s.getTournament(ctx, tournamentID)
	if err != nil {
		return err
	}
	if tournament.Status != bracket.TournamentDraft {
		return fmt.Errorf("%w: teams can only be removed from a draft tournament, this one is %s", bracket.ErrInvalidState, tournament.Status)
	}

	err = s.inTx(ctx, func(tx *sqlx.Tx) error {
		ok, err := s.store.DeleteTeam(ctx, tx, tournamentID, teamID)
		if err != nil {
			return fmt.Errorf("failed to delete team: %w", err)
		}
		if !ok {
			return fmt.Errorf("%w: team %s in tournament %s", bracket.ErrNotFound, teamID, tournamentID)
		}
		return nil
	})
	if err != nil {
		return err
	}

	s.publish(ctx, events.Event{
		Type:         events.TeamRemoved,
		TournamentID: tournamentID,
		TeamID:       utils.Ptr(teamID),
		OccurredAt:   now,
	})
	return nil
}

func (s *TeamService) ListTeams(ctx context.Context, tournamentID uuid.UUID) ([]bracket.Team, error) {
	if _, err := s.getTournament(ctx, tournamentID); err != nil {
		return nil, err
	}
	return s.store.GetTeams(ctx, tournamentID)
}
