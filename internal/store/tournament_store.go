package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/AdamBeresnev/beer-pong/internal/bracket"
	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/mattn/go-sqlite3"
)

const (
	gameColumns = `id, tournament_id, round, bracket_slot, team_1_id, team_2_id, status,
		winner_team_id, beers_added_at, completed_at, created_at`
	gameOrder = `ORDER BY CASE round WHEN 'quarterfinal' THEN 1 WHEN 'semifinal' THEN 2 ELSE 3 END, bracket_slot`
)

type TournamentStore struct {
	db *sqlx.DB
}

func NewTournamentStore(db *sqlx.DB) *TournamentStore {
	return &TournamentStore{db: db}
}

func (s *TournamentStore) CreateTournament(ctx context.Context, tx *sqlx.Tx, tournament *bracket.Tournament) error {
	_, err := tx.NamedExecContext(ctx, `INSERT INTO tournaments (id, parent_event_id, name, slug, description, status,
		beers_per_player, time_window_minutes, undo_window_minutes, cancellation_policy, created_at)
		VALUES (:id, :parent_event_id, :name, :slug, :description, :status,
		:beers_per_player, :time_window_minutes, :undo_window_minutes, :cancellation_policy, :created_at)`, tournament)
	return err
}

func (s *TournamentStore) GetTournament(ctx context.Context, id uuid.UUID) (*bracket.Tournament, error) {
	var tournament bracket.Tournament
	err := s.db.GetContext(ctx, &tournament, "SELECT * FROM tournaments WHERE id = ?", id)
	if err != nil {
		return nil, err
	}
	return &tournament, nil
}

func (s *TournamentStore) GetTournamentsByEvent(ctx context.Context, parentEventID string) ([]bracket.Tournament, error) {
	tournaments := []bracket.Tournament{}
	err := s.db.SelectContext(ctx, &tournaments, "SELECT * FROM tournaments WHERE parent_event_id = ? ORDER BY created_at DESC", parentEventID)
	return tournaments, err
}

// UpdateTournamentStatusTx moves a tournament from one status to another and stamps the matching timestamp.
// Returns false when the tournament was not in the expected status.
func (s *TournamentStore) UpdateTournamentStatusTx(ctx context.Context, tx *sqlx.Tx, id uuid.UUID, from, to bracket.TournamentStatus, at time.Time) (bool, error) {
	column := "started_at"
	if to == bracket.TournamentCompleted {
		column = "completed_at"
	}
	res, err := tx.ExecContext(ctx, `UPDATE tournaments SET status = ?, `+column+` = ? WHERE id = ? AND status = ?`, to, at, id, from)
	if err != nil {
		return false, err
	}
	return affectedOne(res)
}

func (s *TournamentStore) CreateTeam(ctx context.Context, tx *sqlx.Tx, team *bracket.Team) error {
	_, err := tx.NamedExecContext(ctx, `INSERT INTO teams (id, tournament_id, name, name_key, player_1_id, player_2_id, seed, created_at)
		VALUES (:id, :tournament_id, :name, :name_key, :player_1_id, :player_2_id, :seed, :created_at)`, team)
	if isUniqueViolation(err) {
		return fmt.Errorf("%w: team name already taken", bracket.ErrConflict)
	}
	return err
}

func (s *TournamentStore) DeleteTeam(ctx context.Context, tx *sqlx.Tx, tournamentID, teamID uuid.UUID) (bool, error) {
	res, err := tx.ExecContext(ctx, "DELETE FROM teams WHERE id = ? AND tournament_id = ?", teamID, tournamentID)
	if err != nil {
		return false, err
	}
	return affectedOne(res)
}

func (s *TournamentStore) GetTeams(ctx context.Context, tournamentID uuid.UUID) ([]bracket.Team, error) {
	return getTeams(ctx, s.db, tournamentID)
}

func (s *TournamentStore) GetTeamsTx(ctx context.Context, tx *sqlx.Tx, tournamentID uuid.UUID) ([]bracket.Team, error) {
	return getTeams(ctx, tx, tournamentID)
}

func getTeams(ctx context.Context, q sqlx.QueryerContext, tournamentID uuid.UUID) ([]bracket.Team, error) {
	teams := []bracket.Team{}
	err := sqlx.SelectContext(ctx, q, &teams, "SELECT * FROM teams WHERE tournament_id = ? ORDER BY seed ASC", tournamentID)
	return teams, err
}

func (s *TournamentStore) CreateGames(ctx context.Context, tx *sqlx.Tx, games []bracket.Game) error {
	if len(games) == 0 {
		return nil
	}
	_, err := tx.NamedExecContext(ctx, `INSERT INTO games (id, tournament_id, round, bracket_slot, team_1_id, team_2_id, status)
		VALUES (:id, :tournament_id, :round, :bracket_slot, :team_1_id, :team_2_id, :status)`, games)
	return err
}

func (s *TournamentStore) GetGame(ctx context.Context, id uuid.UUID) (*bracket.Game, error) {
	return getGame(ctx, s.db, "id = ?", id)
}

func (s *TournamentStore) GetGameTx(ctx context.Context, tx *sqlx.Tx, id uuid.UUID) (*bracket.Game, error) {
	return getGame(ctx, tx, "id = ?", id)
}

func (s *TournamentStore) GetGameBySlotTx(ctx context.Context, tx *sqlx.Tx, tournamentID uuid.UUID, round bracket.Round, slot int) (*bracket.Game, error) {
	return getGame(ctx, tx, "tournament_id = ? AND round = ? AND bracket_slot = ?", tournamentID, round, slot)
}

func getGame(ctx context.Context, q sqlx.QueryerContext, where string, args ...any) (*bracket.Game, error) {
	var game bracket.Game
	if err := sqlx.GetContext(ctx, q, &game, "SELECT "+gameColumns+" FROM games WHERE "+where, args...); err != nil {
		return nil, err
	}
	return &game, nil
}

func (s *TournamentStore) GetGames(ctx context.Context, tournamentID uuid.UUID) ([]bracket.Game, error) {
	games := []bracket.Game{}
	err := s.db.SelectContext(ctx, &games, "SELECT "+gameColumns+" FROM games WHERE tournament_id = ? "+gameOrder, tournamentID)
	return games, err
}

func (s *TournamentStore) GetRoundGamesTx(ctx context.Context, tx *sqlx.Tx, tournamentID uuid.UUID, round bracket.Round) ([]bracket.Game, error) {
	games := []bracket.Game{}
	err := tx.SelectContext(ctx, &games, "SELECT "+gameColumns+" FROM games WHERE tournament_id = ? AND round = ? ORDER BY bracket_slot", tournamentID, round)
	return games, err
}

// StartGameTx flips a pending game to in progress. Returns false if the game was not pending.
func (s *TournamentStore) StartGameTx(ctx context.Context, tx *sqlx.Tx, id uuid.UUID, at time.Time) (bool, error) {
	res, err := tx.ExecContext(ctx, `UPDATE games SET status = ?, beers_added_at = ?
		WHERE id = ? AND status = ? AND team_1_id IS NOT NULL AND team_2_id IS NOT NULL`,
		bracket.GameInProgress, at, id, bracket.GamePending)
	if err != nil {
		return false, err
	}
	return affectedOne(res)
}

// UndoGameTx puts an in progress game without a winner back to pending. Team slots stay as they are.
func (s *TournamentStore) UndoGameTx(ctx context.Context, tx *sqlx.Tx, id uuid.UUID) (bool, error) {
	res, err := tx.ExecContext(ctx, `UPDATE games SET status = ?, beers_added_at = NULL
		WHERE id = ? AND status = ? AND winner_team_id IS NULL`,
		bracket.GamePending, id, bracket.GameInProgress)
	if err != nil {
		return false, err
	}
	return affectedOne(res)
}

func (s *TournamentStore) CompleteGameTx(ctx context.Context, tx *sqlx.Tx, id, winnerTeamID uuid.UUID, at time.Time) (bool, error) {
	res, err := tx.ExecContext(ctx, `UPDATE games SET status = ?, winner_team_id = ?, completed_at = ?
		WHERE id = ? AND status = ? AND (team_1_id = ? OR team_2_id = ?)`,
		bracket.GameCompleted, winnerTeamID, at, id, bracket.GameInProgress, winnerTeamID, winnerTeamID)
	if err != nil {
		return false, err
	}
	return affectedOne(res)
}

// SetGameTeamTx fills an empty slot of a pending game. Returns false if the slot was taken or the game moved on.
func (s *TournamentStore) SetGameTeamTx(ctx context.Context, tx *sqlx.Tx, id uuid.UUID, pos bracket.Position, teamID uuid.UUID) (bool, error) {
	column := "team_1_id"
	if pos == bracket.Team2 {
		column = "team_2_id"
	}
	res, err := tx.ExecContext(ctx, `UPDATE games SET `+column+` = ? WHERE id = ? AND status = ? AND `+column+` IS NULL`,
		teamID, id, bracket.GamePending)
	if err != nil {
		return false, err
	}
	return affectedOne(res)
}

func affectedOne(res sql.Result) (bool, error) {
	n, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	return n == 1, nil
}

func isUniqueViolation(err error) bool {
	var sqliteErr sqlite3.Error
	return errors.As(err, &sqliteErr) && sqliteErr.ExtendedCode == sqlite3.ErrConstraintUnique
}
