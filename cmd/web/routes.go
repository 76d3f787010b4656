package main

import (
	"context"
	"net/http"

	"github.com/AdamBeresnev/beer-pong/internal/bracket"
	"github.com/AdamBeresnev/beer-pong/internal/config"
	"github.com/AdamBeresnev/beer-pong/internal/httputil"
	"github.com/AdamBeresnev/beer-pong/internal/service"
	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/google/uuid"
)

type playerTotals interface {
	PlayerTotal(ctx context.Context, playerID string) (int, error)
}

type assignTeamRequest struct {
	Position bracket.Position `json:"position"`
	TeamID   uuid.UUID        `json:"teamId"`
}

type completeGameRequest struct {
	WinnerTeamID uuid.UUID `json:"winnerTeamId"`
}

type playerBeersResponse struct {
	PlayerID string `json:"playerId"`
	Beers    int    `json:"beers"`
}

func newRouter(engine *service.Engine, ledger playerTotals, cfg *config.Config) http.Handler {
	r := chi.NewRouter()

	r.Use(chimiddleware.RequestID)
	r.Use(chimiddleware.Logger)
	r.Use(chimiddleware.Recoverer)
	r.Use(chimiddleware.Timeout(cfg.RequestTimeout))

	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		httputil.WriteJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})

	r.Post("/tournaments", func(w http.ResponseWriter, r *http.Request) {
		var input service.CreateTournamentInput
		if err := httputil.DecodeJSON(r, &input); err != nil {
			httputil.BadRequest(w, "Invalid request body", err)
			return
		}
		tournament, err := engine.Tournaments.CreateTournament(r.Context(), input)
		if err != nil {
			httputil.ServiceError(w, "Failed to create tournament", err)
			return
		}
		httputil.WriteJSON(w, http.StatusCreated, tournament)
	})

	r.Get("/events/{eventID}/tournaments", func(w http.ResponseWriter, r *http.Request) {
		tournaments, err := engine.Tournaments.ListTournamentsForEvent(r.Context(), chi.URLParam(r, "eventID"))
		if err != nil {
			httputil.ServiceError(w, "Failed to list tournaments", err)
			return
		}
		httputil.WriteJSON(w, http.StatusOK, tournaments)
	})

	r.Route("/tournaments/{id}", func(r chi.Router) {
		r.Get("/", func(w http.ResponseWriter, r *http.Request) {
			id, ok := pathID(w, r, "id")
			if !ok {
				return
			}
			data, err := engine.Tournaments.GetTournamentData(r.Context(), id)
			if err != nil {
				httputil.ServiceError(w, "Failed to get tournament", err)
				return
			}
			httputil.WriteJSON(w, http.StatusOK, data)
		})

		r.Get("/bracket", func(w http.ResponseWriter, r *http.Request) {
			id, ok := pathID(w, r, "id")
			if !ok {
				return
			}
			data, err := engine.Tournaments.GetTournamentData(r.Context(), id)
			if err != nil {
				httputil.ServiceError(w, "Failed to get bracket", err)
				return
			}
			httputil.WriteJSON(w, http.StatusOK, bracket.PrepareBracketView(data.Teams, data.Games))
		})

		r.Post("/start", func(w http.ResponseWriter, r *http.Request) {
			id, ok := pathID(w, r, "id")
			if !ok {
				return
			}
			data, err := engine.Tournaments.StartTournament(r.Context(), id)
			if err != nil {
				httputil.ServiceError(w, "Failed to start tournament", err)
				return
			}
			httputil.WriteJSON(w, http.StatusOK, data)
		})

		r.Post("/complete", func(w http.ResponseWriter, r *http.Request) {
			id, ok := pathID(w, r, "id")
			if !ok {
				return
			}
			tournament, err := engine.Tournaments.CompleteTournament(r.Context(), id)
			if err != nil {
				httputil.ServiceError(w, "Failed to complete tournament", err)
				return
			}
			httputil.WriteJSON(w, http.StatusOK, tournament)
		})

		r.Get("/teams", func(w http.ResponseWriter, r *http.Request) {
			id, ok := pathID(w, r, "id")
			if !ok {
				return
			}
			teams, err := engine.Teams.ListTeams(r.Context(), id)
			if err != nil {
				httputil.ServiceError(w, "Failed to list teams", err)
				return
			}
			httputil.WriteJSON(w, http.StatusOK, teams)
		})

		r.Post("/teams", func(w http.ResponseWriter, r *http.Request) {
			id, ok := pathID(w, r, "id")
			if !ok {
				return
			}
			var input service.AddTeamInput
			if err := httputil.DecodeJSON(r, &input); err != nil {
				httputil.BadRequest(w, "Invalid request body", err)
				return
			}
			team, err := engine.Teams.AddTeam(r.Context(), id, input)
			if err != nil {
				httputil.ServiceError(w, "Failed to add team", err)
				return
			}
			httputil.WriteJSON(w, http.StatusCreated, team)
		})

		r.Delete("/teams/{teamID}", func(w http.ResponseWriter, r *http.Request) {
			id, ok := pathID(w, r, "id")
			if !ok {
				return
			}
			teamID, ok := pathID(w, r, "teamID")
			if !ok {
				return
			}
			if err := engine.Teams.RemoveTeam(r.Context(), id, teamID); err != nil {
				httputil.ServiceError(w, "Failed to remove team", err)
				return
			}
			w.WriteHeader(http.StatusNoContent)
		})
	})

	r.Route("/games/{id}", func(r chi.Router) {
		r.Get("/", func(w http.ResponseWriter, r *http.Request) {
			id, ok := pathID(w, r, "id")
			if !ok {
				return
			}
			game, err := engine.Games.GetGame(r.Context(), id)
			if err != nil {
				httputil.ServiceError(w, "Failed to get game", err)
				return
			}
			httputil.WriteJSON(w, http.StatusOK, game)
		})

		r.Post("/assign", func(w http.ResponseWriter, r *http.Request) {
			id, ok := pathID(w, r, "id")
			if !ok {
				return
			}
			var req assignTeamRequest
			if err := httputil.DecodeJSON(r, &req); err != nil {
				httputil.BadRequest(w, "Invalid request body", err)
				return
			}
			game, err := engine.Games.AssignTeam(r.Context(), id, req.Position, req.TeamID)
			if err != nil {
				httputil.ServiceError(w, "Failed to assign team", err)
				return
			}
			httputil.WriteJSON(w, http.StatusOK, game)
		})

		r.Post("/start", func(w http.ResponseWriter, r *http.Request) {
			id, ok := pathID(w, r, "id")
			if !ok {
				return
			}
			game, err := engine.Games.StartGame(r.Context(), id)
			if err != nil {
				httputil.ServiceError(w, "Failed to start game", err)
				return
			}
			httputil.WriteJSON(w, http.StatusOK, game)
		})

		r.Post("/undo", func(w http.ResponseWriter, r *http.Request) {
			id, ok := pathID(w, r, "id")
			if !ok {
				return
			}
			game, err := engine.Games.UndoGame(r.Context(), id)
			if err != nil {
				httputil.ServiceError(w, "Failed to undo game", err)
				return
			}
			httputil.WriteJSON(w, http.StatusOK, game)
		})

		r.Post("/complete", func(w http.ResponseWriter, r *http.Request) {
			id, ok := pathID(w, r, "id")
			if !ok {
				return
			}
			var req completeGameRequest
			if err := httputil.DecodeJSON(r, &req); err != nil {
				httputil.BadRequest(w, "Invalid request body", err)
				return
			}
			game, err := engine.Games.CompleteGame(r.Context(), id, req.WinnerTeamID)
			if err != nil {
				httputil.ServiceError(w, "Failed to complete game", err)
				return
			}
			httputil.WriteJSON(w, http.StatusOK, game)
		})
	})

	r.Get("/players/{playerID}/beers", func(w http.ResponseWriter, r *http.Request) {
		playerID := chi.URLParam(r, "playerID")
		total, err := ledger.PlayerTotal(r.Context(), playerID)
		if err != nil {
			httputil.InternalServerError(w, "Failed to get beer total", err)
			return
		}
		httputil.WriteJSON(w, http.StatusOK, playerBeersResponse{PlayerID: playerID, Beers: total})
	})

	return r
}

func pathID(w http.ResponseWriter, r *http.Request, param string) (uuid.UUID, bool) {
	id, err := uuid.Parse(chi.URLParam(r, param))
	if err != nil {
		httputil.BadRequest(w, "Invalid "+param, err)
		return uuid.Nil, false
	}
	return id, true
}
