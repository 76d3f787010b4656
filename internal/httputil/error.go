package httputil

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/AdamBeresnev/beer-pong/internal/bracket"
)

type ErrorResponse struct {
	Message string `json:"message"`
	Code    int    `json:"code"`
}

func InternalServerError(w http.ResponseWriter, msg string, err error) {
	slog.Error(msg, "error", err)
	WriteError(w, http.StatusInternalServerError, "Internal Server Error")
}

func BadRequest(w http.ResponseWriter, msg string, err error) {
	if err != nil {
		slog.Warn("bad request", "message", msg, "error", err)
	} else {
		slog.Warn("bad request", "message", msg)
	}
	WriteError(w, http.StatusBadRequest, msg)
}

func NotFound(w http.ResponseWriter, msg string, err error) {
	if err != nil {
		slog.Warn("not found", "message", msg, "error", err)
	} else {
		slog.Warn("not found", "message", msg)
	}
	WriteError(w, http.StatusNotFound, msg)
}

// StatusFor maps an engine error to the HTTP status reported to clients.
// Inconsistent is checked first since it may wrap another sentinel.
func StatusFor(err error) int {
	switch {
	case errors.Is(err, bracket.ErrInconsistent):
		return http.StatusInternalServerError
	case errors.Is(err, bracket.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, bracket.ErrInvalidArgument):
		return http.StatusBadRequest
	case errors.Is(err, bracket.ErrInvalidState), errors.Is(err, bracket.ErrConflict):
		return http.StatusConflict
	case errors.Is(err, bracket.ErrPreconditionFailed):
		return http.StatusPreconditionFailed
	case errors.Is(err, bracket.ErrWindowExpired):
		return http.StatusUnprocessableEntity
	default:
		return http.StatusInternalServerError
	}
}

// ServiceError writes err with the status StatusFor picks. Server side failures
// are logged with the cause and hidden from the client.
func ServiceError(w http.ResponseWriter, msg string, err error) {
	status := StatusFor(err)
	switch {
	case errors.Is(err, bracket.ErrInconsistent):
		slog.Error("bracket is inconsistent", "message", msg, "error", err)
		WriteError(w, status, err.Error())
	case status == http.StatusInternalServerError:
		InternalServerError(w, msg, err)
	default:
		slog.Warn("request rejected", "message", msg, "status", status, "error", err)
		WriteError(w, status, err.Error())
	}
}
