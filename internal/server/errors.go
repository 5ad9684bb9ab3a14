package server

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	"github.com/rs/zerolog"

	"github.com/parlorgames/parlor/internal/blackjack"
	"github.com/parlorgames/parlor/internal/session"
	"github.com/parlorgames/parlor/internal/shotgun"
)

var (
	errNotAuthorized = &httpError{status: http.StatusForbidden, msg: "not authorized"}
	errSessionClosed = &httpError{status: http.StatusConflict, msg: "session is not active"}
	errNoGame        = &httpError{status: http.StatusNotFound, msg: "game not found"}
)

// httpError carries the status code a handler should answer with.
type httpError struct {
	status int
	msg    string
}

func (e *httpError) Error() string { return e.msg }

func badRequest(format string, args ...any) error {
	return &httpError{status: http.StatusBadRequest, msg: fmt.Sprintf(format, args...)}
}

func conflict(format string, args ...any) error {
	return &httpError{status: http.StatusConflict, msg: fmt.Sprintf(format, args...)}
}

// statusFor maps domain errors onto HTTP status codes.
func statusFor(err error) int {
	var herr *httpError
	switch {
	case errors.As(err, &herr):
		return herr.status
	case errors.Is(err, session.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, session.ErrMissingData):
		return http.StatusBadRequest
	case errors.Is(err, session.ErrExists),
		errors.Is(err, session.ErrCannotJoin),
		errors.Is(err, shotgun.ErrIllegalAction),
		errors.Is(err, blackjack.ErrIllegalAction):
		return http.StatusConflict
	default:
		return http.StatusInternalServerError
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// writeError answers with {"error": "..."}. Unexpected errors are logged and
// reported generically.
func writeError(w http.ResponseWriter, logger zerolog.Logger, err error) {
	status := statusFor(err)
	msg := err.Error()
	if status == http.StatusInternalServerError {
		logger.Error().Err(err).Msg("Request failed")
		msg = "internal server error"
	}
	writeJSON(w, status, ErrorResponse{Error: msg})
}
