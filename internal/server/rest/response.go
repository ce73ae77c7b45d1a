package rest

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/dmitrijs2005/taskmaster/internal/common"
	"github.com/dmitrijs2005/taskmaster/internal/server/metrics"
)

// Client-facing messages.
const (
	msgUserExists         = "User already exists"
	msgInvalidCredentials = "Invalid credentials"
	msgTokenRequired      = "Access token required"
	msgInvalidToken       = "Invalid or expired token"
	msgUserNotFound       = "User not found"
	msgTaskNotFound       = "Task not found"
	msgTaskDeleted        = "Task deleted successfully"
	msgInvalidBody        = "Invalid request body"
	msgServerError        = "Server error"
	msgRouteNotFound      = "Not found"
	msgMethodNotAllowed   = "Method not allowed"
)

type errorResponse struct {
	Error string `json:"error"`
}

type messageResponse struct {
	Message string `json:"message"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, errorResponse{Error: msg})
}

// writeServiceError is the single place where error kinds turn into HTTP
// statuses. notFoundMsg names the missing resource. Unclassified errors are
// logged and answered with a generic 500.
func (s *Server) writeServiceError(w http.ResponseWriter, r *http.Request, err error, notFoundMsg string) {
	var ve *common.ValidationError
	switch {
	case errors.As(err, &ve):
		writeError(w, http.StatusBadRequest, ve.Message)
	case errors.Is(err, common.ErrorAlreadyExists):
		writeError(w, http.StatusBadRequest, msgUserExists)
	case errors.Is(err, common.ErrorInvalidCredentials):
		s.metrics.AuthFailure(metrics.ReasonInvalidCredentials)
		writeError(w, http.StatusBadRequest, msgInvalidCredentials)
	case errors.Is(err, common.ErrorNotFound):
		writeError(w, http.StatusNotFound, notFoundMsg)
	case errors.Is(err, common.ErrorMissingToken):
		writeError(w, http.StatusUnauthorized, msgTokenRequired)
	case errors.Is(err, common.ErrInvalidToken), errors.Is(err, common.ErrTokenExpired):
		writeError(w, http.StatusForbidden, msgInvalidToken)
	default:
		s.logger.Error(r.Context(), "request failed",
			"method", r.Method, "path", r.URL.Path, "error", err)
		writeError(w, http.StatusInternalServerError, msgServerError)
	}
}

func (s *Server) notFound(w http.ResponseWriter, _ *http.Request) {
	writeError(w, http.StatusNotFound, msgRouteNotFound)
}

func (s *Server) methodNotAllowed(w http.ResponseWriter, _ *http.Request) {
	writeError(w, http.StatusMethodNotAllowed, msgMethodNotAllowed)
}
