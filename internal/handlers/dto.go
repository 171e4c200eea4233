package handlers

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"time"

	"go.uber.org/zap"

	"mindwell/internal/apperr"
	"mindwell/internal/auth"
	"mindwell/internal/models"
)

// ProfileDTO is the profile as returned to clients, with the landing page for its role.
type ProfileDTO struct {
	ID           string  `json:"id"`
	Email        string  `json:"email"`
	FullName     *string `json:"full_name,omitempty"`
	Role         string  `json:"role"`
	Organization *string `json:"organization,omitempty"`
	CreatedAt    string  `json:"created_at"`
	Redirect     string  `json:"redirect"`
}

func ToProfileDTO(p models.Profile) ProfileDTO {
	return ProfileDTO{
		ID:           p.ID,
		Email:        p.Email,
		FullName:     p.FullName,
		Role:         string(p.Role),
		Organization: p.Organization,
		CreatedAt:    p.CreatedAt.Format(time.RFC3339),
		Redirect:     auth.RedirectPath(p.Role),
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

// writeError maps the apperr taxonomy onto HTTP statuses. Only unexpected
// errors are logged.
func writeError(w http.ResponseWriter, logger *zap.Logger, err error, op string) {
	var invalid *apperr.InvalidInputError
	switch {
	case errors.As(err, &invalid):
		http.Error(w, invalid.Error(), http.StatusBadRequest)
	case errors.Is(err, apperr.ErrNotFound):
		http.Error(w, "not found", http.StatusNotFound)
	case errors.Is(err, apperr.ErrForbidden):
		http.Error(w, "forbidden", http.StatusForbidden)
	case errors.Is(err, apperr.ErrConflict):
		http.Error(w, "already exists", http.StatusConflict)
	case apperr.IsUpstream(err):
		logger.Error(op+" failed", zap.Error(err))
		http.Error(w, "upstream service unavailable", http.StatusBadGateway)
	default:
		logger.Error(op+" failed", zap.Error(err))
		http.Error(w, "server error", http.StatusInternalServerError)
	}
}

func sessionUserID(r *http.Request) string {
	s, _ := auth.SessionFrom(r.Context())
	return s.UserID
}

// queryLimit reads ?limit=, clamped to [1, max].
func queryLimit(r *http.Request, def, max int) (int, error) {
	raw := r.URL.Query().Get("limit")
	if raw == "" {
		return def, nil
	}
	n, err := strconv.Atoi(raw)
	if err != nil || n < 1 {
		return 0, apperr.Invalid("limit", "must be a positive integer")
	}
	if n > max {
		n = max
	}
	return n, nil
}
