package handlers

import (
	"encoding/json"
	"net/http"

	"go.uber.org/zap"

	"mindwell/internal/models"
	"mindwell/internal/store"
)

type UserHandler struct {
	profiles store.Profiles
	logger   *zap.Logger
}

func NewUserHandler(profiles store.Profiles, logger *zap.Logger) *UserHandler {
	return &UserHandler{profiles: profiles, logger: logger}
}

// GetMe returns the caller's profile and where the client should send them.
func (h *UserHandler) GetMe(w http.ResponseWriter, r *http.Request) {
	p, err := h.profiles.Profile(r.Context(), sessionUserID(r))
	if err != nil {
		writeError(w, h.logger, err, "load profile")
		return
	}
	writeJSON(w, http.StatusOK, ToProfileDTO(p))
}

// UpdateMe sets the fields present in the body and returns the updated profile.
func (h *UserHandler) UpdateMe(w http.ResponseWriter, r *http.Request) {
	var body struct {
		FullName     *string `json:"full_name"`
		Organization *string `json:"organization"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		http.Error(w, "invalid body", http.StatusBadRequest)
		return
	}
	userID := sessionUserID(r)
	if body.Organization != nil && !allowOrganizationChange(w, r, h.profiles, h.logger, userID) {
		return
	}
	upd := store.ProfileUpdate{FullName: body.FullName, Organization: body.Organization}
	if err := h.profiles.UpdateProfile(r.Context(), userID, upd); err != nil {
		writeError(w, h.logger, err, "update profile")
		return
	}
	p, err := h.profiles.Profile(r.Context(), userID)
	if err != nil {
		writeError(w, h.logger, err, "load profile")
		return
	}
	writeJSON(w, http.StatusOK, ToProfileDTO(p))
}

// allowOrganizationChange writes a 403 for employers, whose organization
// scopes the overview they can read and is set only by grant-role.
func allowOrganizationChange(w http.ResponseWriter, r *http.Request, profiles store.Profiles, logger *zap.Logger, userID string) bool {
	p, err := profiles.Profile(r.Context(), userID)
	if err != nil {
		writeError(w, logger, err, "load profile")
		return false
	}
	if p.Role == models.RoleEmployer {
		http.Error(w, "employers cannot change organization", http.StatusForbidden)
		return false
	}
	return true
}
