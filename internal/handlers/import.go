package handlers

import (
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"mindwell/internal/models"
	"mindwell/internal/store"
)

const maxImportEntries = 500

// ImportHandler accepts check-ins recorded while the client was offline,
// optionally with profile fields captured at the same time.
type ImportHandler struct {
	profiles store.Profiles
	moods    store.Moods
	logger   *zap.Logger
	now      func() time.Time
}

func NewImportHandler(profiles store.Profiles, moods store.Moods, logger *zap.Logger) *ImportHandler {
	return &ImportHandler{profiles: profiles, moods: moods, logger: logger, now: time.Now}
}

type importedMood struct {
	ID        string  `json:"id"`
	MoodScore int     `json:"mood_score"`
	Notes     *string `json:"notes"`
	CreatedAt string  `json:"created_at"` // RFC3339
}

type importRequest struct {
	Entries []importedMood `json:"entries"`
	Profile *struct {
		FullName     *string `json:"full_name"`
		Organization *string `json:"organization"`
	} `json:"profile"`
}

type importResponse struct {
	Imported int `json:"imported"`
	Skipped  int `json:"skipped"`
}

// Import validates every entry before writing any. Entries whose id already
// exists are skipped, so a client can retry an upload safely.
func (h *ImportHandler) Import(w http.ResponseWriter, r *http.Request) {
	var req importRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid request body", http.StatusBadRequest)
		return
	}
	if len(req.Entries) == 0 && req.Profile == nil {
		http.Error(w, "no entries or profile data provided", http.StatusBadRequest)
		return
	}
	if len(req.Entries) > maxImportEntries {
		http.Error(w, fmt.Sprintf("at most %d entries per import", maxImportEntries), http.StatusBadRequest)
		return
	}

	userID := sessionUserID(r)
	now := h.now()
	entries := make([]models.MoodEntry, 0, len(req.Entries))
	for i, in := range req.Entries {
		if !validMoodScore(in.MoodScore) {
			http.Error(w, fmt.Sprintf("entry %d: mood_score must be 1-5", i), http.StatusBadRequest)
			return
		}
		notes, ok := normalizeNotes(in.Notes)
		if !ok {
			http.Error(w, fmt.Sprintf("entry %d: notes too long", i), http.StatusBadRequest)
			return
		}
		e := models.MoodEntry{ID: in.ID, UserID: userID, MoodScore: in.MoodScore, Notes: notes}
		if e.ID != "" {
			if _, err := uuid.Parse(e.ID); err != nil {
				http.Error(w, fmt.Sprintf("entry %d: id must be a UUID", i), http.StatusBadRequest)
				return
			}
		}
		if in.CreatedAt != "" {
			ts, err := time.Parse(time.RFC3339, in.CreatedAt)
			if err != nil {
				http.Error(w, fmt.Sprintf("entry %d: invalid created_at; expected RFC3339", i), http.StatusBadRequest)
				return
			}
			if ts.After(now) {
				http.Error(w, fmt.Sprintf("entry %d: created_at is in the future", i), http.StatusBadRequest)
				return
			}
			e.CreatedAt = ts
		}
		entries = append(entries, e)
	}

	if req.Profile != nil {
		if req.Profile.Organization != nil && !allowOrganizationChange(w, r, h.profiles, h.logger, userID) {
			return
		}
		upd := store.ProfileUpdate{FullName: req.Profile.FullName, Organization: req.Profile.Organization}
		if err := h.profiles.UpdateProfile(r.Context(), userID, upd); err != nil {
			writeError(w, h.logger, err, "import profile")
			return
		}
	}

	var resp importResponse
	if len(entries) > 0 {
		n, err := h.moods.ImportMoods(r.Context(), userID, entries)
		if err != nil {
			writeError(w, h.logger, err, "import moods")
			return
		}
		resp = importResponse{Imported: n, Skipped: len(entries) - n}
	}
	writeJSON(w, http.StatusCreated, resp)
}
