package handlers

import (
	"encoding/json"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"mindwell/internal/models"
	"mindwell/internal/store"
)

const (
	defaultMoodListLimit = 30
	maxMoodListLimit     = 100
	maxNotesLength       = 2000
)

type MoodHandler struct {
	moods  store.Moods
	logger *zap.Logger
}

func NewMoodHandler(moods store.Moods, logger *zap.Logger) *MoodHandler {
	return &MoodHandler{moods: moods, logger: logger}
}

type moodRequest struct {
	MoodScore int     `json:"mood_score"`
	Notes     *string `json:"notes"`
}

func validMoodScore(score int) bool { return score >= 1 && score <= 5 }

func normalizeNotes(notes *string) (*string, bool) {
	n := trimmedOrNil(notes)
	if n != nil && len(*n) > maxNotesLength {
		return nil, false
	}
	return n, true
}

// Create records a check-in for the caller.
func (h *MoodHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req moodRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || !validMoodScore(req.MoodScore) {
		http.Error(w, "invalid body; mood_score must be 1-5", http.StatusBadRequest)
		return
	}
	notes, ok := normalizeNotes(req.Notes)
	if !ok {
		http.Error(w, "notes too long", http.StatusBadRequest)
		return
	}

	entry := models.MoodEntry{UserID: sessionUserID(r), MoodScore: req.MoodScore, Notes: notes}
	if err := h.moods.CreateMood(r.Context(), &entry); err != nil {
		writeError(w, h.logger, err, "create mood")
		return
	}
	writeJSON(w, http.StatusCreated, entry)
}

// List returns the caller's check-ins, newest first.
func (h *MoodHandler) List(w http.ResponseWriter, r *http.Request) {
	limit, err := queryLimit(r, defaultMoodListLimit, maxMoodListLimit)
	if err != nil {
		writeError(w, h.logger, err, "list moods")
		return
	}
	entries, err := h.moods.RecentMoods(r.Context(), sessionUserID(r), limit)
	if err != nil {
		writeError(w, h.logger, err, "list moods")
		return
	}
	if entries == nil {
		entries = []models.MoodEntry{}
	}
	writeJSON(w, http.StatusOK, entries)
}

func (h *MoodHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id := strings.TrimSpace(chi.URLParam(r, "id"))
	if id == "" {
		http.Error(w, "missing id", http.StatusBadRequest)
		return
	}
	if err := h.moods.DeleteMood(r.Context(), sessionUserID(r), id); err != nil {
		writeError(w, h.logger, err, "delete mood")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
