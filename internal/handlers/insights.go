package handlers

import (
	"net/http"
	"time"

	"go.uber.org/zap"

	"mindwell/internal/insights"
	"mindwell/internal/store"
)

type InsightsHandler struct {
	moods  store.Moods
	window int
	loc    *time.Location
	logger *zap.Logger
}

func NewInsightsHandler(moods store.Moods, window int, loc *time.Location, logger *zap.Logger) *InsightsHandler {
	if window <= 0 {
		window = insights.DefaultWindow
	}
	if loc == nil {
		loc = time.UTC
	}
	return &InsightsHandler{moods: moods, window: window, loc: loc, logger: logger}
}

// Get summarizes the caller's most recent check-ins. Accepts an optional
// tz=<IANA zone> so active days follow the user's calendar.
func (h *InsightsHandler) Get(w http.ResponseWriter, r *http.Request) {
	loc := h.loc
	if tz := r.URL.Query().Get("tz"); tz != "" {
		l, err := time.LoadLocation(tz)
		if err != nil {
			http.Error(w, "invalid tz; expected an IANA time zone", http.StatusBadRequest)
			return
		}
		loc = l
	}

	entries, err := h.moods.RecentMoods(r.Context(), sessionUserID(r), h.window)
	if err != nil {
		writeError(w, h.logger, err, "load moods")
		return
	}
	out, err := insights.Compute(entries, loc)
	if err != nil {
		writeError(w, h.logger, err, "compute insights")
		return
	}
	writeJSON(w, http.StatusOK, out)
}
