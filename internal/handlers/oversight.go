package handlers

import (
	"net/http"
	"strings"
	"time"

	"go.uber.org/zap"

	"mindwell/internal/auth"
	"mindwell/internal/models"
	"mindwell/internal/store"
)

const (
	defaultFlaggedLimit = 50
	maxFlaggedLimit     = 200

	// Below this many members the aggregates would describe individuals.
	minOverviewMembers = 5
)

// OversightHandler serves the counselor and employer dashboards. Routes are
// mounted behind RequireRole, so the caller's profile is in the context.
type OversightHandler struct {
	store  store.Store
	logger *zap.Logger
	now    func() time.Time
}

func NewOversightHandler(s store.Store, logger *zap.Logger) *OversightHandler {
	return &OversightHandler{store: s, logger: logger, now: time.Now}
}

// FlaggedConversations lists conversations at or above ?status= (default moderate).
func (h *OversightHandler) FlaggedConversations(w http.ResponseWriter, r *http.Request) {
	minStatus := models.RiskModerate
	if raw := r.URL.Query().Get("status"); raw != "" {
		parsed, err := models.ParseRiskStatus(raw)
		if err != nil || parsed == models.RiskNormal {
			http.Error(w, "invalid status; expected moderate or risky", http.StatusBadRequest)
			return
		}
		minStatus = parsed
	}
	limit, err := queryLimit(r, defaultFlaggedLimit, maxFlaggedLimit)
	if err != nil {
		writeError(w, h.logger, err, "flagged conversations")
		return
	}

	convs, err := h.store.FlaggedConversations(r.Context(), minStatus, limit)
	if err != nil {
		writeError(w, h.logger, err, "flagged conversations")
		return
	}
	if convs == nil {
		convs = []models.Conversation{}
	}
	writeJSON(w, http.StatusOK, convs)
}

// EmployerOverview returns anonymized aggregates for the employer's organization.
// Organizations smaller than minOverviewMembers get the member count only.
func (h *OversightHandler) EmployerOverview(w http.ResponseWriter, r *http.Request) {
	p, ok := auth.ProfileFrom(r.Context())
	if !ok {
		http.Error(w, "forbidden", http.StatusForbidden)
		return
	}
	if p.Organization == nil || strings.TrimSpace(*p.Organization) == "" {
		http.Error(w, "organization not set on profile", http.StatusBadRequest)
		return
	}

	out, err := h.store.EmployerOverview(r.Context(), *p.Organization, h.now())
	if err != nil {
		writeError(w, h.logger, err, "employer overview")
		return
	}
	if out.Members < minOverviewMembers {
		out = models.EmployerOverview{Organization: out.Organization, Members: out.Members, Withheld: true}
	}
	writeJSON(w, http.StatusOK, out)
}
