package handlers

import (
	"crypto/subtle"
	"io"
	"net/http"

	"go.uber.org/zap"

	"mindwell/internal/risk"
)

const maxHookBody = 64 << 10

// HookHandler receives message-inserted notifications from the database and
// runs the risk classifier on them.
type HookHandler struct {
	risk   *risk.Service
	secret string
	logger *zap.Logger
}

func NewHookHandler(svc *risk.Service, secret string, logger *zap.Logger) *HookHandler {
	return &HookHandler{risk: svc, secret: secret, logger: logger}
}

func (h *HookHandler) MessageInserted(w http.ResponseWriter, r *http.Request) {
	if h.secret == "" {
		http.Error(w, "webhook not configured", http.StatusServiceUnavailable)
		return
	}
	got := r.Header.Get("X-Webhook-Secret")
	if subtle.ConstantTimeCompare([]byte(got), []byte(h.secret)) != 1 {
		http.Error(w, "unauthorized", http.StatusUnauthorized)
		return
	}

	body, err := io.ReadAll(io.LimitReader(r.Body, maxHookBody))
	if err != nil {
		http.Error(w, "invalid body", http.StatusBadRequest)
		return
	}
	trigger, err := risk.ParseTrigger(body)
	if err != nil {
		writeError(w, h.logger, err, "parse trigger")
		return
	}
	res, err := h.risk.HandleTrigger(r.Context(), trigger)
	if err != nil {
		writeError(w, h.logger, err, "classify message")
		return
	}
	writeJSON(w, http.StatusOK, res)
}
