package handlers

import (
	"encoding/json"
	"net/http"

	"go.uber.org/zap"

	"mindwell/internal/chat"
)

type ChatHandler struct {
	svc    *chat.Service
	logger *zap.Logger
}

func NewChatHandler(svc *chat.Service, logger *zap.Logger) *ChatHandler {
	return &ChatHandler{svc: svc, logger: logger}
}

type chatRequest struct {
	Query string `json:"query"`
}

type chatResponse struct {
	Response string `json:"response"`
}

// Chat answers one message. Crisis messages get the safety response and
// model failures get a recovery message, both with status 200.
func (h *ChatHandler) Chat(w http.ResponseWriter, r *http.Request) {
	var req chatRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid body", http.StatusBadRequest)
		return
	}
	reply, err := h.svc.Respond(r.Context(), req.Query)
	if err != nil {
		writeError(w, h.logger, err, "chat")
		return
	}
	writeJSON(w, http.StatusOK, chatResponse{Response: reply.Response})
}
