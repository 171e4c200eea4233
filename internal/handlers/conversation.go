package handlers

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"mindwell/internal/chat"
	"mindwell/internal/models"
)

type ConversationHandler struct {
	svc    *chat.Service
	logger *zap.Logger
}

func NewConversationHandler(svc *chat.Service, logger *zap.Logger) *ConversationHandler {
	return &ConversationHandler{svc: svc, logger: logger}
}

func (h *ConversationHandler) List(w http.ResponseWriter, r *http.Request) {
	convs, err := h.svc.Conversations(r.Context(), sessionUserID(r))
	if err != nil {
		writeError(w, h.logger, err, "list conversations")
		return
	}
	if convs == nil {
		convs = []models.Conversation{}
	}
	writeJSON(w, http.StatusOK, convs)
}

func (h *ConversationHandler) Create(w http.ResponseWriter, r *http.Request) {
	var body struct {
		Title string `json:"title"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil && !errors.Is(err, io.EOF) {
		http.Error(w, "invalid body", http.StatusBadRequest)
		return
	}
	c, err := h.svc.StartConversation(r.Context(), sessionUserID(r), body.Title)
	if err != nil {
		writeError(w, h.logger, err, "create conversation")
		return
	}
	writeJSON(w, http.StatusCreated, c)
}

func (h *ConversationHandler) Messages(w http.ResponseWriter, r *http.Request) {
	msgs, err := h.svc.History(r.Context(), sessionUserID(r), chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, h.logger, err, "list messages")
		return
	}
	if msgs == nil {
		msgs = []models.Message{}
	}
	writeJSON(w, http.StatusOK, msgs)
}

type sendRequest struct {
	Content string `json:"content"`
}

func (h *ConversationHandler) Send(w http.ResponseWriter, r *http.Request) {
	var req sendRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid body", http.StatusBadRequest)
		return
	}
	ex, err := h.svc.Send(r.Context(), sessionUserID(r), chi.URLParam(r, "id"), req.Content)
	if err != nil {
		writeError(w, h.logger, err, "send message")
		return
	}
	writeJSON(w, http.StatusOK, ex)
}

// Stream is Send delivered as server-sent events: one "chunk" event per piece
// of the reply, then a "done" event carrying the stored exchange. Errors
// found before the first chunk are plain HTTP errors.
func (h *ConversationHandler) Stream(w http.ResponseWriter, r *http.Request) {
	var req sendRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid body", http.StatusBadRequest)
		return
	}
	flusher, ok := w.(http.Flusher)
	if !ok {
		http.Error(w, "streaming unsupported", http.StatusInternalServerError)
		return
	}
	sse := &eventWriter{w: w, flusher: flusher}

	ex, err := h.svc.SendStream(r.Context(), sessionUserID(r), chi.URLParam(r, "id"), req.Content, func(chunk string) error {
		return sse.send("chunk", map[string]string{"content": chunk})
	})
	if err != nil {
		if !sse.started {
			writeError(w, h.logger, err, "stream message")
			return
		}
		h.logger.Warn("stream aborted", zap.Error(err))
		_ = sse.send("error", map[string]string{"error": "stream interrupted"})
		return
	}
	_ = sse.send("done", ex)
}

type eventWriter struct {
	w       http.ResponseWriter
	flusher http.Flusher
	started bool
}

func (e *eventWriter) send(event string, payload any) error {
	if !e.started {
		h := e.w.Header()
		h.Set("Content-Type", "text/event-stream")
		h.Set("Cache-Control", "no-cache")
		h.Set("Connection", "keep-alive")
		e.w.WriteHeader(http.StatusOK)
		e.started = true
	}
	data, err := json.Marshal(payload)
	if err != nil {
		return err
	}
	if _, err := fmt.Fprintf(e.w, "event: %s\ndata: %s\n\n", event, data); err != nil {
		return err
	}
	e.flusher.Flush()
	return nil
}
