// File: internal/handlers/chat_handler.go
package handlers

import (
	"encoding/json"
	"log"
	"net/http"
	"strings"

	"github.com/greyhelm/ttrpg-buddy/internal/services/session"
)

// ChatHandler streams assistant replies over Server-Sent Events.
type ChatHandler struct {
	Manager *session.Manager
}

func NewChatHandler(manager *session.Manager) *ChatHandler {
	return &ChatHandler{Manager: manager}
}

// HandleChatMessage runs one query round and streams the canonicalized
// running text back as it grows: "delta" events carry the running text,
// a final "done" event carries the finished reply with rendered HTML, and
// failures surface as an "error" event so the client can keep its display
// consistent.
func (h *ChatHandler) HandleChatMessage(w http.ResponseWriter, r *http.Request) {
	username, ok := requireUsername(w, r)
	if !ok {
		return
	}

	var req struct {
		Message string `json:"message"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || strings.TrimSpace(req.Message) == "" {
		writeError(w, "Message is required", http.StatusBadRequest)
		return
	}

	flusher, ok := w.(http.Flusher)
	if !ok {
		writeError(w, "Streaming unsupported", http.StatusInternalServerError)
		return
	}

	sess := h.Manager.Session(username)
	if err := h.Manager.Init(r.Context(), sess); err != nil {
		log.Printf("[ChatHandler] init failed: %v", err)
		writeError(w, "Could not prepare conversation", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")

	final, err := h.Manager.Send(r.Context(), sess, strings.TrimSpace(req.Message), func(running string) {
		sendEvent(w, flusher, "delta", map[string]string{"text": running})
	})
	if err != nil {
		log.Printf("[ChatHandler] send failed: %v", err)
		sendEvent(w, flusher, "error", map[string]string{
			"message": "The assistant could not complete this reply.",
			"partial": final,
		})
		return
	}

	html, err := renderMarkdown(final)
	if err != nil {
		log.Printf("[ChatHandler] markdown render failed: %v", err)
	}
	sendEvent(w, flusher, "done", map[string]string{"text": final, "html": html})
}

// sendEvent writes one SSE event with a JSON payload.
func sendEvent(w http.ResponseWriter, flusher http.Flusher, event string, payload interface{}) {
	data, err := json.Marshal(payload)
	if err != nil {
		return
	}
	if _, err := w.Write([]byte("event: " + event + "\ndata: " + string(data) + "\n\n")); err != nil {
		return
	}
	flusher.Flush()
}
