// File: internal/handlers/conversation_handlers.go
package handlers

import (
	"encoding/json"
	"errors"
	"log"
	"net/http"
	"strconv"
	"strings"

	"github.com/gorilla/mux"

	convrepo "github.com/greyhelm/ttrpg-buddy/internal/repository/conversation"
	"github.com/greyhelm/ttrpg-buddy/internal/services/session"
)

// ConversationHandler exposes the conversation lifecycle over the API.
type ConversationHandler struct {
	Manager *session.Manager
}

func NewConversationHandler(manager *session.Manager) *ConversationHandler {
	return &ConversationHandler{Manager: manager}
}

// conversationView is the listing projection sent to the client.
type conversationView struct {
	ConversationID string `json:"conversation_id"`
	Name           string `json:"name"`
	DisplayName    string `json:"display_name"`
	LastUpdated    string `json:"last_updated"`
	Active         bool   `json:"active"`
}

// List returns the user's conversations, newest activity first.
func (h *ConversationHandler) List(w http.ResponseWriter, r *http.Request) {
	username, ok := requireUsername(w, r)
	if !ok {
		return
	}

	sess := h.Manager.Session(username)
	summaries, err := h.Manager.Conversations(r.Context(), sess)
	if err != nil {
		log.Printf("[ConversationHandler] list failed: %v", err)
		writeError(w, "Could not retrieve conversations", http.StatusInternalServerError)
		return
	}

	active := sess.Snapshot().ActiveConversationID
	views := make([]conversationView, 0, len(summaries))
	for _, s := range summaries {
		views = append(views, conversationView{
			ConversationID: s.ConversationID,
			Name:           s.Name,
			DisplayName:    s.DisplayName(),
			LastUpdated:    s.LastUpdated.UTC().Format("2006-01-02T15:04:05Z"),
			Active:         s.ConversationID == active,
		})
	}
	writeJSON(w, http.StatusOK, views)
}

// Create starts a new conversation and makes it active.
func (h *ConversationHandler) Create(w http.ResponseWriter, r *http.Request) {
	username, ok := requireUsername(w, r)
	if !ok {
		return
	}

	sess := h.Manager.Session(username)
	id, err := h.Manager.CreateConversation(r.Context(), sess)
	if err != nil {
		log.Printf("[ConversationHandler] create failed: %v", err)
		writeError(w, "Could not create conversation", http.StatusInternalServerError)
		return
	}
	writeJSON(w, http.StatusCreated, map[string]string{"conversation_id": id})
}

// Select switches the active conversation.
func (h *ConversationHandler) Select(w http.ResponseWriter, r *http.Request) {
	username, ok := requireUsername(w, r)
	if !ok {
		return
	}

	id := mux.Vars(r)["id"]
	sess := h.Manager.Session(username)
	if err := h.Manager.Select(r.Context(), sess, id); err != nil {
		log.Printf("[ConversationHandler] select failed: %v", err)
		writeError(w, "Could not switch conversation", http.StatusInternalServerError)
		return
	}
	writeJSON(w, http.StatusOK, sess.Snapshot())
}

// Rename updates a conversation's display name.
func (h *ConversationHandler) Rename(w http.ResponseWriter, r *http.Request) {
	username, ok := requireUsername(w, r)
	if !ok {
		return
	}

	var req struct {
		Name string `json:"name"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, "Invalid request body", http.StatusBadRequest)
		return
	}
	name := strings.TrimSpace(req.Name)
	if name == "" {
		writeError(w, "Name is required", http.StatusBadRequest)
		return
	}

	id := mux.Vars(r)["id"]
	sess := h.Manager.Session(username)
	if err := h.Manager.Rename(r.Context(), sess, id, name); err != nil {
		if errors.Is(err, convrepo.ErrConversationNotFound) {
			writeError(w, "Conversation not found", http.StatusNotFound)
			return
		}
		log.Printf("[ConversationHandler] rename failed: %v", err)
		writeError(w, "Could not rename conversation", http.StatusInternalServerError)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// Delete removes a conversation. Deleting the active one yields a fresh
// replacement in the response.
func (h *ConversationHandler) Delete(w http.ResponseWriter, r *http.Request) {
	username, ok := requireUsername(w, r)
	if !ok {
		return
	}

	id := mux.Vars(r)["id"]
	sess := h.Manager.Session(username)
	if err := h.Manager.DeleteConversation(r.Context(), sess, id); err != nil {
		if errors.Is(err, convrepo.ErrConversationNotFound) {
			writeError(w, "Conversation not found", http.StatusNotFound)
			return
		}
		log.Printf("[ConversationHandler] delete failed: %v", err)
		writeError(w, "Could not delete conversation", http.StatusInternalServerError)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{
		"active_conversation_id": sess.Snapshot().ActiveConversationID,
	})
}

// BeginRename flags a conversation as being renamed so the UI shows the
// inline name editor.
func (h *ConversationHandler) BeginRename(w http.ResponseWriter, r *http.Request) {
	username, ok := requireUsername(w, r)
	if !ok {
		return
	}
	h.Manager.BeginRename(h.Manager.Session(username), mux.Vars(r)["id"])
	w.WriteHeader(http.StatusNoContent)
}

// CancelRename clears the rename flag without changing anything.
func (h *ConversationHandler) CancelRename(w http.ResponseWriter, r *http.Request) {
	username, ok := requireUsername(w, r)
	if !ok {
		return
	}
	h.Manager.CancelRename(h.Manager.Session(username))
	w.WriteHeader(http.StatusNoContent)
}

// BeginDelete flags a conversation as pending deletion so the UI shows the
// confirmation affordance.
func (h *ConversationHandler) BeginDelete(w http.ResponseWriter, r *http.Request) {
	username, ok := requireUsername(w, r)
	if !ok {
		return
	}
	h.Manager.BeginDelete(h.Manager.Session(username), mux.Vars(r)["id"])
	w.WriteHeader(http.StatusNoContent)
}

// CancelDelete clears the pending-deletion flag.
func (h *ConversationHandler) CancelDelete(w http.ResponseWriter, r *http.Request) {
	username, ok := requireUsername(w, r)
	if !ok {
		return
	}
	h.Manager.CancelDelete(h.Manager.Session(username))
	w.WriteHeader(http.StatusNoContent)
}

// Messages returns the active conversation's messages. With ?render=html
// each message also carries a rendered HTML body.
func (h *ConversationHandler) Messages(w http.ResponseWriter, r *http.Request) {
	username, ok := requireUsername(w, r)
	if !ok {
		return
	}

	sess := h.Manager.Session(username)
	if err := h.Manager.Init(r.Context(), sess); err != nil {
		log.Printf("[ConversationHandler] init failed: %v", err)
		writeError(w, "Could not load conversation", http.StatusInternalServerError)
		return
	}

	view := sess.Snapshot()
	if r.URL.Query().Get("render") != "html" {
		writeJSON(w, http.StatusOK, view)
		return
	}

	type renderedMessage struct {
		Role    string `json:"role"`
		Content string `json:"content"`
		HTML    string `json:"html"`
		Edited  bool   `json:"edited,omitempty"`
	}
	rendered := make([]renderedMessage, 0, len(view.Messages))
	for _, m := range view.Messages {
		html, err := renderMarkdown(m.Content)
		if err != nil {
			log.Printf("[ConversationHandler] markdown render failed: %v", err)
			html = ""
		}
		rendered = append(rendered, renderedMessage{
			Role:    m.Role,
			Content: m.Content,
			HTML:    html,
			Edited:  m.Edited,
		})
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"active_conversation_id": view.ActiveConversationID,
		"messages":               rendered,
	})
}

// BeginEditMessage marks a message as being edited so the UI can show the
// edit affordance with the original content preserved.
func (h *ConversationHandler) BeginEditMessage(w http.ResponseWriter, r *http.Request) {
	username, ok := requireUsername(w, r)
	if !ok {
		return
	}

	index, err := strconv.Atoi(mux.Vars(r)["index"])
	if err != nil {
		writeError(w, "Invalid message index", http.StatusBadRequest)
		return
	}

	sess := h.Manager.Session(username)
	if err := h.Manager.BeginEdit(sess, index); err != nil {
		writeError(w, "Message index out of range", http.StatusBadRequest)
		return
	}
	writeJSON(w, http.StatusOK, sess.Snapshot())
}

// CancelEditMessage abandons an in-progress edit.
func (h *ConversationHandler) CancelEditMessage(w http.ResponseWriter, r *http.Request) {
	username, ok := requireUsername(w, r)
	if !ok {
		return
	}

	sess := h.Manager.Session(username)
	h.Manager.CancelEdit(sess)
	w.WriteHeader(http.StatusNoContent)
}

// EditMessage overwrites an assistant message and persists the change.
func (h *ConversationHandler) EditMessage(w http.ResponseWriter, r *http.Request) {
	username, ok := requireUsername(w, r)
	if !ok {
		return
	}

	index, err := strconv.Atoi(mux.Vars(r)["index"])
	if err != nil {
		writeError(w, "Invalid message index", http.StatusBadRequest)
		return
	}

	var req struct {
		Content string `json:"content"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	sess := h.Manager.Session(username)
	if err := h.Manager.EditAssistantMessage(r.Context(), sess, index, req.Content); err != nil {
		var serr *session.SessionError
		if errors.As(err, &serr) && serr.Type == session.ErrTypeValidation {
			writeError(w, serr.Message, http.StatusBadRequest)
			return
		}
		log.Printf("[ConversationHandler] edit failed: %v", err)
		writeError(w, "Could not save edited message", http.StatusInternalServerError)
		return
	}
	writeJSON(w, http.StatusOK, sess.Snapshot())
}
