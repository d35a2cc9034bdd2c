// File: internal/handlers/image_handler.go
package handlers

import (
	"encoding/json"
	"log"
	"net/http"
	"strings"

	"github.com/greyhelm/ttrpg-buddy/internal/services/imagegen"
	"github.com/greyhelm/ttrpg-buddy/internal/services/session"
)

// Prompt types accepted by the synthesis endpoint.
const (
	promptTypeTopDown   = "topdown"
	promptTypeCharacter = "character"
)

// ImageHandler drives the two-stage image pipeline: synthesize a prompt from
// the active conversation, let the user review and edit it, then render the
// variants.
type ImageHandler struct {
	Manager *session.Manager
	Images  *imagegen.Service
}

func NewImageHandler(manager *session.Manager, images *imagegen.Service) *ImageHandler {
	return &ImageHandler{Manager: manager, Images: images}
}

// SynthesizePrompt builds an optimized text-to-image prompt from the active
// conversation and caches it in the session for review before generation.
func (h *ImageHandler) SynthesizePrompt(w http.ResponseWriter, r *http.Request) {
	username, ok := requireUsername(w, r)
	if !ok {
		return
	}

	var req struct {
		Type string `json:"type"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	sess := h.Manager.Session(username)
	if err := h.Manager.Init(r.Context(), sess); err != nil {
		log.Printf("[ImageHandler] init failed: %v", err)
		writeError(w, "Could not prepare conversation", http.StatusInternalServerError)
		return
	}
	view := sess.Snapshot()

	var prompt string
	var err error
	switch req.Type {
	case promptTypeTopDown:
		prompt, err = h.Images.TopDownPrompt(r.Context(), view.Messages)
	case promptTypeCharacter:
		prompt, err = h.Images.CharacterPrompt(r.Context(), view.Messages)
	default:
		writeError(w, "Type must be 'topdown' or 'character'", http.StatusBadRequest)
		return
	}
	if err != nil {
		log.Printf("[ImageHandler] prompt synthesis failed: %v", err)
		writeError(w, "Could not synthesize an image prompt", http.StatusBadGateway)
		return
	}

	scratch := sess.Scratch(view.ActiveConversationID)
	scratch.OptimizedPrompt = prompt
	scratch.PromptType = req.Type
	writeJSON(w, http.StatusOK, map[string]string{"prompt": prompt, "type": req.Type})
}

// UpdatePrompt stores a user-edited version of the cached prompt.
func (h *ImageHandler) UpdatePrompt(w http.ResponseWriter, r *http.Request) {
	username, ok := requireUsername(w, r)
	if !ok {
		return
	}

	var req struct {
		Prompt string `json:"prompt"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, "Invalid request body", http.StatusBadRequest)
		return
	}
	prompt := strings.TrimSpace(req.Prompt)
	if prompt == "" {
		writeError(w, "Prompt is required", http.StatusBadRequest)
		return
	}

	sess := h.Manager.Session(username)
	view := sess.Snapshot()
	if view.ActiveConversationID == "" {
		writeError(w, "No active conversation", http.StatusBadRequest)
		return
	}
	sess.Scratch(view.ActiveConversationID).OptimizedPrompt = prompt
	writeJSON(w, http.StatusOK, map[string]string{"prompt": prompt})
}

// Generate renders the image variants from the cached prompt. Variants that
// failed come back with an error message in their slot instead of failing
// the whole batch.
func (h *ImageHandler) Generate(w http.ResponseWriter, r *http.Request) {
	username, ok := requireUsername(w, r)
	if !ok {
		return
	}

	sess := h.Manager.Session(username)
	view := sess.Snapshot()
	if view.ActiveConversationID == "" {
		writeError(w, "No active conversation", http.StatusBadRequest)
		return
	}

	prompt := sess.Scratch(view.ActiveConversationID).OptimizedPrompt
	if prompt == "" {
		writeError(w, "Synthesize a prompt before generating images", http.StatusBadRequest)
		return
	}

	results, err := h.Images.GenerateImages(r.Context(), prompt)
	if err != nil {
		log.Printf("[ImageHandler] generation failed: %v", err)
		writeError(w, "Image generation failed", http.StatusBadGateway)
		return
	}

	type imageView struct {
		URL   string `json:"url,omitempty"`
		Error string `json:"error,omitempty"`
	}
	views := make([]imageView, 0, len(results))
	for _, res := range results {
		v := imageView{URL: res.URL}
		if res.Err != nil {
			v.Error = "This variant could not be generated."
		}
		views = append(views, v)
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"prompt": prompt, "images": views})
}
