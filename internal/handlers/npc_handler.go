// File: internal/handlers/npc_handler.go
package handlers

import (
	"errors"
	"log"
	"net/http"

	"github.com/greyhelm/ttrpg-buddy/internal/services/npc"
	"github.com/greyhelm/ttrpg-buddy/internal/services/session"
)

// NPCHandler generates NPC stat blocks from the active conversation and
// renders them as VTT table commands.
type NPCHandler struct {
	Manager   *session.Manager
	Generator *npc.Generator
}

func NewNPCHandler(manager *session.Manager, generator *npc.Generator) *NPCHandler {
	return &NPCHandler{Manager: manager, Generator: generator}
}

// Generate produces a validated NPC record plus the chat command that
// creates it on the game table.
func (h *NPCHandler) Generate(w http.ResponseWriter, r *http.Request) {
	username, ok := requireUsername(w, r)
	if !ok {
		return
	}

	sess := h.Manager.Session(username)
	if err := h.Manager.Init(r.Context(), sess); err != nil {
		log.Printf("[NPCHandler] init failed: %v", err)
		writeError(w, "Could not prepare conversation", http.StatusInternalServerError)
		return
	}
	view := sess.Snapshot()
	if len(view.Messages) == 0 {
		writeError(w, "Talk about the NPC first so there is context to draw on.", http.StatusBadRequest)
		return
	}

	record, err := h.Generator.Generate(r.Context(), view.Messages)
	if err != nil {
		var verr *npc.ValidationError
		if errors.As(err, &verr) {
			log.Printf("[NPCHandler] model produced invalid record: %v", err)
			writeError(w, "The generated NPC was malformed; try again.", http.StatusBadGateway)
			return
		}
		log.Printf("[NPCHandler] generation failed: %v", err)
		writeError(w, "NPC generation failed", http.StatusBadGateway)
		return
	}

	command, err := record.Roll20Command()
	if err != nil {
		log.Printf("[NPCHandler] command encoding failed: %v", err)
		writeError(w, "Could not encode the table command", http.StatusInternalServerError)
		return
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"npc":     record,
		"command": command,
	})
}
