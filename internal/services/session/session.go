// File: internal/services/session/session.go
package session

import (
	"sync"

	"github.com/greyhelm/ttrpg-buddy/internal/domain"
)

// Scratch holds per-conversation transient state: cached outputs of the
// auxiliary generation pipelines. It is reset when the conversation is
// created and dropped when it is deleted.
type Scratch struct {
	OptimizedPrompt string `json:"optimized_prompt,omitempty"`
	CharacterPrompt string `json:"character_prompt,omitempty"`
	PromptType      string `json:"prompt_type,omitempty"`
}

// Session is the explicit per-user UI state object. All mutation goes through
// Manager commands; handlers never poke at the fields directly while a
// command is running.
type Session struct {
	mu sync.Mutex

	Username             string
	ActiveConversationID string
	Buffer               domain.Messages

	// Transient UI sub-states.
	RenamingConversation   string
	DeletingConversation   string
	EditingMessageIndex    int
	OriginalMessageContent string

	scratch map[string]*Scratch
}

func newSession(username string) *Session {
	return &Session{
		Username:            username,
		EditingMessageIndex: -1,
		scratch:             make(map[string]*Scratch),
	}
}

// Scratch returns the transient state for a conversation, creating it on
// first access.
func (s *Session) Scratch(conversationID string) *Scratch {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.scratchLocked(conversationID)
}

func (s *Session) scratchLocked(conversationID string) *Scratch {
	sc, ok := s.scratch[conversationID]
	if !ok {
		sc = &Scratch{}
		s.scratch[conversationID] = sc
	}
	return sc
}

// Snapshot returns a copy of the display-relevant state for rendering.
func (s *Session) Snapshot() SessionView {
	s.mu.Lock()
	defer s.mu.Unlock()

	buf := make(domain.Messages, len(s.Buffer))
	copy(buf, s.Buffer)
	return SessionView{
		ActiveConversationID:   s.ActiveConversationID,
		Messages:               buf,
		RenamingConversation:   s.RenamingConversation,
		DeletingConversation:   s.DeletingConversation,
		EditingMessageIndex:    s.EditingMessageIndex,
		OriginalMessageContent: s.OriginalMessageContent,
	}
}

// SessionView is the read-only render projection of a session.
type SessionView struct {
	ActiveConversationID   string          `json:"active_conversation_id"`
	Messages               domain.Messages `json:"messages"`
	RenamingConversation   string          `json:"renaming_conversation,omitempty"`
	DeletingConversation   string          `json:"deleting_conversation,omitempty"`
	EditingMessageIndex    int             `json:"editing_message_index"`
	OriginalMessageContent string          `json:"original_message_content,omitempty"`
}
