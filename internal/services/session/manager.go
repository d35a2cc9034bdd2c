// File: internal/services/session/manager.go
package session

import (
	"context"
	"sync"

	"github.com/greyhelm/ttrpg-buddy/internal/domain"
	"github.com/greyhelm/ttrpg-buddy/internal/services/assistant"
)

// Manager owns the set of live sessions and executes UI events as discrete
// commands against them. Holding the session lock for the whole of Send is
// what guarantees that no two assistant queries run concurrently for the
// same conversation: a query is fully resolved and persisted before the next
// command on that session can start.
type Manager struct {
	store   Store
	users   Users
	gateway Gateway
	logger  Logger

	mu       sync.Mutex
	sessions map[string]*Session
}

func NewManager(store Store, users Users, gateway Gateway, logger Logger) *Manager {
	return &Manager{
		store:    store,
		users:    users,
		gateway:  gateway,
		logger:   logger,
		sessions: make(map[string]*Session),
	}
}

// Session returns the live session for a user, creating one on first use.
func (m *Manager) Session(username string) *Session {
	m.mu.Lock()
	defer m.mu.Unlock()
	sess, ok := m.sessions[username]
	if !ok {
		sess = newSession(username)
		m.sessions[username] = sess
	}
	return sess
}

// Init makes sure the session points at a conversation: the most recently
// updated one when any exist, a fresh one otherwise. A user always has at
// least one conversation after Init.
func (m *Manager) Init(ctx context.Context, sess *Session) error {
	sess.mu.Lock()
	defer sess.mu.Unlock()

	if sess.ActiveConversationID != "" {
		return m.ensureActiveLocked(ctx, sess)
	}

	summaries, err := m.store.List(ctx, sess.Username)
	if err != nil {
		return NewPersistenceError("init", "could not list conversations", err)
	}
	if len(summaries) > 0 {
		return m.selectLocked(ctx, sess, summaries[0].ConversationID)
	}
	return m.createLocked(ctx, sess)
}

// ensureActiveLocked substitutes a fresh conversation when the active
// record vanished underneath us (deleted by a concurrent session). A
// conversation whose buffer was never persisted has no record by design and
// is left alone.
func (m *Manager) ensureActiveLocked(ctx context.Context, sess *Session) error {
	if len(sess.Buffer) == 0 {
		return nil
	}
	summaries, err := m.store.List(ctx, sess.Username)
	if err != nil {
		return NewPersistenceError("ensure_active", "could not list conversations", err)
	}
	for _, s := range summaries {
		if s.ConversationID == sess.ActiveConversationID {
			return nil
		}
	}
	m.logger.Warn("active conversation vanished, substituting a new one",
		"username", sess.Username, "conversation_id", sess.ActiveConversationID)
	return m.createLocked(ctx, sess)
}

// Select switches the active conversation and reloads its buffer.
func (m *Manager) Select(ctx context.Context, sess *Session, conversationID string) error {
	sess.mu.Lock()
	defer sess.mu.Unlock()
	return m.selectLocked(ctx, sess, conversationID)
}

func (m *Manager) selectLocked(ctx context.Context, sess *Session, conversationID string) error {
	if conversationID == "" {
		return NewValidationError("select", "conversation ID is required")
	}
	messages, err := m.store.Load(ctx, sess.Username, conversationID)
	if err != nil {
		return NewPersistenceError("select", "could not load conversation", err)
	}
	sess.ActiveConversationID = conversationID
	sess.Buffer = messages
	sess.EditingMessageIndex = -1
	sess.OriginalMessageContent = ""
	sess.scratchLocked(conversationID)
	return nil
}

// CreateConversation allocates a new conversation, makes it active and
// resets the buffer and transient state.
func (m *Manager) CreateConversation(ctx context.Context, sess *Session) (string, error) {
	sess.mu.Lock()
	defer sess.mu.Unlock()
	if err := m.createLocked(ctx, sess); err != nil {
		return "", err
	}
	return sess.ActiveConversationID, nil
}

func (m *Manager) createLocked(ctx context.Context, sess *Session) error {
	id, err := m.store.Create(ctx, sess.Username)
	if err != nil {
		return NewPersistenceError("create", "could not create conversation", err)
	}
	sess.ActiveConversationID = id
	sess.Buffer = domain.Messages{}
	sess.EditingMessageIndex = -1
	sess.OriginalMessageContent = ""
	sess.scratch[id] = &Scratch{}
	return nil
}

// Rename updates a conversation's display name. On failure the name is left
// unchanged and the error surfaced; the active conversation never changes.
func (m *Manager) Rename(ctx context.Context, sess *Session, conversationID, name string) error {
	sess.mu.Lock()
	defer sess.mu.Unlock()

	if err := m.store.Rename(ctx, sess.Username, conversationID, name); err != nil {
		return NewPersistenceError("rename", "could not rename conversation", err)
	}
	sess.RenamingConversation = ""
	return nil
}

// DeleteConversation removes a conversation. Deleting the active one
// immediately creates a replacement so the active pointer is never dangling,
// and drops any transient state cached for the deleted id.
func (m *Manager) DeleteConversation(ctx context.Context, sess *Session, conversationID string) error {
	sess.mu.Lock()
	defer sess.mu.Unlock()

	if err := m.store.Delete(ctx, sess.Username, conversationID); err != nil {
		return NewPersistenceError("delete", "could not delete conversation", err)
	}
	delete(sess.scratch, conversationID)
	sess.DeletingConversation = ""

	if sess.ActiveConversationID == conversationID {
		return m.createLocked(ctx, sess)
	}
	return nil
}

// Conversations lists the user's conversations, newest activity first, after
// re-validating the active pointer.
func (m *Manager) Conversations(ctx context.Context, sess *Session) ([]domain.ConversationSummary, error) {
	if err := m.Init(ctx, sess); err != nil {
		return nil, err
	}
	summaries, err := m.store.List(ctx, sess.Username)
	if err != nil {
		return nil, NewPersistenceError("list", "could not list conversations", err)
	}
	return summaries, nil
}

// Send runs one full query round: append the user message, window the
// history, stream the assistant's reply through the canonicalizer, append
// the final reply and persist the whole buffer. onRunning receives the
// canonicalized running text after every fragment for progressive display.
//
// On a gateway failure the user message stays in the (unpersisted) buffer,
// mirroring what the user already saw on screen. On a mid-stream failure the
// partial reply is returned with the error but is neither appended nor
// persisted.
func (m *Manager) Send(ctx context.Context, sess *Session, text string, onRunning func(string)) (string, error) {
	sess.mu.Lock()
	defer sess.mu.Unlock()

	if text == "" {
		return "", NewValidationError("send", "message text is required")
	}
	if sess.ActiveConversationID == "" {
		return "", NewValidationError("send", "no active conversation")
	}

	user, err := m.users.FindByUsername(ctx, sess.Username)
	if err != nil {
		return "", NewPersistenceError("send", "could not load user settings", err)
	}
	if user.Assistant == "" {
		return "", NewValidationError("send", "no assistant bound to this account")
	}

	// Window before appending: the gateway synthesizes the new user message
	// itself, so the windowed history must not already contain it.
	history := sess.Buffer.Window(user.HistoryLimit())

	sess.Buffer = append(sess.Buffer, domain.Message{Role: domain.RoleUser, Content: text})

	stream, err := m.gateway.Query(ctx, user.Assistant, history, text)
	if err != nil {
		m.logger.Error("assistant query failed", "username", sess.Username,
			"conversation_id", sess.ActiveConversationID, "error", err)
		return "", NewQueryError("send", "assistant query failed", err)
	}

	final, err := assistant.Collect(stream, onRunning)
	if err != nil {
		m.logger.Error("response stream interrupted", "username", sess.Username,
			"conversation_id", sess.ActiveConversationID, "error", err)
		return final, NewQueryError("send", "response stream interrupted", err)
	}

	sess.Buffer = append(sess.Buffer, domain.Message{Role: domain.RoleAssistant, Content: final})

	if err := m.store.Save(ctx, sess.Username, sess.ActiveConversationID, sess.Buffer); err != nil {
		return final, NewPersistenceError("send", "could not persist conversation", err)
	}
	return final, nil
}

// EditAssistantMessage overwrites the content of an assistant message at the
// given index, marks it edited and rewrites the full message sequence to the
// store.
func (m *Manager) EditAssistantMessage(ctx context.Context, sess *Session, index int, content string) error {
	sess.mu.Lock()
	defer sess.mu.Unlock()

	if index < 0 || index >= len(sess.Buffer) {
		return NewValidationError("edit", "message index out of range")
	}
	if sess.Buffer[index].Role != domain.RoleAssistant {
		return NewValidationError("edit", "only assistant messages can be edited")
	}

	sess.Buffer[index].Content = content
	sess.Buffer[index].Edited = true
	sess.EditingMessageIndex = -1
	sess.OriginalMessageContent = ""

	if err := m.store.Save(ctx, sess.Username, sess.ActiveConversationID, sess.Buffer); err != nil {
		return NewPersistenceError("edit", "could not persist edited conversation", err)
	}
	return nil
}

// ===== TRANSIENT UI SUB-STATE COMMANDS =====

func (m *Manager) BeginRename(sess *Session, conversationID string) {
	sess.mu.Lock()
	defer sess.mu.Unlock()
	sess.RenamingConversation = conversationID
}

func (m *Manager) CancelRename(sess *Session) {
	sess.mu.Lock()
	defer sess.mu.Unlock()
	sess.RenamingConversation = ""
}

func (m *Manager) BeginDelete(sess *Session, conversationID string) {
	sess.mu.Lock()
	defer sess.mu.Unlock()
	sess.DeletingConversation = conversationID
}

func (m *Manager) CancelDelete(sess *Session) {
	sess.mu.Lock()
	defer sess.mu.Unlock()
	sess.DeletingConversation = ""
}

func (m *Manager) BeginEdit(sess *Session, index int) error {
	sess.mu.Lock()
	defer sess.mu.Unlock()
	if index < 0 || index >= len(sess.Buffer) {
		return NewValidationError("edit", "message index out of range")
	}
	sess.EditingMessageIndex = index
	sess.OriginalMessageContent = sess.Buffer[index].Content
	return nil
}

func (m *Manager) CancelEdit(sess *Session) {
	sess.mu.Lock()
	defer sess.mu.Unlock()
	sess.EditingMessageIndex = -1
	sess.OriginalMessageContent = ""
}
