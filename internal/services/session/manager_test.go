// File: internal/services/session/manager_test.go
package session

import (
	"context"
	"errors"
	"fmt"
	"io"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/greyhelm/ttrpg-buddy/internal/domain"
	"github.com/greyhelm/ttrpg-buddy/internal/services/assistant"
)

type stubLogger struct{}

func (stubLogger) Info(msg string, kv ...interface{})  {}
func (stubLogger) Error(msg string, kv ...interface{}) {}
func (stubLogger) Debug(msg string, kv ...interface{}) {}
func (stubLogger) Warn(msg string, kv ...interface{})  {}

// memoryStore is an in-memory Store keyed by conversation id.
type memoryStore struct {
	nextID    int
	records   map[string]domain.Messages
	order     []string
	saveErr   error
	saveCalls int
}

func newMemoryStore() *memoryStore {
	return &memoryStore{records: map[string]domain.Messages{}}
}

func (s *memoryStore) Create(ctx context.Context, username string) (string, error) {
	s.nextID++
	return fmt.Sprintf("conv-%d", s.nextID), nil
}

func (s *memoryStore) Save(ctx context.Context, username, conversationID string, messages domain.Messages) error {
	s.saveCalls++
	if s.saveErr != nil {
		return s.saveErr
	}
	if len(messages) == 0 {
		return nil
	}
	if _, ok := s.records[conversationID]; !ok {
		s.order = append(s.order, conversationID)
	}
	s.records[conversationID] = append(domain.Messages{}, messages...)
	return nil
}

func (s *memoryStore) Load(ctx context.Context, username, conversationID string) (domain.Messages, error) {
	if msgs, ok := s.records[conversationID]; ok {
		return append(domain.Messages{}, msgs...), nil
	}
	return domain.Messages{}, nil
}

func (s *memoryStore) List(ctx context.Context, username string) ([]domain.ConversationSummary, error) {
	summaries := make([]domain.ConversationSummary, 0, len(s.order))
	for i := len(s.order) - 1; i >= 0; i-- {
		summaries = append(summaries, domain.ConversationSummary{ConversationID: s.order[i]})
	}
	return summaries, nil
}

func (s *memoryStore) Rename(ctx context.Context, username, conversationID, name string) error {
	if _, ok := s.records[conversationID]; !ok {
		return errors.New("not found")
	}
	return nil
}

func (s *memoryStore) Delete(ctx context.Context, username, conversationID string) error {
	if _, ok := s.records[conversationID]; !ok {
		return errors.New("not found")
	}
	delete(s.records, conversationID)
	for i, id := range s.order {
		if id == conversationID {
			s.order = append(s.order[:i], s.order[i+1:]...)
			break
		}
	}
	return nil
}

type stubUsers struct {
	user *domain.User
	err  error
}

func (u *stubUsers) FindByUsername(ctx context.Context, username string) (*domain.User, error) {
	return u.user, u.err
}

// replyStream yields one fragment then EOF.
type replyStream struct {
	fragments []string
	pos       int
	failAfter int // fail after this many fragments when >0
}

func (s *replyStream) Recv() (assistant.Chunk, error) {
	if s.failAfter > 0 && s.pos >= s.failAfter {
		return assistant.Chunk{}, errors.New("connection reset")
	}
	if s.pos >= len(s.fragments) {
		return assistant.Chunk{}, io.EOF
	}
	c := assistant.Chunk{Content: s.fragments[s.pos]}
	s.pos++
	return c, nil
}

func (s *replyStream) Close() error { return nil }

type stubGateway struct {
	reply       []string
	failAfter   int
	queryErr    error
	lastHistory []domain.Message
	lastText    string
}

func (g *stubGateway) Query(ctx context.Context, assistantName string, history []domain.Message, newText string) (assistant.Stream, error) {
	g.lastHistory = append([]domain.Message{}, history...)
	g.lastText = newText
	if g.queryErr != nil {
		return nil, g.queryErr
	}
	return &replyStream{fragments: g.reply, failAfter: g.failAfter}, nil
}

func testUser() *domain.User {
	return &domain.User{
		ID:                  1,
		Username:            "gm",
		Assistant:           "gm-helper",
		MessageHistoryLimit: 10,
	}
}

func newTestManager(store *memoryStore, gw *stubGateway) (*Manager, *Session) {
	m := NewManager(store, &stubUsers{user: testUser()}, gw, stubLogger{})
	return m, m.Session("gm")
}

func TestManagerInit(t *testing.T) {
	t.Run("creates a conversation for a new user", func(t *testing.T) {
		m, sess := newTestManager(newMemoryStore(), &stubGateway{})
		require.NoError(t, m.Init(context.Background(), sess))

		view := sess.Snapshot()
		assert.Equal(t, "conv-1", view.ActiveConversationID)
		assert.Empty(t, view.Messages)
	})

	t.Run("selects the most recent conversation when some exist", func(t *testing.T) {
		store := newMemoryStore()
		require.NoError(t, store.Save(context.Background(), "gm", "old", domain.Messages{{Role: domain.RoleUser, Content: "a"}}))
		require.NoError(t, store.Save(context.Background(), "gm", "new", domain.Messages{{Role: domain.RoleUser, Content: "b"}}))

		m, sess := newTestManager(store, &stubGateway{})
		require.NoError(t, m.Init(context.Background(), sess))

		view := sess.Snapshot()
		assert.Equal(t, "new", view.ActiveConversationID)
		require.Len(t, view.Messages, 1)
		assert.Equal(t, "b", view.Messages[0].Content)
	})
}

func TestManagerSend(t *testing.T) {
	t.Run("rejects empty text", func(t *testing.T) {
		m, sess := newTestManager(newMemoryStore(), &stubGateway{})
		require.NoError(t, m.Init(context.Background(), sess))

		_, err := m.Send(context.Background(), sess, "", nil)
		var serr *SessionError
		require.ErrorAs(t, err, &serr)
		assert.Equal(t, ErrTypeValidation, serr.Type)
	})

	t.Run("appends both messages and persists the buffer", func(t *testing.T) {
		store := newMemoryStore()
		gw := &stubGateway{reply: []string{"A hooded ", "figure."}}
		m, sess := newTestManager(store, gw)
		require.NoError(t, m.Init(context.Background(), sess))

		var running []string
		final, err := m.Send(context.Background(), sess, "Who enters?", func(s string) { running = append(running, s) })
		require.NoError(t, err)
		assert.Equal(t, "A hooded figure.", final)
		assert.NotEmpty(t, running)

		view := sess.Snapshot()
		require.Len(t, view.Messages, 2)
		assert.Equal(t, domain.Message{Role: domain.RoleUser, Content: "Who enters?"}, view.Messages[0])
		assert.Equal(t, domain.Message{Role: domain.RoleAssistant, Content: "A hooded figure."}, view.Messages[1])

		persisted := store.records[view.ActiveConversationID]
		assert.Equal(t, view.Messages, persisted)
	})

	t.Run("windows the history before appending the new message", func(t *testing.T) {
		store := newMemoryStore()
		gw := &stubGateway{reply: []string{"ok"}}
		m, sess := newTestManager(store, gw)
		require.NoError(t, m.Init(context.Background(), sess))

		// Preload a buffer of 15 messages.
		for i := 0; i < 15; i++ {
			sess.Buffer = append(sess.Buffer, domain.Message{
				Role:    domain.RoleUser,
				Content: fmt.Sprintf("m%d", i),
			})
		}

		_, err := m.Send(context.Background(), sess, "newest", nil)
		require.NoError(t, err)

		// Limit is 10: exactly the last 10 pre-existing messages, with the
		// new text synthesized separately by the gateway.
		require.Len(t, gw.lastHistory, 10)
		assert.Equal(t, "m5", gw.lastHistory[0].Content)
		assert.Equal(t, "m14", gw.lastHistory[9].Content)
		assert.Equal(t, "newest", gw.lastText)
	})

	t.Run("keeps the user message in the buffer on gateway failure", func(t *testing.T) {
		store := newMemoryStore()
		gw := &stubGateway{queryErr: errors.New("all attempts failed")}
		m, sess := newTestManager(store, gw)
		require.NoError(t, m.Init(context.Background(), sess))

		_, err := m.Send(context.Background(), sess, "hello?", nil)
		require.Error(t, err)

		view := sess.Snapshot()
		require.Len(t, view.Messages, 1)
		assert.Equal(t, "hello?", view.Messages[0].Content)
		// Nothing persisted.
		assert.Empty(t, store.records[view.ActiveConversationID])
	})

	t.Run("returns partial text unpersisted on mid-stream failure", func(t *testing.T) {
		store := newMemoryStore()
		gw := &stubGateway{reply: []string{"Partial ", "reply", " tail"}, failAfter: 2}
		m, sess := newTestManager(store, gw)
		require.NoError(t, m.Init(context.Background(), sess))

		final, err := m.Send(context.Background(), sess, "go on", nil)
		require.Error(t, err)
		assert.Equal(t, "Partial reply", final)

		view := sess.Snapshot()
		require.Len(t, view.Messages, 1) // only the user message
		assert.Empty(t, store.records[view.ActiveConversationID])
	})
}

func TestManagerLifecycle(t *testing.T) {
	t.Run("deleting the active conversation substitutes a fresh one", func(t *testing.T) {
		store := newMemoryStore()
		gw := &stubGateway{reply: []string{"noted"}}
		m, sess := newTestManager(store, gw)
		require.NoError(t, m.Init(context.Background(), sess))

		_, err := m.Send(context.Background(), sess, "remember this", nil)
		require.NoError(t, err)
		active := sess.Snapshot().ActiveConversationID

		require.NoError(t, m.DeleteConversation(context.Background(), sess, active))

		view := sess.Snapshot()
		assert.NotEqual(t, active, view.ActiveConversationID)
		assert.NotEmpty(t, view.ActiveConversationID)
		assert.Empty(t, view.Messages)
	})

	t.Run("deleting another conversation leaves the active one alone", func(t *testing.T) {
		store := newMemoryStore()
		require.NoError(t, store.Save(context.Background(), "gm", "other", domain.Messages{{Role: domain.RoleUser, Content: "x"}}))

		gw := &stubGateway{reply: []string{"ok"}}
		m, sess := newTestManager(store, gw)
		require.NoError(t, m.Init(context.Background(), sess))
		require.NoError(t, m.Select(context.Background(), sess, "other"))

		_, err := m.CreateConversation(context.Background(), sess)
		require.NoError(t, err)
		active := sess.Snapshot().ActiveConversationID

		require.NoError(t, m.DeleteConversation(context.Background(), sess, "other"))
		assert.Equal(t, active, sess.Snapshot().ActiveConversationID)
	})

	t.Run("rename failure surfaces and changes nothing", func(t *testing.T) {
		m, sess := newTestManager(newMemoryStore(), &stubGateway{})
		require.NoError(t, m.Init(context.Background(), sess))

		err := m.Rename(context.Background(), sess, "missing", "New Name")
		var serr *SessionError
		require.ErrorAs(t, err, &serr)
		assert.Equal(t, ErrTypePersistence, serr.Type)
	})
}

func TestManagerEdit(t *testing.T) {
	seed := func(t *testing.T) (*Manager, *Session, *memoryStore) {
		store := newMemoryStore()
		gw := &stubGateway{reply: []string{"The dragon sleeps."}}
		m, sess := newTestManager(store, gw)
		require.NoError(t, m.Init(context.Background(), sess))
		_, err := m.Send(context.Background(), sess, "What does the dragon do?", nil)
		require.NoError(t, err)
		return m, sess, store
	}

	t.Run("edits an assistant message and persists the full sequence", func(t *testing.T) {
		m, sess, store := seed(t)

		require.NoError(t, m.BeginEdit(sess, 1))
		assert.Equal(t, 1, sess.Snapshot().EditingMessageIndex)

		require.NoError(t, m.EditAssistantMessage(context.Background(), sess, 1, "The dragon wakes."))

		view := sess.Snapshot()
		assert.Equal(t, "The dragon wakes.", view.Messages[1].Content)
		assert.True(t, view.Messages[1].Edited)
		assert.Equal(t, -1, view.EditingMessageIndex)

		persisted := store.records[view.ActiveConversationID]
		require.Len(t, persisted, 2)
		assert.Equal(t, "The dragon wakes.", persisted[1].Content)
		assert.True(t, persisted[1].Edited)
	})

	t.Run("rejects editing a user message", func(t *testing.T) {
		m, sess, _ := seed(t)
		err := m.EditAssistantMessage(context.Background(), sess, 0, "rewritten")
		var serr *SessionError
		require.ErrorAs(t, err, &serr)
		assert.Equal(t, ErrTypeValidation, serr.Type)
	})

	t.Run("rejects an out-of-range index", func(t *testing.T) {
		m, sess, _ := seed(t)
		require.Error(t, m.EditAssistantMessage(context.Background(), sess, 7, "x"))
		require.Error(t, m.BeginEdit(sess, -2))
	})

	t.Run("cancel edit restores idle state", func(t *testing.T) {
		m, sess, _ := seed(t)
		require.NoError(t, m.BeginEdit(sess, 1))
		m.CancelEdit(sess)

		view := sess.Snapshot()
		assert.Equal(t, -1, view.EditingMessageIndex)
		assert.Empty(t, view.OriginalMessageContent)
	})
}
