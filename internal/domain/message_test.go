// File: internal/domain/message_test.go
package domain

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func messages(n int) Messages {
	msgs := make(Messages, 0, n)
	for i := 0; i < n; i++ {
		msgs = append(msgs, Message{Role: RoleUser, Content: fmt.Sprintf("m%d", i)})
	}
	return msgs
}

func TestWindow(t *testing.T) {
	t.Run("returns the trailing limit messages", func(t *testing.T) {
		w := messages(15).Window(10)
		assert.Len(t, w, 10)
		assert.Equal(t, "m5", w[0].Content)
		assert.Equal(t, "m14", w[9].Content)
	})

	t.Run("short buffers come back whole", func(t *testing.T) {
		msgs := messages(3)
		assert.Equal(t, msgs, msgs.Window(10))
	})

	t.Run("non-positive limit yields nothing", func(t *testing.T) {
		assert.Nil(t, messages(3).Window(0))
		assert.Nil(t, messages(3).Window(-1))
	})
}

func TestHistoryLimit(t *testing.T) {
	t.Run("falls back to the default when unset", func(t *testing.T) {
		u := &User{}
		assert.Equal(t, DefaultMessageHistoryLimit, u.HistoryLimit())
	})

	t.Run("uses the configured limit", func(t *testing.T) {
		u := &User{MessageHistoryLimit: 25}
		assert.Equal(t, 25, u.HistoryLimit())
	})
}

func TestPasswordHashing(t *testing.T) {
	t.Run("round-trips a valid password", func(t *testing.T) {
		u := &User{}
		assert.NoError(t, u.HashPassword("correct horse"))
		assert.NoError(t, u.ValidatePassword("correct horse"))
		assert.Error(t, u.ValidatePassword("wrong horse"))
	})

	t.Run("rejects short passwords", func(t *testing.T) {
		u := &User{}
		assert.Error(t, u.HashPassword("short"))
	})
}
