// File: internal/repository/conversation/conversation_repository_test.go
package conversation

import (
	"context"
	"testing"
	"time"

	"github.com/glebarez/sqlite"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/greyhelm/ttrpg-buddy/internal/domain"
)

func newTestRepo(t *testing.T) ConversationRepository {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(&domain.Conversation{}))
	return NewConversationRepository(db)
}

func sampleMessages() domain.Messages {
	return domain.Messages{
		{Role: domain.RoleUser, Content: "Describe the ruined keep."},
		{Role: domain.RoleAssistant, Content: "Moss-eaten walls, a collapsed gatehouse."},
	}
}

func TestCreate(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()

	t.Run("allocates distinct ids without writing records", func(t *testing.T) {
		a, err := repo.Create(ctx, "gm")
		require.NoError(t, err)
		b, err := repo.Create(ctx, "gm")
		require.NoError(t, err)
		assert.NotEqual(t, a, b)

		// No record exists until the first save.
		summaries, err := repo.List(ctx, "gm")
		require.NoError(t, err)
		assert.Empty(t, summaries)
	})

	t.Run("rejects an empty username", func(t *testing.T) {
		_, err := repo.Create(ctx, "")
		require.Error(t, err)
	})
}

func TestSaveAndLoad(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()

	t.Run("empty message sequence is a no-op", func(t *testing.T) {
		id, err := repo.Create(ctx, "gm")
		require.NoError(t, err)
		require.NoError(t, repo.Save(ctx, "gm", id, domain.Messages{}))

		summaries, err := repo.List(ctx, "gm")
		require.NoError(t, err)
		assert.Empty(t, summaries)
	})

	t.Run("round-trips the full message sequence", func(t *testing.T) {
		id, err := repo.Create(ctx, "gm")
		require.NoError(t, err)
		msgs := sampleMessages()
		require.NoError(t, repo.Save(ctx, "gm", id, msgs))

		loaded, err := repo.Load(ctx, "gm", id)
		require.NoError(t, err)
		assert.Equal(t, msgs, loaded)
	})

	t.Run("save rewrites in full and preserves creation time", func(t *testing.T) {
		id, err := repo.Create(ctx, "gm")
		require.NoError(t, err)
		require.NoError(t, repo.Save(ctx, "gm", id, sampleMessages()))

		first, err := repo.List(ctx, "gm")
		require.NoError(t, err)
		var created time.Time
		for _, s := range first {
			if s.ConversationID == id {
				created = s.CreatedAt
			}
		}
		require.False(t, created.IsZero())

		extended := append(sampleMessages(), domain.Message{
			Role: domain.RoleUser, Content: "Any survivors?",
		})
		require.NoError(t, repo.Save(ctx, "gm", id, extended))

		loaded, err := repo.Load(ctx, "gm", id)
		require.NoError(t, err)
		assert.Equal(t, extended, loaded)

		second, err := repo.List(ctx, "gm")
		require.NoError(t, err)
		for _, s := range second {
			if s.ConversationID == id {
				assert.Equal(t, created.Unix(), s.CreatedAt.Unix())
			}
		}
	})

	t.Run("loading an unsaved conversation yields an empty sequence", func(t *testing.T) {
		id, err := repo.Create(ctx, "gm")
		require.NoError(t, err)

		loaded, err := repo.Load(ctx, "gm", id)
		require.NoError(t, err)
		assert.Empty(t, loaded)
	})

	t.Run("conversations are scoped to their owner", func(t *testing.T) {
		id, err := repo.Create(ctx, "gm")
		require.NoError(t, err)
		require.NoError(t, repo.Save(ctx, "gm", id, sampleMessages()))

		loaded, err := repo.Load(ctx, "other", id)
		require.NoError(t, err)
		assert.Empty(t, loaded)
	})
}

func TestList(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()

	t.Run("orders by last update, newest first", func(t *testing.T) {
		first, err := repo.Create(ctx, "gm")
		require.NoError(t, err)
		require.NoError(t, repo.Save(ctx, "gm", first, sampleMessages()))

		second, err := repo.Create(ctx, "gm")
		require.NoError(t, err)
		require.NoError(t, repo.Save(ctx, "gm", second, sampleMessages()))

		// Touch the first conversation again so it becomes the most recent.
		require.NoError(t, repo.Save(ctx, "gm", first, append(sampleMessages(), domain.Message{
			Role: domain.RoleUser, Content: "more",
		})))

		summaries, err := repo.List(ctx, "gm")
		require.NoError(t, err)
		require.Len(t, summaries, 2)
		assert.Equal(t, first, summaries[0].ConversationID)
		assert.Equal(t, second, summaries[1].ConversationID)
	})
}

func TestRename(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()

	t.Run("renames a persisted conversation", func(t *testing.T) {
		id, err := repo.Create(ctx, "gm")
		require.NoError(t, err)
		require.NoError(t, repo.Save(ctx, "gm", id, sampleMessages()))

		require.NoError(t, repo.Rename(ctx, "gm", id, "The Ruined Keep"))

		summaries, err := repo.List(ctx, "gm")
		require.NoError(t, err)
		require.Len(t, summaries, 1)
		assert.Equal(t, "The Ruined Keep", summaries[0].Name)
		assert.Equal(t, "The Ruined Keep", summaries[0].DisplayName())
	})

	t.Run("returns the sentinel for a missing conversation", func(t *testing.T) {
		err := repo.Rename(ctx, "gm", "no-such-id", "name")
		assert.ErrorIs(t, err, ErrConversationNotFound)
	})

	t.Run("rejects an oversized name", func(t *testing.T) {
		id, err := repo.Create(ctx, "gm")
		require.NoError(t, err)
		long := make([]byte, 201)
		for i := range long {
			long[i] = 'x'
		}
		require.Error(t, repo.Rename(ctx, "gm", id, string(long)))
	})
}

func TestDelete(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()

	t.Run("deletes a persisted conversation", func(t *testing.T) {
		id, err := repo.Create(ctx, "gm")
		require.NoError(t, err)
		require.NoError(t, repo.Save(ctx, "gm", id, sampleMessages()))

		require.NoError(t, repo.Delete(ctx, "gm", id))

		summaries, err := repo.List(ctx, "gm")
		require.NoError(t, err)
		assert.Empty(t, summaries)
	})

	t.Run("returns the sentinel for a missing conversation", func(t *testing.T) {
		err := repo.Delete(ctx, "gm", "no-such-id")
		assert.ErrorIs(t, err, ErrConversationNotFound)
	})
}
