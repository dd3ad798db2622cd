package session

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// storeFactories lets the same suite run against both implementations
var storeFactories = map[string]func(t *testing.T, ttl time.Duration) Store{
	"sqlite": func(t *testing.T, ttl time.Duration) Store {
		store, err := NewSqliteStore(filepath.Join(t.TempDir(), "sessions_test.db"), ttl)
		require.NoError(t, err)
		t.Cleanup(func() { store.Close() })
		return store
	},
	"memory": func(t *testing.T, ttl time.Duration) Store {
		return NewInMemoryStore(ttl)
	},
}

func TestStoreLifecycle(t *testing.T) {
	for name, factory := range storeFactories {
		t.Run(name, func(t *testing.T) {
			store := factory(t, 30*time.Minute)
			ctx := context.Background()

			session, err := store.Create(ctx, "user-1")
			require.NoError(t, err)
			assert.NotEqual(t, uuid.Nil, session.ID)
			assert.False(t, session.HasPendingIntent())

			// Collect state and save
			session.PendingIntent = "transfer"
			session.AwaitingSlot = "amount"
			session.Slots["recipient"] = "Bob Smith"
			require.NoError(t, store.Save(ctx, session))
			assert.Equal(t, 1, session.TurnCount)

			// Reload and verify state round-trips
			loaded, err := store.Get(ctx, session.ID)
			require.NoError(t, err)
			assert.Equal(t, "transfer", loaded.PendingIntent)
			assert.Equal(t, "amount", loaded.AwaitingSlot)
			assert.Equal(t, "Bob Smith", loaded.Slots["recipient"])

			// Delete removes it
			require.NoError(t, store.Delete(ctx, session.ID))
			_, err = store.Get(ctx, session.ID)
			assert.ErrorIs(t, err, ErrSessionNotFound)
		})
	}
}

func TestStoreExpiry(t *testing.T) {
	for name, factory := range storeFactories {
		t.Run(name, func(t *testing.T) {
			store := factory(t, 30*time.Minute)
			ctx := context.Background()

			session, err := store.Create(ctx, "user-2")
			require.NoError(t, err)

			// Force expiry in the past and persist without the Save refresh
			session.ExpiresAt = time.Now().Add(-time.Minute)
			switch s := store.(type) {
			case *SqliteStore:
				require.NoError(t, s.db.Save(session).Error)
			case *InMemoryStore:
				// Session pointer is shared; nothing else to do
			}

			_, err = store.Get(ctx, session.ID)
			assert.ErrorIs(t, err, ErrSessionExpired)
		})
	}
}

func TestDeleteExpired(t *testing.T) {
	store := NewInMemoryStore(30 * time.Minute)
	ctx := context.Background()

	fresh, err := store.Create(ctx, "fresh")
	require.NoError(t, err)

	stale, err := store.Create(ctx, "stale")
	require.NoError(t, err)
	stale.ExpiresAt = time.Now().Add(-time.Hour)

	removed, err := store.DeleteExpired(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(1), removed)

	_, err = store.Get(ctx, fresh.ID)
	assert.NoError(t, err)
}

func TestDeleteExpiredSqlite(t *testing.T) {
	store, err := NewSqliteStore(filepath.Join(t.TempDir(), "sweep_test.db"), 30*time.Minute)
	require.NoError(t, err)
	defer store.Close()
	ctx := context.Background()

	fresh, err := store.Create(ctx, "fresh")
	require.NoError(t, err)

	stale, err := store.Create(ctx, "stale")
	require.NoError(t, err)
	stale.ExpiresAt = time.Now().Add(-time.Hour)
	require.NoError(t, store.db.Save(stale).Error)

	removed, err := store.DeleteExpired(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(1), removed)

	_, err = store.Get(ctx, fresh.ID)
	assert.NoError(t, err)
}

func TestMalformedSlotsDegradeToFresh(t *testing.T) {
	store, err := NewSqliteStore(filepath.Join(t.TempDir(), "malformed_test.db"), 30*time.Minute)
	require.NoError(t, err)
	defer store.Close()
	ctx := context.Background()

	session, err := store.Create(ctx, "user-3")
	require.NoError(t, err)

	// Corrupt the stored slot JSON behind the model's back
	err = store.db.Model(&Session{}).
		Where("id = ?", session.ID).
		Updates(map[string]any{"slots": "{not json", "pending_intent": "transfer"}).Error
	require.NoError(t, err)

	loaded, err := store.Get(ctx, session.ID)
	require.NoError(t, err)
	assert.Empty(t, loaded.Slots)
	assert.False(t, loaded.HasPendingIntent())
}
