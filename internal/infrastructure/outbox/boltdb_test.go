package outbox

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	store, err := Open(filepath.Join(t.TempDir(), "outbox.db"), "outbox")
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })
	return store
}

func TestEnqueueAndBatchOrder(t *testing.T) {
	store := newTestStore(t)

	base := time.Now().Add(-time.Minute)
	for i, email := range []string{"first@x.com", "second@x.com", "third@x.com"} {
		err := store.Enqueue(Message{
			Email:      email,
			Username:   "user",
			Token:      "tok",
			EnqueuedAt: base.Add(time.Duration(i) * time.Second),
		})
		require.NoError(t, err)
	}

	msgs, err := store.GetBatch(10)
	require.NoError(t, err)
	require.Len(t, msgs, 3)
	assert.Equal(t, "first@x.com", msgs[0].Email)
	assert.Equal(t, "second@x.com", msgs[1].Email)
	assert.Equal(t, "third@x.com", msgs[2].Email)
}

func TestGetBatch_HonorsLimit(t *testing.T) {
	store := newTestStore(t)

	for i := 0; i < 5; i++ {
		require.NoError(t, store.Enqueue(Message{Email: "a@x.com", Token: "tok"}))
	}

	msgs, err := store.GetBatch(2)
	require.NoError(t, err)
	assert.Len(t, msgs, 2)

	size, err := store.Size()
	require.NoError(t, err)
	assert.Equal(t, 5, size)
}

func TestRemove_DeletesMessage(t *testing.T) {
	store := newTestStore(t)

	require.NoError(t, store.Enqueue(Message{Email: "a@x.com", Token: "tok"}))

	msgs, err := store.GetBatch(1)
	require.NoError(t, err)
	require.Len(t, msgs, 1)

	require.NoError(t, store.Remove(msgs[0]))

	size, err := store.Size()
	require.NoError(t, err)
	assert.Zero(t, size)
}

func TestRequeue_MovesMessageToBack(t *testing.T) {
	store := newTestStore(t)

	base := time.Now().Add(-time.Minute)
	require.NoError(t, store.Enqueue(Message{Email: "old@x.com", Token: "tok", EnqueuedAt: base}))
	require.NoError(t, store.Enqueue(Message{Email: "newer@x.com", Token: "tok", EnqueuedAt: base.Add(time.Second)}))

	msgs, err := store.GetBatch(10)
	require.NoError(t, err)
	require.Len(t, msgs, 2)
	require.Equal(t, "old@x.com", msgs[0].Email)

	failed := msgs[0]
	failed.Attempts = 1
	require.NoError(t, store.Remove(failed))
	require.NoError(t, store.Requeue(failed))

	msgs, err = store.GetBatch(10)
	require.NoError(t, err)
	require.Len(t, msgs, 2)
	assert.Equal(t, "newer@x.com", msgs[0].Email)
	assert.Equal(t, "old@x.com", msgs[1].Email)
	assert.Equal(t, 1, msgs[1].Attempts)
}

func TestCleanup_DropsStaleMessages(t *testing.T) {
	store := newTestStore(t)

	stale := time.Now().Add(-48 * time.Hour)
	require.NoError(t, store.Enqueue(Message{Email: "stale@x.com", Token: "tok", EnqueuedAt: stale}))
	require.NoError(t, store.Enqueue(Message{Email: "fresh@x.com", Token: "tok"}))

	require.NoError(t, store.Cleanup(time.Now().Add(-24*time.Hour)))

	msgs, err := store.GetBatch(10)
	require.NoError(t, err)
	require.Len(t, msgs, 1)
	assert.Equal(t, "fresh@x.com", msgs[0].Email)
}

func TestSurvivesReopen(t *testing.T) {
	path := filepath.Join(t.TempDir(), "outbox.db")

	store, err := Open(path, "outbox")
	require.NoError(t, err)
	require.NoError(t, store.Enqueue(Message{Email: "a@x.com", Token: "tok"}))
	require.NoError(t, store.Close())

	reopened, err := Open(path, "outbox")
	require.NoError(t, err)
	defer reopened.Close()

	size, err := reopened.Size()
	require.NoError(t, err)
	assert.Equal(t, 1, size)
}
