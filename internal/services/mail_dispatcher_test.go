package services

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/taskforge/backend/internal/infrastructure/outbox"
)

type fakeSender struct {
	failing bool
	sent    []string
}

func (s *fakeSender) SendVerification(_ context.Context, toEmail, _, _ string) error {
	if s.failing {
		return errors.New("smtp unavailable")
	}
	s.sent = append(s.sent, toEmail)
	return nil
}

func newTestDispatcher(t *testing.T, sender *fakeSender, maxRetries int) (*MailDispatcher, *outbox.Store) {
	t.Helper()
	store, err := outbox.Open(filepath.Join(t.TempDir(), "outbox.db"), "outbox")
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })

	md := NewMailDispatcher(store, sender, zap.NewNop(), DispatcherConfig{
		Interval:   time.Minute,
		BatchSize:  10,
		MaxRetries: maxRetries,
		Retention:  24 * time.Hour,
	})
	return md, store
}

func TestDispatch_DeliversImmediately(t *testing.T) {
	sender := &fakeSender{}
	md, store := newTestDispatcher(t, sender, 3)

	err := md.Dispatch(context.Background(), outbox.Message{Email: "a@x.com", Username: "alice", Token: "tok"})
	require.NoError(t, err)
	assert.Equal(t, []string{"a@x.com"}, sender.sent)

	size, err := store.Size()
	require.NoError(t, err)
	assert.Zero(t, size)
}

func TestDispatch_QueuesWhenDeliveryFails(t *testing.T) {
	sender := &fakeSender{failing: true}
	md, _ := newTestDispatcher(t, sender, 3)

	err := md.Dispatch(context.Background(), outbox.Message{Email: "a@x.com", Username: "alice", Token: "tok"})
	require.NoError(t, err)
	assert.Equal(t, 1, md.Size())
}

func TestDrain_DeliversQueuedMessages(t *testing.T) {
	sender := &fakeSender{failing: true}
	md, _ := newTestDispatcher(t, sender, 3)

	ctx := context.Background()
	require.NoError(t, md.Dispatch(ctx, outbox.Message{Email: "a@x.com", Token: "tok"}))
	require.NoError(t, md.Dispatch(ctx, outbox.Message{Email: "b@x.com", Token: "tok"}))
	require.Equal(t, 2, md.Size())

	// SMTP comes back; the next drain flushes everything.
	sender.failing = false
	require.NoError(t, md.Drain(ctx))

	assert.Equal(t, []string{"a@x.com", "b@x.com"}, sender.sent)
	assert.Zero(t, md.Size())
}

func TestDrain_RetriesThenDrops(t *testing.T) {
	sender := &fakeSender{failing: true}
	md, _ := newTestDispatcher(t, sender, 2)

	ctx := context.Background()
	require.NoError(t, md.Dispatch(ctx, outbox.Message{Email: "a@x.com", Token: "tok"}))

	// First drain fails and requeues with one attempt recorded.
	require.NoError(t, md.Drain(ctx))
	assert.Equal(t, 1, md.Size())

	// Second drain hits the retry cap and drops the message.
	require.NoError(t, md.Drain(ctx))
	assert.Zero(t, md.Size())
	assert.Empty(t, sender.sent)
}
