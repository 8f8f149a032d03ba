package notification

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jwalitptl/clinic-api/internal/model"
	"github.com/jwalitptl/clinic-api/pkg/logger"
	"github.com/jwalitptl/clinic-api/pkg/metrics"
)

type stubSender struct {
	mu       sync.Mutex
	failures int
	calls    int
	sent     []model.VerificationNotice
	block    chan struct{}
}

func (s *stubSender) SendVerification(_ context.Context, notice model.VerificationNotice) error {
	if s.block != nil {
		<-s.block
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.calls++
	if s.calls <= s.failures {
		return errors.New("smtp down")
	}
	s.sent = append(s.sent, notice)
	return nil
}

func (s *stubSender) sentCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.sent)
}

func TestDispatcherDeliversWithRetry(t *testing.T) {
	sender := &stubSender{failures: 2}
	m := metrics.NewNop()
	d := NewDispatcher(sender, Config{Workers: 1, RetryAttempts: 3, RetryDelay: time.Millisecond}, logger.Nop(), m)
	d.Start()

	d.NotifyVerification(context.Background(), model.VerificationNotice{Email: "a@example.com", Code: "123456"})
	require.NoError(t, d.Shutdown(context.Background()))

	assert.Equal(t, 1, sender.sentCount())
	assert.Equal(t, 3, sender.calls)
	assert.Equal(t, float64(1), testutil.ToFloat64(m.NotificationsSent.WithLabelValues("sent")))
}

func TestDispatcherGivesUpAfterRetries(t *testing.T) {
	sender := &stubSender{failures: 10}
	m := metrics.NewNop()
	d := NewDispatcher(sender, Config{Workers: 1, RetryAttempts: 2, RetryDelay: time.Millisecond}, logger.Nop(), m)
	d.Start()

	d.NotifyVerification(context.Background(), model.VerificationNotice{Email: "a@example.com"})
	require.NoError(t, d.Shutdown(context.Background()))

	assert.Equal(t, 0, sender.sentCount())
	assert.Equal(t, float64(1), testutil.ToFloat64(m.NotificationsSent.WithLabelValues("failed")))
}

func TestDispatcherDropsWhenQueueFull(t *testing.T) {
	sender := &stubSender{block: make(chan struct{})}
	m := metrics.NewNop()
	d := NewDispatcher(sender, Config{Workers: 1, QueueSize: 1}, logger.Nop(), m)

	d.NotifyVerification(context.Background(), model.VerificationNotice{Email: "a@example.com"})
	d.NotifyVerification(context.Background(), model.VerificationNotice{Email: "b@example.com"})
	assert.Equal(t, float64(1), testutil.ToFloat64(m.NotificationsSent.WithLabelValues("dropped")))

	d.Start()
	close(sender.block)
	require.NoError(t, d.Shutdown(context.Background()))
	assert.Equal(t, 1, sender.sentCount())
}

func TestDispatcherRejectsAfterShutdown(t *testing.T) {
	sender := &stubSender{}
	m := metrics.NewNop()
	d := NewDispatcher(sender, Config{}, logger.Nop(), m)
	d.Start()
	require.NoError(t, d.Shutdown(context.Background()))

	d.NotifyVerification(context.Background(), model.VerificationNotice{Email: "late@example.com"})
	assert.Equal(t, 0, sender.sentCount())
	assert.Equal(t, float64(1), testutil.ToFloat64(m.NotificationsSent.WithLabelValues("dropped")))
}

func TestDispatcherShutdownTimeoutIsRepeatable(t *testing.T) {
	sender := &stubSender{block: make(chan struct{})}
	d := NewDispatcher(sender, Config{Workers: 1}, logger.Nop(), metrics.NewNop())
	d.Start()
	d.NotifyVerification(context.Background(), model.VerificationNotice{Email: "slow@example.com"})

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	assert.NotPanics(t, func() {
		assert.ErrorIs(t, d.Shutdown(ctx), context.Canceled)
		assert.ErrorIs(t, d.Shutdown(ctx), context.Canceled)
	})

	close(sender.block)
	require.NoError(t, d.Shutdown(context.Background()))
}
