package notification

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/jwalitptl/clinic-api/internal/email"
	"github.com/jwalitptl/clinic-api/internal/model"
	"github.com/jwalitptl/clinic-api/pkg/logger"
	"github.com/jwalitptl/clinic-api/pkg/metrics"
)

// Notifier hands a notification off for delivery. It never blocks on the
// delivery channel and never reports delivery failures to the caller.
type Notifier interface {
	NotifyVerification(ctx context.Context, notice model.VerificationNotice)
}

var ErrDispatcherClosed = errors.New("notification dispatcher is closed")

type Config struct {
	Workers       int
	QueueSize     int
	RetryAttempts int
	RetryDelay    time.Duration
	SendTimeout   time.Duration
}

func (c Config) withDefaults() Config {
	if c.Workers <= 0 {
		c.Workers = 2
	}
	if c.QueueSize <= 0 {
		c.QueueSize = 100
	}
	if c.RetryAttempts <= 0 {
		c.RetryAttempts = 3
	}
	if c.RetryDelay <= 0 {
		c.RetryDelay = 5 * time.Second
	}
	if c.SendTimeout <= 0 {
		c.SendTimeout = 30 * time.Second
	}
	return c
}

// Dispatcher delivers notifications from a bounded queue with a fixed pool
// of workers. A full queue drops the notification; the user can ask for
// the verification email again.
type Dispatcher struct {
	cfg     Config
	sender  email.Service
	log     *logger.Logger
	metrics *metrics.Metrics

	mu       sync.RWMutex
	closed   bool
	queue    chan model.VerificationNotice
	stop     chan struct{}
	stopOnce sync.Once
	wg       sync.WaitGroup
}

func NewDispatcher(sender email.Service, cfg Config, log *logger.Logger, m *metrics.Metrics) *Dispatcher {
	cfg = cfg.withDefaults()
	return &Dispatcher{
		cfg:     cfg,
		sender:  sender,
		log:     log,
		metrics: m,
		queue:   make(chan model.VerificationNotice, cfg.QueueSize),
		stop:    make(chan struct{}),
	}
}

// Start launches the workers. They run until Shutdown.
func (d *Dispatcher) Start() {
	for i := 0; i < d.cfg.Workers; i++ {
		d.wg.Add(1)
		go d.worker()
	}
}

func (d *Dispatcher) NotifyVerification(_ context.Context, notice model.VerificationNotice) {
	if err := d.enqueue(notice); err != nil {
		d.metrics.NotificationsSent.WithLabelValues("dropped").Inc()
		d.log.Warn("verification notification dropped", "reason", err.Error())
	}
}

func (d *Dispatcher) enqueue(notice model.VerificationNotice) error {
	d.mu.RLock()
	defer d.mu.RUnlock()
	if d.closed {
		return ErrDispatcherClosed
	}
	select {
	case d.queue <- notice:
		d.metrics.NotificationQueueLen.Set(float64(len(d.queue)))
		return nil
	default:
		return errors.New("queue full")
	}
}

// Shutdown stops accepting work and waits for queued notifications to be
// delivered or for ctx to end, whichever comes first. It may be called
// again after a timeout.
func (d *Dispatcher) Shutdown(ctx context.Context) error {
	d.mu.Lock()
	if !d.closed {
		d.closed = true
		close(d.queue)
	}
	d.mu.Unlock()

	done := make(chan struct{})
	go func() {
		d.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		return nil
	case <-ctx.Done():
		d.stopOnce.Do(func() { close(d.stop) })
		return ctx.Err()
	}
}

func (d *Dispatcher) worker() {
	defer d.wg.Done()
	for notice := range d.queue {
		d.metrics.NotificationQueueLen.Set(float64(len(d.queue)))
		d.deliver(notice)
	}
}

func (d *Dispatcher) deliver(notice model.VerificationNotice) {
	var err error
	for attempt := 1; attempt <= d.cfg.RetryAttempts; attempt++ {
		ctx, cancel := context.WithTimeout(context.Background(), d.cfg.SendTimeout)
		err = d.sender.SendVerification(ctx, notice)
		cancel()
		if err == nil {
			d.metrics.NotificationsSent.WithLabelValues("sent").Inc()
			return
		}

		d.log.Warn("verification email attempt failed", "attempt", attempt, "error", err.Error())
		if attempt == d.cfg.RetryAttempts {
			break
		}
		select {
		case <-time.After(d.cfg.RetryDelay):
		case <-d.stop:
			d.metrics.NotificationsSent.WithLabelValues("failed").Inc()
			d.log.Error(err, "verification email abandoned on shutdown")
			return
		}
	}

	d.metrics.NotificationsSent.WithLabelValues("failed").Inc()
	d.log.Error(err, "verification email not delivered")
}
