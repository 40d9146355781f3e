package shop

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"

	"github.com/cenkalti/backoff/v4"

	"storefront/internal/metrics"
	"storefront/internal/model"
)

// MirrorConfig bounds the retry policy of background mirror writes.
type MirrorConfig struct {
	MaxAttempts     int
	InitialInterval time.Duration
	MaxInterval     time.Duration
	AttemptTimeout  time.Duration
}

// DefaultMirrorConfig retries three times over roughly two seconds.
func DefaultMirrorConfig() MirrorConfig {
	return MirrorConfig{
		MaxAttempts:     3,
		InitialInterval: 250 * time.Millisecond,
		MaxInterval:     2 * time.Second,
		AttemptTimeout:  10 * time.Second,
	}
}

// mirrorTask is one backend write queued behind a local mutation.
type mirrorTask struct {
	op  string
	key string
	run func(ctx context.Context) error
}

// Mirror applies backend writes in the background, in enqueue order, on a
// single worker. Failures are retried with exponential backoff, then logged
// and counted; they never reach the caller that made the local change.
type Mirror struct {
	cfg    MirrorConfig
	logger *slog.Logger

	mu      sync.Mutex
	tasks   []mirrorTask
	pending int
	idle    chan struct{}
	closed  bool

	wake   chan struct{}
	ctx    context.Context
	cancel context.CancelFunc
	done   chan struct{}
}

// NewMirror starts a mirror worker. Call Close to stop it.
func NewMirror(cfg MirrorConfig, logger *slog.Logger) *Mirror {
	if cfg.MaxAttempts < 1 {
		cfg.MaxAttempts = 1
	}
	if cfg.AttemptTimeout <= 0 {
		cfg.AttemptTimeout = DefaultMirrorConfig().AttemptTimeout
	}
	if logger == nil {
		logger = slog.Default()
	}
	ctx, cancel := context.WithCancel(context.Background())
	idle := make(chan struct{})
	close(idle)
	m := &Mirror{
		cfg:    cfg,
		logger: logger,
		idle:   idle,
		wake:   make(chan struct{}, 1),
		ctx:    ctx,
		cancel: cancel,
		done:   make(chan struct{}),
	}
	go m.run()
	return m
}

// Enqueue queues a write. It never blocks; after Close the task is dropped.
func (m *Mirror) Enqueue(op, key string, run func(ctx context.Context) error) {
	m.mu.Lock()
	if m.closed {
		m.mu.Unlock()
		metrics.MirrorTasks.WithLabelValues(op, "dropped").Inc()
		return
	}
	if m.pending == 0 {
		m.idle = make(chan struct{})
	}
	m.pending++
	m.tasks = append(m.tasks, mirrorTask{op: op, key: key, run: run})
	m.mu.Unlock()

	select {
	case m.wake <- struct{}{}:
	default:
	}
}

// Pending returns the number of queued or running writes.
func (m *Mirror) Pending() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.pending
}

// Drain blocks until every queued write has finished or ctx is done.
func (m *Mirror) Drain(ctx context.Context) error {
	m.mu.Lock()
	idle := m.idle
	m.mu.Unlock()

	select {
	case <-idle:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Close stops the worker. Queued writes that have not started are dropped
// and an in-flight retry is abandoned; Drain first to keep them.
func (m *Mirror) Close() {
	m.mu.Lock()
	if m.closed {
		m.mu.Unlock()
		<-m.done
		return
	}
	m.closed = true
	dropped := m.tasks
	m.tasks = nil
	m.mu.Unlock()

	for _, t := range dropped {
		metrics.MirrorTasks.WithLabelValues(t.op, "dropped").Inc()
		m.finish()
	}
	m.cancel()
	<-m.done
}

func (m *Mirror) run() {
	defer close(m.done)
	for {
		t, ok := m.next()
		if !ok {
			return
		}
		m.execute(t)
		m.finish()
	}
}

// next pops the oldest task, waiting for one if the queue is empty.
func (m *Mirror) next() (mirrorTask, bool) {
	for {
		m.mu.Lock()
		if len(m.tasks) > 0 {
			t := m.tasks[0]
			m.tasks = m.tasks[1:]
			m.mu.Unlock()
			return t, true
		}
		closed := m.closed
		m.mu.Unlock()
		if closed {
			return mirrorTask{}, false
		}

		select {
		case <-m.wake:
		case <-m.ctx.Done():
			return mirrorTask{}, false
		}
	}
}

func (m *Mirror) finish() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.pending--
	if m.pending == 0 {
		close(m.idle)
	}
}

func (m *Mirror) execute(t mirrorTask) {
	attempts := 0
	op := func() error {
		attempts++
		ctx, cancel := context.WithTimeout(m.ctx, m.cfg.AttemptTimeout)
		defer cancel()
		err := t.run(ctx)
		if err != nil && !retryable(err) {
			return backoff.Permanent(err)
		}
		return err
	}

	policy := backoff.NewExponentialBackOff()
	policy.InitialInterval = m.cfg.InitialInterval
	policy.MaxInterval = m.cfg.MaxInterval
	policy.MaxElapsedTime = 0
	b := backoff.WithContext(backoff.WithMaxRetries(policy, uint64(m.cfg.MaxAttempts-1)), m.ctx)

	if err := backoff.Retry(op, b); err != nil {
		metrics.MirrorTasks.WithLabelValues(t.op, "error").Inc()
		m.logger.Warn("backend mirror write failed",
			"op", t.op,
			"key", t.key,
			"attempts", attempts,
			"error", err,
		)
		return
	}
	metrics.MirrorTasks.WithLabelValues(t.op, "ok").Inc()
	m.logger.Debug("backend mirror write applied", "op", t.op, "key", t.key, "attempts", attempts)
}

// retryable reports whether a failed write may succeed on retry. Client
// errors other than rate limiting are final.
func retryable(err error) bool {
	switch {
	case errors.Is(err, model.ErrAuthRequired),
		errors.Is(err, model.ErrUnauthorized),
		errors.Is(err, model.ErrForbidden),
		errors.Is(err, model.ErrNotFound),
		errors.Is(err, model.ErrInvalidRequest),
		errors.Is(err, context.Canceled):
		return false
	}
	return true
}
