// ABOUTME: Application context owning the pipeline cache and the mutation queue
// ABOUTME: Every write is a fresh load, a mutation and a save on one worker goroutine
package tracker

import (
	"context"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/harperreed/outreach/db"
	"github.com/harperreed/outreach/models"
)

const (
	DefaultTimeout          = 5 * time.Second
	DefaultPendingRetention = 30 * 24 * time.Hour
)

// Options configures a Tracker. Zero values take defaults.
type Options struct {
	Logger *zap.Logger

	// Clock returns the current time; defaults to time.Now.
	Clock func() time.Time

	// Timeout bounds each store call.
	Timeout time.Duration

	// Strict rejects transitions that are not edges of the stage graph.
	Strict bool

	// PendingRetention is the age after which the sweeper drops a pending record.
	PendingRetention time.Duration

	Metrics *Metrics
}

// Tracker serialises all mutations of the record store through a single
// worker and serves reads from an in-memory cache of the last good save.
type Tracker struct {
	store     db.Store
	logger    *zap.Logger
	now       func() time.Time
	timeout   time.Duration
	strict    bool
	retention time.Duration
	metrics   *Metrics

	mu    sync.RWMutex
	cache models.Snapshot

	queue     chan *mutation
	done      chan struct{}
	wg        sync.WaitGroup
	closeOnce sync.Once
}

// mutation is one queued read-modify-write. apply reports whether the
// snapshot changed and therefore needs saving.
type mutation struct {
	ctx    context.Context
	op     string
	apply  func(snap *models.Snapshot, now time.Time) (bool, error)
	result chan error
}

// New loads the initial state and starts the mutation worker.
func New(ctx context.Context, store db.Store, opts Options) (*Tracker, error) {
	t := &Tracker{
		store:     store,
		logger:    opts.Logger,
		now:       opts.Clock,
		timeout:   opts.Timeout,
		strict:    opts.Strict,
		retention: opts.PendingRetention,
		metrics:   opts.Metrics,
		cache:     models.NewSnapshot(),
		queue:     make(chan *mutation),
		done:      make(chan struct{}),
	}
	if t.logger == nil {
		t.logger = zap.NewNop()
	}
	if t.now == nil {
		t.now = time.Now
	}
	if t.timeout <= 0 {
		t.timeout = DefaultTimeout
	}
	if t.retention <= 0 {
		t.retention = DefaultPendingRetention
	}
	if t.metrics == nil {
		t.metrics = NewMetrics(nil)
	}

	if _, err := t.load(ctx); err != nil {
		return nil, err
	}

	t.wg.Add(1)
	go t.run()

	return t, nil
}

// Strict reports whether transitions are checked against the stage graph.
func (t *Tracker) Strict() bool {
	return t.strict
}

// Now is the tracker's clock.
func (t *Tracker) Now() time.Time {
	return t.now()
}

// Snapshot returns a deep copy of the cached state.
func (t *Tracker) Snapshot() models.Snapshot {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.cache.Clone()
}

// Refresh reloads the cache from the store through the queue, picking up
// writes made by other processes.
func (t *Tracker) Refresh(ctx context.Context) error {
	return t.submit(ctx, "refresh", func(*models.Snapshot, time.Time) (bool, error) {
		return false, nil
	})
}

// Close stops the worker. Queued callers receive ErrClosed.
func (t *Tracker) Close() error {
	t.closeOnce.Do(func() {
		close(t.done)
	})
	t.wg.Wait()
	return nil
}

func (t *Tracker) run() {
	defer t.wg.Done()
	for {
		select {
		case <-t.done:
			return
		case m := <-t.queue:
			m.result <- t.execute(m)
		}
	}
}

func (t *Tracker) submit(ctx context.Context, op string, apply func(*models.Snapshot, time.Time) (bool, error)) error {
	m := &mutation{
		ctx:    ctx,
		op:     op,
		apply:  apply,
		result: make(chan error, 1),
	}

	select {
	case t.queue <- m:
	case <-t.done:
		return ErrClosed
	case <-ctx.Done():
		return ctx.Err()
	}

	select {
	case err := <-m.result:
		return err
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (t *Tracker) execute(m *mutation) error {
	if err := m.ctx.Err(); err != nil {
		return err
	}

	snap, err := t.load(m.ctx)
	if err != nil {
		return err
	}

	changed, err := m.apply(&snap, t.now())
	if err != nil || !changed {
		return err
	}

	return t.save(m.ctx, m.op, snap)
}

// load reads the store and, on success, replaces the cache.
func (t *Tracker) load(ctx context.Context) (models.Snapshot, error) {
	ctx, cancel := context.WithTimeout(ctx, t.timeout)
	defer cancel()

	snap, err := t.store.Load(ctx)
	if err != nil {
		t.metrics.storageErrors.WithLabelValues("load").Inc()
		t.logger.Error("failed to load pipeline state", zap.Error(err))
		return models.Snapshot{}, fmt.Errorf("%w: %w", ErrStorageUnavailable, err)
	}
	snap.Normalize()

	t.setCache(snap)
	return snap, nil
}

func (t *Tracker) save(ctx context.Context, op string, snap models.Snapshot) error {
	ctx, cancel := context.WithTimeout(ctx, t.timeout)
	defer cancel()

	if err := t.store.Save(ctx, snap); err != nil {
		t.metrics.storageErrors.WithLabelValues("save").Inc()
		t.logger.Error("failed to save pipeline state", zap.String("operation", op), zap.Error(err))
		return fmt.Errorf("%w: %w", ErrStorageUnavailable, err)
	}

	t.setCache(snap)
	return nil
}

func (t *Tracker) setCache(snap models.Snapshot) {
	cached := snap.Clone()
	t.mu.Lock()
	t.cache = cached
	t.mu.Unlock()
	t.metrics.observeSnapshot(cached)
}
