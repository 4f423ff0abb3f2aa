package syncer

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"
)

// Syncer refreshes one cached collection from the server.
type Syncer interface {
	Collection() string
	HasCachedData(ctx context.Context) (bool, error)
	LastSuccessAt(ctx context.Context) (time.Time, bool, error)
	Sync(ctx context.Context) error
}

type EventType string

const (
	EventSyncStarted EventType = "sync_started"
	EventSyncOK      EventType = "sync_ok"
	EventSyncFailed  EventType = "sync_failed"
)

type Event struct {
	Type       EventType
	Collection string
	At         time.Time
	Err        error
	// RetryIn is set on failures the view will retry by itself.
	RetryIn time.Duration
	// Halted is set when the failure stopped background refreshes of the
	// view until the next manual refresh.
	Halted bool
}

type Config struct {
	// StaleTTL is how old cached data may be before entering a view
	// triggers a sync.
	StaleTTL     time.Duration
	PollInterval time.Duration
	Backoff      []time.Duration
	// Halt reports errors that retrying cannot fix, such as a rejected
	// token. Nil never halts.
	Halt   func(error) bool
	Logger *zap.Logger
}

// Engine keeps the collection of the visible view fresh. Only one view is
// active at a time.
type Engine struct {
	cfg     Config
	syncer  map[string]Syncer
	onEvent func(Event)
	logger  *zap.Logger

	mu     sync.Mutex
	active *activeRun
}

type activeRun struct {
	collection string
	cancel     context.CancelFunc
	manual     chan struct{}
	done       chan struct{}
}

func New(cfg Config, syncers []Syncer, onEvent func(Event)) (*Engine, error) {
	if cfg.StaleTTL <= 0 {
		cfg.StaleTTL = 30 * time.Second
	}
	if cfg.PollInterval <= 0 {
		cfg.PollInterval = 2 * time.Minute
	}
	if len(cfg.Backoff) == 0 {
		cfg.Backoff = []time.Duration{2 * time.Second, 5 * time.Second, 15 * time.Second, 60 * time.Second}
	}
	logger := cfg.Logger
	if logger == nil {
		logger = zap.NewNop()
	}

	registry := make(map[string]Syncer, len(syncers))
	for _, s := range syncers {
		if s == nil {
			continue
		}
		collection := s.Collection()
		if collection == "" {
			return nil, errors.New("syncer has empty collection")
		}
		if _, exists := registry[collection]; exists {
			return nil, fmt.Errorf("duplicate syncer for collection %q", collection)
		}
		registry[collection] = s
	}
	if len(registry) == 0 {
		return nil, errors.New("at least one syncer is required")
	}

	return &Engine{cfg: cfg, syncer: registry, onEvent: onEvent, logger: logger}, nil
}

// EnterView starts keeping collection fresh, replacing any other active
// view.
func (e *Engine) EnterView(ctx context.Context, collection string) error {
	e.mu.Lock()
	s, ok := e.syncer[collection]
	if !ok {
		e.mu.Unlock()
		return fmt.Errorf("no syncer for collection %q", collection)
	}

	previous := e.active
	runCtx, cancel := context.WithCancel(ctx)
	state := &activeRun{
		collection: collection,
		cancel:     cancel,
		manual:     make(chan struct{}, 1),
		done:       make(chan struct{}),
	}
	e.active = state
	e.mu.Unlock()

	if previous != nil {
		previous.cancel()
		<-previous.done
	}

	go e.runLoop(runCtx, state, s)
	return nil
}

func (e *Engine) LeaveView() {
	e.mu.Lock()
	state := e.active
	e.active = nil
	e.mu.Unlock()

	if state != nil {
		state.cancel()
		<-state.done
	}
}

// ManualRefresh asks the active view to sync now.
func (e *Engine) ManualRefresh(collection string) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.active == nil {
		return errors.New("no active view")
	}
	if e.active.collection != collection {
		return fmt.Errorf("active view is %q, not %q", e.active.collection, collection)
	}

	select {
	case e.active.manual <- struct{}{}:
	default:
	}
	return nil
}

// SyncNow runs one sync of collection on the caller's goroutine, outside
// any view.
func (e *Engine) SyncNow(ctx context.Context, collection string) error {
	s, ok := e.syncer[collection]
	if !ok {
		return fmt.Errorf("no syncer for collection %q", collection)
	}
	return e.attemptSync(ctx, s, nil)
}

func (e *Engine) ActiveCollection() string {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.active == nil {
		return ""
	}
	return e.active.collection
}

// retryState tracks the pending backoff timer of one view.
type retryState struct {
	backoff []time.Duration
	timer   *time.Timer
	c       <-chan time.Time
	index   int
}

func (r *retryState) stop() {
	if r.timer != nil {
		r.timer.Stop()
	}
	r.timer = nil
	r.c = nil
}

func (r *retryState) reset() {
	r.stop()
	r.index = 0
}

func (r *retryState) pending() bool {
	return r.c != nil
}

// after records the result of an attempt: a failure schedules the next
// retry, a success resets the backoff.
func (r *retryState) after(err error) time.Duration {
	r.stop()
	if err == nil {
		r.index = 0
		return 0
	}
	delay := r.backoff[r.index]
	r.timer = time.NewTimer(delay)
	r.c = r.timer.C
	if r.index < len(r.backoff)-1 {
		r.index++
	}
	return delay
}

func (e *Engine) runLoop(ctx context.Context, state *activeRun, s Syncer) {
	defer close(state.done)

	ticker := time.NewTicker(e.cfg.PollInterval)
	defer ticker.Stop()

	retry := &retryState{backoff: e.cfg.Backoff}
	defer retry.stop()

	// halted pauses polling and retries; a manual refresh still runs.
	halted := false
	plan := func(err error) (time.Duration, bool) {
		if err != nil && ctx.Err() == nil && e.cfg.Halt != nil && e.cfg.Halt(err) {
			retry.reset()
			halted = true
			return 0, true
		}
		halted = false
		return retry.after(err), false
	}
	attempt := func() {
		_ = e.attemptSync(ctx, s, plan)
	}

	shouldSyncNow, err := e.shouldSyncOnEnter(ctx, s)
	if err != nil {
		e.emit(Event{Type: EventSyncFailed, Collection: s.Collection(), At: time.Now().UTC(), Err: err})
	}
	if shouldSyncNow {
		attempt()
	}

	for {
		select {
		case <-ctx.Done():
			return
		case <-state.manual:
			attempt()
		case <-ticker.C:
			if halted || retry.pending() {
				continue
			}
			attempt()
		case <-retry.c:
			attempt()
		}
	}
}

func (e *Engine) shouldSyncOnEnter(ctx context.Context, s Syncer) (bool, error) {
	hasData, err := s.HasCachedData(ctx)
	if err != nil {
		return false, err
	}
	if !hasData {
		return true, nil
	}

	lastSuccess, ok, err := s.LastSuccessAt(ctx)
	if err != nil {
		return false, err
	}
	if !ok {
		return true, nil
	}
	return time.Since(lastSuccess) > e.cfg.StaleTTL, nil
}

// attemptSync runs one sync and reports it. plan, when set, decides what
// the view does next and its answer is carried on the failure event.
func (e *Engine) attemptSync(ctx context.Context, s Syncer, plan func(error) (retryIn time.Duration, halted bool)) error {
	collection := s.Collection()
	e.emit(Event{Type: EventSyncStarted, Collection: collection, At: time.Now().UTC()})
	started := time.Now()
	err := s.Sync(ctx)

	var evt Event
	if plan != nil {
		evt.RetryIn, evt.Halted = plan(err)
	}
	if err == nil {
		e.logger.Info("sync completed",
			zap.String("op", "sync"),
			zap.String("collection", collection),
			zap.Duration("duration", time.Since(started)),
		)
		e.emit(Event{Type: EventSyncOK, Collection: collection, At: time.Now().UTC()})
		return nil
	}

	if ctx.Err() == nil {
		e.logger.Warn("sync failed",
			zap.String("op", "sync"),
			zap.String("collection", collection),
			zap.Duration("retry_in", evt.RetryIn),
			zap.Bool("halted", evt.Halted),
			zap.Error(err),
		)
	}
	evt.Type = EventSyncFailed
	evt.Collection = collection
	evt.At = time.Now().UTC()
	evt.Err = err
	e.emit(evt)
	return err
}

func (e *Engine) emit(evt Event) {
	if e.onEvent == nil {
		return
	}
	e.onEvent(evt)
}
