// Package polling keeps a device's location and its nearby list up to date by running
// report-then-query cycles on a fixed interval.
package polling

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"time"

	"radar/internal/domain"
	"radar/internal/metrics"

	"go.uber.org/zap"
)

var (
	ErrNotPolling    = errors.New("polling: not started")
	ErrCycleInFlight = errors.New("polling: cycle already in flight")
)

// Source yields the device's current position.
type Source interface {
	Current(ctx context.Context) (domain.Fix, error)
}

// Backend is where fixes are reported and nearby users are looked up.
type Backend interface {
	ReportLocation(ctx context.Context, userID string, fix domain.Fix) error
	FindNearby(ctx context.Context, q domain.NearbyQuery) ([]domain.NearbyUser, error)
}

// Callbacks receive the results of each successful cycle. Either may be nil.
type Callbacks struct {
	OnLocation func(domain.Fix)
	OnNearby   func([]domain.NearbyUser)
}

type Options struct {
	Interval     time.Duration
	RadiusMeters float64
	Limit        int
	// CycleTimeout bounds one report-and-query cycle. Zero means Interval.
	CycleTimeout time.Duration
}

const DefaultInterval = 30 * time.Second

func (o Options) withDefaults() Options {
	if o.Interval <= 0 {
		o.Interval = DefaultInterval
	}
	if o.RadiusMeters <= 0 {
		o.RadiusMeters = domain.DefaultRadiusMeters
	}
	if o.Limit <= 0 {
		o.Limit = domain.DefaultNearbyLimit
	}
	if o.CycleTimeout <= 0 {
		o.CycleTimeout = o.Interval
	}
	return o
}

type Status struct {
	Polling bool   `json:"polling"`
	UserID  string `json:"user_id,omitempty"`
}

type ticker interface {
	C() <-chan time.Time
	Stop()
}

type realTicker struct{ t *time.Ticker }

func (r realTicker) C() <-chan time.Time { return r.t.C }
func (r realTicker) Stop()               { r.t.Stop() }

func newRealTicker(d time.Duration) ticker { return realTicker{time.NewTicker(d)} }

// run is one polling session for one user.
type run struct {
	userID  string
	cb      Callbacks
	opts    Options
	cancel  context.CancelFunc
	ticker  ticker
	stopped atomic.Bool
	busy    atomic.Bool
}

// Orchestrator drives polling for at most one user at a time.
type Orchestrator struct {
	source  Source
	backend Backend
	log     *zap.Logger

	newTicker func(time.Duration) ticker

	mu  sync.Mutex
	cur *run
}

func New(source Source, backend Backend, log *zap.Logger) *Orchestrator {
	if log == nil {
		log = zap.NewNop()
	}
	return &Orchestrator{
		source:    source,
		backend:   backend,
		log:       log.Named("polling"),
		newTicker: newRealTicker,
	}
}

// Start begins polling for userID: one cycle right away, then one per interval.
// Starting again for the same user is a no-op; starting for another user stops the
// current session first.
func (o *Orchestrator) Start(userID string, opts Options, cb Callbacks) error {
	if userID == "" {
		return domain.InvalidArgument("userId is required")
	}
	o.mu.Lock()
	defer o.mu.Unlock()
	if o.cur != nil {
		if o.cur.userID == userID {
			return nil
		}
		o.stopLocked()
	}

	opts = opts.withDefaults()
	ctx, cancel := context.WithCancel(context.Background())
	r := &run{
		userID: userID,
		cb:     cb,
		opts:   opts,
		cancel: cancel,
		ticker: o.newTicker(opts.Interval),
	}
	o.cur = r
	o.log.Info("polling started", zap.String("user_id", userID), zap.Duration("interval", opts.Interval))
	go o.loop(ctx, r)
	return nil
}

// Stop ends the current session. Calling it while idle does nothing.
func (o *Orchestrator) Stop() {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.stopLocked()
}

func (o *Orchestrator) stopLocked() {
	r := o.cur
	if r == nil {
		return
	}
	r.stopped.Store(true)
	r.ticker.Stop()
	r.cancel()
	o.cur = nil
	o.log.Info("polling stopped", zap.String("user_id", r.userID))
}

func (o *Orchestrator) Status() Status {
	o.mu.Lock()
	defer o.mu.Unlock()
	if o.cur == nil {
		return Status{}
	}
	return Status{Polling: true, UserID: o.cur.userID}
}

// UpdateNow runs a cycle immediately using fix instead of asking the source.
func (o *Orchestrator) UpdateNow(ctx context.Context, fix domain.Fix) error {
	o.mu.Lock()
	r := o.cur
	o.mu.Unlock()
	if r == nil {
		return ErrNotPolling
	}
	return o.cycle(ctx, r, &fix)
}

func (o *Orchestrator) loop(ctx context.Context, r *run) {
	o.tick(ctx, r)
	for {
		select {
		case <-ctx.Done():
			return
		case <-r.ticker.C():
			o.tick(ctx, r)
		}
	}
}

func (o *Orchestrator) tick(ctx context.Context, r *run) {
	cctx, cancel := context.WithTimeout(ctx, r.opts.CycleTimeout)
	defer cancel()
	// cycle logs its own failures
	_ = o.cycle(cctx, r, nil)
}

// cycle reports a fix and fetches the nearby list. Results are delivered only when both
// steps succeed and the session is still running.
func (o *Orchestrator) cycle(ctx context.Context, r *run, fix *domain.Fix) (err error) {
	if !r.busy.CompareAndSwap(false, true) {
		metrics.PollCycles.WithLabelValues("skipped").Inc()
		return ErrCycleInFlight
	}
	defer r.busy.Store(false)
	defer func() { metrics.PollCycles.WithLabelValues(metrics.Result(err)).Inc() }()

	var f domain.Fix
	if fix != nil {
		f = *fix
	} else if f, err = o.source.Current(ctx); err != nil {
		o.log.Warn("location unavailable", zap.String("user_id", r.userID), zap.String("stage", "source"), zap.Error(err))
		return err
	}
	if f.Timestamp.IsZero() {
		f.Timestamp = time.Now().UTC()
	}

	if err = o.backend.ReportLocation(ctx, r.userID, f); err != nil {
		o.log.Warn("report failed", zap.String("user_id", r.userID), zap.String("stage", "report"), zap.Error(err))
		return err
	}
	users, err := o.backend.FindNearby(ctx, domain.NearbyQuery{
		ViewerID:     r.userID,
		Latitude:     f.Latitude,
		Longitude:    f.Longitude,
		RadiusMeters: r.opts.RadiusMeters,
		Limit:        r.opts.Limit,
	})
	if err != nil {
		o.log.Warn("nearby query failed", zap.String("user_id", r.userID), zap.String("stage", "nearby"), zap.Error(err))
		return err
	}

	if r.stopped.Load() {
		return nil
	}
	if r.cb.OnLocation != nil {
		r.cb.OnLocation(f)
	}
	if r.cb.OnNearby != nil {
		r.cb.OnNearby(users)
	}
	return nil
}
