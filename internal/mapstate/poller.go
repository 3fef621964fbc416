package mapstate

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"go.uber.org/zap"

	"driverfeed/internal/domain/entities"
)

// DefaultPollInterval bounds how stale a client's markers may get.
const DefaultPollInterval = 30 * time.Second

// SnapshotFetcher is satisfied by feedclient.Client and by
// services.PresenceFeed.
type SnapshotFetcher interface {
	FetchSnapshot(ctx context.Context) ([]entities.DriverLocation, error)
}

// Poller refreshes a MapState on a fixed interval.
//
// At most one fetch is in flight per run: a tick that fires while the previous
// fetch is still running is skipped, not queued. Stopping the poller (or
// cancelling the context passed to Start) abandons any in-flight fetch; its
// result is discarded and it does not hold up the next Start.
//
// Go Learning Note — atomic.Bool as a Single-Flight Guard:
// CompareAndSwap(false, true) succeeds for exactly one caller, so the check
// and the claim happen in one step. A mutex would work too, but a tick never
// needs to wait: it either wins the flag or gives up.
type Poller struct {
	fetcher  SnapshotFetcher
	state    *MapState
	interval time.Duration
	log      *zap.Logger
	onUpdate func(Diff)

	skipped   atomic.Int64
	completed atomic.Int64
	discarded atomic.Int64

	// mu guards the fields below and is held while a result is applied, so
	// nothing is applied once Stop has returned.
	mu     sync.Mutex
	flight *flight
	cancel context.CancelFunc
	done   chan struct{}
}

// flight is the single-flight slot of one run. Stop swaps in a fresh one so
// a fetch abandoned by the old run cannot block the next.
type flight struct {
	busy atomic.Bool
}

func NewPoller(fetcher SnapshotFetcher, state *MapState, interval time.Duration, log *zap.Logger) *Poller {
	if interval <= 0 {
		interval = DefaultPollInterval
	}
	return &Poller{
		fetcher:  fetcher,
		state:    state,
		interval: interval,
		log:      log,
		flight:   &flight{},
	}
}

// OnUpdate registers a callback run after each applied snapshot. Call it
// before Start. The callback runs with the poller's lock held and must not
// call Start or Stop.
func (p *Poller) OnUpdate(fn func(Diff)) {
	p.onUpdate = fn
}

// Start launches the polling loop. The first fetch happens immediately.
// Calling Start on a running poller is a no-op.
func (p *Poller) Start(ctx context.Context) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.cancel != nil {
		return
	}

	ctx, cancel := context.WithCancel(ctx)
	p.cancel = cancel
	p.done = make(chan struct{})

	go p.run(ctx, p.done)
}

// Stop cancels the loop and any in-flight fetch, then waits for the loop to
// exit. It does not wait for an abandoned fetch to return.
func (p *Poller) Stop() {
	p.mu.Lock()
	cancel, done := p.cancel, p.done
	p.cancel, p.done = nil, nil
	if cancel != nil {
		cancel()
		p.flight = &flight{}
	}
	p.mu.Unlock()

	if cancel == nil {
		return
	}
	<-done
}

func (p *Poller) run(ctx context.Context, done chan struct{}) {
	defer close(done)

	ticker := time.NewTicker(p.interval)
	defer ticker.Stop()

	p.Tick(ctx)
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			p.Tick(ctx)
		}
	}
}

// Tick starts one fetch unless another is outstanding in the current run or
// ctx is already done. It reports whether a fetch was started and never
// blocks on the network.
func (p *Poller) Tick(ctx context.Context) bool {
	p.mu.Lock()
	f := p.flight
	cancelled := ctx.Err() != nil
	p.mu.Unlock()

	if cancelled {
		return false
	}
	if !f.busy.CompareAndSwap(false, true) {
		p.skipped.Add(1)
		p.log.Debug("poll tick skipped, fetch in flight")
		return false
	}

	go func() {
		defer f.busy.Store(false)
		snapshot, err := p.fetcher.FetchSnapshot(ctx)
		p.deliver(ctx, f, snapshot, err)
	}()
	return true
}

func (p *Poller) deliver(ctx context.Context, f *flight, snapshot []entities.DriverLocation, err error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if ctx.Err() != nil || p.flight != f {
		p.discarded.Add(1)
		p.log.Debug("late snapshot discarded")
		return
	}
	if err != nil {
		p.log.Warn("snapshot fetch failed", zap.Error(err))
		return
	}

	diff := p.state.Apply(snapshot)
	p.completed.Add(1)
	p.log.Debug("snapshot applied",
		zap.Int("added", len(diff.Added)),
		zap.Int("updated", len(diff.Updated)),
		zap.Int("removed", len(diff.Removed)))
	if p.onUpdate != nil {
		p.onUpdate(diff)
	}
}

// Skipped is the number of ticks dropped because a fetch was in flight.
func (p *Poller) Skipped() int64 { return p.skipped.Load() }

// Completed is the number of snapshots applied.
func (p *Poller) Completed() int64 { return p.completed.Load() }

// Discarded is the number of results dropped because their run had ended.
func (p *Poller) Discarded() int64 { return p.discarded.Load() }

// InFlight reports whether the current run has a fetch outstanding.
func (p *Poller) InFlight() bool {
	p.mu.Lock()
	f := p.flight
	p.mu.Unlock()
	return f.busy.Load()
}
