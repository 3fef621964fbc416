package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"driverfeed/internal/domain/entities"
	"driverfeed/internal/repository"
)

// DefaultSnapshotTimeout bounds a single snapshot fetch.
const DefaultSnapshotTimeout = 5 * time.Second

// DriverLister is the query the feed runs for each snapshot.
type DriverLister interface {
	ListActiveDrivers(ctx context.Context, now time.Time, window time.Duration) ([]entities.DriverLocation, error)
}

// PresenceFeedConfig tunes a PresenceFeed. Zero values fall back to defaults;
// Cache is optional.
type PresenceFeedConfig struct {
	FreshnessWindow time.Duration
	SnapshotTimeout time.Duration
	Cache           repository.SnapshotCache
	Now             func() time.Time
}

// PresenceFeed produces full, replace-all snapshots of the active-driver set
// for map clients. Every snapshot is independent: there is no diffing at this
// layer.
type PresenceFeed struct {
	lister  DriverLister
	window  time.Duration
	timeout time.Duration
	cache   repository.SnapshotCache
	now     func() time.Time
	log     *zap.Logger
}

func NewPresenceFeed(lister DriverLister, cfg PresenceFeedConfig, log *zap.Logger) *PresenceFeed {
	f := &PresenceFeed{
		lister:  lister,
		window:  cfg.FreshnessWindow,
		timeout: cfg.SnapshotTimeout,
		cache:   cfg.Cache,
		now:     cfg.Now,
		log:     log,
	}
	if f.window <= 0 {
		f.window = DefaultFreshnessWindow
	}
	if f.timeout <= 0 {
		f.timeout = DefaultSnapshotTimeout
	}
	if f.now == nil {
		f.now = time.Now
	}
	return f
}

type snapshotResult struct {
	drivers []entities.DriverLocation
	err     error
}

// FetchSnapshot returns the current active-driver set.
//
// It never blocks longer than the configured timeout: the query runs in its
// own goroutine and, if the deadline passes first, FetchSnapshot returns
// ErrUnavailable and the late result is discarded. A store failure is
// returned as ErrInternal.
//
// Go Learning Note — Buffered Result Channel:
// The result channel has capacity 1 so the query goroutine can always deliver
// and exit, even when nobody is listening any more. An unbuffered channel
// would leak that goroutine on every timeout.
func (f *PresenceFeed) FetchSnapshot(ctx context.Context) ([]entities.DriverLocation, error) {
	ctx, cancel := context.WithTimeout(ctx, f.timeout)
	defer cancel()

	if snapshot, ok := f.cachedSnapshot(ctx); ok {
		return snapshot, nil
	}

	resultChan := make(chan snapshotResult, 1)
	go func() {
		drivers, err := f.lister.ListActiveDrivers(ctx, f.now(), f.window)
		resultChan <- snapshotResult{drivers: drivers, err: err}
	}()

	select {
	case res := <-resultChan:
		if ctx.Err() != nil {
			return nil, f.unavailable(ctx)
		}
		if res.err != nil {
			if !errors.Is(res.err, ErrInternal) {
				res.err = fmt.Errorf("%w: %w", ErrInternal, res.err)
			}
			return nil, res.err
		}
		f.storeSnapshot(ctx, res.drivers)
		return res.drivers, nil
	case <-ctx.Done():
		return nil, f.unavailable(ctx)
	}
}

func (f *PresenceFeed) unavailable(ctx context.Context) error {
	f.log.Warn("snapshot fetch did not complete", zap.Duration("timeout", f.timeout), zap.Error(ctx.Err()))
	return fmt.Errorf("%w: %w", ErrUnavailable, ctx.Err())
}

func (f *PresenceFeed) cachedSnapshot(ctx context.Context) ([]entities.DriverLocation, bool) {
	if f.cache == nil {
		return nil, false
	}
	snapshot, hit, err := f.cache.Get(ctx)
	if err != nil {
		f.log.Warn("snapshot cache read failed", zap.Error(err))
		return nil, false
	}
	return snapshot, hit
}

func (f *PresenceFeed) storeSnapshot(ctx context.Context, snapshot []entities.DriverLocation) {
	if f.cache == nil {
		return
	}
	if err := f.cache.Set(ctx, snapshot); err != nil {
		f.log.Warn("snapshot cache write failed", zap.Error(err))
	}
}
