package services

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"driverfeed/internal/domain/entities"
	"driverfeed/internal/locparse"
	"driverfeed/internal/repository"
)

// DefaultFreshnessWindow is the maximum age of a post for its driver to count
// as currently active.
const DefaultFreshnessWindow = 30 * time.Minute

// ActiveDriverService turns recent, unmatched posts into public driver
// location records.
//
// It holds no mutable state, so one instance serves any number of concurrent
// requests; each call works on its own now and the store's results.
type ActiveDriverService struct {
	store repository.PostStore
	log   *zap.Logger
}

func NewActiveDriverService(store repository.PostStore, log *zap.Logger) *ActiveDriverService {
	return &ActiveDriverService{
		store: store,
		log:   log,
	}
}

// ListActiveDrivers returns one DriverLocation per active post, in store order.
//
// The active predicate is re-checked on every record the store returns, so a
// store that over-fetches cannot leak matched or stale posts. Records whose
// location payload does not decode are logged and dropped. A user with two
// active posts appears twice.
//
// Go Learning Note — Error Wrapping:
// fmt.Errorf with two %w verbs (Go 1.20+) wraps both ErrInternal and the store
// error. Callers match the category with errors.Is(err, ErrInternal) while the
// original cause stays in the chain for logs.
func (s *ActiveDriverService) ListActiveDrivers(ctx context.Context, now time.Time, window time.Duration) ([]entities.DriverLocation, error) {
	if window <= 0 {
		window = DefaultFreshnessWindow
	}

	posts, err := s.store.FindRecentUnmatchedPostsWithCoordinates(ctx, now.Add(-window))
	if err != nil {
		return nil, fmt.Errorf("%w: find recent posts: %w", ErrInternal, err)
	}

	drivers := make([]entities.DriverLocation, 0, len(posts))
	for _, p := range posts {
		if !p.Post.IsActive(now, window) {
			continue
		}

		coord, err := locparse.Decode(p.Post.RawCoordinates())
		if err != nil {
			s.log.Warn("dropping post with unusable location",
				zap.String("post_id", p.Post.ID),
				zap.String("user_id", p.Post.UserID),
				zap.Error(err),
			)
			continue
		}

		drivers = append(drivers, entities.NewDriverLocation(p, coord))
	}

	return drivers, nil
}
