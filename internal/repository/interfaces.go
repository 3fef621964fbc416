package repository

import (
	"context"
	"time"

	"driverfeed/internal/domain/entities"
)

// PostStore is the read side of the external post/user store.
type PostStore interface {
	// FindRecentUnmatchedPostsWithCoordinates returns posts created strictly
	// after since, with no matched user and a non-empty location payload,
	// joined with their owner's public fields. An empty result is not an error.
	FindRecentUnmatchedPostsWithCoordinates(ctx context.Context, since time.Time) ([]entities.PostWithUser, error)
}

// SnapshotCache holds the most recent active-driver snapshot for a short TTL
// so that many polling clients do not each hit the store.
type SnapshotCache interface {
	// Get returns the cached snapshot and true on a hit.
	Get(ctx context.Context) ([]entities.DriverLocation, bool, error)
	Set(ctx context.Context, snapshot []entities.DriverLocation) error
}
