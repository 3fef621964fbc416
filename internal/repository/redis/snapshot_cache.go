package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"driverfeed/internal/domain/entities"
)

// DefaultSnapshotKey is where the shared active-driver snapshot lives.
const DefaultSnapshotKey = "driverfeed:active_drivers:snapshot"

// SnapshotCache stores the latest active-driver snapshot as JSON under a
// single key with a short TTL. Every server instance behind a load balancer
// reads the same key, so a burst of polls costs one store query per TTL.
type SnapshotCache struct {
	client redis.Cmdable
	key    string
	ttl    time.Duration
}

func NewSnapshotCache(client redis.Cmdable, key string, ttl time.Duration) *SnapshotCache {
	if key == "" {
		key = DefaultSnapshotKey
	}
	return &SnapshotCache{
		client: client,
		key:    key,
		ttl:    ttl,
	}
}

func (c *SnapshotCache) Get(ctx context.Context) ([]entities.DriverLocation, bool, error) {
	data, err := c.client.Get(ctx, c.key).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("get snapshot: %w", err)
	}

	var snapshot []entities.DriverLocation
	if err := json.Unmarshal(data, &snapshot); err != nil {
		return nil, false, fmt.Errorf("decode snapshot: %w", err)
	}
	if snapshot == nil {
		snapshot = []entities.DriverLocation{}
	}
	return snapshot, true, nil
}

func (c *SnapshotCache) Set(ctx context.Context, snapshot []entities.DriverLocation) error {
	if snapshot == nil {
		snapshot = []entities.DriverLocation{}
	}
	data, err := json.Marshal(snapshot)
	if err != nil {
		return fmt.Errorf("encode snapshot: %w", err)
	}
	if err := c.client.Set(ctx, c.key, data, c.ttl).Err(); err != nil {
		return fmt.Errorf("set snapshot: %w", err)
	}
	return nil
}

// NewClient builds a go-redis client and checks connectivity.
func NewClient(ctx context.Context, addr, password string, db int) (*redis.Client, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password,
		DB:       db,
	})

	pingCtx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()

	if err := client.Ping(pingCtx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("ping redis: %w", err)
	}
	return client, nil
}
