package services

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	"driverfeed/internal/domain/entities"
	"driverfeed/internal/repository/memory"
)

var testNow = time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)

const validPayload = `{"latitude":41.0,"longitude":29.0}`

func strPtr(s string) *string { return &s }

type MockPostStore struct {
	mock.Mock
}

func (m *MockPostStore) FindRecentUnmatchedPostsWithCoordinates(ctx context.Context, since time.Time) ([]entities.PostWithUser, error) {
	args := m.Called(ctx, since)
	posts, _ := args.Get(0).([]entities.PostWithUser)
	return posts, args.Error(1)
}

func setupMemoryStore(t *testing.T) (*memory.PostRepository, *ActiveDriverService) {
	t.Helper()
	users := memory.NewUserRepository()
	posts := memory.NewPostRepository(users)
	ctx := context.Background()
	require.NoError(t, users.Create(ctx, &entities.User{ID: "driver-1", DisplayName: "Ayse", HasCustomPhoto: true}))
	require.NoError(t, users.Create(ctx, &entities.User{ID: "driver-2", DisplayName: "Mehmet"}))
	return posts, NewActiveDriverService(posts, zap.NewNop())
}

func TestListActiveDrivers_FreshnessBoundary(t *testing.T) {
	posts, svc := setupMemoryStore(t)
	ctx := context.Background()

	require.NoError(t, posts.Create(ctx, &entities.Post{ID: "29m", UserID: "driver-1", CreatedAt: testNow.Add(-29 * time.Minute), SourceCoordinates: strPtr(validPayload)}))
	require.NoError(t, posts.Create(ctx, &entities.Post{ID: "31m", UserID: "driver-2", CreatedAt: testNow.Add(-31 * time.Minute), SourceCoordinates: strPtr(validPayload)}))

	drivers, err := svc.ListActiveDrivers(ctx, testNow, 30*time.Minute)
	require.NoError(t, err)
	require.Len(t, drivers, 1)
	assert.Equal(t, "29m", drivers[0].PostID)
}

func TestListActiveDrivers_ExcludesMatched(t *testing.T) {
	posts, svc := setupMemoryStore(t)
	ctx := context.Background()

	require.NoError(t, posts.Create(ctx, &entities.Post{ID: "matched", UserID: "driver-1", CreatedAt: testNow.Add(-time.Minute), MatchedUserID: strPtr("rider-1"), SourceCoordinates: strPtr(validPayload)}))

	drivers, err := svc.ListActiveDrivers(ctx, testNow, DefaultFreshnessWindow)
	require.NoError(t, err)
	assert.Empty(t, drivers)
}

func TestListActiveDrivers_EndToEnd(t *testing.T) {
	posts, svc := setupMemoryStore(t)
	ctx := context.Background()

	require.NoError(t, posts.Create(ctx, &entities.Post{ID: "A", UserID: "driver-1", CreatedAt: testNow.Add(-2 * time.Minute), SourceCoordinates: strPtr(validPayload)}))
	require.NoError(t, posts.Create(ctx, &entities.Post{ID: "B", UserID: "driver-2", CreatedAt: testNow.Add(-2 * time.Minute), MatchedUserID: strPtr("rider-1"), SourceCoordinates: strPtr(validPayload)}))
	require.NoError(t, posts.Create(ctx, &entities.Post{ID: "C", UserID: "driver-2", CreatedAt: testNow.Add(-2 * time.Minute), SourceCoordinates: strPtr("lat=41;lng=29")}))

	drivers, err := svc.ListActiveDrivers(ctx, testNow, DefaultFreshnessWindow)
	require.NoError(t, err)
	assert.Equal(t, []entities.DriverLocation{{
		DriverID:       "driver-1",
		DisplayName:    "Ayse",
		HasCustomPhoto: true,
		Coordinate:     entities.NewCoordinate(41.0, 29.0),
		PostID:         "A",
	}}, drivers)
}

func TestListActiveDrivers_DuplicatePostsPerUserAreKept(t *testing.T) {
	posts, svc := setupMemoryStore(t)
	ctx := context.Background()

	require.NoError(t, posts.Create(ctx, &entities.Post{ID: "p1", UserID: "driver-1", CreatedAt: testNow.Add(-3 * time.Minute), SourceCoordinates: strPtr(validPayload)}))
	require.NoError(t, posts.Create(ctx, &entities.Post{ID: "p2", UserID: "driver-1", CreatedAt: testNow.Add(-1 * time.Minute), SourceCoordinates: strPtr(`"{\"latitude\":41.1,\"longitude\":29.1}"`)}))

	drivers, err := svc.ListActiveDrivers(ctx, testNow, DefaultFreshnessWindow)
	require.NoError(t, err)
	require.Len(t, drivers, 2)
	assert.Equal(t, "driver-1", drivers[0].DriverID)
	assert.Equal(t, "driver-1", drivers[1].DriverID)
	assert.ElementsMatch(t, []string{"p1", "p2"}, []string{drivers[0].PostID, drivers[1].PostID})
}

func TestListActiveDrivers_StoreFailureIsInternal(t *testing.T) {
	store := new(MockPostStore)
	boom := errors.New("connection refused")
	store.On("FindRecentUnmatchedPostsWithCoordinates", mock.Anything, mock.Anything).Return(nil, boom)

	drivers, err := NewActiveDriverService(store, zap.NewNop()).ListActiveDrivers(context.Background(), testNow, DefaultFreshnessWindow)

	assert.Nil(t, drivers)
	assert.ErrorIs(t, err, ErrInternal)
	assert.ErrorIs(t, err, boom)
}

func TestListActiveDrivers_EmptyStore(t *testing.T) {
	store := new(MockPostStore)
	store.On("FindRecentUnmatchedPostsWithCoordinates", mock.Anything, mock.Anything).Return([]entities.PostWithUser{}, nil)

	drivers, err := NewActiveDriverService(store, zap.NewNop()).ListActiveDrivers(context.Background(), testNow, DefaultFreshnessWindow)

	require.NoError(t, err)
	assert.NotNil(t, drivers)
	assert.Empty(t, drivers)
}

func TestListActiveDrivers_DefaultWindowAndRecheck(t *testing.T) {
	store := new(MockPostStore)
	// The store over-fetches: a matched post and a stale one slip through.
	store.On("FindRecentUnmatchedPostsWithCoordinates", mock.Anything, testNow.Add(-DefaultFreshnessWindow)).Return([]entities.PostWithUser{
		{Post: entities.Post{ID: "ok", UserID: "u1", CreatedAt: testNow, SourceCoordinates: strPtr(validPayload)}, User: entities.User{ID: "u1"}},
		{Post: entities.Post{ID: "matched", UserID: "u2", CreatedAt: testNow, MatchedUserID: strPtr("r"), SourceCoordinates: strPtr(validPayload)}, User: entities.User{ID: "u2"}},
		{Post: entities.Post{ID: "stale", UserID: "u3", CreatedAt: testNow.Add(-time.Hour), SourceCoordinates: strPtr(validPayload)}, User: entities.User{ID: "u3"}},
	}, nil)

	drivers, err := NewActiveDriverService(store, zap.NewNop()).ListActiveDrivers(context.Background(), testNow, 0)

	require.NoError(t, err)
	require.Len(t, drivers, 1)
	assert.Equal(t, "ok", drivers[0].PostID)
	store.AssertExpectations(t)
}

func TestListActiveDrivers_LogsDroppedRecords(t *testing.T) {
	core, logs := observer.New(zapcore.WarnLevel)
	store := new(MockPostStore)
	store.On("FindRecentUnmatchedPostsWithCoordinates", mock.Anything, mock.Anything).Return([]entities.PostWithUser{
		{Post: entities.Post{ID: "zero-lat", UserID: "u1", CreatedAt: testNow, SourceCoordinates: strPtr(`{"latitude":0,"longitude":29.0}`)}},
	}, nil)

	drivers, err := NewActiveDriverService(store, zap.New(core)).ListActiveDrivers(context.Background(), testNow, DefaultFreshnessWindow)

	require.NoError(t, err)
	assert.Empty(t, drivers)
	entries := logs.FilterField(zap.String("post_id", "zero-lat")).All()
	require.Len(t, entries, 1)
	assert.Equal(t, zapcore.WarnLevel, entries[0].Level)
}
