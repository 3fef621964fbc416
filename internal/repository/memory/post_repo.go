package memory

import (
	"context"
	"errors"
	"sort"
	"strings"
	"sync"
	"time"

	"driverfeed/internal/domain/entities"
	"driverfeed/pkg/utils"
)

var ErrPostNotFound = errors.New("post not found")

// PostRepository stores posts in memory and answers the active-driver query by
// joining each post with its owner from a UserRepository. Posts whose owner is
// unknown are skipped, matching the inner join of the SQL store.
type PostRepository struct {
	mu    sync.RWMutex
	posts map[string]*entities.Post
	users *UserRepository
}

func NewPostRepository(users *UserRepository) *PostRepository {
	return &PostRepository{
		posts: make(map[string]*entities.Post),
		users: users,
	}
}

// Create stores a copy of post, assigning a UUID when ID is empty.
func (r *PostRepository) Create(ctx context.Context, post *entities.Post) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if post.ID == "" {
		post.ID = utils.GenerateID()
	}
	stored := *post
	r.posts[post.ID] = &stored
	return nil
}

func (r *PostRepository) GetByID(ctx context.Context, id string) (*entities.Post, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	post, exists := r.posts[id]
	if !exists {
		return nil, ErrPostNotFound
	}
	copied := *post
	return &copied, nil
}

// Match records the rider a post was matched to. Matched posts drop out of
// the active-driver query.
func (r *PostRepository) Match(ctx context.Context, postID, riderID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	post, exists := r.posts[postID]
	if !exists {
		return ErrPostNotFound
	}
	post.MatchedUserID = &riderID
	return nil
}

// FindRecentUnmatchedPostsWithCoordinates is an O(n) scan over all posts;
// results are ordered newest first, like the SQL store.
func (r *PostRepository) FindRecentUnmatchedPostsWithCoordinates(ctx context.Context, since time.Time) ([]entities.PostWithUser, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	r.mu.RLock()
	defer r.mu.RUnlock()

	results := make([]entities.PostWithUser, 0)
	for _, post := range r.posts {
		if !post.CreatedAt.After(since) || post.IsMatched() || strings.TrimSpace(post.RawCoordinates()) == "" {
			continue
		}
		user, err := r.users.GetByID(ctx, post.UserID)
		if err != nil {
			continue
		}
		results = append(results, entities.PostWithUser{Post: *post, User: *user})
	}

	sort.Slice(results, func(i, j int) bool {
		return results[i].Post.CreatedAt.After(results[j].Post.CreatedAt)
	})
	return results, nil
}
