package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"

	"driverfeed/internal/domain/entities"
)

// Querier is the subset of *pgxpool.Pool the post store needs.
type Querier interface {
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
}

// PostRepository answers the active-driver query against the posts and users
// tables owned by the main application.
type PostRepository struct {
	db Querier
}

func NewPostRepository(db Querier) *PostRepository {
	return &PostRepository{db: db}
}

const recentUnmatchedPostsQuery = `
	SELECT
		p.id, p.user_id, p.created_at, p.matched_user_id, p.source_coordinates,
		u.display_name, u.has_custom_photo
	FROM posts p
	JOIN users u ON u.id = p.user_id
	WHERE p.created_at > $1
	  AND p.matched_user_id IS NULL
	  AND p.source_coordinates IS NOT NULL
	  AND btrim(p.source_coordinates) <> ''
	ORDER BY p.created_at DESC
`

func (r *PostRepository) FindRecentUnmatchedPostsWithCoordinates(ctx context.Context, since time.Time) ([]entities.PostWithUser, error) {
	rows, err := r.db.Query(ctx, recentUnmatchedPostsQuery, since)
	if err != nil {
		return nil, fmt.Errorf("query recent posts: %w", err)
	}
	defer rows.Close()

	results := make([]entities.PostWithUser, 0)
	for rows.Next() {
		var pw entities.PostWithUser
		if err := rows.Scan(
			&pw.Post.ID,
			&pw.Post.UserID,
			&pw.Post.CreatedAt,
			&pw.Post.MatchedUserID,
			&pw.Post.SourceCoordinates,
			&pw.User.DisplayName,
			&pw.User.HasCustomPhoto,
		); err != nil {
			return nil, fmt.Errorf("scan recent post: %w", err)
		}
		pw.User.ID = pw.Post.UserID
		results = append(results, pw)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate recent posts: %w", err)
	}

	return results, nil
}
