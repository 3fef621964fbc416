package memory

import (
	"context"
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"

	"driverfeed/internal/domain/entities"
)

// SeedFile is the YAML fixture format used to populate the in-memory store
// for local runs and demos.
//
//	users:
//	  - id: driver-1
//	    display_name: Ayse
//	    has_custom_photo: true
//	posts:
//	  - user_id: driver-1
//	    age: 5m
//	    source_coordinates: '{"latitude":41.0,"longitude":29.0}'
//
// Post times are given as an age relative to load time so fixtures stay fresh.
type SeedFile struct {
	Users []entities.User `yaml:"users"`
	Posts []SeedPost      `yaml:"posts"`
}

type SeedPost struct {
	ID                string  `yaml:"id"`
	UserID            string  `yaml:"user_id"`
	Age               string  `yaml:"age"`
	MatchedUserID     *string `yaml:"matched_user_id"`
	SourceCoordinates *string `yaml:"source_coordinates"`
}

// Seed decodes a YAML fixture and loads it into the repositories. It returns
// the number of posts created.
func Seed(ctx context.Context, data []byte, now time.Time, users *UserRepository, posts *PostRepository) (int, error) {
	var file SeedFile
	if err := yaml.Unmarshal(data, &file); err != nil {
		return 0, fmt.Errorf("decode seed: %w", err)
	}

	for i := range file.Users {
		if err := users.Create(ctx, &file.Users[i]); err != nil {
			return 0, fmt.Errorf("seed user %s: %w", file.Users[i].ID, err)
		}
	}

	for i, sp := range file.Posts {
		age := time.Duration(0)
		if sp.Age != "" {
			d, err := time.ParseDuration(sp.Age)
			if err != nil {
				return i, fmt.Errorf("seed post %d: invalid age %q: %w", i, sp.Age, err)
			}
			age = d
		}

		post := &entities.Post{
			ID:                sp.ID,
			UserID:            sp.UserID,
			CreatedAt:         now.Add(-age),
			SourceCoordinates: sp.SourceCoordinates,
		}
		if err := posts.Create(ctx, post); err != nil {
			return i, fmt.Errorf("seed post %d: %w", i, err)
		}
		// Matching happens after a post is created, as in the live system.
		if sp.MatchedUserID != nil {
			if err := posts.Match(ctx, post.ID, *sp.MatchedUserID); err != nil {
				return i, fmt.Errorf("seed post %d: match: %w", i, err)
			}
		}
	}

	return len(file.Posts), nil
}

// SeedFromFile reads path and calls Seed.
func SeedFromFile(ctx context.Context, path string, now time.Time, users *UserRepository, posts *PostRepository) (int, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return 0, fmt.Errorf("read seed file: %w", err)
	}
	return Seed(ctx, data, now, users, posts)
}
