// Package store defines the backend client abstraction shared by every
// route handler. Persistence, credential verification and relational
// querying are all delegated to an implementation of Store: either the
// managed supabase backend (store/supabase) or a self-hosted postgres
// database (store/pg).
package store

import (
	"context"

	"github.com/xianrendesu-max/threts/model"
)

// Store is the single dependency handlers take for auth and data access.
// Every read that may find nothing returns ErrNotFound instead of a nil
// row, so callers never dereference a missing result.
type Store interface {
	// SignUp creates an account with the given credentials and provisions
	// a profile with the given username.
	SignUp(ctx context.Context, email, password, username string) error

	// SignIn verifies the credentials and returns the account id.
	SignIn(ctx context.Context, email, password string) (string, error)

	// ProfileByID fetches one profile by account id.
	ProfileByID(ctx context.Context, id string) (*model.Profile, error)

	// FeedPosts returns all top-level posts, newest first, each augmented
	// with the author's avatar and the ids of users who liked it.
	FeedPosts(ctx context.Context) ([]model.FeedPost, error)

	// PostByID fetches one post by id.
	PostByID(ctx context.Context, id int64) (*model.Post, error)

	// CreatePost inserts a new post. The caller fills UserId, Username,
	// Content and ParentId; the store assigns Id and CreatedAt.
	CreatePost(ctx context.Context, post *model.Post) error

	// PostsByUser returns all posts authored by the given user, newest
	// first, replies included.
	PostsByUser(ctx context.Context, userID string) ([]model.Post, error)

	// ToggleLike flips the like state for the (user, post) pair and
	// reports the resulting state: true when the call liked the post,
	// false when it removed an existing like.
	ToggleLike(ctx context.Context, userID string, postID int64) (bool, error)
}
