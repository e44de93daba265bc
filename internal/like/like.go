package like

import (
	"context"
	"errors"
)

var (
	ErrAlreadyLiked = errors.New("blog already liked")
	ErrNotLiked     = errors.New("blog not liked")
)

// Store enforces one like per (user, blog) and keeps the blog's likes_count
// in step within the same transaction.
type Store interface {
	LikeBlog(ctx context.Context, userID, blogID string) error
	UnlikeBlog(ctx context.Context, userID, blogID string) error
}
