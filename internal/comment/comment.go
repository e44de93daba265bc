package comment

import (
	"context"
	"errors"
	"time"
)

var ErrNotFound = errors.New("comment not found")

type Comment struct {
	ID        string    `json:"id"`
	BlogID    string    `json:"blogId"`
	UserID    string    `json:"userId"`
	Content   string    `json:"content"`
	CreatedAt time.Time `json:"createdAt"`
}

// Store creates and deletes comments while keeping the blog's
// comments_count in step within the same transaction.
type Store interface {
	Create(ctx context.Context, c Comment) error
	ListByBlog(ctx context.Context, blogID string) ([]Comment, error)
	GetByID(ctx context.Context, id string) (Comment, error)
	Delete(ctx context.Context, id string) error
}
