package blog

import (
	"context"
	"errors"
	"time"
)

const (
	StatusDraft     = "draft"
	StatusPublished = "published"
)

var ErrNotFound = errors.New("blog not found")

type Blog struct {
	ID            string    `json:"id"`
	Title         string    `json:"title"`
	Slug          string    `json:"slug"`
	Content       string    `json:"content"`
	BannerURL     string    `json:"bannerUrl"`
	AuthorID      string    `json:"authorId"`
	Status        string    `json:"status"`
	LikesCount    int       `json:"likesCount"`
	CommentsCount int       `json:"commentsCount"`
	CreatedAt     time.Time `json:"createdAt"`
	UpdatedAt     time.Time `json:"updatedAt"`
}

type Input struct {
	Title       string `json:"title"`
	Content     string `json:"content"`
	BannerImage string `json:"banner_image"`
	Status      string `json:"status"`
}

// ListFilter narrows List results. An empty Status means all statuses
// (admin view); AuthorID filters to one author's blogs.
type ListFilter struct {
	Status   string
	AuthorID string
	Limit    int
	Offset   int
}

type Store interface {
	Create(ctx context.Context, b Blog) error
	List(ctx context.Context, filter ListFilter) ([]Blog, error)
	GetBySlug(ctx context.Context, slug string) (Blog, error)
	GetByID(ctx context.Context, id string) (Blog, error)
	Update(ctx context.Context, b Blog) error
	Delete(ctx context.Context, id string) error
}
