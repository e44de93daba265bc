package blog

import (
	"context"
	"database/sql/driver"
	"regexp"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func blogRows(blogs ...Blog) *sqlmock.Rows {
	rows := sqlmock.NewRows([]string{
		"id", "title", "slug", "content", "banner_url", "author_id",
		"status", "likes_count", "comments_count", "created_at", "updated_at",
	})
	for _, b := range blogs {
		rows.AddRow(b.ID, b.Title, b.Slug, b.Content, b.BannerURL, b.AuthorID,
			b.Status, b.LikesCount, b.CommentsCount, b.CreatedAt, b.UpdatedAt)
	}
	return rows
}

func TestRepositoryListBuildsFilters(t *testing.T) {
	t.Parallel()

	now := time.Now().UTC()
	published := Blog{ID: "b1", Title: "T", Slug: "t-1234", Content: "c",
		BannerURL: "https://cdn/x.png", AuthorID: "a1", Status: StatusPublished,
		CreatedAt: now, UpdatedAt: now}

	tests := []struct {
		name      string
		filter    ListFilter
		wantQuery string
		args      []driver.Value
	}{
		{
			"no filter",
			ListFilter{Limit: 20, Offset: 0},
			`FROM blogs ORDER BY created_at DESC LIMIT \$1 OFFSET \$2`,
			[]driver.Value{20, 0},
		},
		{
			"status only",
			ListFilter{Status: StatusPublished, Limit: 20, Offset: 0},
			`WHERE status = \$1 ORDER BY created_at DESC LIMIT \$2 OFFSET \$3`,
			[]driver.Value{StatusPublished, 20, 0},
		},
		{
			"status and author",
			ListFilter{Status: StatusPublished, AuthorID: "a1", Limit: 10, Offset: 5},
			`WHERE status = \$1 AND author_id = \$2 ORDER BY created_at DESC LIMIT \$3 OFFSET \$4`,
			[]driver.Value{StatusPublished, "a1", 10, 5},
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			db, mock, err := sqlmock.New()
			require.NoError(t, err)
			defer db.Close()

			mock.ExpectQuery(tc.wantQuery).
				WithArgs(tc.args...).
				WillReturnRows(blogRows(published))

			repo := NewRepository(db)
			blogs, err := repo.List(context.Background(), tc.filter)
			require.NoError(t, err)
			require.Len(t, blogs, 1)
			assert.Equal(t, "b1", blogs[0].ID)
			require.NoError(t, mock.ExpectationsWereMet())
		})
	}
}

func TestRepositoryGetBySlugNotFound(t *testing.T) {
	t.Parallel()

	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	mock.ExpectQuery(regexp.QuoteMeta("FROM blogs WHERE slug = $1")).
		WithArgs("ghost").
		WillReturnRows(blogRows())

	repo := NewRepository(db)
	_, err = repo.GetBySlug(context.Background(), "ghost")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestRepositoryUpdateMissingRow(t *testing.T) {
	t.Parallel()

	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	mock.ExpectExec(regexp.QuoteMeta("UPDATE blogs")).
		WillReturnResult(sqlmock.NewResult(0, 0))

	repo := NewRepository(db)
	err = repo.Update(context.Background(), Blog{ID: "missing"})
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestRepositoryDeleteMissingRow(t *testing.T) {
	t.Parallel()

	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	mock.ExpectExec(regexp.QuoteMeta("DELETE FROM blogs")).
		WithArgs("missing").
		WillReturnResult(sqlmock.NewResult(0, 0))

	repo := NewRepository(db)
	err = repo.Delete(context.Background(), "missing")
	assert.ErrorIs(t, err, ErrNotFound)
}
