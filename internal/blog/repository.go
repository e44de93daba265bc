package blog

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
)

// Repository implements Store on the blogs table.
type Repository struct {
	db *sql.DB
}

func NewRepository(db *sql.DB) *Repository {
	return &Repository{db: db}
}

const blogColumns = `id, title, slug, content, banner_url, author_id, status, likes_count, comments_count, created_at, updated_at`

func (r *Repository) Create(ctx context.Context, b Blog) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO blogs (id, title, slug, content, banner_url, author_id, status, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $8)
	`, b.ID, b.Title, b.Slug, b.Content, b.BannerURL, b.AuthorID, b.Status, b.CreatedAt)
	if err != nil {
		return fmt.Errorf("insert blog: %w", err)
	}

	return nil
}

func (r *Repository) List(ctx context.Context, filter ListFilter) ([]Blog, error) {
	query := `SELECT ` + blogColumns + ` FROM blogs`
	args := make([]any, 0, 4)
	where := ""

	if filter.Status != "" {
		args = append(args, filter.Status)
		where = fmt.Sprintf(" WHERE status = $%d", len(args))
	}
	if filter.AuthorID != "" {
		args = append(args, filter.AuthorID)
		if where == "" {
			where = fmt.Sprintf(" WHERE author_id = $%d", len(args))
		} else {
			where += fmt.Sprintf(" AND author_id = $%d", len(args))
		}
	}

	args = append(args, filter.Limit)
	limitClause := fmt.Sprintf(" ORDER BY created_at DESC LIMIT $%d", len(args))
	args = append(args, filter.Offset)
	limitClause += fmt.Sprintf(" OFFSET $%d", len(args))

	rows, err := r.db.QueryContext(ctx, query+where+limitClause, args...)
	if err != nil {
		return nil, fmt.Errorf("query blogs: %w", err)
	}
	defer rows.Close()

	blogs := make([]Blog, 0)
	for rows.Next() {
		var b Blog
		if err := scanBlog(rows.Scan, &b); err != nil {
			return nil, fmt.Errorf("scan blog: %w", err)
		}
		blogs = append(blogs, b)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate blogs: %w", err)
	}

	return blogs, nil
}

func (r *Repository) GetBySlug(ctx context.Context, slug string) (Blog, error) {
	return r.getOne(ctx, `SELECT `+blogColumns+` FROM blogs WHERE slug = $1`, slug)
}

func (r *Repository) GetByID(ctx context.Context, id string) (Blog, error) {
	return r.getOne(ctx, `SELECT `+blogColumns+` FROM blogs WHERE id = $1`, id)
}

func (r *Repository) getOne(ctx context.Context, query, arg string) (Blog, error) {
	var b Blog
	err := scanBlog(r.db.QueryRowContext(ctx, query, arg).Scan, &b)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return Blog{}, ErrNotFound
		}
		return Blog{}, fmt.Errorf("query blog: %w", err)
	}

	return b, nil
}

func (r *Repository) Update(ctx context.Context, b Blog) error {
	res, err := r.db.ExecContext(ctx, `
		UPDATE blogs
		SET title = $2, content = $3, banner_url = $4, status = $5, updated_at = $6
		WHERE id = $1
	`, b.ID, b.Title, b.Content, b.BannerURL, b.Status, b.UpdatedAt)
	if err != nil {
		return fmt.Errorf("update blog: %w", err)
	}

	return requireAffected(res)
}

func (r *Repository) Delete(ctx context.Context, id string) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM blogs WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete blog: %w", err)
	}

	return requireAffected(res)
}

func requireAffected(res sql.Result) error {
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected: %w", err)
	}
	if affected == 0 {
		return ErrNotFound
	}

	return nil
}

func scanBlog(scan func(dest ...any) error, b *Blog) error {
	return scan(&b.ID, &b.Title, &b.Slug, &b.Content, &b.BannerURL, &b.AuthorID,
		&b.Status, &b.LikesCount, &b.CommentsCount, &b.CreatedAt, &b.UpdatedAt)
}
