package comment

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
)

type Repository struct {
	db *sql.DB
}

func NewRepository(db *sql.DB) *Repository {
	return &Repository{db: db}
}

func (r *Repository) Create(ctx context.Context, c Comment) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin comment tx: %w", err)
	}
	defer tx.Rollback()

	_, err = tx.ExecContext(ctx, `
		INSERT INTO comments (id, blog_id, user_id, content, created_at)
		VALUES ($1, $2, $3, $4, $5)
	`, c.ID, c.BlogID, c.UserID, c.Content, c.CreatedAt)
	if err != nil {
		return fmt.Errorf("insert comment: %w", err)
	}

	_, err = tx.ExecContext(ctx, `
		UPDATE blogs SET comments_count = comments_count + 1 WHERE id = $1
	`, c.BlogID)
	if err != nil {
		return fmt.Errorf("increment comments count: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit comment tx: %w", err)
	}

	return nil
}

func (r *Repository) ListByBlog(ctx context.Context, blogID string) ([]Comment, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT id, blog_id, user_id, content, created_at
		FROM comments
		WHERE blog_id = $1
		ORDER BY created_at DESC
	`, blogID)
	if err != nil {
		return nil, fmt.Errorf("query comments: %w", err)
	}
	defer rows.Close()

	comments := make([]Comment, 0)
	for rows.Next() {
		var c Comment
		if err := rows.Scan(&c.ID, &c.BlogID, &c.UserID, &c.Content, &c.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan comment: %w", err)
		}
		comments = append(comments, c)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate comments: %w", err)
	}

	return comments, nil
}

func (r *Repository) GetByID(ctx context.Context, id string) (Comment, error) {
	var c Comment
	err := r.db.QueryRowContext(ctx, `
		SELECT id, blog_id, user_id, content, created_at
		FROM comments
		WHERE id = $1
	`, id).Scan(&c.ID, &c.BlogID, &c.UserID, &c.Content, &c.CreatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return Comment{}, ErrNotFound
		}
		return Comment{}, fmt.Errorf("query comment: %w", err)
	}

	return c, nil
}

func (r *Repository) Delete(ctx context.Context, id string) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin delete comment tx: %w", err)
	}
	defer tx.Rollback()

	var blogID string
	err = tx.QueryRowContext(ctx, `DELETE FROM comments WHERE id = $1 RETURNING blog_id`, id).Scan(&blogID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return ErrNotFound
		}
		return fmt.Errorf("delete comment: %w", err)
	}

	_, err = tx.ExecContext(ctx, `
		UPDATE blogs SET comments_count = comments_count - 1 WHERE id = $1 AND comments_count > 0
	`, blogID)
	if err != nil {
		return fmt.Errorf("decrement comments count: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit delete comment tx: %w", err)
	}

	return nil
}
