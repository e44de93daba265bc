package like

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgconn"
)

const uniqueViolation = "23505"

type Repository struct {
	db *sql.DB
}

func NewRepository(db *sql.DB) *Repository {
	return &Repository{db: db}
}

func (r *Repository) LikeBlog(ctx context.Context, userID, blogID string) error {
	id, err := uuid.NewV7()
	if err != nil {
		return fmt.Errorf("generate like id: %w", err)
	}

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin like tx: %w", err)
	}
	defer tx.Rollback()

	_, err = tx.ExecContext(ctx, `
		INSERT INTO likes (id, blog_id, user_id, created_at)
		VALUES ($1, $2, $3, $4)
	`, id.String(), blogID, userID, time.Now().UTC())
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == uniqueViolation {
			return ErrAlreadyLiked
		}
		return fmt.Errorf("insert like: %w", err)
	}

	_, err = tx.ExecContext(ctx, `
		UPDATE blogs SET likes_count = likes_count + 1 WHERE id = $1
	`, blogID)
	if err != nil {
		return fmt.Errorf("increment likes count: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit like tx: %w", err)
	}

	return nil
}

func (r *Repository) UnlikeBlog(ctx context.Context, userID, blogID string) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin unlike tx: %w", err)
	}
	defer tx.Rollback()

	res, err := tx.ExecContext(ctx, `
		DELETE FROM likes WHERE user_id = $1 AND blog_id = $2
	`, userID, blogID)
	if err != nil {
		return fmt.Errorf("delete like: %w", err)
	}

	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("like rows affected: %w", err)
	}
	if affected == 0 {
		return ErrNotLiked
	}

	_, err = tx.ExecContext(ctx, `
		UPDATE blogs SET likes_count = likes_count - 1 WHERE id = $1 AND likes_count > 0
	`, blogID)
	if err != nil {
		return fmt.Errorf("decrement likes count: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit unlike tx: %w", err)
	}

	return nil
}
