package user

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgconn"
	"golang.org/x/crypto/bcrypt"
)

const uniqueViolation = "23505"

type Repository struct {
	db *sql.DB
}

func NewRepository(db *sql.DB) *Repository {
	return &Repository{db: db}
}

const profileColumns = `id, username, email, role, first_name, last_name, website, facebook, instagram, x, youtube, created_at, updated_at`

func (r *Repository) GetByID(ctx context.Context, id string) (Profile, error) {
	var p Profile
	err := scanProfile(r.db.QueryRowContext(ctx, `
		SELECT `+profileColumns+` FROM users WHERE id = $1
	`, id).Scan, &p)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return Profile{}, ErrNotFound
		}
		return Profile{}, fmt.Errorf("query user: %w", err)
	}

	return p, nil
}

func (r *Repository) List(ctx context.Context, limit, offset int) ([]Profile, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT `+profileColumns+`
		FROM users
		ORDER BY created_at DESC
		LIMIT $1 OFFSET $2
	`, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("query users: %w", err)
	}
	defer rows.Close()

	profiles := make([]Profile, 0)
	for rows.Next() {
		var p Profile
		if err := scanProfile(rows.Scan, &p); err != nil {
			return nil, fmt.Errorf("scan user: %w", err)
		}
		profiles = append(profiles, p)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate users: %w", err)
	}

	return profiles, nil
}

// Update persists profile fields. The password hash is deliberately out of
// reach here; SetPassword is the only write path that touches it.
func (r *Repository) Update(ctx context.Context, p Profile) error {
	res, err := r.db.ExecContext(ctx, `
		UPDATE users
		SET username = $2, email = $3,
		    first_name = NULLIF($4, ''), last_name = NULLIF($5, ''),
		    website = NULLIF($6, ''), facebook = NULLIF($7, ''),
		    instagram = NULLIF($8, ''), x = NULLIF($9, ''), youtube = NULLIF($10, ''),
		    updated_at = $11
		WHERE id = $1
	`, p.ID, p.Username, p.Email,
		p.FirstName, p.LastName,
		p.SocialLinks.Website, p.SocialLinks.Facebook,
		p.SocialLinks.Instagram, p.SocialLinks.X, p.SocialLinks.YouTube,
		time.Now().UTC())
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == uniqueViolation {
			switch pgErr.ConstraintName {
			case "users_email_key":
				return ErrEmailTaken
			case "users_username_key":
				return ErrUsernameTaken
			}
		}
		return fmt.Errorf("update user: %w", err)
	}

	return requireAffected(res)
}

func (r *Repository) SetPassword(ctx context.Context, id, plaintext string) error {
	hash, err := bcrypt.GenerateFromPassword([]byte(plaintext), bcrypt.DefaultCost)
	if err != nil {
		return fmt.Errorf("hash password: %w", err)
	}

	res, err := r.db.ExecContext(ctx, `
		UPDATE users SET password_hash = $2, updated_at = $3 WHERE id = $1
	`, id, string(hash), time.Now().UTC())
	if err != nil {
		return fmt.Errorf("update password: %w", err)
	}

	return requireAffected(res)
}

// Delete removes the user; blogs, comments, likes and refresh tokens go
// with it via the foreign key cascades.
func (r *Repository) Delete(ctx context.Context, id string) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM users WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete user: %w", err)
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

func scanProfile(scan func(dest ...any) error, p *Profile) error {
	var firstName, lastName, website, facebook, instagram, x, youtube sql.NullString
	if err := scan(&p.ID, &p.Username, &p.Email, &p.Role,
		&firstName, &lastName, &website, &facebook, &instagram, &x, &youtube,
		&p.CreatedAt, &p.UpdatedAt); err != nil {
		return err
	}

	p.FirstName = firstName.String
	p.LastName = lastName.String
	p.SocialLinks = SocialLinks{
		Website:   website.String,
		Facebook:  facebook.String,
		Instagram: instagram.String,
		X:         x.String,
		YouTube:   youtube.String,
	}
	return nil
}
