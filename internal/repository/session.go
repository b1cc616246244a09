package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/halolight/console/internal/models"
	"github.com/halolight/console/internal/session"
)

// PostgresSessionRepository stores issued sessions in the auth_sessions
// table.
type PostgresSessionRepository struct {
	// DB is the database handle for executing queries.
	DB *sql.DB
	// Now defaults to time.Now.
	Now func() time.Time
}

// NewPostgresSessionRepository creates a session repository on db.
func NewPostgresSessionRepository(db *sql.DB) *PostgresSessionRepository {
	return &PostgresSessionRepository{DB: db, Now: time.Now}
}

// Save inserts or replaces a session.
func (r *PostgresSessionRepository) Save(ctx context.Context, s models.Session) error {
	_, err := r.DB.ExecContext(ctx, `
		INSERT INTO auth_sessions (token, user_id, email, name, avatar, role, expires_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		ON CONFLICT (token) DO UPDATE SET
			user_id = EXCLUDED.user_id,
			email = EXCLUDED.email,
			name = EXCLUDED.name,
			avatar = EXCLUDED.avatar,
			role = EXCLUDED.role,
			expires_at = EXCLUDED.expires_at
	`, s.Token, s.User.ID, s.User.Email, s.User.Name, s.User.Avatar, s.User.Role, s.ExpiresAt)
	if err != nil {
		return fmt.Errorf("Save session: %w", err)
	}
	return nil
}

// Find returns the unexpired session for token.
func (r *PostgresSessionRepository) Find(ctx context.Context, token string) (models.Session, error) {
	s := models.Session{Token: token}
	err := r.DB.QueryRowContext(ctx, `
		SELECT user_id, email, name, avatar, role, expires_at
		  FROM auth_sessions
		 WHERE token = $1 AND expires_at > $2
	`, token, r.Now()).Scan(&s.User.ID, &s.User.Email, &s.User.Name, &s.User.Avatar, &s.User.Role, &s.ExpiresAt)
	if errors.Is(err, sql.ErrNoRows) {
		return models.Session{}, session.ErrNotFound
	}
	if err != nil {
		return models.Session{}, fmt.Errorf("Find session: %w", err)
	}
	return s, nil
}

// Delete removes the session for token.
func (r *PostgresSessionRepository) Delete(ctx context.Context, token string) error {
	if _, err := r.DB.ExecContext(ctx, `DELETE FROM auth_sessions WHERE token = $1`, token); err != nil {
		return fmt.Errorf("Delete session: %w", err)
	}
	return nil
}
