// Package repository provides persistence implementations for users and
// issued sessions.
package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"golang.org/x/crypto/bcrypt"

	"github.com/halolight/console/internal/models"
)

// ErrInvalidCredentials is returned when no user matches an email and
// password pair.
var ErrInvalidCredentials = errors.New("invalid credentials")

// ErrNotFound is returned for an unknown user id.
var ErrNotFound = errors.New("user not found")

// PostgresAuthRepository implements user lookups using a PostgreSQL database.
type PostgresAuthRepository struct {
	// DB is the database handle for executing queries.
	DB *sql.DB
	// Cost is the bcrypt cost for new password hashes.
	Cost int
}

// NewPostgresAuthRepository creates a new PostgresAuthRepository with the given database connection.
// db must be a valid *sql.DB connected to a PostgreSQL instance.
func NewPostgresAuthRepository(db *sql.DB) *PostgresAuthRepository {
	return &PostgresAuthRepository{DB: db, Cost: bcrypt.DefaultCost}
}

// FindByCredentials returns the first user, in id order, whose email and
// password match.
func (r *PostgresAuthRepository) FindByCredentials(ctx context.Context, email, password string) (models.User, error) {
	rows, err := r.DB.QueryContext(ctx,
		`SELECT id, email, name, avatar, role, password_hash FROM users WHERE email = $1 ORDER BY id`,
		email,
	)
	if err != nil {
		return models.User{}, fmt.Errorf("FindByCredentials: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var u models.User
		if err := rows.Scan(&u.ID, &u.Email, &u.Name, &u.Avatar, &u.Role, &u.PasswordHash); err != nil {
			return models.User{}, fmt.Errorf("FindByCredentials scan: %w", err)
		}
		if bcrypt.CompareHashAndPassword(u.PasswordHash, []byte(password)) == nil {
			return u, nil
		}
	}
	if err := rows.Err(); err != nil {
		return models.User{}, fmt.Errorf("FindByCredentials rows: %w", err)
	}
	return models.User{}, ErrInvalidCredentials
}

// FindByID returns the user with id.
func (r *PostgresAuthRepository) FindByID(ctx context.Context, id string) (models.User, error) {
	var u models.User
	err := r.DB.QueryRowContext(ctx,
		`SELECT id, email, name, avatar, role, password_hash FROM users WHERE id = $1`,
		id,
	).Scan(&u.ID, &u.Email, &u.Name, &u.Avatar, &u.Role, &u.PasswordHash)
	if errors.Is(err, sql.ErrNoRows) {
		return models.User{}, ErrNotFound
	}
	if err != nil {
		return models.User{}, fmt.Errorf("FindByID: %w", err)
	}
	return u, nil
}

// Create stores user with a hash of password and returns it.
func (r *PostgresAuthRepository) Create(ctx context.Context, user models.User, password string) (models.User, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), r.Cost)
	if err != nil {
		return models.User{}, fmt.Errorf("hash password: %w", err)
	}
	user.PasswordHash = hash

	_, err = r.DB.ExecContext(ctx,
		`INSERT INTO users (id, email, name, avatar, role, password_hash) VALUES ($1, $2, $3, $4, $5, $6)`,
		user.ID, user.Email, user.Name, user.Avatar, user.Role, user.PasswordHash,
	)
	if err != nil {
		return models.User{}, fmt.Errorf("Create: %w", err)
	}
	return user, nil
}

// Seed inserts users that are not present yet.
func (r *PostgresAuthRepository) Seed(ctx context.Context, users []SeedUser) error {
	for _, su := range users {
		hash, err := bcrypt.GenerateFromPassword([]byte(su.Password), r.Cost)
		if err != nil {
			return fmt.Errorf("hash password: %w", err)
		}
		_, err = r.DB.ExecContext(ctx,
			`INSERT INTO users (id, email, name, avatar, role, password_hash) VALUES ($1, $2, $3, $4, $5, $6) ON CONFLICT (id) DO NOTHING`,
			su.ID, su.Email, su.Name, su.Avatar, su.Role, hash,
		)
		if err != nil {
			return fmt.Errorf("Seed %s: %w", su.ID, err)
		}
	}
	return nil
}
