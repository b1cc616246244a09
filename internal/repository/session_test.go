package repository

import (
	"context"
	"errors"
	"regexp"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/halolight/console/internal/models"
	"github.com/halolight/console/internal/session"
)

func setupSessionMock(t *testing.T) (*PostgresSessionRepository, sqlmock.Sqlmock, time.Time) {
	t.Helper()
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	now := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	repo := NewPostgresSessionRepository(db)
	repo.Now = func() time.Time { return now }
	return repo, mock, now
}

func TestPostgresSessionRepository_Save(t *testing.T) {
	repo, mock, now := setupSessionMock(t)
	s := models.Session{
		Token:     "t1",
		User:      models.User{ID: "1", Email: "admin@halolight.h7ml.cn", Name: "管理员", Role: "admin"},
		ExpiresAt: now.Add(time.Hour),
	}

	mock.ExpectExec("INSERT INTO auth_sessions").
		WithArgs("t1", "1", "admin@halolight.h7ml.cn", "管理员", "", "admin", s.ExpiresAt).
		WillReturnResult(sqlmock.NewResult(0, 1))

	require.NoError(t, repo.Save(context.Background(), s))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresSessionRepository_Find(t *testing.T) {
	repo, mock, now := setupSessionMock(t)
	query := regexp.QuoteMeta(`FROM auth_sessions`)

	mock.ExpectQuery(query).
		WithArgs("t1", now).
		WillReturnRows(sqlmock.NewRows([]string{"user_id", "email", "name", "avatar", "role", "expires_at"}).
			AddRow("3", "user@example.com", "普通用户", "", "user", now.Add(time.Hour)))
	mock.ExpectQuery(query).
		WithArgs("gone", now).
		WillReturnRows(sqlmock.NewRows([]string{"user_id", "email", "name", "avatar", "role", "expires_at"}))
	mock.ExpectQuery(query).
		WithArgs("err", now).
		WillReturnError(errors.New("db down"))

	s, err := repo.Find(context.Background(), "t1")
	require.NoError(t, err)
	assert.Equal(t, "t1", s.Token)
	assert.Equal(t, "3", s.User.ID)

	_, err = repo.Find(context.Background(), "gone")
	assert.ErrorIs(t, err, session.ErrNotFound)

	_, err = repo.Find(context.Background(), "err")
	assert.Error(t, err)
	assert.NotErrorIs(t, err, session.ErrNotFound)

	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresSessionRepository_Delete(t *testing.T) {
	repo, mock, _ := setupSessionMock(t)

	mock.ExpectExec(regexp.QuoteMeta(`DELETE FROM auth_sessions WHERE token = $1`)).
		WithArgs("t1").
		WillReturnResult(sqlmock.NewResult(0, 1))

	require.NoError(t, repo.Delete(context.Background(), "t1"))
	assert.NoError(t, mock.ExpectationsWereMet())
}

var _ session.Store = (*PostgresSessionRepository)(nil)
