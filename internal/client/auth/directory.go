package auth

import (
	"context"
	"errors"
	"fmt"
	"time"
)

// ErrInvalidToken is returned by a Directory that does not recognise a
// session token.
var ErrInvalidToken = errors.New("invalid session token")

// Directory looks up accounts and credentials.
type Directory interface {
	// Authenticate exchanges credentials for an account with a fresh token.
	Authenticate(ctx context.Context, email, password string) (Account, error)
	// Resolve returns the account that owns token.
	Resolve(ctx context.Context, token string) (Account, error)
	// Accounts returns the accounts available to switch between, given
	// the ones the console already knows.
	Accounts(ctx context.Context, known []Account) ([]Account, error)
}

func dicebearAvatar(seed string) string {
	return "https://api.dicebear.com/7.x/avataaars/svg?seed=" + seed
}

// MockDirectory accepts any credentials and any non-empty token.
type MockDirectory struct {
	// Now defaults to time.Now.
	Now func() time.Time
}

func (d MockDirectory) now() time.Time {
	if d.Now != nil {
		return d.Now()
	}
	return time.Now()
}

// Authenticate returns the demo user for email.
func (d MockDirectory) Authenticate(_ context.Context, email, _ string) (Account, error) {
	return Account{
		ID:     "1",
		Name:   "演示用户",
		Email:  email,
		Avatar: dicebearAvatar(email),
		Role:   "admin",
		Token:  fmt.Sprintf("mock-token-%d", d.now().UnixMilli()),
	}, nil
}

// Resolve returns the demo user for any non-empty token.
func (d MockDirectory) Resolve(_ context.Context, token string) (Account, error) {
	if token == "" {
		return Account{}, ErrInvalidToken
	}
	return Account{
		ID:     "1",
		Name:   "演示用户",
		Email:  "demo@example.com",
		Avatar: dicebearAvatar("demo"),
		Role:   "admin",
		Token:  token,
	}, nil
}

// Accounts returns the fixed primary and test accounts.
func (d MockDirectory) Accounts(context.Context, []Account) ([]Account, error) {
	return []Account{
		{
			ID:     "1",
			Name:   "主账号",
			Email:  "admin@halolight.h7ml.cn",
			Avatar: dicebearAvatar("admin"),
			Role:   "admin",
			Token:  "mock-token-1",
		},
		{
			ID:     "2",
			Name:   "测试账号",
			Email:  "test@example.com",
			Avatar: dicebearAvatar("test"),
			Role:   "user",
			Token:  "mock-token-2",
		},
	}, nil
}
