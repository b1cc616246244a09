// Package service provides authentication business logic,
// delegating persistence to a user repository and a session store.
package service

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"strconv"
	"time"
	"unicode/utf16"

	"github.com/google/uuid"

	"github.com/halolight/console/internal/models"
	"github.com/halolight/console/internal/repository"
	"github.com/halolight/console/internal/session"
)

const minPasswordLength = 6

var emailPattern = regexp.MustCompile(`^[^\s@]+@[^\s@]+\.[^\s@]+$`)

// UserRepository defines the persistence operations
// required by the authentication service.
type UserRepository interface {
	// FindByCredentials returns the user matching email and password,
	// or repository.ErrInvalidCredentials.
	FindByCredentials(ctx context.Context, email, password string) (models.User, error)
	// Create stores a new user with the given password.
	Create(ctx context.Context, user models.User, password string) (models.User, error)
}

// LoginResult is a user together with a freshly issued token.
type LoginResult struct {
	User  models.User
	Token string
}

// RegisterRequest holds the registration fields.
type RegisterRequest struct {
	FirstName string
	LastName  string
	Email     string
	Password  string
}

// Options tune the Service.
type Options struct {
	// SessionTTL is how long issued tokens are accepted.
	SessionTTL time.Duration
	// SocialLoginDelay simulates the provider round trip.
	SocialLoginDelay time.Duration
	// Providers maps provider names to the profile they report.
	Providers map[string]Profile
	// Now defaults to time.Now.
	Now func() time.Time
}

// Service implements the auth API operations.
type Service struct {
	repo     UserRepository
	sessions session.Store
	opts     Options
}

// NewAuthService constructs a new Service using the provided repository
// and session store.
func NewAuthService(repo UserRepository, sessions session.Store, opts Options) *Service {
	if opts.Now == nil {
		opts.Now = time.Now
	}
	if opts.Providers == nil {
		opts.Providers = DefaultProviders()
	}
	return &Service{repo: repo, sessions: sessions, opts: opts}
}

func (s *Service) issue(ctx context.Context, user models.User, subject string) (string, error) {
	now := s.opts.Now()
	token := fmt.Sprintf("mock_token_%s_%d_%s", subject, now.UnixMilli(), uuid.NewString()[:8])

	sess := models.Session{Token: token, User: user}
	if s.opts.SessionTTL > 0 {
		sess.ExpiresAt = now.Add(s.opts.SessionTTL)
	}
	if err := s.sessions.Save(ctx, sess); err != nil {
		return "", fmt.Errorf("save session: %w", err)
	}
	return token, nil
}

// Login checks email and password and issues a token.
func (s *Service) Login(ctx context.Context, email, password string) (LoginResult, error) {
	if email == "" || password == "" {
		return LoginResult{}, badRequest(MsgMissingCredentials)
	}

	user, err := s.repo.FindByCredentials(ctx, email, password)
	if errors.Is(err, repository.ErrInvalidCredentials) {
		return LoginResult{}, unauthorized(MsgBadCredentials)
	}
	if err != nil {
		return LoginResult{}, fmt.Errorf("find user: %w", err)
	}

	token, err := s.issue(ctx, user, user.ID)
	if err != nil {
		return LoginResult{}, err
	}
	return LoginResult{User: user, Token: token}, nil
}

// Register validates req and stores a new user named lastName+firstName.
func (s *Service) Register(ctx context.Context, req RegisterRequest) (models.User, error) {
	if req.FirstName == "" || req.LastName == "" || req.Email == "" || req.Password == "" {
		return models.User{}, badRequest(MsgMissingFields)
	}
	if !emailPattern.MatchString(req.Email) {
		return models.User{}, badRequest(MsgBadEmail)
	}
	if passwordLength(req.Password) < minPasswordLength {
		return models.User{}, badRequest(MsgShortPassword)
	}

	user := models.User{
		ID:    strconv.FormatInt(s.opts.Now().UnixMilli(), 10),
		Email: req.Email,
		Name:  req.LastName + req.FirstName,
		Role:  models.RoleUser,
	}
	user, err := s.repo.Create(ctx, user, req.Password)
	if err != nil {
		return models.User{}, fmt.Errorf("create user: %w", err)
	}
	return user, nil
}

// ForgotPassword accepts any email so that registered addresses cannot
// be enumerated.
func (s *Service) ForgotPassword(_ context.Context, email string) error {
	if email == "" {
		return badRequest(MsgMissingEmail)
	}
	return nil
}

// ResetPassword validates a reset request.
func (s *Service) ResetPassword(_ context.Context, token, password string) error {
	if token == "" || password == "" {
		return badRequest(MsgMissingReset)
	}
	if passwordLength(password) < minPasswordLength {
		return badRequest(MsgShortPassword)
	}
	return nil
}

// SocialLogin signs in with a provider profile after the configured
// delay. It returns ctx.Err() if ctx ends first.
func (s *Service) SocialLogin(ctx context.Context, provider string) (LoginResult, error) {
	if provider == "" {
		return LoginResult{}, badRequest(MsgMissingProvider)
	}
	profile, ok := s.opts.Providers[provider]
	if !ok {
		return LoginResult{}, badRequest(MsgBadProvider)
	}

	if s.opts.SocialLoginDelay > 0 {
		timer := time.NewTimer(s.opts.SocialLoginDelay)
		select {
		case <-ctx.Done():
			timer.Stop()
			return LoginResult{}, ctx.Err()
		case <-timer.C:
		}
	}

	user := models.User{
		ID:     fmt.Sprintf("%s_%d", provider, s.opts.Now().UnixMilli()),
		Name:   profile.Name,
		Email:  profile.Email,
		Avatar: profile.Avatar,
		Role:   profile.Role,
	}
	token, err := s.issue(ctx, user, provider)
	if err != nil {
		return LoginResult{}, err
	}
	return LoginResult{User: user, Token: token}, nil
}

// Me returns the user a token was issued to.
func (s *Service) Me(ctx context.Context, token string) (models.User, error) {
	if token == "" {
		return models.User{}, unauthorized(MsgNotLoggedIn)
	}
	sess, err := s.sessions.Find(ctx, token)
	if errors.Is(err, session.ErrNotFound) {
		return models.User{}, unauthorized(MsgNotLoggedIn)
	}
	if err != nil {
		return models.User{}, fmt.Errorf("find session: %w", err)
	}
	return sess.User, nil
}

// Logout revokes a token.
func (s *Service) Logout(ctx context.Context, token string) error {
	if token == "" {
		return nil
	}
	if err := s.sessions.Delete(ctx, token); err != nil {
		return fmt.Errorf("delete session: %w", err)
	}
	return nil
}

// passwordLength counts UTF-16 code units, as browsers report it.
func passwordLength(pw string) int {
	return len(utf16.Encode([]rune(pw)))
}
