// Package auth keeps the console's authentication state: the active user,
// the session token and the accounts the user can switch between. The
// token is mirrored into the session cookie.
package auth

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"

	"github.com/halolight/console/internal/client/cookie"
	"github.com/halolight/console/internal/client/storage"
	"github.com/halolight/console/internal/logger"
)

// LoginPath is where Logout sends the user.
const LoginPath = "/auth/login"

const (
	rememberDays = 7
	defaultDays  = 1
)

// ErrAccountNotFound is returned when switching to an account the session
// does not know.
var ErrAccountNotFound = errors.New("account not found")

// Navigator performs client navigation.
type Navigator interface {
	Redirect(path string)
	Reload()
}

// Credentials are the inputs of Login.
type Credentials struct {
	Email    string
	Password string
	Remember bool
}

// Store manages the persisted Session.
type Store struct {
	record  *storage.Record[Session]
	cookies *cookie.Adapter
	dir     Directory
	nav     Navigator
	log     *zap.Logger
}

// NewStore returns a Store persisting to store. cookies and nav may be nil.
func NewStore(store storage.Store, cookies *cookie.Adapter, dir Directory, nav Navigator, log *zap.Logger) *Store {
	log = logger.OrNop(log)
	return &Store{
		record:  storage.NewRecord(store, storage.AuthKey, func() Session { return Session{} }, log),
		cookies: cookies,
		dir:     dir,
		nav:     nav,
		log:     log,
	}
}

func (s *Store) save(fn func(*Session)) {
	s.record.Update(func(sess *Session) {
		fn(sess)
		sess.normalize()
	})
}

func (s *Store) setActive(sess *Session, a *Account) {
	if a == nil {
		sess.User = nil
		sess.Token = ""
		sess.ActiveAccountID = ""
		return
	}
	acct := *a
	sess.User = &acct
	sess.Token = acct.Token
	sess.ActiveAccountID = acct.ID
}

// Login authenticates credentials and makes the account the only known
// account. The cookie lives 7 days with Remember set and 1 day otherwise.
func (s *Store) Login(ctx context.Context, creds Credentials) error {
	acct, err := s.dir.Authenticate(ctx, creds.Email, creds.Password)
	if err != nil {
		return fmt.Errorf("login: %w", err)
	}

	days := defaultDays
	if creds.Remember {
		days = rememberDays
	}
	s.cookies.Set(cookie.TokenName, acct.Token, days)

	s.save(func(sess *Session) {
		sess.Accounts = []Account{acct}
		s.setActive(sess, &acct)
	})
	s.log.Info("logged in", zap.String("account", acct.ID))
	return nil
}

// Logout forgets the session and redirects to the login page.
func (s *Store) Logout(context.Context) {
	s.cookies.Remove(cookie.TokenName)
	s.save(func(sess *Session) { *sess = Session{} })
	if s.nav != nil {
		s.nav.Redirect(LoginPath)
	}
}

// SwitchAccount makes a known account active and reloads the client.
func (s *Store) SwitchAccount(_ context.Context, id string) error {
	acct, ok := findAccount(s.record.Load().Accounts, func(a Account) bool { return a.ID == id })
	if !ok {
		return fmt.Errorf("%w: %s", ErrAccountNotFound, id)
	}

	s.cookies.Set(cookie.TokenName, acct.Token, rememberDays)
	s.save(func(sess *Session) { s.setActive(sess, &acct) })
	if s.nav != nil {
		s.nav.Reload()
	}
	return nil
}

// LoadAccounts refreshes the account list. The active account is, in
// order of preference, the one matching the stored active id, the one
// matching the stored token, the previous user, or none.
func (s *Store) LoadAccounts(ctx context.Context) error {
	prev := s.record.Load()
	accounts, err := s.dir.Accounts(ctx, prev.Accounts)
	if err != nil {
		return fmt.Errorf("load accounts: %w", err)
	}

	var active *Account
	if a, ok := findAccount(accounts, func(a Account) bool {
		return prev.ActiveAccountID != "" && a.ID == prev.ActiveAccountID
	}); ok {
		active = &a
	} else if a, ok := findAccount(accounts, func(a Account) bool {
		return prev.Token != "" && a.Token == prev.Token
	}); ok {
		active = &a
	} else if prev.User != nil {
		active = prev.User
		if _, known := findAccount(accounts, func(a Account) bool { return a.ID == active.ID }); !known {
			accounts = append(accounts, *active)
		}
	}

	if active != nil {
		s.cookies.Set(cookie.TokenName, active.Token, rememberDays)
	} else {
		s.cookies.Remove(cookie.TokenName)
	}

	s.save(func(sess *Session) {
		sess.Accounts = accounts
		s.setActive(sess, active)
	})
	return nil
}

// CheckAuth reports whether the session cookie names a usable session,
// updating the stored state to match.
func (s *Store) CheckAuth(ctx context.Context) bool {
	token, ok := s.cookies.Get(cookie.TokenName)
	if !ok {
		s.save(func(sess *Session) { s.setActive(sess, nil) })
		return false
	}

	if acct, ok := findAccount(s.record.Load().Accounts, func(a Account) bool { return a.Token == token }); ok {
		s.save(func(sess *Session) { s.setActive(sess, &acct) })
		return true
	}

	acct, err := s.dir.Resolve(ctx, token)
	if err != nil {
		s.log.Warn("session token rejected", zap.Error(err))
		s.save(func(sess *Session) { s.setActive(sess, nil) })
		return false
	}
	acct.Token = token
	s.save(func(sess *Session) {
		sess.Accounts = []Account{acct}
		s.setActive(sess, &acct)
	})
	return true
}

// CurrentUser returns the active user, or nil.
func (s *Store) CurrentUser() *Account {
	return s.record.Load().User
}

// Accounts returns the known accounts.
func (s *Store) Accounts() []Account {
	return s.record.Load().Accounts
}

// IsAuthenticated reports the stored authentication flag.
func (s *Store) IsAuthenticated() bool {
	return s.record.Load().IsAuthenticated
}

// Session returns the whole stored session.
func (s *Store) Session() Session {
	return s.record.Load()
}
