package auth

import (
	"context"
	"encoding/json"
	"errors"
	"net/http/cookiejar"
	"net/url"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/halolight/console/internal/client/cookie"
	"github.com/halolight/console/internal/client/storage"
)

type fakeNavigator struct {
	redirects []string
	reloads   int
}

func (n *fakeNavigator) Redirect(path string) { n.redirects = append(n.redirects, path) }
func (n *fakeNavigator) Reload()              { n.reloads++ }

// fakeDirectory delegates to MockDirectory unless a func field is set.
type fakeDirectory struct {
	MockDirectory
	AuthenticateFunc func(ctx context.Context, email, password string) (Account, error)
	ResolveFunc      func(ctx context.Context, token string) (Account, error)
	AccountsFunc     func(ctx context.Context, known []Account) ([]Account, error)
}

func (f *fakeDirectory) Authenticate(ctx context.Context, email, password string) (Account, error) {
	if f.AuthenticateFunc != nil {
		return f.AuthenticateFunc(ctx, email, password)
	}
	return f.MockDirectory.Authenticate(ctx, email, password)
}

func (f *fakeDirectory) Resolve(ctx context.Context, token string) (Account, error) {
	if f.ResolveFunc != nil {
		return f.ResolveFunc(ctx, token)
	}
	return f.MockDirectory.Resolve(ctx, token)
}

func (f *fakeDirectory) Accounts(ctx context.Context, known []Account) ([]Account, error) {
	if f.AccountsFunc != nil {
		return f.AccountsFunc(ctx, known)
	}
	return f.MockDirectory.Accounts(ctx, known)
}

type fixture struct {
	store   *Store
	backend *storage.MemoryStore
	cookies *cookie.Adapter
	nav     *fakeNavigator
	dir     *fakeDirectory
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	jar, err := cookiejar.New(nil)
	require.NoError(t, err)
	origin, _ := url.Parse("http://localhost:4321")

	f := &fixture{
		backend: storage.NewMemoryStore(),
		cookies: cookie.New(jar, origin),
		nav:     &fakeNavigator{},
		dir: &fakeDirectory{MockDirectory: MockDirectory{
			Now: func() time.Time { return time.UnixMilli(1700000000000) },
		}},
	}
	f.store = NewStore(f.backend, f.cookies, f.dir, f.nav, nil)
	return f
}

func (f *fixture) token() string {
	v, _ := f.cookies.Get(cookie.TokenName)
	return v
}

func TestLogin(t *testing.T) {
	f := newFixture(t)

	require.NoError(t, f.store.Login(context.Background(), Credentials{Email: "a@b.cn", Password: "x", Remember: true}))

	user := f.store.CurrentUser()
	require.NotNil(t, user)
	assert.Equal(t, "1", user.ID)
	assert.Equal(t, "演示用户", user.Name)
	assert.Equal(t, "a@b.cn", user.Email)
	assert.Equal(t, "https://api.dicebear.com/7.x/avataaars/svg?seed=a@b.cn", user.Avatar)
	assert.Equal(t, "mock-token-1700000000000", user.Token)
	assert.Equal(t, user.Token, f.token())
	assert.True(t, f.store.IsAuthenticated())
	assert.Equal(t, []Account{*user}, f.store.Accounts())
	assert.Equal(t, "1", f.store.Session().ActiveAccountID)
}

func TestLogin_PersistsEnvelope(t *testing.T) {
	f := newFixture(t)
	require.NoError(t, f.store.Login(context.Background(), Credentials{Email: "a@b.cn"}))

	raw, ok, _ := f.backend.Get(storage.AuthKey)
	require.True(t, ok)
	var env struct {
		State   map[string]json.RawMessage `json:"state"`
		Version int                        `json:"version"`
	}
	require.NoError(t, json.Unmarshal([]byte(raw), &env))
	assert.Equal(t, 0, env.Version)
	assert.JSONEq(t, `"mock-token-1700000000000"`, string(env.State["token"]))
	assert.JSONEq(t, `"1"`, string(env.State["activeAccountId"]))
	assert.JSONEq(t, `true`, string(env.State["isAuthenticated"]))
}

func TestLogin_DirectoryError(t *testing.T) {
	f := newFixture(t)
	boom := errors.New("boom")
	f.dir.AuthenticateFunc = func(context.Context, string, string) (Account, error) { return Account{}, boom }

	err := f.store.Login(context.Background(), Credentials{Email: "a@b.cn"})
	assert.ErrorIs(t, err, boom)
	assert.False(t, f.store.IsAuthenticated())
	assert.Empty(t, f.token())
}

func TestLogout(t *testing.T) {
	f := newFixture(t)
	require.NoError(t, f.store.Login(context.Background(), Credentials{Email: "a@b.cn"}))

	f.store.Logout(context.Background())

	assert.Nil(t, f.store.CurrentUser())
	assert.Empty(t, f.store.Accounts())
	assert.False(t, f.store.IsAuthenticated())
	assert.Empty(t, f.token())
	assert.Equal(t, []string{"/auth/login"}, f.nav.redirects)

	raw, _, _ := f.backend.Get(storage.AuthKey)
	assert.JSONEq(t,
		`{"state":{"user":null,"token":null,"accounts":[],"activeAccountId":null,"isAuthenticated":false},"version":0}`,
		raw)
}

func TestSwitchAccount(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	require.NoError(t, f.store.LoadAccounts(ctx))

	require.NoError(t, f.store.SwitchAccount(ctx, "2"))

	user := f.store.CurrentUser()
	require.NotNil(t, user)
	assert.Equal(t, "测试账号", user.Name)
	assert.Equal(t, "mock-token-2", f.token())
	assert.True(t, f.store.IsAuthenticated())
	assert.Equal(t, 1, f.nav.reloads)
}

func TestSwitchAccount_NotFound(t *testing.T) {
	f := newFixture(t)
	require.NoError(t, f.store.Login(context.Background(), Credentials{Email: "a@b.cn"}))

	err := f.store.SwitchAccount(context.Background(), "42")
	assert.ErrorIs(t, err, ErrAccountNotFound)
	assert.Equal(t, "1", f.store.CurrentUser().ID)
	assert.Zero(t, f.nav.reloads)
}

func TestLoadAccounts_Preference(t *testing.T) {
	tests := []struct {
		name       string
		stored     string
		wantActive string
		wantToken  string
	}{
		{
			name:       "no previous session",
			stored:     "",
			wantActive: "",
			wantToken:  "",
		},
		{
			name:       "matches active id",
			stored:     `{"state":{"activeAccountId":"2","token":"mock-token-1"},"version":0}`,
			wantActive: "2",
			wantToken:  "mock-token-2",
		},
		{
			name:       "matches token",
			stored:     `{"state":{"token":"mock-token-2"},"version":0}`,
			wantActive: "2",
			wantToken:  "mock-token-2",
		},
		{
			name:       "falls back to previous user",
			stored:     `{"state":{"user":{"id":"9","name":"x","email":"x@y.z","token":"t9"},"token":"t9"},"version":0}`,
			wantActive: "9",
			wantToken:  "t9",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture(t)
			if tt.stored != "" {
				require.NoError(t, f.backend.Set(storage.AuthKey, tt.stored))
			}

			require.NoError(t, f.store.LoadAccounts(context.Background()))

			sess := f.store.Session()
			assert.Equal(t, tt.wantActive, sess.ActiveAccountID)
			assert.Equal(t, tt.wantToken, sess.Token)
			assert.Equal(t, tt.wantToken, f.token())
			assert.Equal(t, tt.wantActive != "", sess.IsAuthenticated)
			assert.GreaterOrEqual(t, len(sess.Accounts), 2)
		})
	}
}

func TestCheckAuth_NoCookie(t *testing.T) {
	f := newFixture(t)
	require.NoError(t, f.backend.Set(storage.AuthKey,
		`{"state":{"user":{"id":"1","name":"x","email":"x@y.z","token":"t"},"token":"t","isAuthenticated":true},"version":0}`))

	assert.False(t, f.store.CheckAuth(context.Background()))
	assert.False(t, f.store.IsAuthenticated())
	assert.Nil(t, f.store.CurrentUser())
}

func TestCheckAuth_CachedAccount(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	require.NoError(t, f.store.LoadAccounts(ctx))
	f.cookies.Set(cookie.TokenName, "mock-token-2", 1)
	f.dir.ResolveFunc = func(context.Context, string) (Account, error) {
		t.Fatal("resolve must not be called for a cached account")
		return Account{}, nil
	}

	assert.True(t, f.store.CheckAuth(ctx))
	assert.Equal(t, "2", f.store.Session().ActiveAccountID)
	assert.Len(t, f.store.Accounts(), 2)
}

func TestCheckAuth_ResolvesUnknownToken(t *testing.T) {
	f := newFixture(t)
	f.cookies.Set(cookie.TokenName, "abc", 1)

	assert.True(t, f.store.CheckAuth(context.Background()))

	user := f.store.CurrentUser()
	require.NotNil(t, user)
	assert.Equal(t, "demo@example.com", user.Email)
	assert.Equal(t, "abc", user.Token)
	assert.True(t, f.store.IsAuthenticated())
	assert.Len(t, f.store.Accounts(), 1)
}

func TestCheckAuth_RejectedToken(t *testing.T) {
	f := newFixture(t)
	f.cookies.Set(cookie.TokenName, "abc", 1)
	f.dir.ResolveFunc = func(context.Context, string) (Account, error) { return Account{}, ErrInvalidToken }

	assert.False(t, f.store.CheckAuth(context.Background()))
	assert.False(t, f.store.IsAuthenticated())
}

func TestStore_NoCookiesNoNavigator(t *testing.T) {
	s := NewStore(storage.NewMemoryStore(), nil, MockDirectory{}, nil, nil)
	ctx := context.Background()

	require.NoError(t, s.Login(ctx, Credentials{Email: "a@b.cn"}))
	assert.True(t, s.IsAuthenticated())
	assert.False(t, s.CheckAuth(ctx))
	s.Logout(ctx)
	assert.False(t, s.IsAuthenticated())
}

func TestSession_PartialStateKeepsDefaults(t *testing.T) {
	backend := storage.NewMemoryStore()
	require.NoError(t, backend.Set(storage.AuthKey, `{"state":{"token":"t"},"version":0}`))

	sess := NewStore(backend, nil, MockDirectory{}, nil, nil).Session()
	assert.Equal(t, "t", sess.Token)
	assert.Nil(t, sess.User)
	assert.Empty(t, sess.Accounts)
	assert.False(t, sess.IsAuthenticated)
}
