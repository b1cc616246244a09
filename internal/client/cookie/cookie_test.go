package cookie

import (
	"net/http"
	"net/http/cookiejar"
	"net/url"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// recordingJar remembers the last cookies it was given.
type recordingJar struct {
	*cookiejar.Jar
	last []*http.Cookie
}

func (r *recordingJar) SetCookies(u *url.URL, cookies []*http.Cookie) {
	r.last = cookies
	r.Jar.SetCookies(u, cookies)
}

func newAdapter(t *testing.T, origin string) (*Adapter, *recordingJar) {
	t.Helper()
	jar, err := cookiejar.New(nil)
	require.NoError(t, err)
	u, err := url.Parse(origin)
	require.NoError(t, err)
	rj := &recordingJar{Jar: jar}
	return New(rj, u), rj
}

func TestAdapter_SetGet(t *testing.T) {
	a, rj := newAdapter(t, "http://localhost:8080")
	fixed := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	a.now = func() time.Time { return fixed }

	a.Set(TokenName, "abc", 7)

	require.Len(t, rj.last, 1)
	c := rj.last[0]
	assert.Equal(t, "/", c.Path)
	assert.Equal(t, http.SameSiteStrictMode, c.SameSite)
	assert.False(t, c.Secure)
	assert.Equal(t, fixed.Add(7*24*time.Hour), c.Expires)

	// the fixed clock is in the past; reads need a live cookie
	a.now = time.Now
	a.Set(TokenName, "abc", 7)
	v, ok := a.Get(TokenName)
	assert.True(t, ok)
	assert.Equal(t, "abc", v)
}

func TestAdapter_SecureOnHTTPS(t *testing.T) {
	a, rj := newAdapter(t, "https://console.example.com")

	a.Set(TokenName, "abc", 1)

	require.Len(t, rj.last, 1)
	assert.True(t, rj.last[0].Secure)
	v, ok := a.Get(TokenName)
	assert.True(t, ok)
	assert.Equal(t, "abc", v)
}

func TestAdapter_Remove(t *testing.T) {
	a, rj := newAdapter(t, "http://localhost")

	a.Set(TokenName, "abc", 1)
	a.Remove(TokenName)

	require.Len(t, rj.last, 1)
	assert.Equal(t, time.Unix(0, 0), rj.last[0].Expires)
	_, ok := a.Get(TokenName)
	assert.False(t, ok)
}

func TestAdapter_NoJar(t *testing.T) {
	var nilAdapter *Adapter
	for _, a := range []*Adapter{nilAdapter, New(nil, nil)} {
		a.Set(TokenName, "abc", 1)
		a.Remove(TokenName)
		_, ok := a.Get(TokenName)
		assert.False(t, ok)
	}
}
