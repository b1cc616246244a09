package pagecache

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/halolight/console/internal/client/storage"
)

func intPtr(i int) *int { return &i }

func newTestCache(t *testing.T) (*Cache, *storage.MemoryStore, *time.Time) {
	t.Helper()
	backend := storage.NewMemoryStore()
	c := New(backend, nil)
	now := time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)
	c.now = func() time.Time { return now }
	return c, backend, &now
}

func TestSetPageState_MergesAndStamps(t *testing.T) {
	c, _, now := newTestCache(t)

	c.SetPageState("/dash", Patch{ScrollY: intPtr(120)})
	st, ok := c.PageState("/dash")
	require.True(t, ok)
	assert.Equal(t, 120, st.ScrollY)
	assert.True(t, st.Timestamp.Equal(*now))

	*now = now.Add(time.Minute)
	c.SetPageState("/dash", Patch{FormData: map[string]any{"a": "x"}})

	st, _ = c.PageState("/dash")
	assert.Equal(t, 120, st.ScrollY)
	assert.Equal(t, map[string]any{"a": "x"}, st.FormData)
	assert.True(t, st.Timestamp.Equal(*now))
}

func TestSetPageState_ClampsNegativeScroll(t *testing.T) {
	c, _, _ := newTestCache(t)
	c.SetPageState("/p", Patch{ScrollY: intPtr(-5)})
	st, _ := c.PageState("/p")
	assert.Zero(t, st.ScrollY)
}

func TestClear(t *testing.T) {
	c, backend, _ := newTestCache(t)
	c.SetPageState("/a", Patch{ScrollY: intPtr(1)})
	c.SetPageState("/b", Patch{ScrollY: intPtr(2)})

	c.ClearPageState("/a")
	_, ok := c.PageState("/a")
	assert.False(t, ok)
	assert.Equal(t, []string{"/b"}, c.Keys())

	c.ClearAll()
	assert.Empty(t, c.Keys())
	assert.Zero(t, backend.Len())
}

func TestFormCache(t *testing.T) {
	c, _, _ := newTestCache(t)

	_, ok := c.FormCache("/users", "filter")
	assert.False(t, ok)

	c.SaveFormCache("/users", "filter", map[string]any{"q": "bob"})
	got, ok := c.FormCache("/users", "filter")
	require.True(t, ok)
	assert.Equal(t, map[string]any{"q": "bob"}, got)

	_, ok = c.PageState("/users:filter")
	assert.True(t, ok)

	c.ClearFormCache("/users", "filter")
	_, ok = c.FormCache("/users", "filter")
	assert.False(t, ok)
}

func TestStateCache(t *testing.T) {
	c, _, _ := newTestCache(t)
	c.SetPageState("/users", Patch{ScrollY: intPtr(40)})

	c.SaveStateCache("/users", "page", float64(3))
	c.SaveStateCache("/users", "sort", "name")

	v, ok := c.StateCache("/users", "page")
	assert.True(t, ok)
	assert.Equal(t, float64(3), v)

	c.ClearStateCache("/users", "page")
	_, ok = c.StateCache("/users", "page")
	assert.False(t, ok)
	v, _ = c.StateCache("/users", "sort")
	assert.Equal(t, "name", v)

	c.ClearStateCache("/users", "sort")
	st, _ := c.PageState("/users")
	assert.Empty(t, st.CustomState)
	assert.Equal(t, 40, st.ScrollY)

	c.ClearStateCache("/missing", "x")
	_, ok = c.PageState("/missing")
	assert.False(t, ok)
}

func TestPersistedShape(t *testing.T) {
	c, backend, _ := newTestCache(t)
	c.SetPageState("/dash", Patch{ScrollY: intPtr(7)})

	raw, ok, _ := backend.Get(storage.PageCacheKey)
	require.True(t, ok)
	assert.JSONEq(t, `{"state":{"/dash":{"scrollY":7,"timestamp":"2025-03-01T12:00:00Z"}},"version":0}`, raw)
}

func TestCorruptCacheReadsEmpty(t *testing.T) {
	c, backend, _ := newTestCache(t)
	require.NoError(t, backend.Set(storage.PageCacheKey, "not json"))

	_, ok := c.PageState("/dash")
	assert.False(t, ok)

	c.SetPageState("/dash", Patch{ScrollY: intPtr(3)})
	st, ok := c.PageState("/dash")
	assert.True(t, ok)
	assert.Equal(t, 3, st.ScrollY)
}

func TestNilStore(t *testing.T) {
	c := New(nil, nil)
	c.SetPageState("/dash", Patch{ScrollY: intPtr(3)})
	_, ok := c.PageState("/dash")
	assert.False(t, ok)
}
