package tabs

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/halolight/console/internal/client/storage"
)

func newTestStore(t *testing.T) (*Store, *storage.MemoryStore) {
	t.Helper()
	backend := storage.NewMemoryStore()
	s := NewStore(backend, nil)
	n := 0
	s.newID = func() string {
		n++
		return fmt.Sprintf("tab-%d", n)
	}
	return s, backend
}

func boolPtr(b bool) *bool    { return &b }
func strPtr(s string) *string { return &s }

func TestDefaults(t *testing.T) {
	s, _ := newTestStore(t)

	assert.Equal(t, []Tab{HomeTab()}, s.Tabs())
	assert.Equal(t, HomeID, s.ActiveTabID())
}

func TestAddTab_IdempotentByPath(t *testing.T) {
	s, _ := newTestStore(t)

	first := s.AddTab(NewTab{Title: "Users", Path: "/users"})
	s.AddTab(NewTab{Title: "Roles", Path: "/roles"})
	second := s.AddTab(NewTab{Title: "Users again", Path: "/users"})

	assert.Equal(t, first, second)
	assert.Len(t, s.Tabs(), 3)
	assert.Equal(t, first, s.ActiveTabID())

	tab, ok := s.TabByPath("/users")
	require.True(t, ok)
	assert.Equal(t, "Users", tab.Title)
	assert.True(t, tab.Closable)
}

func TestAddTab_HomePath(t *testing.T) {
	s, _ := newTestStore(t)
	s.AddTab(NewTab{Title: "Users", Path: "/users"})

	assert.Equal(t, HomeID, s.AddTab(NewTab{Title: "Dash", Path: "/dashboard"}))
	assert.Len(t, s.Tabs(), 2)
}

func TestAddTab_NotClosable(t *testing.T) {
	s, _ := newTestStore(t)

	id := s.AddTab(NewTab{Title: "Pinned", Path: "/pinned", Closable: boolPtr(false)})
	s.RemoveTab(id)

	_, ok := s.Tab(id)
	assert.True(t, ok)
}

func TestRemoveTab(t *testing.T) {
	tests := []struct {
		name       string
		remove     string
		activate   string
		wantActive string
		wantLen    int
	}{
		{name: "home is not closable", remove: HomeID, activate: HomeID, wantActive: HomeID, wantLen: 4},
		{name: "unknown id", remove: "nope", activate: "tab-2", wantActive: "tab-2", wantLen: 4},
		{name: "inactive tab", remove: "tab-1", activate: "tab-3", wantActive: "tab-3", wantLen: 3},
		{name: "active tab picks previous", remove: "tab-2", activate: "tab-2", wantActive: "tab-1", wantLen: 3},
		{name: "last active tab", remove: "tab-3", activate: "tab-3", wantActive: "tab-2", wantLen: 3},
		{name: "first closable after home", remove: "tab-1", activate: "tab-1", wantActive: HomeID, wantLen: 3},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s, _ := newTestStore(t)
			s.AddTab(NewTab{Title: "A", Path: "/a"})
			s.AddTab(NewTab{Title: "B", Path: "/b"})
			s.AddTab(NewTab{Title: "C", Path: "/c"})
			s.SetActiveTab(tt.activate)

			s.RemoveTab(tt.remove)

			assert.Len(t, s.Tabs(), tt.wantLen)
			assert.Equal(t, tt.wantActive, s.ActiveTabID())
			assert.Equal(t, HomeID, s.Tabs()[0].ID)
		})
	}
}

func TestSetActiveTab_Unknown(t *testing.T) {
	s, backend := newTestStore(t)

	s.SetActiveTab("nope")

	assert.Equal(t, HomeID, s.ActiveTabID())
	_, ok, _ := backend.Get(storage.TabsKey)
	assert.False(t, ok)
}

func TestUpdateTab(t *testing.T) {
	s, _ := newTestStore(t)
	id := s.AddTab(NewTab{Title: "A", Path: "/a", Icon: "user"})

	s.UpdateTab(id, TabPatch{Title: strPtr("Renamed")})
	s.UpdateTab("nope", TabPatch{Title: strPtr("x")})

	tab, ok := s.Tab(id)
	require.True(t, ok)
	assert.Equal(t, Tab{ID: id, Title: "Renamed", Path: "/a", Icon: "user", Closable: true}, tab)
}

func TestUpdateTab_HomeStaysPinned(t *testing.T) {
	s, _ := newTestStore(t)

	s.UpdateTab(HomeID, TabPatch{Title: strPtr("Start"), Closable: boolPtr(true)})
	s.RemoveTab(HomeID)

	home, ok := s.Tab(HomeID)
	require.True(t, ok)
	assert.Equal(t, "Start", home.Title)
	assert.False(t, home.Closable)
}

func TestClearTabs(t *testing.T) {
	s, _ := newTestStore(t)
	s.AddTab(NewTab{Title: "A", Path: "/a"})

	s.ClearTabs()

	assert.Equal(t, []Tab{HomeTab()}, s.Tabs())
	assert.Equal(t, HomeID, s.ActiveTabID())
}

func TestLoad_Fallbacks(t *testing.T) {
	tests := []struct {
		name       string
		stored     string
		wantIDs    []string
		wantActive string
	}{
		{
			name:       "corrupt",
			stored:     `{"state":`,
			wantIDs:    []string{HomeID},
			wantActive: HomeID,
		},
		{
			name:       "empty list",
			stored:     `{"state":{"tabs":[],"activeTabId":"x"},"version":0}`,
			wantIDs:    []string{HomeID},
			wantActive: HomeID,
		},
		{
			name:       "missing home is restored",
			stored:     `{"state":{"tabs":[{"id":"t1","title":"A","path":"/a"}],"activeTabId":"t1"},"version":0}`,
			wantIDs:    []string{HomeID, "t1"},
			wantActive: "t1",
		},
		{
			name:       "null active",
			stored:     `{"state":{"tabs":[{"id":"home","title":"首页","path":"/dashboard","closable":false}],"activeTabId":null},"version":0}`,
			wantIDs:    []string{HomeID},
			wantActive: HomeID,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s, backend := newTestStore(t)
			require.NoError(t, backend.Set(storage.TabsKey, tt.stored))

			var ids []string
			for _, tab := range s.Tabs() {
				ids = append(ids, tab.ID)
			}
			assert.Equal(t, tt.wantIDs, ids)
			assert.Equal(t, tt.wantActive, s.ActiveTabID())
		})
	}
}

func TestTab_ClosableDefaultsTrue(t *testing.T) {
	s, backend := newTestStore(t)
	require.NoError(t, backend.Set(storage.TabsKey,
		`{"state":{"tabs":[{"id":"home","title":"首页","path":"/dashboard"},{"id":"t1","title":"A","path":"/a"}],"activeTabId":"t1"},"version":0}`))

	tab, ok := s.Tab("t1")
	require.True(t, ok)
	assert.True(t, tab.Closable)
	home, _ := s.Tab(HomeID)
	assert.False(t, home.Closable)
}

func TestPersistedShape(t *testing.T) {
	s, backend := newTestStore(t)
	s.AddTab(NewTab{Title: "A", Path: "/a"})

	raw, ok, _ := backend.Get(storage.TabsKey)
	require.True(t, ok)
	assert.JSONEq(t, `{"state":{"tabs":[
		{"id":"home","title":"首页","path":"/dashboard","closable":false},
		{"id":"tab-1","title":"A","path":"/a","closable":true}
	],"activeTabId":"tab-1"},"version":0}`, raw)
}

func TestNewStore_UUIDIDs(t *testing.T) {
	s := NewStore(storage.NewMemoryStore(), nil)
	id := s.AddTab(NewTab{Title: "A", Path: "/a"})
	assert.Regexp(t, `^tab-[0-9a-f-]{36}$`, id)
}
