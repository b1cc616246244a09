// Package tabs keeps the ordered list of open navigation tabs and the
// active one. A home tab is always present and can never be closed.
package tabs

import (
	"encoding/json"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/halolight/console/internal/client/storage"
	"github.com/halolight/console/internal/logger"
)

// HomeID is the id of the home tab.
const HomeID = "home"

// Tab is one open tab. Closable defaults to true when decoded without it.
type Tab struct {
	ID       string `json:"id"`
	Title    string `json:"title"`
	Path     string `json:"path"`
	Icon     string `json:"icon,omitempty"`
	Closable bool   `json:"closable"`
}

func (t *Tab) UnmarshalJSON(data []byte) error {
	type plain Tab
	aux := plain{Closable: true}
	if err := json.Unmarshal(data, &aux); err != nil {
		return err
	}
	*t = Tab(aux)
	return nil
}

// HomeTab returns the home tab.
func HomeTab() Tab {
	return Tab{ID: HomeID, Title: "首页", Path: "/dashboard", Closable: false}
}

// State is the persisted tab list.
type State struct {
	Tabs        []Tab
	ActiveTabID string
}

type stateJSON struct {
	Tabs        []Tab   `json:"tabs"`
	ActiveTabID *string `json:"activeTabId"`
}

func (s State) MarshalJSON() ([]byte, error) {
	aux := stateJSON{Tabs: s.Tabs}
	if s.ActiveTabID != "" {
		aux.ActiveTabID = &s.ActiveTabID
	}
	return json.Marshal(aux)
}

func (s *State) UnmarshalJSON(data []byte) error {
	var aux stateJSON
	if err := json.Unmarshal(data, &aux); err != nil {
		return err
	}
	s.Tabs = aux.Tabs
	s.ActiveTabID = ""
	if aux.ActiveTabID != nil {
		s.ActiveTabID = *aux.ActiveTabID
	}
	return nil
}

func defaultState() State {
	return State{Tabs: []Tab{HomeTab()}, ActiveTabID: HomeID}
}

// normalize applies the load fallbacks: an empty list becomes the default
// state, the home tab is kept first and non-closable, and an active id
// that names no tab falls back to home.
func (s *State) normalize() {
	if len(s.Tabs) == 0 {
		*s = defaultState()
		return
	}
	if i := s.index(HomeID); i < 0 {
		s.Tabs = append([]Tab{HomeTab()}, s.Tabs...)
	} else {
		s.Tabs[i].Closable = false
	}
	if s.index(s.ActiveTabID) < 0 {
		s.ActiveTabID = HomeID
	}
}

func (s State) index(id string) int {
	for i, t := range s.Tabs {
		if t.ID == id {
			return i
		}
	}
	return -1
}

// NewTab describes a tab to open. A nil Closable means closable.
type NewTab struct {
	Title    string
	Path     string
	Icon     string
	Closable *bool
}

// TabPatch holds the fields UpdateTab replaces. Nil fields are kept.
type TabPatch struct {
	Title    *string `json:"title,omitempty"`
	Path     *string `json:"path,omitempty"`
	Icon     *string `json:"icon,omitempty"`
	Closable *bool   `json:"closable,omitempty"`
}

// Store manages the persisted tabs.
type Store struct {
	record *storage.Record[State]
	log    *zap.Logger
	newID  func() string
}

// NewStore returns a Store persisting to store.
func NewStore(store storage.Store, log *zap.Logger) *Store {
	log = logger.OrNop(log)
	return &Store{
		record: storage.NewRecord(store, storage.TabsKey, defaultState, log),
		log:    log,
		newID:  func() string { return "tab-" + uuid.NewString() },
	}
}

func (s *Store) load() State {
	st := s.record.Load()
	st.normalize()
	return st
}

func (s *Store) update(fn func(*State)) {
	s.record.Update(func(st *State) {
		st.normalize()
		fn(st)
		st.normalize()
	})
}

// AddTab activates the tab already open at t.Path, or appends a new tab
// and activates it. It returns the id of the active tab.
func (s *Store) AddTab(t NewTab) string {
	var id string
	s.update(func(st *State) {
		for _, existing := range st.Tabs {
			if existing.Path == t.Path {
				id = existing.ID
				st.ActiveTabID = id
				return
			}
		}
		id = s.newID()
		st.Tabs = append(st.Tabs, Tab{
			ID:       id,
			Title:    t.Title,
			Path:     t.Path,
			Icon:     t.Icon,
			Closable: t.Closable == nil || *t.Closable,
		})
		st.ActiveTabID = id
	})
	return id
}

// RemoveTab closes a closable tab. When the active tab is closed the tab
// before it becomes active, or the new first tab.
func (s *Store) RemoveTab(id string) {
	s.update(func(st *State) {
		i := st.index(id)
		if i < 0 || !st.Tabs[i].Closable {
			return
		}
		st.Tabs = append(st.Tabs[:i:i], st.Tabs[i+1:]...)
		if st.ActiveTabID != id {
			return
		}
		switch {
		case i > 0:
			st.ActiveTabID = st.Tabs[i-1].ID
		case len(st.Tabs) > 0:
			st.ActiveTabID = st.Tabs[0].ID
		default:
			st.ActiveTabID = ""
		}
	})
}

// SetActiveTab activates an open tab. Unknown ids are ignored.
func (s *Store) SetActiveTab(id string) {
	if s.load().index(id) < 0 {
		return
	}
	s.update(func(st *State) {
		if st.index(id) >= 0 {
			st.ActiveTabID = id
		}
	})
}

// UpdateTab replaces the fields set in patch. The id never changes.
func (s *Store) UpdateTab(id string, patch TabPatch) {
	if s.load().index(id) < 0 {
		return
	}
	s.update(func(st *State) {
		i := st.index(id)
		if i < 0 {
			return
		}
		merged, err := storage.ShallowMerge(st.Tabs[i], patch)
		if err != nil {
			s.log.Error("failed to update tab", zap.String("id", id), zap.Error(err))
			return
		}
		merged.ID = id
		st.Tabs[i] = merged
	})
}

// ClearTabs closes every tab except home.
func (s *Store) ClearTabs() {
	s.record.Replace(defaultState())
}

// Tab returns the tab with id.
func (s *Store) Tab(id string) (Tab, bool) {
	st := s.load()
	if i := st.index(id); i >= 0 {
		return st.Tabs[i], true
	}
	return Tab{}, false
}

// TabByPath returns the tab open at path.
func (s *Store) TabByPath(path string) (Tab, bool) {
	for _, t := range s.load().Tabs {
		if t.Path == path {
			return t, true
		}
	}
	return Tab{}, false
}

// Tabs returns the open tabs in display order.
func (s *Store) Tabs() []Tab {
	return s.load().Tabs
}

// ActiveTabID returns the id of the active tab.
func (s *Store) ActiveTabID() string {
	return s.load().ActiveTabID
}
