// Package pagecache remembers per-page UI state across navigation: scroll
// offset, form values and named custom state. Entries live in the
// session-scoped store.
package pagecache

import (
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/halolight/console/internal/client/storage"
	"github.com/halolight/console/internal/logger"
)

// PageState is the cached state of one page or form.
type PageState struct {
	ScrollY     int            `json:"scrollY"`
	FormData    map[string]any `json:"formData"`
	CustomState map[string]any `json:"customState,omitempty"`
	Timestamp   time.Time      `json:"timestamp"`
}

// Patch is a partial PageState update. Nil and empty fields are kept; use
// SaveFormCache or ClearStateCache to empty a map.
type Patch struct {
	ScrollY     *int           `json:"scrollY,omitempty"`
	FormData    map[string]any `json:"formData,omitempty"`
	CustomState map[string]any `json:"customState,omitempty"`
}

type table = map[string]PageState

// Cache stores PageState entries by key.
type Cache struct {
	record   *storage.Record[table]
	log      *zap.Logger
	now      func() time.Time
	debounce time.Duration

	mu     sync.Mutex
	nextID uint64
	scroll map[string]registration
	forms  map[string]registration
}

type registration struct {
	id       uint64
	teardown func()
}

// New returns a Cache persisting to store.
func New(store storage.Store, log *zap.Logger) *Cache {
	log = logger.OrNop(log)
	return &Cache{
		record:   storage.NewRecord(store, storage.PageCacheKey, func() table { return table{} }, log),
		log:      log,
		now:      time.Now,
		debounce: ScrollDebounce,
		scroll:   map[string]registration{},
		forms:    map[string]registration{},
	}
}

// PageState returns the entry for key.
func (c *Cache) PageState(key string) (PageState, bool) {
	st, ok := c.record.Load()[key]
	return st, ok
}

// SetPageState merges p into the entry for key, creating it if needed,
// and stamps it with the current time. Negative offsets are stored as 0.
func (c *Cache) SetPageState(key string, p Patch) {
	c.record.Update(func(t *table) {
		if *t == nil {
			*t = table{}
		}
		merged, err := storage.ShallowMerge((*t)[key], p)
		if err != nil {
			c.log.Error("failed to merge page state", zap.String("page", key), zap.Error(err))
			return
		}
		if merged.ScrollY < 0 {
			merged.ScrollY = 0
		}
		merged.Timestamp = c.now()
		(*t)[key] = merged
	})
}

// ClearPageState removes the entry for key.
func (c *Cache) ClearPageState(key string) {
	c.record.Update(func(t *table) { delete(*t, key) })
}

// ClearAll removes every entry.
func (c *Cache) ClearAll() {
	c.record.Clear()
}

// Keys returns the cached keys.
func (c *Cache) Keys() []string {
	t := c.record.Load()
	keys := make([]string, 0, len(t))
	for k := range t {
		keys = append(keys, k)
	}
	return keys
}

// FormKey is the cache key of a form on a page.
func FormKey(path, formKey string) string {
	return path + ":" + formKey
}

// FormCache returns the cached values of a form.
func (c *Cache) FormCache(path, formKey string) (map[string]any, bool) {
	st, ok := c.PageState(FormKey(path, formKey))
	if !ok || st.FormData == nil {
		return nil, false
	}
	return st.FormData, true
}

// SaveFormCache replaces the cached values of a form. An empty map
// replaces the previous values too.
func (c *Cache) SaveFormCache(path, formKey string, data map[string]any) {
	if data == nil {
		data = map[string]any{}
	}
	key := FormKey(path, formKey)
	c.record.Update(func(t *table) {
		if *t == nil {
			*t = table{}
		}
		entry := (*t)[key]
		entry.FormData = data
		entry.Timestamp = c.now()
		(*t)[key] = entry
	})
}

// ClearFormCache removes the cached values of a form.
func (c *Cache) ClearFormCache(path, formKey string) {
	c.ClearPageState(FormKey(path, formKey))
}

// StateCache returns a named custom value of a page.
func (c *Cache) StateCache(path, stateKey string) (any, bool) {
	st, ok := c.PageState(path)
	if !ok {
		return nil, false
	}
	v, ok := st.CustomState[stateKey]
	return v, ok
}

// SaveStateCache sets a named custom value of a page, keeping the others.
func (c *Cache) SaveStateCache(path, stateKey string, value any) {
	custom := map[string]any{}
	if st, ok := c.PageState(path); ok {
		for k, v := range st.CustomState {
			custom[k] = v
		}
	}
	custom[stateKey] = value
	c.SetPageState(path, Patch{CustomState: custom})
}

// ClearStateCache removes a named custom value of a page.
func (c *Cache) ClearStateCache(path, stateKey string) {
	st, ok := c.PageState(path)
	if !ok || st.CustomState == nil {
		return
	}
	// an emptied map would be dropped from a Patch, so edit in place
	c.record.Update(func(t *table) {
		entry, ok := (*t)[path]
		if !ok {
			return
		}
		delete(entry.CustomState, stateKey)
		entry.Timestamp = c.now()
		(*t)[path] = entry
	})
}

// register records teardown under key in regs, tearing down the previous
// registration for key first. It returns a teardown that runs once and
// forgets the registration.
func (c *Cache) register(regs map[string]registration, key string, teardown func()) func() {
	c.mu.Lock()
	prev, hadPrev := regs[key]
	c.nextID++
	id := c.nextID
	c.mu.Unlock()

	if hadPrev {
		prev.teardown()
	}

	once := sync.OnceFunc(func() {
		teardown()
		c.mu.Lock()
		if cur, ok := regs[key]; ok && cur.id == id {
			delete(regs, key)
		}
		c.mu.Unlock()
	})

	c.mu.Lock()
	regs[key] = registration{id: id, teardown: once}
	c.mu.Unlock()
	return once
}
