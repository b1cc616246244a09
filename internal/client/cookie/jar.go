package cookie

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/cookiejar"
	"net/url"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/halolight/console/internal/client/storage"
	"github.com/halolight/console/internal/logger"
)

type savedCookie struct {
	Name     string        `json:"name"`
	Value    string        `json:"value"`
	Path     string        `json:"path"`
	Expires  time.Time     `json:"expires"`
	Secure   bool          `json:"secure,omitempty"`
	SameSite http.SameSite `json:"sameSite,omitempty"`
}

// PersistentJar is a cookie jar for a single origin that mirrors its
// cookies into a storage key so they survive restarts.
type PersistentJar struct {
	jar    *cookiejar.Jar
	origin *url.URL
	store  storage.Store
	log    *zap.Logger

	mu    sync.Mutex
	saved map[string]savedCookie
}

// NewPersistentJar creates a jar for origin and restores the unexpired
// cookies previously saved in store.
func NewPersistentJar(origin *url.URL, store storage.Store, log *zap.Logger) (*PersistentJar, error) {
	jar, err := cookiejar.New(nil)
	if err != nil {
		return nil, fmt.Errorf("create cookie jar: %w", err)
	}
	log = logger.OrNop(log)
	j := &PersistentJar{
		jar:    jar,
		origin: origin,
		store:  store,
		log:    log.With(zap.String("key", storage.CookieJarKey)),
		saved:  map[string]savedCookie{},
	}
	j.restore()
	return j, nil
}

func (j *PersistentJar) restore() {
	if j.store == nil {
		return
	}
	raw, ok, err := j.store.Get(storage.CookieJarKey)
	if err != nil {
		j.log.Error("failed to read cookies", zap.Error(err))
		return
	}
	if !ok {
		return
	}
	var saved []savedCookie
	if err := json.Unmarshal([]byte(raw), &saved); err != nil {
		j.log.Warn("failed to decode cookies", zap.Error(err))
		return
	}

	now := time.Now()
	var live []*http.Cookie
	for _, c := range saved {
		if !c.Expires.After(now) {
			continue
		}
		j.saved[c.Name] = c
		live = append(live, &http.Cookie{
			Name:     c.Name,
			Value:    c.Value,
			Path:     c.Path,
			Expires:  c.Expires,
			Secure:   c.Secure,
			SameSite: c.SameSite,
		})
	}
	if len(live) > 0 {
		j.jar.SetCookies(j.origin, live)
	}
}

// SetCookies implements http.CookieJar.
func (j *PersistentJar) SetCookies(u *url.URL, cookies []*http.Cookie) {
	j.jar.SetCookies(u, cookies)
	if u.Host != j.origin.Host {
		return
	}

	j.mu.Lock()
	defer j.mu.Unlock()

	now := time.Now()
	for _, c := range cookies {
		expires := c.Expires
		if c.MaxAge > 0 {
			expires = now.Add(time.Duration(c.MaxAge) * time.Second)
		}
		// session cookies are not persisted
		if c.MaxAge < 0 || expires.IsZero() || !expires.After(now) {
			delete(j.saved, c.Name)
			continue
		}
		path := c.Path
		if path == "" {
			path = "/"
		}
		j.saved[c.Name] = savedCookie{
			Name:     c.Name,
			Value:    c.Value,
			Path:     path,
			Expires:  expires,
			Secure:   c.Secure,
			SameSite: c.SameSite,
		}
	}
	j.persist()
}

// Cookies implements http.CookieJar.
func (j *PersistentJar) Cookies(u *url.URL) []*http.Cookie {
	return j.jar.Cookies(u)
}

func (j *PersistentJar) persist() {
	if j.store == nil {
		return
	}
	out := make([]savedCookie, 0, len(j.saved))
	for _, c := range j.saved {
		out = append(out, c)
	}
	data, err := json.Marshal(out)
	if err != nil {
		j.log.Error("failed to encode cookies", zap.Error(err))
		return
	}
	if err := j.store.Set(storage.CookieJarKey, string(data)); err != nil {
		j.log.Error("failed to save cookies", zap.Error(err))
	}
}
