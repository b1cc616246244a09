// Package cookie reads and writes the console session cookie.
package cookie

import (
	"net/http"
	"net/url"
	"time"
)

// TokenName is the name of the session token cookie.
const TokenName = "token"

// Adapter reads and writes cookies for a single origin. The zero value and
// an Adapter without a jar or origin are valid and behave as an empty jar.
type Adapter struct {
	jar    http.CookieJar
	origin *url.URL
	now    func() time.Time
}

// New returns an Adapter over jar scoped to origin.
func New(jar http.CookieJar, origin *url.URL) *Adapter {
	return &Adapter{jar: jar, origin: origin, now: time.Now}
}

func (a *Adapter) usable() bool {
	return a != nil && a.jar != nil && a.origin != nil
}

// Get returns the value of the named cookie.
func (a *Adapter) Get(name string) (string, bool) {
	if !a.usable() {
		return "", false
	}
	for _, c := range a.jar.Cookies(a.origin) {
		if c.Name == name && c.Value != "" {
			return c.Value, true
		}
	}
	return "", false
}

// Set stores a cookie that expires ttlDays from now. It is scoped to path
// "/" with a strict same-site policy and is marked secure when the origin
// is served over https.
func (a *Adapter) Set(name, value string, ttlDays int) {
	if !a.usable() {
		return
	}
	a.jar.SetCookies(a.origin, []*http.Cookie{{
		Name:     name,
		Value:    value,
		Path:     "/",
		Expires:  a.now().Add(time.Duration(ttlDays) * 24 * time.Hour),
		Secure:   a.origin.Scheme == "https",
		SameSite: http.SameSiteStrictMode,
	}})
}

// Remove expires the named cookie.
func (a *Adapter) Remove(name string) {
	if !a.usable() {
		return
	}
	a.jar.SetCookies(a.origin, []*http.Cookie{{
		Name:    name,
		Path:    "/",
		Expires: time.Unix(0, 0),
		MaxAge:  -1,
	}})
}
