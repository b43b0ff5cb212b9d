package repository

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/cookiejar"
	"net/url"
	"sync"
	"time"

	"mcpadmin/dal"
	"mcpadmin/utils/logger"
)

const cookieStoreTimeout = 5 * time.Second

// storedCookie is the persisted form of a cookie set by the API origin
type storedCookie struct {
	Name     string    `json:"name"`
	Value    string    `json:"value"`
	Path     string    `json:"path,omitempty"`
	Domain   string    `json:"domain,omitempty"`
	Expires  time.Time `json:"expires,omitempty"`
	Secure   bool      `json:"secure,omitempty"`
	HttpOnly bool      `json:"http_only,omitempty"`
}

// CookieJar is an http.CookieJar that mirrors the API origin's cookies into
// durable storage so the session credential survives process restarts. Cookie
// values are carried, never interpreted.
type CookieJar struct {
	mu      sync.Mutex
	jar     *cookiejar.Jar
	origin  *url.URL
	store   dal.KeyValueStore
	cookies map[string]storedCookie
	logger  logger.Logger
}

// NewCookieJar creates a jar for apiURL and restores any persisted cookies
func NewCookieJar(apiURL string, store dal.KeyValueStore, log logger.Logger) (*CookieJar, error) {
	origin, err := url.Parse(apiURL)
	if err != nil {
		return nil, fmt.Errorf("invalid api url: %w", err)
	}
	jar, err := cookiejar.New(nil)
	if err != nil {
		return nil, err
	}

	j := &CookieJar{
		jar:     jar,
		origin:  origin,
		store:   store,
		cookies: make(map[string]storedCookie),
		logger:  log,
	}
	j.restore()
	return j, nil
}

func (j *CookieJar) restore() {
	ctx, cancel := context.WithTimeout(context.Background(), cookieStoreTimeout)
	defer cancel()

	raw, ok, err := j.store.Get(ctx, KeySessionCookies)
	if err != nil {
		j.logger.Warnf("Failed to read persisted cookies: %v", err)
		return
	}
	if !ok {
		return
	}

	var saved []storedCookie
	if err := json.Unmarshal(raw, &saved); err != nil {
		j.logger.Warnf("Ignoring corrupt persisted cookies: %v", err)
		return
	}

	now := time.Now()
	restored := make([]*http.Cookie, 0, len(saved))
	for _, c := range saved {
		if !c.Expires.IsZero() && now.After(c.Expires) {
			continue
		}
		j.cookies[c.Name] = c
		restored = append(restored, c.toHTTP())
	}
	j.jar.SetCookies(j.origin, restored)
	j.logger.Debugf("Restored %d session cookies", len(restored))
}

func (c storedCookie) toHTTP() *http.Cookie {
	return &http.Cookie{
		Name:     c.Name,
		Value:    c.Value,
		Path:     c.Path,
		Domain:   c.Domain,
		Expires:  c.Expires,
		Secure:   c.Secure,
		HttpOnly: c.HttpOnly,
	}
}

func (j *CookieJar) sameOrigin(u *url.URL) bool {
	return u.Hostname() == j.origin.Hostname()
}

// SetCookies implements http.CookieJar
func (j *CookieJar) SetCookies(u *url.URL, cookies []*http.Cookie) {
	j.current().SetCookies(u, cookies)
	if !j.sameOrigin(u) || len(cookies) == 0 {
		return
	}

	j.mu.Lock()
	now := time.Now()
	for _, c := range cookies {
		if c.MaxAge < 0 || (!c.Expires.IsZero() && now.After(c.Expires)) {
			delete(j.cookies, c.Name)
			continue
		}
		expires := c.Expires
		if c.MaxAge > 0 {
			expires = now.Add(time.Duration(c.MaxAge) * time.Second)
		}
		j.cookies[c.Name] = storedCookie{
			Name:     c.Name,
			Value:    c.Value,
			Path:     c.Path,
			Domain:   c.Domain,
			Expires:  expires,
			Secure:   c.Secure,
			HttpOnly: c.HttpOnly,
		}
	}
	snapshot := j.snapshotLocked()
	j.mu.Unlock()

	j.persist(snapshot)
}

// Cookies implements http.CookieJar
func (j *CookieJar) Cookies(u *url.URL) []*http.Cookie {
	return j.current().Cookies(u)
}

func (j *CookieJar) current() *cookiejar.Jar {
	j.mu.Lock()
	defer j.mu.Unlock()
	return j.jar
}

// HasSession reports whether any unexpired cookie is held for the API origin
func (j *CookieJar) HasSession() bool {
	return len(j.current().Cookies(j.origin)) > 0
}

// Reset drops every cookie from memory and durable storage
func (j *CookieJar) Reset() error {
	jar, err := cookiejar.New(nil)
	if err != nil {
		return err
	}

	j.mu.Lock()
	j.jar = jar
	j.cookies = make(map[string]storedCookie)
	j.mu.Unlock()

	ctx, cancel := context.WithTimeout(context.Background(), cookieStoreTimeout)
	defer cancel()
	return j.store.Delete(ctx, KeySessionCookies)
}

func (j *CookieJar) snapshotLocked() []storedCookie {
	out := make([]storedCookie, 0, len(j.cookies))
	for _, c := range j.cookies {
		out = append(out, c)
	}
	return out
}

func (j *CookieJar) persist(cookies []storedCookie) {
	ctx, cancel := context.WithTimeout(context.Background(), cookieStoreTimeout)
	defer cancel()

	if len(cookies) == 0 {
		if err := j.store.Delete(ctx, KeySessionCookies); err != nil {
			j.logger.Warnf("Failed to drop persisted cookies: %v", err)
		}
		return
	}

	raw, err := json.Marshal(cookies)
	if err != nil {
		j.logger.Warnf("Failed to encode cookies: %v", err)
		return
	}
	if err := j.store.Set(ctx, KeySessionCookies, raw); err != nil {
		j.logger.Warnf("Failed to persist cookies: %v", err)
	}
}
