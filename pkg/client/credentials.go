package client

import (
	"maps"
	"net/http"
	"sync"
)

// Header names used by the REST API for authentication.
const (
	HeaderAuthToken = "X-Auth-Token"
	HeaderUserID    = "X-User-Id"
)

// Credentials is a set of default headers attached to every request issued
// by the sessions that share it.
//
// A login persists its token here, so every session sharing the same
// Credentials acts as the most recently logged-in user. This is the
// single-active-identity model of the REST API: logging in as a second user
// silently redirects all sharing sessions to the new identity. Sessions that
// must act as different users need their own Credentials (see
// WithCredentials).
type Credentials struct {
	mu      sync.RWMutex
	headers map[string]string
}

// DefaultCredentials is the process-wide Credentials used by every Session
// created without WithCredentials.
var DefaultCredentials = NewCredentials()

// NewCredentials returns an empty Credentials.
func NewCredentials() *Credentials {
	return &Credentials{headers: make(map[string]string)}
}

// Set stores the auth token and user id headers.
func (c *Credentials) Set(authToken, userID string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.headers[HeaderAuthToken] = authToken
	c.headers[HeaderUserID] = userID
}

// SetHeader stores an arbitrary default header.
func (c *Credentials) SetHeader(name, value string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.headers[name] = value
}

// Header returns the value of a default header, or "" if unset.
func (c *Credentials) Header(name string) string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.headers[name]
}

// Clear removes all default headers.
func (c *Credentials) Clear() {
	c.mu.Lock()
	defer c.mu.Unlock()
	clear(c.headers)
}

// Snapshot returns a copy of the default headers.
func (c *Credentials) Snapshot() map[string]string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return maps.Clone(c.headers)
}

// LoggedIn reports whether an auth token is present.
func (c *Credentials) LoggedIn() bool {
	return c.Header(HeaderAuthToken) != ""
}

func (c *Credentials) apply(h http.Header) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	for k, v := range c.headers {
		h.Set(k, v)
	}
}
