package widgetserver

import (
	"net/http"
	"sync"
	"time"

	"github.com/mcosta74/opstack/example/widgets"
)

const defaultTokenTTL = 10 * time.Minute

type cachedResponse struct {
	status  int
	header  http.Header
	body    []byte
	expires time.Time
}

// tokenCache replays the response of a mutating request carrying an already
// seen client token.
type tokenCache struct {
	mu      sync.Mutex
	ttl     time.Duration
	now     func() time.Time
	entries map[string]cachedResponse
}

func newTokenCache(ttl time.Duration) *tokenCache {
	return &tokenCache{ttl: ttl, now: time.Now, entries: make(map[string]cachedResponse)}
}

func (c *tokenCache) get(key string) (cachedResponse, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	e, ok := c.entries[key]
	if !ok {
		return cachedResponse{}, false
	}
	if c.now().After(e.expires) {
		delete(c.entries, key)
		return cachedResponse{}, false
	}
	return e, true
}

func (c *tokenCache) put(key string, e cachedResponse) {
	c.mu.Lock()
	defer c.mu.Unlock()

	now := c.now()
	for k, old := range c.entries {
		if now.After(old.expires) {
			delete(c.entries, k)
		}
	}
	e.expires = now.Add(c.ttl)
	c.entries[key] = e
}

// Middleware replays cached responses for requests carrying a known client
// token. Only successful responses are cached.
func (c *tokenCache) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		token := r.Header.Get(widgets.ClientTokenHeader)
		if token == "" || r.Method == http.MethodGet {
			next.ServeHTTP(w, r)
			return
		}

		key := r.Method + " " + r.URL.Path + " " + token
		if e, ok := c.get(key); ok {
			for k, vs := range e.header {
				w.Header()[k] = vs
			}
			w.Header().Set("Idempotent-Replay", "true")
			w.WriteHeader(e.status)
			_, _ = w.Write(e.body)
			return
		}

		rec := &recordingWriter{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(rec, r)
		if rec.status < http.StatusBadRequest {
			c.put(key, cachedResponse{status: rec.status, header: w.Header().Clone(), body: rec.body})
		}
	})
}

type recordingWriter struct {
	http.ResponseWriter
	status int
	body   []byte
}

func (rw *recordingWriter) WriteHeader(code int) {
	rw.status = code
	rw.ResponseWriter.WriteHeader(code)
}

func (rw *recordingWriter) Write(p []byte) (int, error) {
	rw.body = append(rw.body, p...)
	return rw.ResponseWriter.Write(p)
}
