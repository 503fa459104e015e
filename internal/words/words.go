// Package words checks that a submitted secret is a real English word.
package words

import (
	"context"
	"net/http"
	"net/url"
	"regexp"
	"strings"
	"sync"
	"time"
)

// DefaultBaseURL is the free dictionary API entries endpoint.
const DefaultBaseURL = "https://api.dictionaryapi.dev/api/v2/entries/en"

var wordRE = regexp.MustCompile(`^[a-zA-Z]{2,}$`)

// Validator reports whether word may be used as a secret.
type Validator interface {
	Valid(ctx context.Context, word string) bool
}

// WellFormed is the shape check every validator applies before any lookup.
func WellFormed(word string) bool {
	return wordRE.MatchString(word)
}

// AcceptAll accepts any well-formed word without a lookup.
type AcceptAll struct{}

func (AcceptAll) Valid(_ context.Context, word string) bool {
	return WellFormed(word)
}

type cacheEntry struct {
	ok bool
	at time.Time
}

// Dictionary validates words against a dictionary HTTP API. A 200 response
// means the word exists; any other status or a transport error means it does
// not. Answers are cached for TTL.
type Dictionary struct {
	BaseURL string
	Client  *http.Client
	TTL     time.Duration
	Now     func() time.Time

	mu    sync.Mutex
	cache map[string]cacheEntry
}

// NewDictionary returns a Dictionary with a 4s request timeout and a 60s cache.
func NewDictionary(baseURL string, timeout time.Duration) *Dictionary {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	if timeout <= 0 {
		timeout = 4 * time.Second
	}
	return &Dictionary{
		BaseURL: strings.TrimRight(baseURL, "/"),
		Client:  &http.Client{Timeout: timeout},
		TTL:     time.Minute,
		Now:     time.Now,
		cache:   make(map[string]cacheEntry),
	}
}

func (d *Dictionary) Valid(ctx context.Context, word string) bool {
	if !WellFormed(word) {
		return false
	}
	word = strings.ToLower(word)
	now := d.Now()

	d.mu.Lock()
	if e, ok := d.cache[word]; ok && now.Sub(e.at) < d.TTL {
		d.mu.Unlock()
		return e.ok
	}
	d.mu.Unlock()

	ok := d.lookup(ctx, word)

	d.mu.Lock()
	d.cache[word] = cacheEntry{ok: ok, at: now}
	d.mu.Unlock()
	return ok
}

func (d *Dictionary) lookup(ctx context.Context, word string) bool {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, d.BaseURL+"/"+url.PathEscape(word), nil)
	if err != nil {
		return false
	}
	resp, err := d.Client.Do(req)
	if err != nil {
		return false
	}
	defer resp.Body.Close()
	return resp.StatusCode == http.StatusOK
}
