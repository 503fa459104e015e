package words

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"
)

func TestWellFormed(t *testing.T) {
	cases := map[string]bool{
		"ocean":     true,
		"Comet":     true,
		"a":         false,
		"":          false,
		"two words": false,
		"abc1":      false,
	}
	for word, want := range cases {
		if got := WellFormed(word); got != want {
			t.Fatalf("WellFormed(%q) = %v, want %v", word, got, want)
		}
	}
}

func TestDictionaryLookupAndCache(t *testing.T) {
	var hits atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
		if strings.HasSuffix(r.URL.Path, "/ocean") {
			w.WriteHeader(http.StatusOK)
			return
		}
		w.WriteHeader(http.StatusNotFound)
	}))
	defer srv.Close()

	now := time.Unix(1000, 0)
	d := NewDictionary(srv.URL, time.Second)
	d.Now = func() time.Time { return now }

	ctx := context.Background()
	if !d.Valid(ctx, "Ocean") {
		t.Fatalf("expected ocean to be valid")
	}
	if d.Valid(ctx, "qwzx") {
		t.Fatalf("expected qwzx to be invalid")
	}
	if !d.Valid(ctx, "ocean") {
		t.Fatalf("expected cached ocean to be valid")
	}
	if hits.Load() != 2 {
		t.Fatalf("expected 2 lookups, got %d", hits.Load())
	}

	now = now.Add(2 * time.Minute)
	d.Valid(ctx, "ocean")
	if hits.Load() != 3 {
		t.Fatalf("expected expired entry to be refetched, got %d lookups", hits.Load())
	}
}

func TestDictionaryRejectsMalformedWithoutLookup(t *testing.T) {
	var hits atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
	}))
	defer srv.Close()

	d := NewDictionary(srv.URL, time.Second)
	if d.Valid(context.Background(), "no way") {
		t.Fatalf("expected malformed word to be rejected")
	}
	if hits.Load() != 0 {
		t.Fatalf("expected no lookup for malformed word")
	}
}

func TestDictionaryTransportErrorIsInvalid(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	url := srv.URL
	srv.Close()

	d := NewDictionary(url, 100*time.Millisecond)
	if d.Valid(context.Background(), "ocean") {
		t.Fatalf("expected transport failure to be treated as invalid")
	}
}

func TestAcceptAll(t *testing.T) {
	if !(AcceptAll{}).Valid(context.Background(), "anything") {
		t.Fatalf("expected well-formed word to be accepted")
	}
	if (AcceptAll{}).Valid(context.Background(), "x") {
		t.Fatalf("expected malformed word to be rejected")
	}
}
