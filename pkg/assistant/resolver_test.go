package assistant

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/assistgate/assistgate/pkg/hostcache"
)

func TestNormalizeBase(t *testing.T) {
	cases := []struct {
		in, want string
	}{
		{"example.com", "https://example.com/assistant"},
		{"https://example.com/assistant/", "https://example.com/assistant"},
		{"https://example.com/assistant", "https://example.com/assistant"},
		{"https://example.com", "https://example.com/assistant"},
		{"http://localhost:8080", "http://localhost:8080/assistant"},
		{" example.com ", "https://example.com/assistant"},
	}
	for _, c := range cases {
		if got := NormalizeBase(c.in); got != c.want {
			t.Errorf("NormalizeBase(%q) = %q, want %q", c.in, got, c.want)
		}
	}
}

func TestNormalizeBaseIdempotent(t *testing.T) {
	once := NormalizeBase("example.com")
	if twice := NormalizeBase(once); twice != once {
		t.Errorf("not idempotent: %q -> %q", once, twice)
	}
}

func TestResolveBaseCachesWithinTTL(t *testing.T) {
	var discoveries atomic.Int64
	upstream := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		discoveries.Add(1)
		fmt.Fprint(w, `{"name":"demo","host":"demo.svc.example.com"}`)
	}))
	defer upstream.Close()

	now := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	cache := hostcache.NewWithClock(5*time.Minute, func() time.Time { return now })
	r := NewResolver(newTestClient(upstream, noSleep), cache)

	base, err := r.ResolveBase(context.Background(), "demo", "")
	if err != nil {
		t.Fatal(err)
	}
	if base != "https://demo.svc.example.com/assistant" {
		t.Errorf("unexpected base: %s", base)
	}

	// Second resolution within the TTL hits the cache.
	if _, err := r.ResolveBase(context.Background(), "demo", ""); err != nil {
		t.Fatal(err)
	}
	if got := discoveries.Load(); got != 1 {
		t.Errorf("expected 1 discovery call, got %d", got)
	}

	// After expiry a fresh discovery happens.
	now = now.Add(5*time.Minute + time.Second)
	if _, err := r.ResolveBase(context.Background(), "demo", ""); err != nil {
		t.Fatal(err)
	}
	if got := discoveries.Load(); got != 2 {
		t.Errorf("expected 2 discovery calls after expiry, got %d", got)
	}
}

func TestResolveBaseExplicitHostSkipsCache(t *testing.T) {
	var discoveries atomic.Int64
	upstream := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		discoveries.Add(1)
	}))
	defer upstream.Close()

	cache := hostcache.New(5 * time.Minute)
	r := NewResolver(newTestClient(upstream, noSleep), cache)

	base, err := r.ResolveBase(context.Background(), "demo", "custom.example.com")
	if err != nil {
		t.Fatal(err)
	}
	if base != "https://custom.example.com/assistant" {
		t.Errorf("unexpected base: %s", base)
	}
	if discoveries.Load() != 0 {
		t.Error("explicit host must not trigger discovery")
	}
	if _, ok := cache.Get("demo"); ok {
		t.Error("explicit host must not populate the cache")
	}
}

func TestResolveBaseMissingHost(t *testing.T) {
	upstream := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `{"name":"demo","status":"Ready"}`)
	}))
	defer upstream.Close()

	r := NewResolver(newTestClient(upstream, noSleep), hostcache.New(5*time.Minute))

	_, err := r.ResolveBase(context.Background(), "demo", "")
	var mh *MissingHostError
	if !errors.As(err, &mh) {
		t.Fatalf("expected MissingHostError, got %v", err)
	}
}

func TestResolveBaseUpstreamFailure(t *testing.T) {
	upstream := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer upstream.Close()

	r := NewResolver(newTestClient(upstream, noSleep), hostcache.New(5*time.Minute))

	_, err := r.ResolveBase(context.Background(), "demo", "")
	var ue *UpstreamError
	if !errors.As(err, &ue) {
		t.Fatalf("expected UpstreamError, got %v", err)
	}
}
