package assistant

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"
)

func noSleep(ctx context.Context, d time.Duration) error { return nil }

func newTestClient(upstream *httptest.Server, sleep func(context.Context, time.Duration) error) *Client {
	return New(Options{
		APIKey:          "test-key",
		ControlPlaneURL: upstream.URL,
		Sleep:           sleep,
	})
}

func TestDoSetsHeaders(t *testing.T) {
	upstream := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("Api-Key") != "test-key" {
			t.Errorf("missing Api-Key header")
		}
		if r.Header.Get("X-Pinecone-API-Version") == "" {
			t.Errorf("missing API version header")
		}
		w.Write([]byte(`{}`))
	}))
	defer upstream.Close()

	c := newTestClient(upstream, noSleep)
	resp, err := c.Do(context.Background(), http.MethodGet, upstream.URL+"/x", nil)
	if err != nil {
		t.Fatal(err)
	}
	if resp.StatusCode != http.StatusOK {
		t.Errorf("expected 200, got %d", resp.StatusCode)
	}
}

func TestDoRetriesOnRateLimit(t *testing.T) {
	var attempts atomic.Int64
	upstream := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		attempts.Add(1)
		w.WriteHeader(http.StatusTooManyRequests)
	}))
	defer upstream.Close()

	c := newTestClient(upstream, noSleep)
	_, err := c.Do(context.Background(), http.MethodGet, upstream.URL+"/x", nil)

	var ue *UpstreamError
	if !errors.As(err, &ue) {
		t.Fatalf("expected UpstreamError, got %v", err)
	}
	if ue.StatusCode != http.StatusTooManyRequests {
		t.Errorf("expected 429, got %d", ue.StatusCode)
	}
	if got := attempts.Load(); got != 3 {
		t.Errorf("expected 3 total attempts, got %d", got)
	}
}

func TestDoRecoversAfterRateLimit(t *testing.T) {
	var attempts atomic.Int64
	upstream := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if attempts.Add(1) < 3 {
			w.WriteHeader(http.StatusTooManyRequests)
			return
		}
		w.Write([]byte(`{"ok":true}`))
	}))
	defer upstream.Close()

	c := newTestClient(upstream, noSleep)
	resp, err := c.Do(context.Background(), http.MethodGet, upstream.URL+"/x", nil)
	if err != nil {
		t.Fatal(err)
	}
	if resp.StatusCode != http.StatusOK {
		t.Errorf("expected 200 after retries, got %d", resp.StatusCode)
	}
	if got := attempts.Load(); got != 3 {
		t.Errorf("expected 3 attempts, got %d", got)
	}
}

func TestDoHonorsRetryAfter(t *testing.T) {
	upstream := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Retry-After", "7")
		w.WriteHeader(http.StatusTooManyRequests)
	}))
	defer upstream.Close()

	var delays []time.Duration
	sleep := func(ctx context.Context, d time.Duration) error {
		delays = append(delays, d)
		return nil
	}

	c := newTestClient(upstream, sleep)
	_, err := c.Do(context.Background(), http.MethodGet, upstream.URL+"/x", nil)
	if err == nil {
		t.Fatal("expected terminal error")
	}

	if len(delays) != 2 {
		t.Fatalf("expected 2 sleeps, got %d", len(delays))
	}
	for _, d := range delays {
		if d != 7*time.Second {
			t.Errorf("expected 7s delay from Retry-After, got %v", d)
		}
	}
}

func TestDoFallbackBackoffGrows(t *testing.T) {
	upstream := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTooManyRequests)
	}))
	defer upstream.Close()

	var delays []time.Duration
	sleep := func(ctx context.Context, d time.Duration) error {
		delays = append(delays, d)
		return nil
	}

	c := newTestClient(upstream, sleep)
	_, _ = c.Do(context.Background(), http.MethodGet, upstream.URL+"/x", nil)

	if len(delays) != 2 {
		t.Fatalf("expected 2 sleeps, got %d", len(delays))
	}
	if delays[0] < 500*time.Millisecond || delays[0] >= 750*time.Millisecond {
		t.Errorf("first delay out of range: %v", delays[0])
	}
	if delays[1] < time.Second || delays[1] >= 1250*time.Millisecond {
		t.Errorf("second delay out of range: %v", delays[1])
	}
}

func TestDoEnrichesTerminalError(t *testing.T) {
	upstream := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
		w.Write([]byte(`{"error":"assistant not found"}`))
	}))
	defer upstream.Close()

	c := newTestClient(upstream, noSleep)
	_, err := c.Do(context.Background(), http.MethodGet, upstream.URL+"/missing", nil)

	var ue *UpstreamError
	if !errors.As(err, &ue) {
		t.Fatalf("expected UpstreamError, got %v", err)
	}
	if ue.StatusCode != http.StatusNotFound {
		t.Errorf("expected 404, got %d", ue.StatusCode)
	}
	if ue.Details == nil || ue.Details.URL != upstream.URL+"/missing" {
		t.Errorf("expected request URL in details, got %+v", ue.Details)
	}
	body, ok := ue.Details.Body.(map[string]any)
	if !ok || body["error"] != "assistant not found" {
		t.Errorf("expected parsed JSON body, got %#v", ue.Details.Body)
	}
}

func TestDoCapturesTextBody(t *testing.T) {
	upstream := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
		w.Write([]byte("gateway exploded"))
	}))
	defer upstream.Close()

	c := newTestClient(upstream, noSleep)
	_, err := c.Do(context.Background(), http.MethodGet, upstream.URL+"/x", nil)

	var ue *UpstreamError
	if !errors.As(err, &ue) {
		t.Fatalf("expected UpstreamError, got %v", err)
	}
	if ue.Details.Body != "gateway exploded" {
		t.Errorf("expected text body capture, got %#v", ue.Details.Body)
	}
}

func TestDeleteFileAcceptsNoContent(t *testing.T) {
	upstream := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodDelete {
			t.Errorf("expected DELETE, got %s", r.Method)
		}
		w.WriteHeader(http.StatusNoContent)
	}))
	defer upstream.Close()

	c := newTestClient(upstream, noSleep)
	if err := c.DeleteFile(context.Background(), upstream.URL+"/assistant", "demo", "file-1"); err != nil {
		t.Fatalf("expected 204 to count as success, got %v", err)
	}
}

func TestParseRetryAfter(t *testing.T) {
	if d := parseRetryAfter("10"); d != 10*time.Second {
		t.Errorf("expected 10s, got %v", d)
	}
	if d := parseRetryAfter("-1"); d != 0 {
		t.Errorf("expected 0 for negative, got %v", d)
	}
	if d := parseRetryAfter(""); d != 0 {
		t.Errorf("expected 0 for empty, got %v", d)
	}
	future := time.Now().Add(30 * time.Second).UTC().Format(http.TimeFormat)
	if d := parseRetryAfter(future); d <= 0 || d > 30*time.Second {
		t.Errorf("expected positive duration for HTTP date, got %v", d)
	}
}
