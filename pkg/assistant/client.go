package assistant

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"math/rand"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/assistgate/assistgate/pkg/models"
	"github.com/assistgate/assistgate/pkg/telemetry"
)

const (
	apiKeyHeader     = "Api-Key"
	apiVersionHeader = "X-Pinecone-API-Version"

	defaultControlPlane = "https://api.pinecone.io"
	defaultAPIVersion   = "2025-01"
	defaultMaxRetries   = 2

	retryBaseDelay = 500 * time.Millisecond
	retryMaxJitter = 250 * time.Millisecond
)

// Options configures a Client.
type Options struct {
	APIKey          string
	APIVersion      string
	ControlPlaneURL string
	Timeout         time.Duration
	// MaxRetries caps retries after a rate-limited response; 0 applies the
	// default of 2.
	MaxRetries int
	HTTPClient *http.Client
	// Sleep suspends between retry attempts. Tests inject a no-op.
	Sleep func(ctx context.Context, d time.Duration) error
}

// Client issues authenticated requests against the assistant platform. All
// outbound traffic goes through Do, the single point of retry and
// failure-enrichment policy.
type Client struct {
	apiKey       string
	apiVersion   string
	controlPlane string
	httpClient   *http.Client
	maxRetries   int
	sleep        func(ctx context.Context, d time.Duration) error
}

// New creates a Client from the given options, applying defaults.
func New(opts Options) *Client {
	c := &Client{
		apiKey:       opts.APIKey,
		apiVersion:   opts.APIVersion,
		controlPlane: opts.ControlPlaneURL,
		httpClient:   opts.HTTPClient,
		maxRetries:   opts.MaxRetries,
		sleep:        opts.Sleep,
	}
	if c.apiVersion == "" {
		c.apiVersion = defaultAPIVersion
	}
	if c.controlPlane == "" {
		c.controlPlane = defaultControlPlane
	}
	if c.maxRetries == 0 {
		c.maxRetries = defaultMaxRetries
	}
	if c.httpClient == nil {
		timeout := opts.Timeout
		if timeout == 0 {
			timeout = 60 * time.Second
		}
		c.httpClient = &http.Client{Timeout: timeout}
	}
	if c.sleep == nil {
		c.sleep = sleepCtx
	}
	return c
}

// Response captures a successful upstream reply.
type Response struct {
	StatusCode int
	Body       []byte
	Header     http.Header
}

// Do issues an upstream request, retrying rate-limited responses with backoff
// up to the configured budget. Any terminal non-2xx status becomes an
// UpstreamError carrying the request URL and a best-effort body capture.
func (c *Client) Do(ctx context.Context, method, rawURL string, body any) (*Response, error) {
	var payload []byte
	if body != nil {
		var err error
		payload, err = json.Marshal(body)
		if err != nil {
			return nil, fmt.Errorf("marshal request body: %w", err)
		}
	}

	for attempt := 0; ; attempt++ {
		var reader io.Reader
		if payload != nil {
			reader = bytes.NewReader(payload)
		}
		req, err := http.NewRequestWithContext(ctx, method, rawURL, reader)
		if err != nil {
			return nil, fmt.Errorf("create request: %w", err)
		}
		req.Header.Set(apiKeyHeader, c.apiKey)
		req.Header.Set(apiVersionHeader, c.apiVersion)
		if payload != nil {
			req.Header.Set("Content-Type", "application/json")
		}

		start := time.Now()
		resp, err := c.httpClient.Do(req)
		if err != nil {
			return nil, fmt.Errorf("call upstream: %w", err)
		}
		telemetry.UpstreamLatency.Observe(time.Since(start).Seconds())

		respBody, err := io.ReadAll(resp.Body)
		resp.Body.Close()
		if err != nil {
			return nil, fmt.Errorf("read upstream response: %w", err)
		}

		if resp.StatusCode >= 200 && resp.StatusCode < 300 {
			return &Response{
				StatusCode: resp.StatusCode,
				Body:       respBody,
				Header:     resp.Header,
			}, nil
		}

		if resp.StatusCode == http.StatusTooManyRequests && attempt < c.maxRetries {
			telemetry.UpstreamRetries.Inc()
			delay := retryDelay(attempt, resp.Header.Get("Retry-After"))
			if err := c.sleep(ctx, delay); err != nil {
				return nil, err
			}
			continue
		}

		return nil, &UpstreamError{
			StatusCode: resp.StatusCode,
			Message:    fmt.Sprintf("upstream returned %d %s", resp.StatusCode, http.StatusText(resp.StatusCode)),
			Details: &UpstreamDetails{
				URL:  rawURL,
				Body: parseBody(respBody),
			},
		}
	}
}

// DescribeAssistant fetches control-plane metadata for an assistant.
func (c *Client) DescribeAssistant(ctx context.Context, name string) (*Response, error) {
	return c.Do(ctx, http.MethodGet, c.controlPlane+"/assistant/assistants/"+url.PathEscape(name), nil)
}

// ListAssistants fetches the control-plane list of assistants.
func (c *Client) ListAssistants(ctx context.Context) (*Response, error) {
	return c.Do(ctx, http.MethodGet, c.controlPlane+"/assistant/assistants", nil)
}

// Chat posts a message list to the assistant's chat endpoint.
func (c *Client) Chat(ctx context.Context, base, name string, req *models.ChatRequest) (*models.ChatResponse, error) {
	resp, err := c.Do(ctx, http.MethodPost, base+"/chat/"+url.PathEscape(name), req)
	if err != nil {
		return nil, err
	}
	var out models.ChatResponse
	if err := json.Unmarshal(resp.Body, &out); err != nil {
		return nil, fmt.Errorf("parse chat response: %w", err)
	}
	return &out, nil
}

// Context posts a message list to the assistant's context-retrieval endpoint.
func (c *Client) Context(ctx context.Context, base, name string, req *models.ContextRequest) (*models.ContextResponse, error) {
	resp, err := c.Do(ctx, http.MethodPost, base+"/chat/"+url.PathEscape(name)+"/context", req)
	if err != nil {
		return nil, err
	}
	var out models.ContextResponse
	if err := json.Unmarshal(resp.Body, &out); err != nil {
		return nil, fmt.Errorf("parse context response: %w", err)
	}
	return &out, nil
}

// ListFiles fetches the file list for an assistant. A structured filter is
// JSON-encoded into the filter query parameter.
func (c *Client) ListFiles(ctx context.Context, base, name string, filter json.RawMessage) (*Response, error) {
	u := base + "/files/" + url.PathEscape(name)
	if len(filter) > 0 {
		u += "?filter=" + url.QueryEscape(string(filter))
	}
	return c.Do(ctx, http.MethodGet, u, nil)
}

// DeleteFile deletes a file from an assistant. Both 200 and 204 count as
// success; the response body is not required to parse.
func (c *Client) DeleteFile(ctx context.Context, base, name, fileID string) error {
	_, err := c.Do(ctx, http.MethodDelete, base+"/files/"+url.PathEscape(name)+"/"+url.PathEscape(fileID), nil)
	return err
}

// retryDelay computes the wait before the next attempt. The upstream
// Retry-After value wins when present and positive; otherwise the delay grows
// with the attempt index plus a small jitter.
func retryDelay(attempt int, retryAfter string) time.Duration {
	if d := parseRetryAfter(retryAfter); d > 0 {
		return d
	}
	backoff := time.Duration(attempt+1) * retryBaseDelay
	jitter := time.Duration(rand.Int63n(int64(retryMaxJitter)))
	return backoff + jitter
}

// parseRetryAfter parses the Retry-After header, supporting both
// delay-seconds and HTTP-date formats.
func parseRetryAfter(header string) time.Duration {
	if header == "" {
		return 0
	}
	if secs, err := strconv.Atoi(header); err == nil {
		if secs < 0 {
			return 0
		}
		return time.Duration(secs) * time.Second
	}
	if t, err := http.ParseTime(header); err == nil {
		if d := time.Until(t); d > 0 {
			return d
		}
	}
	return 0
}

// parseBody decodes an error response body as JSON when possible, falling
// back to plain text, or nil when empty.
func parseBody(b []byte) any {
	if len(b) == 0 {
		return nil
	}
	var v any
	if err := json.Unmarshal(b, &v); err == nil {
		return v
	}
	return string(b)
}

func sleepCtx(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
