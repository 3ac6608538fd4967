package assistant

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/assistgate/assistgate/pkg/hostcache"
	"github.com/assistgate/assistgate/pkg/models"
	"github.com/assistgate/assistgate/pkg/telemetry"
)

// Resolver maps assistant names to normalized data-plane base URLs, caching
// discovered hosts with a TTL.
type Resolver struct {
	client *Client
	cache  hostcache.Cache
}

// NewResolver creates a Resolver backed by the given client and cache.
func NewResolver(client *Client, cache hostcache.Cache) *Resolver {
	return &Resolver{client: client, cache: cache}
}

// ResolveBase returns the base URL for an assistant. An explicit host is
// normalized directly and never touches the cache. Otherwise a cached entry
// within its TTL is returned, or the host is discovered via the control plane
// and cached with a fresh expiry.
func (r *Resolver) ResolveBase(ctx context.Context, name, explicitHost string) (string, error) {
	if explicitHost != "" {
		return NormalizeBase(explicitHost), nil
	}

	if base, ok := r.cache.Get(name); ok {
		telemetry.HostCacheLookups.WithLabelValues("hit").Inc()
		return base, nil
	}
	telemetry.HostCacheLookups.WithLabelValues("miss").Inc()

	resp, err := r.client.DescribeAssistant(ctx, name)
	if err != nil {
		return "", err
	}

	var desc models.DescribeResponse
	if err := json.Unmarshal(resp.Body, &desc); err != nil {
		return "", fmt.Errorf("parse describe response: %w", err)
	}
	if desc.Host == "" {
		return "", &MissingHostError{Assistant: name}
	}

	base := NormalizeBase(desc.Host)
	r.cache.Put(name, base)
	return base, nil
}

// NormalizeBase turns a host into the per-assistant base URL: scheme ensured,
// trailing slash stripped, /assistant suffix appended once. Idempotent.
func NormalizeBase(host string) string {
	h := strings.TrimSpace(host)
	if !strings.HasPrefix(h, "http://") && !strings.HasPrefix(h, "https://") {
		h = "https://" + h
	}
	h = strings.TrimRight(h, "/")
	if !strings.HasSuffix(h, "/assistant") {
		h += "/assistant"
	}
	return h
}
