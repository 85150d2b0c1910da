package fetcher

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/specialistvlad/modrt/internal/chunk"
	"github.com/specialistvlad/modrt/internal/ctxlog"
	"github.com/specialistvlad/modrt/internal/resolver"
	"github.com/specialistvlad/modrt/internal/resourcepot"
	"resty.dev/v3"
)

// DefaultTimeout bounds a single HTTP fetch.
const DefaultTimeout = 30 * time.Second

// HTTP fetches manifests from an origin. Resource paths are resolved against
// the base URL.
type HTTP struct {
	client *resty.Client
	table  *chunk.Table
}

// NewHTTP returns a fetcher for baseURL.
func NewHTTP(baseURL string, timeout time.Duration, table *chunk.Table) *HTTP {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	client := resty.New().
		SetBaseURL(strings.TrimSuffix(baseURL, "/")).
		SetTimeout(timeout)
	return &HTTP{client: client, table: table}
}

// Fetch implements resolver.Fetcher.
func (h *HTTP) Fetch(ctx context.Context, r resolver.Resource) (*resourcepot.Pot, error) {
	logger := ctxlog.FromContext(ctx)
	path := "/" + strings.TrimPrefix(r.Path, "/")
	logger.Debug("Fetching resource pot over HTTP.", "path", path)

	resp, err := h.client.R().SetContext(ctx).Get(path)
	if err != nil {
		return nil, fmt.Errorf("GET %s: %w", path, err)
	}
	if resp.IsError() {
		return nil, fmt.Errorf("GET %s: unexpected status %d", path, resp.StatusCode())
	}
	return decodePot(r, []byte(resp.String()), h.table)
}

// Close releases the underlying client.
func (h *HTTP) Close() error {
	return h.client.Close()
}
