package analytics

import (
	"context"
	"fmt"
	"strings"
	"time"

	"AgriIntel/pkg/config"
	xhttp "AgriIntel/pkg/http"
)

// HTTPServiceBase is the shared plumbing for model service clients.
type HTTPServiceBase struct {
	baseURL string
	client  *xhttp.Client
}

// NewHTTPServiceBase builds an HTTP client with timeout and base URL from config.
func NewHTTPServiceBase(cfg *config.Config) *HTTPServiceBase {
	return newHTTPServiceBase(cfg.Models.ServiceURL, cfg.Models.Timeout, xhttp.WithRetries(cfg.Models.Retries, 0))
}

func newHTTPServiceBase(baseURL string, timeout time.Duration, opts ...xhttp.ClientOption) *HTTPServiceBase {
	if timeout <= 0 {
		timeout = 3 * time.Second
	}
	return &HTTPServiceBase{
		baseURL: strings.TrimRight(baseURL, "/"),
		client:  xhttp.NewClient(append([]xhttp.ClientOption{xhttp.WithTimeout(timeout)}, opts...)...),
	}
}

// PostJSON posts payload to path under baseURL and decodes JSON into dest.
func (b *HTTPServiceBase) PostJSON(ctx context.Context, path string, payload interface{}, dest interface{}) error {
	return b.do(ctx, xhttp.MethodPost, path, payload, dest)
}

// GetJSON fetches path under baseURL and decodes JSON into dest.
func (b *HTTPServiceBase) GetJSON(ctx context.Context, path string, dest interface{}) error {
	return b.do(ctx, xhttp.MethodGet, path, nil, dest)
}

func (b *HTTPServiceBase) do(ctx context.Context, method, path string, payload, dest interface{}) error {
	if b.client == nil || b.baseURL == "" {
		return fmt.Errorf("model service client not initialized")
	}
	err := b.client.SendAndParse(ctx, &xhttp.RequestOptions{
		Method: method,
		URL:    b.baseURL + path,
		Body:   payload,
	}, dest)
	if err != nil {
		return fmt.Errorf("%s %s: %w", strings.ToLower(method), path, err)
	}
	return nil
}

// Close releases idle connections.
func (b *HTTPServiceBase) Close() {
	if b.client != nil {
		b.client.CloseIdleConnections()
	}
}
