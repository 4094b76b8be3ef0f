package catalog

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"

	"golang.org/x/time/rate"
)

const (
	// DefaultTimeout bounds a single catalog request.
	DefaultTimeout = 30 * time.Second

	defaultUserAgent = "ClashGPT/1.0"
)

// DefaultRateLimit throttles catalog requests to 10 req/sec. The
// catalog is fetched once per session, but the client self-throttles so
// misuse cannot hammer the backend.
var DefaultRateLimit = rate.Every(100 * time.Millisecond)

// LoadError reports a failed catalog load. The loader still returns a
// usable empty catalog alongside it; callers decide how to surface the
// degradation.
type LoadError struct {
	URL string
	Err error
}

func (e *LoadError) Error() string {
	return fmt.Sprintf("load card catalog from %s: %v", e.URL, e.Err)
}

func (e *LoadError) Unwrap() error {
	return e.Err
}

// ClientOptions configures the catalog client.
type ClientOptions struct {
	// BaseURL of the backend, e.g. "https://clashgpt.app".
	BaseURL string

	// RateLimit controls request frequency (default: 10 req/second).
	RateLimit rate.Limit

	// Timeout for HTTP requests (default: 30 seconds).
	Timeout time.Duration

	// HTTPClient allows a custom HTTP client.
	HTTPClient *http.Client

	// UserAgent sent with every request.
	UserAgent string

	// APIKey is sent as a bearer token when set.
	APIKey string

	// Logger for diagnostics (default: slog.Default()).
	Logger *slog.Logger
}

// DefaultClientOptions returns conservative defaults.
func DefaultClientOptions(baseURL string) ClientOptions {
	return ClientOptions{
		BaseURL:   baseURL,
		RateLimit: DefaultRateLimit,
		Timeout:   DefaultTimeout,
		UserAgent: defaultUserAgent,
	}
}

// Client fetches the card catalog over HTTP.
type Client struct {
	baseURL    string
	httpClient *http.Client
	limiter    *rate.Limiter
	userAgent  string
	apiKey     string
	logger     *slog.Logger
}

// NewClient creates a catalog client.
func NewClient(options ClientOptions) (*Client, error) {
	if options.BaseURL == "" {
		return nil, fmt.Errorf("baseURL is required")
	}
	if options.RateLimit == 0 {
		options.RateLimit = DefaultRateLimit
	}
	if options.Timeout == 0 {
		options.Timeout = DefaultTimeout
	}
	if options.UserAgent == "" {
		options.UserAgent = defaultUserAgent
	}
	if options.Logger == nil {
		options.Logger = slog.Default()
	}

	httpClient := options.HTTPClient
	if httpClient == nil {
		httpClient = &http.Client{Timeout: options.Timeout}
	}

	return &Client{
		baseURL:    options.BaseURL,
		httpClient: httpClient,
		limiter:    rate.NewLimiter(options.RateLimit, 1),
		userAgent:  options.UserAgent,
		apiKey:     options.APIKey,
		logger:     options.Logger,
	}, nil
}

// Load fetches the flat card catalog. On any failure it returns a
// non-nil empty catalog together with a *LoadError, so callers must
// explicitly acknowledge the degraded state instead of silently
// rendering an empty list.
func (c *Client) Load(ctx context.Context) (*Catalog, error) {
	url := c.baseURL + "/api/cards"

	if err := c.limiter.Wait(ctx); err != nil {
		return NewCatalog(nil), &LoadError{URL: url, Err: err}
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return NewCatalog(nil), &LoadError{URL: url, Err: err}
	}
	req.Header.Set("User-Agent", c.userAgent)
	req.Header.Set("Accept", "application/json")
	if c.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+c.apiKey)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return NewCatalog(nil), &LoadError{URL: url, Err: err}
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return NewCatalog(nil), &LoadError{
			URL: url,
			Err: fmt.Errorf("unexpected status %d: %s", resp.StatusCode, string(body)),
		}
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return NewCatalog(nil), &LoadError{URL: url, Err: err}
	}

	var list CardList
	if err := json.Unmarshal(body, &list); err != nil {
		return NewCatalog(nil), &LoadError{URL: url, Err: fmt.Errorf("parse response: %w", err)}
	}

	catalog := NewCatalog(list.Cards)
	c.logger.Debug("Card catalog loaded", "count", catalog.Len(), "version", catalog.Version())
	return catalog, nil
}
