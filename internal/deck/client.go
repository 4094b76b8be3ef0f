package deck

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"golang.org/x/time/rate"
)

const (
	// DefaultTimeout bounds a single search request.
	DefaultTimeout = 30 * time.Second

	defaultUserAgent = "ClashGPT/1.0"

	searchPath = "/api/decks/search-stats"
)

// DefaultRateLimit throttles outgoing searches to 5 req/sec. The
// executor's debounce guard is the primary throttle; this is the
// client-level backstop.
var DefaultRateLimit = rate.Every(200 * time.Millisecond)

// RateLimitedError reports an HTTP 429 from the deck search endpoint.
// It is a first-class contract element, never conflated with other
// failures: the executor surfaces it to the user and performs no
// automatic retry. RetryAfter is zero when the server sent no hint.
type RateLimitedError struct {
	RetryAfter time.Duration
}

func (e *RateLimitedError) Error() string {
	if e.RetryAfter > 0 {
		return fmt.Sprintf("rate limited (HTTP 429), retry after %s", e.RetryAfter)
	}
	return "rate limited (HTTP 429)"
}

// SearchError reports a non-2xx, non-429 response.
type SearchError struct {
	StatusCode int
	Body       string
}

func (e *SearchError) Error() string {
	return fmt.Sprintf("deck search failed with status %d: %s", e.StatusCode, e.Body)
}

// ClientOptions configures the deck search client.
type ClientOptions struct {
	// BaseURL of the backend, e.g. "https://clashgpt.app".
	BaseURL string

	// RateLimit controls request frequency (default: 5 req/second).
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

// Client executes deck searches against the paginated backend.
type Client struct {
	baseURL    string
	httpClient *http.Client
	limiter    *rate.Limiter
	userAgent  string
	apiKey     string
	logger     *slog.Logger
}

// NewClient creates a deck search client.
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

// Search executes a canonical query (as produced by BuildQuery) and
// returns one result page. A 429 response comes back as
// *RateLimitedError with the server's Retry-After hint when present;
// any other non-200 response is a *SearchError.
func (c *Client) Search(ctx context.Context, query string) (*SearchResult, error) {
	url := c.baseURL + searchPath + "?" + query

	if err := c.limiter.Wait(ctx); err != nil {
		return nil, fmt.Errorf("rate limiter: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("User-Agent", c.userAgent)
	req.Header.Set("Accept", "application/json")
	if c.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+c.apiKey)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("deck search request: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	switch resp.StatusCode {
	case http.StatusOK:
		body, err := io.ReadAll(resp.Body)
		if err != nil {
			return nil, fmt.Errorf("read response body: %w", err)
		}
		var result SearchResult
		if err := json.Unmarshal(body, &result); err != nil {
			return nil, fmt.Errorf("parse search response: %w", err)
		}
		return &result, nil

	case http.StatusTooManyRequests:
		return nil, &RateLimitedError{RetryAfter: parseRetryAfter(resp.Header.Get("Retry-After"))}

	default:
		body, _ := io.ReadAll(resp.Body)
		return nil, &SearchError{StatusCode: resp.StatusCode, Body: string(body)}
	}
}

// parseRetryAfter handles the delay-seconds form of the Retry-After
// header. The HTTP-date form is not used by the backend.
func parseRetryAfter(value string) time.Duration {
	if value == "" {
		return 0
	}
	seconds, err := strconv.Atoi(value)
	if err != nil || seconds < 0 {
		return 0
	}
	return time.Duration(seconds) * time.Second
}
