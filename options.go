package civit

import (
	"net/http"
	"time"
)

// DefaultBaseURL is the fixed catalog API base.
const DefaultBaseURL = "https://civitai.com/api/v1"

// SessionCookieName is the catalog's session cookie.
const SessionCookieName = "__Secure-civitai-token"

// Concurrency constants for metadata fetches and transfers.
const (
	// DefaultConcurrency is the default number of concurrent units of work.
	DefaultConcurrency = 4

	// MaxConcurrency is the maximum allowed concurrent units of work.
	MaxConcurrency = 16

	// DefaultRequestTimeout is the timeout for catalog metadata requests.
	// File transfers run without a timeout.
	DefaultRequestTimeout = 30 * time.Second
)

// Option configures a Client.
type Option func(*clientConfig)

// clientConfig holds configuration for Client construction.
type clientConfig struct {
	// baseURL is the catalog API base. Defaults to DefaultBaseURL.
	baseURL string

	// httpClient is used for all HTTP requests.
	// When nil, New builds one with a session cookie jar.
	httpClient HTTPClient

	// logger receives diagnostic log messages.
	logger Logger
}

// newClientConfig returns a clientConfig with default values.
func newClientConfig() *clientConfig {
	return &clientConfig{
		baseURL: DefaultBaseURL,
	}
}

// WithBaseURL overrides the catalog API base URL.
// Useful for testing against mock servers.
func WithBaseURL(url string) Option {
	return func(c *clientConfig) {
		c.baseURL = url
	}
}

// WithHTTPClient sets a custom HTTP client for catalog and file requests.
// The client must be safe for concurrent use. When set, the session
// cookie jar is not installed; the caller owns authentication.
func WithHTTPClient(client HTTPClient) Option {
	return func(c *clientConfig) {
		c.httpClient = client
	}
}

// WithLogger sets a logger for diagnostic output.
// If not set, logging is disabled.
func WithLogger(logger Logger) Option {
	return func(c *clientConfig) {
		c.logger = logger
	}
}

// DownloadOption configures a download operation.
type DownloadOption func(*downloadConfig)

// downloadConfig holds configuration for one download invocation.
type downloadConfig struct {
	// tracker aggregates per-transfer progress. May be nil.
	tracker *Tracker

	// concurrency overrides the client's fan-out bound when non-zero.
	concurrency int
}

// newDownloadConfig returns a downloadConfig with default values.
func newDownloadConfig() *downloadConfig {
	return &downloadConfig{}
}

// WithTracker attaches a progress Tracker. Each transfer registers a
// track labeled with its filename and updates it as bytes arrive.
func WithTracker(t *Tracker) DownloadOption {
	return func(c *downloadConfig) {
		c.tracker = t
	}
}

// WithConcurrency overrides the configured fan-out bound for this
// download. Values are clamped to the range [1, MaxConcurrency].
func WithConcurrency(n int) DownloadOption {
	return func(c *downloadConfig) {
		if n < 1 {
			n = 1
		}
		if n > MaxConcurrency {
			n = MaxConcurrency
		}
		c.concurrency = n
	}
}

// HTTPClient is the interface for HTTP operations.
// *http.Client satisfies this interface.
type HTTPClient interface {
	// Do sends an HTTP request and returns an HTTP response.
	Do(req *http.Request) (*http.Response, error)
}

// Logger is the interface for diagnostic logging.
// Compatible with slog, zerolog adapters, and other structured loggers.
type Logger interface {
	// Debug logs a debug-level message with optional key-value pairs.
	Debug(msg string, keysAndValues ...any)

	// Info logs an info-level message with optional key-value pairs.
	Info(msg string, keysAndValues ...any)

	// Warn logs a warning-level message with optional key-value pairs.
	Warn(msg string, keysAndValues ...any)

	// Error logs an error-level message with optional key-value pairs.
	Error(msg string, keysAndValues ...any)
}
