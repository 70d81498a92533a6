package civit

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/cookiejar"
	"net/url"
	"strings"
)

// catalogClient handles HTTP communication with the remote model catalog.
type catalogClient struct {
	// baseURL is the API base, e.g. "https://civitai.com/api/v1".
	baseURL string

	// httpClient is used for HTTP requests. Shared read-only across all
	// concurrent fetches; must be safe for concurrent use.
	httpClient HTTPClient

	// logger receives diagnostic messages. May be nil.
	logger Logger
}

// newCatalogClient creates a new catalog client.
// The baseURL is normalized by removing any trailing slashes.
func newCatalogClient(baseURL string, client HTTPClient, logger Logger) *catalogClient {
	return &catalogClient{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: client,
		logger:     logger,
	}
}

// newSessionClient builds an *http.Client whose cookie jar carries the
// session token for the catalog host. The jar is installed once here;
// there is no per-request auth override.
func newSessionClient(baseURL, token string) (*http.Client, error) {
	jar, err := cookiejar.New(nil)
	if err != nil {
		return nil, fmt.Errorf("creating cookie jar: %w", err)
	}

	if token != "" {
		u, err := url.Parse(baseURL)
		if err != nil {
			return nil, fmt.Errorf("parsing base URL: %w", err)
		}
		secure := u.Scheme == "https"
		jar.SetCookies(u, []*http.Cookie{{
			Name:     SessionCookieName,
			Value:    token,
			Path:     "/",
			Secure:   secure,
			HttpOnly: true,
			SameSite: http.SameSiteLaxMode,
		}})
	}

	return &http.Client{Jar: jar}, nil
}

// GetModel fetches a full Model record by ID.
func (c *catalogClient) GetModel(ctx context.Context, modelID string) (Model, error) {
	var m Model
	if err := c.getJSON(ctx, c.baseURL+"/models/"+modelID, &m); err != nil {
		return Model{}, fmt.Errorf("model %s: %w", modelID, err)
	}
	return m, nil
}

// GetModelVersion fetches a ModelVersion record by ID. The payload embeds
// a minimal owning-model summary, used to learn the model's category.
func (c *catalogClient) GetModelVersion(ctx context.Context, versionID string) (ModelVersion, error) {
	var v ModelVersion
	if err := c.getJSON(ctx, c.baseURL+"/model-versions/"+versionID, &v); err != nil {
		return ModelVersion{}, fmt.Errorf("model version %s: %w", versionID, err)
	}
	return v, nil
}

// getJSON issues a GET request and decodes the JSON body into out.
// Metadata requests carry a timeout; file transfers do not.
func (c *catalogClient) getJSON(ctx context.Context, url string, out any) error {
	ctx, cancel := context.WithTimeout(ctx, DefaultRequestTimeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return fmt.Errorf("creating request: %w", err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrFetchFailed, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("status %d: %w", resp.StatusCode, ErrFetchFailed)
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		if c.logger != nil {
			c.logger.Debug("failed to parse catalog response", "url", url, "error", err)
		}
		return fmt.Errorf("%w: %v", ErrParseFailed, err)
	}

	return nil
}
