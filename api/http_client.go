// api/http_client.go
package api

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"time"

	"pos-insights/apperr"
	"pos-insights/models"
	"pos-insights/util"
)

// HTTPClient fetches raw datasets published over HTTP.
type HTTPClient struct {
	BaseURL    string
	HTTPClient *http.Client
}

// NewHTTPClient creates a new instance of HTTPClient with default settings
func NewHTTPClient(baseURL string) *HTTPClient {
	return &HTTPClient{
		BaseURL: baseURL,
		HTTPClient: &http.Client{
			Timeout: 30 * time.Second,
		},
	}
}

// Get performs a GET against BaseURL+endpoint and returns the body. Transport
// failures and non-2xx responses are reported as apperr.SourceUnavailable.
func (c *HTTPClient) Get(ctx context.Context, endpoint string, headers map[string]string) ([]byte, error) {
	url := c.BaseURL + endpoint
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to build request for %q: %w", url, err)
	}
	req.Header.Set("Accept", "text/csv, */*")
	for key, value := range headers {
		req.Header.Set(key, value)
	}

	res, err := c.HTTPClient.Do(req)
	if err != nil {
		return nil, &apperr.SourceUnavailable{Path: url, Err: err}
	}
	defer res.Body.Close()

	body, err := io.ReadAll(res.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response from %q: %w", url, err)
	}

	if res.StatusCode < 200 || res.StatusCode >= 300 {
		return nil, &apperr.SourceUnavailable{
			Path: url,
			Err:  fmt.Errorf("unexpected status code: %s", res.Status),
		}
	}
	return body, nil
}

// FetchCSVTable downloads a CSV document and parses it into a raw table.
func (c *HTTPClient) FetchCSVTable(ctx context.Context, endpoint string) (*models.RawTable, error) {
	body, err := c.Get(ctx, endpoint, nil)
	if err != nil {
		return nil, err
	}
	table, err := util.ReadCSVTableFrom(bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("failed to parse CSV from %q: %w", c.BaseURL+endpoint, err)
	}
	return table, nil
}
