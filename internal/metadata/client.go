// Package metadata fetches provider metadata for a token and normalizes the
// raw payload into the structured attribute and probability records the
// scorer consumes.
package metadata

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/monsterwatch/scvfeed/internal/models"
)

// FetchError reports a failed metadata fetch after retry exhaustion.
type FetchError struct {
	TokenID    string
	StatusCode int
	Err        error
}

func (e FetchError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("metadata fetch failed for token %s: %v", e.TokenID, e.Err)
	}
	return fmt.Sprintf("metadata fetch failed for token %s: status %d", e.TokenID, e.StatusCode)
}

func (e FetchError) Unwrap() error { return e.Err }

// Client fetches token metadata from the provider.
type Client struct {
	baseURL        string
	httpClient     *http.Client
	maxRetries     int
	retryDelayBase time.Duration
}

// NewClient creates a metadata client with a bounded retry policy.
func NewClient(baseURL string, timeout time.Duration, maxRetries int, retryDelayBase time.Duration) *Client {
	if maxRetries <= 0 {
		maxRetries = 3
	}
	if retryDelayBase <= 0 {
		retryDelayBase = time.Second
	}
	return &Client{
		baseURL: baseURL,
		httpClient: &http.Client{
			Timeout: timeout,
		},
		maxRetries:     maxRetries,
		retryDelayBase: retryDelayBase,
	}
}

// Fetch retrieves the raw metadata for one token ID. Non-200 responses and
// transport errors are retried with linear backoff; after exhaustion the
// caller gets a FetchError and should skip the offer.
func (c *Client) Fetch(ctx context.Context, tokenID string) (*models.RawMetadata, error) {
	url := fmt.Sprintf("%s/meta?id=%s", c.baseURL, tokenID)

	var lastErr error
	for i := 0; i < c.maxRetries; i++ {
		if i > 0 {
			select {
			case <-ctx.Done():
				return nil, FetchError{TokenID: tokenID, Err: ctx.Err()}
			case <-time.After(c.retryDelayBase * time.Duration(i)):
			}
		}

		req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
		if err != nil {
			return nil, FetchError{TokenID: tokenID, Err: err}
		}
		req.Header.Set("Accept", "application/json")

		resp, err := c.httpClient.Do(req)
		if err != nil {
			lastErr = err
			continue
		}

		if resp.StatusCode != http.StatusOK {
			resp.Body.Close()
			lastErr = FetchError{TokenID: tokenID, StatusCode: resp.StatusCode}
			continue
		}

		var raw models.RawMetadata
		err = json.NewDecoder(resp.Body).Decode(&raw)
		resp.Body.Close()
		if err != nil {
			lastErr = err
			continue
		}
		return &raw, nil
	}

	return nil, FetchError{TokenID: tokenID, Err: lastErr}
}
