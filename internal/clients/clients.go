// Package clients holds the shared plumbing for the outbound routing,
// elevation and geocoding adapters.
package clients

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"backend-routesmith/internal/metrics"
)

// HTTPDoer is the subset of *http.Client the adapters use.
type HTTPDoer interface {
	Do(req *http.Request) (*http.Response, error)
}

// MaxElevationSamples caps the coordinates sent to an elevation provider per
// segment.
const MaxElevationSamples = 100

// ErrNoResult is returned when a provider answered but had nothing usable.
var ErrNoResult = errors.New("no result")

// DefaultHTTPClient is used when an adapter is constructed without a doer.
func DefaultHTTPClient(timeout time.Duration) *http.Client {
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &http.Client{Timeout: timeout}
}

// GetJSON issues a GET and decodes a 2xx JSON body into out. Every call is
// recorded under adapter in the adapter metrics.
func GetJSON(ctx context.Context, doer HTTPDoer, adapter, requestURL string, header http.Header, out any) (err error) {
	start := time.Now()
	defer func() {
		result := "ok"
		if err != nil {
			result = "error"
		}
		metrics.Observe(adapter, result, time.Since(start).Seconds())
	}()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, requestURL, nil)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	for k, vs := range header {
		for _, v := range vs {
			req.Header.Add(k, v)
		}
	}

	resp, err := doer.Do(req)
	if err != nil {
		return fmt.Errorf("failed to execute request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusTooManyRequests {
		return fmt.Errorf("%s: rate limit exceeded", adapter)
	}
	if resp.StatusCode >= 400 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return fmt.Errorf("%s: API error %d: %s", adapter, resp.StatusCode, string(body))
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("failed to decode response: %w", err)
	}
	return nil
}

// Sample returns at most limit items of xs, keeping every step-th one where
// step = ceil(len/limit).
func Sample[T any](xs []T, limit int) []T {
	if limit <= 0 || len(xs) <= limit {
		return xs
	}
	step := (len(xs) + limit - 1) / limit
	out := make([]T, 0, limit)
	for i := 0; i < len(xs); i += step {
		out = append(out, xs[i])
	}
	return out
}
