// Package srtm serves elevations from SRTM tiles, downloaded on first use and
// cached by go-elevations.
package srtm

import (
	"context"
	"fmt"
	"math"
	"net/http"
	"time"

	"github.com/tkrajina/go-elevations/geoelevations"
	"go.uber.org/zap"

	"backend-routesmith/internal/clients"
	"backend-routesmith/internal/metrics"
	"backend-routesmith/internal/shared/geo"
)

// Lookup is satisfied by *geoelevations.Srtm.
type Lookup interface {
	GetElevation(client *http.Client, lat, lon float64) (float64, error)
}

type Client struct {
	lookup Lookup
	http   *http.Client
	logger *zap.Logger
}

func NewClient(timeout time.Duration, logger *zap.Logger) (*Client, error) {
	httpClient := &http.Client{Timeout: timeout}
	srtm, err := geoelevations.NewSrtm(httpClient)
	if err != nil {
		return nil, fmt.Errorf("init srtm: %w", err)
	}
	return NewClientWithLookup(srtm, httpClient, logger), nil
}

func NewClientWithLookup(lookup Lookup, httpClient *http.Client, logger *zap.Logger) *Client {
	if logger == nil {
		logger = zap.NewNop()
	}
	if httpClient == nil {
		httpClient = http.DefaultClient
	}
	return &Client{lookup: lookup, http: httpClient, logger: logger}
}

// Elevations uses the same sampling as the Open-Meteo adapter. Void cells are
// skipped, so the result may be shorter than the sample.
func (c *Client) Elevations(ctx context.Context, coords []geo.Position) (_ []float64, err error) {
	start := time.Now()
	defer func() {
		result := "ok"
		if err != nil {
			result = "error"
		}
		metrics.Observe("srtm", result, time.Since(start).Seconds())
	}()

	sampled := clients.Sample(coords, clients.MaxElevationSamples)
	out := make([]float64, 0, len(sampled))
	for _, p := range sampled {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		ele, err := c.lookup.GetElevation(c.http, p.Lat(), p.Lng())
		if err != nil {
			return nil, fmt.Errorf("srtm %.5f,%.5f: %w", p.Lat(), p.Lng(), err)
		}
		if math.IsNaN(ele) {
			continue
		}
		out = append(out, ele)
	}
	return out, nil
}
