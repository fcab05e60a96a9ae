package openmeteo

import (
	"context"
	"fmt"
	"net/url"
	"strings"
	"time"

	"go.uber.org/zap"

	"backend-routesmith/internal/clients"
	"backend-routesmith/internal/shared/geo"
)

const DefaultBaseURL = "https://api.open-meteo.com"

// Client is a planner.ElevationSource backed by the Open-Meteo elevation API.
type Client struct {
	baseURL string
	http    clients.HTTPDoer
	logger  *zap.Logger
}

func NewClient(baseURL string, timeout time.Duration, logger *zap.Logger) *Client {
	return NewClientWithHTTPDoer(baseURL, clients.DefaultHTTPClient(timeout), logger)
}

func NewClientWithHTTPDoer(baseURL string, doer clients.HTTPDoer, logger *zap.Logger) *Client {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Client{baseURL: baseURL, http: doer, logger: logger}
}

type elevationResponse struct {
	Elevation []float64 `json:"elevation"`
}

// Elevations samples at most clients.MaxElevationSamples of coords, evenly by index.
func (c *Client) Elevations(ctx context.Context, coords []geo.Position) ([]float64, error) {
	sampled := clients.Sample(coords, clients.MaxElevationSamples)
	if len(sampled) == 0 {
		return nil, nil
	}

	lats := make([]string, len(sampled))
	lngs := make([]string, len(sampled))
	for i, p := range sampled {
		lats[i] = fmt.Sprintf("%.6f", p.Lat())
		lngs[i] = fmt.Sprintf("%.6f", p.Lng())
	}
	params := url.Values{}
	params.Set("latitude", strings.Join(lats, ","))
	params.Set("longitude", strings.Join(lngs, ","))
	requestURL := fmt.Sprintf("%s/v1/elevation?%s", c.baseURL, params.Encode())

	var resp elevationResponse
	if err := clients.GetJSON(ctx, c.http, "open_meteo", requestURL, nil, &resp); err != nil {
		return nil, err
	}
	if len(resp.Elevation) != len(sampled) {
		c.logger.Debug("open-meteo sample count mismatch",
			zap.Int("sent", len(sampled)), zap.Int("received", len(resp.Elevation)))
	}
	return resp.Elevation, nil
}
