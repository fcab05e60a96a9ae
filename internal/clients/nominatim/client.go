package nominatim

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"time"

	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"backend-routesmith/internal/clients"
)

const (
	DefaultBaseURL = "https://nominatim.openstreetmap.org"
	userAgent      = "routesmith/1.0 (route planner)"
)

// Client is a planner.PlaceNamer backed by the OpenStreetMap Nominatim reverse
// geocoder. The public instance allows one request per second.
type Client struct {
	baseURL string
	http    clients.HTTPDoer
	limiter *rate.Limiter
	logger  *zap.Logger
}

func NewClient(baseURL string, timeout time.Duration, logger *zap.Logger) *Client {
	return NewClientWithHTTPDoer(baseURL, clients.DefaultHTTPClient(timeout), rate.NewLimiter(rate.Every(time.Second), 1), logger)
}

func NewClientWithHTTPDoer(baseURL string, doer clients.HTTPDoer, limiter *rate.Limiter, logger *zap.Logger) *Client {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	if limiter == nil {
		limiter = rate.NewLimiter(rate.Inf, 1)
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Client{baseURL: baseURL, http: doer, limiter: limiter, logger: logger}
}

type reverseResponse struct {
	Error   string `json:"error"`
	Name    string `json:"name"`
	Address struct {
		City          string `json:"city"`
		Town          string `json:"town"`
		Village       string `json:"village"`
		Hamlet        string `json:"hamlet"`
		Suburb        string `json:"suburb"`
		Neighbourhood string `json:"neighbourhood"`
	} `json:"address"`
}

// place picks the closest equivalent of Mapbox's place/locality/neighborhood.
func (r reverseResponse) place() string {
	a := r.Address
	for _, s := range []string{a.City, a.Town, a.Village, a.Hamlet, a.Suburb, a.Neighbourhood, r.Name} {
		if s != "" {
			return s
		}
	}
	return ""
}

func (c *Client) PlaceName(ctx context.Context, lng, lat float64) (string, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return "", fmt.Errorf("nominatim rate limit wait: %w", err)
	}

	params := url.Values{}
	params.Set("format", "jsonv2")
	params.Set("lat", fmt.Sprintf("%.6f", lat))
	params.Set("lon", fmt.Sprintf("%.6f", lng))
	params.Set("zoom", "14")
	requestURL := fmt.Sprintf("%s/reverse?%s", c.baseURL, params.Encode())

	header := http.Header{}
	header.Set("User-Agent", userAgent)

	var resp reverseResponse
	if err := clients.GetJSON(ctx, c.http, "nominatim", requestURL, header, &resp); err != nil {
		return "", err
	}
	if resp.Error != "" {
		c.logger.Debug("nominatim reverse failed", zap.String("error", resp.Error))
		return "", clients.ErrNoResult
	}
	name := resp.place()
	if name == "" {
		return "", clients.ErrNoResult
	}
	return name, nil
}
