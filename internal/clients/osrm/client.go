package osrm

import (
	"context"
	"fmt"
	"net/url"
	"time"

	"go.uber.org/zap"

	"backend-routesmith/internal/clients"
	"backend-routesmith/internal/planner"
	"backend-routesmith/internal/shared/geo"
)

const DefaultBaseURL = "https://router.project-osrm.org"

// Client is a planner.Router backed by an OSRM route service.
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

type routeResponse struct {
	Code    string `json:"code"`
	Message string `json:"message"`
	Routes  []struct {
		Geometry string  `json:"geometry"`
		Distance float64 `json:"distance"`
	} `json:"routes"`
}

// osrmProfile maps planner profiles onto the names OSRM deployments use.
func osrmProfile(p planner.Profile) string {
	switch p {
	case planner.ProfileCycling:
		return "bike"
	case planner.ProfileDriving:
		return "car"
	}
	return "foot"
}

func (c *Client) Directions(ctx context.Context, from, to geo.LngLat, profile planner.Profile) (*planner.Directions, error) {
	params := url.Values{}
	params.Set("overview", "full")
	params.Set("geometries", "polyline")
	requestURL := fmt.Sprintf("%s/route/v1/%s/%f,%f;%f,%f?%s",
		c.baseURL, osrmProfile(profile), from.Lng(), from.Lat(), to.Lng(), to.Lat(), params.Encode())

	var resp routeResponse
	if err := clients.GetJSON(ctx, c.http, "osrm", requestURL, nil, &resp); err != nil {
		return nil, err
	}
	if resp.Code != "Ok" || len(resp.Routes) == 0 {
		c.logger.Debug("osrm returned no route", zap.String("code", resp.Code), zap.String("message", resp.Message))
		return nil, clients.ErrNoResult
	}

	line, err := geo.DecodePolyline(resp.Routes[0].Geometry)
	if err != nil {
		return nil, err
	}
	if len(line.Coordinates) < 2 {
		return nil, clients.ErrNoResult
	}
	return &planner.Directions{Geometry: line, Distance: resp.Routes[0].Distance}, nil
}
