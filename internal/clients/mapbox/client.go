package mapbox

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"time"

	"go.uber.org/zap"

	"backend-routesmith/internal/clients"
	"backend-routesmith/internal/planner"
	"backend-routesmith/internal/shared/geo"
)

const DefaultBaseURL = "https://api.mapbox.com"

var ErrNoToken = errors.New("mapbox: access token not configured")

// Client talks to the Mapbox Directions v5 and Geocoding v5 APIs. It serves as
// both planner.Router and planner.PlaceNamer.
type Client struct {
	token   string
	baseURL string
	http    clients.HTTPDoer
	logger  *zap.Logger
}

func NewClient(token string, timeout time.Duration, logger *zap.Logger) *Client {
	return NewClientWithHTTPDoer(token, DefaultBaseURL, clients.DefaultHTTPClient(timeout), logger)
}

func NewClientWithHTTPDoer(token, baseURL string, doer clients.HTTPDoer, logger *zap.Logger) *Client {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Client{token: token, baseURL: baseURL, http: doer, logger: logger}
}

type directionsResponse struct {
	Code   string `json:"code"`
	Routes []struct {
		Distance float64        `json:"distance"`
		Geometry geo.LineString `json:"geometry"`
	} `json:"routes"`
}

// Directions returns the first route between from and to.
func (c *Client) Directions(ctx context.Context, from, to geo.LngLat, profile planner.Profile) (*planner.Directions, error) {
	if c.token == "" {
		return nil, ErrNoToken
	}
	if profile == "" {
		profile = planner.ProfileWalking
	}

	params := url.Values{}
	params.Set("geometries", "geojson")
	params.Set("annotations", "distance")
	params.Set("access_token", c.token)
	requestURL := fmt.Sprintf("%s/directions/v5/mapbox/%s/%s;%s?%s",
		c.baseURL, profile, coord(from), coord(to), params.Encode())

	var resp directionsResponse
	if err := clients.GetJSON(ctx, c.http, "mapbox_directions", requestURL, nil, &resp); err != nil {
		return nil, err
	}
	if len(resp.Routes) == 0 {
		c.logger.Debug("mapbox returned no route", zap.String("code", resp.Code))
		return nil, clients.ErrNoResult
	}

	route := resp.Routes[0]
	line := geo.NewLineString(route.Geometry.Coordinates...)
	if !geo.Complete(line) {
		c.logger.Debug("mapbox route geometry is incomplete", zap.Int("coordinates", len(line.Coordinates)))
		return nil, clients.ErrNoResult
	}
	return &planner.Directions{Geometry: line, Distance: route.Distance}, nil
}

type geocodeResponse struct {
	Features []struct {
		Text      string `json:"text"`
		PlaceName string `json:"place_name"`
	} `json:"features"`
}

// PlaceName reverse-geocodes to the most specific place, locality or
// neighborhood name.
func (c *Client) PlaceName(ctx context.Context, lng, lat float64) (string, error) {
	if c.token == "" {
		return "", ErrNoToken
	}

	params := url.Values{}
	params.Set("types", "place,locality,neighborhood")
	params.Set("access_token", c.token)
	requestURL := fmt.Sprintf("%s/geocoding/v5/mapbox.places/%s.json?%s",
		c.baseURL, coord(geo.LngLat{lng, lat}), params.Encode())

	var resp geocodeResponse
	if err := clients.GetJSON(ctx, c.http, "mapbox_geocoding", requestURL, nil, &resp); err != nil {
		return "", err
	}
	if len(resp.Features) == 0 || resp.Features[0].Text == "" {
		return "", clients.ErrNoResult
	}
	return resp.Features[0].Text, nil
}

func coord(p geo.LngLat) string {
	return fmt.Sprintf("%f,%f", p.Lng(), p.Lat())
}
