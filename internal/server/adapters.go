package server

import (
	"fmt"

	"backend-routesmith/internal/clients"
	"backend-routesmith/internal/clients/geocache"
	"backend-routesmith/internal/clients/mapbox"
	"backend-routesmith/internal/clients/nominatim"
	"backend-routesmith/internal/clients/openmeteo"
	"backend-routesmith/internal/clients/osrm"
	"backend-routesmith/internal/clients/srtm"
	"backend-routesmith/internal/config"
	"backend-routesmith/internal/planner"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

// Adapters are the external services every planning engine shares. A nil
// field means the capability is switched off.
type Adapters struct {
	Router    planner.Router
	Elevation planner.ElevationSource
	Placer    planner.PlaceNamer
}

var newSRTMFn = srtm.NewClient

// BuildAdapters picks the routing, elevation and geocoding providers named in
// cfg. Place names are cached in Redis when a client is given.
func BuildAdapters(cfg config.Config, rdb *redis.Client, logger *zap.Logger) (Adapters, error) {
	var a Adapters
	httpClient := clients.DefaultHTTPClient(cfg.AdapterTimeout)

	switch cfg.RoutingProvider {
	case "", "none":
	case "mapbox":
		a.Router = mapbox.NewClientWithHTTPDoer(cfg.MapboxToken, cfg.MapboxBaseURL, httpClient, logger)
	case "osrm":
		a.Router = osrm.NewClientWithHTTPDoer(cfg.OSRMBaseURL, httpClient, logger)
	default:
		return Adapters{}, fmt.Errorf("unknown routing provider %q", cfg.RoutingProvider)
	}

	switch cfg.ElevationProvider {
	case "", "none":
	case "open-meteo":
		a.Elevation = openmeteo.NewClientWithHTTPDoer(cfg.OpenMeteoBaseURL, httpClient, logger)
	case "srtm":
		client, err := newSRTMFn(cfg.AdapterTimeout, logger)
		if err != nil {
			return Adapters{}, fmt.Errorf("srtm elevation: %w", err)
		}
		a.Elevation = client
	default:
		return Adapters{}, fmt.Errorf("unknown elevation provider %q", cfg.ElevationProvider)
	}

	var placer planner.PlaceNamer
	switch cfg.Geocoder {
	case "", "none":
	case "mapbox":
		placer = mapbox.NewClientWithHTTPDoer(cfg.MapboxToken, cfg.MapboxBaseURL, httpClient, logger)
	case "nominatim":
		placer = nominatim.NewClient(cfg.NominatimBaseURL, cfg.AdapterTimeout, logger)
	default:
		return Adapters{}, fmt.Errorf("unknown geocoder %q", cfg.Geocoder)
	}
	if placer != nil {
		ttl := cfg.GeocodeCacheTTL
		if ttl <= 0 {
			ttl = geocache.DefaultTTL
		}
		a.Placer = geocache.New(rdb, placer, ttl, logger)
	}
	return a, nil
}
