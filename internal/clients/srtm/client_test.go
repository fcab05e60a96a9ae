package srtm

import (
	"context"
	"errors"
	"math"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"backend-routesmith/internal/shared/geo"
)

type fakeLookup struct {
	calls int
	fail  bool
}

func (f *fakeLookup) GetElevation(_ *http.Client, lat, _ float64) (float64, error) {
	f.calls++
	if f.fail {
		return 0, errors.New("tile unavailable")
	}
	if lat < 0 {
		return math.NaN(), nil
	}
	return lat * 1000, nil
}

func TestElevations(t *testing.T) {
	lookup := &fakeLookup{}
	c := NewClientWithLookup(lookup, nil, nil)

	got, err := c.Elevations(context.Background(), []geo.Position{{7, 0.5}, {7, -1}, {7, 1.5}})
	require.NoError(t, err)
	assert.Equal(t, []float64{500, 1500}, got)
	assert.Equal(t, 3, lookup.calls)
}

func TestElevationsSamples(t *testing.T) {
	lookup := &fakeLookup{}
	c := NewClientWithLookup(lookup, nil, nil)

	coords := make([]geo.Position, 1000)
	for i := range coords {
		coords[i] = geo.Position{0, 1}
	}
	_, err := c.Elevations(context.Background(), coords)
	require.NoError(t, err)
	assert.Equal(t, 100, lookup.calls)
}

func TestElevationsFailure(t *testing.T) {
	c := NewClientWithLookup(&fakeLookup{fail: true}, nil, nil)
	got, err := c.Elevations(context.Background(), []geo.Position{{0, 1}})
	assert.Error(t, err)
	assert.Nil(t, got)
}

func TestElevationsCancelled(t *testing.T) {
	lookup := &fakeLookup{}
	c := NewClientWithLookup(lookup, nil, nil)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := c.Elevations(ctx, []geo.Position{{0, 1}})
	assert.ErrorIs(t, err, context.Canceled)
	assert.Zero(t, lookup.calls)
}
