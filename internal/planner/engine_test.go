package planner

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"backend-routesmith/internal/shared/geo"
)

type fakeRouter struct {
	mu    sync.Mutex
	calls int
	err   error
	// gate, when set, blocks each call until a value is received
	gate chan struct{}
}

func (f *fakeRouter) Directions(ctx context.Context, from, to geo.LngLat, _ Profile) (*Directions, error) {
	f.mu.Lock()
	f.calls++
	err := f.err
	gate := f.gate
	f.mu.Unlock()
	if gate != nil {
		select {
		case <-gate:
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
	if err != nil {
		return nil, err
	}
	mid := geo.Position{(from.Lng() + to.Lng()) / 2, (from.Lat() + to.Lat()) / 2}
	return &Directions{
		Geometry: geo.NewLineString(from.Position(), mid, to.Position()),
		Distance: 1000,
	}, nil
}

func (f *fakeRouter) Calls() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls
}

type fakeElevation struct {
	values []float64
	err    error
}

func (f fakeElevation) Elevations(context.Context, []geo.Position) ([]float64, error) {
	return f.values, f.err
}

type fakePlacer struct {
	name  string
	err   error
	delay chan struct{}
}

func (f fakePlacer) PlaceName(ctx context.Context, _, _ float64) (string, error) {
	if f.delay != nil {
		<-f.delay
	}
	return f.name, f.err
}

func seqIDs() func() string {
	var n int64
	return func() string { return fmt.Sprintf("id-%d", atomic.AddInt64(&n, 1)) }
}

func newTestEngine(r Router, e ElevationSource, p PlaceNamer, opts ...Option) *Engine {
	return NewEngine(r, e, p, append([]Option{WithIDGenerator(seqIDs())}, opts...)...)
}

func kinds(s Snapshot) []Kind {
	out := make([]Kind, len(s.Waypoints))
	for i, w := range s.Waypoints {
		out[i] = w.Kind
	}
	return out
}

func TestFirstWaypointIsStart(t *testing.T) {
	r := &fakeRouter{}
	e := newTestEngine(r, nil, nil)

	snap := e.AddRoutingWaypoint(context.Background(), 10, 45)
	require.Len(t, snap.Waypoints, 1)
	assert.Equal(t, KindStart, snap.Waypoints[0].Kind)
	assert.Empty(t, snap.Segments)
	assert.Nil(t, snap.Geometry)
	assert.Zero(t, snap.TotalDistance)
	assert.Zero(t, r.Calls())
}

func TestRoutingWaypointsAreLabelled(t *testing.T) {
	e := newTestEngine(&fakeRouter{}, nil, nil)
	ctx := context.Background()

	e.AddRoutingWaypoint(ctx, 10, 45)
	e.AddRoutingWaypoint(ctx, 10.01, 45)
	e.AddPOI(ctx, 10.02, 45.01, POIWater)
	snap := e.AddRoutingWaypoint(ctx, 10.02, 45)

	assert.Equal(t, []Kind{KindStart, KindRoute, KindPOI, KindEnd}, kinds(snap))
	require.Len(t, snap.Segments, 2)
	assert.Equal(t, 2000.0, snap.TotalDistance)
	assert.False(t, snap.IsFetching)

	// second segment starts at the previous routing waypoint, not the poi
	first := snap.Segments[1].Geometry.Coordinates[0]
	assert.Equal(t, 10.01, first.Lng())
}

func TestRoutingFailureFallsBackToStraightLine(t *testing.T) {
	e := newTestEngine(&fakeRouter{err: errors.New("503")}, nil, nil)
	ctx := context.Background()

	e.AddRoutingWaypoint(ctx, 0, 0)
	snap := e.AddRoutingWaypoint(ctx, 0, 0.01)

	require.Len(t, snap.Segments, 1)
	seg := snap.Segments[0]
	assert.Len(t, seg.Geometry.Coordinates, 2)
	assert.InDelta(t, geo.DistanceMeters(0, 0, 0, 0.01), seg.Distance, 1e-6)
	assert.Equal(t, seg.Distance, snap.TotalDistance)
}

func TestManualModeSkipsRouter(t *testing.T) {
	r := &fakeRouter{}
	e := newTestEngine(r, nil, nil)
	ctx := context.Background()

	e.SetManualMode(true)
	e.AddRoutingWaypoint(ctx, 0, 0)
	snap := e.AddRoutingWaypoint(ctx, 0.01, 0)

	assert.Zero(t, r.Calls())
	require.Len(t, snap.Segments, 1)
	assert.Len(t, snap.Segments[0].Geometry.Coordinates, 2)
	assert.True(t, snap.IsManualMode)
}

func TestElevationProfileDistributedByIndex(t *testing.T) {
	e := newTestEngine(&fakeRouter{}, fakeElevation{values: []float64{100, 104, 103, 110}}, nil)
	ctx := context.Background()

	e.AddRoutingWaypoint(ctx, 0, 0)
	snap := e.AddRoutingWaypoint(ctx, 0.01, 0)

	require.Len(t, snap.ElevationProfile, 4)
	assert.InDelta(t, 1000.0/3, snap.ElevationProfile[1].Distance, 1e-9)
	assert.Equal(t, 1000.0, snap.ElevationProfile[3].Distance)
	// 100 -> 104 counts 4, 103 lowers the reference, 110 counts 7
	assert.Equal(t, 11.0, snap.TotalElevationGain)
	require.NotNil(t, snap.MinElevation)
	assert.Equal(t, 100.0, *snap.MinElevation)
	assert.Equal(t, 110.0, *snap.MaxElevation)
}

func TestElevationFailureLeavesNoProfile(t *testing.T) {
	e := newTestEngine(&fakeRouter{}, fakeElevation{err: errors.New("timeout")}, nil)
	ctx := context.Background()

	e.AddRoutingWaypoint(ctx, 0, 0)
	snap := e.AddRoutingWaypoint(ctx, 0.01, 0)

	assert.Empty(t, snap.ElevationProfile)
	assert.Zero(t, snap.TotalElevationGain)
	assert.Nil(t, snap.MinElevation)
	assert.Nil(t, snap.MaxElevation)
}

func TestReadOnlyBlocksEdits(t *testing.T) {
	e := newTestEngine(&fakeRouter{}, nil, nil)
	ctx := context.Background()
	e.AddRoutingWaypoint(ctx, 0, 0)
	e.SetReadOnly(true)

	before := e.Snapshot()
	e.AddRoutingWaypoint(ctx, 1, 1)
	e.AddPOI(ctx, 1, 1, POIHazard)
	e.RemoveWaypoint(ctx, before.Waypoints[0].ID)
	e.UndoLastWaypoint(ctx)
	lng := 5.0
	e.UpdateWaypoint(ctx, before.Waypoints[0].ID, WaypointPatch{Lng: &lng})

	after := e.Snapshot()
	assert.Equal(t, before.Waypoints, after.Waypoints)
	assert.Equal(t, before.Revision, after.Revision)
}

func TestAddPOIDoesNotTouchRoute(t *testing.T) {
	r := &fakeRouter{}
	e := newTestEngine(r, nil, nil)
	ctx := context.Background()
	e.AddRoutingWaypoint(ctx, 0, 0)
	before := e.AddRoutingWaypoint(ctx, 0.01, 0)
	calls := r.Calls()

	snap := e.AddPOI(ctx, 0.005, 0.001, POICamera)
	assert.Equal(t, calls, r.Calls())
	assert.Equal(t, before.Segments, snap.Segments)
	assert.Equal(t, before.TotalDistance, snap.TotalDistance)
	assert.Equal(t, POICamera, snap.Waypoints[2].POIKind)

	// unknown kinds are ignored
	snap = e.AddPOI(ctx, 0, 0, POIKind("bear"))
	assert.Len(t, snap.Waypoints, 3)
}

func TestUpdateWaypointMetadataOnly(t *testing.T) {
	r := &fakeRouter{}
	e := newTestEngine(r, nil, nil)
	ctx := context.Background()
	first := e.AddRoutingWaypoint(ctx, 0, 0)
	e.AddRoutingWaypoint(ctx, 0.01, 0)
	calls := r.Calls()

	comment := "spring here"
	snap := e.UpdateWaypoint(ctx, first.Waypoints[0].ID, WaypointPatch{Comment: &comment})
	assert.Equal(t, "spring here", snap.Waypoints[0].Comment)
	assert.Equal(t, calls, r.Calls())
}

func TestUpdateWaypointRebuildsAdjacentSegments(t *testing.T) {
	r := &fakeRouter{}
	e := newTestEngine(r, nil, nil)
	ctx := context.Background()
	e.AddRoutingWaypoint(ctx, 0, 0)
	mid := e.AddRoutingWaypoint(ctx, 0.01, 0)
	e.AddRoutingWaypoint(ctx, 0.02, 0)
	before := e.AddRoutingWaypoint(ctx, 0.03, 0)
	calls := r.Calls()

	lat := 0.005
	snap := e.UpdateWaypoint(ctx, mid.Waypoints[1].ID, WaypointPatch{Lat: &lat})

	assert.Equal(t, calls+2, r.Calls())
	require.Len(t, snap.Segments, 3)
	assert.NotEqual(t, before.Segments[0].ID, snap.Segments[0].ID)
	assert.NotEqual(t, before.Segments[1].ID, snap.Segments[1].ID)
	assert.Equal(t, before.Segments[2].ID, snap.Segments[2].ID)
	assert.Equal(t, 0.005, snap.Segments[0].Geometry.Coordinates[2].Lat())
	assert.Equal(t, 0.005, snap.Segments[1].Geometry.Coordinates[0].Lat())
	assert.Equal(t, 0.005, snap.Waypoints[1].Lat)
	assert.False(t, snap.IsFetching)
}

func TestUpdateEndWaypointRebuildsOneSegment(t *testing.T) {
	r := &fakeRouter{}
	e := newTestEngine(r, nil, nil)
	ctx := context.Background()
	e.AddRoutingWaypoint(ctx, 0, 0)
	snap := e.AddRoutingWaypoint(ctx, 0.01, 0)
	calls := r.Calls()

	lng := 0.02
	snap = e.UpdateWaypoint(ctx, snap.Waypoints[1].ID, WaypointPatch{Lng: &lng})
	assert.Equal(t, calls+1, r.Calls())
	assert.Len(t, snap.Segments, 1)
}

func TestPOIKindCannotLandOnRoutingWaypoint(t *testing.T) {
	e := newTestEngine(nil, nil, nil)
	snap := e.AddRoutingWaypoint(context.Background(), 0, 0)

	kind := POIWater
	snap = e.UpdateWaypoint(context.Background(), snap.Waypoints[0].ID, WaypointPatch{POIKind: &kind})
	assert.Empty(t, snap.Waypoints[0].POIKind)
	assert.NoError(t, snap.Waypoints[0].Validate())
}

func TestUndoLastWaypoint(t *testing.T) {
	e := newTestEngine(&fakeRouter{}, nil, nil)
	ctx := context.Background()
	e.AddRoutingWaypoint(ctx, 0, 0)
	e.AddRoutingWaypoint(ctx, 0.01, 0)
	e.AddRoutingWaypoint(ctx, 0.02, 0)
	e.AddPOI(ctx, 0.005, 0, POIHazard)

	snap := e.UndoLastWaypoint(ctx)
	assert.Equal(t, []Kind{KindStart, KindRoute, KindEnd}, kinds(snap))
	assert.Len(t, snap.Segments, 2)

	snap = e.UndoLastWaypoint(ctx)
	assert.Equal(t, []Kind{KindStart, KindEnd}, kinds(snap))
	assert.Len(t, snap.Segments, 1)
	assert.Equal(t, 1000.0, snap.TotalDistance)

	snap = e.UndoLastWaypoint(ctx)
	assert.Equal(t, []Kind{KindStart}, kinds(snap))
	assert.Empty(t, snap.Segments)
	assert.Nil(t, snap.Geometry)

	snap = e.UndoLastWaypoint(ctx)
	assert.Empty(t, snap.Waypoints)
	assert.Equal(t, DefaultRouteName, snap.RouteName)

	rev := snap.Revision
	snap = e.UndoLastWaypoint(ctx)
	assert.Equal(t, rev, snap.Revision)
}

func TestAddThenUndoRestoresState(t *testing.T) {
	e := newTestEngine(&fakeRouter{}, fakeElevation{values: []float64{1, 5, 9}}, nil)
	ctx := context.Background()
	e.AddRoutingWaypoint(ctx, 0, 0)
	before := e.AddRoutingWaypoint(ctx, 0.01, 0)

	e.AddRoutingWaypoint(ctx, 0.02, 0)
	after := e.UndoLastWaypoint(ctx)

	assert.Equal(t, before.Waypoints, after.Waypoints)
	assert.Equal(t, before.Segments, after.Segments)
	assert.Equal(t, before.TotalDistance, after.TotalDistance)
	assert.Equal(t, before.TotalElevationGain, after.TotalElevationGain)
}

func TestRemoveWaypoint(t *testing.T) {
	e := newTestEngine(&fakeRouter{}, nil, nil)
	ctx := context.Background()
	e.AddRoutingWaypoint(ctx, 0, 0)
	e.AddRoutingWaypoint(ctx, 0.01, 0)
	e.AddPOI(ctx, 0.005, 0, POIClosed)
	snap := e.AddRoutingWaypoint(ctx, 0.02, 0)

	poi := snap.Waypoints[2]
	snap = e.RemoveWaypoint(ctx, poi.ID)
	assert.Len(t, snap.Waypoints, 3)
	assert.Len(t, snap.Segments, 2)

	snap = e.RemoveWaypoint(ctx, "missing")
	assert.Len(t, snap.Waypoints, 3)

	snap = e.RemoveWaypoint(ctx, snap.Waypoints[0].ID)
	assert.Equal(t, []Kind{KindStart, KindEnd}, kinds(snap))
	assert.Empty(t, snap.Segments)
	assert.Zero(t, snap.TotalDistance)
	assert.Nil(t, snap.Geometry)
}

func TestClearRoute(t *testing.T) {
	e := newTestEngine(&fakeRouter{}, nil, nil)
	ctx := context.Background()
	e.SetManualMode(true)
	e.AddRoutingWaypoint(ctx, 0, 0)
	e.AddRoutingWaypoint(ctx, 0.01, 0)
	e.SetRouteName("Ridge loop")
	e.SetRouteID("r-1")
	e.SetReadOnly(true)

	snap := e.ClearRoute(ctx)
	assert.Empty(t, snap.Waypoints)
	assert.Empty(t, snap.Segments)
	assert.Equal(t, DefaultRouteName, snap.RouteName)
	assert.Empty(t, snap.RouteID)
	assert.False(t, snap.IsReadOnly)
	assert.True(t, snap.IsManualMode)
	assert.Nil(t, snap.HoveredDistance)
}

func TestImportRoute(t *testing.T) {
	e := newTestEngine(nil, nil, nil)
	line := geo.NewLineString(
		geo.Position{0, 0, 100},
		geo.Position{0, 0.001, 105},
		geo.Position{0, 0.002, 0},
		geo.Position{0, 0.003, 110},
	)
	feature := geo.NewLineFeature(line)
	feature.Properties = map[string]any{"name": "Morning hike"}
	fc := geo.FeatureCollection{Type: geo.TypeFeatureCollection, Features: []geo.Feature{feature}}

	snap := e.ImportRoute(context.Background(), fc)
	assert.Equal(t, []Kind{KindStart, KindEnd}, kinds(snap))
	require.Len(t, snap.Segments, 1)
	assert.Len(t, snap.Segments[0].Geometry.Coordinates, 4)
	assert.InDelta(t, geo.LineLength(line), snap.TotalDistance, 1e-6)
	assert.True(t, snap.IsReadOnly)
	assert.True(t, snap.ShouldFitBounds)
	assert.Equal(t, "Morning hike", snap.RouteName)
	require.Len(t, snap.ElevationProfile, 4)
	// 100 -> 105 counts 5; 0 lowers reference; 110 counts 110
	assert.Equal(t, 115.0, snap.TotalElevationGain)
	require.NotNil(t, snap.Waypoints[0].Elevation)
	assert.Equal(t, 100.0, *snap.Waypoints[0].Elevation)
}

func TestImportRouteDefaultsAndRejects(t *testing.T) {
	e := newTestEngine(nil, nil, nil)
	ctx := context.Background()

	short := geo.FeatureCollection{Features: []geo.Feature{geo.NewLineFeature(geo.NewLineString(geo.Position{0, 0}))}}
	snap := e.ImportRoute(ctx, short)
	assert.Empty(t, snap.Waypoints)
	assert.False(t, snap.IsReadOnly)

	snap = e.ImportRoute(ctx, geo.FeatureCollection{})
	assert.Empty(t, snap.Waypoints)

	flat := geo.FeatureCollection{Features: []geo.Feature{geo.NewLineFeature(geo.NewLineString(geo.Position{0, 0}, geo.Position{0, 0.001}))}}
	snap = e.ImportRoute(ctx, flat)
	assert.Equal(t, "Imported Route", snap.RouteName)
	assert.Empty(t, snap.ElevationProfile)
	assert.Nil(t, snap.MinElevation)
}

func TestRestore(t *testing.T) {
	e := newTestEngine(nil, nil, nil)
	seg := Segment{ID: "s1", Geometry: geo.NewLineString(geo.Position{0, 0}, geo.Position{0, 0.01}), Distance: 1112}
	snap, err := e.Restore(context.Background(), RestoreInput{
		RouteID: "r-9",
		Name:    "Saved",
		Waypoints: []Waypoint{
			{ID: "a", Kind: KindStart},
			{ID: "b", Lat: 0.01, Kind: KindEnd},
			{ID: "c", Kind: KindPOI, POIKind: POIWater},
		},
		Segments: []Segment{seg},
	})
	require.NoError(t, err)
	assert.Equal(t, "r-9", snap.RouteID)
	assert.Equal(t, 1112.0, snap.TotalDistance)
	assert.True(t, snap.IsReadOnly)
	assert.True(t, snap.ShouldFitBounds)

	_, err = e.Restore(context.Background(), RestoreInput{Waypoints: []Waypoint{{ID: "x", Kind: KindStart, POIKind: POIWater}}})
	assert.Error(t, err)
}

func TestPlaceNameSetsRouteName(t *testing.T) {
	names := make(chan string, 8)
	e := newTestEngine(nil, nil, fakePlacer{name: "Chamonix"}, WithObserver(func(s Snapshot) {
		names <- s.RouteName
	}))
	e.AddRoutingWaypoint(context.Background(), 6.86, 45.92)

	deadline := time.After(2 * time.Second)
	for {
		select {
		case n := <-names:
			if n == "Route near Chamonix" {
				return
			}
		case <-deadline:
			t.Fatalf("route was never named, last snapshot %q", e.Snapshot().RouteName)
		}
	}
}

func TestPlaceNameDiscardedAfterClear(t *testing.T) {
	release := make(chan struct{})
	e := newTestEngine(nil, nil, fakePlacer{name: "Zermatt", delay: release})
	ctx := context.Background()

	e.AddRoutingWaypoint(ctx, 7.74, 46.02)
	e.ClearRoute(ctx)
	close(release)

	time.Sleep(50 * time.Millisecond)
	assert.Equal(t, DefaultRouteName, e.Snapshot().RouteName)
}

func TestPlaceNameKeepsUserName(t *testing.T) {
	release := make(chan struct{})
	e := newTestEngine(nil, nil, fakePlacer{name: "Zermatt", delay: release})

	e.AddRoutingWaypoint(context.Background(), 7.74, 46.02)
	e.SetRouteName("Matterhorn base")
	close(release)

	time.Sleep(50 * time.Millisecond)
	assert.Equal(t, "Matterhorn base", e.Snapshot().RouteName)
}

func TestPlaceNameReplacesEmptyName(t *testing.T) {
	e := newTestEngine(nil, nil, fakePlacer{name: "Annecy"})
	e.SetRouteName("")
	e.AddRoutingWaypoint(context.Background(), 6.13, 45.9)

	require.Eventually(t, func() bool {
		return e.Snapshot().RouteName == "Route near Annecy"
	}, 2*time.Second, 5*time.Millisecond)
}

func TestReadOnlyDuringFetchDropsSegment(t *testing.T) {
	gate := make(chan struct{})
	e := newTestEngine(&fakeRouter{gate: gate}, nil, nil)
	ctx := context.Background()
	e.AddRoutingWaypoint(ctx, 0, 0)

	done := make(chan Snapshot, 1)
	go func() { done <- e.AddRoutingWaypoint(ctx, 0.01, 0) }()
	require.Eventually(t, func() bool { return e.Snapshot().IsFetching }, time.Second, time.Millisecond)

	e.SetReadOnly(true)
	close(gate)
	snap := <-done

	assert.True(t, snap.IsReadOnly)
	assert.False(t, snap.IsFetching)
	assert.Equal(t, []Kind{KindStart}, kinds(snap))
	assert.Empty(t, snap.Segments)
}

func TestReadOnlyDuringMoveKeepsSegments(t *testing.T) {
	r := &fakeRouter{}
	e := newTestEngine(r, nil, nil)
	ctx := context.Background()
	e.AddRoutingWaypoint(ctx, 0, 0)
	e.AddRoutingWaypoint(ctx, 0.01, 0)
	before := e.AddRoutingWaypoint(ctx, 0.02, 0)
	mid := before.Waypoints[1]

	gate := make(chan struct{})
	r.mu.Lock()
	r.gate = gate
	r.mu.Unlock()

	lng := 0.015
	done := make(chan Snapshot, 1)
	go func() { done <- e.UpdateWaypoint(ctx, mid.ID, WaypointPatch{Lng: &lng}) }()
	require.Eventually(t, func() bool { return e.Snapshot().IsFetching }, time.Second, time.Millisecond)

	e.SetReadOnly(true)
	close(gate)
	snap := <-done

	assert.False(t, snap.IsFetching)
	assert.Equal(t, mid.Lng, snap.Waypoints[1].Lng)
	assert.Equal(t, before.Segments, snap.Segments)
}

type shortRouter struct{}

func (shortRouter) Directions(_ context.Context, from, to geo.LngLat, _ Profile) (*Directions, error) {
	return &Directions{
		Geometry: geo.NewLineString(from.Position(), geo.Position{1}, to.Position()),
		Distance: 1000,
	}, nil
}

func TestRouterPositionWithoutLatitudeFallsBack(t *testing.T) {
	e := newTestEngine(shortRouter{}, nil, nil)
	ctx := context.Background()
	e.AddRoutingWaypoint(ctx, 0, 0)

	var snap Snapshot
	require.NotPanics(t, func() { snap = e.AddRoutingWaypoint(ctx, 0.01, 0) })
	require.Len(t, snap.Segments, 1)
	seg := snap.Segments[0]
	assert.Len(t, seg.Geometry.Coordinates, 2)
	assert.InDelta(t, geo.DistanceMeters(0, 0, 0, 0.01), seg.Distance, 1e-6)
}

func TestMutationsAreSerialized(t *testing.T) {
	gate := make(chan struct{})
	r := &fakeRouter{gate: gate}
	e := newTestEngine(r, nil, nil)
	ctx := context.Background()
	e.AddRoutingWaypoint(ctx, 0, 0)

	done := make(chan Snapshot, 2)
	go func() { done <- e.AddRoutingWaypoint(ctx, 0.01, 0) }()
	require.Eventually(t, func() bool { return e.Snapshot().IsFetching }, time.Second, time.Millisecond)

	go func() { done <- e.AddPOI(ctx, 0.5, 0.5, POIWater) }()
	time.Sleep(20 * time.Millisecond)
	// the poi is queued behind the in-flight segment
	assert.Len(t, e.Snapshot().Waypoints, 1)

	close(gate)
	<-done
	<-done
	snap := e.Snapshot()
	assert.Equal(t, []Kind{KindStart, KindEnd, KindPOI}, kinds(snap))
	assert.False(t, snap.IsFetching)
}

func TestQueuedMutationHonoursContext(t *testing.T) {
	gate := make(chan struct{})
	defer close(gate)
	e := newTestEngine(&fakeRouter{gate: gate}, nil, nil)
	e.AddRoutingWaypoint(context.Background(), 0, 0)

	go e.AddRoutingWaypoint(context.Background(), 0.01, 0)
	require.Eventually(t, func() bool { return e.Snapshot().IsFetching }, time.Second, time.Millisecond)

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	snap := e.AddPOI(ctx, 1, 1, POIWater)
	assert.Len(t, snap.Waypoints, 1)
}

func TestRevisionIncreases(t *testing.T) {
	var revs []uint64
	var mu sync.Mutex
	e := newTestEngine(&fakeRouter{}, nil, nil, WithObserver(func(s Snapshot) {
		mu.Lock()
		revs = append(revs, s.Revision)
		mu.Unlock()
	}))
	ctx := context.Background()
	e.AddRoutingWaypoint(ctx, 0, 0)
	e.AddRoutingWaypoint(ctx, 0.01, 0)
	e.SetRouteName("x")

	mu.Lock()
	defer mu.Unlock()
	// start, fetching on, segment appended, rename
	require.Len(t, revs, 4)
	for i := 1; i < len(revs); i++ {
		assert.Greater(t, revs[i], revs[i-1])
	}
}

func TestConsumeFitBounds(t *testing.T) {
	e := newTestEngine(nil, nil, nil)
	assert.False(t, e.ConsumeFitBounds())
	e.SetShouldFitBounds(true)
	assert.True(t, e.ConsumeFitBounds())
	assert.False(t, e.ConsumeFitBounds())
}
