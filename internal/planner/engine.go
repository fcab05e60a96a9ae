package planner

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
	"golang.org/x/sync/semaphore"

	"backend-routesmith/internal/shared/geo"
)

type state struct {
	waypoints []Waypoint
	segments  []Segment
	stats     Stats
	name      string
	routeID   string
	fetching  bool
	readOnly  bool
	manual    bool
	fitBounds bool
	hovered   *float64
}

// Engine owns one route being planned. Structural mutations are queued one at
// a time so a slow routing call never interleaves with another edit; settings
// and hover changes apply immediately.
type Engine struct {
	router    Router
	elevation ElevationSource
	placer    PlaceNamer

	profile     Profile
	logger      *zap.Logger
	newID       func() string
	nameTimeout time.Duration

	queue *semaphore.Weighted

	mu         sync.Mutex
	st         state
	revision   uint64
	generation uint64
	observers  []func(Snapshot)
}

type Option func(*Engine)

func WithProfile(p Profile) Option { return func(e *Engine) { e.profile = p } }

func WithLogger(l *zap.Logger) Option { return func(e *Engine) { e.logger = l } }

func WithIDGenerator(fn func() string) Option { return func(e *Engine) { e.newID = fn } }

func WithPlaceNameTimeout(d time.Duration) Option { return func(e *Engine) { e.nameTimeout = d } }

// WithObserver registers fn to receive every snapshot the engine publishes.
func WithObserver(fn func(Snapshot)) Option {
	return func(e *Engine) { e.observers = append(e.observers, fn) }
}

// NewEngine builds an empty planner. Any adapter may be nil, in which case the
// engine behaves as if that adapter always failed.
func NewEngine(router Router, elevation ElevationSource, placer PlaceNamer, opts ...Option) *Engine {
	e := &Engine{
		router:      router,
		elevation:   elevation,
		placer:      placer,
		profile:     ProfileWalking,
		logger:      zap.NewNop(),
		newID:       uuid.NewString,
		nameTimeout: 10 * time.Second,
		queue:       semaphore.NewWeighted(1),
		st:          state{name: DefaultRouteName, stats: Aggregate(nil)},
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Subscribe adds an observer after construction.
func (e *Engine) Subscribe(fn func(Snapshot)) {
	e.mu.Lock()
	e.observers = append(e.observers, fn)
	e.mu.Unlock()
}

func (e *Engine) Snapshot() Snapshot {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.snapshotLocked()
}

func (e *Engine) snapshotLocked() Snapshot {
	st := e.st
	return Snapshot{
		Revision:           e.revision,
		Waypoints:          append([]Waypoint{}, st.waypoints...),
		Segments:           append([]Segment{}, st.segments...),
		Geometry:           st.stats.Geometry,
		Bounds:             st.stats.Bounds,
		TotalDistance:      st.stats.TotalDistance,
		TotalElevationGain: st.stats.Gain,
		ElevationProfile:   st.stats.Profile,
		MinElevation:       st.stats.Min,
		MaxElevation:       st.stats.Max,
		RouteName:          st.name,
		RouteID:            st.routeID,
		IsFetching:         st.fetching,
		IsReadOnly:         st.readOnly,
		IsManualMode:       st.manual,
		HoveredDistance:    st.hovered,
		ShouldFitBounds:    st.fitBounds,
	}
}

// commit bumps the revision and unlocks, then notifies observers outside the
// lock. Must be called with mu held.
func (e *Engine) commit() Snapshot {
	e.revision++
	snap := e.snapshotLocked()
	observers := e.observers
	e.mu.Unlock()
	for _, fn := range observers {
		fn(snap)
	}
	return snap
}

// enqueue waits for the mutation slot. On cancellation the current state is
// returned unchanged.
func (e *Engine) enqueue(ctx context.Context) (func(), bool) {
	if err := e.queue.Acquire(ctx, 1); err != nil {
		return nil, false
	}
	return func() { e.queue.Release(1) }, true
}

// AddRoutingWaypoint appends a routing waypoint. The first one becomes the
// start; later ones become the end and are joined to the previous routing
// waypoint by a new segment.
func (e *Engine) AddRoutingWaypoint(ctx context.Context, lng, lat float64) Snapshot {
	release, ok := e.enqueue(ctx)
	if !ok {
		return e.Snapshot()
	}
	defer release()

	e.mu.Lock()
	if e.st.readOnly {
		defer e.mu.Unlock()
		return e.snapshotLocked()
	}

	wp := Waypoint{ID: e.newID(), Lng: lng, Lat: lat}
	prev, hasPrev := lastRouting(e.st.waypoints)
	if !hasPrev {
		wp.Kind = KindStart
		e.st.waypoints = append(cloneWaypoints(e.st.waypoints), wp)
		nameIt := e.placer != nil && unnamed(e.st.name)
		gen := e.generation
		snap := e.commit()
		if nameIt {
			go e.nameFromPlace(gen, lng, lat)
		}
		return snap
	}
	manual := e.st.manual
	e.st.fetching = true
	e.commit()

	seg := e.buildSegment(ctx, prev.LngLat(), wp.LngLat(), manual)

	e.mu.Lock()
	if e.st.readOnly {
		e.st.fetching = false
		return e.commit()
	}
	wps := cloneWaypoints(e.st.waypoints)
	for i := range wps {
		if wps[i].ID == prev.ID && wps[i].Kind == KindEnd {
			wps[i].Kind = KindRoute
		}
	}
	wp.Kind = KindEnd
	e.st.waypoints = append(wps, wp)
	e.st.segments = append(cloneSegments(e.st.segments), seg)
	e.st.stats = Aggregate(e.st.segments)
	e.st.fetching = false
	return e.commit()
}

// AddPOI appends a point of interest. POIs never affect segments or stats.
func (e *Engine) AddPOI(ctx context.Context, lng, lat float64, kind POIKind) Snapshot {
	release, ok := e.enqueue(ctx)
	if !ok {
		return e.Snapshot()
	}
	defer release()

	e.mu.Lock()
	if e.st.readOnly || !kind.Valid() {
		defer e.mu.Unlock()
		return e.snapshotLocked()
	}
	wp := Waypoint{ID: e.newID(), Lng: lng, Lat: lat, Kind: KindPOI, POIKind: kind}
	e.st.waypoints = append(cloneWaypoints(e.st.waypoints), wp)
	return e.commit()
}

// UpdateWaypoint merges patch into the waypoint with id. Moving a routing
// waypoint rebuilds the segments on either side of it.
func (e *Engine) UpdateWaypoint(ctx context.Context, id string, patch WaypointPatch) Snapshot {
	release, ok := e.enqueue(ctx)
	if !ok {
		return e.Snapshot()
	}
	defer release()

	e.mu.Lock()
	idx := indexOf(e.st.waypoints, id)
	if e.st.readOnly || idx < 0 {
		defer e.mu.Unlock()
		return e.snapshotLocked()
	}

	target := e.st.waypoints[idx]
	updated := patch.apply(target)
	if !patch.moves(target) || target.Kind == KindPOI {
		wps := cloneWaypoints(e.st.waypoints)
		wps[idx] = updated
		e.st.waypoints = wps
		return e.commit()
	}

	routing := routingOnly(e.st.waypoints)
	pos := indexOf(routing, id)
	before, after := pos-1, pos
	hasBefore := pos > 0 && before < len(e.st.segments)
	hasAfter := pos < len(routing)-1 && after < len(e.st.segments)
	manual := e.st.manual
	e.st.fetching = true
	e.commit()

	var segBefore, segAfter Segment
	var g errgroup.Group
	if hasBefore {
		g.Go(func() error {
			segBefore = e.buildSegment(ctx, routing[pos-1].LngLat(), updated.LngLat(), manual)
			return nil
		})
	}
	if hasAfter {
		g.Go(func() error {
			segAfter = e.buildSegment(ctx, updated.LngLat(), routing[pos+1].LngLat(), manual)
			return nil
		})
	}
	_ = g.Wait()

	e.mu.Lock()
	if e.st.readOnly {
		e.st.fetching = false
		return e.commit()
	}
	wps := cloneWaypoints(e.st.waypoints)
	wps[idx] = updated
	segs := cloneSegments(e.st.segments)
	if hasBefore {
		segs[before] = segBefore
	}
	if hasAfter {
		segs[after] = segAfter
	}
	e.st.waypoints, e.st.segments = wps, segs
	e.st.stats = Aggregate(segs)
	e.st.fetching = false
	return e.commit()
}

// UndoLastWaypoint removes the most recently added waypoint. Undoing a routing
// waypoint also drops the last segment and relabels the new last routing
// waypoint as the end.
func (e *Engine) UndoLastWaypoint(ctx context.Context) Snapshot {
	release, ok := e.enqueue(ctx)
	if !ok {
		return e.Snapshot()
	}
	defer release()

	e.mu.Lock()
	n := len(e.st.waypoints)
	if e.st.readOnly || n == 0 {
		defer e.mu.Unlock()
		return e.snapshotLocked()
	}
	if n == 1 {
		e.resetLocked()
		return e.commit()
	}

	last := e.st.waypoints[n-1]
	wps := cloneWaypoints(e.st.waypoints[:n-1])
	if last.Kind.Routing() {
		segs := e.st.segments
		if len(segs) > 0 {
			segs = segs[:len(segs)-1]
		}
		e.st.segments = cloneSegments(segs)
		for i := len(wps) - 1; i >= 0; i-- {
			if wps[i].Kind.Routing() {
				if wps[i].Kind != KindStart {
					wps[i].Kind = KindEnd
				}
				break
			}
		}
		e.st.stats = Aggregate(e.st.segments)
	}
	e.st.waypoints = wps
	return e.commit()
}

// RemoveWaypoint deletes one waypoint. Removing a POI leaves segments alone;
// removing a routing waypoint discards every segment and all stats.
func (e *Engine) RemoveWaypoint(ctx context.Context, id string) Snapshot {
	release, ok := e.enqueue(ctx)
	if !ok {
		return e.Snapshot()
	}
	defer release()

	e.mu.Lock()
	idx := indexOf(e.st.waypoints, id)
	if e.st.readOnly || idx < 0 {
		defer e.mu.Unlock()
		return e.snapshotLocked()
	}

	removed := e.st.waypoints[idx]
	wps := make([]Waypoint, 0, len(e.st.waypoints)-1)
	wps = append(wps, e.st.waypoints[:idx]...)
	wps = append(wps, e.st.waypoints[idx+1:]...)
	if removed.Kind.Routing() {
		relabel(wps)
		e.st.segments = nil
		e.st.stats = Aggregate(nil)
	}
	e.st.waypoints = wps
	return e.commit()
}

// ClearRoute empties the route, resets its name and id and leaves read-only
// mode. Manual mode is kept.
func (e *Engine) ClearRoute(ctx context.Context) Snapshot {
	release, ok := e.enqueue(ctx)
	if !ok {
		return e.Snapshot()
	}
	defer release()

	e.mu.Lock()
	e.resetLocked()
	return e.commit()
}

func (e *Engine) resetLocked() {
	e.generation++
	e.st = state{
		name:   DefaultRouteName,
		stats:  Aggregate(nil),
		manual: e.st.manual,
	}
}

// ImportRoute replaces the route with the first line in fc as a single
// read-only segment. A collection without a usable line is ignored.
func (e *Engine) ImportRoute(ctx context.Context, fc geo.FeatureCollection) Snapshot {
	release, ok := e.enqueue(ctx)
	if !ok {
		return e.Snapshot()
	}
	defer release()

	feature, line, found := fc.FirstLine()
	var coords []geo.Position
	for _, c := range line.Coordinates {
		if len(c) >= 2 {
			coords = append(coords, c)
		}
	}
	if !found || len(coords) < 2 {
		e.logger.Debug("import ignored, no usable line")
		return e.Snapshot()
	}

	var distance float64
	var profile []ElevationPoint
	for i, c := range coords {
		if i > 0 {
			distance += geo.DistanceMeters(coords[i-1].Lat(), coords[i-1].Lng(), c.Lat(), c.Lng())
		}
		if ele, ok := c.Elevation(); ok {
			profile = append(profile, ElevationPoint{Distance: distance, Elevation: ele})
		}
	}

	start := Waypoint{ID: e.newID(), Lng: coords[0].Lng(), Lat: coords[0].Lat(), Kind: KindStart}
	end := Waypoint{ID: e.newID(), Lng: coords[len(coords)-1].Lng(), Lat: coords[len(coords)-1].Lat(), Kind: KindEnd}
	if ele, ok := coords[0].Elevation(); ok {
		start.Elevation = &ele
	}
	if ele, ok := coords[len(coords)-1].Elevation(); ok {
		end.Elevation = &ele
	}
	seg := Segment{
		ID:               e.newID(),
		Geometry:         geo.NewLineString(coords...),
		Distance:         distance,
		ElevationProfile: profile,
	}

	name := feature.Name()
	if name == "" {
		name = importedRouteName
	}

	e.mu.Lock()
	e.generation++
	e.st = state{
		waypoints: []Waypoint{start, end},
		segments:  []Segment{seg},
		stats:     Aggregate([]Segment{seg}),
		name:      name,
		readOnly:  true,
		fitBounds: true,
		manual:    e.st.manual,
	}
	return e.commit()
}

// Restore loads a persisted route read-only. Segments are trusted as stored;
// waypoints are validated.
func (e *Engine) Restore(ctx context.Context, in RestoreInput) (Snapshot, error) {
	for _, w := range in.Waypoints {
		if err := w.Validate(); err != nil {
			return Snapshot{}, fmt.Errorf("restore: %w", err)
		}
	}
	release, ok := e.enqueue(ctx)
	if !ok {
		return Snapshot{}, ctx.Err()
	}
	defer release()

	name := in.Name
	if name == "" {
		name = DefaultRouteName
	}
	e.mu.Lock()
	e.generation++
	e.st = state{
		waypoints: cloneWaypoints(in.Waypoints),
		segments:  cloneSegments(in.Segments),
		stats:     Aggregate(in.Segments),
		name:      name,
		routeID:   in.RouteID,
		readOnly:  true,
		fitBounds: true,
		manual:    e.st.manual,
	}
	return e.commit(), nil
}

func (e *Engine) SetReadOnly(v bool) Snapshot {
	e.mu.Lock()
	e.st.readOnly = v
	return e.commit()
}

func (e *Engine) SetManualMode(v bool) Snapshot {
	e.mu.Lock()
	e.st.manual = v
	return e.commit()
}

// SetRouteName renames the route. Any automatic name still being looked up
// is discarded.
func (e *Engine) SetRouteName(name string) Snapshot {
	e.mu.Lock()
	e.generation++
	e.st.name = name
	return e.commit()
}

func (e *Engine) SetRouteID(id string) Snapshot {
	e.mu.Lock()
	e.st.routeID = id
	return e.commit()
}

func (e *Engine) SetShouldFitBounds(v bool) Snapshot {
	e.mu.Lock()
	e.st.fitBounds = v
	return e.commit()
}

// ConsumeFitBounds reports whether the viewport should fit the route and
// clears the flag.
func (e *Engine) ConsumeFitBounds() bool {
	e.mu.Lock()
	if !e.st.fitBounds {
		e.mu.Unlock()
		return false
	}
	e.st.fitBounds = false
	e.commit()
	return true
}

func (e *Engine) nameFromPlace(gen uint64, lng, lat float64) {
	ctx, cancel := context.WithTimeout(context.Background(), e.nameTimeout)
	defer cancel()

	place, err := e.placer.PlaceName(ctx, lng, lat)
	if err != nil || place == "" {
		e.logger.Debug("no place name for start", zap.Error(err))
		return
	}

	e.mu.Lock()
	if e.generation != gen || !unnamed(e.st.name) {
		e.mu.Unlock()
		return
	}
	e.st.name = "Route near " + place
	e.commit()
}

// unnamed reports whether name may be replaced by a place-derived one.
func unnamed(name string) bool {
	return name == "" || name == DefaultRouteName
}

func lastRouting(wps []Waypoint) (Waypoint, bool) {
	for i := len(wps) - 1; i >= 0; i-- {
		if wps[i].Kind.Routing() {
			return wps[i], true
		}
	}
	return Waypoint{}, false
}

func routingOnly(wps []Waypoint) []Waypoint {
	var out []Waypoint
	for _, w := range wps {
		if w.Kind.Routing() {
			out = append(out, w)
		}
	}
	return out
}

// relabel restores one start, one end and route in between after a removal.
func relabel(wps []Waypoint) {
	var idx []int
	for i, w := range wps {
		if w.Kind.Routing() {
			idx = append(idx, i)
		}
	}
	for n, i := range idx {
		switch {
		case n == 0:
			wps[i].Kind = KindStart
		case n == len(idx)-1:
			wps[i].Kind = KindEnd
		default:
			wps[i].Kind = KindRoute
		}
	}
}

func indexOf(wps []Waypoint, id string) int {
	for i, w := range wps {
		if w.ID == id {
			return i
		}
	}
	return -1
}

func cloneWaypoints(wps []Waypoint) []Waypoint {
	return append([]Waypoint(nil), wps...)
}

func cloneSegments(segs []Segment) []Segment {
	return append([]Segment(nil), segs...)
}
