package route

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"backend-routesmith/internal/db"
	"backend-routesmith/internal/shared/geo"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

var ErrNotFound = errors.New("route not found")

const routeColumns = `id, owner_id, name, is_public, distance_m, elevation_gain_m, min_elevation_m, max_elevation_m,
		start_location, waypoints, segments, elevation_profile, full_geojson, preview_polyline, created_at, updated_at`

type Service struct {
	db db.Querier
}

func NewService(db db.Querier) *Service {
	return &Service{db: db}
}

type documents struct {
	waypoints, segments, profile, geometry []byte
	wkt                                    *string
}

func encode(r Route) (documents, error) {
	var d documents
	var err error
	if d.waypoints, err = json.Marshal(nonNil(r.Waypoints)); err != nil {
		return d, fmt.Errorf("encode waypoints: %w", err)
	}
	if d.segments, err = json.Marshal(nonNil(r.Segments)); err != nil {
		return d, fmt.Errorf("encode segments: %w", err)
	}
	if d.profile, err = json.Marshal(nonNil(r.ElevationProfile)); err != nil {
		return d, fmt.Errorf("encode elevation profile: %w", err)
	}
	if r.Geometry != nil && len(r.Geometry.Coordinates) >= 2 {
		if d.geometry, err = json.Marshal(r.Geometry); err != nil {
			return d, fmt.Errorf("encode geometry: %w", err)
		}
		wkt := geo.WKT(*r.Geometry)
		d.wkt = &wkt
	}
	return d, nil
}

func nonNil[T any](xs []T) []T {
	if xs == nil {
		return []T{}
	}
	return xs
}

// Save inserts a new route owned by r.OwnerID.
func (s *Service) Save(ctx context.Context, r Route) (Route, error) {
	if r.ID == "" {
		r.ID = uuid.NewString()
	}
	d, err := encode(r)
	if err != nil {
		return Route{}, err
	}
	row := s.db.QueryRow(ctx, `
		INSERT INTO routes (id, owner_id, name, is_public, distance_m, elevation_gain_m, min_elevation_m, max_elevation_m,
			start_location, waypoints, segments, elevation_profile, full_geojson, route, preview_polyline)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13, ST_GeogFromText($14), $15)
		RETURNING created_at, updated_at
	`, r.ID, r.OwnerID, r.Name, r.IsPublic, r.Distance, r.ElevationGain, r.MinElevation, r.MaxElevation,
		r.StartLocation, d.waypoints, d.segments, d.profile, d.geometry, d.wkt, r.PreviewPolyline)
	if err := row.Scan(&r.CreatedAt, &r.UpdatedAt); err != nil {
		return Route{}, err
	}
	return r, nil
}

// Update replaces the content of an existing route. Only the owner's routes
// match; anything else is ErrNotFound.
func (s *Service) Update(ctx context.Context, id string, r Route) (Route, error) {
	d, err := encode(r)
	if err != nil {
		return Route{}, err
	}
	r.ID = id
	row := s.db.QueryRow(ctx, `
		UPDATE routes
		SET name=$3, is_public=$4, distance_m=$5, elevation_gain_m=$6, min_elevation_m=$7, max_elevation_m=$8,
			start_location=$9, waypoints=$10, segments=$11, elevation_profile=$12, full_geojson=$13,
			route=ST_GeogFromText($14), preview_polyline=$15, updated_at=now()
		WHERE id=$1 AND owner_id=$2
		RETURNING created_at, updated_at
	`, id, r.OwnerID, r.Name, r.IsPublic, r.Distance, r.ElevationGain, r.MinElevation, r.MaxElevation,
		r.StartLocation, d.waypoints, d.segments, d.profile, d.geometry, d.wkt, r.PreviewPolyline)
	if err := row.Scan(&r.CreatedAt, &r.UpdatedAt); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Route{}, ErrNotFound
		}
		return Route{}, err
	}
	return r, nil
}

// UpdateMeta changes name and visibility only.
func (s *Service) UpdateMeta(ctx context.Context, id, ownerID string, p Patch) (Route, error) {
	row := s.db.QueryRow(ctx, `
		UPDATE routes
		SET name=COALESCE($3, name), is_public=COALESCE($4, is_public), updated_at=now()
		WHERE id=$1 AND owner_id=$2
		RETURNING `+routeColumns, id, ownerID, p.Name, p.IsPublic)
	return scanRoute(row)
}

func (s *Service) FetchByID(ctx context.Context, id string) (Route, error) {
	row := s.db.QueryRow(ctx, `SELECT `+routeColumns+` FROM routes WHERE id=$1`, id)
	return scanRoute(row)
}

// FetchByOwner lists a user's routes, most recently updated first.
func (s *Service) FetchByOwner(ctx context.Context, ownerID string) ([]Route, error) {
	rows, err := s.db.Query(ctx, `SELECT `+routeColumns+` FROM routes WHERE owner_id=$1 ORDER BY updated_at DESC`, ownerID)
	if err != nil {
		return nil, err
	}
	return collect(rows)
}

// Delete reports whether a route owned by ownerID was removed.
func (s *Service) Delete(ctx context.Context, id, ownerID string) (bool, error) {
	tag, err := s.db.Exec(ctx, `DELETE FROM routes WHERE id=$1 AND owner_id=$2`, id, ownerID)
	if err != nil {
		return false, err
	}
	return tag.RowsAffected() > 0, nil
}

// Search matches public routes whose name or start location contains query,
// case-insensitively, within the filter bounds.
func (s *Service) Search(ctx context.Context, query string, f Filters) ([]Route, error) {
	where := []string{"is_public = true"}
	var args []any
	add := func(clause string, v any) {
		args = append(args, v)
		where = append(where, fmt.Sprintf(clause, len(args)))
	}
	if q := strings.TrimSpace(query); q != "" {
		args = append(args, "%"+q+"%")
		where = append(where, fmt.Sprintf("(name ILIKE $%d OR start_location ILIKE $%d)", len(args), len(args)))
	}
	if f.MinDistance != nil {
		add("distance_m >= $%d", *f.MinDistance)
	}
	if f.MaxDistance != nil {
		add("distance_m <= $%d", *f.MaxDistance)
	}
	if f.MinGain != nil {
		add("elevation_gain_m >= $%d", *f.MinGain)
	}
	if f.MaxGain != nil {
		add("elevation_gain_m <= $%d", *f.MaxGain)
	}

	sql := `SELECT ` + routeColumns + ` FROM routes WHERE ` + strings.Join(where, " AND ") +
		` ORDER BY updated_at DESC LIMIT 100`
	rows, err := s.db.Query(ctx, sql, args...)
	if err != nil {
		return nil, err
	}
	return collect(rows)
}

func collect(rows pgx.Rows) ([]Route, error) {
	defer rows.Close()
	routes := []Route{}
	for rows.Next() {
		r, err := scanRoute(rows)
		if err != nil {
			return nil, err
		}
		routes = append(routes, r)
	}
	return routes, rows.Err()
}

func scanRoute(row pgx.Row) (Route, error) {
	var r Route
	var waypoints, segments, profile, geometry []byte
	var preview *string
	err := row.Scan(&r.ID, &r.OwnerID, &r.Name, &r.IsPublic, &r.Distance, &r.ElevationGain,
		&r.MinElevation, &r.MaxElevation, &r.StartLocation, &waypoints, &segments, &profile, &geometry,
		&preview, &r.CreatedAt, &r.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Route{}, ErrNotFound
		}
		return Route{}, err
	}
	if preview != nil {
		r.PreviewPolyline = *preview
	}

	for _, doc := range []struct {
		raw []byte
		dst any
	}{
		{waypoints, &r.Waypoints},
		{segments, &r.Segments},
		{profile, &r.ElevationProfile},
		{geometry, &r.Geometry},
	} {
		if len(doc.raw) == 0 {
			continue
		}
		if err := json.Unmarshal(doc.raw, doc.dst); err != nil {
			return Route{}, fmt.Errorf("decode route %s: %w", r.ID, err)
		}
	}
	return r, nil
}
