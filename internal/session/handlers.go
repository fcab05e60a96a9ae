package session

import (
	"context"
	"errors"
	"time"

	"backend-routesmith/internal/auth"
	"backend-routesmith/internal/planner"
	"backend-routesmith/internal/route"
	"backend-routesmith/internal/shared/geo"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"
)

// Handlers serves the planning API for sessions held by a Manager.
type Handlers struct {
	manager      *Manager
	routes       *route.Service
	placer       planner.PlaceNamer
	placeTimeout time.Duration
	logger       *zap.Logger
}

func NewHandlers(manager *Manager, routes *route.Service, placer planner.PlaceNamer, logger *zap.Logger) *Handlers {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Handlers{
		manager:      manager,
		routes:       routes,
		placer:       placer,
		placeTimeout: 5 * time.Second,
		logger:       logger,
	}
}

type createResponse struct {
	ID       string           `json:"id"`
	Snapshot planner.Snapshot `json:"snapshot"`
}

type pointRequest struct {
	Lng float64 `json:"lng"`
	Lat float64 `json:"lat"`
}

type poiRequest struct {
	Lng     float64         `json:"lng"`
	Lat     float64         `json:"lat"`
	POIKind planner.POIKind `json:"poi_type"`
}

type toolRequest struct {
	Mode string `json:"mode"`
}

type settingsRequest struct {
	ReadOnly   *bool   `json:"read_only"`
	ManualMode *bool   `json:"manual_mode"`
	Name       *string `json:"name"`
}

type hoverRequest struct {
	Distance *float64 `json:"distance"`
	Lng      *float64 `json:"lng"`
	Lat      *float64 `json:"lat"`
}

type hoverResponse struct {
	Snapshot planner.Snapshot    `json:"snapshot"`
	Hover    *planner.HoverPoint `json:"hover"`
}

type saveRequest struct {
	IsPublic bool `json:"is_public"`
}

func (h *Handlers) RegisterRoutes(r fiber.Router, authMiddleware, optionalAuth fiber.Handler) {
	r.Post("/", func(c *fiber.Ctx) error {
		s := h.manager.Create()
		return c.Status(fiber.StatusCreated).JSON(createResponse{ID: s.ID, Snapshot: s.Engine.Snapshot()})
	})

	r.Get("/:id", h.withSession(func(c *fiber.Ctx, s *Session) error {
		return c.JSON(s.Engine.Snapshot())
	}))

	r.Delete("/:id", func(c *fiber.Ctx) error {
		if !h.manager.Delete(c.Params("id")) {
			return fiber.NewError(fiber.StatusNotFound, ErrNotFound.Error())
		}
		return c.SendStatus(fiber.StatusNoContent)
	})

	r.Post("/:id/waypoints", h.withSession(func(c *fiber.Ctx, s *Session) error {
		var req pointRequest
		if err := c.BodyParser(&req); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, err.Error())
		}
		if err := validPoint(req.Lng, req.Lat); err != nil {
			return err
		}
		return c.JSON(s.Engine.AddRoutingWaypoint(c.Context(), req.Lng, req.Lat))
	}))

	r.Post("/:id/pois", h.withSession(func(c *fiber.Ctx, s *Session) error {
		var req poiRequest
		if err := c.BodyParser(&req); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, err.Error())
		}
		if err := validPoint(req.Lng, req.Lat); err != nil {
			return err
		}
		if !req.POIKind.Valid() {
			return fiber.NewError(fiber.StatusBadRequest, "unknown poi type")
		}
		return c.JSON(s.Engine.AddPOI(c.Context(), req.Lng, req.Lat, req.POIKind))
	}))

	r.Put("/:id/tool", h.withSession(func(c *fiber.Ctx, s *Session) error {
		var req toolRequest
		if err := c.BodyParser(&req); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, err.Error())
		}
		mode, err := planner.ParseToolMode(req.Mode)
		if err != nil {
			return fiber.NewError(fiber.StatusBadRequest, err.Error())
		}
		s.SetTool(mode)
		return c.JSON(mode)
	}))

	r.Post("/:id/click", h.withSession(func(c *fiber.Ctx, s *Session) error {
		var click planner.Click
		if err := c.BodyParser(&click); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, err.Error())
		}
		action := planner.ResolveClick(s.Tool(), click)
		if action.Kind == planner.ActionAddRouting || action.Kind == planner.ActionAddPOI {
			if err := validPoint(click.Lng, click.Lat); err != nil {
				return err
			}
		}
		return c.JSON(s.Engine.Apply(c.Context(), action))
	}))

	r.Patch("/:id/waypoints/:waypointID", h.withSession(func(c *fiber.Ctx, s *Session) error {
		var patch planner.WaypointPatch
		if err := c.BodyParser(&patch); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, err.Error())
		}
		if patch.POIKind != nil && !patch.POIKind.Valid() {
			return fiber.NewError(fiber.StatusBadRequest, "unknown poi type")
		}
		if err := validPatchPoint(patch); err != nil {
			return err
		}
		return c.JSON(s.Engine.UpdateWaypoint(c.Context(), c.Params("waypointID"), patch))
	}))

	r.Delete("/:id/waypoints/:waypointID", h.withSession(func(c *fiber.Ctx, s *Session) error {
		return c.JSON(s.Engine.RemoveWaypoint(c.Context(), c.Params("waypointID")))
	}))

	r.Post("/:id/undo", h.withSession(func(c *fiber.Ctx, s *Session) error {
		return c.JSON(s.Engine.UndoLastWaypoint(c.Context()))
	}))

	r.Post("/:id/clear", h.withSession(func(c *fiber.Ctx, s *Session) error {
		return c.JSON(s.Engine.ClearRoute(c.Context()))
	}))

	r.Post("/:id/import", h.withSession(func(c *fiber.Ctx, s *Session) error {
		var fc geo.FeatureCollection
		if err := c.BodyParser(&fc); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, err.Error())
		}
		if _, ok := fc.Line(); !ok {
			return fiber.NewError(fiber.StatusUnprocessableEntity, "no line geometry in collection")
		}
		return c.JSON(s.Engine.ImportRoute(c.Context(), fc))
	}))

	r.Put("/:id/settings", h.withSession(func(c *fiber.Ctx, s *Session) error {
		var req settingsRequest
		if err := c.BodyParser(&req); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, err.Error())
		}
		if req.ReadOnly != nil {
			s.Engine.SetReadOnly(*req.ReadOnly)
		}
		if req.ManualMode != nil {
			s.Engine.SetManualMode(*req.ManualMode)
		}
		if req.Name != nil {
			s.Engine.SetRouteName(*req.Name)
		}
		return c.JSON(s.Engine.Snapshot())
	}))

	r.Post("/:id/hover", h.withSession(func(c *fiber.Ctx, s *Session) error {
		var req hoverRequest
		if err := c.BodyParser(&req); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, err.Error())
		}
		var (
			snap  planner.Snapshot
			point planner.HoverPoint
			ok    bool
		)
		switch {
		case req.Distance != nil:
			snap, point, ok = s.Engine.ChartHover(*req.Distance)
		case req.Lng != nil && req.Lat != nil:
			snap, point, ok = s.Engine.MapHover(*req.Lng, *req.Lat)
		default:
			return fiber.NewError(fiber.StatusBadRequest, "distance or lng/lat required")
		}
		resp := hoverResponse{Snapshot: snap}
		if ok {
			resp.Hover = &point
		}
		return c.JSON(resp)
	}))

	r.Delete("/:id/hover", h.withSession(func(c *fiber.Ctx, s *Session) error {
		return c.JSON(s.Engine.HoverEnd())
	}))

	r.Post("/:id/fit-bounds", h.withSession(func(c *fiber.Ctx, s *Session) error {
		return c.JSON(fiber.Map{"fit": s.Engine.ConsumeFitBounds()})
	}))

	r.Post("/:id/save", authMiddleware, h.withSession(func(c *fiber.Ctx, s *Session) error {
		var req saveRequest
		if len(c.Body()) > 0 {
			if err := c.BodyParser(&req); err != nil {
				return fiber.NewError(fiber.StatusBadRequest, err.Error())
			}
		}
		userID, _ := auth.UserID(c)
		saved, err := h.save(c.Context(), s, userID, req.IsPublic)
		if err != nil {
			return err
		}
		return c.JSON(saved)
	}))

	r.Post("/:id/load/:routeID", optionalAuth, h.withSession(func(c *fiber.Ctx, s *Session) error {
		saved, err := h.routes.FetchByID(c.Context(), c.Params("routeID"))
		if err != nil {
			if errors.Is(err, route.ErrNotFound) {
				return fiber.NewError(fiber.StatusNotFound, err.Error())
			}
			return fiber.NewError(fiber.StatusInternalServerError, err.Error())
		}
		if userID, _ := auth.UserID(c); !saved.IsPublic && saved.OwnerID != userID {
			return fiber.NewError(fiber.StatusNotFound, route.ErrNotFound.Error())
		}
		snap, err := s.Engine.Restore(c.Context(), saved.RestoreInput())
		if err != nil {
			return fiber.NewError(fiber.StatusUnprocessableEntity, err.Error())
		}
		return c.JSON(snap)
	}))
}

func (h *Handlers) withSession(fn func(*fiber.Ctx, *Session) error) fiber.Handler {
	return func(c *fiber.Ctx) error {
		s, err := h.manager.Get(c.Params("id"))
		if err != nil {
			return fiber.NewError(fiber.StatusNotFound, err.Error())
		}
		return fn(c, s)
	}
}

// save persists the session's route for userID, creating it on first save and
// updating it afterwards.
func (h *Handlers) save(ctx context.Context, s *Session, userID string, isPublic bool) (route.Route, error) {
	snap := s.Engine.Snapshot()
	if len(snap.Waypoints) < 2 {
		return route.Route{}, fiber.NewError(fiber.StatusBadRequest, "at least two waypoints required")
	}

	doc := route.FromSnapshot(snap, userID, h.startLocation(ctx, snap.Waypoints[0]), isPublic)
	var (
		saved route.Route
		err   error
	)
	if snap.RouteID != "" {
		saved, err = h.routes.Update(ctx, snap.RouteID, doc)
	} else {
		saved, err = h.routes.Save(ctx, doc)
	}
	if err != nil {
		if errors.Is(err, route.ErrNotFound) {
			return route.Route{}, fiber.NewError(fiber.StatusNotFound, err.Error())
		}
		h.logger.Error("save route", zap.String("session", s.ID), zap.Error(err))
		return route.Route{}, fiber.NewError(fiber.StatusInternalServerError, err.Error())
	}
	s.Engine.SetRouteID(saved.ID)
	return saved, nil
}

func (h *Handlers) startLocation(ctx context.Context, first planner.Waypoint) string {
	if h.placer == nil {
		return route.UnknownLocation
	}
	ctx, cancel := context.WithTimeout(ctx, h.placeTimeout)
	defer cancel()
	name, err := h.placer.PlaceName(ctx, first.Lng, first.Lat)
	if err != nil || name == "" {
		h.logger.Debug("start location unavailable", zap.Error(err))
		return route.UnknownLocation
	}
	return name
}

func validPoint(lng, lat float64) error {
	if lng < -180 || lng > 180 || lat < -90 || lat > 90 {
		return fiber.NewError(fiber.StatusBadRequest, "coordinates out of range")
	}
	return nil
}

// validPatchPoint range-checks whichever coordinates the patch moves.
func validPatchPoint(patch planner.WaypointPatch) error {
	var lng, lat float64
	if patch.Lng != nil {
		lng = *patch.Lng
	}
	if patch.Lat != nil {
		lat = *patch.Lat
	}
	return validPoint(lng, lat)
}
