package route

import (
	"errors"

	"backend-routesmith/internal/auth"

	"github.com/gofiber/fiber/v2"
)

// RegisterRoutes mounts the saved-route API. optionalAuth identifies the
// caller when a token is present so owners can read their private routes.
func RegisterRoutes(r fiber.Router, svc *Service, authMiddleware, optionalAuth fiber.Handler) {
	r.Get("/search", func(c *fiber.Ctx) error {
		filters, err := ParseFilters(c.Query("distance"), c.Query("elevation"))
		if err != nil {
			return fiber.NewError(fiber.StatusBadRequest, err.Error())
		}
		filters, err = filters.WithRange(c.Query("min_distance"), c.Query("max_distance"), c.Query("min_gain"), c.Query("max_gain"))
		if err != nil {
			return fiber.NewError(fiber.StatusBadRequest, err.Error())
		}
		routes, err := svc.Search(c.Context(), c.Query("q"), filters)
		if err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, err.Error())
		}
		return c.JSON(routes)
	})

	r.Get("/mine", authMiddleware, func(c *fiber.Ctx) error {
		userID, _ := auth.UserID(c)
		routes, err := svc.FetchByOwner(c.Context(), userID)
		if err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, err.Error())
		}
		return c.JSON(routes)
	})

	r.Get("/:id", optionalAuth, func(c *fiber.Ctx) error {
		route, err := svc.FetchByID(c.Context(), c.Params("id"))
		if err != nil {
			return lookupError(err)
		}
		if userID, _ := auth.UserID(c); !route.IsPublic && route.OwnerID != userID {
			return fiber.NewError(fiber.StatusNotFound, "route not found")
		}
		return c.JSON(route)
	})

	r.Patch("/:id", authMiddleware, func(c *fiber.Ctx) error {
		var req Patch
		if err := c.BodyParser(&req); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, err.Error())
		}
		if req.Name != nil && *req.Name == "" {
			return fiber.NewError(fiber.StatusBadRequest, "name cannot be empty")
		}
		userID, _ := auth.UserID(c)
		route, err := svc.UpdateMeta(c.Context(), c.Params("id"), userID, req)
		if err != nil {
			return lookupError(err)
		}
		return c.JSON(route)
	})

	r.Delete("/:id", authMiddleware, func(c *fiber.Ctx) error {
		userID, _ := auth.UserID(c)
		deleted, err := svc.Delete(c.Context(), c.Params("id"), userID)
		if err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, err.Error())
		}
		if !deleted {
			return fiber.NewError(fiber.StatusNotFound, "route not found")
		}
		return c.SendStatus(fiber.StatusNoContent)
	})
}

func lookupError(err error) error {
	if errors.Is(err, ErrNotFound) {
		return fiber.NewError(fiber.StatusNotFound, "route not found")
	}
	return fiber.NewError(fiber.StatusInternalServerError, err.Error())
}
