package registry

import (
	"net/http"

	"github.com/gofiber/fiber/v2"

	"github.com/apicoin/apicoin/internal/apperr"
	"github.com/apicoin/apicoin/internal/middleware"
	"github.com/apicoin/apicoin/internal/paging"
)

// Handler exposes app creation and listing.
type Handler struct {
	registry *Registry
	maxPage  int
}

// NewHandler constructs a registry handler.
func NewHandler(registry *Registry, maxPage int) *Handler {
	return &Handler{registry: registry, maxPage: maxPage}
}

// Create registers a new app owned by the caller.
func (h *Handler) Create(c *fiber.Ctx) error {
	caller, err := middleware.RequireCaller(c)
	if err != nil {
		return err
	}
	var req CreateRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(http.StatusBadRequest, err.Error())
	}
	entry, err := h.registry.CreateApp(c.UserContext(), caller, req.Name, req.Symbol)
	if err != nil {
		return fiber.NewError(apperr.HTTPStatus(err), err.Error())
	}
	return c.Status(http.StatusCreated).JSON(entry)
}

// List pages through every app.
func (h *Handler) List(c *fiber.Ctx) error {
	apps, total, err := h.registry.ListApps(c.UserContext(), c.QueryInt("offset"), paging.Limit(c.QueryInt("limit"), h.maxPage))
	if err != nil {
		return fiber.NewError(http.StatusInternalServerError, err.Error())
	}
	return c.Status(http.StatusOK).JSON(fiber.Map{"apps": apps, "total": total})
}

// ListByCreator pages through the apps of :creator.
func (h *Handler) ListByCreator(c *fiber.Ctx) error {
	creator := c.Params("creator")
	apps, total, err := h.registry.ListAppsByCreator(c.UserContext(), creator, c.QueryInt("offset"), paging.Limit(c.QueryInt("limit"), h.maxPage))
	if err != nil {
		return fiber.NewError(http.StatusInternalServerError, err.Error())
	}
	return c.Status(http.StatusOK).JSON(fiber.Map{"creator": creator, "apps": apps, "total": total})
}
