package handler

import (
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/recipe-app-api/internal/service"
)

// AttributeHandler serves the list and create endpoints shared by tags and
// ingredients.  One instance is registered per collection.
type AttributeHandler struct {
	base
	Svc *service.AttributeService
}

func NewAttributeHandler(svc *service.AttributeService, o Options) *AttributeHandler {
	if svc == nil {
		panic("nil attribute service passed to NewAttributeHandler")
	}
	return &AttributeHandler{base: newBase(o), Svc: svc}
}

type attributeReq struct {
	Name string `json:"name" form:"name"`
}

// List handles GET on the collection.  ?assigned_only=1 keeps only entries
// used by at least one recipe.
func (h *AttributeHandler) List(c echo.Context) error {
	u, err := h.actingUser(c)
	if err != nil {
		return h.fail(c, err)
	}
	assigned, err := parseFlag(c.QueryParam("assigned_only"))
	if err != nil {
		return h.fail(c, service.NewValidationError("assigned_only", "Must be 0 or 1."))
	}
	ctx, cancel := h.ctx(c)
	defer cancel()

	items, err := h.Svc.List(ctx, u.ID, service.ListOptions{AssignedOnly: assigned})
	if err != nil {
		return h.fail(c, err)
	}
	return c.JSON(http.StatusOK, items)
}

// Create handles POST on the collection.  The owner is always the caller.
func (h *AttributeHandler) Create(c echo.Context) error {
	u, err := h.actingUser(c)
	if err != nil {
		return h.fail(c, err)
	}
	var req attributeReq
	if err := bind(c, &req); err != nil {
		return h.failBind(c, err)
	}
	ctx, cancel := h.ctx(c)
	defer cancel()

	a, err := h.Svc.Create(ctx, u.ID, req.Name)
	if err != nil {
		return h.fail(c, err)
	}
	return c.JSON(http.StatusCreated, a)
}

func parseFlag(s string) (bool, error) {
	if s == "" {
		return false, nil
	}
	n, err := strconv.Atoi(s)
	if err != nil || n < 0 || n > 1 {
		return false, strconv.ErrSyntax
	}
	return n == 1, nil
}
