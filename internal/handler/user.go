package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/recipe-app-api/internal/model"
	"github.com/iliyamo/recipe-app-api/internal/service"
)

// UserHandler serves registration, token issuing and the profile endpoints.
type UserHandler struct {
	base
	Users *service.UserService
}

func NewUserHandler(users *service.UserService, o Options) *UserHandler {
	if users == nil {
		panic("nil user service passed to NewUserHandler")
	}
	return &UserHandler{base: newBase(o), Users: users}
}

// ----- DTOs -----

type registerReq struct {
	Email    string `json:"email" form:"email" validate:"required,email,max=255"`
	Password string `json:"password" form:"password" validate:"required,min=6,max=72"`
	Name     string `json:"name" form:"name" validate:"max=255"`
}

type tokenReq struct {
	Email    string `json:"email" form:"email"`
	Password string `json:"password" form:"password"`
}

type updateMeReq struct {
	Name     *string `json:"name" form:"name" validate:"omitempty,max=255"`
	Password *string `json:"password" form:"password" validate:"omitempty,min=6,max=72"`
}

// userResp never carries the password or its hash.
type userResp struct {
	Email string `json:"email"`
	Name  string `json:"name"`
}

type tokenResp struct {
	Token string `json:"token"`
}

func toUserResp(u *model.User) userResp { return userResp{Email: u.Email, Name: u.Name} }

// Create handles POST /api/user/create/.
func (h *UserHandler) Create(c echo.Context) error {
	var req registerReq
	if err := bind(c, &req); err != nil {
		return h.failBind(c, err)
	}
	ctx, cancel := h.ctx(c)
	defer cancel()

	u, err := h.Users.CreateUser(ctx, req.Email, req.Password, service.UserFields{Name: req.Name})
	if err != nil {
		return h.fail(c, err)
	}
	return c.JSON(http.StatusCreated, toUserResp(u))
}

// Token handles POST /api/user/token/ and returns the caller's opaque token.
func (h *UserHandler) Token(c echo.Context) error {
	var req tokenReq
	if err := bind(c, &req); err != nil {
		return h.failBind(c, err)
	}
	ctx, cancel := h.ctx(c)
	defer cancel()

	t, err := h.Users.IssueToken(ctx, req.Email, req.Password)
	if err != nil {
		return h.fail(c, err)
	}
	return c.JSON(http.StatusOK, tokenResp{Token: t.Key})
}

// Me handles GET /api/user/me/.
func (h *UserHandler) Me(c echo.Context) error {
	u, err := h.actingUser(c)
	if err != nil {
		return h.fail(c, err)
	}
	return c.JSON(http.StatusOK, toUserResp(u))
}

// UpdateMe handles PATCH /api/user/me/: name and password may change.
func (h *UserHandler) UpdateMe(c echo.Context) error {
	u, err := h.actingUser(c)
	if err != nil {
		return h.fail(c, err)
	}
	var req updateMeReq
	if err := bind(c, &req); err != nil {
		return h.failBind(c, err)
	}
	ctx, cancel := h.ctx(c)
	defer cancel()

	updated, err := h.Users.UpdateUser(ctx, u, service.UserUpdate{Name: req.Name, Password: req.Password})
	if err != nil {
		return h.fail(c, err)
	}
	return c.JSON(http.StatusOK, toUserResp(updated))
}

// Logout handles POST /api/user/logout/ by deleting the caller's token.
func (h *UserHandler) Logout(c echo.Context) error {
	u, err := h.actingUser(c)
	if err != nil {
		return h.fail(c, err)
	}
	ctx, cancel := h.ctx(c)
	defer cancel()

	if err := h.Users.RevokeToken(ctx, u.ID); err != nil {
		return h.fail(c, err)
	}
	return c.NoContent(http.StatusNoContent)
}
