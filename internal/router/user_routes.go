package router

import (
	"github.com/labstack/echo/v4"

	"github.com/iliyamo/recipe-app-api/internal/handler"
)

// RegisterUser registers the account endpoints under /api/user.  Create and
// token are public; me and logout require a token.
func RegisterUser(e *echo.Echo, h *handler.UserHandler, auth, limiter echo.MiddlewareFunc) {
	g := e.Group("/api/user")
	g.POST("/create/", h.Create, limiter)
	g.POST("/token/", h.Token, limiter)

	g.GET("/me/", h.Me, auth, limiter)
	g.PATCH("/me/", h.UpdateMe, auth, limiter)
	g.POST("/logout/", h.Logout, auth, limiter)
}
