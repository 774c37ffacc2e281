package router

import (
	"github.com/labstack/echo/v4"

	"github.com/iliyamo/recipe-app-api/internal/handler"
)

type recipeHandlers struct {
	tags        *handler.AttributeHandler
	ingredients *handler.AttributeHandler
	recipes     *handler.RecipeHandler
}

// RegisterRecipe registers the owner-scoped collections under /api/recipe.
// Every route requires a token; the limiter runs after auth so buckets can
// be keyed by user.
func RegisterRecipe(e *echo.Echo, h recipeHandlers, auth, limiter echo.MiddlewareFunc) {
	g := e.Group("/api/recipe")
	mw := []echo.MiddlewareFunc{auth, limiter}

	g.GET("/tags/", h.tags.List, mw...)
	g.POST("/tags/", h.tags.Create, mw...)

	g.GET("/ingredients/", h.ingredients.List, mw...)
	g.POST("/ingredients/", h.ingredients.Create, mw...)

	g.GET("/recipes/", h.recipes.List, mw...)
	g.POST("/recipes/", h.recipes.Create, mw...)
	g.GET("/recipes/:id/", h.recipes.Get, mw...)
	g.PUT("/recipes/:id/", h.recipes.Update, mw...)
	g.PATCH("/recipes/:id/", h.recipes.PartialUpdate, mw...)
	g.DELETE("/recipes/:id/", h.recipes.Delete, mw...)
}
