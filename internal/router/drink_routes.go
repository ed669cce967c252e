package router

import (
	"github.com/labstack/echo/v4"

	"github.com/iliyamo/coffee-shop-api/internal/handler"
	"github.com/iliyamo/coffee-shop-api/internal/middleware"
)

// Permissions required by the protected drink routes.
const (
	PermGetDrinksDetail = "get:drinks-detail"
	PermPostDrinks      = "post:drinks"
	PermPatchDrinks     = "patch:drinks"
	PermDeleteDrinks    = "delete:drinks"
)

// RegisterDrinks maps the drink endpoints.  Each protected route lists its
// guards explicitly: authenticate first, then check the permission.  The
// limiter runs after the guards so per-user keys see the token subject.
// Writes clear the cached public list once they succeed.
func RegisterDrinks(e *echo.Echo, h *handler.DrinkHandler, v middleware.TokenVerifier, limit echo.MiddlewareFunc, cache *middleware.ResponseCache) {
	guard := func(perm string) []echo.MiddlewareFunc {
		return []echo.MiddlewareFunc{middleware.RequireAuth(v), middleware.RequirePermission(perm), limit}
	}
	write := func(perm string) []echo.MiddlewareFunc {
		return append(guard(perm), cache.InvalidateOnWrite())
	}

	// public, cacheable
	e.GET("/drinks", h.ListDrinks, limit, cache.Middleware())

	e.GET("/drinks-detail", h.ListDrinksDetail, guard(PermGetDrinksDetail)...)
	e.POST("/drinks", h.CreateDrink, write(PermPostDrinks)...)
	e.PATCH("/drinks/:id", h.UpdateDrink, write(PermPatchDrinks)...)
	e.DELETE("/drinks/:id", h.DeleteDrink, write(PermDeleteDrinks)...)
}
