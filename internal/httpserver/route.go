package httpserver

import (
	"context"
	"net/http"

	"github.com/labstack/echo/v4"

	authmw "github.com/Skotchmaster/epinhell/internal/middleware/auth"
)

type Deps struct {
	AuthHandler    *AuthHTTP
	CatalogHandler *CatalogHTTP
	CartHandler    *CartHTTP
	Auth           *authmw.Middleware
	// Ready reports whether the storage behind the handlers answers.
	Ready func(ctx context.Context) error
}

func Register(e *echo.Echo, d *Deps) {
	if e.Validator == nil {
		e.Validator = Validator{}
	}

	e.GET("/health/live", func(c echo.Context) error { return c.NoContent(http.StatusOK) })
	e.GET("/health/ready", func(c echo.Context) error {
		if d.Ready != nil {
			if err := d.Ready(c.Request().Context()); err != nil {
				return c.JSON(http.StatusServiceUnavailable, echo.Map{"error": err.Error()})
			}
		}
		return c.NoContent(http.StatusOK)
	})

	account := e.Group("/account")
	account.POST("/register", d.AuthHandler.Register)
	account.POST("/login", d.AuthHandler.Login)
	account.POST("/refresh", d.AuthHandler.Refresh)
	account.POST("/logout", d.AuthHandler.Logout, d.Auth.RequireAuth)

	products := e.Group("/products")
	products.GET("", d.CatalogHandler.List)
	products.GET("/search", d.CatalogHandler.Search)
	products.GET("/:id", d.CatalogHandler.Get)

	admin := products.Group("", d.Auth.RequireAdmin)
	admin.POST("", d.CatalogHandler.Create)
	admin.PUT("/:id", d.CatalogHandler.Update)
	admin.PATCH("/:id", d.CatalogHandler.Patch)
	admin.DELETE("/:id", d.CatalogHandler.Delete)

	cart := e.Group("/cart", d.Auth.RequireAuth)
	cart.GET("", d.CartHandler.View)
	cart.DELETE("", d.CartHandler.Clear)
	cart.POST("/items", d.CartHandler.Add)
	cart.POST("/items/:id/quantity", d.CartHandler.Quantity)
	cart.DELETE("/items/:id", d.CartHandler.Remove)
	cart.POST("/checkout", d.CartHandler.Checkout)
}
