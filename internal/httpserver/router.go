package httpserver

import (
	"context"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/Skotchmaster/ecoshop/internal/metrics"
	"github.com/Skotchmaster/ecoshop/internal/middleware/auth"
	"github.com/Skotchmaster/ecoshop/pkg/logging"
)

const readyTimeout = 2 * time.Second

type Pinger interface {
	Ping(ctx context.Context) error
}

type Deps struct {
	Users    *UsersHTTP
	Products *ProductsHTTP
	Orders   *OrdersHTTP
	Auth     *auth.Auth
	Store    Pinger
	Metrics  *metrics.Metrics
}

func Register(e *echo.Echo, d *Deps) {
	e.Validator = NewValidator()

	e.GET("/health/live", func(c echo.Context) error { return c.NoContent(http.StatusOK) })
	e.GET("/health/ready", func(c echo.Context) error {
		ctx, cancel := context.WithTimeout(c.Request().Context(), readyTimeout)
		defer cancel()
		if err := d.Store.Ping(ctx); err != nil {
			logging.FromContext(ctx).Error("readiness_failed", "status", http.StatusServiceUnavailable, "error", err)
			return echo.NewHTTPError(http.StatusServiceUnavailable, "store unavailable")
		}
		return c.NoContent(http.StatusOK)
	})
	if d.Metrics != nil {
		e.GET(metrics.MetricsPath, echo.WrapHandler(d.Metrics.Handler()))
	}

	api := e.Group("/api")
	requireAuth := d.Auth.RequireAuth

	users := api.Group("/users")
	users.POST("/register", d.Users.Register)
	users.POST("/login", d.Users.Login)
	users.POST("/logout", d.Users.Logout, requireAuth)
	users.GET("/profile", d.Users.Profile, requireAuth)
	users.GET("", d.Users.List)

	products := api.Group("/products")
	products.GET("", d.Products.ListProducts)
	products.GET("/:id", d.Products.GetProduct)

	productsAdmin := products.Group("", requireAuth, auth.RequireAdmin)
	productsAdmin.POST("", d.Products.CreateProduct)
	productsAdmin.PUT("/:id", d.Products.UpdateProduct)
	productsAdmin.DELETE("/:id", d.Products.DeleteProduct)

	orders := api.Group("/orders", requireAuth)
	orders.POST("", d.Orders.CreateOrder)
	orders.GET("/:id", d.Orders.GetOrder)
	orders.GET("", d.Orders.ListOrders, auth.RequireAdmin)
	orders.PUT("/:id", d.Orders.UpdateOrder, auth.RequireAdmin)
}
