// Package router wires HTTP routes to handlers and middleware.
package router

import (
	"github.com/labstack/echo/v4"
	"github.com/redis/go-redis/v9"

	"github.com/lexuanthang19/food-deli-deploy/internal/config"
	"github.com/lexuanthang19/food-deli-deploy/internal/handler"
	"github.com/lexuanthang19/food-deli-deploy/internal/middleware"
	"github.com/lexuanthang19/food-deli-deploy/internal/model"
)

// Handlers groups everything the router mounts.
type Handlers struct {
	Auth   *handler.AuthHandler
	Order  *handler.OrderHandler
	Table  *handler.TableHandler
	Branch *handler.BranchHandler
	Menu   *handler.MenuHandler
	Events *handler.EventHandler
}

// Register mounts all routes.  Public browse endpoints sit behind the
// response cache; protected groups apply JWT auth and, where needed, role
// enforcement; order placement additionally passes the rate limiter.
func Register(e *echo.Echo, h Handlers, cfg config.Config, rdb *redis.Client) {
	e.GET("/healthz", handler.Health)

	// unauthenticated auth endpoints
	auth := e.Group("/v1/auth")
	auth.POST("/register", h.Auth.Register)
	auth.POST("/login", h.Auth.Login)
	auth.POST("/refresh", h.Auth.Refresh)
	auth.POST("/logout", h.Auth.Logout)

	// public browse, cached
	browse := e.Group("/v1", middleware.Cache(config.LoadCacheConfig(), rdb))
	browse.GET("/menu", h.Menu.List)
	browse.GET("/branches", h.Branch.List)
	browse.GET("/branches/:id/tables", h.Table.ListByBranch)
	browse.GET("/tables/qr/:token", h.Table.GetByQR)

	// checkout redirect target; idempotent, no auth so the provider's
	// redirect works without a session
	e.POST("/v1/orders/verify", h.Order.Verify)

	// any authenticated user
	v1 := e.Group("/v1", middleware.JWTAuth(cfg.JWTSecret))
	v1.GET("/me", h.Auth.Me)
	v1.GET("/my-orders", h.Order.MyOrders)
	v1.GET("/events/stream", h.Events.Stream)
	v1.POST("/orders", h.Order.Place, middleware.RateLimit(config.LoadRateLimitConfig(), rdb))

	// staff console
	staff := e.Group("/v1", middleware.JWTAuth(cfg.JWTSecret),
		middleware.RequireRole(model.RoleStaff, model.RoleManager, model.RoleAdmin))
	staff.GET("/orders", h.Order.List)
	staff.PATCH("/orders/:id/status", h.Order.UpdateStatus)
	staff.PATCH("/tables/:id/status", h.Table.UpdateStatus)

	// management
	mgmt := e.Group("/v1", middleware.JWTAuth(cfg.JWTSecret),
		middleware.RequireRole(model.RoleManager, model.RoleAdmin))
	mgmt.POST("/orders/:id/mark-paid", h.Order.MarkPaid)
	mgmt.POST("/tables", h.Table.Add)
	mgmt.POST("/branches", h.Branch.Add)
	mgmt.DELETE("/branches/:id", h.Branch.Deactivate)
}
