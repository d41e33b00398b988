// Package router maps the portal's HTTP surface onto handlers and
// middleware.
package router

import (
	"github.com/labstack/echo/v4"
	echomw "github.com/labstack/echo/v4/middleware"
	"github.com/redis/go-redis/v9"

	"github.com/amicale/member-portal/internal/config"
	"github.com/amicale/member-portal/internal/handler"
	"github.com/amicale/member-portal/internal/middleware"
	"github.com/amicale/member-portal/internal/model"
	"github.com/amicale/member-portal/internal/ratelimit"
)

// Deps bundles everything the routes need.  main builds one and hands it
// over.
type Deps struct {
	Cfg            config.Config
	RateLimitCfg   config.RateLimitConfig
	CacheCfg       config.CacheConfig
	RateStore      ratelimit.Store
	Redis          *redis.Client // nil disables the response cache
	Auth           *handler.AuthHandler
	Cinema         *handler.CinemaHandler
	Blog           *handler.BlogHandler
	Newsletter     *handler.NewsletterHandler
	Reimbursements *handler.ReimbursementHandler
	Admin          *handler.AdminHandler
}

// Register wires every route on the Echo instance.
func Register(e *echo.Echo, d Deps) {
	e.Use(echomw.Logger())
	e.Use(echomw.Recover())

	// navigation redirects for non-API paths
	e.Use(middleware.RouteGuard(d.Cfg.JWTSecret))

	e.GET("/healthz", handler.Health)

	api := e.Group("/api")
	api.Use(middleware.RateLimit(d.RateLimitCfg, d.RateStore))

	cache := middleware.NewRedisCache(d.CacheCfg, d.Redis)

	// public surface
	api.GET("/cinema", d.Cinema.ListOfferings, cache)
	api.GET("/blog", d.Blog.List, cache)
	api.GET("/blog/:id", d.Blog.Get, cache)
	api.POST("/newsletter/subscribe", d.Newsletter.Subscribe)

	auth := api.Group("/auth")
	auth.POST("/register", d.Auth.Register)
	auth.POST("/login", d.Auth.Login)
	auth.POST("/refresh", d.Auth.Refresh)
	auth.POST("/refresh-access", d.Auth.RefreshAccess)
	auth.POST("/logout", d.Auth.Logout)

	// members and admins
	member := api.Group("")
	member.Use(middleware.JWTAuth(d.Cfg.JWTSecret))
	member.Use(middleware.RequireRole(model.RoleMember, model.RoleAdmin))
	member.GET("/me", d.Auth.Me)
	member.POST("/auth/logout-all", d.Auth.LogoutAll)
	member.GET("/cinema/quota", d.Cinema.CheckQuota)
	member.POST("/cinema/orders", d.Cinema.CreateOrder)
	member.GET("/cinema/orders", d.Cinema.ListOrders)
	member.POST("/blog/:id/comments", d.Blog.CreateComment)
	member.POST("/blog/:id/reactions", d.Blog.ToggleReaction)
	member.POST("/reimbursements", d.Reimbursements.Create)
	member.GET("/reimbursements", d.Reimbursements.ListMine)

	// back office
	admin := api.Group("/admin")
	admin.Use(middleware.JWTAuth(d.Cfg.JWTSecret))
	admin.Use(middleware.RequireRole(model.RoleAdmin))
	admin.GET("/tickets", d.Admin.ListTickets)
	admin.POST("/tickets", d.Admin.CreateTicket)
	admin.PUT("/tickets/:id", d.Admin.UpdateTicket)
	admin.DELETE("/tickets/:id", d.Admin.RetireTicket)
	admin.GET("/orders", d.Admin.ListOrders)
	admin.PATCH("/orders/:id/status", d.Admin.TransitionOrder)
	admin.GET("/waitlist", d.Admin.ListWaitlist)
	admin.GET("/reimbursements", d.Admin.ListReimbursements)
	admin.PATCH("/reimbursements/:id/status", d.Admin.SetReimbursementStatus)
	admin.GET("/newsletter", d.Admin.ListSubscribers)
}
