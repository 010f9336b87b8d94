package main

import (
	"context"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"

	"roastery-backend/internal/domains/user"
	"roastery-backend/internal/shared/middleware"
	"roastery-backend/pkg/container"
)

func SetupRouter(c *container.Container) *gin.Engine {
	router := gin.New()

	// Global middlewares
	router.Use(
		middleware.Recovery(),
		middleware.RequestID(),
		middleware.Logger(),
		middleware.CORS(strings.Split(c.Config.App.CORSOrigins, ",")),
	)

	// Prometheus scrape endpoint (registry riêng của app)
	router.GET("/metrics", gin.WrapH(c.Metrics.Handler()))

	v1 := router.Group("/api/v1")
	{
		db, cache := healthChecks(c)
		v1.GET("/health", healthCheckHandler(c.Config.App.Version, db, cache))

		setupAuthRoutes(v1, c)
		setupUserRoutes(v1, c)
		setupAdminUserRoutes(v1, c)
		setupCheckoutRoutes(v1, c)
		setupWebhookRoutes(v1, c)
		setupAdminPaymentRoutes(v1, c)
		setupOrderRoutes(v1, c)
		setupAdminOrderRoutes(v1, c)
		setupSettingsRoutes(v1, c)
	}

	return router
}

// ========================================
// AUTH ROUTES
// ========================================
func setupAuthRoutes(v1 *gin.RouterGroup, c *container.Container) {
	auth := v1.Group("/auth")
	{
		auth.POST("/register", c.UserHandler.Register)
		auth.POST("/login", c.UserHandler.Login)
		auth.POST("/logout", c.UserHandler.Logout)
	}
}

// ========================================
// USER ROUTES
// ========================================
func setupUserRoutes(v1 *gin.RouterGroup, c *container.Container) {
	users := v1.Group("/users")
	users.Use(c.SessionGate.RequireSession())
	{
		users.GET("/me", c.UserHandler.GetProfile)
	}
}

func setupAdminUserRoutes(v1 *gin.RouterGroup, c *container.Container) {
	admin := v1.Group("/admin/users")
	admin.Use(c.SessionGate.Require(user.RoleAdmin))
	{
		admin.GET("", c.UserHandler.ListUsers)
		admin.PATCH("/:id/role", c.UserHandler.UpdateUserRole)
		admin.PATCH("/:id/status", c.UserHandler.UpdateUserStatus)
	}
}

// ========================================
// CHECKOUT + WEBHOOK ROUTES
// ========================================
func setupCheckoutRoutes(v1 *gin.RouterGroup, c *container.Container) {
	checkout := v1.Group("/checkout")
	checkout.Use(
		middleware.Maintenance(c.SettingsService),
		c.SessionGate.Optional(), // guest checkout
	)
	{
		checkout.POST("/intent", c.PaymentHandler.CreateIntent)
	}
}

// Webhook không qua session/maintenance gate: processor ký request bằng Stripe-Signature
func setupWebhookRoutes(v1 *gin.RouterGroup, c *container.Container) {
	webhooks := v1.Group("/webhooks")
	{
		webhooks.POST("/processor", c.PaymentHandler.Webhook)
	}
}

func setupAdminPaymentRoutes(v1 *gin.RouterGroup, c *container.Container) {
	adminPayments := v1.Group("/admin/payments")
	adminPayments.Use(c.SessionGate.Require(user.RoleAdmin, user.RoleManager))
	{
		adminPayments.POST("/recover", c.PaymentHandler.RecoverIntent)
		adminPayments.GET("/:intent_id", c.PaymentHandler.GetPayment)
	}
}

// ========================================
// ORDER ROUTES
// ========================================
func setupOrderRoutes(v1 *gin.RouterGroup, c *container.Container) {
	orders := v1.Group("/orders")
	orders.Use(c.SessionGate.RequireSession())
	{
		orders.GET("", c.OrderHandler.ListMyOrders)
		orders.GET("/:id", c.OrderHandler.GetMyOrder)
	}
}

func setupAdminOrderRoutes(v1 *gin.RouterGroup, c *container.Container) {
	adminOrders := v1.Group("/admin/orders")
	adminOrders.Use(c.SessionGate.Require(user.RoleAdmin, user.RoleManager, user.RoleTeam))
	{
		adminOrders.GET("", c.OrderHandler.AdminListOrders)
		adminOrders.GET("/:id", c.OrderHandler.AdminGetOrder)
		adminOrders.PATCH("/:id/status", c.OrderHandler.UpdateOrderStatus)
	}
}

// ========================================
// SETTINGS ROUTES
// ========================================
func setupSettingsRoutes(v1 *gin.RouterGroup, c *container.Container) {
	settings := v1.Group("/admin/settings")
	settings.Use(c.SessionGate.Require(user.RoleAdmin))
	{
		settings.GET("/maintenance", c.SettingsHandler.GetMaintenance)
		settings.PUT("/maintenance", c.SettingsHandler.UpdateMaintenance)
	}
}

// ========================================
// HEALTH CHECK HANDLER
// ========================================

type dbHealthChecker interface {
	HealthCheck(ctx context.Context) error
}

type cachePinger interface {
	Ping(ctx context.Context) error
}

// healthChecks gom dependency cho /health; nil = chưa kết nối
func healthChecks(c *container.Container) (dbHealthChecker, cachePinger) {
	var db dbHealthChecker
	if c.DB != nil && c.DB.Pool != nil {
		db = c.DB
	}
	var cache cachePinger
	if c.Cache != nil {
		cache = c.Cache
	}
	return db, cache
}

// healthCheckHandler là endpoint public: lỗi driver chỉ ghi log, response chỉ có "error"
func healthCheckHandler(version string, db dbHealthChecker, cache cachePinger) gin.HandlerFunc {
	return func(c *gin.Context) {
		health := gin.H{
			"status":    "ok",
			"timestamp": time.Now().Format(time.RFC3339),
			"version":   version,
		}

		// Check database
		dbStatus := "ok"
		if db == nil {
			dbStatus = "disconnected"
			health["status"] = "degraded"
		} else {
			ctx, cancel := context.WithTimeout(c.Request.Context(), 2*time.Second)
			defer cancel()

			if err := db.HealthCheck(ctx); err != nil {
				log.Error().Err(err).Msg("health check: database unavailable")
				dbStatus = "error"
				health["status"] = "degraded"
			}
		}

		// Check redis (không critical)
		redisStatus := "ok"
		if cache == nil {
			redisStatus = "disconnected"
		} else {
			ctx, cancel := context.WithTimeout(c.Request.Context(), 2*time.Second)
			defer cancel()

			if err := cache.Ping(ctx); err != nil {
				log.Warn().Err(err).Msg("health check: redis unavailable")
				redisStatus = "error"
			}
		}

		health["services"] = gin.H{
			"database": dbStatus,
			"redis":    redisStatus,
		}

		statusCode := http.StatusOK
		if dbStatus != "ok" {
			statusCode = http.StatusServiceUnavailable
		}

		c.JSON(statusCode, health)
	}
}
