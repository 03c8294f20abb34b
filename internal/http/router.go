package http

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"asset-portal/internal/domain"
)

// HealthChecker comprueba la conexión con el almacenamiento.
type HealthChecker interface {
	Ping(ctx context.Context) error
}

// NewRouter configura el router de Gin con middlewares y rutas.
func NewRouter(
	logger *zap.Logger,
	gate gin.HandlerFunc,
	authH *AuthHandler,
	portfolioH *PortfolioHandler,
	health HealthChecker,
) *gin.Engine {
	r := gin.New()

	// Middlewares basicos: logging, recovery y JSON content-type.
	r.Use(zapLoggerMiddleware(logger), gin.Recovery(), jsonContentTypeMiddleware())

	r.GET("/health", healthHandler(logger, health))

	api := r.Group("/api")

	auth := api.Group("/auth")
	auth.POST("/register", authH.Register)
	auth.POST("/login", authH.Login)

	protected := api.Group("", gate)
	protected.GET("/auth/me", authH.Me)
	protected.PUT("/auth/profile", authH.UpdateProfile)
	protected.PUT("/auth/password", authH.UpdatePassword)
	protected.GET("/dashboard", portfolioH.Dashboard)
	protected.GET("/investments", portfolioH.Investments)
	protected.GET("/transactions", portfolioH.Transactions)

	admin := protected.Group("/admin", RequireRole(domain.RoleAdmin))
	admin.POST("/investments", portfolioH.CreateInvestment)

	r.NoRoute(func(c *gin.Context) {
		respondError(c, http.StatusNotFound, msgRouteNotFound)
	})

	return r
}

func healthHandler(logger *zap.Logger, health HealthChecker) gin.HandlerFunc {
	return func(c *gin.Context) {
		if health == nil {
			respondOK(c, http.StatusOK, gin.H{"status": "ok"})
			return
		}
		ctx, cancel := context.WithTimeout(c.Request.Context(), 2*time.Second)
		defer cancel()
		if err := health.Ping(ctx); err != nil {
			logger.Warn("health check failed", zap.Error(err))
			respondError(c, http.StatusServiceUnavailable, msgUnavailable)
			return
		}
		respondOK(c, http.StatusOK, gin.H{"status": "ok"})
	}
}

// zapLoggerMiddleware crea un middleware simple de logging con zap.
func zapLoggerMiddleware(logger *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		latency := time.Since(start)
		logger.Info("request",
			zap.String("method", c.Request.Method),
			zap.String("path", c.Request.URL.Path),
			zap.Int("status", c.Writer.Status()),
			zap.Duration("latency", latency),
			zap.String("client_ip", c.ClientIP()),
		)
	}
}

// jsonContentTypeMiddleware fuerza Content-Type: application/json en responses.
func jsonContentTypeMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Writer.Header().Set("Content-Type", "application/json")
		c.Next()
	}
}
