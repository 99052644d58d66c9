package http

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/layer-3/snappa/metrics"
	"github.com/layer-3/snappa/service"
	"github.com/sirupsen/logrus"
)

// RouterConfig holds the optional pieces of the router
type RouterConfig struct {
	CookieAuth    bool
	Logger        logrus.FieldLogger
	Metrics       *metrics.Metrics
	SignInLimiter *RateLimiter
}

// SetupRouter sets up the Gin router
func SetupRouter(authService *service.AuthService, cfg RouterConfig) *gin.Engine {
	logger := cfg.Logger
	if logger == nil {
		logger = logrus.StandardLogger()
	}

	router := gin.New()
	router.Use(gin.Recovery(), RequestID(), Logging(logger), Metrics(cfg.Metrics))

	// Create handlers
	handlers := NewAuthHandlers(authService, cfg.CookieAuth)

	router.GET("/healthz", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	router.GET("/metrics", gin.WrapH(cfg.Metrics.Handler()))

	limited := func(h gin.HandlerFunc) []gin.HandlerFunc {
		if cfg.SignInLimiter == nil {
			return []gin.HandlerFunc{h}
		}
		return []gin.HandlerFunc{cfg.SignInLimiter.Handler(), h}
	}

	// Public auth routes
	api := router.Group("/api")
	{
		api.POST("/sign-in", limited(handlers.SignIn)...)
		api.POST("/local-sign-in", limited(handlers.LocalSignIn)...)
		api.GET("/logged-in", handlers.LoggedIn)
	}

	// Protected API routes
	protected := api.Group("")
	protected.Use(AuthMiddleware(authService, cfg.CookieAuth))
	{
		protected.GET("/me", handlers.Me)
		protected.POST("/sign-out", handlers.SignOut)
	}

	return router
}
