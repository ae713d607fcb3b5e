package http

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/ndelacroix/depanneur/internal/infra/config"
)

// NewRouter wires up the HTTP handlers and returns a configured server.
func NewRouter(cfg *config.Config, handler *Handler) *http.Server {
	gin.SetMode(gin.ReleaseMode)

	router := gin.New()
	router.Use(
		gin.Recovery(),
		requestIDMiddleware(),
		requestLogger(handler.logger),
		corsMiddleware(cfg.HTTP.AllowedOrigins),
		rateLimitMiddleware(cfg.HTTP.RateLimit, handler.logger),
		errorHandlingMiddleware(handler.logger),
	)

	api := router.Group("/api/v1")
	{
		api.POST("/diagnostics", handler.Diagnose)
		api.GET("/diagnostics/trending", handler.Trending)

		catalog := api.Group("/catalog")
		{
			catalog.POST("/tools", handler.CreateTool)
			catalog.POST("/problems", handler.CreateProblem)
			catalog.POST("/symptoms", handler.CreateSymptom)
			catalog.POST("/solutions", handler.CreateSolution)
		}
	}

	return &http.Server{
		Addr:           cfg.HTTP.Address,
		Handler:        router,
		ReadTimeout:    cfg.HTTP.ReadTimeout,
		WriteTimeout:   cfg.HTTP.WriteTimeout,
		MaxHeaderBytes: 1 << 20,
	}
}

func requestLogger(logger *slog.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		latency := time.Since(start)
		logger.Info("http request", "method", c.Request.Method, "path", c.Request.URL.Path, "status", c.Writer.Status(), "request_id", c.GetString("request_id"), "latency_ms", latency.Milliseconds())
	}
}
