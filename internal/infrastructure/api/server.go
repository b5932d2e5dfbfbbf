package api

import (
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
)

// NewServer builds the management HTTP surface. The /api group is
// protected by the access key when one is configured; /health is
// always open.
func NewServer(handler *Handler, accessKey string, logger *slog.Logger) *gin.Engine {
	gin.SetMode(gin.ReleaseMode)

	r := gin.New()
	r.Use(gin.Recovery())
	if logger != nil {
		r.Use(requestLogger(logger))
	}

	r.GET("/health", handler.GetHealth)

	api := r.Group("/api")
	if accessKey != "" {
		api.Use(authMiddleware(accessKey))
	}
	{
		api.POST("/run", handler.TriggerRun)
		api.GET("/feeds", handler.ListFeeds)
		api.POST("/feeds/validate", handler.ValidateFeed)
	}

	return r
}

func requestLogger(logger *slog.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		logger.Info("http request",
			"method", c.Request.Method,
			"path", c.Request.URL.Path,
			"status", c.Writer.Status(),
			"duration", time.Since(start).Round(time.Millisecond).String(),
			"client", c.ClientIP(),
		)
	}
}

// authMiddleware accepts the key via X-API-Key or a bearer token.
func authMiddleware(accessKey string) gin.HandlerFunc {
	return func(c *gin.Context) {
		provided := c.GetHeader("X-API-Key")
		if provided == "" {
			if auth := c.GetHeader("Authorization"); strings.HasPrefix(auth, "Bearer ") {
				provided = strings.TrimPrefix(auth, "Bearer ")
			}
		}

		if provided == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "api key required"})
			return
		}
		if provided != accessKey {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "invalid api key"})
			return
		}
		c.Next()
	}
}
