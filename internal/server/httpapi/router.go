// Package httpapi exposes the sync protocol over HTTP: a reachability probe,
// a whole-snapshot download, and a whole-snapshot upload.
package httpapi

import (
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// userIDHeader carries the caller identity. Authentication is out of scope;
// absent the header, every caller shares the default account.
const (
	userIDHeader  = "X-User-ID"
	defaultUserID = "temp-user"
)

// NewRouter wires the sync endpoints onto a gin engine.
func NewRouter(h *Handler, logger *zap.Logger, allowOrigins []string) *gin.Engine {
	router := gin.New()
	router.Use(requestLogger(logger), gin.Recovery())

	if len(allowOrigins) == 0 {
		allowOrigins = []string{"*"}
	}
	router.Use(cors.New(cors.Config{
		AllowOrigins: allowOrigins,
		AllowMethods: []string{"GET", "POST", "OPTIONS"},
		AllowHeaders: []string{"Content-Type", userIDHeader},
	}))

	api := router.Group("/api")
	{
		api.GET("/health", h.Health)
		api.GET("/sync/data", h.Download)
		api.POST("/sync/upload", h.Upload)
	}
	return router
}

func requestLogger(logger *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		logger.Info("http request",
			zap.String("method", c.Request.Method),
			zap.String("path", c.Request.URL.Path),
			zap.Int("status", c.Writer.Status()),
			zap.Duration("duration", time.Since(start)),
		)
	}
}

func userID(c *gin.Context) string {
	if id := c.GetHeader(userIDHeader); id != "" {
		return id
	}
	return defaultUserID
}
