package middleware

import (
	"time"

	"github.com/gin-gonic/gin"

	"flowfarm/infrastructure/logger"
)

// RequestLogger emits one structured line per request with method, path,
// status and latency.
func RequestLogger() gin.HandlerFunc {
	return func(ctx *gin.Context) {
		start := time.Now()
		ctx.Next()
		logger.GetLogger().WithFields(map[string]interface{}{
			"method":  ctx.Request.Method,
			"path":    ctx.FullPath(),
			"status":  ctx.Writer.Status(),
			"latency": time.Since(start).String(),
		}).Info("Request handled")
	}
}
