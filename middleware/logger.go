package middleware

import (
	"time"

	"schedule-viewer/logger"

	"github.com/gin-gonic/gin"
)

// Logger пишет строку на каждый запрос
func Logger(log logger.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		fields := map[string]any{
			"method":  c.Request.Method,
			"path":    c.Request.URL.Path,
			"status":  c.Writer.Status(),
			"latency": time.Since(start).String(),
			"client":  c.ClientIP(),
		}
		if len(c.Errors) > 0 {
			fields["errors"] = c.Errors.String()
		}
		if c.Writer.Status() >= 500 {
			log.Errorw("request", fields)
			return
		}
		log.Infow("request", fields)
	}
}
