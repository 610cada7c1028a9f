package middleware

import (
	"time"

	"github.com/gin-gonic/gin"
)

// RequestRecorder учёт HTTP-запросов
type RequestRecorder interface {
	Request(method, route string, status int, elapsed time.Duration)
}

// Metrics route берётся из шаблона маршрута, чтобы не плодить метки
func Metrics(rec RequestRecorder) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		route := c.FullPath()
		if route == "" {
			route = "unmatched"
		}
		rec.Request(c.Request.Method, route, c.Writer.Status(), time.Since(start))
	}
}
