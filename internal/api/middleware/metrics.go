package middleware

import (
	"time"

	"github.com/gin-gonic/gin"

	"ta-assign/backend/pkg/metrics"
)

// Metrics 记录每个请求的路由、状态码与耗时
func Metrics() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		metrics.RecordHTTP(routeOf(c), c.Request.Method, c.Writer.Status(), time.Since(start))
	}
}
