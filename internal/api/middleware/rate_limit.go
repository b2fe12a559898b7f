package middleware

import (
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"ta-assign/backend/pkg/redis"
	"ta-assign/backend/pkg/response"
)

// RateLimit 基于 Redis 滑动窗口的速率限制中间件
// 已登录请求按用户计数，匿名请求按客户端 IP 计数。
// rdb 为 nil 或 Redis 出错时降级放行（与 JWTAuth 策略一致）
func RateLimit(rdb *redis.Client, limit int, window time.Duration) gin.HandlerFunc {
	return func(c *gin.Context) {
		if rdb == nil {
			c.Next()
			return
		}

		subject := "ip:" + c.ClientIP()
		if uid := c.GetString(CtxUserID); uid != "" {
			subject = "user:" + uid
		}
		key := fmt.Sprintf("rate_limit:%s:%s", routeOf(c), subject)

		allowed, err := rdb.CheckRateLimit(c.Request.Context(), key, limit, window)
		if err != nil {
			c.Next()
			return
		}
		if !allowed {
			c.Header("Retry-After", fmt.Sprintf("%d", int(window.Seconds())))
			response.Error(c, http.StatusTooManyRequests, 10004, "请求过于频繁，请稍后再试")
			c.Abort()
			return
		}

		c.Next()
	}
}
