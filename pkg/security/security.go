package security

import (
	"net/http"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"golang.org/x/time/rate"
)

// CORS 只放行白名单里的阅卷前端 Origin。评分与裁决请求都带
// Authorization 头，预检结果允许浏览器缓存两小时
func CORS(allowedOrigins []string) gin.HandlerFunc {
	allowed := make(map[string]struct{}, len(allowedOrigins))
	for _, origin := range allowedOrigins {
		allowed[origin] = struct{}{}
	}

	return func(c *gin.Context) {
		h := c.Writer.Header()
		h.Add("Vary", "Origin")

		origin := c.Request.Header.Get("Origin")
		if _, ok := allowed[origin]; ok && origin != "" {
			h.Set("Access-Control-Allow-Origin", origin)
			h.Set("Access-Control-Allow-Credentials", "true")
			h.Set("Access-Control-Allow-Headers", "Authorization, Content-Type, Accept, Origin, X-Requested-With")
			h.Set("Access-Control-Allow-Methods", "GET, POST, PUT, PATCH, DELETE, OPTIONS")
			h.Set("Access-Control-Max-Age", "7200")
		}

		if c.Request.Method == http.MethodOptions {
			c.AbortWithStatus(http.StatusNoContent)
			return
		}
		c.Next()
	}
}

// Secure 安全响应头。答案文本和评分属于敏感数据，接口响应一律不缓存
func Secure() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Header("X-Content-Type-Options", "nosniff")
		c.Header("X-Frame-Options", "DENY")
		c.Header("Referrer-Policy", "no-referrer")
		c.Header("Cache-Control", "no-store")
		if c.Request.TLS != nil {
			c.Header("Strict-Transport-Security", "max-age=31536000; includeSubDomains")
		}
		c.Next()
	}
}

type bucket struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

// RateLimiter 按客户端 IP 限流。稳态速率为 maxRequests/window，
// 突发额度取其十分之一（至少 10），评阅人批量打开答案详情不会误伤；
// 空闲条目由后台定期回收
func RateLimiter(maxRequests int, window time.Duration) gin.HandlerFunc {
	var buckets sync.Map

	burst := maxRequests / 10
	if burst < 10 {
		burst = 10
	}
	limit := rate.Every(window / time.Duration(maxRequests))

	go func() {
		idle := 3 * window
		if idle < time.Minute {
			idle = time.Minute
		}
		for range time.Tick(time.Minute) {
			now := time.Now()
			buckets.Range(func(key, value interface{}) bool {
				if now.Sub(value.(*bucket).lastSeen) > idle {
					buckets.Delete(key)
				}
				return true
			})
		}
	}()

	return func(c *gin.Context) {
		v, _ := buckets.LoadOrStore(c.ClientIP(), &bucket{limiter: rate.NewLimiter(limit, burst)})
		b := v.(*bucket)
		b.lastSeen = time.Now()

		if !b.limiter.Allow() {
			c.AbortWithStatusJSON(http.StatusTooManyRequests, gin.H{"error": "too many requests"})
			return
		}
		c.Next()
	}
}
