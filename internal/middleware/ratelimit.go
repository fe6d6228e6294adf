package middleware

import (
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"

	"github.com/dumeirei/tutor-finance-backend/internal/common/config"
	"github.com/dumeirei/tutor-finance-backend/internal/common/errors"
	"github.com/dumeirei/tutor-finance-backend/internal/common/response"
)

// RateLimitConfig 限流配置
type RateLimitConfig struct {
	RedisClient *redis.Client
	KeyPrefix   string                    // Redis 键前缀
	Limit       int                       // 窗口内允许的请求数
	Window      time.Duration             // 时间窗口
	KeyFunc     func(*gin.Context) string // 自定义键生成函数
}

// NewRateLimitConfig 由应用配置构建限流配置，未启用或 Redis 不可用时返回 nil
func NewRateLimitConfig(cfg *config.RateLimitConfig, client *redis.Client) *RateLimitConfig {
	if cfg == nil || !cfg.Enabled || client == nil || cfg.Limit <= 0 {
		return nil
	}
	window := time.Duration(cfg.Window) * time.Second
	if window <= 0 {
		window = time.Minute
	}
	return &RateLimitConfig{
		RedisClient: client,
		KeyPrefix:   "ratelimit:",
		Limit:       cfg.Limit,
		Window:      window,
	}
}

// RateLimit 固定窗口限流中间件，cfg 为 nil 时直接放行
func RateLimit(cfg *RateLimitConfig) gin.HandlerFunc {
	return func(c *gin.Context) {
		if cfg == nil || cfg.RedisClient == nil {
			c.Next()
			return
		}

		var key string
		if cfg.KeyFunc != nil {
			key = cfg.KeyFunc(c)
		} else {
			key = fmt.Sprintf("%s%s:%s", cfg.KeyPrefix, c.ClientIP(), c.Request.Method)
		}

		ctx := c.Request.Context()
		count, err := cfg.RedisClient.Incr(ctx, key).Result()
		if err != nil {
			// Redis 故障时放行
			_ = c.Error(err)
			c.Next()
			return
		}
		if count == 1 {
			cfg.RedisClient.Expire(ctx, key, cfg.Window)
		}

		c.Header("X-RateLimit-Limit", strconv.Itoa(cfg.Limit))
		if int(count) > cfg.Limit {
			ttl, _ := cfg.RedisClient.TTL(ctx, key).Result()
			if ttl < 0 {
				ttl = cfg.Window
			}
			c.Header("X-RateLimit-Remaining", "0")
			c.Header("Retry-After", strconv.Itoa(int(ttl.Seconds())))

			response.Error(c, http.StatusTooManyRequests, errors.ErrRateLimitExceed.Code, errors.ErrRateLimitExceed.Message)
			c.Abort()
			return
		}

		c.Header("X-RateLimit-Remaining", strconv.Itoa(cfg.Limit-int(count)))
		c.Next()
	}
}

// WriteOnly 仅对写请求生效的包装，读请求直接放行
func WriteOnly(h gin.HandlerFunc) gin.HandlerFunc {
	return func(c *gin.Context) {
		switch c.Request.Method {
		case http.MethodGet, http.MethodHead, http.MethodOptions:
			c.Next()
		default:
			h(c)
		}
	}
}
