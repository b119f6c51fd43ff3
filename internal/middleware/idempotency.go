package middleware

import (
	"net/http"
	"time"

	"rotuprinters/pkg/response"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

// IdempotencyHeader is the request header carrying the client-chosen key.
const IdempotencyHeader = "Idempotency-Key"

// Idempotency rejects a repeated Idempotency-Key with 409 so a retried
// complete or adjust is not applied twice. Requests without the header, or
// a nil client, pass through. A key whose request failed is released so the
// caller can try again.
func Idempotency(rdb *redis.Client, ttl time.Duration, log *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		key := c.GetHeader(IdempotencyHeader)
		if rdb == nil || key == "" {
			c.Next()
			return
		}

		redisKey := "idempotency:" + c.Request.Method + ":" + c.Request.URL.Path + ":" + key
		ok, err := rdb.SetNX(c.Request.Context(), redisKey, "1", ttl).Result()
		if err != nil {
			// Fail open when Redis is unavailable.
			log.Warn("idempotency check skipped", zap.Error(err))
			c.Next()
			return
		}
		if !ok {
			c.AbortWithStatusJSON(http.StatusConflict, response.Error(http.StatusConflict, "Duplicate request: this Idempotency-Key was already used"))
			return
		}

		c.Next()

		if c.Writer.Status() >= http.StatusBadRequest {
			if err := rdb.Del(c.Request.Context(), redisKey).Err(); err != nil {
				log.Warn("failed to release idempotency key", zap.Error(err))
			}
		}
	}
}
