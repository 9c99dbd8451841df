package middleware

import (
	"time"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"github.com/ulule/limiter/v3"
	ginlimiter "github.com/ulule/limiter/v3/drivers/middleware/gin"
	memory "github.com/ulule/limiter/v3/drivers/store/memory"
	sredis "github.com/ulule/limiter/v3/drivers/store/redis"
)

// RateLimiter limits requests per client IP. Counters live in redis when a
// client is given so every replica shares them.
func RateLimiter(perMinute int, rdb *redis.Client, log zerolog.Logger) gin.HandlerFunc {
	if perMinute <= 0 {
		perMinute = 100
	}
	rate := limiter.Rate{Period: time.Minute, Limit: int64(perMinute)}

	var store limiter.Store = memory.NewStore()
	if rdb != nil {
		rs, err := sredis.NewStoreWithOptions(rdb, limiter.StoreOptions{Prefix: "campus_events_limiter"})
		if err != nil {
			log.Warn().Err(err).Msg("⚠️ redis limiter store unavailable, using memory")
		} else {
			store = rs
		}
	}

	return ginlimiter.NewMiddleware(limiter.New(store, rate))
}
