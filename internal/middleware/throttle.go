package middleware

import (
	"errors"
	"net/http"
	"sync"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
	"golang.org/x/time/rate"

	"github.com/go-petr/pet-ledger/pkg/web"
)

// ErrRateLimitExceeded is returned once a client has used up its burst.
var ErrRateLimitExceeded = errors.New("rate limit exceeded")

// TODO: evict limiters of clients that went idle.
type clientLimiters struct {
	mu       sync.Mutex
	limiters map[string]*rate.Limiter
	rps      rate.Limit
	burst    int
}

func (c *clientLimiters) get(key string) *rate.Limiter {
	c.mu.Lock()
	defer c.mu.Unlock()

	lim, ok := c.limiters[key]
	if !ok {
		lim = rate.NewLimiter(c.rps, c.burst)
		c.limiters[key] = lim
	}

	return lim
}

// Throttle limits every client IP to rps requests per second with the given burst.
// A non-positive rps disables throttling.
func Throttle(rps float64, burst int) gin.HandlerFunc {
	if rps <= 0 {
		return func(gctx *gin.Context) { gctx.Next() }
	}

	clients := &clientLimiters{
		limiters: make(map[string]*rate.Limiter),
		rps:      rate.Limit(rps),
		burst:    burst,
	}

	return func(gctx *gin.Context) {
		ip := gctx.ClientIP()

		if !clients.get(ip).Allow() {
			zerolog.Ctx(gctx.Request.Context()).Warn().Str("client_ip", ip).Msg("request throttled")
			gctx.AbortWithStatusJSON(http.StatusTooManyRequests, web.Error(ErrRateLimitExceeded))

			return
		}

		gctx.Next()
	}
}
