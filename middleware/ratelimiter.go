package middleware

import (
	"net/http"
	"strconv"
	"time"

	"github.com/didip/tollbooth"
	"github.com/didip/tollbooth/limiter"
	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
)

// RateLimitOptions configures the per-client limit on the form API.
type RateLimitOptions struct {
	RequestsPerMinute float64
	// IPLookups lists where the client address is read from, in order.
	// Behind a proxy the forwarding headers must come first.
	IPLookups []string
	Message   string
}

var defaultIPLookups = []string{"RemoteAddr", "X-Forwarded-For", "X-Real-IP"}

const defaultRateLimitMessage = "The API is at capacity, try again later."

func RateLimitMiddleware(opts RateLimitOptions, logger *logrus.Logger) gin.HandlerFunc {
	lookups := opts.IPLookups
	if len(lookups) == 0 {
		lookups = defaultIPLookups
	}
	message := opts.Message
	if message == "" {
		message = defaultRateLimitMessage
	}

	perSecond := opts.RequestsPerMinute / 60.0
	lmt := tollbooth.NewLimiter(perSecond, &limiter.ExpirableOptions{DefaultExpirationTTL: time.Minute})
	lmt.SetIPLookups(lookups)

	// Seconds until one more request fits into the budget.
	retryAfter := strconv.Itoa(int(60/opts.RequestsPerMinute) + 1)

	return func(c *gin.Context) {
		if httpError := tollbooth.LimitByRequest(lmt, c.Writer, c.Request); httpError != nil {
			logger.WithFields(logrus.Fields{
				"request_id": c.GetString(RequestIDKey),
				"client_ip":  c.ClientIP(),
				"path":       c.Request.URL.Path,
			}).Warn("Rate limit exceeded")

			c.Header("Retry-After", retryAfter)
			c.AbortWithStatusJSON(http.StatusTooManyRequests, Message{
				Status: "Request Failed",
				Body:   message,
			})
			return
		}
		c.Next()
	}
}
