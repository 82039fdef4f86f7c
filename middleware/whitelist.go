package middleware

import (
	"net"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
)

// DomainWhitelistMiddleware rejects requests whose Host is not listed. An
// empty list lets everything through.
func DomainWhitelistMiddleware(allowedDomains []string, logger *logrus.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		if len(allowedDomains) == 0 {
			c.Next()
			return
		}

		host := c.Request.Host
		if h, _, err := net.SplitHostPort(host); err == nil {
			host = h
		}

		allowed := false
		for _, domain := range allowedDomains {
			if strings.EqualFold(domain, host) || strings.EqualFold(domain, c.Request.Host) {
				allowed = true
				break
			}
		}

		if !allowed {
			logger.WithFields(logrus.Fields{
				"host":       c.Request.Host,
				"request_id": c.GetString(RequestIDKey),
			}).Warn("Request from domain outside whitelist")
			c.AbortWithStatusJSON(http.StatusForbidden, Message{
				Status: "Request Failed",
				Body:   "Permission denied",
			})
			return
		}

		c.Next()
	}
}
