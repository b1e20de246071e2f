package middleware

import (
	"github.com/gin-gonic/gin"
	"net"
)

// AllowPrivateIP bypasses rate limiting for loopback and RFC 1918 client
// addresses, so internal health checks and tooling are never throttled.
func AllowPrivateIP() AllowFunc {
	return func(c *gin.Context) bool {
		parsed := net.ParseIP(ipFromCtx(c))
		if parsed == nil {
			return false
		}
		return parsed.IsLoopback() || parsed.IsPrivate()
	}
}
