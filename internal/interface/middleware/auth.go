package middleware

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"

	"github.com/yourplaces/api/pkg/helpers"
	"github.com/yourplaces/api/pkg/response"
)

// Context keys set by Auth for downstream handlers.
const (
	CtxUserIDKey    = "userID"
	CtxUserEmailKey = "userEmail"
)

// Auth validates a bearer access token from the Authorization header and,
// when a Redis client is configured, requires a live session for the
// token's user. On success it sets userID and userEmail in the Gin
// context. OPTIONS pre-flight requests pass through unconditionally.
func Auth(rdb *redis.Client, jwt *helpers.JWTManager) gin.HandlerFunc {
	return func(c *gin.Context) {
		if c.Request.Method == http.MethodOptions {
			c.Next()
			return
		}

		header := c.GetHeader("Authorization")
		if header == "" {
			resp := response.Error[any](c, http.StatusUnauthorized, "missing authorization header", nil)
			c.AbortWithStatusJSON(resp.Status, resp)
			return
		}
		parts := strings.SplitN(header, " ", 2)
		if len(parts) != 2 || parts[0] != "Bearer" || parts[1] == "" {
			resp := response.Error[any](c, http.StatusUnauthorized, "invalid authorization format", nil)
			c.AbortWithStatusJSON(resp.Status, resp)
			return
		}

		claims, err := jwt.ParseAccessToken(parts[1])
		if err != nil {
			resp := response.Error[any](c, http.StatusUnauthorized, "invalid access token", nil)
			c.AbortWithStatusJSON(resp.Status, resp)
			return
		}

		if rdb != nil {
			n, err := rdb.Exists(c.Request.Context(), "user:session:"+claims.UserID).Result()
			if err != nil || n == 0 {
				resp := response.Error[any](c, http.StatusUnauthorized, "session not found", nil)
				c.AbortWithStatusJSON(resp.Status, resp)
				return
			}
		}

		c.Set(CtxUserIDKey, claims.UserID)
		c.Set(CtxUserEmailKey, claims.Email)
		c.Next()
	}
}
