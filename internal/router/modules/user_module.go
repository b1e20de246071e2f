package modules

import (
	"time"

	"github.com/gin-gonic/gin"

	"github.com/yourplaces/api/internal/container"
	handlers "github.com/yourplaces/api/internal/interface/http"
	"github.com/yourplaces/api/internal/interface/middleware"
	"github.com/yourplaces/api/pkg/helpers"
)

// UserModule wires user HTTP handlers and auth middleware into routes.
// Public: GET /api/users, POST /api/users/signup, POST /api/users/login,
// POST /api/users/refresh
// Protected: GET /api/users/profile
type UserModule struct {
	Handler *handlers.UserHandler
	JWT     *helpers.JWTManager
}

func NewUserModule(h *handlers.UserHandler, jwt *helpers.JWTManager) *UserModule {
	return &UserModule{Handler: h, JWT: jwt}
}

func (m *UserModule) Register(rg *gin.RouterGroup) {
	// Per-route limits so a login brute force does not starve signups.
	// Internal addresses bypass the limiter entirely.
	allowInternal := middleware.AllowPrivateIP()
	signupLimiter := middleware.RateLimit(container.GetRedis(), 10, time.Minute, middleware.KeyByIPAndPath(), allowInternal)
	loginLimiter := middleware.RateLimit(container.GetRedis(), 10, time.Minute, middleware.KeyByIPAndPath(), allowInternal)
	refreshLimiter := middleware.RateLimit(container.GetRedis(), 60, time.Minute, middleware.KeyByIP(), allowInternal)

	rg.GET("/users", m.Handler.List)
	rg.POST("/users/signup", signupLimiter, m.Handler.Signup)
	rg.POST("/users/login", loginLimiter, m.Handler.Login)
	rg.POST("/users/refresh", refreshLimiter, m.Handler.Refresh)

	auth := rg.Group("/users")
	auth.Use(middleware.Auth(container.GetRedis(), m.JWT))
	{
		auth.GET("/profile", m.Handler.GetProfile)
	}
}
