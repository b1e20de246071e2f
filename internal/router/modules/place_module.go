package modules

import (
	"time"

	"github.com/gin-gonic/gin"

	"github.com/yourplaces/api/internal/container"
	handlers "github.com/yourplaces/api/internal/interface/http"
	"github.com/yourplaces/api/internal/interface/middleware"
	"github.com/yourplaces/api/pkg/helpers"
)

// PlaceModule wires place HTTP handlers into routes.
// Public: GET /api/places/search, GET /api/places/user/:uid,
// GET /api/places/:pid
// Protected: POST /api/places, PATCH /api/places/:pid,
// DELETE /api/places/:pid
type PlaceModule struct {
	Handler *handlers.PlaceHandler
	JWT     *helpers.JWTManager
}

func NewPlaceModule(h *handlers.PlaceHandler, jwt *helpers.JWTManager) *PlaceModule {
	return &PlaceModule{Handler: h, JWT: jwt}
}

func (m *PlaceModule) Register(rg *gin.RouterGroup) {
	// Register fixed paths before the :pid wildcard
	rg.GET("/places/search", m.Handler.Search)
	rg.GET("/places/user/:uid", m.Handler.ListByUser)
	rg.GET("/places/:pid", m.Handler.GetByID)

	auth := rg.Group("/places")
	auth.Use(middleware.Auth(container.GetRedis(), m.JWT))
	{
		// Creation carries a geocoding call and an image upload, so cap it
		// per authenticated user.
		createLimiter := middleware.RateLimit(container.GetRedis(), 30, time.Minute, middleware.KeyByUserID(), middleware.AllowPrivateIP())
		auth.POST("", createLimiter, m.Handler.Create)
		auth.PATCH("/:pid", m.Handler.Update)
		auth.DELETE("/:pid", m.Handler.Delete)
	}
}
