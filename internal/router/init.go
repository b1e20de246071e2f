package router

import (
	"github.com/yourplaces/api/internal/application"
	"github.com/yourplaces/api/internal/container"
	pginfra "github.com/yourplaces/api/internal/infrastructure/postgres"
	handlers "github.com/yourplaces/api/internal/interface/http"
	"github.com/yourplaces/api/internal/router/modules"
)

// InitModules initializes all application modules and registers them with
// the router registry. Called once during startup.
func InitModules(r *Registry) {
	cfg := container.GetConfig()
	pool := container.GetPGPool()

	userRepo := pginfra.NewUserRepository(pool)
	placeRepo := pginfra.NewPlaceRepository(pool)
	txRunner := pginfra.NewTxRunner(pool, container.GetLogger())

	userSvc := application.NewUserService(
		userRepo,
		container.GetJWT(),
		container.GetGCS(),
		cfg.GCSBucket,
		container.GetRedis(),
		container.GetEmailPub(),
		container.GetLogger(),
	)
	placeSvc := application.NewPlaceService(
		placeRepo,
		userRepo,
		txRunner,
		container.GetGeocoder(),
		container.GetGCS(),
		cfg.GCSBucket,
		container.GetRedis(),
		container.GetCleanupPub(),
		container.GetLogger(),
		container.GetES(),
		cfg.ESPlacesIndex,
	)

	userHandler := handlers.NewUserHandler(userSvc, container.GetLogger())
	placeHandler := handlers.NewPlaceHandler(placeSvc, container.GetLogger())

	r.Add(modules.NewUserModule(userHandler, container.GetJWT()))
	r.Add(modules.NewPlaceModule(placeHandler, container.GetJWT()))
}
