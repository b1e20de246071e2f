package main

import (
	"context"
	"errors"
	"log"

	"github.com/joho/godotenv"

	"github.com/yourplaces/api/config"
	"github.com/yourplaces/api/internal/domain/entity"
	"github.com/yourplaces/api/internal/domain/repository"
	pginfra "github.com/yourplaces/api/internal/infrastructure/postgres"
	"github.com/yourplaces/api/pkg/helpers"
)

// seed inserts a demo user and one place for local development. The place
// goes through the same transaction path the API uses, so the user's
// place_ids back-reference is populated too. Running it twice is a no-op.
func main() {
	_ = godotenv.Load()
	cfg := config.Load()
	logger := helpers.NewLogger(cfg.AppName, cfg.Env)

	ctx := context.Background()

	pool, err := pginfra.NewPool(ctx, cfg.PostgresDSN(), cfg.DBMaxConns, cfg.DBMinConns, cfg.DBMaxConnLife)
	if err != nil {
		log.Fatalf("connect postgres: %v", err)
	}
	defer pool.Close()

	users := pginfra.NewUserRepository(pool)
	tx := pginfra.NewTxRunner(pool, logger)

	const demoEmail = "demo@example.com"
	if _, err := users.GetByEmail(ctx, demoEmail); err == nil {
		logger.Info("demo user already present, nothing to seed")
		return
	} else if !errors.Is(err, repository.ErrNotFound) {
		log.Fatalf("check demo user: %v", err)
	}

	hash, err := helpers.HashPassword("demopassword")
	if err != nil {
		log.Fatalf("hash password: %v", err)
	}

	user := &entity.User{
		Email:    demoEmail,
		Password: hash,
		Name:     "Demo User",
	}
	if err := users.Create(ctx, user); err != nil {
		log.Fatalf("create demo user: %v", err)
	}
	logger.WithField("user_id", user.ID).Info("seeded demo user")

	place := &entity.Place{
		Title:       "Empire State Building",
		Description: "One of the most famous skyscrapers in the world.",
		Address:     "20 W 34th St, New York, NY 10001, USA",
		Lat:         40.7484405,
		Lng:         -73.9878584,
		CreatorID:   user.ID,
	}
	err = tx.WithTx(ctx, func(users repository.UserRepository, places repository.PlaceRepository) error {
		if err := places.Create(ctx, place); err != nil {
			return err
		}
		return users.AppendPlace(ctx, user.ID, place.ID)
	})
	if err != nil {
		log.Fatalf("create demo place: %v", err)
	}
	logger.WithField("place_id", place.ID).Info("seeded demo place")
}
