package main

import (
	"context"

	"coffeespot/internal/auth"
	"coffeespot/internal/config"
	"coffeespot/internal/db"
	"coffeespot/internal/logging"
	adminrepo "coffeespot/internal/repository/admin"
	productrepo "coffeespot/internal/repository/product"
	tokenrepo "coffeespot/internal/repository/token"
	userrepo "coffeespot/internal/repository/user"
	accountsvc "coffeespot/internal/service/account"
	"coffeespot/internal/seed"
)

func main() {
	cfg := config.FromEnv()
	logger := logging.New(cfg.Env, cfg.LogLevel, "seed")

	ctx := context.Background()
	pool, err := db.Connect(ctx, cfg.DBConnString)
	if err != nil {
		logger.Fatal().Err(err).Msg("connect db")
	}
	defer pool.Close()

	admins := adminrepo.NewPostgres(pool)
	accounts := accountsvc.New(accountsvc.Deps{
		Users:   userrepo.NewPostgres(pool, logger),
		Admins:  admins,
		Revoked: tokenrepo.NewPostgres(pool),
		Tokens:  auth.NewTokenManager(cfg.JWTSecret, cfg.JWTTTL),
	}, logger)

	var addedBy string
	if _, err := accounts.EnsureAdmin(ctx, cfg.Admin); err != nil {
		logger.Fatal().Err(err).Msg("bootstrap admin")
	}
	if cfg.Admin.Email != "" {
		admin, err := admins.GetByEmail(ctx, cfg.Admin.Email)
		if err != nil {
			logger.Fatal().Err(err).Msg("load bootstrap admin")
		}
		addedBy = admin.ID
	}

	n, err := seed.Apply(ctx, productrepo.NewPostgres(pool, logger), addedBy)
	if err != nil {
		logger.Fatal().Err(err).Msg("seed apply")
	}
	logger.Info().Int("products", n).Msg("seed applied")
}
