package main

import (
	"context"
	"flag"

	"coffeespot/internal/config"
	"coffeespot/internal/db"
	"coffeespot/internal/logging"
	"coffeespot/internal/migrate"
)

func main() {
	down := flag.Int("down", 0, "roll back this many migration steps instead of applying")
	flag.Parse()

	cfg := config.FromEnv()
	logger := logging.New(cfg.Env, cfg.LogLevel, "migrate")

	ctx := context.Background()
	pool, err := db.Connect(ctx, cfg.DBConnString)
	if err != nil {
		logger.Fatal().Err(err).Msg("connect db")
	}
	defer pool.Close()

	if *down > 0 {
		if err := migrate.Rollback(ctx, pool, *down); err != nil {
			logger.Fatal().Err(err).Int("steps", *down).Msg("roll back migrations")
		}
	} else if err := migrate.Apply(ctx, pool); err != nil {
		logger.Fatal().Err(err).Msg("apply migrations")
	}

	version, dirty, err := migrate.Version(ctx, pool)
	if err != nil {
		logger.Fatal().Err(err).Msg("read schema version")
	}
	logger.Info().Uint("version", version).Bool("dirty", dirty).Msg("migrations done")
}
