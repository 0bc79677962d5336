package main

import (
	"context"
	"flag"
	"os"
	"time"

	"coffeespot/internal/config"
	"coffeespot/internal/db"
	"coffeespot/internal/importer"
	"coffeespot/internal/logging"
	adminrepo "coffeespot/internal/repository/admin"
	productrepo "coffeespot/internal/repository/product"
)

func main() {
	var (
		filePath   string
		adminEmail string
	)
	flag.StringVar(&filePath, "file", "", "Path to the menu CSV (title,description,price,categories,stock,image_url)")
	flag.StringVar(&adminEmail, "admin", "", "Email of the admin recorded as the creator of new products")
	flag.Parse()

	if filePath == "" {
		flag.Usage()
		os.Exit(2)
	}

	cfg := config.FromEnv()
	logger := logging.New(cfg.Env, cfg.LogLevel, "importer")
	ctx := context.Background()

	pool, err := db.Connect(ctx, cfg.DBConnString)
	if err != nil {
		logger.Fatal().Err(err).Msg("connect db")
	}
	defer pool.Close()

	var addedBy string
	if adminEmail != "" {
		admin, err := adminrepo.NewPostgres(pool).GetByEmail(ctx, adminEmail)
		if err != nil {
			logger.Fatal().Err(err).Str("email", adminEmail).Msg("load admin")
		}
		addedBy = admin.ID
	}

	f, err := os.Open(filePath)
	if err != nil {
		logger.Fatal().Err(err).Msg("open file")
	}
	defer f.Close()

	imp := importer.NewCSVImporter(f, productrepo.NewPostgres(pool, logger), addedBy)

	start := time.Now()
	count, err := imp.Run(ctx)
	if err != nil {
		logger.Fatal().Err(err).Int("imported", count).Msg("import failed")
	}
	logger.Info().
		Int("imported", count).
		Str("file", filePath).
		Dur("took", time.Since(start).Truncate(time.Millisecond)).
		Msg("import done")
}
