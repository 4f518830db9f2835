package main

import (
	"commerce_server/config"
	"commerce_server/database"
	"commerce_server/services"
	"context"
	"flag"

	"github.com/MonkyMars/gecho"
	"github.com/joho/godotenv"
)

func main() {
	drop := flag.Bool("drop", false, "drop every table before creating the schema")
	flag.Parse()

	_ = godotenv.Load()
	logger := config.InitializeLogger()
	cfg := config.GetConfig()

	ctx := context.Background()
	db, err := database.Connect(ctx, cfg.Database, logger)
	if err != nil {
		logger.Fatal("Failed to connect to database", gecho.Field("error", err))
	}
	defer db.Close()

	if *drop {
		if err := database.DropSchema(ctx, db); err != nil {
			logger.Fatal("Failed to drop schema", gecho.Field("error", err))
		}
		logger.Info("Schema dropped")

		// cached users, tokens and products refer to rows that no longer exist
		cache := services.NewCacheService(logger, cfg, services.NewRedisClient(cfg.Cache))
		for _, pattern := range []string{"token:*", "user:*", "product:*"} {
			if err := cache.DeletePattern(ctx, pattern); err != nil {
				logger.Warn("Failed to flush cache", gecho.Field("pattern", pattern), gecho.Field("error", err))
			}
		}
		_ = cache.Close()
	}

	if err := database.CreateSchema(ctx, db); err != nil {
		logger.Fatal("Migration failed", gecho.Field("error", err))
	}

	logger.Info("Migration completed", gecho.Field("database", cfg.Database.Name))
}
