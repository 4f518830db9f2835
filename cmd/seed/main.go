package main

import (
	"commerce_server/config"
	"commerce_server/database"
	"commerce_server/repository"
	"commerce_server/services"
	"commerce_server/structs"
	"context"
	"flag"
	"fmt"

	"github.com/MonkyMars/gecho"
	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/shopspring/decimal"
)

func main() {
	products := flag.Int("products", 0, "number of sample products to create")
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

	// the seeder needs neither the cache nor a metrics endpoint
	sm := services.NewServiceManager(logger, cfg, repository.NewStore(db), db, nil, prometheus.NewRegistry())

	created, err := sm.AuthService.EnsureUser(ctx, cfg.Seed.AdminName, cfg.Seed.AdminEmail, cfg.Seed.AdminPassword)
	if err != nil {
		logger.Fatal("Failed to seed admin user", gecho.Field("error", err))
	}
	if created {
		logger.Info("Admin user created", gecho.Field("email", cfg.Seed.AdminEmail))
	} else {
		logger.Info("Admin user already exists", gecho.Field("email", cfg.Seed.AdminEmail))
	}

	for i := 1; i <= *products; i++ {
		stock := 10 * i
		price := decimal.NewFromInt(int64(i)).Mul(decimal.RequireFromString("9.99"))
		_, err := sm.ProductService.Create(ctx, &structs.CreateProductRequest{
			Name:        fmt.Sprintf("Sample product %d", i),
			Description: fmt.Sprintf("Seeded sample product number %d", i),
			Price:       &price,
			Stock:       &stock,
		})
		if err != nil {
			logger.Fatal("Failed to seed product", gecho.Field("error", err), gecho.Field("index", i))
		}
	}

	logger.Info("Seeding completed", gecho.Field("products", *products))
}
