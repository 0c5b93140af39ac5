package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log"
	"os"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/stitchbook/stitchbook/internal/app"
	"github.com/stitchbook/stitchbook/internal/platform/cache"
	"github.com/stitchbook/stitchbook/internal/seed"
)

func main() {
	file := flag.String("file", "", "YAML fixture to load instead of the bundled demo data")
	flag.Parse()

	cfg, err := app.LoadConfig()
	if err != nil {
		log.Fatalf("load config: %v", err)
	}
	logger := app.NewLogger(cfg)
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
	defer cancel()

	fx, err := loadFixture(*file)
	if err != nil {
		log.Fatalf("%v", err)
	}

	storage, err := app.OpenStorage(ctx, cfg, logger)
	if err != nil {
		log.Fatalf("open storage: %v", err)
	}
	defer storage.Close()

	// Seeding without Redis still works; cached statements just are not bumped.
	var redisClient *redis.Client
	if client, err := cache.New(ctx, cfg.RedisAddr, cfg.RedisPassword, cfg.RedisDB); err == nil {
		redisClient = client
		defer func() { _ = client.Close() }()
	} else {
		logger.Warn("redis unavailable, report cache not invalidated")
	}

	services := app.NewServices(app.Deps{
		Config: cfg,
		Logger: logger,
		Redis:  redisClient,
		Ledger: storage.Ledger,
		Users:  storage.Users,
	})

	fmt.Println("→ Seeding users...")
	if cfg.AdminUsername != "" {
		if _, err := services.Users.EnsureAdmin(ctx, cfg.AdminUsername, cfg.AdminPassword); err != nil {
			log.Fatalf("bootstrap admin: %v", err)
		}
	}

	fmt.Println("→ Seeding ledger...")
	res, err := seed.Apply(ctx, fx, services.Ledger, services.Users, logger)
	switch {
	case errors.Is(err, seed.ErrLedgerNotEmpty):
		fmt.Println("  ledger already has records, skipped")
	case err != nil:
		log.Fatalf("seed: %v", err)
	}
	fmt.Printf("  users %d (skipped %d), orders %d, payments %d, expenses %d, transactions %d\n",
		res.Users, len(res.SkippedUsers), res.Orders, res.Payments, res.Expenses, res.Transactions)

	fmt.Println("✓ Seed complete at", time.Now().Format(time.RFC3339))
}

func loadFixture(path string) (seed.Fixture, error) {
	if path == "" {
		return seed.Demo()
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return seed.Fixture{}, fmt.Errorf("read fixture: %w", err)
	}
	return seed.Parse(data)
}
