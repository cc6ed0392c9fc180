// Command seed loads a class schedule from YAML into Firestore.
package main

import (
	"context"
	"flag"
	"log"
	"os"
	"time"

	"github.com/joho/godotenv"
	"go.uber.org/zap"

	"github.com/example/gymdesk/internal/config"
	"github.com/example/gymdesk/internal/core"
	"github.com/example/gymdesk/internal/db"
	"github.com/example/gymdesk/internal/firebase"
	"github.com/example/gymdesk/internal/seed"
)

func main() {
	path := flag.String("file", "configs/classes.yaml", "class schedule to load")
	flag.Parse()

	if os.Getenv("GIN_MODE") != "release" {
		_ = godotenv.Load()
	}
	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}
	logger, err := zap.NewDevelopment()
	if err != nil {
		log.Fatalf("Failed to initialize logger: %v", err)
	}
	defer logger.Sync() //nolint:errcheck

	schedule, err := seed.Load(*path)
	if err != nil {
		logger.Fatal("Failed to read schedule", zap.String("file", *path), zap.Error(err))
	}

	ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
	defer cancel()
	clients, err := firebase.Init(ctx, cfg, logger)
	if err != nil {
		logger.Fatal("Failed to initialize Firebase", zap.Error(err))
	}
	defer clients.Close()

	gym := core.NewGymService(core.Deps{
		Classes: db.NewFirestoreClassRepository(clients.Firestore),
		Logger:  logger,
	})
	n, err := seed.Apply(ctx, schedule, gym, logger)
	if err != nil {
		logger.Fatal("Seeding stopped", zap.Int("created", n), zap.Error(err))
	}
	logger.Info("Schedule loaded", zap.Int("classes", n), zap.String("file", *path))
}
