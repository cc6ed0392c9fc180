// Command mailcheck sends a sample tour confirmation through the configured
// mail transport.
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
	"github.com/example/gymdesk/internal/mailer"
	"github.com/example/gymdesk/internal/models"
	"github.com/example/gymdesk/internal/notify"
)

func main() {
	to := flag.String("to", "", "recipient address")
	flag.Parse()
	if *to == "" {
		log.Fatal("usage: mailcheck -to someone@example.com")
	}

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

	html, err := notify.RenderConfirmation(models.TourRequest{
		Name:          "Test Visitor",
		Email:         *to,
		PreferredDate: time.Now().AddDate(0, 0, 3).Format("Monday, January 2"),
		Message:       "This is a test message from mailcheck.",
		Status:        models.TourRequestStatusNew,
		CreatedAt:     time.Now(),
	})
	if err != nil {
		logger.Fatal("Failed to render message", zap.Error(err))
	}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	id, err := mailer.New(cfg, logger).Send(ctx, mailer.Message{
		To:      []string{*to},
		Subject: "GymDesk mail check",
		HTML:    html,
	})
	if err != nil {
		logger.Fatal("Failed to send", zap.Error(err))
	}
	logger.Info("Message sent", zap.String("id", id), zap.String("to", *to))
}
