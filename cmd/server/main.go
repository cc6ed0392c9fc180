package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	"go.uber.org/zap"
	"google.golang.org/api/option"

	"github.com/example/gymdesk/internal/api"
	"github.com/example/gymdesk/internal/cache"
	"github.com/example/gymdesk/internal/config"
	"github.com/example/gymdesk/internal/core"
	"github.com/example/gymdesk/internal/crypto"
	"github.com/example/gymdesk/internal/db"
	"github.com/example/gymdesk/internal/firebase"
	"github.com/example/gymdesk/internal/identity"
	"github.com/example/gymdesk/internal/mailer"
	"github.com/example/gymdesk/internal/messagequeue"
	"github.com/example/gymdesk/internal/middleware"
	"github.com/example/gymdesk/internal/notify"
	"github.com/example/gymdesk/internal/session"
)

func main() {
	// In production, environment variables are set directly.
	if os.Getenv("GIN_MODE") != gin.ReleaseMode {
		if err := godotenv.Load(); err != nil {
			log.Println("Warning: no .env file loaded:", err)
		}
	}

	appConfig, err := config.LoadConfig()
	if err != nil {
		log.Fatalf("CRITICAL_ERROR: Failed to load application configuration: %v", err)
	}

	zapLogger, err := newLogger(appConfig)
	if err != nil {
		log.Fatalf("CRITICAL_ERROR: Failed to initialize Zap logger: %v", err)
	}
	defer zapLogger.Sync() //nolint:errcheck

	initCtx, cancelInit := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancelInit()

	clients, err := firebase.Init(initCtx, appConfig, zapLogger)
	if err != nil {
		zapLogger.Fatal("CRITICAL_ERROR: Failed to initialize Firebase Admin SDK", zap.Error(err))
	}
	defer clients.Close()

	var toolkitOpts []option.ClientOption
	if opt, err := firebase.CredentialsOption(appConfig, zapLogger); err == nil && opt != nil {
		toolkitOpts = append(toolkitOpts, opt)
	}
	toolkit, err := identity.NewToolkit(initCtx, appConfig.FirebaseWebAPIKey, toolkitOpts...)
	if err != nil {
		zapLogger.Fatal("CRITICAL_ERROR: Failed to initialize Identity Toolkit client", zap.Error(err))
	}

	sessionStore, closeStore := newSessionStore(initCtx, appConfig, zapLogger)
	defer closeStore()

	cipher, err := crypto.NewCipher(appConfig.EncryptionKey)
	if err != nil {
		zapLogger.Fatal("CRITICAL_ERROR: Invalid ENCRYPTION_KEY", zap.Error(err))
	}

	queue := newQueue(appConfig, zapLogger)
	defer queue.Close()

	fs := clients.Firestore
	userRepo := db.NewFirestoreUserRepository(fs)
	gym := core.NewGymService(core.Deps{
		Members:      db.NewFirestoreMemberRepository(fs),
		Payments:     db.NewFirestorePaymentRepository(fs),
		Classes:      db.NewFirestoreClassRepository(fs),
		TourRequests: db.NewFirestoreTourRequestRepository(fs),
		Cipher:       cipher,
		Events:       core.NewQueuePublisher(queue, appConfig.TourRequestQueue),
		Logger:       zapLogger.Named("core"),
	})
	auditService := core.NewAuditService(db.NewFirestoreAuditRepository(fs), zapLogger)

	factory := identity.NewFirebaseFactory(clients.Auth, toolkit, sessionStore, appConfig.SessionTTL, zapLogger.Named("identity"))
	registry := session.NewRegistry(factory, db.NewRoleStore(userRepo), gym, zapLogger.Named("session"), session.Options{
		RoleWriteAttempts: appConfig.RoleWriteAttempts,
		RoleWriteBackoff:  200 * time.Millisecond,
	}, appConfig.SessionIdleTimeout)
	defer registry.Close()

	workerCtx, stopWorkers := context.WithCancel(context.Background())
	defer stopWorkers()
	notifier := notify.NewTourNotifier(queue, appConfig.TourRequestQueue, mailer.New(appConfig, zapLogger), appConfig.MailFrom, zapLogger.Named("notify"))
	go func() {
		if err := notifier.Run(workerCtx); err != nil && !errors.Is(err, context.Canceled) {
			zapLogger.Error("tour request notifier stopped", zap.Error(err))
		}
	}()

	if appConfig.IsRelease() {
		gin.SetMode(gin.ReleaseMode)
	} else {
		gin.SetMode(gin.DebugMode)
	}
	router := gin.New()
	router.Use(middleware.RequestLogger(zapLogger))
	router.Use(middleware.RecoveryMiddleware(zapLogger))
	router.Use(middleware.CORSMiddleware(appConfig.ClientURL))
	router.Use(middleware.SessionMiddleware(registry, middleware.CookieConfig{
		Name:   appConfig.SessionCookieName,
		Secure: appConfig.SessionCookieSecure,
		MaxAge: appConfig.SessionTTL,
	}, zapLogger))

	api.SetupRoutes(router, api.Services{
		Members:  gym,
		Payments: gym,
		Classes:  gym,
		Tours:    gym,
		Audit:    auditService,
	}, middleware.NewGuard(appConfig.SessionAwaitTimeout, zapLogger), appConfig.SessionAwaitTimeout, zapLogger)

	serverAddr := fmt.Sprintf(":%s", appConfig.Port)
	httpServer := &http.Server{
		Addr:              serverAddr,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	zapLogger.Info("Starting HTTP server...", zap.String("address", serverAddr), zap.String("ginMode", gin.Mode()))
	go func() {
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			zapLogger.Fatal("Failed to start HTTP server", zap.Error(err))
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	sig := <-quit
	zapLogger.Info("Received shutdown signal", zap.String("signal", sig.String()))

	shutdownCtx, cancelShutdown := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancelShutdown()
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		zapLogger.Error("Server forced to shutdown", zap.Error(err))
	}
	stopWorkers()
	zapLogger.Info("Server exiting gracefully.")
}

func newLogger(cfg *config.Config) (*zap.Logger, error) {
	if cfg.IsRelease() {
		return zap.NewProduction()
	}
	return zap.NewDevelopment()
}

// newSessionStore persists signed-in sessions in Redis when REDIS_URL is
// set and in process memory otherwise.
func newSessionStore(ctx context.Context, cfg *config.Config, logger *zap.Logger) (cache.Cache, func()) {
	if cfg.RedisURL == "" {
		logger.Warn("REDIS_URL not set, sessions will not survive a restart")
		return cache.NewMemoryCache(), func() {}
	}
	client, err := cache.NewRedisClient(ctx, cfg.RedisURL)
	if err != nil {
		logger.Fatal("CRITICAL_ERROR: Failed to connect to Redis", zap.Error(err))
	}
	logger.Info("Redis session store connected")
	return cache.NewRedisCache(client, "gymdesk:", logger), func() { _ = client.Close() }
}

// newQueue connects to RabbitMQ when RABBITMQ_URL is set and falls back to
// an in-process queue otherwise.
func newQueue(cfg *config.Config, logger *zap.Logger) messagequeue.MessageQueue {
	if cfg.RabbitMQURL == "" {
		logger.Warn("RABBITMQ_URL not set, tour request events are delivered in process")
		return messagequeue.NewMemory(64)
	}
	q, err := messagequeue.NewRabbitMQ(cfg.RabbitMQURL, logger)
	if err != nil {
		logger.Fatal("CRITICAL_ERROR: Failed to connect to RabbitMQ", zap.Error(err))
	}
	return q
}
