package main

import (
	"context"
	"errors"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"Orbit/backend/go/internal/config"
	"Orbit/backend/go/internal/database/kafka"
	"Orbit/backend/go/internal/database/milvus"
	"Orbit/backend/go/internal/database/mysql"
	"Orbit/backend/go/internal/database/redis"
	kbapi "Orbit/backend/go/internal/knowledge_base/api"
	kbservice "Orbit/backend/go/internal/knowledge_base/service"
	kbstore "Orbit/backend/go/internal/knowledge_base/store"
	"Orbit/backend/go/internal/models"
	scraperapi "Orbit/backend/go/internal/social_scraper/api"
	"Orbit/backend/go/internal/social_scraper/brightdata"
	"Orbit/backend/go/internal/social_scraper/publisher"
	scraperservice "Orbit/backend/go/internal/social_scraper/service"
	userstore "Orbit/backend/go/internal/social_scraper/store"
	vectorapi "Orbit/backend/go/internal/vector_db/api"
	vectorservice "Orbit/backend/go/internal/vector_db/service"
	pkghttp "Orbit/backend/go/pkg/http"
	"Orbit/backend/go/pkg/logger"
)

func main() {
	// Load configuration
	cfg, err := config.LoadConfig(config.ResolvePath())
	if err != nil {
		log.Fatalf("failed to load configuration: %v", err)
	}

	// Initialize logger
	logger.Init(logger.ParseLevel(cfg.Logger.Level), cfg.Logger.Format)
	appLogger := logger.New("social_service", "", "")
	appLogger.Info("Logger initialized")

	ctx := context.Background()

	// MySQL
	db, err := mysql.GetDB(&cfg.Databases.MySQL)
	if err != nil {
		appLogger.WithErr(err, "init_error").Fatal("Failed to connect to MySQL")
	}
	if err := mysql.AutoMigrate(db, &models.User{}, &models.UserContact{}, &models.KnowledgeBaseEntry{}); err != nil {
		appLogger.WithErr(err, "init_error").Fatal("Database migration failed")
	}
	appLogger.Info("Database migration completed")

	// Vector store (degrades instead of failing)
	vectorService := vectorservice.Setup(ctx, cfg, db, appLogger)

	// Kafka scrape events are optional
	var eventPublisher scraperservice.EventPublisher = publisher.NoopPublisher{}
	kafkaClient, err := kafka.GetClient(&cfg.Databases.Kafka)
	switch {
	case err == nil:
		eventPublisher = publisher.NewEventPublisher(kafkaClient.Writer, cfg.Databases.Kafka.ScrapeTopic, appLogger)
		appLogger.Info("Kafka scrape event publisher enabled")
	case errors.Is(err, kafka.ErrNoBrokers):
		appLogger.Info("No Kafka brokers configured, scrape events disabled")
	default:
		appLogger.WithErr(err, "init_error").Warn("Kafka unavailable, scrape events disabled")
	}

	// BrightData client over the circuit-breaking HTTP client
	httpClient, err := pkghttp.NewClient(cfg.Scraper.CircuitBreaker,
		config.Duration(cfg.Scraper.RequestTimeout, 30*time.Second)+5*time.Second, appLogger)
	if err != nil {
		appLogger.WithErr(err, "init_error").Fatal("Failed to create scraper HTTP client")
	}
	scraper := brightdata.NewClient(cfg.Scraper, httpClient.Transport(), appLogger)
	if cfg.Scraper.APIKey == "" {
		appLogger.Warn("BRIGHTDATA_API_KEY is not set, every scrape will fail")
	}

	// Store -> Service -> Handler
	kbService := kbservice.NewService(kbstore.NewEntryStore(db), vectorService, appLogger)
	scraperService := scraperservice.NewService(userstore.NewUserStore(db), scraper, kbService, eventPublisher, appLogger)

	server, err := pkghttp.NewServer(cfg, appLogger)
	if err != nil {
		appLogger.WithErr(err, "init_error").Fatal("Failed to create HTTP server")
	}
	router := server.Engine()
	scraperapi.RegisterRoutes(router, scraperapi.NewHandler(scraperService, appLogger))
	kbapi.RegisterRoutes(router, kbapi.NewHandler(kbService))
	vectorapi.RegisterRoutes(router, vectorapi.NewHandler(vectorService, appLogger))

	checks := map[string]pkghttp.HealthCheck{"mysql": mysql.HealthCheck}
	if cfg.Databases.Redis.Enabled {
		checks["redis"] = redis.HealthCheck
	}
	var milvusClient *milvus.MilvusClient
	if vectorService.Ready() == nil {
		if mc, err := milvus.GetClient(ctx, &cfg.Databases.Milvus); err == nil {
			milvusClient = mc
			checks["milvus"] = mc.HealthCheck
		}
	}
	if kafkaClient != nil {
		checks["kafka"] = kafkaClient.HealthCheck
	}
	server.RegisterHealth(checks)
	appLogger.Info("Router setup completed")

	go func() {
		appLogger.Info("Starting HTTP server on " + cfg.Server.Address)
		if err := server.ListenAndServe(); err != nil {
			appLogger.WithErr(err, "server_error").Fatal("HTTP server failed")
		}
	}()

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	appLogger.Info("Shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), config.Duration(cfg.Server.ShutdownTimeout, 10*time.Second))
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		appLogger.WithErr(err, "server_error").Error("Server forced to shutdown")
	}

	if kafkaClient != nil {
		if err := kafkaClient.Close(); err != nil {
			appLogger.WithErr(err, "shutdown_error").Error("Error closing Kafka client")
		}
	}
	milvusClient.Close()
	if err := redis.Close(); err != nil {
		appLogger.WithErr(err, "shutdown_error").Error("Error closing Redis client")
	}
	if err := mysql.Close(); err != nil {
		appLogger.WithErr(err, "shutdown_error").Error("Error closing MySQL connection")
	}
	appLogger.Info("Server gracefully stopped")
}
