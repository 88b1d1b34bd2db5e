package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"
	"github.com/rs/cors"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"

	"github.com/shopfloor/product-catalog/internal/auth"
	httpDelivery "github.com/shopfloor/product-catalog/internal/catalog/delivery/http"
	"github.com/shopfloor/product-catalog/internal/catalog/repository"
	"github.com/shopfloor/product-catalog/kafka"
	"github.com/shopfloor/product-catalog/pkg/database"
	"github.com/shopfloor/product-catalog/pkg/logger"
	"github.com/shopfloor/product-catalog/pkg/storage"
	"github.com/shopfloor/product-catalog/pkg/tracing"
)

const serviceName = "catalog-service"

func main() {
	isDevelopment := getEnv("APP_ENV", "development") == "development"
	logger.Init(serviceName, isDevelopment)
	logger.SetLevel(getEnv("LOG_LEVEL", "info"))

	tp, err := tracing.InitTracer(serviceName)
	if err != nil {
		logger.Logger.Fatal().Err(err).Msg("Failed to initialize tracer")
	}
	defer func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := tracing.Shutdown(ctx, tp); err != nil {
			logger.Logger.Warn().Err(err).Msg("Failed to shut down tracer")
		}
	}()

	dbConfig := database.Config{
		Host:     getEnv("DB_HOST", "localhost"),
		Port:     getEnv("DB_PORT", "5432"),
		User:     getEnv("DB_USER", "postgres"),
		Password: getEnv("DB_PASSWORD", "postgres"),
		DBName:   getEnv("DB_NAME", "product_catalog"),
		SSLMode:  getEnv("DB_SSLMODE", "disable"),
	}

	db, err := database.Connect(dbConfig, 5, 5*time.Second)
	if err != nil {
		logger.Logger.Fatal().Err(err).Msg("Failed to connect to database")
	}

	sqlDB, err := db.DB()
	if err != nil {
		logger.Logger.Fatal().Err(err).Msg("Failed to get database instance")
	}
	defer sqlDB.Close()

	repo := repository.NewGormProductRepository(db)
	if err := repo.AutoMigrate(); err != nil {
		logger.Logger.Fatal().Err(err).Msg("Failed to run migrations")
	}

	assets, err := storage.NewLocalDisk(getEnv("UPLOAD_DIR", "uploads"))
	if err != nil {
		logger.Logger.Fatal().Err(err).Msg("Failed to initialize asset store")
	}

	var cache *httpDelivery.ResponseCache
	if addr := os.Getenv("REDIS_ADDR"); addr != "" {
		client := redis.NewClient(&redis.Options{
			Addr:     addr,
			Password: os.Getenv("REDIS_PASSWORD"),
		})
		defer client.Close()
		cache = httpDelivery.NewResponseCache(client, 5*time.Minute)
		logger.Logger.Info().Str("addr", addr).Msg("Response cache enabled")
	}

	var events *kafka.Publisher
	if brokers := os.Getenv("KAFKA_BROKERS"); brokers != "" {
		events, err = kafka.NewPublisher(strings.Split(brokers, ","))
		if err != nil {
			logger.Logger.Fatal().Err(err).Msg("Failed to connect to Kafka")
		}
		defer events.Close()
	}

	verifier, err := auth.NewStaticVerifierFromEnv()
	if err != nil {
		logger.Logger.Fatal().Err(err).Msg("Failed to configure admin credentials")
	}

	handler := httpDelivery.NewProductHandler(repo, assets, cache, events, prometheus.DefaultRegisterer)
	loginHandler := auth.NewLoginHandler(verifier)

	router := mux.NewRouter()
	handler.RegisterRoutes(router)
	handler.RegisterHealthCheck(router, sqlDB)
	loginHandler.RegisterRoutes(router)

	// Serve uploaded product images
	router.PathPrefix(storage.PublicPrefix + "/").Handler(
		http.StripPrefix(storage.PublicPrefix+"/", http.FileServer(http.Dir(assets.Root()))),
	)

	router.Handle("/metrics", promhttp.Handler())

	c := cors.New(cors.Options{
		AllowedOrigins:   []string{"*"},
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"*"},
		AllowCredentials: true,
	})

	port := getEnv("HTTP_PORT", "8080")
	server := &http.Server{
		Addr:    ":" + port,
		Handler: otelhttp.NewHandler(c.Handler(router), serviceName),
	}

	go func() {
		logger.Logger.Info().Str("port", port).Msg("HTTP server starting")
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Logger.Fatal().Err(err).Msg("Failed to start HTTP server")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Logger.Info().Msg("Shutting down server")

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.Shutdown(ctx); err != nil {
		logger.Logger.Error().Err(err).Msg("Server shutdown failed")
	}
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}
