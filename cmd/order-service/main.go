package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"

	"github.com/lindembergz/123Vendas-sub000/internal/customer"
	"github.com/lindembergz/123Vendas-sub000/internal/httpapi"
	"github.com/lindembergz/123Vendas-sub000/internal/metrics"
	"github.com/lindembergz/123Vendas-sub000/internal/publisher"
	"github.com/lindembergz/123Vendas-sub000/internal/repository"
	"github.com/lindembergz/123Vendas-sub000/internal/sequence"
	"github.com/lindembergz/123Vendas-sub000/internal/service"
)

type Config struct {
	HTTPPort    string
	MetricsPort string

	CustomerServiceURL string
	RedisAddr          string

	KafkaBrokers []string
	OutboxTopic  string

	DispatcherTick     time.Duration
	DispatcherCooldown time.Duration
	DispatcherBatch    int

	RequestTimeout  time.Duration
	ShutdownTimeout time.Duration
}

func loadConfig() *Config {
	return &Config{
		HTTPPort:           getEnv("HTTP_PORT", "8080"),
		MetricsPort:        getEnv("METRICS_PORT", "9090"),
		CustomerServiceURL: getEnv("CUSTOMER_SERVICE_URL", "http://localhost:8081"),
		RedisAddr:          getEnv("REDIS_ADDR", ""),
		KafkaBrokers:       strings.Split(getEnv("KAFKA_BROKERS", "localhost:9092"), ","),
		OutboxTopic:        getEnv("OUTBOX_TOPIC", "orders-outbox"),
		DispatcherTick:     getEnvDuration("DISPATCHER_TICK", time.Second),
		DispatcherCooldown: getEnvDuration("DISPATCHER_COOLDOWN", 10*time.Second),
		DispatcherBatch:    getEnvInt("DISPATCHER_BATCH", 100),
		RequestTimeout:     30 * time.Second,
		ShutdownTimeout:    10 * time.Second,
	}
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if n, err := strconv.Atoi(value); err == nil {
			return n
		}
	}
	return defaultValue
}

func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if d, err := time.ParseDuration(value); err == nil {
			return d
		}
	}
	return defaultValue
}

func main() {
	log.Println("order-service starting...")

	cfg := loadConfig()

	// Database setup
	dbPort, err := strconv.Atoi(getEnv("DB_PORT", "5432"))
	if err != nil {
		log.Fatalf("Invalid DB_PORT: %v", err)
	}
	creds := &repository.Credentials{
		Host:              getEnv("DB_HOST", "localhost"),
		Port:              dbPort,
		User:              getEnv("DB_USER", "postgres"),
		Password:          getEnv("DB_PASSWORD", "postgres"),
		DBName:            getEnv("DB_NAME", "vendas"),
		MigrationsDirPath: getEnv("MIGRATIONS_PATH", "./internal/repository/migrations"),
	}

	repo, err := repository.NewRepository(creds)
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}
	defer repo.Close()

	if err := repo.RunMigrations(creds); err != nil {
		log.Fatalf("Failed to run migrations: %v", err)
	}
	log.Println("Database migrations completed")

	// Customer verification, optionally backed by redis
	var cache customer.VerificationCache
	if cfg.RedisAddr != "" {
		redisClient := redis.NewClient(&redis.Options{Addr: cfg.RedisAddr})
		defer redisClient.Close()
		cache = customer.NewRedisCache(redisClient)
		log.Printf("Customer verification cache enabled at %s", cfg.RedisAddr)
	}
	verifier := customer.NewHTTPVerifier(cfg.CustomerServiceURL, cache)

	// Command service
	numbers := sequence.NewGenerator(repo)
	orderService := service.NewOrderService(repo, numbers, verifier)

	// Outbox dispatcher
	registry := prometheus.NewRegistry()
	dispatcherMetrics := metrics.NewDispatcherMetrics(registry)

	notifier := publisher.NewKafkaNotifier(cfg.OutboxTopic, cfg.KafkaBrokers...)
	defer notifier.Close()

	dispatcher := publisher.NewDispatcher(repo, publisher.NewRegistry(), notifier, dispatcherMetrics, publisher.Config{
		PollTick:  cfg.DispatcherTick,
		Cooldown:  cfg.DispatcherCooldown,
		BatchSize: cfg.DispatcherBatch,
	})

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go dispatcher.Run(ctx)
	log.Println("Outbox dispatcher started")

	// Metrics endpoint
	metricsSrv := &http.Server{
		Addr:    ":" + cfg.MetricsPort,
		Handler: promhttp.HandlerFor(registry, promhttp.HandlerOpts{}),
	}
	go func() {
		log.Printf("Metrics listening on :%s", cfg.MetricsPort)
		if err := metricsSrv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Printf("metrics server error: %v", err)
		}
	}()

	// HTTP API
	handler := httpapi.NewOrderHandler(orderService)
	srv := &http.Server{
		Addr:         ":" + cfg.HTTPPort,
		Handler:      httpapi.NewRouter(handler, cfg.RequestTimeout),
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 10 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		log.Printf("Order service listening on :%s", cfg.HTTPPort)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatalf("server error: %v", err)
		}
	}()

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Println("shutting down order service...")
	cancel() // stops the dispatcher, mid-backoff included

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer shutdownCancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Printf("server forced to shutdown: %v", err)
	}
	if err := metricsSrv.Shutdown(shutdownCtx); err != nil {
		log.Printf("metrics server forced to shutdown: %v", err)
	}

	log.Println("order service stopped")
}
