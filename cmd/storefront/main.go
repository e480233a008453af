package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/eluvju/wapp-shop-express/internal/backend"
	"github.com/eluvju/wapp-shop-express/internal/checkout"
	"github.com/eluvju/wapp-shop-express/internal/httpapi"
	"github.com/eluvju/wapp-shop-express/internal/localstore"
	"github.com/eluvju/wapp-shop-express/internal/notify"
	"github.com/eluvju/wapp-shop-express/internal/service"
	"github.com/joho/godotenv"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

type Config struct {
	HTTPPort        string
	DBHost          string
	DBPort          int
	DBUser          string
	DBPassword      string
	DBName          string
	MigrationsDir   string
	RedisAddr       string
	RedisPassword   string
	RedisDB         int
	KafkaBrokers    []string
	KafkaTopic      string
	WhatsAppNumber  string
	RequestTimeout  time.Duration
	ShutdownTimeout time.Duration
}

func loadConfig() *Config {
	return &Config{
		HTTPPort:        getEnv("HTTP_PORT", "8080"),
		DBHost:          getEnv("DB_HOST", "localhost"),
		DBPort:          getEnvInt("DB_PORT", 5432),
		DBUser:          getEnv("DB_USER", "storefront"),
		DBPassword:      getEnv("DB_PASSWORD", "storefront"),
		DBName:          getEnv("DB_NAME", "storefront"),
		MigrationsDir:   getEnv("MIGRATIONS_DIR", "migrations/postgres"),
		RedisAddr:       getEnv("REDIS_ADDR", "localhost:6379"),
		RedisPassword:   getEnv("REDIS_PASSWORD", ""),
		RedisDB:         getEnvInt("REDIS_DB", 0),
		KafkaBrokers:    []string{getEnv("KAFKA_BROKER", "localhost:9092")},
		KafkaTopic:      getEnv("KAFKA_TOPIC", "storefront-orders"),
		WhatsAppNumber:  getEnv("WHATSAPP_NUMBER", "5511999999999"),
		RequestTimeout:  30 * time.Second,
		ShutdownTimeout: 10 * time.Second,
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

func main() {
	_ = godotenv.Load()
	cfg := loadConfig()

	logger, err := zap.NewProduction()
	if err != nil {
		panic(err)
	}
	defer logger.Sync()

	store, err := backend.NewStore(&backend.Credentials{
		Host:     cfg.DBHost,
		Port:     cfg.DBPort,
		User:     cfg.DBUser,
		Password: cfg.DBPassword,
		DBName:   cfg.DBName,
	})
	if err != nil {
		logger.Fatal("connecting to database failed", zap.Error(err))
	}
	defer store.Close()

	if err := store.RunMigrations(cfg.MigrationsDir); err != nil {
		logger.Fatal("running migrations failed", zap.Error(err))
	}

	redisClient := redis.NewClient(&redis.Options{
		Addr:     cfg.RedisAddr,
		Password: cfg.RedisPassword,
		DB:       cfg.RedisDB,
	})
	defer redisClient.Close()

	pingCtx, cancelPing := context.WithTimeout(context.Background(), 5*time.Second)
	if err := redisClient.Ping(pingCtx).Err(); err != nil {
		// Session persistence degrades to memory-only, the store is not fatal.
		logger.Warn("redis unreachable, anonymous sessions will not persist", zap.Error(err))
	}
	cancelPing()

	local := localstore.NewRedisStore(redisClient)

	publisher := notify.NewPublisher(logger, cfg.KafkaTopic, cfg.KafkaBrokers...)
	defer publisher.Close()

	catalog := service.NewCatalogService(store, local, logger)
	carts := service.NewCartService(store, local, logger)
	wishlists := service.NewWishlistService(store, local, logger)
	coupons := service.NewCouponService(store, logger)
	orders := service.NewOrderService(store, logger)
	reviews := service.NewReviewService(store, logger)
	co := checkout.New(orders, publisher, cfg.WhatsAppNumber, logger)

	handler := httpapi.NewHandler(catalog, carts, wishlists, coupons, orders, reviews, co, logger)
	router := httpapi.NewRouter(handler, cfg.RequestTimeout)

	srv := &http.Server{
		Addr:         ":" + cfg.HTTPPort,
		Handler:      router,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		logger.Info("storefront listening", zap.String("port", cfg.HTTPPort))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatal("server error", zap.Error(err))
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("shutting down")
	ctx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		logger.Fatal("forced shutdown", zap.Error(err))
	}
}
