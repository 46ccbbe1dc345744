package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"strconv"
	"sync"
	"syscall"
	"time"

	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/nordrein/webshop/internal/checkout"
	"github.com/nordrein/webshop/internal/notification"
	"github.com/nordrein/webshop/internal/orders"
)

type Config struct {
	PostgresHost     string
	PostgresPort     int
	PostgresUser     string
	PostgresPassword string

	CheckoutDBName         string
	CheckoutMigrationsPath string
	OrdersDBName           string
	OrdersMigrationsPath   string

	MongoURI    string
	MongoDBName string

	KafkaBrokers []string
}

func loadConfig() *Config {
	return &Config{
		PostgresHost:     getEnv("POSTGRES_HOST", "localhost"),
		PostgresPort:     getEnvInt("POSTGRES_PORT", 5432),
		PostgresUser:     getEnv("POSTGRES_USER", "postgres"),
		PostgresPassword: getEnv("POSTGRES_PASSWORD", "postgres"),

		CheckoutDBName:         getEnv("CHECKOUT_DB_NAME", "checkout"),
		CheckoutMigrationsPath: getEnv("CHECKOUT_MIGRATIONS_PATH", "./internal/checkout/migrations"),
		OrdersDBName:           getEnv("ORDERS_DB_NAME", "orders"),
		OrdersMigrationsPath:   getEnv("ORDERS_MIGRATIONS_PATH", "./internal/orders/migrations"),

		MongoURI:    getEnv("MONGO_URI", "mongodb://localhost:27017"),
		MongoDBName: getEnv("MONGO_DB_NAME", "webshop"),

		KafkaBrokers: []string{getEnv("KAFKA_BROKER", "localhost:9092")},
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
	cfg := loadConfig()

	logger := slog.New(slog.NewJSONHandler(os.Stdout, nil))
	slog.SetDefault(logger)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	checkoutCred := &checkout.Credentials{
		Host:              cfg.PostgresHost,
		Port:              cfg.PostgresPort,
		User:              cfg.PostgresUser,
		Password:          cfg.PostgresPassword,
		DBName:            cfg.CheckoutDBName,
		MigrationsDirPath: cfg.CheckoutMigrationsPath,
	}
	checkoutRepo, err := checkout.NewRepository(checkoutCred)
	if err != nil {
		logger.Error("failed to connect to checkout database", "error", err)
		os.Exit(1)
	}
	defer checkoutRepo.Close()
	if err := checkoutRepo.RunMigrations(checkoutCred); err != nil {
		logger.Error("failed to run checkout migrations", "error", err)
		os.Exit(1)
	}

	ordersCred := &orders.Credentials{
		Host:              cfg.PostgresHost,
		Port:              cfg.PostgresPort,
		User:              cfg.PostgresUser,
		Password:          cfg.PostgresPassword,
		DBName:            cfg.OrdersDBName,
		MigrationsDirPath: cfg.OrdersMigrationsPath,
	}
	ordersRepo, err := orders.NewRepository(ordersCred)
	if err != nil {
		logger.Error("failed to connect to orders database", "error", err)
		os.Exit(1)
	}
	defer ordersRepo.Close()
	if err := ordersRepo.RunMigrations(ordersCred); err != nil {
		logger.Error("failed to run orders migrations", "error", err)
		os.Exit(1)
	}

	mongoCtx, mongoCancel := context.WithTimeout(ctx, 10*time.Second)
	defer mongoCancel()
	mongoClient, err := mongo.Connect(mongoCtx, options.Client().ApplyURI(cfg.MongoURI))
	if err != nil {
		logger.Error("failed to connect to mongodb", "error", err)
		os.Exit(1)
	}
	defer mongoClient.Disconnect(context.Background())
	mongoDB := mongoClient.Database(cfg.MongoDBName)
	if err := notification.EnsureIndexes(mongoCtx, mongoDB); err != nil {
		logger.Error("failed to ensure notification indexes", "error", err)
		os.Exit(1)
	}
	notificationRepo := notification.NewMongoRepository(mongoDB)

	outboxPoller := checkout.NewOutboxPoller(checkoutRepo, logger, cfg.KafkaBrokers...)
	ordersConsumer := orders.NewConsumer(ordersRepo, logger, cfg.KafkaBrokers...)
	defer ordersConsumer.Close()
	notificationConsumer := notification.NewConsumer(notificationRepo, logger, cfg.KafkaBrokers...)
	defer notificationConsumer.Close()

	var wg sync.WaitGroup
	wg.Add(3)
	go func() {
		defer wg.Done()
		outboxPoller.Run(ctx)
	}()
	go func() {
		defer wg.Done()
		ordersConsumer.Run(ctx)
	}()
	go func() {
		defer wg.Done()
		notificationConsumer.Run(ctx)
	}()

	logger.Info("worker started", "brokers", cfg.KafkaBrokers)

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("shutting down worker")
	cancel()
	wg.Wait()
	logger.Info("worker stopped")
}
