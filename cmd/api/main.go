package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/redis/go-redis/v9"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"

	"github.com/nordrein/webshop/internal/cart"
	"github.com/nordrein/webshop/internal/catalog"
	"github.com/nordrein/webshop/internal/checkout"
	h "github.com/nordrein/webshop/internal/http"
	"github.com/nordrein/webshop/internal/leads"
	"github.com/nordrein/webshop/internal/notification"
	"github.com/nordrein/webshop/internal/orders"
	"github.com/nordrein/webshop/internal/poller"
	"github.com/nordrein/webshop/internal/snapshot"
)

type Config struct {
	HTTPPort        string
	RequestTimeout  time.Duration
	ShutdownTimeout time.Duration

	RedisAddr     string
	RedisPassword string

	MongoURI    string
	MongoDBName string

	CatalogDBPath         string
	CatalogMigrationsPath string

	PostgresHost           string
	PostgresPort           int
	PostgresUser           string
	PostgresPassword       string
	CheckoutDBName         string
	CheckoutMigrationsPath string
	OrdersDBName           string

	KafkaBrokers []string

	PaymentBaseURL string
	PaymentAPIKey  string
	PaymentTimeout time.Duration
	Currency       string
}

func loadConfig() *Config {
	return &Config{
		HTTPPort:        getEnv("HTTP_PORT", "8080"),
		RequestTimeout:  30 * time.Second,
		ShutdownTimeout: 10 * time.Second,

		RedisAddr:     getEnv("REDIS_ADDR", "localhost:6379"),
		RedisPassword: getEnv("REDIS_PASSWORD", ""),

		MongoURI:    getEnv("MONGO_URI", "mongodb://localhost:27017"),
		MongoDBName: getEnv("MONGO_DB_NAME", "webshop"),

		CatalogDBPath:         getEnv("CATALOG_DB_PATH", "./catalog.db"),
		CatalogMigrationsPath: getEnv("CATALOG_MIGRATIONS_PATH", "./internal/catalog/migrations"),

		PostgresHost:           getEnv("POSTGRES_HOST", "localhost"),
		PostgresPort:           getEnvInt("POSTGRES_PORT", 5432),
		PostgresUser:           getEnv("POSTGRES_USER", "postgres"),
		PostgresPassword:       getEnv("POSTGRES_PASSWORD", "postgres"),
		CheckoutDBName:         getEnv("CHECKOUT_DB_NAME", "checkout"),
		CheckoutMigrationsPath: getEnv("CHECKOUT_MIGRATIONS_PATH", "./internal/checkout/migrations"),
		OrdersDBName:           getEnv("ORDERS_DB_NAME", "orders"),

		KafkaBrokers: []string{getEnv("KAFKA_BROKER", "localhost:9092")},

		PaymentBaseURL: getEnv("PAYMENT_BASE_URL", "http://localhost:8090"),
		PaymentAPIKey:  getEnv("PAYMENT_API_KEY", ""),
		PaymentTimeout: 10 * time.Second,
		Currency:       getEnv("CURRENCY", "EUR"),
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

	// Redis backs the cart snapshots
	redisClient := redis.NewClient(&redis.Options{
		Addr:     cfg.RedisAddr,
		Password: cfg.RedisPassword,
		DB:       0,
	})
	defer redisClient.Close()
	if err := redisClient.Ping(ctx).Err(); err != nil {
		logger.Error("redis connection failed", "error", err)
		os.Exit(1)
	}

	snapshots := snapshot.NewRedisStore(redisClient)
	cartStore := cart.NewStore(snapshots, logger)

	// SQLite backs the product catalog
	catalogRepo, err := catalog.NewRepository(cfg.CatalogDBPath)
	if err != nil {
		logger.Error("failed to open catalog database", "error", err)
		os.Exit(1)
	}
	defer catalogRepo.Close()
	if err := catalogRepo.RunMigrations(cfg.CatalogMigrationsPath); err != nil {
		logger.Error("failed to run catalog migrations", "error", err)
		os.Exit(1)
	}
	cachedCatalog := catalog.NewCachedRepository(catalogRepo)

	// Postgres backs checkout sessions and the order history
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

	ordersRepo, err := orders.NewRepository(&orders.Credentials{
		Host:     cfg.PostgresHost,
		Port:     cfg.PostgresPort,
		User:     cfg.PostgresUser,
		Password: cfg.PostgresPassword,
		DBName:   cfg.OrdersDBName,
	})
	if err != nil {
		logger.Error("failed to connect to orders database", "error", err)
		os.Exit(1)
	}
	defer ordersRepo.Close()

	// MongoDB backs the notification feed and lead intake
	mongoClient, err := mongo.Connect(ctx, options.Client().ApplyURI(cfg.MongoURI))
	if err != nil {
		logger.Error("failed to connect to mongodb", "error", err)
		os.Exit(1)
	}
	defer mongoClient.Disconnect(ctx)
	mongoDB := mongoClient.Database(cfg.MongoDBName)
	if err := notification.EnsureIndexes(ctx, mongoDB); err != nil {
		logger.Error("failed to ensure notification indexes", "error", err)
		os.Exit(1)
	}
	notificationRepo := notification.NewMongoRepository(mongoDB)
	leadsRepo := leads.NewMongoRepository(mongoDB)

	gateway := checkout.NewGatewayClient(cfg.PaymentBaseURL, cfg.PaymentAPIKey, cfg.PaymentTimeout)
	checkoutService := checkout.NewService(checkoutRepo, cartStore, gateway, cfg.Currency, logger)

	// The cart store owns the in-memory cart state, so the clearing
	// consumer runs in this process rather than in the worker.
	clearPoller := poller.NewPoller(cartStore, snapshots, logger, cfg.KafkaBrokers...)
	defer clearPoller.Close()
	go clearPoller.Run(ctx)

	router := h.NewRouter(h.Handlers{
		Cart:          h.NewCartHandler(cartStore, cachedCatalog),
		Products:      h.NewProductHandler(cachedCatalog),
		Checkout:      h.NewCheckoutHandler(checkoutService),
		Orders:        h.NewOrdersHandler(ordersRepo),
		Notifications: h.NewNotificationHandler(notificationRepo),
		Leads:         h.NewLeadsHandler(leadsRepo),
	}, cfg.RequestTimeout)

	srv := &http.Server{
		Addr:         ":" + cfg.HTTPPort,
		Handler:      otelhttp.NewHandler(router, "webshop-api"),
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 10 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		logger.Info("webshop api starting", "port", cfg.HTTPPort)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("server error", "error", err)
			os.Exit(1)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("shutting down server")
	cancel()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer shutdownCancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("server forced to shutdown", "error", err)
	}

	logger.Info("server exited")
}
