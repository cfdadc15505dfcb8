package main

import (
	"context"
	"database/sql"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/dulfinne/User-service/internal/audit"
	"github.com/dulfinne/User-service/internal/command"
	"github.com/dulfinne/User-service/internal/config"
	"github.com/dulfinne/User-service/internal/handler"
	"github.com/dulfinne/User-service/internal/query"
	"github.com/dulfinne/User-service/internal/repository"
	"github.com/dulfinne/User-service/shared/events"
	"github.com/dulfinne/User-service/shared/middleware"
	redisClient "github.com/dulfinne/User-service/shared/redis"
	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	_ "github.com/lib/pq"
)

func main() {
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, using environment variables")
	}

	cfg, err := config.LoadConfig(".")
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	store, closeStore := openStore(ctx, cfg)
	defer closeStore()

	publisher, closePublisher := openPublisher(ctx, cfg)
	defer closePublisher()

	// --- CQRS wiring ---
	repo := repository.NewAccountRepository(store)
	commandSvc := command.NewAccountCommandService(repo, audit.New(log.Default()), publisher, cfg.SaveMaxAttempts)
	querySvc := query.NewAccountQueryService(repo)

	validator := middleware.NewValidator(middleware.Limits{
		MinAmount:    cfg.MinAmount,
		MaxAmount:    cfg.MaxAmount,
		MaxPageLimit: cfg.MaxLimit,
	})
	accountHandler := handler.NewAccountHandler(commandSvc, querySvc, validator, cfg.DefaultLimit)

	router := gin.New()
	router.Use(gin.Recovery(), middleware.LoggingMiddleware())
	handler.RegisterRoutes(router, accountHandler, middleware.IdentityMiddleware(middleware.IdentityConfig{
		Header:    cfg.UsernameHeader,
		JWTSecret: cfg.JWTSecret,
	}))

	srv := &http.Server{
		Addr:              ":" + cfg.ServerPort,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		log.Printf("User service starting on port %s (storage=%s, events=%s)", cfg.ServerPort, cfg.StorageDriver, cfg.EventBus)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatalf("Failed to start server: %v", err)
		}
	}()

	<-ctx.Done()
	log.Println("Shutting down...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Printf("Server shutdown failed: %v", err)
	}
}

func openStore(ctx context.Context, cfg config.Config) (repository.AccountStore, func()) {
	if cfg.StorageDriver == config.StorageDriverMemory {
		log.Println("Using in-memory account store")
		return repository.NewMemoryStore(), func() {}
	}

	db, err := sql.Open("postgres", cfg.DatabaseURL)
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}
	if err := db.PingContext(ctx); err != nil {
		log.Fatalf("Failed to ping database: %v", err)
	}

	store := repository.NewPostgresStore(db)
	if cfg.DatabaseMigrate {
		if err := store.Migrate(ctx); err != nil {
			log.Fatalf("Failed to migrate database: %v", err)
		}
	}
	return store, func() { db.Close() }
}

func openPublisher(ctx context.Context, cfg config.Config) (events.Publisher, func()) {
	switch cfg.EventBus {
	case config.EventBusRedis:
		rdb, err := redisClient.NewClient(ctx, redisClient.Options{
			Addr:     cfg.RedisAddr,
			Password: cfg.RedisPassword,
			DB:       cfg.RedisDB,
		})
		if err != nil {
			log.Fatalf("Failed to connect to Redis: %v", err)
		}
		return events.NewStreamPublisher(rdb), func() { rdb.Close() }
	case config.EventBusRabbitMQ:
		pub, err := events.NewExchangePublisher(cfg.RabbitMQURL, cfg.EventExchange)
		if err != nil {
			log.Fatalf("Failed to connect to RabbitMQ: %v", err)
		}
		return pub, func() {
			if err := pub.Close(); err != nil {
				log.Printf("Failed to close RabbitMQ publisher: %v", err)
			}
		}
	default:
		log.Println("Event bus disabled")
		return events.NopPublisher{}, func() {}
	}
}
