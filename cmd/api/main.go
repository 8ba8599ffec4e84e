package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"github.com/robfig/cron/v3"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.mongodb.org/mongo-driver/mongo/readpref"

	"github.com/harentsoaR/sehaty-api/internal/config"
	"github.com/harentsoaR/sehaty-api/internal/events"
	"github.com/harentsoaR/sehaty-api/internal/handlers"
	"github.com/harentsoaR/sehaty-api/internal/jobs"
	"github.com/harentsoaR/sehaty-api/internal/logger"
	"github.com/harentsoaR/sehaty-api/internal/middleware"
	"github.com/harentsoaR/sehaty-api/internal/services"
	"github.com/harentsoaR/sehaty-api/internal/store"
	"github.com/harentsoaR/sehaty-api/internal/utils"
)

func main() {
	rootCmd := &cobra.Command{
		Use:   "sehaty-api",
		Short: "Sehaty healthcare appointments API",
	}

	rootCmd.AddCommand(serveCmd())
	rootCmd.AddCommand(indexesCmd())

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func serveCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Start the API server",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServer()
		},
	}
}

func indexesCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "indexes",
		Short: "Create the MongoDB indexes and exit",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load()
			if err != nil {
				return err
			}
			log := logger.New(cfg.AppEnv)
			if cfg.MongoURI == "" {
				return errors.New("MONGO_URI is not set")
			}
			client, err := connectMongo(cfg.MongoURI)
			if err != nil {
				return err
			}
			defer disconnect(client, log)

			ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
			defer cancel()
			if err := store.EnsureIndexes(ctx, client.Database(cfg.MongoDatabase)); err != nil {
				return err
			}
			log.Info().Str("database", cfg.MongoDatabase).Msg("indexes ensured")
			return nil
		},
	}
}

func connectMongo(uri string) (*mongo.Client, error) {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	client, err := mongo.Connect(ctx, options.Client().ApplyURI(uri))
	if err != nil {
		return nil, fmt.Errorf("connect to MongoDB: %w", err)
	}
	if err := client.Ping(ctx, readpref.Primary()); err != nil {
		return nil, fmt.Errorf("ping MongoDB: %w", err)
	}
	return client, nil
}

func disconnect(client *mongo.Client, log zerolog.Logger) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := client.Disconnect(ctx); err != nil {
		log.Warn().Err(err).Msg("mongo disconnect")
	}
}

func runServer() error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}
	log := logger.New(cfg.AppEnv)
	log.Info().
		Str("env", cfg.AppEnv).
		Str("mongo_database", cfg.MongoDatabase).
		Str("api_port", cfg.APIPort).
		Msg("configuration loaded")
	if os.Getenv("JWT_SECRET") != "" {
		log.Info().Msg("JWT_SECRET is SET.")
	} else {
		log.Warn().Msg("JWT_SECRET is NOT SET, using the development secret.")
	}

	// --- Storage ---
	var (
		st   *store.Store
		ping func(context.Context) error
	)
	if cfg.MongoURI != "" {
		client, err := connectMongo(cfg.MongoURI)
		if err != nil {
			return err
		}
		defer disconnect(client, log)
		db := client.Database(cfg.MongoDatabase)
		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		err = store.EnsureIndexes(ctx, db)
		cancel()
		if err != nil {
			return err
		}
		st = store.NewMongo(db)
		ping = func(ctx context.Context) error { return client.Ping(ctx, readpref.Primary()) }
		log.Info().Msg("connected to MongoDB")
	} else {
		if cfg.IsProduction() {
			return errors.New("MONGO_URI is required in production")
		}
		st = store.NewMemory()
		log.Warn().Msg("MONGO_URI not set, using the in-memory store")
	}

	// --- Login rate limiting ---
	var limiter middleware.Counter
	if cfg.RedisAddr != "" {
		rdb := redis.NewClient(&redis.Options{
			Addr:     cfg.RedisAddr,
			Password: cfg.RedisPassword,
			DB:       cfg.RedisDB,
		})
		defer rdb.Close()
		ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
		if err := rdb.Ping(ctx).Err(); err != nil {
			log.Warn().Err(err).Msg("redis unreachable, login rate limit will fail open")
		}
		cancel()
		limiter = middleware.NewRedisCounter(rdb)
	}

	// --- Events and SMS ---
	var publisher events.Publisher = events.NopPublisher{}
	if len(cfg.KafkaBrokers) > 0 {
		publisher = events.NewKafkaPublisher(cfg.KafkaBrokers, cfg.KafkaTopic, log)
		log.Info().Strs("brokers", cfg.KafkaBrokers).Str("topic", cfg.KafkaTopic).Msg("publishing appointment events")
	}
	defer publisher.Close()

	var sms services.SMSSender
	if cfg.TextbeltAPIKey != "" {
		sms = services.NewTextbeltSender(cfg.TextbeltAPIKey, log)
	}

	// --- Services ---
	tokens, err := utils.NewTokenManager(cfg.JWTSecret)
	if err != nil {
		return err
	}
	notifications := services.NewNotificationService(st, sms, log)
	h := handlers.NewHandler(handlers.Handler{
		Auth:          services.NewAuthService(st, tokens, log),
		Dashboard:     services.NewDashboardService(st, notifications, log),
		Appointments:  services.NewAppointmentService(st, notifications, publisher, log),
		Prescriptions: services.NewPrescriptionService(st, log),
		Records:       services.NewHealthRecordService(st, log),
		Notifications: notifications,
		Providers:     services.NewProviderService(st),
	}, log, cfg.IsProduction())

	// --- Reminder job ---
	scheduler := cron.New()
	if err := jobs.NewReminders(st, notifications, log).Schedule(scheduler, cfg.ReminderCron); err != nil {
		return err
	}
	scheduler.Start()
	defer scheduler.Stop()

	// --- HTTP ---
	if !cfg.IsDevelopment() {
		gin.SetMode(gin.ReleaseMode)
	}
	router := handlers.NewRouter(h, handlers.RouterConfig{
		CORSOrigins:  cfg.CORSOrigins,
		LoginLimiter: limiter,
		LoginLimit: middleware.RateLimitConfig{
			Limit:  cfg.LoginRateLimit,
			Window: cfg.LoginRateWindow,
		},
		Ping: ping,
		Log:  log,
	})
	srv := &http.Server{
		Addr:              ":" + cfg.APIPort,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		log.Info().Str("addr", srv.Addr).Msg("starting server")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	select {
	case err := <-errCh:
		return fmt.Errorf("server error: %w", err)
	case <-quit:
	}

	log.Info().Msg("shutting down server")
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		return fmt.Errorf("server shutdown: %w", err)
	}
	log.Info().Msg("server stopped")
	return nil
}
