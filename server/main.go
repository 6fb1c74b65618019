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

	"eventhub/api/routes"
	_ "eventhub/docs"
	"eventhub/internal/events"
	"eventhub/internal/notifications"
	"eventhub/internal/shared/config"
	"eventhub/internal/shared/database"
	"eventhub/internal/shared/middleware"
	"eventhub/pkg/logger"
	"eventhub/pkg/ratelimit"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	"golang.org/x/sync/errgroup"
)

var (
	Version   = "dev"
	BuildTime = "unknown"
	GitCommit = "unknown"
)

// publisher is the Kafka producer or its log-only stand-in
type publisher interface {
	routes.Publisher
	Close() error
}

// @title           EventHub API
// @version         1.0
// @BasePath        /api/v1
// @securityDefinitions.apikey  BearerAuth
// @in              header
// @name            Authorization
func main() {
	envErr := godotenv.Load()

	cfg := config.Load()
	gin.SetMode(cfg.GinMode)
	appLogger := logger.New()

	if envErr != nil {
		if cfg.IsProduction() || os.Getenv("DOCKER_CONTAINER") == "true" {
			appLogger.Info("Production environment: using container environment variables")
		} else {
			appLogger.Info("No .env file found, using system environment variables")
		}
	} else {
		appLogger.Info("Development environment: loaded .env file")
	}

	if err := run(cfg, appLogger); err != nil {
		appLogger.Error("Server stopped with error", "error", err)
		os.Exit(1)
	}
	appLogger.Info("Server exited gracefully")
}

func run(cfg *config.Config, appLogger *logger.Logger) error {
	db, err := database.InitDB(cfg, appLogger)
	if err != nil {
		return fmt.Errorf("failed to connect: %w", err)
	}
	defer db.Close()

	if err := events.RegisterValidators(); err != nil {
		return fmt.Errorf("register validators: %w", err)
	}

	pub, err := newPublisher(cfg, appLogger)
	if err != nil {
		return err
	}
	defer pub.Close()

	appRouter, err := routes.NewRouter(cfg, db, pub, appLogger)
	if err != nil {
		return err
	}

	var rateLimiter *ratelimit.RateLimiter
	if cfg.RateLimit.Enabled {
		rateLimiter = ratelimit.NewRateLimiter(db.Redis, &ratelimit.Config{
			Enabled:           cfg.RateLimit.Enabled,
			WindowDuration:    cfg.RateLimit.WindowDuration,
			DefaultRequests:   cfg.RateLimit.DefaultRequests,
			PublicRequests:    cfg.RateLimit.PublicRequests,
			AuthRequests:      cfg.RateLimit.AuthRequests,
			PaymentRequests:   cfg.RateLimit.PaymentRequests,
			AdminRequests:     cfg.RateLimit.AdminRequests,
			AnalyticsRequests: cfg.RateLimit.AnalyticsRequests,
			WhitelistedIPs:    cfg.RateLimit.WhitelistedIPs,
		})
		appLogger.Info("Rate limiter initialized",
			"window", cfg.RateLimit.WindowDuration.String(),
			"default_requests", cfg.RateLimit.DefaultRequests,
		)
	} else {
		appLogger.Info("Rate limiting disabled")
	}

	srv := &http.Server{
		Addr:           cfg.GetServerAddress(),
		Handler:        setupEngine(cfg, appRouter, rateLimiter, appLogger),
		ReadTimeout:    cfg.ReadTimeout,
		WriteTimeout:   cfg.WriteTimeout,
		IdleTimeout:    cfg.IdleTimeout,
		MaxHeaderBytes: cfg.MaxHeaderBytes,
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error { return appRouter.RunRelay(gctx) })
	g.Go(func() error { return appRouter.RunJobs(gctx) })

	if cfg.Kafka.Enabled {
		consumer, err := newBookingConsumer(cfg, db, appLogger)
		if err != nil {
			return err
		}
		g.Go(func() error {
			consumer.Run(gctx, 2)
			return consumer.Close()
		})
	}

	g.Go(func() error {
		appLogger.Info("Server running",
			"address", cfg.GetServerAddress(),
			"health_check", fmt.Sprintf("http://localhost:%s/health", cfg.Port),
			"swagger", fmt.Sprintf("http://localhost:%s/swagger/index.html", cfg.Port),
			"version", Version,
			"commit", GitCommit,
			"built", BuildTime,
			"payment_gateway", cfg.Payment.Gateway,
			"kafka", cfg.Kafka.Enabled,
			"rate_limiting", cfg.RateLimit.Enabled,
		)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("server failed: %w", err)
		}
		return nil
	})

	g.Go(func() error {
		<-gctx.Done()
		appLogger.Info("Shutting down server...")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("forced shutdown: %w", err)
		}
		return nil
	})

	return g.Wait()
}

func newPublisher(cfg *config.Config, appLogger *logger.Logger) (publisher, error) {
	if !cfg.Kafka.Enabled {
		appLogger.Info("Kafka disabled, booking events and alerts go to the log")
		return notifications.NewLogPublisher(appLogger), nil
	}

	producer, err := notifications.NewKafkaProducer(
		notifications.DefaultKafkaProducerConfig(cfg.Kafka.Brokers, cfg.Kafka.BookingTopic, cfg.Kafka.AlertTopic),
		appLogger,
	)
	if err != nil {
		return nil, err
	}
	appLogger.Info("Kafka producer connected", "brokers", cfg.Kafka.Brokers)
	return producer, nil
}

func newBookingConsumer(cfg *config.Config, db *database.DB, appLogger *logger.Logger) (*notifications.KafkaBookingConsumer, error) {
	var email notifications.EmailService = notifications.NewLogEmailService(appLogger)
	if cfg.Email.Enabled {
		smtp, err := notifications.NewSMTPEmailService(&notifications.SMTPConfig{
			Host:      cfg.Email.SMTPHost,
			Port:      cfg.Email.SMTPPort,
			Username:  cfg.Email.SMTPUsername,
			Password:  cfg.Email.SMTPPassword,
			FromEmail: cfg.Email.FromEmail,
			FromName:  cfg.Email.FromName,
			UseTLS:    true,
		}, appLogger)
		if err != nil {
			return nil, err
		}
		email = smtp
	}

	consumerConfig := notifications.DefaultConsumerConfig(cfg.Kafka.Brokers, cfg.Kafka.ConsumerGroup, cfg.Kafka.BookingTopic)
	mailer := notifications.NewBookingMailer(
		notifications.NewDirectory(db.PostgreSQL),
		email,
		appLogger,
		consumerConfig.MaxRetries,
		consumerConfig.RetryBackoffDuration,
	)
	return notifications.NewKafkaBookingConsumer(consumerConfig, mailer, appLogger)
}

func setupEngine(cfg *config.Config, appRouter *routes.Router, rateLimiter *ratelimit.RateLimiter, appLogger *logger.Logger) *gin.Engine {
	engine := gin.New()

	engine.Use(middleware.RequestID(), middleware.RequestLogger(appLogger), gin.Recovery())

	engine.Use(cors.New(cors.Config{
		AllowOrigins:     cfg.AllowedOrigins,
		AllowMethods:     []string{"GET", "POST", "PUT", "PATCH", "DELETE", "HEAD", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Length", "Content-Type", "Authorization", "X-Request-ID", "X-Razorpay-Signature"},
		ExposeHeaders:    []string{"Content-Length", "X-Request-ID", "X-RateLimit-Limit", "X-RateLimit-Remaining", "X-RateLimit-Reset"},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}))

	if rateLimiter != nil {
		engine.Use(ratelimit.Middleware(rateLimiter, appLogger))
	}

	appRouter.SetupRoutes(engine)
	return engine
}
