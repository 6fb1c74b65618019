package routes

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"time"

	"eventhub/internal/analytics"
	"eventhub/internal/auth"
	"eventhub/internal/bookings"
	"eventhub/internal/comments"
	"eventhub/internal/events"
	"eventhub/internal/inventory"
	"eventhub/internal/payments"
	"eventhub/internal/realtime"
	"eventhub/internal/shared/config"
	"eventhub/internal/shared/database"
	"eventhub/pkg/cache"
	"eventhub/pkg/logger"

	"github.com/gin-gonic/gin"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
)

// Publisher carries booking lifecycle messages and operator alerts off the request path
type Publisher interface {
	bookings.EventPublisher
	inventory.AlertPublisher
}

// Router owns the wired services and registers their routes
type Router struct {
	config *config.Config
	db     *database.DB
	log    *logger.Logger

	cache       cache.Service
	hub         *realtime.Hub
	relay       *realtime.RedisNotifier
	ledger      *inventory.GormLedger
	compensator *inventory.Compensator
	jobs        *payments.JobProcessor

	authController      *auth.Controller
	eventController     events.Controller
	bookingController   *bookings.Controller
	paymentController   *payments.Controller
	commentController   *comments.Controller
	analyticsController analytics.Controller
	streamController    *realtime.Controller
}

// NewRouter builds every service from the shared connections
func NewRouter(cfg *config.Config, db *database.DB, publisher Publisher, log *logger.Logger) (*Router, error) {
	pg := db.PostgreSQL

	r := &Router{
		config: cfg,
		db:     db,
		log:    log,
		cache:  cache.NewService(db.Redis),
		hub:    realtime.NewHub(),
	}
	r.relay = realtime.NewRedisNotifier(db.Redis, r.hub, log)

	r.ledger = inventory.NewGormLedger(pg, log)
	r.compensator = inventory.NewCompensator(r.ledger, pg, log, publisher, inventory.CompensatorConfig{
		MaxAttempts: cfg.Reconcile.CompensationAttempts,
		Backoff:     cfg.Reconcile.CompensationBackoff,
	})

	eventRepo := events.NewRepository(pg)
	eventService := events.NewService(eventRepo, r.ledger, r.cache, log, cfg.Payment.Currency)
	r.ledger.OnChange(eventService.InvalidateStock)
	r.eventController = events.NewController(eventService)

	gateway, err := newGateway(cfg.Payment)
	if err != nil {
		return nil, err
	}

	bookingRepo := bookings.NewRepository(pg)
	bookingService := bookings.NewService(bookingRepo, r.compensator, r.ledger, r.relay, publisher, log)
	r.bookingController = bookings.NewController(bookingService)

	orders := payments.NewOrderService(eventRepo, bookingRepo, gateway, log, cfg.Payment.Timeout)
	orchestrator := payments.NewOrchestrator(payments.OrchestratorDeps{
		Gateway:       gateway,
		Signer:        payments.NewSigner(cfg.Payment.KeySecret),
		WebhookSecret: cfg.Payment.WebhookSecret,
		Bookings:      bookingRepo,
		Ledger:        r.ledger,
		Compensator:   r.compensator,
		Notifier:      r.relay,
		Events:        publisher,
		Logger:        log,
		Timeout:       cfg.Payment.Timeout,
	})
	r.paymentController = payments.NewController(orders, orchestrator)

	r.jobs = payments.NewJobProcessor(bookingRepo, r.ledger, r.compensator, r.compensator, bookingService, &payments.JobConfig{
		Interval:          cfg.Reconcile.Interval,
		ClaimTimeout:      cfg.Reconcile.ClaimTimeout,
		PendingBookingTTL: cfg.Reconcile.PendingBookingTTL,
		BatchSize:         cfg.Reconcile.BatchSize,
	}, log)

	commentService := comments.NewService(comments.NewRepository(pg), eventRepo, r.relay, log)
	r.commentController = comments.NewController(commentService)

	analyticsService := analytics.NewService(analytics.NewRepository(pg), r.cache, log)
	r.analyticsController = analytics.NewController(analyticsService)

	authService := auth.NewService(auth.NewRepository(pg), cfg.JWT)
	r.authController = auth.NewController(authService, log)

	r.streamController = realtime.NewController(r.hub, r.ledger)

	return r, nil
}

func newGateway(cfg config.PaymentConfig) (payments.Gateway, error) {
	switch strings.ToLower(cfg.Gateway) {
	case "sandbox", "":
		return payments.NewSandboxGateway(cfg.KeySecret), nil
	case "razorpay":
		if cfg.KeyID == "" || cfg.KeySecret == "" {
			return nil, fmt.Errorf("razorpay gateway needs RAZORPAY_KEY_ID and RAZORPAY_KEY_SECRET")
		}
		return payments.NewRazorpayGateway(cfg.BaseURL, cfg.KeyID, cfg.KeySecret, cfg.Timeout), nil
	default:
		return nil, fmt.Errorf("unknown payment gateway %q", cfg.Gateway)
	}
}

// RunRelay forwards realtime messages published by any instance to local stream clients
func (r *Router) RunRelay(ctx context.Context) error {
	return r.relay.Run(ctx)
}

// RunJobs runs the reconciliation loop until ctx is cancelled
func (r *Router) RunJobs(ctx context.Context) error {
	r.jobs.Run(ctx)
	return nil
}

// SetupRoutes configures all application routes
func (r *Router) SetupRoutes(engine *gin.Engine) {
	r.setupHealthRoutes(engine)

	engine.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))

	api := engine.Group(r.config.GetAPIBasePath())
	{
		auth.NewRouter(r.authController, r.config.JWT.Secret).SetupRoutes(api)
		events.SetupEventRoutes(api, r.eventController, r.config.JWT.Secret)
		realtime.SetupRealtimeRoutes(api, r.streamController)
		payments.SetupPaymentRoutes(api, r.paymentController, r.config.JWT.Secret)
		bookings.SetupBookingRoutes(api, r.bookingController, r.config.JWT.Secret)
		comments.SetupCommentRoutes(api, r.commentController, r.config.JWT.Secret)
		analytics.SetupAnalyticsRoutes(api, r.analyticsController, r.config.JWT.Secret)
	}
}

func (r *Router) setupHealthRoutes(engine *gin.Engine) {
	engine.GET("/health", func(c *gin.Context) {
		if err := r.db.HealthCheck(c.Request.Context()); err != nil {
			c.JSON(http.StatusServiceUnavailable, gin.H{
				"status":    "unhealthy",
				"error":     err.Error(),
				"timestamp": time.Now(),
				"service":   "eventhub-backend",
			})
			return
		}

		c.JSON(http.StatusOK, gin.H{
			"status":    "healthy",
			"timestamp": time.Now(),
			"service":   "eventhub-backend",
		})
	})

	engine.GET("/ping", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"message": "pong",
			"version": r.config.APIVersion,
		})
	})

	engine.GET(r.config.GetAPIBasePath()+"/status", func(c *gin.Context) {
		parked, err := r.compensator.PendingCount(c.Request.Context())
		status := gin.H{
			"status":               "operational",
			"api_version":          r.config.APIVersion,
			"timestamp":            time.Now(),
			"stream_dropped":       r.hub.Dropped(),
			"parked_compensations": parked,
		}
		if err != nil {
			status["parked_compensations_error"] = err.Error()
		}
		c.JSON(http.StatusOK, status)
	})
}
