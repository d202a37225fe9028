package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gin-gonic/gin/binding"
	"go.uber.org/zap"

	"github.com/grandstay/service-frontdesk/internal/application"
	"github.com/grandstay/service-frontdesk/internal/config"
	bookingDomain "github.com/grandstay/service-frontdesk/internal/domain/booking"
	frontdeskEvents "github.com/grandstay/service-frontdesk/internal/events"
	"github.com/grandstay/service-frontdesk/internal/handler"
	"github.com/grandstay/service-frontdesk/pkg/auth"
	"github.com/grandstay/service-frontdesk/pkg/health"
	"github.com/grandstay/service-frontdesk/pkg/logger"
	"github.com/grandstay/service-frontdesk/pkg/middleware"
	"github.com/grandstay/service-frontdesk/pkg/obs"
)

const serviceName = "service-frontdesk"

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load config: %v\n", err)
		os.Exit(1)
	}

	// Initialize logger
	log, err := logger.NewNamed(cfg.AppEnv, serviceName)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to create logger: %v\n", err)
		os.Exit(1)
	}
	defer func() { _ = log.Sync() }()

	log.Info("starting "+serviceName,
		zap.String("port", cfg.Port),
		zap.String("store", cfg.StoreDriver),
		zap.String("events", cfg.EventsDriver),
	)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Initialize tracing
	shutdownTracer, err := obs.InitTracer(ctx, serviceName, cfg.AppEnv, cfg.OTLPEndpoint)
	if err != nil {
		log.Fatal("failed to initialize tracing", zap.Error(err))
	}
	defer func() {
		flushCtx, flushCancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer flushCancel()
		_ = shutdownTracer(flushCtx)
	}()

	// Open stores
	st, err := openStores(ctx, cfg, log)
	if err != nil {
		log.Fatal("failed to open stores", zap.Error(err))
	}
	defer st.close()

	// Initialize event publisher
	publisher, closePublisher, err := openPublisher(cfg, log)
	if err != nil {
		log.Fatal("failed to initialize event publisher", zap.Error(err))
	}
	defer closePublisher()

	// Initialize JWT manager
	jwtManager := auth.NewJWTManager(
		cfg.JWTConfig.Secret,
		15*time.Minute,
		7*24*time.Hour,
	)

	// Initialize application services
	invoiceService := application.NewInvoiceService(st.invoices, st.guests, log)
	frontDeskService := application.NewFrontDeskService(
		st.rooms,
		st.bookings,
		st.guests,
		bookingDomain.NewNightlyPricingStrategy(),
		invoiceService,
		publisher,
		cfg.Currency,
		log,
	)
	roomService := application.NewRoomService(st.rooms, st.bookings, publisher, cfg.Currency, log)

	// Initialize and start housekeeping event consumer in a goroutine
	if cfg.EventsDriver != config.EventsNone && len(cfg.KafkaConfig.Brokers) > 0 {
		groupID := cfg.KafkaConfig.GroupPrefix + "frontdesk-service"
		housekeepingConsumer := frontdeskEvents.NewHousekeepingEventConsumer(
			cfg.KafkaConfig.Brokers,
			groupID,
			roomService,
			log,
		)
		defer func() { _ = housekeepingConsumer.Close() }()

		go func() {
			log.Info("starting housekeeping event consumer")
			if err := housekeepingConsumer.Start(ctx); err != nil && err != context.Canceled {
				log.Error("housekeeping event consumer error", zap.Error(err))
			}
		}()
	}

	// Initialize HTTP handlers
	frontDeskHandler := handler.NewFrontDeskHandler(frontDeskService, invoiceService)
	roomHandler := handler.NewRoomHandler(roomService)
	adminHandler := handler.NewAdminHandler(frontDeskService)

	// Setup Gin router
	gin.SetMode(gin.ReleaseMode)
	binding.EnableDecoderDisallowUnknownFields = true
	router := gin.New()

	// Apply global middleware
	router.Use(middleware.RecoveryMiddleware(log))
	router.Use(middleware.LoggerMiddleware(log))
	router.Use(middleware.RequestIDMiddleware())
	router.Use(middleware.CORSMiddleware())
	router.Use(middleware.SecurityHeadersMiddleware())

	// Register health check routes
	healthHandler := health.NewHandler(serviceName, st.checks)
	healthHandler.RegisterRoutes(router)

	// Register routes
	frontDeskHandler.RegisterRoutes(&router.RouterGroup, jwtManager)
	roomHandler.RegisterRoutes(&router.RouterGroup, jwtManager)
	adminHandler.RegisterRoutes(&router.RouterGroup, jwtManager)

	// Create HTTP server
	srv := &http.Server{
		Addr:         cfg.Port,
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// Start server in a goroutine
	go func() {
		log.Info("HTTP server starting", zap.String("addr", cfg.Port))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal("HTTP server error", zap.Error(err))
		}
	}()

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info("shutting down " + serviceName + "...")

	// Cancel the consumer context
	cancel()

	// Shutdown HTTP server with timeout
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error("HTTP server forced shutdown", zap.Error(err))
	}

	log.Info(serviceName + " stopped")
}
