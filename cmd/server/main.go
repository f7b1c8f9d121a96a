package main

import (
	"context"
	"database/sql"
	"errors"
	"flag"
	"log"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gorilla/mux"
	_ "github.com/lib/pq"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/redis/go-redis/v9"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"

	api "trailerhub-backend/internal/api/grpc"
	"trailerhub-backend/internal/api/grpc/interceptor"
	httpapi "trailerhub-backend/internal/api/http"
	"trailerhub-backend/internal/cache"
	"trailerhub-backend/internal/config"
	"trailerhub-backend/internal/events"
	"trailerhub-backend/internal/gateway"
	"trailerhub-backend/internal/logger"
	"trailerhub-backend/internal/metrics"
	"trailerhub-backend/internal/repository/postgres"
	"trailerhub-backend/internal/security"
	"trailerhub-backend/internal/service"
	"trailerhub-backend/internal/storage"
	"trailerhub-backend/internal/utils"
)

func main() {
	// Parse command-line flags
	configPath := flag.String("config", "config/config.dev.yaml", "Path to configuration file")
	flag.Parse()

	// Load configuration
	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	// Initialize logger
	logger.Initialize(cfg.Log.Level, cfg.Log.Format)
	logger.Info("Starting TrailerHub reservation backend...", "log_level", cfg.Log.Level, "log_format", cfg.Log.Format)
	logger.Info("Server configuration", "grpc_address", cfg.GetServerAddress(), "http_address", cfg.GetHTTPAddress())
	logger.Info("Database configuration", "host", cfg.Database.Host, "port", cfg.Database.Port, "database", cfg.Database.Database, "user", cfg.Database.User)

	// Initialize Database
	db, err := sql.Open("postgres", cfg.GetDatabaseConnectionString())
	if err != nil {
		logger.Error("Failed to connect to database", "error", err)
		log.Fatalf("Failed to connect to database: %v", err)
	}
	defer db.Close()
	if cfg.Database.MaxOpenConns > 0 {
		db.SetMaxOpenConns(cfg.Database.MaxOpenConns)
	}

	// Test database connection
	if err := db.Ping(); err != nil {
		logger.Error("Failed to ping database", "error", err)
		log.Fatalf("Failed to ping database: %v", err)
	}
	logger.Info("Database connection established")

	store := postgres.NewStore(db)
	m := metrics.Default()

	calendar, closeCache := newCalendarCache(cfg)
	defer closeCache()

	publisher, closePublisher := newPublisher(cfg, store)
	defer closePublisher()

	gw := newGateway(cfg)

	// Initialize Services
	availabilitySvc := service.NewAvailabilityService(store, store.Repos, calendar, m)
	paymentSvc := service.NewPaymentService(store, store.Repos, gw, availabilitySvc, publisher, m, service.PaymentOptions{
		Currency:    cfg.Gateway.Currency,
		CallTimeout: cfg.Gateway.Timeout,
	})
	pricingSvc := service.NewPricingService(store.Resources, utils.Rates{
		ServiceFeeBps:  cfg.Pricing.ServiceFeeBps,
		PlatformFeeBps: cfg.Pricing.PlatformFeeBps,
	})
	reservationSvc := service.NewReservationService(store, store.Repos, pricingSvc, availabilitySvc, paymentSvc, publisher, m, service.ReservationOptions{
		ToleranceCents: cfg.Pricing.ToleranceCents,
		Currency:       cfg.Gateway.Currency,
	})
	rentalSvc := service.NewRentalService(store, store.Repos, availabilitySvc, paymentSvc, publisher, m)
	damageSvc := service.NewDamageService(store, store.Repos, publisher, m)

	// Initialize damage photo storage
	photoStore, err := storage.NewLocalStore(storage.Config{
		Dir:           cfg.Storage.Dir,
		BaseURL:       cfg.Storage.BaseURL,
		SigningSecret: cfg.Storage.SigningSecret,
		URLExpiry:     cfg.Storage.URLExpiry,
		MaxBytes:      cfg.Storage.MaxPhotoBytes,
	})
	if err != nil {
		logger.Error("Failed to initialize photo storage", "error", err, "dir", cfg.Storage.Dir)
		log.Fatalf("Failed to initialize photo storage: %v", err)
	}
	logger.Info("Photo storage ready", "dir", cfg.Storage.Dir, "base_url", cfg.Storage.BaseURL)

	// Initialize Security
	tokenManager := security.NewTokenManager(cfg.JWT.Secret, cfg.JWT.Issuer, time.Duration(cfg.JWT.AccessTokenExpiry)*time.Minute)
	authInterceptor := interceptor.NewAuthInterceptor(tokenManager)

	// Set up gRPC server
	handler := api.NewReservationHandler(api.Services{
		Pricing:       pricingSvc,
		Availability:  availabilitySvc,
		Payments:      paymentSvc,
		Reservations:  reservationSvc,
		Rentals:       rentalSvc,
		Damage:        damageSvc,
		DamagePhotos:  service.NewDamagePhotoService(store.Rentals, photoStore),
		Notifications: service.NewNotificationService(store.Notifications),
	})
	grpcServer, healthServer := api.NewServer(handler, authInterceptor)

	lis, err := net.Listen("tcp", cfg.GetServerAddress())
	if err != nil {
		logger.Error("Failed to listen", "error", err, "address", cfg.GetServerAddress())
		log.Fatalf("Failed to listen: %v", err)
	}

	// Set up HTTP server for webhooks, photos, metrics and health
	router := mux.NewRouter()
	httpapi.RegisterRoutes(router, httpapi.NewWebhookHandler(paymentSvc, cfg.Gateway.WebhookSecret, m), prometheus.DefaultGatherer, db)
	httpapi.RegisterPhotoRoutes(router, photoStore)
	httpServer := &http.Server{
		Addr:              cfg.GetHTTPAddress(),
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		logger.Info("HTTP server listening", "address", httpServer.Addr)
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("HTTP server error", "error", err)
		}
	}()

	go func() {
		logger.Info("gRPC server listening", "address", cfg.GetServerAddress())
		if err := grpcServer.Serve(lis); err != nil {
			logger.Error("Failed to serve gRPC", "error", err)
		}
	}()

	// Wait for interrupt signal
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	<-sigChan

	// Graceful shutdown
	logger.Info("Shutting down servers...")
	healthServer.SetServingStatus(api.ReservationServiceName, healthpb.HealthCheckResponse_NOT_SERVING)
	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := httpServer.Shutdown(ctx); err != nil {
		logger.Error("HTTP server shutdown failed", "error", err)
	}
	grpcServer.GracefulStop()
	logger.Info("Servers stopped. Goodbye!")
}

func newCalendarCache(cfg *config.Config) (cache.CalendarCache, func()) {
	if cfg.Redis.Addr == "" {
		logger.Info("Calendar cache disabled")
		return cache.Noop{}, func() {}
	}
	rdb := redis.NewClient(&redis.Options{
		Addr:     cfg.Redis.Addr,
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	})
	if err := rdb.Ping(context.Background()).Err(); err != nil {
		// The ledger is authoritative; run uncached rather than refuse to start.
		logger.Warn("Redis unreachable, calendar cache disabled", "addr", cfg.Redis.Addr, "error", err)
		rdb.Close()
		return cache.Noop{}, func() {}
	}
	logger.Info("Calendar cache enabled", "addr", cfg.Redis.Addr, "ttl", cfg.Redis.CalendarTTL)
	return cache.NewRedisCalendar(rdb, cfg.Redis.CalendarTTL), func() { rdb.Close() }
}

func newPublisher(cfg *config.Config, store *postgres.Store) (events.Publisher, func()) {
	publishers := events.Multi{events.NewNotificationWriter(store.Notifications)}
	if len(cfg.Kafka.Brokers) == 0 {
		logger.Info("Kafka publishing disabled")
		return publishers, func() {}
	}
	producer, err := events.NewProducer(cfg.Kafka.Brokers, cfg.Kafka.ClientID)
	if err != nil {
		logger.Error("Failed to create Kafka producer", "brokers", cfg.Kafka.Brokers, "error", err)
		log.Fatalf("Failed to create Kafka producer: %v", err)
	}
	topic := cfg.Topic("rental.events.v1")
	logger.Info("Kafka publishing enabled", "topic", topic)
	publishers = append(publishers, events.NewKafkaPublisher(producer, topic, cfg.Kafka.ClientID))
	return publishers, func() {
		if err := producer.Close(); err != nil {
			logger.Error("Failed to close Kafka producer", "error", err)
		}
	}
}

func newGateway(cfg *config.Config) gateway.Gateway {
	switch cfg.Gateway.Type {
	case "http":
		logger.Info("Using HTTP payment gateway", "base_url", cfg.Gateway.BaseURL)
		return gateway.NewHTTPClient(nil, cfg.Gateway.BaseURL, cfg.Gateway.APIKey, cfg.Gateway.Timeout)
	case "mock":
		logger.Warn("Using in-memory mock payment gateway")
		return gateway.NewMock()
	default:
		log.Fatalf("Payment gateway type '%s' not yet implemented", cfg.Gateway.Type)
		return nil
	}
}
