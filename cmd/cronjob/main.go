package main

import (
	"database/sql"
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"

	_ "github.com/lib/pq"

	"trailerhub-backend/internal/config"
	"trailerhub-backend/internal/events"
	"trailerhub-backend/internal/gateway"
	"trailerhub-backend/internal/jobs"
	"trailerhub-backend/internal/logger"
	"trailerhub-backend/internal/metrics"
	"trailerhub-backend/internal/repository/postgres"
	"trailerhub-backend/internal/scheduler"
	"trailerhub-backend/internal/service"
)

func main() {
	// Parse command-line flags
	configPath := flag.String("config", "config/config.dev.yaml", "Path to configuration file")
	runOnce := flag.String("run-once", "", "Run a specific job once and exit (e.g., 'sweep-stale-holds', 'all')")
	flag.Parse()

	// Load configuration
	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	// Initialize logger
	logger.Initialize(cfg.Log.Level, cfg.Log.Format)
	logger.Info("Starting TrailerHub Cronjob Runner...", "log_level", cfg.Log.Level)

	// Initialize Database
	logger.Info("Connecting to database...", "host", cfg.Database.Host, "port", cfg.Database.Port)
	db, err := sql.Open("postgres", cfg.GetDatabaseConnectionString())
	if err != nil {
		logger.Error("Failed to connect to database", "error", err)
		log.Fatalf("Failed to connect to database: %v", err)
	}
	defer db.Close()

	// Test database connection
	if err := db.Ping(); err != nil {
		logger.Error("Failed to ping database", "error", err)
		log.Fatalf("Failed to ping database: %v", err)
	}
	logger.Info("Database connection established")

	store := postgres.NewStore(db)
	m := metrics.Default()

	var gw gateway.Gateway
	if cfg.Gateway.Type == "http" {
		gw = gateway.NewHTTPClient(nil, cfg.Gateway.BaseURL, cfg.Gateway.APIKey, cfg.Gateway.Timeout)
	} else {
		logger.Warn("Using in-memory mock payment gateway; reconciliation will not reach a provider")
		gw = gateway.NewMock()
	}

	publisher := events.Multi{events.NewNotificationWriter(store.Notifications)}
	if len(cfg.Kafka.Brokers) > 0 {
		producer, err := events.NewProducer(cfg.Kafka.Brokers, cfg.Kafka.ClientID)
		if err != nil {
			logger.Error("Failed to create Kafka producer", "error", err)
			log.Fatalf("Failed to create Kafka producer: %v", err)
		}
		defer producer.Close()
		publisher = append(publisher, events.NewKafkaPublisher(producer, cfg.Topic("rental.events.v1"), cfg.Kafka.ClientID))
	}

	// Initialize Services. The cronjob never serves reads, so the calendar
	// cache is skipped; the API process repopulates it on demand.
	availabilityService := service.NewAvailabilityService(store, store.Repos, nil, m)
	paymentService := service.NewPaymentService(store, store.Repos, gw, availabilityService, publisher, m, service.PaymentOptions{
		Currency:    cfg.Gateway.Currency,
		CallTimeout: cfg.Gateway.Timeout,
	})
	rentalService := service.NewRentalService(store, store.Repos, availabilityService, paymentService, publisher, m)

	jobServices := &jobs.Services{
		Availability: availabilityService,
		Payments:     paymentService,
		Rentals:      rentalService,
	}

	// Initialize Job Runner
	jobRunner := jobs.NewJobRunner(jobServices, cfg, m)

	// Check if running a single job
	if *runOnce != "" {
		logger.Info("Running job once", "job", *runOnce)
		runJobOnce(jobRunner, *runOnce)
		logger.Info("Job execution completed", "job", *runOnce)
		return
	}

	// Initialize Scheduler
	cronScheduler, err := scheduler.NewScheduler(jobRunner)
	if err != nil {
		log.Fatalf("Failed to initialize scheduler: %v", err)
	}

	// Start scheduler
	cronScheduler.Start()
	logger.Info("Cronjob scheduler is running. Press Ctrl+C to stop.")

	// Wait for interrupt signal
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	<-sigChan

	// Graceful shutdown
	logger.Info("Shutting down cronjob scheduler...")
	cronScheduler.Stop()
	logger.Info("Cronjob scheduler stopped. Goodbye!")
}

// runJobOnce runs a specific job once and exits
func runJobOnce(jobRunner *jobs.JobRunner, jobName string) {
	var err error
	switch jobName {
	case "sweep-stale-holds":
		err = jobRunner.SweepStaleHolds()
	case "reconcile-payments":
		err = jobRunner.ReconcilePayments()
	case "mark-late-returns":
		err = jobRunner.MarkLateReturns()
	case "send-return-reminders":
		err = jobRunner.SendReturnReminders()
	case "all":
		jobRunner.RunAll()
	default:
		logger.Error("Unknown job name", "job", jobName)
		fmt.Printf("Available jobs:\n")
		fmt.Printf("  - sweep-stale-holds\n")
		fmt.Printf("  - reconcile-payments\n")
		fmt.Printf("  - mark-late-returns\n")
		fmt.Printf("  - send-return-reminders\n")
		fmt.Printf("  - all\n")
		os.Exit(1)
	}
	if err != nil {
		os.Exit(1)
	}
}
