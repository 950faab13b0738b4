package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/jasiri-lending/jasiri-sub007/internal/config"
	"github.com/jasiri-lending/jasiri-sub007/internal/data/mongo"
	"github.com/jasiri-lending/jasiri-sub007/internal/data/postgres"
	"github.com/jasiri-lending/jasiri-sub007/internal/logger"
	"github.com/jasiri-lending/jasiri-sub007/internal/payment_processor/components"
	"github.com/jasiri-lending/jasiri-sub007/internal/payment_processor/consumer"
	"github.com/jasiri-lending/jasiri-sub007/internal/payment_processor/service"
	"github.com/jasiri-lending/jasiri-sub007/internal/payment_processor/sweeper"
	"github.com/jasiri-lending/jasiri-sub007/internal/platform/messaging/consumers"
	"github.com/jasiri-lending/jasiri-sub007/internal/platform/messaging/producers"
	"github.com/jasiri-lending/jasiri-sub007/internal/platform/persistence"
)

func main() {
	// Create base context with cancellation
	appCtx, cancelAppCtx := context.WithCancel(context.Background())
	defer cancelAppCtx()

	// Initialize configuration
	cfg, err := config.LoadConfig("payment_processor")
	if err != nil {
		// logger is not initialized yet, so we use fmt
		fmt.Printf("Failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	// Initialize logger
	log := logger.NewLogger(cfg)

	log.Info("Starting Payment Processor",
		"app_name", cfg.Application.Name,
		"env", cfg.Application.Env,
	)

	// Initialize databases with app context
	postgresDB, err := persistence.NewPostgresDB(appCtx, log, &cfg.Postgres)
	if err != nil {
		log.Error("Failed to initialize PostgreSQL", "error", err)
		os.Exit(1)
	}

	mongoDB, err := persistence.NewMongoDB(appCtx, log, &cfg.MongoDB)
	if err != nil {
		log.Error("Failed to initialize MongoDB", "error", err)
		os.Exit(1)
	}

	// Initialize repositories
	repos := components.ProcessingRepositories{
		Events:   postgres.NewPaymentEventRepository(log, postgresDB),
		Jobs:     postgres.NewJobRepository(log, postgresDB),
		Tenants:  postgres.NewTenantRepository(log, postgresDB),
		Customs:  postgres.NewCustomerRepository(log, postgresDB),
		Loans:    postgres.NewLoanRepository(log, postgresDB),
		Accounts: postgres.NewAccountRepository(log, postgresDB),
		Entries:  postgres.NewJournalRepository(log, postgresDB),
		Recon:    mongo.NewReconciliationRepository(log, mongoDB.Database()),
	}

	// Initialize Kafka consumer
	kafkaConsumer := consumers.NewKafkaConsumer(appCtx, log, &cfg.Kafka)

	// Initialize Kafka DLQ producer
	dlqProducer, err := producers.NewDLQProducer(appCtx, log, &cfg.Kafka)
	if err != nil {
		log.Error("Failed to initialize DLQ Kafka producer", "error", err)
		os.Exit(1)
	}
	// dlqProducer might be nil if DLQTopic is not configured. Handler is nil-safe.

	// Initialize job producer for the recovery sweep's re-published wake-ups
	jobProducer, err := producers.NewPaymentJobProducer(appCtx, log, &cfg.Kafka)
	if err != nil {
		log.Error("Failed to initialize payment job Kafka producer", "error", err)
		os.Exit(1)
	}

	// Initialize processing service with separated concerns
	processingService := components.CreateProcessingService(
		postgresDB,
		repos,
		log,
		cfg,
	)

	// Initialize payment job handler
	paymentJobHandler := consumer.NewPaymentJobHandler(
		log,
		processingService,
		dlqProducer,
	)

	// Initialize the job recovery sweeper
	jobSweeper := sweeper.NewSweeper(&cfg.Queue, repos.Jobs, jobProducer, log)

	// Create error channel for service errors
	errChan := make(chan error, 2)

	// Create wait group for graceful shutdown
	var wg sync.WaitGroup

	// Start Kafka consumer in a goroutine
	wg.Add(1)
	go func() {
		defer wg.Done()
		log.Info("Starting Kafka consumer",
			"topic", cfg.Kafka.PaymentJobTopic,
			"group", cfg.Kafka.ConsumerGroup,
		)
		if err := kafkaConsumer.Subscribe(appCtx, cfg.Kafka.PaymentJobTopic, cfg.Kafka.ConsumerGroup, paymentJobHandler.HandleMessage); err != nil {
			errChan <- fmt.Errorf("kafka consumer error: %w", err)
		}
	}()

	// Start the recovery sweeper
	if err := jobSweeper.Start(appCtx); err != nil {
		log.Error("Failed to start job recovery sweeper", "error", err)
		os.Exit(1)
	}

	// Set up signal handling
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM, syscall.SIGQUIT)

	// Wait for a shutdown signal or error
	var serviceErr error
	select {
	case <-quit:
		log.Info("Shutdown signal received")
	case err := <-errChan:
		log.Error("Service error occurred", "error", err)
		serviceErr = err
	}

	// Cancel the application context
	cancelAppCtx()

	// Shutdown the worker pool if it's a WorkerPoolProcessingService
	if wpService, ok := processingService.(*service.WorkerPoolProcessingService); ok {
		log.Info("Shutting down worker pool", "running_workers", wpService.Running())
		wpService.Shutdown()
	}

	// Create a shutdown context with timeout
	shutdownCtx, cancelShutdown := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancelShutdown()

	// Graceful shutdown sequence
	log.Info("Starting graceful shutdown...")

	// Wait for all goroutines to finish
	log.Info("Waiting for services to stop...")
	wgChan := make(chan struct{})
	go func() {
		wg.Wait()
		close(wgChan)
	}()

	select {
	case <-wgChan:
		log.Info("All services stopped successfully")
	case <-shutdownCtx.Done():
		log.Warn("Shutdown timeout reached, forcing exit")
	}

	// Close DLQ Kafka producer
	if dlqProducer != nil { // dlqProducer can be nil if DLQTopic was not configured
		if err = dlqProducer.Close(); err != nil {
			log.Error("Error closing DLQ Kafka producer", "error", err)
		}
	}

	if err = jobProducer.Close(); err != nil {
		log.Error("Error closing payment job Kafka producer", "error", err)
	}

	// Close Kafka consumer
	if err = kafkaConsumer.Close(); err != nil {
		log.Error("Error closing Kafka consumer", "error", err)
	}

	// Shutdown postgres connection pool
	postgresDB.Close()

	// Close MongoDB connection
	if err = mongoDB.Close(shutdownCtx); err != nil {
		log.Error("Error closing MongoDB connection", "error", err)
	}

	// Final status
	if serviceErr != nil {
		log.Error("Payment Processor shutdown with errors", "error", serviceErr)
	}
	if err != nil {
		log.Error("Payment Processor shutdown completed with errors")
	} else {
		log.Info("Payment Processor shutdown completed successfully")
	}
}
