package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/jasiri-lending/jasiri-sub007/internal/config"
	"github.com/jasiri-lending/jasiri-sub007/internal/data/postgres"
	"github.com/jasiri-lending/jasiri-sub007/internal/ingest_gateway"
	"github.com/jasiri-lending/jasiri-sub007/internal/ingest_gateway/service"
	"github.com/jasiri-lending/jasiri-sub007/internal/logger"
	"github.com/jasiri-lending/jasiri-sub007/internal/platform/messaging/producers"
	"github.com/jasiri-lending/jasiri-sub007/internal/platform/persistence"
)

func main() {
	// Create base context with cancellation
	appCtx, cancelAppCtx := context.WithCancel(context.Background())
	defer cancelAppCtx()

	// Initialize configuration
	cfg, err := config.LoadConfig("ingest_gateway")
	if err != nil {
		// logger is not initialized yet, so we use fmt
		fmt.Printf("Failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	// Initialize logger
	log := logger.NewLogger(cfg)

	// Initialize databases with app context
	postgresDB, err := persistence.NewPostgresDB(appCtx, log, &cfg.Postgres)
	if err != nil {
		log.Error("Failed to initialize PostgreSQL", "error", err)
		os.Exit(1)
	}

	// Initialize Kafka producer (publishes job wake-ups)
	kafkaProducer, err := producers.NewPaymentJobProducer(appCtx, log, &cfg.Kafka)
	if err != nil {
		log.Error("Failed to initialize payment job Kafka producer", "error", err)
		os.Exit(1)
	}

	// Initialize repositories
	eventRepo := postgres.NewPaymentEventRepository(log, postgresDB)
	jobRepo := postgres.NewJobRepository(log, postgresDB)
	customerRepo := postgres.NewCustomerRepository(log, postgresDB)
	accountRepo := postgres.NewAccountRepository(log, postgresDB)
	entryRepo := postgres.NewJournalRepository(log, postgresDB)

	// Initialize services
	ingestService := service.NewIngestService(log, postgresDB, eventRepo, jobRepo, kafkaProducer, &cfg.Queue)
	suspenseService := service.NewSuspenseService(log, postgresDB, eventRepo, jobRepo, customerRepo, kafkaProducer, &cfg.Queue)
	ledgerService := service.NewLedgerService(log, accountRepo, entryRepo)

	// Initialize REST server
	server := ingest_gateway.NewServer(log, cfg, ingestService, suspenseService, ledgerService)
	log.Info("REST server initialized")

	// Create error channel for server errors
	errChan := make(chan error, 1)

	// Start server in goroutine
	go func() {
		log.Info("Starting HTTP server", "port", cfg.Server.Port)
		if err := server.Start(); err != nil {
			errChan <- fmt.Errorf("HTTP server error: %w", err)
		}
	}()

	// Set up signal handling
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM, syscall.SIGQUIT)

	// Wait for a shutdown signal or error
	var serverErr error
	select {
	case <-quit:
		log.Info("Shutdown signal received")
	case err := <-errChan:
		log.Error("Server error occurred", "error", err)
		serverErr = err
	}

	// Cancel the application context
	cancelAppCtx()

	// Create a shutdown context with timeout
	shutdownCtx, cancelShutdown := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancelShutdown()

	// Graceful shutdown sequence
	log.Info("Starting graceful shutdown...")

	// Shutdown HTTP server
	if err = server.Stop(shutdownCtx); err != nil {
		log.Error("Error during server shutdown", "error", err)
	}

	if err = kafkaProducer.Close(); err != nil {
		log.Error("Error closing Kafka producer", "error", err)
	}

	// Shutdown postgres connection pool
	postgresDB.Close()

	// Final status
	if serverErr != nil {
		log.Error("HTTP server shutdown with errors", "error", serverErr)
	}
	if err != nil {
		log.Error("Server shutdown completed with errors")
	} else {
		log.Info("Server shutdown completed successfully")
	}
}
