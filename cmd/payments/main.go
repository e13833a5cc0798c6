package main

import (
	"context"
	"database/sql"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/golang-migrate/migrate/v4"
	_ "github.com/golang-migrate/migrate/v4/database/postgres"
	_ "github.com/golang-migrate/migrate/v4/source/file"
	"github.com/segmentio/kafka-go"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"payments/internal/app/payments"
	"payments/internal/config"
	"payments/internal/gateway"
	payments_http "payments/internal/handler/http/payments"
	kafka_handler "payments/internal/handler/kafka"
	"payments/internal/infrastructure/database"
	kafka_infra "payments/internal/infrastructure/kafka"
	"payments/internal/mercadopago"
	"payments/internal/publisher"
	"payments/internal/repository/payments_repo"
)

func ensureKafkaTopics(ctx context.Context, brokerURLs []string, topics []string, logger *zap.Logger) error {
	conn, err := kafka.DialContext(ctx, "tcp", brokerURLs[0])
	if err != nil {
		return fmt.Errorf("failed to dial kafka broker for admin operations: %w", err)
	}
	defer conn.Close()

	controller, err := conn.Controller()
	if err != nil {
		return fmt.Errorf("failed to get kafka controller: %w", err)
	}
	controllerConn, err := kafka.DialContext(ctx, "tcp", fmt.Sprintf("%s:%d", controller.Host, controller.Port))
	if err != nil {
		return fmt.Errorf("failed to dial kafka controller: %w", err)
	}
	defer controllerConn.Close()

	topicConfigs := make([]kafka.TopicConfig, len(topics))
	for i, topic := range topics {
		topicConfigs[i] = kafka.TopicConfig{
			Topic:             topic,
			NumPartitions:     1,
			ReplicationFactor: 1,
		}
	}

	if err := controllerConn.CreateTopics(topicConfigs...); err != nil {
		if err == kafka.TopicAlreadyExists {
			logger.Info("One or more Kafka topics already exist, skipping creation.")
			return nil
		}
		return fmt.Errorf("failed to create Kafka topics: %w", err)
	}

	logger.Info("Kafka topics ensured successfully.", zap.Strings("topics", topics))
	return nil
}

func main() {
	cfg, err := config.LoadConfig()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error loading configuration: %v\n", err)
		os.Exit(1)
	}

	zapConfig := zap.NewProductionConfig()
	zapConfig.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder
	zapConfig.EncoderConfig.TimeKey = "timestamp"

	appLogger, err := zapConfig.Build()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to create zap logger: %v\n", err)
		os.Exit(1)
	}
	appLogger.Info("Payment Service starting...")

	appLogger.Info("Waiting for database to be available...")
	var db *sql.DB
	maxRetries := 10
	retryDelay := 5 * time.Second

	for i := 0; i < maxRetries; i++ {
		db, err = database.NewPostgresDB(cfg.GetDBConnectionString())
		if err == nil {
			appLogger.Info("Successfully connected to PostgreSQL database!")
			break
		}
		appLogger.Warn(fmt.Sprintf("Failed to connect to database (attempt %d/%d): %v. Retrying in %s...", i+1, maxRetries, err, retryDelay))
		time.Sleep(retryDelay)
	}

	if db == nil {
		appLogger.Fatal("Could not connect to database after multiple retries. Exiting.", zap.Error(err))
	}
	defer func() {
		if err := db.Close(); err != nil {
			appLogger.Error("Error closing database connection", zap.Error(err))
		} else {
			appLogger.Info("Database connection closed.")
		}
	}()

	appLogger.Info("Running database migrations...")
	m, err := migrate.New(cfg.MigrationsPath, cfg.GetDBMigrationConnectionString())
	if err != nil {
		appLogger.Fatal("Failed to create migrate instance", zap.Error(err))
	}
	if err := m.Up(); err != nil && err != migrate.ErrNoChange {
		appLogger.Fatal("Failed to run database migrations", zap.Error(err))
	}
	appLogger.Info("Database migrations completed successfully (or no new migrations).")

	kafkaBrokers := cfg.GetKafkaBrokers()
	requiredTopics := []string{
		cfg.KafkaOrderEventsTopic,
		cfg.KafkaPaymentClosedTopic,
	}

	topicCtx, topicCancel := context.WithTimeout(context.Background(), 10*time.Second)
	err = ensureKafkaTopics(topicCtx, kafkaBrokers, requiredTopics, appLogger)
	topicCancel()
	if err != nil {
		appLogger.Fatal("Failed to ensure Kafka topics", zap.Error(err))
	}

	mpClient := mercadopago.NewClient(
		&http.Client{Timeout: cfg.MercadoPago.Timeout},
		mercadopago.ClientConfig{
			BaseURL:     cfg.MercadoPago.BaseURL,
			AccessToken: cfg.MercadoPago.AccessToken,
			UserID:      cfg.MercadoPago.UserID,
			POS:         cfg.MercadoPago.POS,
		},
	)

	closedEventProducer := kafka_infra.NewProducer(
		kafkaBrokers,
		cfg.KafkaPaymentClosedTopic,
		appLogger.With(zap.String("component", "KafkaProducer")),
	)
	defer func() {
		if err := closedEventProducer.Close(); err != nil {
			appLogger.Error("Error closing Kafka producer", zap.Error(err))
		}
	}()

	paymentRepository := payments_repo.NewPaymentRepository(db)
	paymentGateway := gateway.NewMercadoPagoGateway(mpClient, cfg.MercadoPago.CallbackURL)
	processorClient := gateway.NewMercadoPagoProcessor(mpClient)
	closedPublisher := publisher.NewPaymentClosedPublisher(
		closedEventProducer,
		appLogger.With(zap.String("component", "PaymentClosedPublisher")),
	)

	paymentService := payments.NewPaymentService(
		paymentRepository,
		paymentGateway,
		processorClient,
		closedPublisher,
		appLogger.With(zap.String("component", "PaymentService")),
	)
	appLogger.Info("Payment Service initialized.")

	router := chi.NewRouter()
	router.Use(middleware.Logger)
	router.Use(middleware.Recoverer)
	payments_http.RegisterRoutes(router, paymentService, cfg.MercadoPago.WebhookKey, appLogger.With(zap.String("component", "HTTPHandler")))

	httpServer := &http.Server{
		Addr:    fmt.Sprintf(":%d", cfg.HTTPPort),
		Handler: router,
	}
	appLogger.Info("HTTP server configured.")

	orderCreatedHandler := kafka_handler.OrderCreatedMessageHandler(
		paymentService,
		appLogger.With(zap.String("component", "OrderCreatedHandler")),
	)

	orderEventsConsumer := kafka_infra.NewConsumer(
		kafkaBrokers,
		cfg.KafkaOrderEventsTopic,
		cfg.KafkaConsumerGroup,
		orderCreatedHandler,
		appLogger.With(zap.String("component", "OrderEventsConsumer")),
	)
	appLogger.Info("Order Events Kafka Consumer initialized.")

	ctxMain, cancelMain := context.WithCancel(context.Background())

	go func() {
		appLogger.Info("Starting HTTP server", zap.String("address", httpServer.Addr))
		if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			appLogger.Fatal("HTTP server failed", zap.Error(err))
		}
	}()

	consumerDone := make(chan struct{})
	go func() {
		defer close(consumerDone)
		appLogger.Info("Starting Order Events Kafka Consumer...")
		if err := orderEventsConsumer.Consume(ctxMain); err != nil && err != context.Canceled {
			appLogger.Error("Order Events Kafka Consumer failed", zap.Error(err))
		}
		appLogger.Info("Order Events Kafka Consumer stopped.")
	}()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	<-sigChan
	appLogger.Info("Shutting down application...")

	cancelMain()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer shutdownCancel()

	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		appLogger.Error("HTTP server graceful shutdown failed", zap.Error(err))
	} else {
		appLogger.Info("HTTP server gracefully shut down.")
	}

	if err := orderEventsConsumer.Close(); err != nil {
		appLogger.Error("Error closing Order Events Kafka Consumer", zap.Error(err))
	}

	select {
	case <-consumerDone:
		appLogger.Info("Order Events Kafka Consumer goroutine confirmed stopped.")
	case <-time.After(5 * time.Second):
		appLogger.Warn("Order Events Kafka Consumer did not stop cleanly within 5 seconds.")
	}

	appLogger.Info("Application gracefully shut down.")
}
