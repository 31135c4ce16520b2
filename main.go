package main

import (
	"context"
	"errors"
	"net/http"
	"os/signal"
	"sync"
	"syscall"
	"time"

	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/sqs"
	"github.com/op/go-logging"

	"parking_manager/internal/api"
	"parking_manager/internal/api/handler"
	"parking_manager/internal/api/middleware"
	"parking_manager/internal/config"
	"parking_manager/internal/logger"
	"parking_manager/internal/notify"
	"parking_manager/internal/repository"
	"parking_manager/internal/repository/postgresql"
	"parking_manager/internal/repository/sqlite"
	"parking_manager/internal/service"
)

func main() {
	// 1. Configuration
	cfg := config.Load()
	if err := cfg.Validate(); err != nil {
		logger.Fatalf("Invalid configuration: %v", err)
	}
	logger.InitLogger(cfg.LogLevel)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// 2. Store
	store, err := openStore(ctx, cfg)
	if err != nil {
		logger.Fatalf("Cannot open %s store: %v", cfg.DBDriver, err)
	}
	defer store.Close()
	logger.Infof("Connected to %s store", cfg.DBDriver)

	// 3. Auth
	authService := service.NewAuthService(store.Repos().Users, cfg.JWTSecret, cfg.JWTExpiration)
	if err := authService.EnsureAdmin(ctx, cfg.AdminEmail, cfg.AdminPassword); err != nil {
		logger.Fatalf("Cannot seed admin account: %v", err)
	}

	// 4. Event delivery
	var wg sync.WaitGroup
	wsManager := handler.NewWebSocketManager()
	wg.Add(1)
	go func() {
		defer wg.Done()
		wsManager.Start(ctx)
	}()

	publisher, closers, err := buildPublishers(ctx, cfg, wsManager, &wg)
	if err != nil {
		logger.Fatalf("Cannot set up event publishing: %v", err)
	}

	// 5. Services and router
	parkingService := service.NewParkingService(store)
	reservationService := service.NewReservationService(store, publisher, cfg.HourlyRate)
	authMiddleware := middleware.NewAuthMiddleware(authService)
	router := api.SetupRouter(authService, parkingService, reservationService, authMiddleware, wsManager)

	srv := &http.Server{
		Addr:              ":" + cfg.ServerPort,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		logger.Infof("Server listening on port %s (hourly rate %.2f)", cfg.ServerPort, cfg.HourlyRate)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatalf("ListenAndServe: %v", err)
		}
	}()

	<-ctx.Done()
	logger.Info("Shutting down server...")

	shutdownCtx, cancelShutdown := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancelShutdown()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Errorf("Forced shutdown: %v", err)
	}

	done := make(chan struct{})
	go func() {
		defer close(done)
		wg.Wait()
	}()
	select {
	case <-done:
	case <-time.After(5 * time.Second):
		logger.Warning("Background workers did not stop in time")
	}

	for _, closeFn := range closers {
		if err := closeFn(); err != nil {
			logger.Warningf("Close: %v", err)
		}
	}
	logger.Info("Server stopped")
}

func openStore(ctx context.Context, cfg *config.Config) (repository.Store, error) {
	if cfg.DBDriver == config.DriverSQLite {
		db, err := sqlite.Open(cfg.SQLitePath, logger.Enabled(logging.DEBUG))
		if err != nil {
			return nil, err
		}
		return sqlite.NewStore(db), nil
	}

	db, err := postgresql.NewDB(cfg)
	if err != nil {
		return nil, err
	}
	if err := postgresql.Migrate(ctx, db); err != nil {
		db.Close()
		return nil, err
	}
	return postgresql.NewStore(db), nil
}

// buildPublishers wires the configured sinks. With SQS the hub is fed by the
// queue consumer instead of directly, so every instance sees every event.
func buildPublishers(ctx context.Context, cfg *config.Config, hub *handler.WebSocketManager, wg *sync.WaitGroup) (*notify.Fanout, []func() error, error) {
	var sinks []notify.Publisher
	var closers []func() error

	if cfg.SQSEventQueueURL == "" {
		logger.Info("SQS_EVENT_QUEUE_URL not set, dashboard events stay in process")
		sinks = append(sinks, hub)
	} else {
		awsCfg, err := awsconfig.LoadDefaultConfig(ctx, awsconfig.WithRegion(cfg.AWSRegion))
		if err != nil {
			return nil, nil, err
		}
		sqsClient := sqs.NewFromConfig(awsCfg)
		sinks = append(sinks, notify.NewSQSPublisher(sqsClient, cfg.SQSEventQueueURL))

		consumer := notify.NewSQSConsumer(sqsClient, cfg.SQSEventQueueURL, hub.Publish)
		wg.Add(1)
		go func() {
			defer wg.Done()
			logger.Infof("SQS consumer listening on %s", cfg.SQSEventQueueURL)
			consumer.Start(ctx)
			logger.Info("SQS consumer stopped")
		}()
	}

	if len(cfg.KafkaBrokers) > 0 {
		kafkaPublisher := notify.NewKafkaPublisher(cfg.KafkaBrokers, cfg.KafkaTopic)
		sinks = append(sinks, kafkaPublisher)
		closers = append(closers, kafkaPublisher.Close)
		logger.Infof("Publishing reservation events to Kafka topic %s", cfg.KafkaTopic)
	}

	return notify.NewFanout(sinks...), closers, nil
}
