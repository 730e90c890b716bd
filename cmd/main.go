package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"sync"
	"syscall"
	"time"

	"billing-service/internal/config"
	"billing-service/internal/database/postgres"
	"billing-service/internal/database/redis"
	"billing-service/internal/event"
	"billing-service/internal/handlers"
	"billing-service/internal/repository"
	"billing-service/internal/services"
	"billing-service/internal/worker"

	"github.com/gofiber/fiber/v3"
)

func setupLogging() (*os.File, error) {
	logDir := filepath.Join("/billing", "log", "billing_service")
	if err := os.MkdirAll(logDir, 0o755); err != nil {
		// No log directory, keep logging to stderr.
		slog.Warn("failed to create log directory, logging to stderr", "error", err)
		return nil, nil
	}

	logFileName := fmt.Sprintf("log_%s.log", time.Now().Format("2006-01-02"))
	file, err := os.OpenFile(filepath.Join(logDir, logFileName), os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		return nil, fmt.Errorf("failed to open log file: %w", err)
	}

	slog.SetDefault(slog.New(slog.NewTextHandler(file, nil)))
	return file, nil
}

func main() {
	logFile, err := setupLogging()
	if err != nil {
		slog.Error("Failed to set up logging", "error", err)
		os.Exit(1)
	}
	if logFile != nil {
		defer logFile.Close()
	}

	cfg := config.New()

	db, err := postgres.ConnectAndCreateDB(cfg.PostgresCfg)
	if err != nil {
		// Block until the database comes up; the repositories capture the
		// handle once, so wiring them against a dead connection would leave
		// every request failing even after a successful retry.
		slog.Error("error connecting to database, retrying until it succeeds", "error", err)
		postgres.RetryConnectOnFailed(30*time.Second, &db, cfg.PostgresCfg)
	}

	meterRepo := repository.NewMeterRepository(db)
	tariffRepo := repository.NewTariffRepository(db)
	billRepo := repository.NewBillRepository(db)

	var tariffs services.TariffProvider = tariffRepo
	redisClient, err := redis.NewRedisClient(cfg.RedisCfg.Host, cfg.RedisCfg.Port, cfg.RedisCfg.Password, cfg.RedisCfg.DB)
	if err != nil {
		slog.Warn("redis unavailable, tariff caching disabled", "error", err)
	} else {
		defer redisClient.Close()
		tariffs = services.NewTariffService(tariffRepo, redisClient.GetClient(), 10*time.Minute)
	}

	adjustments := services.NewFlatRateAdjustmentPolicy(cfg.BillingCfg.SolarExportRate)
	calculationService := services.NewBillCalculationService(meterRepo, tariffs, adjustments)
	billingService := services.NewBillingService(calculationService, billRepo, tariffs, cfg.BillingCfg.DueDays)
	eligibilityService := services.NewEligibilityService(meterRepo, billRepo)
	runService := services.NewBillingRunService(meterRepo, eligibilityService, billingService, cfg.BillingCfg.MinDaysBetweenBills)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	var publisher services.BillPublisher
	rabbitConn, err := event.ConnectRabbitMQ(cfg.RabbitMQCfg)
	if err != nil {
		slog.Warn("RabbitMQ unavailable, auto billing from reading events disabled", "error", err)
	} else {
		defer rabbitConn.Close()
		publisher = event.NewBillEventPublisher(rabbitConn)
	}

	trigger := services.NewAutoBillTrigger(eligibilityService, billingService, publisher, cfg.BillingCfg)

	if rabbitConn != nil {
		consumer := event.NewReadingConsumer(rabbitConn, trigger)
		if err := consumer.Start(ctx); err != nil {
			slog.Error("failed to start meter reading consumer", "error", err)
		}
	}

	var wg sync.WaitGroup
	if cfg.BillingCfg.RunIntervalMinutes > 0 {
		pool := worker.NewWorkingPool(cfg.BillingCfg.RunWorkers, 16)
		wg.Add(1)
		go pool.Start(ctx, &wg)

		scheduler := worker.NewJobScheduler("billing-run",
			time.Duration(cfg.BillingCfg.RunIntervalMinutes)*time.Minute, pool)
		scheduler.AddJob(func(ctx context.Context) error {
			_, err := runService.Run(time.Now())
			return err
		})
		go scheduler.Run(ctx)
	}

	app := fiber.New()
	app.Get("/checkhealth", func(c fiber.Ctx) error {
		return c.Status(fiber.StatusOK).SendString("Billing service is healthy")
	})

	billingHandler := handlers.NewBillingHandler(
		billingService, calculationService, eligibilityService, trigger, runService,
		cfg.BillingCfg.MinDaysBetweenBills,
	)
	billingHandler.Register(app)

	go func() {
		if err := app.Listen(":" + cfg.Port); err != nil {
			slog.Error("server stopped", "error", err)
			stop()
		}
	}()

	<-ctx.Done()
	slog.Info("Shutting down billing service")
	if err := app.Shutdown(); err != nil {
		slog.Error("failed to shut down server", "error", err)
	}
	wg.Wait()
}
