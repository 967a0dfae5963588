package app

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"go-payroll/internal/adjustment"
	"go-payroll/internal/company"
	"go-payroll/internal/employee"
	"go-payroll/internal/events"
	"go-payroll/internal/job"
	"go-payroll/internal/messaging/kafka/consumer"
	"go-payroll/internal/payrollrun"
	"go-payroll/internal/shared/connection"
	"go-payroll/internal/shared/counter"
	"go-payroll/internal/statutory"

	kafkago "github.com/segmentio/kafka-go"
	"go.uber.org/zap"
)

// RunConsumer hosts the job runner: it consumes queued-job events and executes
// the registered job types, with payroll computation being the heavy one.
func RunConsumer() error {
	logger := zap.L().Named("app.consumer")

	gormDB, err := connection.ConnectGORMWithRetry(
		os.Getenv("DB_HOST"),
		os.Getenv("DB_USER"),
		os.Getenv("DB_PASSWORD"),
		os.Getenv("DB_NAME"),
		os.Getenv("DB_PORT"),
		os.Getenv("DB_SSLMODE"),
		5,
	)
	if err != nil {
		return err
	}

	sqlDB, err := gormDB.DB()
	if err != nil {
		return err
	}
	defer sqlDB.Close()

	redisClient, err := connection.ConnectRedisWithRetry(os.Getenv("REDIS_ADDR"), 5)
	if err != nil {
		return err
	}

	kafkaBroker := os.Getenv("KAFKA_BROKER")
	if kafkaBroker == "" {
		return fmt.Errorf("KAFKA_BROKER is required")
	}

	statutoryRepo := statutory.NewRepository(gormDB)
	companyRepo := company.NewRepository(gormDB)
	counterRepo := counter.NewRepository(gormDB)
	employeeRepo := employee.NewRepository(gormDB)
	adjustmentRepo := adjustment.NewRepository(gormDB)
	jobRepo := job.NewRepository(gormDB)
	runRepo := payrollrun.NewRepository(gormDB)

	statutoryService := statutory.NewService(sqlDB, statutoryRepo)
	companyService := company.NewService(sqlDB, companyRepo)
	employeeService := employee.NewService(sqlDB, employeeRepo, counterRepo, redisClient)
	adjustmentService := adjustment.NewService(sqlDB, adjustmentRepo)

	engine := payrollrun.NewEngine(sqlDB, runRepo, employeeService, companyService, statutoryService, adjustmentService)

	registry := job.NewRegistry()
	registry.Register(payrollrun.JobTypeCompute, payrollrun.NewComputeExecutor(engine, runRepo, jobRepo))

	runner := job.NewRunner(jobRepo, registry)

	reader := kafkago.NewReader(kafkago.ReaderConfig{
		Brokers:        []string{kafkaBroker},
		Topic:          events.JobQueuedTopic,
		GroupID:        "go-payroll-job-runner",
		CommitInterval: 0,
		StartOffset:    kafkago.FirstOffset,
	})
	defer reader.Close()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	go consumer.ConsumeJobQueued(ctx, reader, runner, logger)

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("consumer shutting down")
	cancel()

	return nil
}
