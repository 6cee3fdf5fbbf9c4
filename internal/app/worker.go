package app

import (
	"context"
	"errors"
	"os"
	"os/signal"
	"syscall"

	"go-leave/internal/carryover"
	"go-leave/internal/config"
	"go-leave/internal/leavebalance"
	"go-leave/internal/messaging/kafka"
	"go-leave/internal/messaging/kafka/producer"
	"go-leave/internal/scheduler"
	"go-leave/internal/shared/connection"

	"github.com/hibiken/asynq"
	"go.uber.org/zap"
)

// RunWorker relays the outbox to Kafka and runs the carry-over schedule.
func RunWorker(cfg *config.Config) error {
	logger := zap.L().Named("app.worker")

	in, err := connectInfra(cfg, true)
	if err != nil {
		return err
	}
	defer in.Close()

	kafkaWriter, err := connection.ConnectKafkaWithRetry(cfg.KafkaBroker, cfg.DBMaxRetries)
	if err != nil {
		return err
	}
	defer kafkaWriter.Close()

	balanceRepo := leavebalance.NewRepository(in.GormDB, cfg.DefaultTotalDays)
	balanceService := leavebalance.NewService(in.SQLDB, balanceRepo, in.Redis,
		leavebalance.WithLocation(in.Location),
		leavebalance.WithStoreTimeout(cfg.StoreTimeout),
	)
	job := carryover.NewJob(in.SQLDB, balanceRepo,
		carryover.WithLogger(logger),
		carryover.WithBalanceCache(balanceService),
		carryover.WithRowTimeout(cfg.StoreTimeout),
		carryover.WithLocation(in.Location),
	)

	// Year zero resolves to the current year when the task runs.
	cronTask, err := carryover.NewTask(0)
	if err != nil {
		return err
	}
	worker, err := scheduler.NewWorker(scheduler.WorkerConfig{
		RedisOpts: asynq.RedisClientOpt{Addr: cfg.RedisAddr},
		Logger:    logger,
		Location:  in.Location,
		Handlers: []scheduler.TaskHandler{
			{Type: carryover.TaskCarryOver, Handler: job.Handle},
		},
		Cron: []scheduler.CronRegistration{
			{Spec: cfg.CarryOverCron, Task: cronTask},
		},
	})
	if err != nil {
		return err
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	outboxRepo := kafka.NewOutboxRepository(in.SQLDB)
	go producer.ProcessOutboxEvents(ctx, outboxRepo, kafkaWriter, logger, cfg.OutboxPollInterval)

	errCh := make(chan error, 1)
	go func() {
		errCh <- worker.Run(ctx)
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	select {
	case <-quit:
		logger.Info("worker shutting down")
		cancel()
		if err := <-errCh; err != nil && !errors.Is(err, context.Canceled) {
			return err
		}
		return nil
	case err := <-errCh:
		return err
	}
}
