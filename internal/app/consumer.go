package app

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"go-leave/internal/config"
	"go-leave/internal/messaging/kafka/consumer"
	"go-leave/internal/notifier"
	"go-leave/internal/user"

	kafkago "github.com/segmentio/kafka-go"
	"go.uber.org/zap"
)

// RunConsumer delivers notifications for every outbox topic.
func RunConsumer(cfg *config.Config) error {
	logger := zap.L().Named("app.consumer")

	in, err := connectInfra(cfg, false)
	if err != nil {
		return err
	}
	defer in.Close()

	var n notifier.Notifier = notifier.NewLogNotifier(logger)
	if cfg.SMTPEnabled() {
		n = notifier.NewSMTPNotifier(notifier.SMTPConfig{
			Host:     cfg.SMTPHost,
			Port:     cfg.SMTPPort,
			Username: cfg.SMTPUsername,
			Password: cfg.SMTPPassword,
			From:     cfg.SMTPFrom,
		}, logger)
	}
	handler := consumer.NewNotificationHandler(user.NewRepository(in.GormDB), n, logger)

	reader := kafkago.NewReader(kafkago.ReaderConfig{
		Brokers:        []string{cfg.KafkaBroker},
		GroupID:        cfg.KafkaConsumerGroup,
		GroupTopics:    consumer.Topics(),
		CommitInterval: 0,
		StartOffset:    kafkago.FirstOffset,
	})
	defer reader.Close()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	go consumer.Consume(ctx, reader, handler.Handle, logger)

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("consumer shutting down")
	cancel()

	return nil
}
