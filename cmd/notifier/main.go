package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"

	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/robertarktes/campus-ticket-exchange/internal/adapters/rabbit"
	"github.com/robertarktes/campus-ticket-exchange/internal/config"
	"github.com/robertarktes/campus-ticket-exchange/internal/notify"
	"github.com/robertarktes/campus-ticket-exchange/internal/observability"
)

const (
	queueName = "notify.offers"
	prefetch  = 10
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}
	if cfg.RabbitURL == "" || cfg.SMTPHost == "" {
		log.Fatal("notifier needs RABBIT_URL and SMTP_HOST")
	}

	shutdownOtel, err := observability.SetupOTel(context.Background(), cfg, "campus-ticket-notifier")
	if err != nil {
		log.Fatalf("failed to setup otel: %v", err)
	}
	defer shutdownOtel()

	logger := observability.NewLoggerWithLevel(cfg.LogLevel)

	sender, err := notify.NewMailSender(notify.SMTPConfig{
		Host:     cfg.SMTPHost,
		Port:     cfg.SMTPPort,
		Username: cfg.SMTPUsername,
		Password: cfg.SMTPPassword,
		From:     cfg.SMTPFrom,
	})
	if err != nil {
		log.Fatalf("failed to create mail sender: %v", err)
	}

	conn, err := amqp.Dial(cfg.RabbitURL)
	if err != nil {
		log.Fatalf("failed to connect to rabbitmq: %v", err)
	}
	defer conn.Close()
	consumer, err := rabbit.NewConsumer(conn, queueName, rabbit.OfferSubmittedKey, prefetch)
	if err != nil {
		log.Fatalf("failed to create consumer: %v", err)
	}
	defer consumer.Close()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	deliveries, err := consumer.Consume(ctx)
	if err != nil {
		log.Fatalf("failed to consume: %v", err)
	}

	worker := NewNotifyWorker(sender, logger)
	done := make(chan struct{})
	go func() {
		worker.Run(ctx, deliveries)
		close(done)
	}()

	sig := make(chan os.Signal, 1)
	signal.Notify(sig, syscall.SIGINT, syscall.SIGTERM)
	select {
	case <-sig:
	case <-done:
		logger.Warn("delivery channel closed")
	}
	logger.Info("Shutdown notifier")
}
