package main

import (
	"context"
	"time"

	"github.com/cockroachdb/errors"
	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/robertarktes/campus-ticket-exchange/internal/adapters/rabbit"
	"github.com/robertarktes/campus-ticket-exchange/internal/domain"
	"github.com/robertarktes/campus-ticket-exchange/internal/observability"
)

const maxRetries = 3

type Sender interface {
	NotifyOffer(ctx context.Context, n domain.OfferNotice) error
}

// NotifyWorker turns offer.submitted events into seller emails.
type NotifyWorker struct {
	sender  Sender
	logger  observability.Logger
	backoff func(attempt int) time.Duration
}

func NewNotifyWorker(sender Sender, logger observability.Logger) *NotifyWorker {
	return &NotifyWorker{
		sender:  sender,
		logger:  logger,
		backoff: func(attempt int) time.Duration { return time.Duration(1<<attempt) * time.Second },
	}
}

func (w *NotifyWorker) Run(ctx context.Context, deliveries <-chan amqp.Delivery) {
	for {
		select {
		case <-ctx.Done():
			return
		case d, ok := <-deliveries:
			if !ok {
				return
			}
			w.handle(ctx, d)
		}
	}
}

// handle acks delivered or undecodable messages and nacks without requeue
// once retries are exhausted.
func (w *NotifyWorker) handle(ctx context.Context, d amqp.Delivery) {
	log := w.logger.WithField("message_id", d.MessageId)

	n, err := rabbit.DecodeOfferSubmitted(d.Body)
	if err != nil {
		log.Error("dropping malformed message: ", err)
		d.Nack(false, false)
		return
	}
	log = log.WithField("offer_id", n.OfferID)

	if err := w.sendWithRetry(ctx, n); err != nil {
		observability.NotificationFailures.Inc()
		log.Error("failed to notify seller after retries: ", err)
		d.Nack(false, false)
		return
	}
	log.Info("seller notified")
	d.Ack(false)
}

func (w *NotifyWorker) sendWithRetry(ctx context.Context, n domain.OfferNotice) error {
	var err error
	for i := 0; i < maxRetries; i++ {
		if err = w.sender.NotifyOffer(ctx, n); err == nil {
			return nil
		}
		if i == maxRetries-1 {
			break
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(w.backoff(i)):
		}
	}
	return errors.Wrapf(err, "failed after %d attempts", maxRetries)
}
