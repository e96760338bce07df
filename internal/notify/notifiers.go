package notify

import (
	"context"

	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/robertarktes/campus-ticket-exchange/internal/adapters/rabbit"
	"github.com/robertarktes/campus-ticket-exchange/internal/domain"
	"github.com/robertarktes/campus-ticket-exchange/internal/observability"
)

type Publisher interface {
	Publish(ctx context.Context, key string, msg amqp.Publishing) error
}

// QueueNotifier hands notices to the notifier worker over RabbitMQ.
type QueueNotifier struct {
	pub Publisher
}

func NewQueueNotifier(pub Publisher) *QueueNotifier {
	return &QueueNotifier{pub: pub}
}

func (q *QueueNotifier) NotifyOffer(ctx context.Context, n domain.OfferNotice) error {
	msg, err := rabbit.OfferSubmittedMessage(n)
	if err != nil {
		return err
	}
	return q.pub.Publish(ctx, rabbit.OfferSubmittedKey, msg)
}

// LogNotifier only logs. Meant for local development.
type LogNotifier struct {
	logger observability.Logger
}

func NewLogNotifier(logger observability.Logger) *LogNotifier {
	return &LogNotifier{logger: logger}
}

func (l *LogNotifier) NotifyOffer(_ context.Context, n domain.OfferNotice) error {
	subject, _ := Render(n)
	l.logger.WithField("recipient", n.Recipient).WithField("offer_id", n.OfferID).Info(subject)
	return nil
}
