package rabbit

import (
	"encoding/json"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/google/uuid"
	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/robertarktes/campus-ticket-exchange/internal/domain"
)

const OfferSubmittedKey = "offer.submitted"

// OfferSubmittedMessage wraps a notice in an AMQP publishing.
func OfferSubmittedMessage(n domain.OfferNotice) (amqp.Publishing, error) {
	payload, err := json.Marshal(n)
	if err != nil {
		return amqp.Publishing{}, err
	}
	return amqp.Publishing{
		MessageId:    uuid.New().String(),
		ContentType:  "application/json",
		DeliveryMode: amqp.Persistent,
		Timestamp:    time.Now().UTC(),
		Type:         OfferSubmittedKey,
		Body:         payload,
	}, nil
}

// DecodeOfferSubmitted rejects messages that cannot be turned back into a
// deliverable notice.
func DecodeOfferSubmitted(body []byte) (domain.OfferNotice, error) {
	var n domain.OfferNotice
	if err := json.Unmarshal(body, &n); err != nil {
		return domain.OfferNotice{}, errors.Wrap(err, "decode offer.submitted")
	}
	if n.Recipient == "" || n.OfferID == 0 {
		return domain.OfferNotice{}, errors.New("offer.submitted without recipient or offer id")
	}
	return n, nil
}
