package rabbit

import (
	"testing"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/robertarktes/campus-ticket-exchange/internal/domain"
)

func TestOfferSubmittedMessage(t *testing.T) {
	n := domain.OfferNotice{
		Recipient:    "a@unl.edu",
		ListingID:    1,
		ListingTitle: "Huskers vs Iowa",
		OfferID:      3,
		BuyerName:    "Sam",
		BuyerPhone:   "555-1111",
		SubmittedAt:  time.Date(2026, 10, 16, 12, 0, 0, 0, time.UTC),
	}
	msg, err := OfferSubmittedMessage(n)
	if err != nil {
		t.Fatal(err)
	}
	if msg.MessageId == "" || msg.ContentType != "application/json" || msg.DeliveryMode != amqp.Persistent || msg.Type != OfferSubmittedKey {
		t.Errorf("unexpected publishing headers: %+v", msg)
	}
	got, err := DecodeOfferSubmitted(msg.Body)
	if err != nil {
		t.Fatal(err)
	}
	if !got.SubmittedAt.Equal(n.SubmittedAt) {
		t.Errorf("submitted_at = %v, want %v", got.SubmittedAt, n.SubmittedAt)
	}
	got.SubmittedAt, n.SubmittedAt = time.Time{}, time.Time{}
	if got != n {
		t.Errorf("decoded %+v, want %+v", got, n)
	}
}

func TestDecodeOfferSubmitted_Rejects(t *testing.T) {
	for name, body := range map[string]string{
		"garbage":      "not json",
		"no recipient": `{"offer_id": 1}`,
		"no offer":     `{"recipient": "a@unl.edu"}`,
	} {
		if _, err := DecodeOfferSubmitted([]byte(body)); err == nil {
			t.Errorf("%s: expected error", name)
		}
	}
}
