package main

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/robertarktes/campus-ticket-exchange/internal/adapters/rabbit"
	"github.com/robertarktes/campus-ticket-exchange/internal/domain"
	"github.com/robertarktes/campus-ticket-exchange/internal/observability"
)

type ackRecorder struct {
	mu      sync.Mutex
	acked   int
	nacked  int
	requeue bool
}

func (a *ackRecorder) Ack(uint64, bool) error {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.acked++
	return nil
}

func (a *ackRecorder) Nack(_ uint64, _ bool, requeue bool) error {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.nacked++
	a.requeue = a.requeue || requeue
	return nil
}

func (a *ackRecorder) Reject(tag uint64, requeue bool) error {
	return a.Nack(tag, false, requeue)
}

type flakySender struct {
	failures int
	calls    int
}

func (s *flakySender) NotifyOffer(context.Context, domain.OfferNotice) error {
	s.calls++
	if s.calls <= s.failures {
		return errors.New("smtp unavailable")
	}
	return nil
}

func newWorker(s Sender) *NotifyWorker {
	w := NewNotifyWorker(s, observability.NewNopLogger())
	w.backoff = func(int) time.Duration { return time.Millisecond }
	return w
}

func delivery(t *testing.T, ack amqp.Acknowledger) amqp.Delivery {
	t.Helper()
	msg, err := rabbit.OfferSubmittedMessage(domain.OfferNotice{
		Recipient: "a@unl.edu", ListingID: 1, ListingTitle: "Huskers vs Iowa", OfferID: 1,
		BuyerName: "Sam", BuyerPhone: "555-1111",
	})
	if err != nil {
		t.Fatal(err)
	}
	return amqp.Delivery{Acknowledger: ack, MessageId: msg.MessageId, Body: msg.Body}
}

func TestHandle_AcksAfterRetry(t *testing.T) {
	ack := &ackRecorder{}
	s := &flakySender{failures: 2}
	newWorker(s).handle(context.Background(), delivery(t, ack))
	if s.calls != 3 || ack.acked != 1 || ack.nacked != 0 {
		t.Errorf("calls=%d acked=%d nacked=%d", s.calls, ack.acked, ack.nacked)
	}
}

func TestHandle_NacksWhenRetriesExhausted(t *testing.T) {
	ack := &ackRecorder{}
	s := &flakySender{failures: 10}
	newWorker(s).handle(context.Background(), delivery(t, ack))
	if s.calls != maxRetries || ack.acked != 0 || ack.nacked != 1 || ack.requeue {
		t.Errorf("calls=%d acked=%d nacked=%d requeue=%v", s.calls, ack.acked, ack.nacked, ack.requeue)
	}
}

func TestHandle_DropsMalformed(t *testing.T) {
	ack := &ackRecorder{}
	s := &flakySender{}
	newWorker(s).handle(context.Background(), amqp.Delivery{Acknowledger: ack, Body: []byte("{")})
	if s.calls != 0 || ack.nacked != 1 || ack.requeue {
		t.Errorf("calls=%d nacked=%d requeue=%v", s.calls, ack.nacked, ack.requeue)
	}
}

func TestRun_StopsWhenChannelCloses(t *testing.T) {
	ack := &ackRecorder{}
	ch := make(chan amqp.Delivery, 1)
	ch <- delivery(t, ack)
	close(ch)

	done := make(chan struct{})
	go func() {
		newWorker(&flakySender{}).Run(context.Background(), ch)
		close(done)
	}()
	select {
	case <-done:
	case <-time.After(5 * time.Second):
		t.Fatal("worker did not stop")
	}
	if ack.acked != 1 {
		t.Errorf("acked = %d", ack.acked)
	}
}
