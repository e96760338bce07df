// Package notify tells sellers about offers on their listings.
package notify

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/robertarktes/campus-ticket-exchange/internal/domain"
	"github.com/wneessen/go-mail"
)

const fromName = "Campus Ticket Exchange"

type SMTPConfig struct {
	Host     string
	Port     int
	Username string
	Password string
	From     string
}

// MailSender delivers notices as plain-text email over SMTP.
type MailSender struct {
	from string
	send func(ctx context.Context, msg *mail.Msg) error
}

func NewMailSender(cfg SMTPConfig) (*MailSender, error) {
	opts := []mail.Option{
		mail.WithPort(cfg.Port),
		mail.WithTLSPolicy(mail.TLSOpportunistic),
		mail.WithTimeout(15 * time.Second),
	}
	if cfg.Username != "" {
		opts = append(opts,
			mail.WithSMTPAuth(mail.SMTPAuthPlain),
			mail.WithUsername(cfg.Username),
			mail.WithPassword(cfg.Password),
		)
	}
	client, err := mail.NewClient(cfg.Host, opts...)
	if err != nil {
		return nil, errors.Wrap(err, "smtp client")
	}
	return &MailSender{
		from: cfg.From,
		send: func(ctx context.Context, msg *mail.Msg) error {
			return client.DialAndSendWithContext(ctx, msg)
		},
	}, nil
}

func (s *MailSender) NotifyOffer(ctx context.Context, n domain.OfferNotice) error {
	msg, err := s.Message(n)
	if err != nil {
		return err
	}
	return s.send(ctx, msg)
}

// Message builds the email for n without sending it.
func (s *MailSender) Message(n domain.OfferNotice) (*mail.Msg, error) {
	msg := mail.NewMsg()
	if err := msg.FromFormat(fromName, s.from); err != nil {
		return nil, errors.Wrap(err, "from address")
	}
	if err := msg.To(n.Recipient); err != nil {
		return nil, errors.Wrapf(err, "recipient %q", n.Recipient)
	}
	subject, body := Render(n)
	msg.Subject(subject)
	msg.SetDate()
	msg.SetBodyString(mail.TypeTextPlain, body)
	return msg, nil
}

// Render returns the subject and plain-text body for a notice.
func Render(n domain.OfferNotice) (string, string) {
	var b strings.Builder
	b.WriteString("Hello,\n\n")
	fmt.Fprintf(&b, "You have a potential buyer for your %s ticket!\n\n", n.ListingTitle)
	b.WriteString("Buyer Contact:\n")
	fmt.Fprintf(&b, "Name: %s\n", n.BuyerName)
	fmt.Fprintf(&b, "Phone: %s\n\n", n.BuyerPhone)
	b.WriteString("Contact the buyer for more information to finalize the sale.\n\n")
	fmt.Fprintf(&b, "Best,\n%s\n", fromName)
	return "Interest in your ticket: " + n.ListingTitle, b.String()
}
