package notify

import (
	"context"
	"fmt"

	"gopkg.in/gomail.v2"
)

// SMTPConfig holds the SMTP settings for e-mail notifications
type SMTPConfig struct {
	Host     string
	Port     int
	Username string
	Password string
	From     string
}

// RecipientLookup resolves a user id to an e-mail address
type RecipientLookup func(ctx context.Context, userID string) (string, error)

// EmailSink mails the listing owner about their bookings
type EmailSink struct {
	dialer *gomail.Dialer
	from   string
	lookup RecipientLookup
}

// NewEmailSink creates an SMTP sink
func NewEmailSink(cfg SMTPConfig, lookup RecipientLookup) *EmailSink {
	return &EmailSink{
		dialer: gomail.NewDialer(cfg.Host, cfg.Port, cfg.Username, cfg.Password),
		from:   cfg.From,
		lookup: lookup,
	}
}

func (s *EmailSink) Name() string { return "email" }

func (s *EmailSink) Send(ctx context.Context, e Event) error {
	if e.Data.OwnerID == "" {
		return nil
	}
	to, err := s.lookup(ctx, e.Data.OwnerID)
	if err != nil {
		return fmt.Errorf("resolve owner %s: %w", e.Data.OwnerID, err)
	}
	if to == "" {
		return nil
	}

	subject, body := emailContent(e)
	m := gomail.NewMessage()
	m.SetHeader("From", s.from)
	m.SetHeader("To", to)
	m.SetHeader("Subject", subject)
	m.SetBody("text/html", body)

	// gomail has no context support; an abandoned send finishes in the background
	done := make(chan error, 1)
	go func() {
		done <- s.dialer.DialAndSend(m)
	}()
	select {
	case err := <-done:
		if err != nil {
			return fmt.Errorf("failed to send email: %v", err)
		}
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func emailContent(e Event) (string, string) {
	d := e.Data
	title := d.ListingTitle
	if title == "" {
		title = d.ListingID
	}

	var subject, headline string
	switch e.Type {
	case EventBookingCreated:
		subject = "New booking request for " + title
		headline = "You have a new booking request"
	case EventBookingPaid:
		subject = "Booking paid for " + title
		headline = "A booking has been paid"
	default:
		subject = "Booking update for " + title
		headline = "A booking changed status"
	}

	body := fmt.Sprintf(`
		<h2>%s</h2>
		<p><strong>Listing:</strong> %s</p>
		<p><strong>Booking:</strong> %s</p>
		<p><strong>Dates:</strong> %s to %s</p>
		<p><strong>Total:</strong> %d</p>
		<p><strong>Status:</strong> %s</p>
	`, headline, title, d.BookingID, d.StartDate, d.EndDate, d.TotalAmount, d.Status)
	return subject, body
}
