// Package sendgrid forwards contact messages by email through SendGrid.
package sendgrid

import (
	"context"
	"fmt"
	"html"
	"strings"

	"travelbuddy/internal/domain"

	sg "github.com/sendgrid/sendgrid-go"
	"github.com/sendgrid/sendgrid-go/helpers/mail"
)

// sendFunc delivers a message and reports the HTTP status and body.
type sendFunc func(ctx context.Context, m *mail.SGMailV3) (int, string, error)

// Notifier implements domain.ContactNotifier.
type Notifier struct {
	from *mail.Email
	to   *mail.Email
	send sendFunc
}

var _ domain.ContactNotifier = (*Notifier)(nil)

// NewNotifier creates a notifier sending from one address to another using
// apiKey.
func NewNotifier(apiKey, from, to string) *Notifier {
	client := sg.NewSendClient(apiKey)
	return &Notifier{
		from: mail.NewEmail("TravelBuddy", from),
		to:   mail.NewEmail("TravelBuddy support", to),
		send: func(ctx context.Context, m *mail.SGMailV3) (int, string, error) {
			resp, err := client.SendWithContext(ctx, m)
			if err != nil {
				return 0, "", err
			}
			return resp.StatusCode, resp.Body, nil
		},
	}
}

// NotifyContact emails the operators a copy of m. Replies go to the sender
// when an address was given.
func (n *Notifier) NotifyContact(ctx context.Context, m domain.ContactMessage) error {
	msg := buildMessage(n.from, n.to, m)
	status, body, err := n.send(ctx, msg)
	if err != nil {
		return fmt.Errorf("sendgrid: %w", err)
	}
	if status >= 300 {
		return fmt.Errorf("sendgrid: status %d: %s", status, body)
	}
	return nil
}

func buildMessage(from, to *mail.Email, m domain.ContactMessage) *mail.SGMailV3 {
	name := m.FullName
	if name == "" {
		name = "anonymous"
	}
	subject := fmt.Sprintf("Contact message #%d from %s", m.ID, name)

	var b strings.Builder
	fmt.Fprintf(&b, "Name: %s\nEmail: %s\nReceived: %s\n\n%s\n",
		m.FullName, m.Email, m.CreatedAt.UTC().Format("2006-01-02 15:04 MST"), m.Message)
	plain := b.String()
	htmlContent := "<pre>" + html.EscapeString(plain) + "</pre>"

	msg := mail.NewSingleEmail(from, subject, to, plain, htmlContent)
	if m.Email != "" {
		msg.SetReplyTo(mail.NewEmail(m.FullName, m.Email))
	}
	return msg
}
