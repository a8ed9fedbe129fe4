package domain

import (
	"context"
	"time"
)

// ContactMessage is an inbound contact-form submission. Fields are stored
// as submitted, including empty values.
type ContactMessage struct {
	ID        int64
	FullName  string
	Email     string
	Message   string
	CreatedAt time.Time
}

// ContactRepository is the port for storing contact messages.
type ContactRepository interface {
	CreateContactMessage(ctx context.Context, m ContactMessage) (int64, error)
}

// ContactNotifier forwards a stored contact message to the site operators.
type ContactNotifier interface {
	NotifyContact(ctx context.Context, m ContactMessage) error
}
