package app

import (
	"context"
	"log/slog"
	"time"

	"travelbuddy/internal/domain"
)

// ContactForm carries the raw contact form fields.
type ContactForm struct {
	FullName string
	Email    string
	Message  string
}

// ContactService stores contact-form submissions.
type ContactService struct {
	repo     domain.ContactRepository
	notifier domain.ContactNotifier
	log      *slog.Logger
	now      func() time.Time
}

// NewContactService creates a ContactService. notifier may be nil.
func NewContactService(repo domain.ContactRepository, notifier domain.ContactNotifier, log *slog.Logger) *ContactService {
	if log == nil {
		log = slog.Default()
	}
	return &ContactService{repo: repo, notifier: notifier, log: log, now: time.Now}
}

// Submit stores the message exactly as submitted; missing fields are kept
// empty. Notification failures are logged and do not fail the submission.
func (s *ContactService) Submit(ctx context.Context, f ContactForm) (int64, error) {
	m := domain.ContactMessage{
		FullName:  f.FullName,
		Email:     f.Email,
		Message:   f.Message,
		CreatedAt: s.now().UTC(),
	}
	id, err := s.repo.CreateContactMessage(ctx, m)
	if err != nil {
		return 0, err
	}
	m.ID = id

	if s.notifier != nil {
		if err := s.notifier.NotifyContact(ctx, m); err != nil {
			s.log.Warn("notify contact message", "id", id, "error", err)
		}
	}
	return id, nil
}
