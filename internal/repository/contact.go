package repository

import (
	"context"

	"plantguard/internal/domain"
)

// ContactRepository stores contact-us submissions.
type ContactRepository interface {
	Save(ctx context.Context, msg *domain.ContactMessage) error
}

// Pinger reports whether the backing store is reachable.
type Pinger interface {
	Ping(ctx context.Context) error
	// Name is the store label used in health output, e.g. "mongodb".
	Name() string
}
