package repository

import (
	"context"

	"plantguard/internal/domain"
)

// UserRepository stores user accounts. Email is unique at the store.
type UserRepository interface {
	// FindByEmail returns ErrUserNotFound when no account uses the email.
	FindByEmail(ctx context.Context, email string) (*domain.User, error)

	// Create inserts a new account and fills in ID and CreatedAt.
	// A taken email yields ErrDuplicateEntry.
	Create(ctx context.Context, user *domain.User) error
}
