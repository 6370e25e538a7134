package service

import (
	"context"
	"fmt"
	"strings"

	"github.com/sirupsen/logrus"

	"plantguard/internal/domain"
	"plantguard/internal/repository"
)

// ContactService stores contact-us form submissions.
type ContactService struct {
	repo repository.ContactRepository
}

func NewContactService(repo repository.ContactRepository) *ContactService {
	if repo == nil {
		panic("ContactRepository cannot be nil for ContactService")
	}
	return &ContactService{repo: repo}
}

// Submit stores one message and returns its id. Address syntax is checked
// by the handler binding.
func (s *ContactService) Submit(ctx context.Context, name, email, message string) (string, error) {
	name = strings.TrimSpace(name)
	email = strings.TrimSpace(email)
	message = strings.TrimSpace(message)
	if name == "" || email == "" || message == "" {
		return "", fmt.Errorf("%w: name, email, and message are required", ErrInvalidInput)
	}

	msg := &domain.ContactMessage{Name: name, Email: email, Message: message}
	if err := s.repo.Save(ctx, msg); err != nil {
		logrus.WithError(err).WithField("email", email).Error("Failed to save contact message")
		return "", ErrInternalServer
	}
	logrus.WithFields(logrus.Fields{"contact_id": msg.ID, "email": email}).Info("Contact message saved")
	return msg.ID, nil
}
