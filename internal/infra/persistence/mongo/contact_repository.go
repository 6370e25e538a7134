package mongopersistence

import (
	"context"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"

	"plantguard/internal/domain"
)

// ContactRepository implements repository.ContactRepository.
type ContactRepository struct {
	store *Store
}

// NewContactRepository binds the repository to the contacts collection.
func NewContactRepository(store *Store) *ContactRepository {
	return &ContactRepository{store: store}
}

// Save inserts one contact message.
func (r *ContactRepository) Save(ctx context.Context, msg *domain.ContactMessage) error {
	if msg.CreatedAt.IsZero() {
		msg.CreatedAt = time.Now().UTC()
	}
	doc := contactDocument{
		ID:        primitive.NewObjectID(),
		Name:      msg.Name,
		Email:     msg.Email,
		Message:   msg.Message,
		CreatedAt: msg.CreatedAt,
	}
	if _, err := r.store.collection(ContactsCollection).InsertOne(ctx, doc); err != nil {
		return fmt.Errorf("mongo: insert contact message (email: %s): %w", msg.Email, err)
	}
	msg.ID = doc.ID.Hex()
	return nil
}
