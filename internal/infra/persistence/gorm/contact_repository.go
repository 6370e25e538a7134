package gormpersistence

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"plantguard/internal/domain"
)

// GormContactRepository implements repository.ContactRepository on GORM.
type GormContactRepository struct {
	db *gorm.DB
}

// NewGormContactRepository wires the repository to an open connection.
func NewGormContactRepository(db *gorm.DB) *GormContactRepository {
	if db == nil {
		panic("database connection cannot be nil for GormContactRepository")
	}
	return &GormContactRepository{db: db}
}

// Save inserts a contact message.
func (r *GormContactRepository) Save(ctx context.Context, msg *domain.ContactMessage) error {
	if msg.ID == "" {
		msg.ID = uuid.NewString()
	}
	if msg.CreatedAt.IsZero() {
		msg.CreatedAt = time.Now().UTC()
	}
	if err := r.db.WithContext(ctx).Create(msg).Error; err != nil {
		return fmt.Errorf("gorm: save contact message (email: %s): %w", msg.Email, err)
	}
	return nil
}
