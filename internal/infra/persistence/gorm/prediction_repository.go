package gormpersistence

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"plantguard/internal/domain"
)

// GormPredictionRepository implements repository.PredictionRepository on GORM.
type GormPredictionRepository struct {
	db *gorm.DB
}

// NewGormPredictionRepository wires the repository to an open connection.
func NewGormPredictionRepository(db *gorm.DB) *GormPredictionRepository {
	if db == nil {
		panic("database connection cannot be nil for GormPredictionRepository")
	}
	return &GormPredictionRepository{db: db}
}

// Save appends a prediction record. Records are never updated, so Create is used.
func (r *GormPredictionRepository) Save(ctx context.Context, record *domain.PredictionRecord) error {
	if record.ID == "" {
		record.ID = uuid.NewString()
	}
	if record.CreatedAt.IsZero() {
		record.CreatedAt = time.Now().UTC()
	}
	if err := r.db.WithContext(ctx).Create(record).Error; err != nil {
		return fmt.Errorf("gorm: save prediction (file: %s): %w", record.ImageFilename, err)
	}
	return nil
}

// FindRecent returns up to limit records ordered by created_at DESC.
func (r *GormPredictionRepository) FindRecent(ctx context.Context, limit int) ([]domain.PredictionRecord, error) {
	records := make([]domain.PredictionRecord, 0)
	if limit <= 0 {
		return records, nil
	}
	err := r.db.WithContext(ctx).
		Order("created_at DESC").
		Limit(limit).
		Find(&records).Error
	if err != nil {
		return nil, fmt.Errorf("gorm: find recent predictions (limit %d): %w", limit, err)
	}
	return records, nil
}
