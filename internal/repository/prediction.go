package repository

import (
	"context"

	"plantguard/internal/domain"
)

// PredictionRepository is the append-only prediction history.
type PredictionRepository interface {
	// Save inserts the record and fills in ID (and CreatedAt when zero).
	Save(ctx context.Context, record *domain.PredictionRecord) error

	// FindRecent returns at most limit records, newest first.
	FindRecent(ctx context.Context, limit int) ([]domain.PredictionRecord, error)
}
