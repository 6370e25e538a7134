package mongopersistence

import (
	"context"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo/options"

	"plantguard/internal/domain"
)

// PredictionRepository implements repository.PredictionRepository.
type PredictionRepository struct {
	store *Store
}

// NewPredictionRepository binds the repository to the predictions collection.
func NewPredictionRepository(store *Store) *PredictionRepository {
	return &PredictionRepository{store: store}
}

// Save inserts one document and copies the generated id back onto record.
func (r *PredictionRepository) Save(ctx context.Context, record *domain.PredictionRecord) error {
	if record.CreatedAt.IsZero() {
		record.CreatedAt = time.Now().UTC()
	}
	doc := newPredictionDocument(record)
	doc.ID = primitive.NewObjectID()

	if _, err := r.store.collection(PredictionsCollection).InsertOne(ctx, doc); err != nil {
		return fmt.Errorf("mongo: insert prediction (file: %s): %w", record.ImageFilename, err)
	}
	record.ID = doc.ID.Hex()
	return nil
}

// FindRecent returns up to limit documents sorted by created_at descending.
func (r *PredictionRepository) FindRecent(ctx context.Context, limit int) ([]domain.PredictionRecord, error) {
	out := make([]domain.PredictionRecord, 0)
	if limit <= 0 {
		return out, nil
	}
	opts := options.Find().
		SetSort(bson.D{{Key: "created_at", Value: -1}}).
		SetLimit(int64(limit))

	// Diagnostic documents without a disease are not predictions.
	filter := bson.M{"disease_name": bson.M{"$exists": true}}
	cursor, err := r.store.collection(PredictionsCollection).Find(ctx, filter, opts)
	if err != nil {
		return nil, fmt.Errorf("mongo: find recent predictions: %w", err)
	}
	defer cursor.Close(ctx)

	var docs []predictionDocument
	if err := cursor.All(ctx, &docs); err != nil {
		return nil, fmt.Errorf("mongo: decode recent predictions: %w", err)
	}
	for _, d := range docs {
		out = append(out, d.toDomain())
	}
	return out, nil
}
