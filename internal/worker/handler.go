package worker

import (
	"context"
	"fmt"

	"github.com/hibiken/asynq"
	"github.com/sirupsen/logrus"

	"plantguard/internal/domain"
	"plantguard/internal/metrics"
	"plantguard/internal/repository"
	"plantguard/internal/tasks"
)

// Publisher receives records after they are persisted.
type Publisher interface {
	Publish(record domain.PredictionRecord)
}

// PredictionPersistHandler writes queued prediction records.
type PredictionPersistHandler struct {
	predRepo  repository.PredictionRepository
	publisher Publisher
	metrics   *metrics.Metrics
}

// NewPredictionPersistHandler creates the handler. publisher and m may be nil.
func NewPredictionPersistHandler(predRepo repository.PredictionRepository, publisher Publisher, m *metrics.Metrics) *PredictionPersistHandler {
	if predRepo == nil {
		panic("PredictionRepository cannot be nil for PredictionPersistHandler")
	}
	return &PredictionPersistHandler{predRepo: predRepo, publisher: publisher, metrics: m}
}

// ProcessTask implements asynq.Handler.
func (h *PredictionPersistHandler) ProcessTask(ctx context.Context, t *asynq.Task) error {
	taskID := ""
	if rw := t.ResultWriter(); rw != nil {
		taskID = rw.TaskID()
	}
	logCtx := logrus.WithFields(logrus.Fields{
		"task_id":   taskID,
		"task_type": t.Type(),
	})

	payload, err := tasks.ParsePredictionPersistPayload(t.Payload())
	if err != nil {
		logCtx.WithError(err).Error("Failed to unmarshal task payload")
		return fmt.Errorf("%v: %w", err, asynq.SkipRetry)
	}

	record := payload.Record
	if err := h.predRepo.Save(ctx, &record); err != nil {
		h.metrics.RecordFailure("queue")
		logCtx.WithError(err).WithField("filename", record.ImageFilename).Warn("Could not save prediction record")
		return fmt.Errorf("save prediction record: %v: %w", err, asynq.SkipRetry)
	}

	if h.publisher != nil {
		h.publisher.Publish(record)
	}
	logCtx.WithField("prediction_id", record.ID).Debug("Prediction record persisted")
	return nil
}
