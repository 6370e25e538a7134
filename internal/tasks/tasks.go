package tasks

import (
	"encoding/json"
	"fmt"

	"github.com/hibiken/asynq"

	"plantguard/internal/domain"
)

// Task types
const (
	TypePredictionPersist = "prediction:persist"
)

// QueueDefault is the only queue prediction tasks are enqueued on and the
// worker consumes.
const QueueDefault = "default"

// PredictionPersistPayload carries one record to the worker.
type PredictionPersistPayload struct {
	Record domain.PredictionRecord `json:"record"`
}

// NewPredictionPersistTask builds a task that is never retried; a lost
// record is acceptable, a duplicated one is not.
func NewPredictionPersistTask(record domain.PredictionRecord) (*asynq.Task, error) {
	payloadBytes, err := json.Marshal(PredictionPersistPayload{Record: record})
	if err != nil {
		return nil, fmt.Errorf("marshal prediction payload: %w", err)
	}
	return asynq.NewTask(TypePredictionPersist, payloadBytes, asynq.MaxRetry(0)), nil
}

// ParsePredictionPersistPayload is the worker-side inverse of NewPredictionPersistTask.
func ParsePredictionPersistPayload(data []byte) (PredictionPersistPayload, error) {
	var payload PredictionPersistPayload
	if err := json.Unmarshal(data, &payload); err != nil {
		return payload, fmt.Errorf("unmarshal prediction payload: %w", err)
	}
	return payload, nil
}
