package tasks

import (
	"errors"
	"sync"
	"testing"

	"github.com/hibiken/asynq"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"plantguard/internal/domain"
)

type fakeEnqueuer struct {
	mu    sync.Mutex
	tasks []*asynq.Task
	err   error
}

func (f *fakeEnqueuer) Enqueue(task *asynq.Task, _ ...asynq.Option) (*asynq.TaskInfo, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return nil, f.err
	}
	f.tasks = append(f.tasks, task)
	return &asynq.TaskInfo{ID: "task-1", Queue: QueueDefault}, nil
}

func TestPredictionPersistTaskRoundTrip(t *testing.T) {
	rec := domain.PredictionRecord{
		ImageFilename: "leaf.jpg",
		ClassIndex:    7,
		DiseaseName:   "Corn_(maize)___Common_rust_",
		Confidence:    91.3,
		Supplement:    domain.SupplementInfo{Name: "Katyayani", BuyLink: "https://shop.example/k"},
	}
	task, err := NewPredictionPersistTask(rec)
	require.NoError(t, err)
	assert.Equal(t, TypePredictionPersist, task.Type())

	payload, err := ParsePredictionPersistPayload(task.Payload())
	require.NoError(t, err)
	assert.Equal(t, rec.DiseaseName, payload.Record.DiseaseName)
	assert.Equal(t, rec.Supplement, payload.Record.Supplement)
	assert.Equal(t, 91.3, payload.Record.Confidence)
}

func TestParsePredictionPersistPayload_Invalid(t *testing.T) {
	_, err := ParsePredictionPersistPayload([]byte("{not json"))
	assert.Error(t, err)
}

func TestQueueRecorder(t *testing.T) {
	client := &fakeEnqueuer{}
	rec := NewQueueRecorder(client, "", nil)
	rec.Record(domain.PredictionRecord{DiseaseName: "a"})
	rec.Record(domain.PredictionRecord{DiseaseName: "b"})
	rec.Close()

	assert.Len(t, client.tasks, 2)
	for _, task := range client.tasks {
		assert.Equal(t, TypePredictionPersist, task.Type())
	}
}

func TestQueueRecorder_EnqueueFailureIsSwallowed(t *testing.T) {
	client := &fakeEnqueuer{err: errors.New("redis: connection refused")}
	rec := NewQueueRecorder(client, QueueDefault, nil)
	assert.NotPanics(t, func() {
		rec.Record(domain.PredictionRecord{DiseaseName: "a"})
		rec.Close()
	})
	assert.Empty(t, client.tasks)
}
