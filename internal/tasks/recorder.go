package tasks

import (
	"sync"

	"github.com/hibiken/asynq"
	"github.com/sirupsen/logrus"

	"plantguard/internal/domain"
	"plantguard/internal/metrics"
)

// Enqueuer is the part of *asynq.Client the recorder needs.
type Enqueuer interface {
	Enqueue(task *asynq.Task, opts ...asynq.Option) (*asynq.TaskInfo, error)
}

// QueueRecorder hands prediction records to the asynq worker instead of
// writing them in-process. Enqueue runs off the request goroutine.
type QueueRecorder struct {
	client  Enqueuer
	queue   string
	metrics *metrics.Metrics
	wg      sync.WaitGroup
}

// NewQueueRecorder enqueues onto queue (QueueDefault when empty). m may be nil.
func NewQueueRecorder(client Enqueuer, queue string, m *metrics.Metrics) *QueueRecorder {
	if client == nil {
		panic("asynq client cannot be nil for QueueRecorder")
	}
	if queue == "" {
		queue = QueueDefault
	}
	return &QueueRecorder{client: client, queue: queue, metrics: m}
}

// Queue is the asynq queue records are enqueued on.
func (r *QueueRecorder) Queue() string { return r.queue }

// Record returns immediately; enqueue failures are logged and dropped.
func (r *QueueRecorder) Record(record domain.PredictionRecord) {
	r.wg.Add(1)
	go func() {
		defer r.wg.Done()
		logCtx := logrus.WithFields(logrus.Fields{
			"filename":     record.ImageFilename,
			"disease_name": record.DiseaseName,
		})

		task, err := NewPredictionPersistTask(record)
		if err != nil {
			r.metrics.RecordFailure("queue")
			logCtx.WithError(err).Warn("Could not build prediction persist task")
			return
		}
		info, err := r.client.Enqueue(task, asynq.Queue(r.queue))
		if err != nil {
			r.metrics.RecordFailure("queue")
			logCtx.WithError(err).Warn("Could not enqueue prediction record")
			return
		}
		logCtx.WithField("task_id", info.ID).Debug("Prediction record enqueued")
	}()
}

// Close waits for pending enqueues.
func (r *QueueRecorder) Close() {
	r.wg.Wait()
}
