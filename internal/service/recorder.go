package service

import (
	"context"
	"sync"
	"time"

	"github.com/sirupsen/logrus"

	"plantguard/internal/domain"
	"plantguard/internal/metrics"
	"plantguard/internal/repository"
)

// DefaultRecordTimeout bounds a single background write.
const DefaultRecordTimeout = 5 * time.Second

// Publisher receives records after they are persisted.
type Publisher interface {
	Publish(record domain.PredictionRecord)
}

// AsyncRecorder writes each record from its own goroutine. Failures are
// logged and counted, never retried.
type AsyncRecorder struct {
	repo      repository.PredictionRepository
	publisher Publisher
	metrics   *metrics.Metrics
	timeout   time.Duration
	wg        sync.WaitGroup
}

// NewAsyncRecorder builds a recorder. publisher and m may be nil.
func NewAsyncRecorder(repo repository.PredictionRepository, publisher Publisher, m *metrics.Metrics, timeout time.Duration) *AsyncRecorder {
	if repo == nil {
		panic("PredictionRepository cannot be nil for AsyncRecorder")
	}
	if timeout <= 0 {
		timeout = DefaultRecordTimeout
	}
	return &AsyncRecorder{repo: repo, publisher: publisher, metrics: m, timeout: timeout}
}

// Record returns immediately.
func (r *AsyncRecorder) Record(record domain.PredictionRecord) {
	r.wg.Add(1)
	go func() {
		defer r.wg.Done()
		ctx, cancel := context.WithTimeout(context.Background(), r.timeout)
		defer cancel()

		if err := r.repo.Save(ctx, &record); err != nil {
			r.metrics.RecordFailure("async")
			logrus.WithError(err).WithFields(logrus.Fields{
				"filename":     record.ImageFilename,
				"disease_name": record.DiseaseName,
			}).Warn("Could not save prediction record")
			return
		}
		if r.publisher != nil {
			r.publisher.Publish(record)
		}
	}()
}

// Close waits for in-flight writes.
func (r *AsyncRecorder) Close() {
	r.wg.Wait()
}
