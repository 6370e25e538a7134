package service_test

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"

	"plantguard/internal/domain"
	"plantguard/internal/repository/mocks"
	"plantguard/internal/service"
)

type capturePublisher struct {
	mu        sync.Mutex
	published []domain.PredictionRecord
}

func (p *capturePublisher) Publish(r domain.PredictionRecord) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.published = append(p.published, r)
}

func TestAsyncRecorder_SavesAndPublishes(t *testing.T) {
	repo := new(mocks.PredictionRepository)
	pub := &capturePublisher{}
	repo.On("Save", mock.Anything, mock.MatchedBy(func(r *domain.PredictionRecord) bool {
		return r.DiseaseName == "Tomato___Late_blight"
	})).Run(func(args mock.Arguments) {
		args.Get(1).(*domain.PredictionRecord).ID = "rec-1"
	}).Return(nil).Once()

	rec := service.NewAsyncRecorder(repo, pub, nil, time.Second)
	rec.Record(domain.PredictionRecord{DiseaseName: "Tomato___Late_blight"})
	rec.Close()

	repo.AssertExpectations(t)
	assert.Len(t, pub.published, 1)
	assert.Equal(t, "rec-1", pub.published[0].ID)
}

func TestAsyncRecorder_FailureIsNotPublished(t *testing.T) {
	repo := new(mocks.PredictionRepository)
	pub := &capturePublisher{}
	repo.On("Save", mock.Anything, mock.Anything).Return(errors.New("write failed")).Once()

	rec := service.NewAsyncRecorder(repo, pub, nil, time.Second)
	rec.Record(domain.PredictionRecord{DiseaseName: "x"})
	rec.Close()

	repo.AssertExpectations(t)
	assert.Empty(t, pub.published)
}

func TestAsyncRecorder_RecordDoesNotBlock(t *testing.T) {
	repo := new(mocks.PredictionRepository)
	release := make(chan struct{})
	repo.On("Save", mock.Anything, mock.Anything).Run(func(mock.Arguments) {
		<-release
	}).Return(nil).Once()

	rec := service.NewAsyncRecorder(repo, nil, nil, time.Second)
	start := time.Now()
	rec.Record(domain.PredictionRecord{})
	assert.Less(t, time.Since(start), 100*time.Millisecond)

	close(release)
	rec.Close()
	repo.AssertExpectations(t)
}

func TestAsyncRecorder_WriteHasDeadline(t *testing.T) {
	repo := new(mocks.PredictionRepository)
	repo.On("Save", mock.MatchedBy(func(ctx context.Context) bool {
		_, ok := ctx.Deadline()
		return ok
	}), mock.Anything).Return(nil).Once()

	rec := service.NewAsyncRecorder(repo, nil, nil, 50*time.Millisecond)
	rec.Record(domain.PredictionRecord{})
	rec.Close()
	repo.AssertExpectations(t)
}
