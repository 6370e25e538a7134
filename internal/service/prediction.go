package service

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"github.com/sirupsen/logrus"

	"plantguard/internal/catalog"
	"plantguard/internal/classifier"
	"plantguard/internal/domain"
	"plantguard/internal/metrics"
	"plantguard/internal/repository"
)

// History limits.
const (
	DefaultHistoryLimit = 20
	MaxHistoryLimit     = 100
)

var allowedExtensions = map[string]struct{}{
	"png": {}, "jpg": {}, "jpeg": {}, "webp": {}, "bmp": {},
}

// Upload is one file received from a client.
type Upload struct {
	Filename string
	Data     []byte
}

// PredictionResult is the catalog entry of the predicted class plus its confidence.
type PredictionResult struct {
	domain.DiseaseInfo
	Confidence float64 `json:"confidence"`
}

// UploadStore keeps the raw uploaded bytes.
type UploadStore interface {
	Save(ctx context.Context, filename string, data []byte) (string, error)
}

// ImageClassifier maps image bytes to a class index and confidence.
type ImageClassifier interface {
	Predict(data []byte) (classifier.Prediction, error)
}

// Catalog resolves class indexes to disease and supplement data.
type Catalog interface {
	Lookup(classIndex int) (domain.DiseaseInfo, error)
	Entries() []domain.DiseaseInfo
}

// PredictionRecorder persists prediction records without blocking the caller.
type PredictionRecorder interface {
	Record(record domain.PredictionRecord)
}

// PredictionService runs the upload → classify → lookup → record path.
type PredictionService struct {
	uploads    UploadStore
	classifier ImageClassifier
	catalog    Catalog
	recorder   PredictionRecorder
	predRepo   repository.PredictionRepository
	metrics    *metrics.Metrics
}

// NewPredictionService wires the prediction path. m may be nil.
func NewPredictionService(
	uploads UploadStore,
	clf ImageClassifier,
	cat Catalog,
	recorder PredictionRecorder,
	predRepo repository.PredictionRepository,
	m *metrics.Metrics,
) *PredictionService {
	if uploads == nil || clf == nil || cat == nil || recorder == nil || predRepo == nil {
		panic("PredictionService requires uploads, classifier, catalog, recorder and prediction repository")
	}
	return &PredictionService{
		uploads:    uploads,
		classifier: clf,
		catalog:    cat,
		recorder:   recorder,
		predRepo:   predRepo,
		metrics:    m,
	}
}

// HandlePrediction validates the upload, stores it, classifies it and hands
// the resulting record to the recorder. Recording never fails the request.
func (s *PredictionService) HandlePrediction(ctx context.Context, upload *Upload) (*PredictionResult, error) {
	// 1. Validate before touching storage or the model
	if upload == nil {
		return nil, ErrMissingFile
	}
	if strings.TrimSpace(upload.Filename) == "" {
		return nil, ErrEmptyFilename
	}
	if !AllowedFile(upload.Filename) {
		return nil, ErrUnsupportedType
	}
	if len(upload.Data) == 0 {
		return nil, ErrMissingFile
	}
	logCtx := logrus.WithField("filename", upload.Filename)

	// 2. Keep the upload
	location, err := s.uploads.Save(ctx, upload.Filename, upload.Data)
	if err != nil {
		logCtx.WithError(err).Error("Failed to store uploaded image")
		return nil, ErrInternalServer
	}

	// 3. Classify
	start := time.Now()
	pred, err := s.classifier.Predict(upload.Data)
	inference := time.Since(start)
	if err != nil {
		if errors.Is(err, classifier.ErrDecode) {
			logCtx.WithError(err).Warn("Rejected upload that is not a decodable image")
			return nil, fmt.Errorf("%w: %v", ErrInvalidImage, err)
		}
		logCtx.WithError(err).Error("Inference failed")
		return nil, ErrInternalServer
	}

	// 4. Look up catalog data; a miss means catalog and model disagree
	info, err := s.catalog.Lookup(pred.ClassIndex)
	if err != nil {
		if errors.Is(err, catalog.ErrNotFound) {
			logCtx.WithError(err).WithField("class_index", pred.ClassIndex).
				Error("Invariant violation: model produced a class index outside the catalog")
			return nil, ErrClassNotFound
		}
		logCtx.WithError(err).Error("Catalog lookup failed")
		return nil, ErrInternalServer
	}

	s.metrics.ObservePrediction(info.DiseaseName, inference)
	logCtx.WithFields(logrus.Fields{
		"location":     location,
		"class_index":  pred.ClassIndex,
		"disease_name": info.DiseaseName,
		"confidence":   pred.Confidence,
		"inference_ms": inference.Milliseconds(),
	}).Info("Prediction served")

	// 5. Fire and forget
	s.recorder.Record(domain.PredictionRecord{
		ImageFilename: filepath.Base(upload.Filename),
		ClassIndex:    pred.ClassIndex,
		DiseaseName:   info.DiseaseName,
		Confidence:    pred.Confidence,
		Description:   info.Description,
		PossibleSteps: info.PossibleSteps,
		Supplement:    info.Supplement,
		CreatedAt:     time.Now().UTC(),
	})

	return &PredictionResult{DiseaseInfo: info, Confidence: pred.Confidence}, nil
}

// ListRecent returns stored predictions, newest first.
// limit <= 0 selects DefaultHistoryLimit; larger values are capped at MaxHistoryLimit.
func (s *PredictionService) ListRecent(ctx context.Context, limit int) ([]domain.PredictionRecord, error) {
	if limit <= 0 {
		limit = DefaultHistoryLimit
	}
	if limit > MaxHistoryLimit {
		limit = MaxHistoryLimit
	}
	records, err := s.predRepo.FindRecent(ctx, limit)
	if err != nil {
		logrus.WithError(err).WithField("limit", limit).Error("Failed to load prediction history")
		return nil, ErrInternalServer
	}
	if len(records) > limit {
		records = records[:limit]
	}
	return records, nil
}

// AllowedFile reports whether filename carries one of the accepted image extensions.
func AllowedFile(filename string) bool {
	dot := strings.LastIndex(filename, ".")
	if dot < 0 {
		return false
	}
	_, ok := allowedExtensions[strings.ToLower(filename[dot+1:])]
	return ok
}
