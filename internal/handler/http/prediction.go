package http

import (
	"errors"
	"io"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"plantguard/internal/service"
)

// PredictionHandler serves /api/predict and /api/history.
type PredictionHandler struct {
	predictionService *service.PredictionService
	maxUploadBytes    int64
}

// NewPredictionHandler caps uploads at maxUploadBytes (16 MiB when <= 0).
func NewPredictionHandler(predictionService *service.PredictionService, maxUploadBytes int64) *PredictionHandler {
	if predictionService == nil {
		panic("PredictionService cannot be nil for PredictionHandler")
	}
	if maxUploadBytes <= 0 {
		maxUploadBytes = 16 << 20
	}
	return &PredictionHandler{predictionService: predictionService, maxUploadBytes: maxUploadBytes}
}

// Predict handles a multipart upload in field "image".
func (h *PredictionHandler) Predict(c *gin.Context) {
	// 1. Read the upload with a hard size cap
	c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, h.maxUploadBytes)
	fileHeader, err := c.FormFile("image")
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			ErrorResponse(c, http.StatusRequestEntityTooLarge, "Uploaded file is too large.")
			return
		}
		HandleServiceError(c, service.ErrMissingFile)
		return
	}

	// 2. Reject bad names before reading the body into memory
	if fileHeader.Filename == "" {
		HandleServiceError(c, service.ErrEmptyFilename)
		return
	}
	if !service.AllowedFile(fileHeader.Filename) {
		HandleServiceError(c, service.ErrUnsupportedType)
		return
	}

	f, err := fileHeader.Open()
	if err != nil {
		logrus.WithError(err).Error("Handler.Predict: cannot open uploaded file")
		HandleServiceError(c, err)
		return
	}
	defer f.Close()
	data, err := io.ReadAll(f)
	if err != nil {
		logrus.WithError(err).Error("Handler.Predict: cannot read uploaded file")
		HandleServiceError(c, err)
		return
	}

	// 3. Classify
	result, err := h.predictionService.HandlePrediction(c.Request.Context(), &service.Upload{
		Filename: fileHeader.Filename,
		Data:     data,
	})
	if err != nil {
		HandleServiceError(c, err)
		return
	}
	SuccessResponse(c, http.StatusOK, gin.H{"prediction": result})
}

// History returns recent predictions; ?limit=N defaults to 20.
func (h *PredictionHandler) History(c *gin.Context) {
	limit := service.DefaultHistoryLimit
	if raw := c.Query("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil {
			ErrorResponse(c, http.StatusBadRequest, "limit must be an integer")
			return
		}
		limit = n
	}

	records, err := h.predictionService.ListRecent(c.Request.Context(), limit)
	if err != nil {
		HandleServiceError(c, err)
		return
	}
	SuccessResponse(c, http.StatusOK, gin.H{"predictions": records})
}
