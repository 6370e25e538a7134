package http

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"plantguard/internal/service"
)

const msgUnexpected = "An unexpected error occurred"

// HandleServiceError maps service errors to status codes and client messages.
func HandleServiceError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, service.ErrMissingFile):
		ErrorResponse(c, http.StatusBadRequest, "No image file provided. Send a file with key 'image'.")
	case errors.Is(err, service.ErrEmptyFilename):
		ErrorResponse(c, http.StatusBadRequest, "Empty filename.")
	case errors.Is(err, service.ErrUnsupportedType):
		ErrorResponse(c, http.StatusBadRequest, "Unsupported file type.")
	case errors.Is(err, service.ErrInvalidImage):
		ErrorResponse(c, http.StatusBadRequest, "Uploaded file is not a valid image.")
	case errors.Is(err, service.ErrInvalidInput):
		ErrorResponse(c, http.StatusBadRequest, err.Error())
	case errors.Is(err, service.ErrDuplicateEmail):
		ErrorResponse(c, http.StatusConflict, "Email already registered.")
	case errors.Is(err, service.ErrAuthenticationFailed):
		ErrorResponse(c, http.StatusUnauthorized, "Invalid email or password.")
	case errors.Is(err, service.ErrInvalidToken):
		ErrorResponse(c, http.StatusUnauthorized, "Invalid or expired token")
	default:
		// ErrClassNotFound lands here too; the service already logged the detail.
		logrus.WithError(err).WithField("path", c.FullPath()).Error("Unhandled internal server error")
		ErrorResponse(c, http.StatusInternalServerError, msgUnexpected)
	}
}
