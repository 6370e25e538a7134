package service

import "errors"

var (
	ErrMissingFile          = errors.New("no image file provided")
	ErrEmptyFilename        = errors.New("empty filename")
	ErrUnsupportedType      = errors.New("unsupported file type")
	ErrInvalidImage         = errors.New("uploaded file is not a valid image")
	ErrInvalidInput         = errors.New("invalid input")
	ErrDuplicateEmail       = errors.New("email already registered")
	ErrAuthenticationFailed = errors.New("invalid email or password")
	ErrInvalidToken         = errors.New("invalid or expired token")
	ErrClassNotFound        = errors.New("predicted class has no catalog entry")
	ErrInternalServer       = errors.New("internal server error")
)
