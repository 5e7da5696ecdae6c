package usecase

import (
	"errors"
	"fmt"

	"guidehub/pkg/utils"
)

// Service errors. Handlers map them to HTTP status codes with errors.Is.
var (
	ErrInvalidInput = errors.New("invalid input")
	ErrNotFound     = errors.New("not found")
	ErrUnauthorized = errors.New("unauthorized")
	ErrForbidden    = errors.New("forbidden")
	ErrConflict     = errors.New("conflict")
	ErrGateway      = errors.New("payment gateway unavailable")
	ErrVerification = errors.New("webhook verification failed")
)

func validationError(errs map[string]string) error {
	return fmt.Errorf("%w: %s", ErrInvalidInput, utils.FormatValidationErrors(errs))
}
