package services

import (
	"errors"
	"fmt"
	"net/http"

	"acty-backend-go/internal/models"
	"acty-backend-go/internal/store"
)

type ServiceError struct {
	Status  int
	Message string
}

func (e ServiceError) Error() string {
	return e.Message
}

func ErrNotFound(msg string) error {
	return ServiceError{Status: http.StatusNotFound, Message: msg}
}

func ErrBadRequest(msg string) error {
	return ServiceError{Status: http.StatusBadRequest, Message: msg}
}

func ErrConflict(msg string) error {
	return ServiceError{Status: http.StatusConflict, Message: msg}
}

func ErrGone(msg string) error {
	return ServiceError{Status: http.StatusGone, Message: msg}
}

func ErrForbidden(msg string) error {
	return ServiceError{Status: http.StatusForbidden, Message: msg}
}

func ErrUnauthorized(msg string) error {
	return ServiceError{Status: http.StatusUnauthorized, Message: msg}
}

func ErrTooManyRequests(msg string) error {
	return ServiceError{Status: http.StatusTooManyRequests, Message: msg}
}

func WrapError(err error, msg string) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("%s: %w", msg, err)
}

// translate turns domain and store sentinels into ServiceErrors. notFound is
// the message used when the store reports a missing row.
func translate(err error, notFound string) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, store.ErrNotFound):
		return ErrNotFound(notFound)
	case errors.Is(err, store.ErrDuplicate):
		return ErrConflict("Record already exists")
	case errors.Is(err, models.ErrQRExpired):
		return ErrGone("QR code has expired")
	case errors.Is(err, models.ErrQRUsed):
		return ErrConflict("QR code has already been used")
	case errors.Is(err, models.ErrQRExhausted):
		return ErrConflict("QR code has reached its usage limit")
	case errors.Is(err, models.ErrActivityClosed):
		return ErrConflict("Activity is not accepting scans")
	case errors.Is(err, models.ErrAlreadyRecorded):
		return ErrConflict("Student is already recorded for this activity")
	}
	return err
}

// Outcome is the short label used for metrics and the live feed.
func Outcome(err error) string {
	switch {
	case err == nil:
		return "ok"
	case errors.Is(err, store.ErrNotFound):
		return "not_found"
	case errors.Is(err, models.ErrQRExpired):
		return "expired"
	case errors.Is(err, models.ErrQRUsed), errors.Is(err, models.ErrQRExhausted):
		return "exhausted"
	case errors.Is(err, models.ErrActivityClosed):
		return "closed"
	case errors.Is(err, models.ErrAlreadyRecorded):
		return "duplicate"
	}
	return "error"
}
