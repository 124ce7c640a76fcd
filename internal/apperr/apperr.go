// Package apperr holds the error taxonomy shared by services, repositories and handlers.
package apperr

import (
	"errors"
	"fmt"
)

var (
	ErrBadRequest            = errors.New("bad request")
	ErrNotFound              = errors.New("not found")
	ErrInvalidOrExpiredToken = errors.New("invalid or expired token")
	ErrStorage               = errors.New("storage error")
	ErrDelivery              = errors.New("delivery error")
	ErrNoImages              = fmt.Errorf("%w: no images provided", ErrBadRequest)
	ErrInvalidFileKey        = errors.New("invalid file key")
)

// Storage оборачивает ошибку хранилища, сохраняя исходную причину для errors.Is/As.
func Storage(op string, err error) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("%w: %s: %w", ErrStorage, op, err)
}

func Delivery(op string, err error) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("%w: %s: %w", ErrDelivery, op, err)
}

func IsNotFound(err error) bool {
	return errors.Is(err, ErrNotFound)
}
