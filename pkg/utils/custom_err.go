package utils

import (
	"errors"
	"fmt"
)

var (
	ErrNotFound      = errors.New("resource not found")
	ErrForbidden     = errors.New("forbidden")
	ErrExpired       = errors.New("purchase intent expired")
	ErrConflict      = errors.New("operation conflicts with current state")
	ErrAuthRequired  = errors.New("authentication required")
	ErrGateway       = errors.New("payment gateway error")
	ErrDatabaseError = errors.New("database error")
)

// InsufficientStockError carries the stock count observed at check time so the
// caller can render it alongside the rejection.
type InsufficientStockError struct {
	Available int
}

func (e *InsufficientStockError) Error() string {
	return fmt.Sprintf("insufficient stock: %d available", e.Available)
}

func NewInsufficientStock(available int) error {
	return &InsufficientStockError{Available: available}
}
