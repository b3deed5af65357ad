package services

import (
	"context"
	"errors"
)

var (
	ErrInvalidAmount        = errors.New("amount must be greater than zero")
	ErrLimitExceeded        = errors.New("balance would exceed the maximum point")
	ErrInsufficientBalance  = errors.New("insufficient point balance")
	ErrIdempotencyKeyReused = errors.New("idempotency key reused for a different request")
)

// Reason maps an error from PointService to a short machine readable code.
func Reason(err error) string {
	switch {
	case err == nil:
		return ""
	case errors.Is(err, ErrInvalidAmount):
		return "invalid_amount"
	case errors.Is(err, ErrLimitExceeded):
		return "limit_exceeded"
	case errors.Is(err, ErrInsufficientBalance):
		return "insufficient_balance"
	case errors.Is(err, ErrIdempotencyKeyReused):
		return "idempotency_key_reused"
	case errors.Is(err, context.DeadlineExceeded), errors.Is(err, context.Canceled):
		return "timeout"
	default:
		return "internal_error"
	}
}

// IsDomain reports whether err is a ledger rule violation rather than an
// infrastructure failure.
func IsDomain(err error) bool {
	return errors.Is(err, ErrInvalidAmount) ||
		errors.Is(err, ErrLimitExceeded) ||
		errors.Is(err, ErrInsufficientBalance) ||
		errors.Is(err, ErrIdempotencyKeyReused)
}
