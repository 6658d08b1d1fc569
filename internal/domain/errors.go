package domain

import (
	"errors"
	"fmt"
)

var (
	// Ledger errors
	ErrAccountNotFound = errors.New("credit account not found")
	ErrInvalidAmount   = errors.New("amount must be positive")

	// Fulfillment errors
	ErrStoryNotFound         = errors.New("story not found")
	ErrRequestNotFound       = errors.New("fulfillment request not found")
	ErrInvalidKind           = errors.New("unknown fulfillment kind")
	ErrStoryNotEligible      = errors.New("story is not eligible for fulfillment")
	ErrFulfillmentInProgress = errors.New("fulfillment already in progress for this story")
	ErrRequestNotDeletable   = errors.New("committed request cannot be deleted")
	ErrDuplicateRequest      = errors.New("duplicate fulfillment request")

	// Pricing errors
	ErrPriceNotFound = errors.New("no price configured for fulfillment kind")
	ErrPackNotFound  = errors.New("credit pack not found")

	// Auth errors
	ErrInvalidToken = errors.New("invalid token")
	ErrExpiredToken = errors.New("token has expired")

	// ErrDependencyFailure covers work-order creation and job dispatch failures.
	// Callers see a generic retryable message; detail stays in server logs.
	ErrDependencyFailure = errors.New("could not complete request, please try again")
)

// InsufficientCreditsError is returned when an atomic debit fails its balance
// condition. It carries the figures the caller needs to act on the rejection.
type InsufficientCreditsError struct {
	Required  int64
	Available int64
}

func (e *InsufficientCreditsError) Error() string {
	return fmt.Sprintf("insufficient credits: required %d, available %d", e.Required, e.Available)
}

// Shortfall is the number of credits the owner is missing.
func (e *InsufficientCreditsError) Shortfall() int64 {
	return e.Required - e.Available
}

// AsInsufficientCredits unwraps err as an InsufficientCreditsError if possible.
func AsInsufficientCredits(err error) (*InsufficientCreditsError, bool) {
	var ice *InsufficientCreditsError
	if errors.As(err, &ice) {
		return ice, true
	}
	return nil, false
}
