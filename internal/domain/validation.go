package domain

import (
	"errors"
	"fmt"
	"strings"
)

// Validation errors
var (
	ErrInvalidIDFormat  = errors.New("invalid ID format")
	ErrAmountTooLarge   = errors.New("amount exceeds maximum allowed")
	ErrMetadataTooLarge = errors.New("metadata size exceeds limit")
)

// Validation constants
const (
	MaxIDLength     = 64
	MaxGrantAmount  = 1_000_000 // credits per single grant
	MaxMetadataSize = 10240     // 10KB
	MaxPageSize     = 1000
	DefaultPageSize = 50
)

// ValidateID validates an owner/story/request identifier.
func ValidateID(id string) error {
	id = strings.TrimSpace(id)

	if id == "" {
		return fmt.Errorf("%w: id cannot be empty", ErrInvalidIDFormat)
	}

	if len(id) > MaxIDLength {
		return fmt.Errorf("%w: id exceeds %d characters", ErrInvalidIDFormat, MaxIDLength)
	}

	for _, r := range id {
		isAlnum := (r >= '0' && r <= '9') || (r >= 'a' && r <= 'z') || (r >= 'A' && r <= 'Z')
		if !isAlnum && r != '-' && r != '_' {
			return fmt.Errorf("%w: id contains forbidden characters", ErrInvalidIDFormat)
		}
	}

	return nil
}

// ValidateGrantAmount validates a credit grant amount.
func ValidateGrantAmount(amount int64) error {
	if amount <= 0 {
		return ErrInvalidAmount
	}

	if amount > MaxGrantAmount {
		return fmt.Errorf("%w: maximum grant is %d credits", ErrAmountTooLarge, int64(MaxGrantAmount))
	}

	return nil
}

// ValidateMetadata validates metadata size
func ValidateMetadata(metadata map[string]any) error {
	if metadata == nil {
		return nil
	}

	// Estimate size (rough approximation)
	size := 0
	for k, v := range metadata {
		size += len(k)
		size += len(fmt.Sprintf("%v", v))
	}

	if size > MaxMetadataSize {
		return fmt.Errorf("%w: metadata size %d bytes exceeds limit of %d bytes", ErrMetadataTooLarge, size, MaxMetadataSize)
	}

	return nil
}

// ValidatePagination validates and limits pagination parameters
func ValidatePagination(limit, offset int) (int, int) {
	if limit <= 0 {
		limit = DefaultPageSize
	}

	if limit > MaxPageSize {
		limit = MaxPageSize
	}

	if offset < 0 {
		offset = 0
	}

	return limit, offset
}
