package engine

import (
	"errors"
	"fmt"
)

var (
	// ErrNotFound covers missing rows and callers that are not the
	// authorized recipient. The two are indistinguishable on purpose.
	ErrNotFound = errors.New("not found")

	// ErrConflict is a uniqueness race that survived the single retry.
	ErrConflict = errors.New("conflict")

	// ErrValidation rejects malformed input before any mutation.
	ErrValidation = errors.New("invalid input")
)

// ConfigError marks a badge whose definition cannot be ranked: no tiers,
// thresholds out of order, or the global/tag flags contradicting each other.
// The offending badge is skipped; it never aborts a recompute batch.
type ConfigError struct {
	BadgeID uint
	Reason  string
}

func (e *ConfigError) Error() string {
	return fmt.Sprintf("badge %d misconfigured: %s", e.BadgeID, e.Reason)
}
