package entity

import (
	"errors"
	"fmt"
)

var (
	// ErrInvalidDomain marks input that does not normalize to a domain
	ErrInvalidDomain = errors.New("invalid domain")
	// ErrProbeFailed marks a single-domain probe or score failure
	ErrProbeFailed = errors.New("probe failed")
	// ErrProberUnavailable is returned when a round is started without its collaborator
	ErrProberUnavailable = errors.New("prober unavailable")
	// ErrComputation marks a per-domain prioritization failure
	ErrComputation = errors.New("priority computation failed")
	// ErrEmptyRegistry is returned by operations that need registered domains
	ErrEmptyRegistry = errors.New("registry is empty")
	// ErrUnknownExportFormat is returned for unsupported queue export formats
	ErrUnknownExportFormat = errors.New("unknown export format")
	// ErrUnknownPriority is returned when a priority level name cannot be parsed
	ErrUnknownPriority = errors.New("unknown priority level")
)

// InvalidDomainError describes why an input was rejected by the normalizer
type InvalidDomainError struct {
	Input  string
	Reason string
}

func (e *InvalidDomainError) Error() string {
	return fmt.Sprintf("invalid domain %q: %s", e.Input, e.Reason)
}

func (e *InvalidDomainError) Unwrap() error {
	return ErrInvalidDomain
}

// FailedItem identifies one input that could not be processed, so callers can retry it
type FailedItem struct {
	Domain string `json:"domain"`
	Reason string `json:"reason"`
}
