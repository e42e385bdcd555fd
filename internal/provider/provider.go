// Package provider wraps the external audio-recognition service. The
// provider is opaque: one sample in, zero-or-one identification out.
package provider

import (
	"context"
	"errors"
	"fmt"
)

var (
	// ErrNotRecognized means the provider answered but found no candidate.
	// This is a normal outcome, not a failure.
	ErrNotRecognized = errors.New("provider: sample not recognized")

	// ErrInvalidInput means the sample was rejected before any network call.
	ErrInvalidInput = errors.New("provider: invalid audio sample")
)

// Sample is an opaque audio payload plus its declared format tag
// (file extension without the dot, e.g. "wav" or "mp3").
type Sample struct {
	Data   []byte
	Format string
}

// RawIdentification is the provider's answer for a sample.
type RawIdentification struct {
	Title           string
	Artist          string
	Album           string
	Confidence      *float64 // provider confidence in [0,1], when reported
	ProviderTrackID string
}

// Client submits an audio sample for identification. Identify performs one
// outbound call per invocation and keeps no state between calls. It returns
// ErrNotRecognized when the provider found nothing, ErrInvalidInput for bad
// samples, or an *Error for call failures.
type Client interface {
	Identify(ctx context.Context, sample Sample) (*RawIdentification, error)
}

// Error is a provider call failure. Retryable failures (network timeouts,
// rate limiting) may be attempted again; authentication failures and
// malformed responses may not.
type Error struct {
	Op        string
	Retryable bool
	Err       error
}

func (e *Error) Error() string {
	return fmt.Sprintf("provider: %s: %v", e.Op, e.Err)
}

func (e *Error) Unwrap() error {
	return e.Err
}

// IsRetryable reports whether err is a provider failure worth retrying.
func IsRetryable(err error) bool {
	var pe *Error
	return errors.As(err, &pe) && pe.Retryable
}
