package resolve

import (
	"errors"
	"fmt"
)

// Errors that cross the Resolver boundary.
var (
	ErrInvalidInput        = errors.New("please enter a valid URL starting with http:// or https://")
	ErrUnsupportedDomain   = errors.New("links from this site are not supported")
	ErrAllStrategiesFailed = errors.New("failed to fetch media: the service is busy or the content is private or region-locked")
)

// ErrNormalization marks a payload that looked successful but produced no
// sources. It never leaves the Resolver.
var ErrNormalization = errors.New("normalization produced no sources")

var (
	errNotJSON             = errors.New("response is not JSON")
	errUnrecognizedPayload = errors.New("unrecognized payload shape")
)

// FailedError is returned once every candidate endpoint has failed.
// Error() only ever yields the generic user-facing message; Last and
// Attempts are for developer logs.
type FailedError struct {
	Attempts int
	Last     error
}

func (e *FailedError) Error() string {
	return ErrAllStrategiesFailed.Error()
}

// Is makes errors.Is(err, ErrAllStrategiesFailed) hold.
func (e *FailedError) Is(target error) bool {
	return target == ErrAllStrategiesFailed
}

// UpstreamError is an explicit error payload returned by an extraction mirror.
type UpstreamError struct {
	Status string
	Text   string
}

func (e *UpstreamError) Error() string {
	if e.Text == "" {
		return fmt.Sprintf("upstream reported %q", e.Status)
	}
	return fmt.Sprintf("upstream reported %q: %s", e.Status, e.Text)
}

// attemptError records why a single candidate failed.
type attemptError struct {
	Strategy string
	Endpoint string
	Err      error
}

func (e *attemptError) Error() string {
	return fmt.Sprintf("strategy %s: %s: %v", e.Strategy, e.Endpoint, e.Err)
}

func (e *attemptError) Unwrap() error {
	return e.Err
}
