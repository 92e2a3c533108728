package clip

import (
	"errors"
	"fmt"
)

// AuthError is a failed client-credentials exchange, whether the upstream
// rejected the credentials (Status, Body carry the raw response for logs) or
// the exchange never completed (Err carries the transport failure).
type AuthError struct {
	Status string
	Body   string
	Err    error
}

func (e *AuthError) Error() string {
	if e.Status == "" && e.Err != nil {
		return fmt.Sprintf("token exchange failed: %v", e.Err)
	}
	return fmt.Sprintf("token exchange failed: %s", e.Status)
}

func (e *AuthError) Unwrap() error { return e.Err }

// NotFoundError means the upstream has no record for the identifier.
type NotFoundError struct {
	Slug string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("clip %q not found", e.Slug)
}

// UpstreamError is a non-success status or malformed payload from a metadata
// call. Body is truncated diagnostic context.
type UpstreamError struct {
	Op     string
	Status string
	Body   string
	Err    error
}

func (e *UpstreamError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Op, e.Err)
	}
	return fmt.Sprintf("%s: unexpected status %s", e.Op, e.Status)
}

func (e *UpstreamError) Unwrap() error { return e.Err }

// LocationError means the resolved metadata is too incomplete to build a
// fetchable URL. A partial upstream response must never degrade to a guess.
type LocationError struct {
	Reason string
}

func (e *LocationError) Error() string {
	return fmt.Sprintf("cannot locate media: %s", e.Reason)
}

// FetchError is a failed media download.
type FetchError struct {
	Status string
	Body   string
	Err    error
}

func (e *FetchError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("fetch failed: %v", e.Err)
	}
	return fmt.Sprintf("fetch failed: unexpected status %s", e.Status)
}

func (e *FetchError) Unwrap() error { return e.Err }

// TranscodeError is a failed probe or encode. Output carries the captured
// process diagnostics for logs.
type TranscodeError struct {
	Op     string // "probe" | "encode" | "repackage"
	Output string
	Err    error
}

func (e *TranscodeError) Error() string {
	return fmt.Sprintf("%s failed: %v", e.Op, e.Err)
}

func (e *TranscodeError) Unwrap() error { return e.Err }

// DeliverError wraps a failure handing the artifact to the delivery
// collaborator.
type DeliverError struct {
	Err error
}

func (e *DeliverError) Error() string { return fmt.Sprintf("delivery failed: %v", e.Err) }

func (e *DeliverError) Unwrap() error { return e.Err }

// Stage names the pipeline stage an error belongs to. The name is safe to
// show in a user-visible notice; full detail stays in logs.
func Stage(err error) string {
	var (
		authErr      *AuthError
		notFoundErr  *NotFoundError
		upstreamErr  *UpstreamError
		locationErr  *LocationError
		fetchErr     *FetchError
		transcodeErr *TranscodeError
		deliverErr   *DeliverError
	)
	switch {
	case errors.As(err, &authErr):
		return "auth"
	case errors.As(err, &notFoundErr), errors.As(err, &upstreamErr):
		return "resolve"
	case errors.As(err, &locationErr):
		return "location"
	case errors.As(err, &fetchErr):
		return "fetch"
	case errors.As(err, &transcodeErr):
		return "transcode"
	case errors.As(err, &deliverErr):
		return "deliver"
	default:
		return "internal"
	}
}
