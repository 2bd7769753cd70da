package gh

import (
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/google/go-github/v66/github"
)

// NotFoundError is returned when the requested repo, branch, or path does not
// exist on the provider.
type NotFoundError struct {
	Resource string
}

func (e NotFoundError) Error() string {
	return fmt.Sprintf("%s not found", e.Resource)
}

// UnauthorizedError is returned when credentials are missing, invalid, or
// lack access to the requested resource.
type UnauthorizedError struct {
	Reason string
}

func (e UnauthorizedError) Error() string {
	return fmt.Sprintf("unauthorized: %s", e.Reason)
}

// RateLimitedError is returned when the provider throttles the caller.
// Reset is zero when the provider did not report a reset time.
type RateLimitedError struct {
	Reset time.Time
}

func (e RateLimitedError) Error() string {
	if e.Reset.IsZero() {
		return "provider rate limit exceeded"
	}
	return fmt.Sprintf("provider rate limit exceeded, resets at %s", e.Reset.UTC().Format(time.RFC3339))
}

// NotAFileError is returned when a content path resolves to a directory.
type NotAFileError struct {
	Path string
}

func (e NotAFileError) Error() string {
	return fmt.Sprintf("%q is a directory, not a file", e.Path)
}

// IsConflict reports whether err carries a 409 response from the provider.
func IsConflict(err error) bool {
	var ghErr *github.ErrorResponse
	return errors.As(err, &ghErr) && ghErr.Response != nil && ghErr.Response.StatusCode == http.StatusConflict
}

// classify maps go-github errors onto the package error taxonomy. Errors that
// have no dedicated type (including 409s, which callers detect via IsConflict)
// are wrapped with the resource for context.
func classify(err error, resource string) error {
	if err == nil {
		return nil
	}
	var rateErr *github.RateLimitError
	if errors.As(err, &rateErr) {
		return RateLimitedError{Reset: rateErr.Rate.Reset.Time}
	}
	var abuseErr *github.AbuseRateLimitError
	if errors.As(err, &abuseErr) {
		return RateLimitedError{}
	}
	var ghErr *github.ErrorResponse
	if errors.As(err, &ghErr) && ghErr.Response != nil {
		switch ghErr.Response.StatusCode {
		case http.StatusNotFound:
			return NotFoundError{Resource: resource}
		case http.StatusUnauthorized:
			return UnauthorizedError{Reason: "missing or invalid credentials"}
		case http.StatusForbidden:
			// go-github surfaces rate-limited 403s as RateLimitError above,
			// so a plain 403 means the token lacks access.
			return UnauthorizedError{Reason: "token lacks access"}
		}
	}
	return fmt.Errorf("%s: %w", resource, err)
}
