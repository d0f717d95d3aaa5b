package source

import (
	"errors"
	"fmt"
)

// ErrSourceFetch is matched by every FetchError.
var ErrSourceFetch = errors.New("source fetch failed")

// FetchError reports a source that could not be retrieved or decoded.
type FetchError struct {
	Location string
	Err      error
}

func (e *FetchError) Error() string {
	return fmt.Sprintf("fetch %s: %v", e.Location, e.Err)
}

func (e *FetchError) Unwrap() error { return e.Err }

// Is makes errors.Is(err, ErrSourceFetch) succeed.
func (e *FetchError) Is(target error) bool { return target == ErrSourceFetch }

// StatusError indicates a non-2xx HTTP response.
type StatusError struct {
	StatusCode int
	Status     string
	Body       string
}

func (e *StatusError) Error() string {
	if e.Body != "" {
		return fmt.Sprintf("unexpected status %s: %s", e.Status, e.Body)
	}
	return fmt.Sprintf("unexpected status %s", e.Status)
}

// UnreachableError indicates the host could not be contacted at all.
type UnreachableError struct {
	Host string
	Err  error
}

func (e *UnreachableError) Error() string {
	if e == nil {
		return "unreachable"
	}
	if e.Host != "" {
		return fmt.Sprintf("endpoint unreachable at %s: %v", e.Host, e.Err)
	}
	return fmt.Sprintf("endpoint unreachable: %v", e.Err)
}

func (e *UnreachableError) Unwrap() error { return e.Err }

// MalformedError indicates the payload could not be decoded as the expected format.
type MalformedError struct {
	Format string
	Err    error
}

func (e *MalformedError) Error() string {
	return fmt.Sprintf("malformed %s: %v", e.Format, e.Err)
}

func (e *MalformedError) Unwrap() error { return e.Err }
