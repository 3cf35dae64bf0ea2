package remote

import (
	"errors"
	"fmt"
)

var (
	// ErrUnsupportedScope is returned when no wire variant matches the granted scopes.
	ErrUnsupportedScope = errors.New("unsupported remote api scope")
	// ErrGenerationConflict is returned when the root index changed during a write.
	ErrGenerationConflict = errors.New("remote root generation conflict")
)

// TransportError is a failed HTTP round trip: a network error or a non-2xx status.
type TransportError struct {
	Op     string
	Method string
	URL    string
	Status int
	Body   string
	Err    error
}

func (e *TransportError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("remote %s: %s %s: %v", e.Op, e.Method, e.URL, e.Err)
	}
	if e.Body != "" {
		return fmt.Sprintf("remote %s: %s %s: status %d: %s", e.Op, e.Method, e.URL, e.Status, e.Body)
	}
	return fmt.Sprintf("remote %s: %s %s: status %d", e.Op, e.Method, e.URL, e.Status)
}

func (e *TransportError) Unwrap() error { return e.Err }

// IsStatus reports whether err is a TransportError with the given status.
func IsStatus(err error, status int) bool {
	var te *TransportError
	return errors.As(err, &te) && te.Status == status
}
