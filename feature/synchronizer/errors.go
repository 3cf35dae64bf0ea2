package synchronizer

import (
	"errors"
	"fmt"

	"docsync/core/reconcile"
)

var (
	// ErrUnsupportedMode is returned by New for an unknown sync mode.
	ErrUnsupportedMode = reconcile.ErrUnsupportedMode
	// ErrNoCredentials means neither a cached device token nor a one-time code is available.
	ErrNoCredentials = errors.New("no cached device token and no one-time code")
	// ErrRunInProgress is returned when a run is requested while one is running.
	ErrRunInProgress = errors.New("a sync run is already in progress")
	// ErrServiceClosed is returned when a run is requested after Shutdown.
	ErrServiceClosed = errors.New("sync service is shutting down")
)

// LookupError reports a root that could not be located.
type LookupError struct {
	// Kind is "source" or "remote".
	Kind    string
	Locator string
	Err     error
}

func (e *LookupError) Error() string {
	msg := fmt.Sprintf("cannot find %s root %q", e.Kind, e.Locator)
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

func (e *LookupError) Unwrap() error { return e.Err }
