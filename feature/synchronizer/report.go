package synchronizer

import (
	"time"

	"docsync/core/reconcile"
)

// RunReport describes one sync run.
type RunReport struct {
	RunID      string         `json:"run_id"`
	Mode       reconcile.Mode `json:"mode"`
	DryRun     bool           `json:"dry_run"`
	StartedAt  time.Time      `json:"started_at"`
	FinishedAt time.Time      `json:"finished_at"`

	// RemoteRoot is the resolved remote root id.
	RemoteRoot string `json:"remote_root,omitempty"`
	// RemoteItems is the size of the remote listing.
	RemoteItems int `json:"remote_items"`
	// Candidates is the number of items produced by the walk.
	Candidates int `json:"candidates"`
	// NewIdentifiers counts UUIDs minted during the walk.
	NewIdentifiers int `json:"new_identifiers"`

	Plan   *reconcile.PlanSummary `json:"plan,omitempty"`
	Result *reconcile.Report      `json:"result,omitempty"`

	// Error is the message of the failure that ended the run.
	Error string `json:"error,omitempty"`
	err   error
}

// OK reports whether the run reached its end.
func (r *RunReport) OK() bool {
	return r.err == nil
}

// Err returns the failure that ended the run.
func (r *RunReport) Err() error {
	return r.err
}

// Elapsed returns the run duration.
func (r *RunReport) Elapsed() time.Duration {
	return r.FinishedAt.Sub(r.StartedAt)
}

func (r *RunReport) fail(err error) {
	r.err = err
	r.Error = err.Error()
}
