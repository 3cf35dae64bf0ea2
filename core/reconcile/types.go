package reconcile

import (
	"errors"
	"fmt"

	"docsync/core/remote"
)

// MaxDocumentSize is the largest source file, in bytes, uploaded as a new document.
const MaxDocumentSize int64 = 50 * 1024 * 1024

// DefaultBatchSize is the number of items per upload batch.
const DefaultBatchSize = 5

// AcceptedExtensions are the file name suffixes uploaded as new documents.
var AcceptedExtensions = []string{".pdf", ".epub"}

// ErrUnsupportedMode is returned for an unknown sync mode.
var ErrUnsupportedMode = errors.New("unsupported sync mode")

// Mode is a synchronization policy.
type Mode string

const (
	// ModeUpdate only creates and updates remote items.
	ModeUpdate Mode = "update"
	// ModeMirror also deletes remote items absent from the source.
	ModeMirror Mode = "mirror"
)

// ParseMode validates a mode name.
func ParseMode(s string) (Mode, error) {
	switch Mode(s) {
	case ModeUpdate, ModeMirror:
		return Mode(s), nil
	default:
		return "", fmt.Errorf("%w %q, try one of: %s, %s", ErrUnsupportedMode, s, ModeMirror, ModeUpdate)
	}
}

// ForceFunc reports whether candidate must be pushed even when its metadata
// matches server. server is nil when the item is not on the remote.
type ForceFunc func(candidate remote.Item, server *remote.Item) bool

// NeverForce is the default ForceFunc.
func NeverForce(remote.Item, *remote.Item) bool { return false }

// ForceIDs forces the given ids.
func ForceIDs(ids ...string) ForceFunc {
	set := make(map[string]struct{}, len(ids))
	for _, id := range ids {
		set[id] = struct{}{}
	}
	return func(candidate remote.Item, _ *remote.Item) bool {
		_, ok := set[candidate.ID]
		return ok
	}
}

// Spec defines the configuration for a reconciliation operation.
type Spec struct {
	// Mode selects update or mirror behavior.
	Mode Mode

	// Root is the id of the remote collection the source tree maps onto.
	Root string

	// Force overrides the metadata comparison. Nil never forces.
	Force ForceFunc

	// BatchSize is the number of items per upload batch. Zero uses DefaultBatchSize.
	BatchSize int
}

func (s *Spec) force() ForceFunc {
	if s.Force == nil {
		return NeverForce
	}
	return s.Force
}

func (s *Spec) batchSize() int {
	if s.BatchSize <= 0 {
		return DefaultBatchSize
	}
	return s.BatchSize
}

// ActionType represents the type of mutation action.
type ActionType string

const (
	// ActionDelete removes a remote item.
	ActionDelete ActionType = "delete"
	// ActionUpload creates or updates a remote item.
	ActionUpload ActionType = "upload"
)

// Action represents a planned mutation operation.
type Action struct {
	// Type specifies the action to perform.
	Type ActionType `json:"type"`

	// Item is the record to send, version already bumped for uploads.
	Item remote.Item `json:"item"`

	// Reason explains why this action is needed.
	Reason string `json:"reason"`
}

// Plan contains the ordered actions of one reconciliation.
type Plan struct {
	// Mode is the policy the plan was built with.
	Mode Mode `json:"mode"`

	// Root is the remote root id.
	Root string `json:"root"`

	// Actions lists deletions first, then uploads in candidate order.
	Actions []Action `json:"actions"`

	// Summary provides aggregate counts.
	Summary PlanSummary `json:"summary"`

	listing *Listing
}

// PlanSummary provides aggregate statistics for a plan.
type PlanSummary struct {
	// Candidates is the number of items produced by the source walk.
	Candidates int `json:"candidates"`

	// RemoteItems is the number of items in the remote listing.
	RemoteItems int `json:"remote_items"`

	// Uploads counts planned uploads.
	Uploads int `json:"uploads"`

	// Deletions counts planned deletions.
	Deletions int `json:"deletions"`

	// Unchanged counts candidates already current on the remote.
	Unchanged int `json:"unchanged"`

	// Excluded counts new documents filtered out by type or size.
	Excluded int `json:"excluded"`
}

// Deletions returns the items to delete.
func (p *Plan) Deletions() []remote.Item {
	return p.itemsOf(ActionDelete)
}

// Uploads returns the items to upload.
func (p *Plan) Uploads() []remote.Item {
	return p.itemsOf(ActionUpload)
}

// Empty reports whether the plan has nothing to do.
func (p *Plan) Empty() bool {
	return len(p.Actions) == 0
}

func (p *Plan) itemsOf(t ActionType) []remote.Item {
	var items []remote.Item
	for _, a := range p.Actions {
		if a.Type == t {
			items = append(items, a.Item)
		}
	}
	return items
}

// ReconcileOptions controls how a plan is applied.
type ReconcileOptions struct {
	// DryRun prevents execution of any mutations if true.
	DryRun bool
}

// Phase names the step an Outcome belongs to.
type Phase string

const (
	PhaseDelete     Phase = "delete"
	PhaseRequest    Phase = "request"
	PhaseUpload     Phase = "upload"
	PhaseCommit     Phase = "commit"
	PhaseCompensate Phase = "compensate"
	PhasePlanned    Phase = "planned"
)

// Outcome is the result of one step for one item.
type Outcome struct {
	ID      string `json:"id"`
	Name    string `json:"name"`
	Phase   Phase  `json:"phase"`
	Success bool   `json:"success"`
	Message string `json:"message,omitempty"`
}

// Report summarizes an applied plan.
type Report struct {
	DryRun bool `json:"dry_run"`

	Deleted        int `json:"deleted"`
	DeleteFailures int `json:"delete_failures"`
	Rejected       int `json:"rejected"`
	Uploaded       int `json:"uploaded"`
	UploadFailures int `json:"upload_failures"`
	Committed      int `json:"committed"`
	CommitFailures int `json:"commit_failures"`
	Compensated    int `json:"compensated"`
	Batches        int `json:"batches"`
	BatchErrors    int `json:"batch_errors"`

	// Outcomes lists per-item results in the order they happened.
	Outcomes []Outcome `json:"outcomes"`
}

// Failed returns the outcomes that did not succeed.
func (r *Report) Failed() []Outcome {
	var failed []Outcome
	for _, o := range r.Outcomes {
		if !o.Success {
			failed = append(failed, o)
		}
	}
	return failed
}
