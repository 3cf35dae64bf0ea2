package reconcile

import (
	"docsync/core/remote"
	"docsync/core/utils"
)

// DeletionSet returns the remote descendants of root that no candidate
// claims, in listing order.
func DeletionSet(listing *Listing, root string, candidates []remote.Item) []remote.Item {
	ids := make([]string, 0, len(candidates))
	for _, c := range candidates {
		ids = append(ids, c.ID)
	}
	stale := utils.Difference(listing.Descendants(root), utils.SetOf(ids))

	var out []remote.Item
	for _, item := range listing.items {
		if _, ok := stale[item.ID]; ok {
			out = append(out, item)
		}
	}
	return out
}

// BuildPlan computes the actions that converge the remote onto candidates.
// Candidates are copied; the caller's slice is not modified.
func BuildPlan(spec *Spec, listing *Listing, candidates []remote.Item) *Plan {
	plan := &Plan{
		Mode:    spec.Mode,
		Root:    spec.Root,
		listing: listing,
		Summary: PlanSummary{
			Candidates:  len(candidates),
			RemoteItems: listing.Len(),
		},
	}

	if spec.Mode == ModeMirror {
		for _, item := range DeletionSet(listing, spec.Root, candidates) {
			plan.Actions = append(plan.Actions, Action{Type: ActionDelete, Item: item, Reason: "absent from source"})
			plan.Summary.Deletions++
		}
	}

	force := spec.force()
	for _, candidate := range candidates {
		c := candidate
		update, reason := NeedsUpdate(&c, listing, force)
		if !update {
			if listing.Has(c.ID) {
				plan.Summary.Unchanged++
			} else {
				plan.Summary.Excluded++
			}
			continue
		}
		plan.Actions = append(plan.Actions, Action{Type: ActionUpload, Item: c, Reason: reason})
		plan.Summary.Uploads++
	}

	return plan
}
