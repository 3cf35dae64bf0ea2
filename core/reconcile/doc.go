// Package reconcile converges the remote document tree onto a candidate list
// produced from the source tree.
//
// # Architecture
//
// The reconcile system consists of four parts:
//
// 1. Listing: an id-indexed snapshot of the remote tree with parent links, used
//    for lookups and for the descendant closure of the sync root.
//
// 2. Policy: NeedsUpdate decides per candidate whether it must be pushed, and
//    bumps its version past the server's when it must. Metadata conflicts are
//    local-wins; first-time documents are filtered by extension and size; a
//    caller-supplied ForceFunc can force any known item.
//
// 3. Plan: BuildPlan combines the policy with the mirror-mode deletion set
//    (remote descendants of the root that no candidate claims) into an ordered
//    list of actions. Building a plan never touches the remote.
//
// 4. Engine: Apply executes a plan. Deletions run first, then uploads in
//    fixed-size batches, strictly one after another. Each batch requests
//    upload tickets, uploads payloads for accepted documents, commits metadata
//    for the whole batch, then deletes the items whose payload never landed.
//
// # Failure model
//
// A per-item rejection is recorded as an Outcome and never stops its
// siblings. A transport error inside a batch abandons that batch only. A
// transport error while deleting ahead of the uploads is returned to the
// caller, since deletions have to precede uploads.
//
// # Usage Example
//
//	spec := &reconcile.Spec{Mode: reconcile.ModeMirror, Root: rootID}
//	listing := reconcile.NewListing(items)
//	plan := reconcile.BuildPlan(spec, listing, candidates)
//
//	engine := reconcile.NewEngine(store, payloads, reconcile.WithLogger(log))
//	report, err := engine.Apply(ctx, spec, plan, reconcile.ReconcileOptions{})
package reconcile
