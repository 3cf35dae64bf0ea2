// Package idmap links source item keys to stable remote UUIDs.
//
// The map is read once from a property store when a run starts, extended in
// memory while the source tree is walked, and written back once with Flush.
// A source key keeps the UUID it was first given for as long as the store
// keeps it, so re-running a sync reproduces the same remote identities.
package idmap
