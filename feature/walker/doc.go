// Package walker turns a source tree into the candidate list of a sync run.
//
// The walk is depth first. Each visited folder yields one collection whose
// parent is the remote id of the folder above it, then one document per file,
// then the walk descends into the subfolders. Folders whose name is in the
// skip list are dropped together with everything below them.
//
// Children are visited in (name, id) order so two walks of an unchanged tree
// produce the same candidates in the same order. Shortcuts are resolved to
// their target; the candidate keeps the shortcut's name and identity and
// carries the target as its source reference.
package walker
