// Package source defines the tree of folders and files that is synchronized
// to the remote document cloud.
//
// A Tree is read-only. It locates the folder a sync starts from, lists the
// direct children of a folder, looks files up by id and opens their content.
// Ids are opaque to callers: they only need to be stable across runs, because
// the identifier map keys remote UUIDs on them.
//
// # Shortcuts
//
// A File whose TargetID is set is a shortcut (a Drive shortcut, a symlink).
// Resolve follows it to the file it points to before the content is read.
//
// # Implementations
//
//   - localfs: a go-billy filesystem; ids are slash separated paths.
//   - bucket: an S3 compatible bucket through core/storage; ids are object keys
//     and folders are key prefixes.
//   - gdrive: Google Drive v3; ids are Drive file ids.
package source
