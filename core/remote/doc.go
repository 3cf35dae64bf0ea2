// Package remote is the client for the remote document cloud.
//
// The cloud stores a tree of Items (documents and collections) and exposes it
// through one of two wire protocols. Both satisfy the Store interface, so the
// reconcile engine never knows which one it talks to.
//
// # Variants
//
//   - DocsStore talks to the flat JSON document-storage endpoints: one listing
//     call, batched upload requests, presigned blob PUTs, batched status
//     updates and batched deletes.
//   - BlobStore talks to the content-addressed sync endpoints. The tree is a
//     root index pointing at per-document indexes, which in turn point at a
//     metadata blob and the document payload. Writes upload new blobs and swap
//     the root pointer with an optimistic generation check.
//
// The variant is chosen once per run from the scopes granted in the user
// token (see ParseScopes and SelectVariant).
//
// # Authentication
//
// Authenticator exchanges a one-time code for a long-lived device token and a
// device token for a short-lived user token. Storage host discovery is
// optional and only used when no host is configured.
//
// # Caching
//
// Listings are read through a core/cache.Cache when one is supplied. The blob
// variant also caches every content-addressed blob it reads; those never
// change for a given hash. Reads that precede a destructive write always go to
// the server.
//
// # Errors
//
// Any non-2xx response or network failure is returned as a *TransportError.
// Per-item rejections are reported in the returned Result/UploadTicket slices
// and are not errors.
package remote
