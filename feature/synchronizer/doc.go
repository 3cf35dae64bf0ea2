// Package synchronizer drives one sync relationship between a source tree and
// the remote document cloud.
//
// A run authenticates (registering a device from a one-time code on first
// use, reusing the cached device token afterwards), connects to the remote
// protocol variant granted by the user token, fetches the remote listing,
// resolves both roots, walks the source tree, flushes the identifier map and
// hands the candidates to the reconciliation engine.
//
// # Failure boundary
//
// Run never returns an error and never panics. Every failure, including a
// panic anywhere below it, ends the run and is recorded in the RunReport.
// Root lookups happen before any remote mutation and fail with a LookupError.
// Work already applied to the remote is not rolled back; running again
// converges.
//
// # Service mode
//
// The Feature exposes the synchronizer over HTTP:
//
//	GET  /sync/status   last report and whether a run is in progress
//	POST /sync/run      run now (409 while another run is in progress)
//	POST /sync/reset    forget the cached device credentials
//	GET  /metrics       Prometheus metrics
//
// Runs are serialized by the Service; concurrent runs of one relationship
// are never started.
package synchronizer
