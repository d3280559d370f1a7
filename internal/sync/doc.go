// Package sync fetches the complete recent-documents feed from the LHDN API.
//
// The Orchestrator walks the paginated feed through a PageFetcher, retrying a
// failed page with a growing pause and opening a circuit after too many
// consecutive failures. Fetched payloads are normalized into canonical
// records and de-duplicated by UUID.
//
// # Subpackages
//
//   - freshness: decides between serving storage and running a live sync
//   - writer: reconciles a fetched document set into storage
//   - coordinator: runs freshness checks in the background on a jittered interval
//
// # Errors
//
// FetchAll returns a *FetchExhaustedError when the circuit opens. Failures are
// classified by ReasonFor into the reasons recorded on sync runs.
package sync
