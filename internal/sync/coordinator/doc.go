// Package coordinator keeps the document store warm in the background.
//
// A Coordinator calls DocumentSyncer.GetDocuments without forcing a refresh on
// a jittered interval. The freshness coordinator behind it decides whether a
// live sync is actually due, so instances sharing a store do not stampede the
// LHDN API: once one instance completes a sync, the others see fresh storage
// and skip theirs.
//
// # Usage
//
//	c := coordinator.New(freshnessCoordinator, cfg.Sync.GetInterval())
//	go func() { _ = c.Start(ctx) }()
//	// ... run server ...
//	_ = c.Stop()
//
// # Error Handling
//
// Failed syncs are logged and retried on the next tick. A fallback result
// (stored records served after a failed live sync) is logged as a warning.
package coordinator
