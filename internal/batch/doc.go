// Package batch orchestrates sharded fetch-and-persist runs over the asset
// corpus.
//
// A run selects a UID set (an index range over the ordered universe, an
// explicit list, or the failed subset of a prior log), bulk-loads the set's
// annotations once, and fans each UID out to a fixed-size worker pool. The
// unit of work and of failure is one UID: nothing a single item does,
// including panicking, can abort the rest of the batch. Only a failure of
// the bulk annotation load is fatal, since without it no per-UID outcome
// would be meaningful.
//
// # Worker pool
//
// Workers receive UIDs from a channel and send back one outcome each; the
// collector re-associates outcomes by UID, so completion order is free but
// every requested UID gets exactly one outcome. A worker count of 1 runs
// the identical code path sequentially.
//
// # Retry
//
// [Runner.Retry] replays the failed subset of a prior run log with bounded
// attempts and a fixed inter-attempt delay, recording attempts used and the
// original error for lineage. The resulting log chains to the original via
// its path.
package batch
