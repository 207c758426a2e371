package batch

import (
	"context"
	"fmt"
	"time"

	"github.com/17khba/objaverse-download/internal/runlog"
	"github.com/17khba/objaverse-download/internal/source"
	"github.com/17khba/objaverse-download/internal/store"
)

// ErrMissingAnnotation is the outcome text recorded when a UID is absent
// from the bulk-loaded annotation batch. The fetch adapter is never invoked
// for such UIDs.
const ErrMissingAnnotation = "missing object or annotation"

// Runner executes fetch-and-persist batches against a corpus source and an
// artifact store. The source and store are injected so tests can run whole
// batches against a fixed in-memory corpus.
type Runner struct {
	Source source.Source
	Store  *store.Store

	// ItemTimeout bounds the fetch-and-persist of a single UID. A hung
	// fetch becomes a timeout failure for that UID instead of stalling
	// the whole shard. Zero means no per-item bound.
	ItemTimeout time.Duration

	// Sleep is the delay function used between retry attempts.
	// Default: context-aware time.Sleep. Tests substitute a fake.
	Sleep func(ctx context.Context, d time.Duration) error
}

// ShardOptions selects and configures one shard run.
type ShardOptions struct {
	// Start and End bound the half-open index range [Start, End) over the
	// (optionally filtered) UID universe.
	Start, End int

	// FilterPrefix, when set, retains only UIDs whose storage path starts
	// with "glbs/<FilterPrefix>", preserving relative order.
	FilterPrefix string

	// Workers is the parallel worker count. 1 processes sequentially.
	Workers int

	// Args is recorded verbatim in the emitted run log.
	Args map[string]any

	// OnOutcome, if set, is called once per UID as outcomes are collected.
	// Calls are serialized.
	OnOutcome func(uid string, o runlog.Outcome)
}

// SelectShard resolves the shard's UID set: the full ordered universe,
// optionally filtered by storage-path prefix, then sliced to [start, end).
// It also returns the size of the (filtered) universe for reporting. An
// out-of-range or empty slice is not an error; it yields an empty set.
func (r *Runner) SelectShard(ctx context.Context, start, end int, filterPrefix string) ([]string, int, error) {
	uids, err := r.Source.UIDs(ctx)
	if err != nil {
		return nil, 0, fmt.Errorf("batch: load UID universe: %w", err)
	}

	if filterPrefix != "" {
		paths, err := r.Source.ObjectPaths(ctx)
		if err != nil {
			return nil, 0, fmt.Errorf("batch: load object paths: %w", err)
		}
		prefix := "glbs/" + filterPrefix
		filtered := make([]string, 0, len(uids))
		for _, uid := range uids {
			if p, ok := paths[uid]; ok && len(p) >= len(prefix) && p[:len(prefix)] == prefix {
				filtered = append(filtered, uid)
			}
		}
		uids = filtered
	}

	universe := len(uids)
	if start < 0 {
		start = 0
	}
	if end > universe {
		end = universe
	}
	if start >= end {
		return nil, universe, nil
	}
	return uids[start:end], universe, nil
}

// RunShard selects the shard, bulk-loads its annotations, fans the UIDs out
// to the worker pool, and assembles the run log. A failure of the bulk
// annotation load is fatal to the shard; every per-UID failure is contained
// as that UID's outcome.
func (r *Runner) RunShard(ctx context.Context, opts ShardOptions) (*runlog.RunLog, error) {
	uids, _, err := r.SelectShard(ctx, opts.Start, opts.End, opts.FilterPrefix)
	if err != nil {
		return nil, err
	}

	results, err := r.Process(ctx, uids, opts.Workers, opts.OnOutcome)
	if err != nil {
		return nil, err
	}
	return runlog.New(opts.Args, results), nil
}

// Process runs ProcessOne for every UID and returns exactly one outcome per
// UID. Annotations for the whole batch are loaded once up front; that load
// failing aborts the batch since no outcome could mean anything without it.
func (r *Runner) Process(ctx context.Context, uids []string, workers int, onOutcome func(string, runlog.Outcome)) (map[string]runlog.Outcome, error) {
	results := make(map[string]runlog.Outcome, len(uids))
	if len(uids) == 0 {
		return results, nil
	}
	if workers <= 0 {
		workers = 1
	}

	annotations, err := r.Source.Annotations(ctx, uids)
	if err != nil {
		return nil, fmt.Errorf("batch: load annotations: %w", err)
	}

	type item struct {
		uid     string
		outcome runlog.Outcome
	}

	jobs := make(chan string)
	out := make(chan item)

	for w := 0; w < workers; w++ {
		go func() {
			for uid := range jobs {
				out <- item{uid: uid, outcome: r.ProcessOne(ctx, uid, annotations)}
			}
		}()
	}

	// Feed every UID unconditionally. Under cancellation ProcessOne fails
	// fast, so the pool drains and the one-outcome-per-UID invariant holds
	// even for an aborted run.
	go func() {
		for _, uid := range uids {
			jobs <- uid
		}
		close(jobs)
	}()

	for range uids {
		it := <-out
		results[it.uid] = it.outcome
		if onOutcome != nil {
			onOutcome(it.uid, it.outcome)
		}
	}

	return results, nil
}

// ProcessOne fetches and persists a single UID end-to-end. It never returns
// an error: every failure mode, including a panic below it, is converted
// into the failure outcome for that UID. Safe for concurrent use across
// distinct UIDs; annotations is read-only shared state.
func (r *Runner) ProcessOne(ctx context.Context, uid string, annotations map[string]source.Annotation) (outcome runlog.Outcome) {
	defer func() {
		if p := recover(); p != nil {
			outcome = runlog.Failure(fmt.Sprintf("panic: %v", p))
		}
	}()

	ann, ok := annotations[uid]
	if !ok {
		return runlog.Failure(ErrMissingAnnotation)
	}

	if r.ItemTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, r.ItemTimeout)
		defer cancel()
	}

	objects, err := r.Source.Objects(ctx, []string{uid}, 1)
	if err != nil {
		return runlog.Failure(fmt.Sprintf("fetch asset: %v", err))
	}
	rawAsset, ok := objects[uid]
	if !ok {
		return runlog.Failure("fetch asset: not available from source")
	}

	artifacts, err := r.Store.Persist(ctx, uid, rawAsset, ann)
	if err != nil {
		return runlog.Failure(err.Error())
	}
	return runlog.Success(artifacts)
}

func (r *Runner) sleep(ctx context.Context, d time.Duration) error {
	if r.Sleep != nil {
		return r.Sleep(ctx, d)
	}
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-time.After(d):
		return nil
	}
}
