package batch

import (
	"context"
	"fmt"
	"io"
	"time"

	"github.com/17khba/objaverse-download/internal/runlog"
)

// RetryOptions configures one retry pass over a prior run log.
type RetryOptions struct {
	// MaxRetries is the attempt bound per UID.
	MaxRetries int

	// Delay is the fixed wait between attempts. It is not applied after a
	// success or after the final attempt.
	Delay time.Duration

	// Args is recorded verbatim in the emitted retry log.
	Args map[string]any

	// Log receives the per-attempt narrative. Default: io.Discard.
	Log io.Writer
}

// Retry re-attempts every failed UID of log, up to opts.MaxRetries times
// each, and returns a new retry log chained to logPath. Retrying a log with
// no failures is a valid no-op that yields an empty retry log.
//
// Per UID it records the final status, the attempts actually used, and the
// original failure's error text; the original log is never modified.
func (r *Runner) Retry(ctx context.Context, log *runlog.RunLog, logPath string, opts RetryOptions) (*runlog.RetryLog, error) {
	w := opts.Log
	if w == nil {
		w = io.Discard
	}

	failed := log.FailedUIDs()
	results := make(map[string]runlog.RetryOutcome, len(failed))
	if len(failed) == 0 {
		return runlog.NewRetryLog(logPath, opts.Args, results), nil
	}

	annotations, err := r.Source.Annotations(ctx, failed)
	if err != nil {
		return nil, fmt.Errorf("batch: load annotations for retry: %w", err)
	}

	for _, uid := range failed {
		originalErr := log.Results[uid].Err
		fmt.Fprintf(w, "[objdl] Retrying %s (original error: %s)\n", uid, originalErr)

		var lastErr string
		resolved := false

		for attempt := 1; attempt <= opts.MaxRetries; attempt++ {
			if ctx.Err() != nil {
				return nil, ctx.Err()
			}

			o := r.ProcessOne(ctx, uid, annotations)
			if !o.Failed() {
				fmt.Fprintf(w, "[objdl]   attempt %d/%d: ok\n", attempt, opts.MaxRetries)
				results[uid] = runlog.RetryOutcome{
					Status:        runlog.StatusSuccess,
					Attempts:      attempt,
					OriginalError: originalErr,
					Result:        o.Artifacts,
				}
				resolved = true
				break
			}

			lastErr = o.Err
			fmt.Fprintf(w, "[objdl]   attempt %d/%d failed: %s\n", attempt, opts.MaxRetries, lastErr)

			if attempt < opts.MaxRetries {
				if err := r.sleep(ctx, opts.Delay); err != nil {
					return nil, err
				}
			}
		}

		if !resolved {
			results[uid] = runlog.RetryOutcome{
				Status:        runlog.StatusFailed,
				Attempts:      opts.MaxRetries,
				OriginalError: originalErr,
				FinalError:    lastErr,
			}
		}
	}

	return runlog.NewRetryLog(logPath, opts.Args, results), nil
}
