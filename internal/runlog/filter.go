package runlog

import (
	"fmt"
	"sort"
	"time"
)

// Filter type labels recorded in a FilteredLog.
const (
	FilterSuccess = "success"
	FilterFailed  = "failed"
)

// FilterSummary carries the size of the kept partition plus the counts of
// both partitions of the source log, so the dropped partition is still
// auditable from the filtered file alone.
type FilterSummary struct {
	Total           int `json:"total"`
	OriginalTotal   int `json:"original_total"`
	OriginalSuccess int `json:"original_success"`
	OriginalFailed  int `json:"original_failed"`
}

// FilteredLog is one partition of a RunLog's results, with provenance.
type FilteredLog struct {
	OriginalLog string             `json:"original_log"`
	FilterType  string             `json:"filter_type"`
	Args        map[string]any     `json:"args"`
	Results     map[string]Outcome `json:"results"`
	Summary     FilterSummary      `json:"summary"`
}

// Filter partitions l.Results by outcome kind and keeps the requested
// partition. logPath is recorded as the filtered log's provenance. The two
// possible filtered logs of a given RunLog are disjoint and their keys
// union back to the source log's keys.
func Filter(l *RunLog, logPath string, keepSuccess bool) *FilteredLog {
	kept := make(map[string]Outcome)
	var success, failed int
	for uid, o := range l.Results {
		if o.Failed() {
			failed++
			if !keepSuccess {
				kept[uid] = o
			}
		} else {
			success++
			if keepSuccess {
				kept[uid] = o
			}
		}
	}

	filterType := FilterFailed
	if keepSuccess {
		filterType = FilterSuccess
	}

	// Copy args so the source log stays untouched.
	args := make(map[string]any, len(l.Args)+1)
	for k, v := range l.Args {
		args[k] = v
	}
	if len(kept) > 0 {
		args["filtered_count"] = len(kept)
	}

	return &FilteredLog{
		OriginalLog: logPath,
		FilterType:  filterType,
		Args:        args,
		Results:     kept,
		Summary: FilterSummary{
			Total:           len(kept),
			OriginalTotal:   len(l.Results),
			OriginalSuccess: success,
			OriginalFailed:  failed,
		},
	}
}

// LoadFiltered reads a FilteredLog from path.
func LoadFiltered(path string) (*FilteredLog, error) {
	var l FilteredLog
	if err := loadJSON(path, &l); err != nil {
		return nil, err
	}
	return &l, nil
}

// ErrorGroup is a set of UIDs that failed with the same error text.
type ErrorGroup struct {
	Error string
	UIDs  []string
}

// GroupFailures groups the failed outcomes of l by error text, with groups
// ordered by descending size (largest failure mode first) and UIDs sorted
// within each group.
func GroupFailures(l *RunLog) []ErrorGroup {
	byError := make(map[string][]string)
	for uid, o := range l.Results {
		if o.Failed() {
			byError[o.Err] = append(byError[o.Err], uid)
		}
	}

	groups := make([]ErrorGroup, 0, len(byError))
	for errText, uids := range byError {
		sort.Strings(uids)
		groups = append(groups, ErrorGroup{Error: errText, UIDs: uids})
	}
	sort.Slice(groups, func(i, j int) bool {
		if len(groups[i].UIDs) != len(groups[j].UIDs) {
			return len(groups[i].UIDs) > len(groups[j].UIDs)
		}
		return groups[i].Error < groups[j].Error
	})
	return groups
}

// Retry plan defaults. Deliberately conservative: repeated failures usually
// mean the source or the host was overloaded, so the plan halves the worker
// count and spaces attempts further apart than a first run would.
const (
	PlanMinWorkers = 1
	PlanMaxRetries = 5
	PlanRetryDelay = 10 * time.Second
)

// RetryPlan is the advisory re-run derived from a failure-only filtered log.
// It proposes parameters; it executes nothing.
type RetryPlan struct {
	TotalFailed int
	OutputDir   string
	Workers     int
	MaxRetries  int
	RetryDelay  time.Duration
	Command     string
}

// SuggestRetry derives a RetryPlan from a failure-only filtered log stored
// at logPath. The proposed worker count is half the original run's, floored,
// with a minimum of PlanMinWorkers.
func SuggestRetry(f *FilteredLog, logPath string) *RetryPlan {
	workers := argInt(f.Args, "workers", 4) / 2
	if workers < PlanMinWorkers {
		workers = PlanMinWorkers
	}

	return &RetryPlan{
		TotalFailed: len(f.Results),
		OutputDir:   argString(f.Args, "output", "./downloads"),
		Workers:     workers,
		MaxRetries:  PlanMaxRetries,
		RetryDelay:  PlanRetryDelay,
		Command: fmt.Sprintf("objdl retry -max-retries %d -retry-delay %s %s",
			PlanMaxRetries, PlanRetryDelay, logPath),
	}
}

// argInt reads an integer argument recorded in a log's args map. JSON
// decoding turns numbers into float64, so both representations are handled.
func argInt(args map[string]any, key string, def int) int {
	switch v := args[key].(type) {
	case int:
		return v
	case float64:
		return int(v)
	default:
		return def
	}
}

func argString(args map[string]any, key, def string) string {
	if v, ok := args[key].(string); ok && v != "" {
		return v
	}
	return def
}
