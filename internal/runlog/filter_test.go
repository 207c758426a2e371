package runlog

import (
	"reflect"
	"strings"
	"testing"
)

func threeRecordLog() *RunLog {
	return New(map[string]any{"workers": 4, "output": "/data/out"}, map[string]Outcome{
		"a": Success(Artifacts{Metadata: "/data/out/a.json"}),
		"b": Failure("timeout"),
		"c": Failure("http 500"),
	})
}

func TestFilterKeepsFailures(t *testing.T) {
	l := threeRecordLog()
	f := Filter(l, "/logs/download_log_0_3.json", false)

	if f.FilterType != FilterFailed {
		t.Fatalf("filter_type = %q", f.FilterType)
	}
	if f.OriginalLog != "/logs/download_log_0_3.json" {
		t.Fatalf("original_log = %q", f.OriginalLog)
	}
	if len(f.Results) != 2 {
		t.Fatalf("kept %d records, want 2", len(f.Results))
	}
	if _, ok := f.Results["a"]; ok {
		t.Fatalf("success record leaked into failure partition")
	}

	want := FilterSummary{Total: 2, OriginalTotal: 3, OriginalSuccess: 1, OriginalFailed: 2}
	if f.Summary != want {
		t.Fatalf("summary = %+v, want %+v", f.Summary, want)
	}
	if got := f.Args["filtered_count"]; got != 2 {
		t.Fatalf("filtered_count = %v", got)
	}
}

func TestFilterPartitionsAreComplete(t *testing.T) {
	l := threeRecordLog()
	failed := Filter(l, "log.json", false)
	success := Filter(l, "log.json", true)

	seen := make(map[string]bool)
	for uid := range failed.Results {
		seen[uid] = true
	}
	for uid := range success.Results {
		if seen[uid] {
			t.Fatalf("uid %s appears in both partitions", uid)
		}
		seen[uid] = true
	}
	if len(seen) != len(l.Results) {
		t.Fatalf("partitions cover %d of %d records", len(seen), len(l.Results))
	}
	if failed.Summary.Total+success.Summary.Total != l.Summary.Total {
		t.Fatalf("partition totals %d+%d != %d",
			failed.Summary.Total, success.Summary.Total, l.Summary.Total)
	}
}

func TestFilterDoesNotMutateSourceArgs(t *testing.T) {
	l := threeRecordLog()
	Filter(l, "log.json", false)
	if _, ok := l.Args["filtered_count"]; ok {
		t.Fatalf("source log args mutated: %v", l.Args)
	}
}

func TestFilterEmptyPartitionOmitsCount(t *testing.T) {
	l := New(nil, map[string]Outcome{
		"a": Success(Artifacts{Metadata: "/a"}),
	})
	f := Filter(l, "log.json", false)
	if len(f.Results) != 0 {
		t.Fatalf("kept %d records, want 0", len(f.Results))
	}
	if _, ok := f.Args["filtered_count"]; ok {
		t.Fatalf("filtered_count recorded for empty partition")
	}
}

func TestGroupFailuresOrdering(t *testing.T) {
	l := New(nil, map[string]Outcome{
		"u1": Failure("timeout"),
		"u2": Failure("timeout"),
		"u3": Failure("http 500"),
		"u4": Success(Artifacts{Metadata: "/u4"}),
		"u0": Failure("timeout"),
	})

	groups := GroupFailures(l)
	if len(groups) != 2 {
		t.Fatalf("got %d groups, want 2", len(groups))
	}
	if groups[0].Error != "timeout" {
		t.Fatalf("largest group first, got %q", groups[0].Error)
	}
	if !reflect.DeepEqual(groups[0].UIDs, []string{"u0", "u1", "u2"}) {
		t.Fatalf("group UIDs not sorted: %v", groups[0].UIDs)
	}
	if groups[1].Error != "http 500" || len(groups[1].UIDs) != 1 {
		t.Fatalf("unexpected second group: %+v", groups[1])
	}
}

func TestSuggestRetryHalvesWorkers(t *testing.T) {
	l := threeRecordLog()
	f := Filter(l, "log.json", false)
	plan := SuggestRetry(f, "/logs/filtered_failed_download_log_0_3.json")

	if plan.Workers != 2 {
		t.Fatalf("workers = %d, want half of 4", plan.Workers)
	}
	if plan.TotalFailed != 2 {
		t.Fatalf("total failed = %d", plan.TotalFailed)
	}
	if plan.OutputDir != "/data/out" {
		t.Fatalf("output = %q", plan.OutputDir)
	}
	if plan.MaxRetries != PlanMaxRetries || plan.RetryDelay != PlanRetryDelay {
		t.Fatalf("plan defaults changed: %+v", plan)
	}
	if !strings.Contains(plan.Command, "/logs/filtered_failed_download_log_0_3.json") {
		t.Fatalf("command missing log path: %q", plan.Command)
	}
}

func TestSuggestRetryWorkerFloor(t *testing.T) {
	f := &FilteredLog{
		Args:    map[string]any{"workers": 1},
		Results: map[string]Outcome{"a": Failure("x")},
	}
	if plan := SuggestRetry(f, "log.json"); plan.Workers != PlanMinWorkers {
		t.Fatalf("workers = %d, want floor %d", plan.Workers, PlanMinWorkers)
	}
}

func TestSuggestRetryReadsJSONNumbers(t *testing.T) {
	// A reloaded log carries args decoded from JSON, where numbers are
	// float64.
	f := &FilteredLog{
		Args:    map[string]any{"workers": float64(8), "output": "/x"},
		Results: map[string]Outcome{"a": Failure("x")},
	}
	plan := SuggestRetry(f, "log.json")
	if plan.Workers != 4 {
		t.Fatalf("workers = %d, want 4", plan.Workers)
	}
	if plan.OutputDir != "/x" {
		t.Fatalf("output = %q", plan.OutputDir)
	}
}
