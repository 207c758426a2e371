package progress

import (
	"bytes"
	"strings"
	"sync"
	"testing"
	"time"
)

func TestReporterFinalStatus(t *testing.T) {
	var buf bytes.Buffer
	r := NewReporter(Options{
		TotalItems:     3,
		Workers:        2,
		Label:          "shard 0-3",
		Output:         &buf,
		UpdateInterval: 10 * time.Millisecond,
	})

	r.Start()
	r.ItemStarted()
	r.ItemSucceeded()
	r.ItemStarted()
	r.ItemSucceeded()
	r.ItemStarted()
	r.ItemFailed()
	r.Stop()

	out := buf.String()
	if !strings.Contains(out, "Processing shard 0-3: 3 items | Workers: 2") {
		t.Fatalf("header missing:\n%s", out)
	}
	if !strings.Contains(out, "Processed 3/3 items | ok 2 | failed 1") {
		t.Fatalf("final status missing:\n%s", out)
	}
	if !strings.Contains(out, "Total time:") {
		t.Fatalf("total time missing:\n%s", out)
	}
}

func TestReporterStopIsIdempotent(t *testing.T) {
	var buf bytes.Buffer
	r := NewReporter(Options{TotalItems: 1, Output: &buf})
	r.Start()
	r.Stop()
	r.Stop() // second stop must not panic or block
}

func TestReporterConcurrentUpdates(t *testing.T) {
	var buf bytes.Buffer
	r := NewReporter(Options{
		TotalItems:     100,
		Workers:        8,
		Output:         &buf,
		UpdateInterval: time.Millisecond,
	})
	r.Start()

	var wg sync.WaitGroup
	for i := 0; i < 100; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			r.ItemStarted()
			if i%4 == 0 {
				r.ItemFailed()
			} else {
				r.ItemSucceeded()
			}
		}(i)
	}
	wg.Wait()
	r.Stop()

	if !strings.Contains(buf.String(), "Processed 100/100 items | ok 75 | failed 25") {
		t.Fatalf("counts lost under concurrency:\n%s", buf.String())
	}
}

func TestFormatDuration(t *testing.T) {
	cases := []struct {
		d    time.Duration
		want string
	}{
		{45 * time.Second, "45s"},
		{90 * time.Second, "1m 30s"},
		{3*time.Hour + 2*time.Minute + time.Second, "3h 2m 1s"},
	}
	for _, tc := range cases {
		if got := formatDuration(tc.d); got != tc.want {
			t.Fatalf("formatDuration(%v) = %q, want %q", tc.d, got, tc.want)
		}
	}
}
