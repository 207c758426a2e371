package main

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/17khba/objaverse-download/internal/runlog"
	"github.com/17khba/objaverse-download/internal/source"
	"github.com/17khba/objaverse-download/internal/testutils"
)

// startCorpus serves a small corpus and points the CLI at it through the
// environment, the same way an operator would configure a real run.
func startCorpus(t *testing.T, entries []testutils.CorpusEntry) *testutils.CorpusServer {
	t.Helper()
	srv := testutils.StartCorpusServer(t, entries)
	t.Setenv("OBJDL_SOURCE_URL", srv.URL())
	t.Setenv("OBJDL_CACHE_DIR", t.TempDir())
	return srv
}

func ann(name string) source.Annotation {
	return source.Annotation{"name": name}
}

func TestShardEndToEnd(t *testing.T) {
	startCorpus(t, []testutils.CorpusEntry{
		{UID: "u0", Group: "000-001", Annotation: ann("u0"), Asset: []byte("u0 glb")},
		{UID: "u1", Group: "000-001", Annotation: ann("u1"), Asset: []byte("u1 glb")},
		{UID: "u2", Group: "000-002", Annotation: ann("u2"), Asset: []byte("u2 glb")},
	})
	out := t.TempDir()

	code := runShard([]string{"-start", "0", "-end", "2", "-output", out, "-workers", "2"})
	if code != ExitSuccess {
		t.Fatalf("exit %d, want %d", code, ExitSuccess)
	}

	log, err := runlog.Load(filepath.Join(out, "download_log_0_2.json"))
	if err != nil {
		t.Fatalf("load run log: %v", err)
	}
	if log.Summary.Total != 2 || log.Summary.Failed != 0 {
		t.Fatalf("summary = %+v", log.Summary)
	}
	if _, ok := log.Results["u2"]; ok {
		t.Fatalf("uid outside shard range downloaded")
	}

	data, err := os.ReadFile(filepath.Join(out, "model", "u0", "u0.glb"))
	if err != nil {
		t.Fatalf("asset not persisted: %v", err)
	}
	if string(data) != "u0 glb" {
		t.Fatalf("asset content = %q", data)
	}
	if _, err := os.Stat(filepath.Join(out, "model", "u0", "u0.m.metadata.json")); err != nil {
		t.Fatalf("metadata sidecar missing: %v", err)
	}
}

func TestShardEndToEndRecordsFailures(t *testing.T) {
	startCorpus(t, []testutils.CorpusEntry{
		{UID: "good", Group: "000-001", Annotation: ann("good"), Asset: []byte("glb")},
		{UID: "orphan", Group: "000-001", Asset: []byte("glb")}, // no metadata record
	})
	out := t.TempDir()

	code := runShard([]string{"-start", "0", "-end", "2", "-output", out})
	if code != ExitItemsFailed {
		t.Fatalf("exit %d, want %d", code, ExitItemsFailed)
	}

	log, err := runlog.Load(filepath.Join(out, "download_log_0_2.json"))
	if err != nil {
		t.Fatalf("load run log: %v", err)
	}
	if log.Summary.Success != 1 || log.Summary.Failed != 1 {
		t.Fatalf("summary = %+v", log.Summary)
	}
	if log.Results["orphan"].Err != "missing object or annotation" {
		t.Fatalf("orphan outcome = %+v", log.Results["orphan"])
	}
}

func TestShardDryRun(t *testing.T) {
	startCorpus(t, []testutils.CorpusEntry{
		{UID: "u0", Group: "000-001", Annotation: ann("u0"), Asset: []byte("glb")},
	})
	out := t.TempDir()

	code := runShard([]string{"-start", "0", "-end", "1", "-output", out, "-dry-run"})
	if code != ExitSuccess {
		t.Fatalf("exit %d, want %d", code, ExitSuccess)
	}
	if _, err := os.Stat(filepath.Join(out, "download_log_0_1.json")); err == nil {
		t.Fatalf("dry run wrote a run log")
	}
	if _, err := os.Stat(filepath.Join(out, "model")); err == nil {
		t.Fatalf("dry run persisted artifacts")
	}
}

func TestShardRequiresRange(t *testing.T) {
	if code := runShard([]string{"-output", t.TempDir()}); code != ExitInvalidArgs {
		t.Fatalf("exit %d, want %d", code, ExitInvalidArgs)
	}
}

func TestFetchEndToEnd(t *testing.T) {
	startCorpus(t, []testutils.CorpusEntry{
		{UID: "u0", Group: "000-001", Annotation: ann("u0"), Asset: []byte("glb")},
		{UID: "u1", Group: "000-001", Annotation: ann("u1"), Asset: []byte("glb")},
	})
	out := t.TempDir()
	logFile := filepath.Join(t.TempDir(), "fetch_log.json")

	code := runFetch([]string{"-output", out, "-log-file", logFile, "u1"})
	if code != ExitSuccess {
		t.Fatalf("exit %d, want %d", code, ExitSuccess)
	}

	log, err := runlog.Load(logFile)
	if err != nil {
		t.Fatalf("load run log: %v", err)
	}
	if log.Summary.Total != 1 || log.Summary.Success != 1 {
		t.Fatalf("summary = %+v", log.Summary)
	}
	if _, err := os.Stat(filepath.Join(out, "model", "u1", "u1.glb")); err != nil {
		t.Fatalf("asset not persisted: %v", err)
	}
}

func TestFetchRequiresUIDs(t *testing.T) {
	if code := runFetch([]string{"-output", t.TempDir()}); code != ExitInvalidArgs {
		t.Fatalf("exit %d, want %d", code, ExitInvalidArgs)
	}
}

func TestRetryEndToEnd(t *testing.T) {
	startCorpus(t, []testutils.CorpusEntry{
		{UID: "u0", Group: "000-001", Annotation: ann("u0"), Asset: []byte("u0 glb")},
	})
	out := t.TempDir()

	// A prior run where u0 failed.
	logDir := t.TempDir()
	logPath := filepath.Join(logDir, "download_log_0_1.json")
	prior := runlog.New(map[string]any{"output": out, "workers": 2}, map[string]runlog.Outcome{
		"u0": runlog.Failure("fetch asset: timeout"),
	})
	if err := runlog.Save(logPath, prior); err != nil {
		t.Fatalf("save prior log: %v", err)
	}

	code := runRetry([]string{"-max-retries", "2", "-retry-delay", "1ms", logPath})
	if code != ExitSuccess {
		t.Fatalf("exit %d, want %d", code, ExitSuccess)
	}

	retryLog, err := runlog.LoadRetryLog(runlog.RetryLogName(logPath))
	if err != nil {
		t.Fatalf("load retry log: %v", err)
	}
	o := retryLog.Results["u0"]
	if o.Status != runlog.StatusSuccess || o.Attempts != 1 {
		t.Fatalf("retry outcome = %+v", o)
	}
	if o.OriginalError != "fetch asset: timeout" {
		t.Fatalf("original error lost: %q", o.OriginalError)
	}
	if _, err := os.Stat(filepath.Join(out, "model", "u0", "u0.glb")); err != nil {
		t.Fatalf("asset not persisted on retry: %v", err)
	}
}

func TestRetryListOnly(t *testing.T) {
	logPath := filepath.Join(t.TempDir(), "download_log_0_1.json")
	prior := runlog.New(nil, map[string]runlog.Outcome{
		"u0": runlog.Failure("timeout"),
	})
	if err := runlog.Save(logPath, prior); err != nil {
		t.Fatalf("save prior log: %v", err)
	}

	// list-only needs neither a source nor a store.
	if code := runRetry([]string{"-list-only", logPath}); code != ExitSuccess {
		t.Fatalf("exit %d, want %d", code, ExitSuccess)
	}
	if _, err := os.Stat(runlog.RetryLogName(logPath)); err == nil {
		t.Fatalf("list-only wrote a retry log")
	}
}

func TestRetryMissingLog(t *testing.T) {
	if code := runRetry([]string{"/does/not/exist.json"}); code != ExitGeneralError {
		t.Fatalf("exit %d, want %d", code, ExitGeneralError)
	}
}
