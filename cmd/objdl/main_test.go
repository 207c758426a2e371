package main

import (
	"path/filepath"
	"testing"
)

func TestRunDispatch(t *testing.T) {
	if code := run(nil); code != ExitInvalidArgs {
		t.Fatalf("no args: exit %d, want %d", code, ExitInvalidArgs)
	}
	if code := run([]string{"bogus"}); code != ExitInvalidArgs {
		t.Fatalf("unknown command: exit %d, want %d", code, ExitInvalidArgs)
	}
	if code := run([]string{"help"}); code != ExitSuccess {
		t.Fatalf("help: exit %d, want %d", code, ExitSuccess)
	}
}

func TestLogPathFor(t *testing.T) {
	if got := logPathFor("/data/out", "download_log_0_3.json"); got != filepath.Join("/data/out", "download_log_0_3.json") {
		t.Fatalf("local output: %q", got)
	}
	if got := logPathFor("s3://bucket/prefix", "download_log_0_3.json"); got != "download_log_0_3.json" {
		t.Fatalf("bucket output: %q", got)
	}
}

func TestLoadConfigMissingFile(t *testing.T) {
	if _, err := loadConfig("/does/not/exist.yaml"); err == nil {
		t.Fatalf("expected error for missing config file")
	}
}
