package printer

import (
	"bytes"
	"strings"
	"testing"
)

func TestItem(t *testing.T) {
	var buf bytes.Buffer
	Item(&buf, "abc", true, "")
	Item(&buf, "def", false, "timeout")

	out := buf.String()
	if !strings.Contains(out, "✓ abc") {
		t.Fatalf("success line missing:\n%s", out)
	}
	if !strings.Contains(out, "✗ def: timeout") {
		t.Fatalf("failure line missing:\n%s", out)
	}
}

func TestSummary(t *testing.T) {
	var buf bytes.Buffer
	Summary(&buf, 10, 8, 2)

	out := buf.String()
	for _, want := range []string{"Summary", "total:   10", "success: 8", "failed:  2"} {
		if !strings.Contains(out, want) {
			t.Fatalf("summary missing %q:\n%s", want, out)
		}
	}
}

func TestFailures(t *testing.T) {
	var buf bytes.Buffer
	Failures(&buf, map[string]string{"u1": "timeout", "u2": "http 500"}, []string{"u1", "u2"})

	out := buf.String()
	if !strings.Contains(out, "Failed (2):") {
		t.Fatalf("header missing:\n%s", out)
	}
	if !strings.Contains(out, "u1: timeout") || !strings.Contains(out, "u2: http 500") {
		t.Fatalf("failure lines missing:\n%s", out)
	}
}

func TestFailuresEmptyPrintsNothing(t *testing.T) {
	var buf bytes.Buffer
	Failures(&buf, nil, nil)
	if buf.Len() != 0 {
		t.Fatalf("unexpected output: %q", buf.String())
	}
}
