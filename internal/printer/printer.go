package printer

import (
	"fmt"
	"io"

	"github.com/fatih/color"
)

var (
	green  = color.New(color.FgGreen)
	red    = color.New(color.FgRed)
	yellow = color.New(color.FgYellow)
	bold   = color.New(color.Bold)
)

// Item prints one per-UID progress line: a green check for success, a red
// cross with the error text for failure.
func Item(w io.Writer, uid string, ok bool, errText string) {
	if ok {
		green.Fprintf(w, "✓ %s\n", uid)
		return
	}
	red.Fprintf(w, "✗ %s: %s\n", uid, errText)
}

// Summary prints the final counts of a run.
func Summary(w io.Writer, total, success, failed int) {
	bold.Fprintln(w, "Summary")
	fmt.Fprintf(w, "  total:   %d\n", total)
	green.Fprintf(w, "  success: %d\n", success)
	if failed > 0 {
		red.Fprintf(w, "  failed:  %d\n", failed)
	} else {
		fmt.Fprintf(w, "  failed:  %d\n", failed)
	}
}

// Failures enumerates failed UIDs with their error text so the reader can
// decide what to retry.
func Failures(w io.Writer, failures map[string]string, uids []string) {
	if len(uids) == 0 {
		return
	}
	red.Fprintf(w, "Failed (%d):\n", len(uids))
	for _, uid := range uids {
		fmt.Fprintf(w, "  %s: %s\n", uid, failures[uid])
	}
}

// Warn prints a yellow advisory line.
func Warn(w io.Writer, format string, a ...any) {
	yellow.Fprintf(w, format, a...)
}
