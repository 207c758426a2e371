// Package progress provides a per-item progress reporter for batch runs.
//
// Workers report item transitions through atomic counters; a background
// loop renders a single updating status line with counts, rate, and ETA.
// Stop blocks until the final status has been printed.
package progress
