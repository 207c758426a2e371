// Package printer renders colored per-item indicators and run summaries
// for the CLI. Color is handled by fatih/color, which honors NO_COLOR and
// non-TTY output on its own.
package printer
