package main

import (
	"flag"
	"fmt"
	"os"

	"github.com/17khba/objaverse-download/internal/printer"
	"github.com/17khba/objaverse-download/internal/runlog"
)

func runFilter(args []string) int {
	fs := flag.NewFlagSet("filter", flag.ExitOnError)

	output := fs.String("output", "", "Output path for the filtered log (default: derived)")
	keepSuccess := fs.Bool("keep-success", false, "Keep success records instead of failures")
	showFailed := fs.Bool("show-failed", false, "Show failure details grouped by error, then exit")
	suggestRetry := fs.Bool("suggest-retry", false, "Print a suggested retry plan for the failures")

	fs.Usage = func() {
		fmt.Fprintln(os.Stderr, `Usage: objdl filter [options] <log-file>

Partition a run log by outcome and write the requested partition as a new
log with provenance counts. By default failures are kept, ready to feed
into 'objdl retry'.

Options:`)
		fs.PrintDefaults()
	}

	if err := fs.Parse(args); err != nil {
		return ExitInvalidArgs
	}

	if fs.NArg() != 1 {
		fmt.Fprintln(os.Stderr, "Error: exactly one log file is required")
		fs.Usage()
		return ExitInvalidArgs
	}
	logPath := fs.Arg(0)

	log, err := runlog.Load(logPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return ExitGeneralError
	}

	if *showFailed {
		groups := runlog.GroupFailures(log)
		if len(groups) == 0 {
			fmt.Println("No failed records")
			return ExitSuccess
		}
		for _, g := range groups {
			fmt.Printf("Error: %s\n", g.Error)
			fmt.Printf("Affected UIDs: %d\n", len(g.UIDs))
			for _, uid := range g.UIDs {
				fmt.Printf("  %s\n", uid)
			}
			fmt.Println()
		}
		return ExitSuccess
	}

	filtered := runlog.Filter(log, logPath, *keepSuccess)

	outPath := *output
	if outPath == "" {
		outPath = runlog.FilteredLogName(logPath, *keepSuccess)
	}
	if err := runlog.Save(outPath, filtered); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return ExitStorageError
	}

	fmt.Printf("Original records: %d (success %d, failed %d)\n",
		filtered.Summary.OriginalTotal,
		filtered.Summary.OriginalSuccess,
		filtered.Summary.OriginalFailed,
	)
	fmt.Printf("Kept %s records: %d\n", filtered.FilterType, filtered.Summary.Total)
	fmt.Printf("Filtered log saved to %s\n", outPath)

	if *suggestRetry && !*keepSuccess {
		plan := runlog.SuggestRetry(filtered, outPath)
		fmt.Println("\nRetry plan:")
		fmt.Printf("  failed UIDs:  %d\n", plan.TotalFailed)
		fmt.Printf("  output:       %s\n", plan.OutputDir)
		printer.Warn(os.Stdout, "  workers:      %d (halved for stability)\n", plan.Workers)
		fmt.Printf("  max retries:  %d\n", plan.MaxRetries)
		fmt.Printf("  retry delay:  %s\n", plan.RetryDelay)
		fmt.Printf("  command:      %s\n", plan.Command)
	}

	return ExitSuccess
}
