package main

import (
	"flag"
	"fmt"
	"os"

	"github.com/17khba/objaverse-download/internal/batch"
	"github.com/17khba/objaverse-download/internal/config"
	"github.com/17khba/objaverse-download/internal/printer"
	"github.com/17khba/objaverse-download/internal/progress"
	"github.com/17khba/objaverse-download/internal/runlog"
)

func runShard(args []string) int {
	fs := flag.NewFlagSet("shard", flag.ExitOnError)

	start := fs.Int("start", -1, "Start index of the shard (required)")
	end := fs.Int("end", -1, "End index of the shard, exclusive (required)")
	output := fs.String("output", "", "Output directory or bucket URL")
	workers := fs.Int("workers", 0, "Number of parallel workers")
	filter := fs.String("filter", "", "Storage-path prefix filter, e.g. '000-000'")
	dryRun := fs.Bool("dry-run", false, "Report what would be downloaded without downloading")
	configPath := fs.String("config", "", "Path to YAML config file")

	fs.Usage = func() {
		fmt.Fprintln(os.Stderr, `Usage: objdl shard [options]

Download the [start, end) index range of the corpus enumeration into the
output layout and write a run log next to the output.

Options:`)
		fs.PrintDefaults()
	}

	if err := fs.Parse(args); err != nil {
		return ExitInvalidArgs
	}

	if *start < 0 || *end < 0 {
		fmt.Fprintln(os.Stderr, "Error: -start and -end are required")
		fs.Usage()
		return ExitInvalidArgs
	}

	cfg, err := loadConfig(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return ExitGeneralError
	}
	cfg = cfg.Merge(config.Config{Output: *output, Workers: *workers})
	if err := cfg.Validate(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return ExitInvalidArgs
	}

	ctx, cancel := signalContext()
	defer cancel()

	runner, st, err := buildRunner(ctx, cfg)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return ExitStorageError
	}
	defer st.Close()

	shardUIDs, universe, err := runner.SelectShard(ctx, *start, *end, *filter)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return ExitSourceError
	}

	if *dryRun {
		fmt.Printf("Dry run:\n")
		fmt.Printf("  universe:   %d\n", universe)
		fmt.Printf("  range:      [%d, %d)\n", *start, *end)
		fmt.Printf("  shard size: %d\n", len(shardUIDs))
		fmt.Printf("  output:     %s\n", cfg.Output)
		fmt.Printf("  workers:    %d\n", cfg.Workers)
		if *filter != "" {
			fmt.Printf("  filter:     %s\n", *filter)
		}
		return ExitSuccess
	}

	reporter := progress.NewReporter(progress.Options{
		TotalItems: len(shardUIDs),
		Workers:    cfg.Workers,
		Label:      fmt.Sprintf("shard %d-%d", *start, *end),
	})
	reporter.Start()

	log, err := runner.RunShard(ctx, batch.ShardOptions{
		Start:        *start,
		End:          *end,
		FilterPrefix: *filter,
		Workers:      cfg.Workers,
		Args: map[string]any{
			"start":   *start,
			"end":     *end,
			"output":  cfg.Output,
			"workers": cfg.Workers,
			"filter":  *filter,
		},
		OnOutcome: func(uid string, o runlog.Outcome) {
			if o.Failed() {
				reporter.ItemFailed()
			} else {
				reporter.ItemSucceeded()
			}
		},
	})
	reporter.Stop()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return ExitSourceError
	}

	logPath := logPathFor(cfg.Output, runlog.ShardLogName(*start, *end))
	if err := runlog.Save(logPath, log); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return ExitStorageError
	}
	fmt.Fprintf(os.Stderr, "[objdl] Run log saved to %s\n", logPath)

	printShardResult(log)
	if log.Summary.Failed > 0 {
		return ExitItemsFailed
	}
	return ExitSuccess
}

func printShardResult(log *runlog.RunLog) {
	printer.Summary(os.Stdout, log.Summary.Total, log.Summary.Success, log.Summary.Failed)

	failures := make(map[string]string)
	for uid, o := range log.Results {
		if o.Failed() {
			failures[uid] = o.Err
		}
	}
	printer.Failures(os.Stdout, failures, log.FailedUIDs())
}
