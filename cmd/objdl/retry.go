package main

import (
	"flag"
	"fmt"
	"os"

	"github.com/17khba/objaverse-download/internal/batch"
	"github.com/17khba/objaverse-download/internal/config"
	"github.com/17khba/objaverse-download/internal/printer"
	"github.com/17khba/objaverse-download/internal/runlog"
)

func runRetry(args []string) int {
	fs := flag.NewFlagSet("retry", flag.ExitOnError)

	output := fs.String("output", "", "Output directory (default: the original run's)")
	maxRetries := fs.Int("max-retries", 0, "Maximum attempts per UID")
	retryDelay := fs.Duration("retry-delay", 0, "Fixed delay between attempts")
	listOnly := fs.Bool("list-only", false, "List failed UIDs without retrying")
	configPath := fs.String("config", "", "Path to YAML config file")

	fs.Usage = func() {
		fmt.Fprintln(os.Stderr, `Usage: objdl retry [options] <log-file>

Re-attempt every failed UID recorded in a run log, with bounded retries
and a fixed inter-attempt delay. Writes a retry log chained to the
original next to it.

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

	failed := log.FailedUIDs()
	fmt.Fprintf(os.Stderr, "[objdl] %d failed UIDs in %s\n", len(failed), logPath)

	if *listOnly {
		for _, uid := range failed {
			fmt.Printf("%s: %s\n", uid, log.Results[uid].Err)
		}
		return ExitSuccess
	}

	cfg, err := loadConfig(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return ExitGeneralError
	}

	// Output resolution: explicit flag, else the original run's recorded
	// output directory, else the configured default.
	resolvedOutput := *output
	if resolvedOutput == "" {
		if v, ok := log.Args["output"].(string); ok && v != "" {
			resolvedOutput = v
		}
	}
	cfg = cfg.Merge(config.Config{
		Output: resolvedOutput,
		Retry: config.RetryConfig{
			MaxRetries: *maxRetries,
			Delay:      *retryDelay,
		},
	})
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

	retryLog, err := runner.Retry(ctx, log, logPath, batch.RetryOptions{
		MaxRetries: cfg.Retry.MaxRetries,
		Delay:      cfg.Retry.Delay,
		Args: map[string]any{
			"log_file":    logPath,
			"output":      cfg.Output,
			"max_retries": cfg.Retry.MaxRetries,
			"retry_delay": cfg.Retry.Delay.String(),
		},
		Log: os.Stderr,
	})
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return ExitSourceError
	}

	retryLogPath := runlog.RetryLogName(logPath)
	if err := runlog.Save(retryLogPath, retryLog); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return ExitStorageError
	}
	fmt.Fprintf(os.Stderr, "[objdl] Retry log saved to %s\n", retryLogPath)

	printer.Summary(os.Stdout, retryLog.Summary.Total, retryLog.Summary.Success, retryLog.Summary.Failed)

	stillFailed := retryLog.FailedUIDs()
	if len(stillFailed) > 0 {
		failures := make(map[string]string, len(stillFailed))
		for _, uid := range stillFailed {
			failures[uid] = retryLog.Results[uid].FinalError
		}
		printer.Failures(os.Stdout, failures, stillFailed)
		return ExitItemsFailed
	}
	return ExitSuccess
}
