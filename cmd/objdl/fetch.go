package main

import (
	"flag"
	"fmt"
	"os"

	"github.com/17khba/objaverse-download/internal/config"
	"github.com/17khba/objaverse-download/internal/printer"
	"github.com/17khba/objaverse-download/internal/runlog"
)

func runFetch(args []string) int {
	fs := flag.NewFlagSet("fetch", flag.ExitOnError)

	output := fs.String("output", "", "Output directory or bucket URL")
	workers := fs.Int("workers", 0, "Number of parallel workers")
	logFile := fs.String("log-file", "", "Write a run log to this path")
	fromFailedLog := fs.String("from-failed-log", "", "Take UIDs still failed in this retry log")
	configPath := fs.String("config", "", "Path to YAML config file")

	fs.Usage = func() {
		fmt.Fprintln(os.Stderr, `Usage: objdl fetch [options] [uid ...]

Download an explicit list of UIDs into the output layout. With
-from-failed-log, the UID list is taken from the entries of a retry log
that remained failed.

Options:`)
		fs.PrintDefaults()
	}

	if err := fs.Parse(args); err != nil {
		return ExitInvalidArgs
	}

	uids := fs.Args()
	uidsArg := any(uids)

	if *fromFailedLog != "" {
		retryLog, err := runlog.LoadRetryLog(*fromFailedLog)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			return ExitGeneralError
		}
		uids = retryLog.FailedUIDs()
		uidsArg = "from_log:" + *fromFailedLog
		fmt.Fprintf(os.Stderr, "[objdl] %d failed UIDs taken from %s\n", len(uids), *fromFailedLog)
	}

	if len(uids) == 0 {
		fmt.Fprintln(os.Stderr, "Error: no UIDs to fetch")
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

	results, err := runner.Process(ctx, uids, cfg.Workers, func(uid string, o runlog.Outcome) {
		printer.Item(os.Stdout, uid, !o.Failed(), o.Err)
	})
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return ExitSourceError
	}

	log := runlog.New(map[string]any{
		"uids":    uidsArg,
		"output":  cfg.Output,
		"workers": cfg.Workers,
	}, results)

	if *logFile != "" {
		if err := runlog.Save(*logFile, log); err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			return ExitStorageError
		}
		fmt.Fprintf(os.Stderr, "[objdl] Run log saved to %s\n", *logFile)
	}

	printShardResult(log)
	if log.Summary.Failed > 0 {
		return ExitItemsFailed
	}
	return ExitSuccess
}
