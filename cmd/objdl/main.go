package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"

	"github.com/17khba/objaverse-download/internal/batch"
	"github.com/17khba/objaverse-download/internal/config"
	"github.com/17khba/objaverse-download/internal/source"
	"github.com/17khba/objaverse-download/internal/store"
)

// Exit codes
const (
	ExitSuccess      = 0
	ExitGeneralError = 1
	ExitInvalidArgs  = 2
	ExitSourceError  = 3
	ExitStorageError = 4
	ExitItemsFailed  = 5
)

func main() {
	os.Exit(run(os.Args[1:]))
}

func run(args []string) int {
	if len(args) == 0 {
		printUsage()
		return ExitInvalidArgs
	}

	command := args[0]
	cmdArgs := args[1:]

	switch command {
	case "shard":
		return runShard(cmdArgs)
	case "fetch":
		return runFetch(cmdArgs)
	case "retry":
		return runRetry(cmdArgs)
	case "filter":
		return runFilter(cmdArgs)
	case "help", "-h", "--help":
		printUsage()
		return ExitSuccess
	default:
		fmt.Fprintf(os.Stderr, "Unknown command: %s\n", command)
		printUsage()
		return ExitInvalidArgs
	}
}

func printUsage() {
	fmt.Fprintln(os.Stderr, `Usage: objdl <command> [options]

Commands:
  shard   Download an index range of the corpus into the output layout
  fetch   Download an explicit list of UIDs
  retry   Re-attempt the failed UIDs recorded in a run log
  filter  Partition a run log into success/failure subsets and triage it

Run 'objdl <command> -h' for command-specific help.`)
}

// signalContext returns a context cancelled on SIGINT/SIGTERM.
func signalContext() (context.Context, context.CancelFunc) {
	ctx, cancel := context.WithCancel(context.Background())

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-sigCh
		fmt.Fprintln(os.Stderr, "\n[objdl] Received interrupt, shutting down...")
		cancel()
	}()

	return ctx, cancel
}

// loadConfig composes defaults, an optional config file, and environment
// overrides.
func loadConfig(path string) (config.Config, error) {
	cfg := config.Default()
	if path != "" {
		fileCfg, err := config.LoadFromFile(path)
		if err != nil {
			return config.Config{}, err
		}
		cfg = fileCfg
	}
	if err := cfg.LoadFromEnv(); err != nil {
		return config.Config{}, err
	}
	return cfg, nil
}

// buildRunner wires the corpus source and artifact store into a batch
// runner. The caller must close the returned store.
func buildRunner(ctx context.Context, cfg config.Config) (*batch.Runner, *store.Store, error) {
	src, err := source.NewHTTPSource(source.HTTPOptions{
		BaseURL:  cfg.SourceURL,
		CacheDir: cfg.CacheDir,
	})
	if err != nil {
		return nil, nil, err
	}

	st, err := store.Open(ctx, cfg.Output, store.Options{})
	if err != nil {
		return nil, nil, err
	}

	return &batch.Runner{
		Source:      src,
		Store:       st,
		ItemTimeout: cfg.ItemTimeout,
	}, st, nil
}

// logPathFor places a log file next to the output when the output is a
// local directory; bucket-URL outputs get the log in the working directory.
func logPathFor(output, name string) string {
	if strings.Contains(output, "://") {
		return name
	}
	return filepath.Join(output, name)
}
