// Command fluidsim runs a smoke simulation without a window and writes PNG
// snapshots of its fields.
package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"

	"github.com/TheFellow/fluid/internal/logging"
)

func main() {
	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level: slog.LevelInfo,
	})))

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	if err := run(ctx, os.Stdout, os.Args[1:]); err != nil {
		var exitErr *ExitError
		if errors.As(err, &exitErr) {
			fmt.Fprintln(os.Stderr, exitErr.Message)
			stop()
			os.Exit(exitErr.Code)
		}
		fmt.Fprintln(os.Stderr, err)
		stop()
		os.Exit(1)
	}
}

// run is main without the process exit, so it can be driven from tests.
func run(ctx context.Context, outW io.Writer, args []string) error {
	opts, shouldExit, err := parseArgs(args, outW)
	if err != nil {
		return err
	}
	if shouldExit {
		return nil
	}
	cfg, err := opts.resolve()
	if err != nil {
		return err
	}

	logger := logging.New(cfg.Log.Level, cfg.Log.Format, outW)

	if opts.cpuProfile != "" {
		stopProfile, err := startCPUProfile(opts.cpuProfile)
		if err != nil {
			return fmt.Errorf("failed to start CPU profile: %w", err)
		}
		defer stopProfile()
		logger.Info("CPU profiling enabled.", "path", opts.cpuProfile)
	}

	return simulate(ctx, logger, cfg)
}
