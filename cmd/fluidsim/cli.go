package main

import (
	"errors"
	"flag"
	"fmt"
	"io"
	"strings"

	"github.com/TheFellow/fluid/internal/config"
	"github.com/TheFellow/fluid/internal/logging"
)

// ExitError carries the process exit code for a failed run.
type ExitError struct {
	Code    int
	Message string
}

func (e *ExitError) Error() string {
	return e.Message
}

type cliOptions struct {
	configPath string
	cpuProfile string

	ticks     int
	out       string
	reference bool
	logLevel  string
	logFormat string

	// set holds the names of flags given explicitly; only those override the
	// config file.
	set map[string]bool
}

// parseArgs processes command-line arguments. It reports whether the program
// should exit cleanly, as it does after -h.
func parseArgs(args []string, output io.Writer) (*cliOptions, bool, error) {
	fs := flag.NewFlagSet("fluidsim", flag.ContinueOnError)
	fs.SetOutput(output)
	fs.Usage = func() {
		fmt.Fprint(output, `
fluidsim - headless stable-fluids smoke simulation.

Usage:
  fluidsim [options] [CONFIG_PATH]

Arguments:
  CONFIG_PATH
    Path to an .hcl run description. Built-in defaults are used without one.

Options:
`)
		fs.PrintDefaults()
	}

	opts := &cliOptions{set: map[string]bool{}}
	fs.StringVar(&opts.configPath, "config", "", "Path to the run description.")
	fs.StringVar(&opts.cpuProfile, "cpuprofile", "", "Write a CPU profile to this file.")
	fs.IntVar(&opts.ticks, "ticks", 0, "Number of ticks to simulate (overrides the config).")
	fs.StringVar(&opts.out, "out", "", "Snapshot directory (overrides the config).")
	fs.BoolVar(&opts.reference, "reference", false, "Cross-check against the reference solver (2D only).")
	fs.StringVar(&opts.logLevel, "log-level", "", "Logging level. Options: 'debug', 'info', 'warn', 'error'.")
	fs.StringVar(&opts.logFormat, "log-format", "", "Log output format. Options: 'text' or 'json'.")

	if err := fs.Parse(args); err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return nil, true, nil
		}
		return nil, false, &ExitError{Code: 2, Message: err.Error()}
	}
	fs.Visit(func(f *flag.Flag) { opts.set[f.Name] = true })

	if opts.configPath == "" && fs.NArg() > 0 {
		opts.configPath = fs.Arg(0)
	}
	if fs.NArg() > 1 {
		return nil, false, &ExitError{Code: 2, Message: "at most one config path may be given"}
	}

	if opts.set["log-format"] {
		opts.logFormat = strings.ToLower(opts.logFormat)
		if opts.logFormat != "text" && opts.logFormat != "json" {
			return nil, false, &ExitError{Code: 2, Message: "invalid log-format: must be 'text' or 'json'"}
		}
	}
	if opts.set["log-level"] {
		if _, err := logging.ParseLevel(opts.logLevel); err != nil {
			return nil, false, &ExitError{Code: 2, Message: err.Error()}
		}
	}
	return opts, false, nil
}

// resolve loads the config file, if any, and applies flag overrides.
func (o *cliOptions) resolve() (config.Config, error) {
	cfg := config.Default()
	if o.configPath != "" {
		var err error
		if cfg, err = config.Load(o.configPath); err != nil {
			return config.Config{}, &ExitError{Code: 2, Message: err.Error()}
		}
	}
	if o.set["ticks"] {
		cfg.Run.Ticks = o.ticks
	}
	if o.set["out"] {
		cfg.Run.Output = o.out
	}
	if o.set["reference"] {
		cfg.Run.Reference = o.reference
	}
	if o.set["log-level"] {
		cfg.Log.Level = o.logLevel
	}
	if o.set["log-format"] {
		cfg.Log.Format = o.logFormat
	}
	if err := cfg.Validate(); err != nil {
		return config.Config{}, &ExitError{Code: 2, Message: err.Error()}
	}
	return cfg, nil
}
