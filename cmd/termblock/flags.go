package main

import (
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/spf13/pflag"

	"termblock/internal/config"
	"termblock/internal/version"
)

type flagValues struct {
	ConfigPath     string
	Editor         string
	Shell          string
	FallbackDirs   []string
	Listen         string
	Token          string
	AllowedOrigins []string
	LogLevel       string
	Debounce       time.Duration
	KillTimeout    time.Duration
	Cols           uint16
	Rows           uint16
	Verbose        bool
	Version        bool
	Set            map[string]bool
}

func newFlagSet(values *flagValues, defaults config.Config, out io.Writer) *pflag.FlagSet {
	fs := pflag.NewFlagSet("termblock", pflag.ContinueOnError)
	fs.SetOutput(io.Discard)
	fs.SortFlags = false

	fs.StringVar(&values.ConfigPath, "config", config.DefaultPath(), "YAML config file")
	fs.StringVar(&values.Editor, "editor", defaults.Editor, "editor command (env: TERMBLOCK_EDITOR, EDITOR)")
	fs.StringVar(&values.Shell, "shell", defaults.Shell, "login shell used to discover PATH (env: TERMBLOCK_SHELL)")
	fs.StringSliceVar(&values.FallbackDirs, "fallback-dir", nil, "extra directory to search for the editor (repeatable)")
	fs.StringVarP(&values.Listen, "listen", "l", defaults.Listen, "HTTP listen address (env: TERMBLOCK_LISTEN)")
	fs.StringVar(&values.Token, "token", "", "auth token for REST and websockets (env: TERMBLOCK_TOKEN)")
	fs.StringSliceVar(&values.AllowedOrigins, "allowed-origin", nil, "allowed websocket origin (repeatable)")
	fs.StringVar(&values.LogLevel, "log-level", defaults.LogLevel, "debug, info, warning or error (env: TERMBLOCK_LOG_LEVEL)")
	fs.DurationVar(&values.Debounce, "debounce", defaults.Debounce, "coalesce file events per path; negative disables (env: TERMBLOCK_DEBOUNCE)")
	fs.DurationVar(&values.KillTimeout, "kill-timeout", defaults.KillTimeout, "grace period before the editor is killed")
	fs.Uint16Var(&values.Cols, "cols", defaults.Cols, "initial editor columns")
	fs.Uint16Var(&values.Rows, "rows", defaults.Rows, "initial editor rows")
	fs.BoolVarP(&values.Verbose, "verbose", "v", false, "shorthand for --log-level=debug")
	fs.BoolVar(&values.Version, "version", false, "print version and exit")

	fs.Usage = func() {
		fmt.Fprintln(out, "Usage: termblock [options]")
		fmt.Fprintln(out, "")
		fmt.Fprintln(out, "Serve an embedded terminal editor whose saves stream back as document changes.")
		fmt.Fprintln(out, "")
		fmt.Fprintln(out, "Options:")
		fmt.Fprint(out, fs.FlagUsages())
	}
	return fs
}

func parseFlags(args []string, out io.Writer) (flagValues, error) {
	var values flagValues
	fs := newFlagSet(&values, config.Defaults(), out)
	if err := fs.Parse(args); err != nil {
		if errors.Is(err, pflag.ErrHelp) {
			return values, err
		}
		return values, fmt.Errorf("%w (see --help)", err)
	}
	if fs.NArg() > 0 {
		return values, fmt.Errorf("unexpected arguments: %s", strings.Join(fs.Args(), " "))
	}

	values.Set = make(map[string]bool)
	fs.Visit(func(flag *pflag.Flag) {
		values.Set[flag.Name] = true
	})
	return values, nil
}

var errVersionRequested = errors.New("version requested")

// loadConfig layers defaults, the config file, the environment and flags.
func loadConfig(args []string, getenv func(string) string, out io.Writer) (config.Config, error) {
	flags, err := parseFlags(args, out)
	if err != nil {
		return config.Config{}, err
	}
	if flags.Version {
		fmt.Fprintf(out, "termblock %s\n", version.Get())
		return config.Config{}, errVersionRequested
	}

	cfg, err := config.Load(flags.ConfigPath, flags.Set["config"], getenv)
	if err != nil {
		return config.Config{}, err
	}
	applyFlags(&cfg, flags)

	if err := cfg.Validate(); err != nil {
		return config.Config{}, fmt.Errorf("invalid configuration: %w", err)
	}
	return cfg, nil
}

func applyFlags(cfg *config.Config, flags flagValues) {
	if flags.Set["editor"] {
		cfg.Editor = flags.Editor
		cfg.MarkFlag("editor")
	}
	if flags.Set["shell"] {
		cfg.Shell = flags.Shell
		cfg.MarkFlag("shell")
	}
	if flags.Set["fallback-dir"] {
		cfg.FallbackDirs = flags.FallbackDirs
		cfg.MarkFlag("fallback_dirs")
	}
	if flags.Set["listen"] {
		cfg.Listen = flags.Listen
		cfg.MarkFlag("listen")
	}
	if flags.Set["token"] {
		cfg.AuthToken = flags.Token
		cfg.MarkFlag("auth_token")
	}
	if flags.Set["allowed-origin"] {
		cfg.AllowedOrigins = flags.AllowedOrigins
		cfg.MarkFlag("allowed_origins")
	}
	if flags.Set["log-level"] {
		cfg.LogLevel = flags.LogLevel
		cfg.MarkFlag("log_level")
	}
	if flags.Set["verbose"] && flags.Verbose {
		cfg.LogLevel = "debug"
		cfg.MarkFlag("log_level")
	}
	if flags.Set["debounce"] {
		cfg.Debounce = flags.Debounce
		cfg.MarkFlag("debounce")
	}
	if flags.Set["kill-timeout"] {
		cfg.KillTimeout = flags.KillTimeout
		cfg.MarkFlag("kill_timeout")
	}
	if flags.Set["cols"] {
		cfg.Cols = flags.Cols
		cfg.MarkFlag("cols")
	}
	if flags.Set["rows"] {
		cfg.Rows = flags.Rows
		cfg.MarkFlag("rows")
	}
}
