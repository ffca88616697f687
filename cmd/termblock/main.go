package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/spf13/pflag"

	"termblock/internal/api"
	"termblock/internal/config"
	"termblock/internal/coordinator"
	"termblock/internal/editor"
	"termblock/internal/livesync"
	"termblock/internal/logging"
	"termblock/internal/version"
)

func main() {
	os.Exit(run(os.Args[1:], os.Getenv, os.Stdout, os.Stderr))
}

func run(args []string, getenv func(string) string, stdout, stderr io.Writer) int {
	cfg, err := loadConfig(args, getenv, stdout)
	if errors.Is(err, pflag.ErrHelp) || errors.Is(err, errVersionRequested) {
		return 0
	}
	if err != nil {
		fmt.Fprintf(stderr, "termblock: %v\n", err)
		return 2
	}

	logger := logging.NewLoggerWithOutput(logging.NewLogBuffer(logging.DefaultBufferSize), cfg.Level(), stderr)
	logger.Info("termblock starting", map[string]string{
		"version": version.Get().String(),
	})
	logConfigSources(logger, cfg)

	app, err := newApp(cfg, logger, appOptions{})
	if err != nil {
		logger.Error("startup failed", map[string]string{
			"error": err.Error(),
		})
		return 1
	}

	listener, err := net.Listen("tcp", cfg.Listen)
	if err != nil {
		logger.Error("listen failed", map[string]string{
			"addr":  cfg.Listen,
			"error": err.Error(),
		})
		_ = app.Close()
		return 1
	}

	stopCtx, stopCancel := context.WithCancel(context.Background())
	defer stopCancel()
	signalCh := make(chan os.Signal, 2)
	signal.Notify(signalCh, os.Interrupt, syscall.SIGTERM)
	defer signal.Stop(signalCh)
	stopSignals := watchShutdownSignals(logger, stopCancel, signalCh)
	defer stopSignals()

	logger.Info("termblock listening", map[string]string{
		"addr":   listener.Addr().String(),
		"editor": app.editor.Command(),
	})

	serveErr := newAPIServer(app.handler, listener, logger).Run(stopCtx)

	shutdown := newShutdownSequence(logger)
	shutdown.Add("editor", func(context.Context) error {
		return app.Close()
	})
	shutdownCtx, cancel := context.WithTimeout(context.Background(), apiShutdownTimeout)
	defer cancel()
	if err := shutdown.Run(shutdownCtx); err != nil {
		return 1
	}
	if serveErr != nil {
		return 1
	}
	return 0
}

type appOptions struct {
	ptyFactory    editor.PtyFactory
	skipShellPath bool
}

type app struct {
	editor      *editor.Manager
	bridge      *livesync.Bridge
	coordinator *coordinator.Coordinator
	handler     http.Handler
}

func newApp(cfg config.Config, logger *logging.Logger, opts appOptions) (*app, error) {
	manager := editor.NewManager(editor.ManagerOptions{
		Command:       cfg.Editor,
		Shell:         cfg.Shell,
		FallbackDirs:  cfg.FallbackDirs,
		Cols:          cfg.Cols,
		Rows:          cfg.Rows,
		PtyFactory:    opts.ptyFactory,
		Logger:        logger,
		KillTimeout:   cfg.KillTimeout,
		SkipShellPath: opts.skipShellPath,
	})

	bridge, err := livesync.New(livesync.Options{
		Logger:   logger,
		Debounce: cfg.Debounce,
	})
	if err != nil {
		return nil, err
	}

	coord, err := coordinator.New(coordinator.Options{
		Editor:  manager,
		Watcher: bridge,
		Logger:  logger,
	})
	if err != nil {
		_ = bridge.Close()
		return nil, err
	}

	mux := http.NewServeMux()
	api.RegisterRoutes(mux, coord, api.Options{
		AuthToken:      cfg.AuthToken,
		AllowedOrigins: cfg.AllowedOrigins,
		Logger:         logger,
	})

	return &app{
		editor:      manager,
		bridge:      bridge,
		coordinator: coord,
		handler:     mux,
	}, nil
}

func (a *app) Close() error {
	return a.coordinator.Close()
}

func logConfigSources(logger *logging.Logger, cfg config.Config) {
	if logger == nil {
		return
	}
	keys := []string{"editor", "shell", "listen", "auth_token", "log_level", "debounce", "kill_timeout", "cols", "rows"}
	overridden := []string{}
	for _, key := range keys {
		if source := cfg.Source(key); source != config.SourceDefault {
			overridden = append(overridden, key+"="+string(source))
		}
	}
	if len(overridden) > 0 {
		logger.Debug("config overrides", map[string]string{
			"sources": strings.Join(overridden, " "),
		})
	}
}
