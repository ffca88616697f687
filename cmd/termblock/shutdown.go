package main

import (
	"context"
	"errors"
	"os"
	"sync"
	"sync/atomic"

	"termblock/internal/logging"
)

type shutdownPhase struct {
	name string
	stop func(context.Context) error
}

// shutdownSequence runs teardown phases once, in registration order.
type shutdownSequence struct {
	logger *logging.Logger
	once   sync.Once
	phases []shutdownPhase
}

func newShutdownSequence(logger *logging.Logger) *shutdownSequence {
	return &shutdownSequence{logger: logger}
}

func (s *shutdownSequence) Add(name string, stop func(context.Context) error) {
	if s == nil || stop == nil {
		return
	}
	s.phases = append(s.phases, shutdownPhase{name: name, stop: stop})
}

func (s *shutdownSequence) Run(ctx context.Context) error {
	if s == nil {
		return nil
	}
	var runErr error
	s.once.Do(func() {
		for _, phase := range s.phases {
			if s.logger != nil {
				s.logger.Info("shutdown phase starting", map[string]string{
					"phase": phase.name,
				})
			}
			if err := phase.stop(ctx); err != nil {
				runErr = errors.Join(runErr, err)
				if s.logger != nil {
					s.logger.Warn("shutdown phase failed", map[string]string{
						"phase": phase.name,
						"error": err.Error(),
					})
				}
			}
		}
	})
	return runErr
}

// watchShutdownSignals cancels on the first signal and logs, once, that later
// signals are ignored. The returned func stops the watcher.
func watchShutdownSignals(logger *logging.Logger, shutdownCancel context.CancelFunc, signalCh <-chan os.Signal) func() {
	if signalCh == nil {
		return func() {}
	}

	done := make(chan struct{})
	var shutdownStarted atomic.Bool
	var loggedRepeat atomic.Bool

	go func() {
		for {
			select {
			case <-done:
				return
			case sig, ok := <-signalCh:
				if !ok {
					return
				}
				fields := map[string]string{}
				if sig != nil {
					fields["signal"] = sig.String()
				}
				if shutdownStarted.CompareAndSwap(false, true) {
					if logger != nil {
						logger.Info("shutdown signal received", fields)
					}
					if shutdownCancel != nil {
						shutdownCancel()
					}
					continue
				}
				if loggedRepeat.CompareAndSwap(false, true) && logger != nil {
					logger.Info("shutdown already in progress; ignoring signal", fields)
				}
			}
		}
	}()

	var stopOnce sync.Once
	return func() {
		stopOnce.Do(func() {
			close(done)
		})
	}
}
