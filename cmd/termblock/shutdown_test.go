package main

import (
	"context"
	"errors"
	"os"
	"reflect"
	"sync/atomic"
	"syscall"
	"testing"
	"time"
)

func TestShutdownSequenceRunsInOrderOnce(t *testing.T) {
	sequence := newShutdownSequence(nil)
	order := []string{}

	sequence.Add("first", func(context.Context) error {
		order = append(order, "first")
		return nil
	})
	sequence.Add("second", func(context.Context) error {
		order = append(order, "second")
		return errors.New("fail")
	})
	sequence.Add("third", func(context.Context) error {
		order = append(order, "third")
		return nil
	})
	sequence.Add("ignored", nil)

	if err := sequence.Run(context.Background()); err == nil {
		t.Fatalf("expected shutdown error")
	}
	if err := sequence.Run(context.Background()); err != nil {
		t.Fatalf("second run should be a no-op, got %v", err)
	}

	expected := []string{"first", "second", "third"}
	if !reflect.DeepEqual(order, expected) {
		t.Fatalf("expected order %v, got %v", expected, order)
	}
}

func TestWatchShutdownSignalsCancelsOnce(t *testing.T) {
	signalCh := make(chan os.Signal, 2)
	var cancels atomic.Int32
	cancelled := make(chan struct{})
	stop := watchShutdownSignals(nil, func() {
		if cancels.Add(1) == 1 {
			close(cancelled)
		}
	}, signalCh)
	defer stop()

	signalCh <- os.Interrupt
	signalCh <- syscall.SIGTERM

	select {
	case <-cancelled:
	case <-time.After(time.Second):
		t.Fatalf("expected cancel on first signal")
	}
	time.Sleep(20 * time.Millisecond)
	if got := cancels.Load(); got != 1 {
		t.Fatalf("expected exactly one cancel, got %d", got)
	}
	stop()
}

func TestWatchShutdownSignalsNilChannel(t *testing.T) {
	stop := watchShutdownSignals(nil, func() {
		t.Fatalf("cancel must not be called")
	}, nil)
	stop()
}
