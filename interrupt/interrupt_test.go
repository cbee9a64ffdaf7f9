package interrupt_test

import (
	"context"
	"errors"
	"os"
	"sync/atomic"
	"syscall"
	"testing"

	"batimgcon/interrupt"
)

func TestInterruptIsOneShot(t *testing.T) {
	var notices atomic.Int32
	c := interrupt.New(context.Background(), func(os.Signal) { notices.Add(1) })

	if c.Interrupted() {
		t.Fatal("new coordinator should be armed")
	}
	if c.Context().Err() != nil {
		t.Fatal("context cancelled before interrupt")
	}

	c.Interrupt(os.Interrupt)
	c.Interrupt(os.Interrupt)
	c.Interrupt(syscall.SIGTERM)

	if !c.Interrupted() {
		t.Fatal("expected interrupted state")
	}
	if notices.Load() != 1 {
		t.Fatalf("notice fired %d times", notices.Load())
	}
	if !errors.Is(context.Cause(c.Context()), interrupt.ErrInterrupted) {
		t.Fatalf("unexpected cause %v", context.Cause(c.Context()))
	}
}

func TestStopKeepsInterruptedState(t *testing.T) {
	c := interrupt.New(context.Background(), nil)
	c.Interrupt(nil)
	c.Stop()
	c.Stop()

	if !c.Interrupted() {
		t.Fatal("state must persist after Stop")
	}
}
