//go:build unix

package interrupt_test

import (
	"context"
	"os"
	"syscall"
	"testing"
	"time"

	"batimgcon/interrupt"
)

func TestArmHandlesSignal(t *testing.T) {
	notified := make(chan os.Signal, 1)
	c := interrupt.Arm(context.Background(), func(sig os.Signal) { notified <- sig }, syscall.SIGUSR1)
	defer c.Stop()

	if err := syscall.Kill(os.Getpid(), syscall.SIGUSR1); err != nil {
		t.Fatalf("kill: %v", err)
	}

	select {
	case sig := <-notified:
		if sig != syscall.SIGUSR1 {
			t.Fatalf("unexpected signal %v", sig)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("signal not delivered")
	}

	select {
	case <-c.Context().Done():
	case <-time.After(5 * time.Second):
		t.Fatal("context not cancelled")
	}
}
