package priority

import (
	"fmt"
	"os"
	"strconv"

	"golang.org/x/sys/unix"
)

// On Linux the nice value belongs to each thread, so every thread the
// runtime has started so far is adjusted. Threads created later inherit it.
func lower() error {
	entries, err := os.ReadDir("/proc/self/task")
	if err != nil {
		if err := lowerThread(0); err != nil {
			return fmt.Errorf("setpriority: %w", err)
		}
		return nil
	}

	for _, e := range entries {
		tid, err := strconv.Atoi(e.Name())
		if err != nil {
			continue
		}
		if err := lowerThread(tid); err != nil {
			if err == unix.ESRCH {
				continue
			}
			return fmt.Errorf("setpriority thread %d: %w", tid, err)
		}
	}
	return nil
}

// lowerThread moves tid to Niceness unless it already runs at that nice
// value or lower priority.
func lowerThread(tid int) error {
	// The raw syscall result is 20 - nice.
	raw, err := unix.Getpriority(unix.PRIO_PROCESS, tid)
	if err != nil {
		return err
	}
	if 20-raw >= Niceness {
		return nil
	}
	return unix.Setpriority(unix.PRIO_PROCESS, tid, Niceness)
}
