//go:build unix && !linux

package priority

import (
	"fmt"

	"golang.org/x/sys/unix"
)

func lower() error {
	// The BSD getpriority returns the nice value itself.
	if nice, err := unix.Getpriority(unix.PRIO_PROCESS, 0); err == nil && nice >= Niceness {
		return nil
	}
	if err := unix.Setpriority(unix.PRIO_PROCESS, 0, Niceness); err != nil {
		return fmt.Errorf("setpriority: %w", err)
	}
	return nil
}
