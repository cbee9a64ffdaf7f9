package priority_test

import (
	"errors"
	"os"
	"strconv"
	"strings"
	"testing"

	"golang.org/x/sys/unix"

	"batimgcon/priority"
)

// niceOf reads the nice value of the process from /proc/self/stat.
func niceOf(t *testing.T) int {
	t.Helper()
	data, err := os.ReadFile("/proc/self/stat")
	if err != nil {
		t.Skipf("read /proc/self/stat: %v", err)
	}
	// Fields after the parenthesised command name; nice is field 19 overall.
	rest := string(data[strings.LastIndexByte(string(data), ')')+2:])
	fields := strings.Fields(rest)
	nice, err := strconv.Atoi(fields[16])
	if err != nil {
		t.Fatalf("parse nice: %v", err)
	}
	return nice
}

func TestDefaultLowersNiceValue(t *testing.T) {
	if niceOf(t) > priority.Niceness {
		t.Skip("process already runs below the target priority")
	}

	if err := priority.Default().Lower(); err != nil {
		if errors.Is(err, unix.EACCES) || errors.Is(err, unix.EPERM) {
			t.Skipf("not permitted here: %v", err)
		}
		t.Fatalf("Lower: %v", err)
	}

	if got := niceOf(t); got != priority.Niceness {
		t.Fatalf("nice = %d, want %d", got, priority.Niceness)
	}
}

// Runs after TestDefaultLowersNiceValue: it leaves the process at a
// higher nice value.
func TestDefaultKeepsHigherNiceValue(t *testing.T) {
	target := priority.Niceness + 5
	entries, err := os.ReadDir("/proc/self/task")
	if err != nil {
		t.Skipf("read /proc/self/task: %v", err)
	}
	for _, e := range entries {
		tid, err := strconv.Atoi(e.Name())
		if err != nil {
			continue
		}
		if err := unix.Setpriority(unix.PRIO_PROCESS, tid, target); err != nil && err != unix.ESRCH {
			t.Skipf("cannot raise nice value here: %v", err)
		}
	}
	if niceOf(t) != target {
		t.Skip("nice value did not change")
	}

	if err := priority.Default().Lower(); err != nil {
		t.Fatalf("Lower on an already lowered process: %v", err)
	}
	if got := niceOf(t); got != target {
		t.Fatalf("nice = %d, want it kept at %d", got, target)
	}
}
