package priority

import (
	"fmt"

	"golang.org/x/sys/windows"
)

func lower() error {
	process := windows.CurrentProcess()
	if class, err := windows.GetPriorityClass(process); err == nil && class == windows.IDLE_PRIORITY_CLASS {
		return nil
	}
	if err := windows.SetPriorityClass(process, windows.BELOW_NORMAL_PRIORITY_CLASS); err != nil {
		return fmt.Errorf("set priority class: %w", err)
	}
	return nil
}
