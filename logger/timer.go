package logger

import "time"

// Timer measures one phase of a run and reports it at debug level.
type Timer struct {
	StartTime time.Time
	Name      string
	Console   *Console
}

func (c *Console) StartTimer(name string) *Timer {
	return &Timer{StartTime: time.Now(), Name: name, Console: c}
}

func (t *Timer) End() time.Duration {
	duration := time.Since(t.StartTime)
	t.Console.Debug("%s completed in %v", t.Name, duration.Round(time.Millisecond))
	return duration
}
