package batch

import (
	"context"
	"errors"
	"fmt"
	"math"
	"runtime"
	"time"

	"golang.org/x/sync/errgroup"

	"batimgcon/codec"
	"batimgcon/logger"
)

// Observer is notified of every finished task and of the final result.
// TaskFinished is called from the dispatcher goroutine only.
type Observer interface {
	TaskFinished(Result)
	RunFinished(RunResult)
}

type RunResult struct {
	Total       int
	Successful  int
	Failed      int
	Abandoned   int
	InputBytes  int64
	OutputBytes int64
	Elapsed     time.Duration
	Interrupted bool
	Err         error
}

func (r RunResult) Summary() string {
	return fmt.Sprintf("Successfully converted %d out of %d files.", r.Successful, r.Total)
}

func (r RunResult) ElapsedSeconds() int {
	return int(math.Round(r.Elapsed.Seconds()))
}

type Dispatcher struct {
	Adapter   codec.Adapter
	Workers   int
	Console   *logger.Console
	Observers []Observer
}

func DefaultWorkers() int {
	return runtime.NumCPU()
}

// Run executes every task on at most Workers goroutines and tallies the
// results in completion order. Once ctx is cancelled queued tasks are
// abandoned without running; tasks already converting finish normally and
// are still counted.
func (d *Dispatcher) Run(ctx context.Context, tasks []Task) RunResult {
	start := time.Now()
	console := d.Console
	if console == nil {
		console = logger.Discard()
	}

	res := RunResult{Total: len(tasks)}

	workers := d.Workers
	if workers <= 0 {
		workers = DefaultWorkers()
	}
	if workers > len(tasks) {
		workers = len(tasks)
	}

	jobs := make(chan Task, len(tasks))
	for _, t := range tasks {
		jobs <- t
	}
	close(jobs)

	results := make(chan Result, workers)

	var g errgroup.Group
	workerErrs := make([]error, workers)
	for w := 0; w < workers; w++ {
		g.Go(func() error {
			workerErrs[w] = d.worker(ctx, jobs, results)
			return workerErrs[w]
		})
	}

	var waitErr error
	go func() {
		if waitErr = g.Wait(); waitErr != nil {
			waitErr = errors.Join(workerErrs...)
		}
		close(results)
	}()

	stopping := false
	for r := range results {
		d.record(console, &res, r)

		if !stopping && ctx.Err() != nil {
			stopping = true
			console.Warn("Stopping: queued conversions will be skipped, waiting for running ones to finish")
		}
	}

	if waitErr != nil {
		console.Error("An error occurred: %v", waitErr)
		res.Err = waitErr
	}

	res.Interrupted = ctx.Err() != nil
	res.Elapsed = time.Since(start)

	for _, o := range d.Observers {
		o.RunFinished(res)
	}
	return res
}

// worker keeps pulling tasks until the queue is empty. A panicking task is
// counted as failed and the worker moves on; the panics are returned once
// the queue is drained.
func (d *Dispatcher) worker(ctx context.Context, jobs <-chan Task, results chan<- Result) error {
	var panics []error
	for task := range jobs {
		if ctx.Err() != nil {
			results <- Result{Task: task, Status: StatusAbandoned, Err: context.Cause(ctx)}
			continue
		}

		r, err := d.execute(ctx, task)
		if err != nil {
			panics = append(panics, err)
		}
		results <- r
	}
	return errors.Join(panics...)
}

func (d *Dispatcher) execute(ctx context.Context, task Task) (res Result, err error) {
	defer func() {
		if p := recover(); p != nil {
			err = fmt.Errorf("panic while converting %s: %v", task.Source, p)
			res = Result{Task: task, Status: StatusFailed, Err: err}
		}
	}()
	return task.Execute(ctx, d.Adapter), nil
}

func (d *Dispatcher) record(console *logger.Console, res *RunResult, r Result) {
	switch r.Status {
	case StatusConverted:
		res.Successful++
		res.InputBytes += r.InputSize
		res.OutputBytes += r.OutputSize
		console.Success("Converted %s to %s", r.Task.Source, r.Task.Output)
	case StatusFailed:
		res.Failed++
		console.Error("Failed to convert %s: %v", r.Task.Source, r.Err)
	case StatusAbandoned:
		res.Abandoned++
		console.Debug("Skipped %s", r.Task.Source)
	}

	for _, o := range d.Observers {
		o.TaskFinished(r)
	}
}
