// Package bulk runs one function over many trackers, sequentially or on a
// worker pool, and collects per-item failures.
package bulk

import (
	"context"
	"fmt"
	"io"
	"runtime"
	"slices"
	"sync"
	"sync/atomic"
)

// Operation represents a bulk operation configuration
type Operation struct {
	Jobs            int  // zero means one worker per CPU
	ContinueOnError bool // keep going after the first failure
	Ordered         bool // run items one by one in input order

	// Progress receives one line per finished item when set
	Progress io.Writer
}

// Result represents the result of a bulk operation
type Result struct {
	TotalItems int         `json:"total"`
	Succeeded  int         `json:"succeeded"`
	Failed     int         `json:"failed"`
	Skipped    int         `json:"skipped,omitempty"`
	Errors     []ItemError `json:"errors,omitempty"`
}

// ItemError represents an error for a specific item
type ItemError struct {
	Item    string `json:"item"`
	Error   error  `json:"-"`
	Message string `json:"error"`
	index   int
}

// ItemFunc is the function to execute for each item
type ItemFunc func(ctx context.Context, item string) error

// Execute runs fn on every item. Items not started because of an earlier
// failure or a cancelled context are counted as skipped.
func (op *Operation) Execute(ctx context.Context, items []string, fn ItemFunc) *Result {
	if len(items) == 0 {
		return &Result{}
	}

	jobs := op.Jobs
	if jobs <= 0 {
		jobs = runtime.NumCPU()
	}
	jobs = min(jobs, len(items))

	if op.Ordered || jobs == 1 {
		return op.executeSequential(ctx, items, fn)
	}
	return op.executeParallel(ctx, items, fn, jobs)
}

func (op *Operation) executeSequential(ctx context.Context, items []string, fn ItemFunc) *Result {
	result := &Result{TotalItems: len(items)}

	for i, item := range items {
		if ctx.Err() != nil {
			break
		}
		if err := fn(ctx, item); err != nil {
			result.Failed++
			result.Errors = append(result.Errors, ItemError{Item: item, Error: err, Message: err.Error(), index: i})
			op.report(item, err)
			if !op.ContinueOnError {
				break
			}
			continue
		}
		result.Succeeded++
		op.report(item, nil)
	}

	result.Skipped = result.TotalItems - result.Succeeded - result.Failed
	return result
}

// executeParallel processes items in parallel using a worker pool
func (op *Operation) executeParallel(ctx context.Context, items []string, fn ItemFunc, workers int) *Result {
	result := &Result{TotalItems: len(items)}

	workQueue := make(chan int, len(items))
	for i := range items {
		workQueue <- i
	}
	close(workQueue)

	var (
		succeeded atomic.Int32
		failed    atomic.Int32
		stop      atomic.Bool
		mu        sync.Mutex // guards result.Errors and Progress
		wg        sync.WaitGroup
	)

	for range workers {
		wg.Add(1)
		go func() {
			defer wg.Done()

			for i := range workQueue {
				if stop.Load() || ctx.Err() != nil {
					continue
				}

				item := items[i]
				err := fn(ctx, item)

				mu.Lock()
				if err != nil {
					failed.Add(1)
					result.Errors = append(result.Errors, ItemError{Item: item, Error: err, Message: err.Error(), index: i})
					if !op.ContinueOnError {
						stop.Store(true)
					}
				} else {
					succeeded.Add(1)
				}
				op.report(item, err)
				mu.Unlock()
			}
		}()
	}

	wg.Wait()

	result.Succeeded = int(succeeded.Load())
	result.Failed = int(failed.Load())
	result.Skipped = result.TotalItems - result.Succeeded - result.Failed
	slices.SortFunc(result.Errors, func(a, b ItemError) int { return a.index - b.index })
	return result
}

func (op *Operation) report(item string, err error) {
	if op.Progress == nil {
		return
	}
	if err != nil {
		fmt.Fprintf(op.Progress, "%s: error: %v\n", item, err)
		return
	}
	fmt.Fprintf(op.Progress, "%s: ok\n", item)
}

// Err returns the first item error, or nil when every item succeeded.
func (r *Result) Err() error {
	if len(r.Errors) == 0 {
		return nil
	}
	first := r.Errors[0]
	if len(r.Errors) == 1 {
		return fmt.Errorf("%s: %w", first.Item, first.Error)
	}
	return fmt.Errorf("%d of %d failed, first %s: %w", len(r.Errors), r.TotalItems, first.Item, first.Error)
}

// ExitCode returns the appropriate exit code for the result
func (r *Result) ExitCode() int {
	if r.Failed == 0 {
		return 0 // All succeeded
	}
	if r.Succeeded > 0 {
		return 5 // Partial success
	}
	return 1 // All failed
}

// PrintSummary prints a human-readable summary of the result
func (r *Result) PrintSummary(w io.Writer) {
	switch {
	case r.Failed == 0:
		fmt.Fprintf(w, "✓ All %d operations succeeded\n", r.TotalItems)
	case r.Succeeded == 0:
		fmt.Fprintf(w, "✗ All %d operations failed\n", r.TotalItems)
	default:
		fmt.Fprintf(w, "⚠ Partial success: %d succeeded, %d failed (out of %d)\n",
			r.Succeeded, r.Failed, r.TotalItems)
	}
	if r.Skipped > 0 {
		fmt.Fprintf(w, "  %d skipped\n", r.Skipped)
	}

	shown := r.Errors
	if len(shown) > 10 {
		fmt.Fprintf(w, "\nShowing first 10 errors (of %d):\n", len(r.Errors))
		shown = shown[:10]
	} else if len(shown) > 0 {
		fmt.Fprintf(w, "\nErrors:\n")
	}
	for _, e := range shown {
		fmt.Fprintf(w, "  %s: %v\n", e.Item, e.Error)
	}
}
