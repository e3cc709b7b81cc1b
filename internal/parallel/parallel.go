package parallel

import (
	"context"
	"fmt"
	"io"
	"strings"
	"sync"
	"time"

	"github.com/msalah0e/kgviz/internal/ui"
	"golang.org/x/sync/errgroup"
)

// Result holds the outcome of a job.
type Result struct {
	Name    string
	OK      bool
	Err     error
	Summary string
	Elapsed time.Duration
}

// Job is one unit of batch work, e.g. laying out one snapshot file.
type Job struct {
	Name string
	Fn   func(ctx context.Context) (string, error)
}

// Run executes jobs with the given concurrency limit and reports progress
// to w (nil for silence). Results come back in submission order; a failing
// job never cancels its siblings.
func Run(ctx context.Context, w io.Writer, jobs []Job, concurrency int) []Result {
	if concurrency < 1 {
		concurrency = 4
	}
	if w == nil {
		w = io.Discard
	}

	results := make([]Result, len(jobs))
	var mu sync.Mutex

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(concurrency)

	for i, job := range jobs {
		i, job := i, job
		g.Go(func() error {
			start := time.Now()

			mu.Lock()
			fmt.Fprintf(w, "  %s %s...\n", ui.Subtle.Sprint("⟳"), job.Name)
			mu.Unlock()

			summary, err := job.Fn(gctx)
			elapsed := time.Since(start)

			mu.Lock()
			defer mu.Unlock()
			if err != nil {
				results[i] = Result{Name: job.Name, Err: err, Summary: summary, Elapsed: elapsed}
				fmt.Fprintf(w, "  %s %s %s\n", ui.StatusIcon(false), job.Name, ui.Bad.Sprintf("(%v)", err))
				return nil
			}
			results[i] = Result{Name: job.Name, OK: true, Summary: summary, Elapsed: elapsed}
			line := ui.Subtle.Sprintf("%.2fs", elapsed.Seconds())
			if s := strings.TrimSpace(summary); s != "" {
				line = s + " " + line
			}
			fmt.Fprintf(w, "  %s %s %s\n", ui.StatusIcon(true), job.Name, line)
			return nil
		})
	}

	_ = g.Wait()
	return results
}

// Chunks splits [0, n) into contiguous ranges and calls fn for each range
// on up to concurrency goroutines. fn must only write state owned by its
// range. Returns once every range is done.
func Chunks(n, concurrency int, fn func(lo, hi int)) {
	if n <= 0 {
		return
	}
	if concurrency < 1 {
		concurrency = 4
	}
	if concurrency > n {
		concurrency = n
	}

	size := (n + concurrency - 1) / concurrency
	var g errgroup.Group
	for lo := 0; lo < n; lo += size {
		lo, hi := lo, min(lo+size, n)
		g.Go(func() error {
			fn(lo, hi)
			return nil
		})
	}
	_ = g.Wait()
}

// Failed returns the results that carry an error.
func Failed(results []Result) []Result {
	var out []Result
	for _, r := range results {
		if !r.OK {
			out = append(out, r)
		}
	}
	return out
}
