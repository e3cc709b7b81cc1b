package parallel

import (
	"bytes"
	"context"
	"fmt"
	"strings"
	"sync/atomic"
	"testing"
	"time"
)

func TestRun_Success(t *testing.T) {
	jobs := []Job{
		{Name: "a.json", Fn: func(context.Context) (string, error) { return "", nil }},
		{Name: "b.json", Fn: func(context.Context) (string, error) { return "", nil }},
		{Name: "c.json", Fn: func(context.Context) (string, error) { return "", nil }},
	}

	results := Run(context.Background(), nil, jobs, 4)
	if len(results) != 3 {
		t.Fatalf("expected 3 results, got %d", len(results))
	}
	for _, r := range results {
		if !r.OK {
			t.Errorf("job %s should be OK", r.Name)
		}
		if r.Err != nil {
			t.Errorf("job %s should have no error", r.Name)
		}
	}
	if len(Failed(results)) != 0 {
		t.Error("expected no failed jobs")
	}
}

func TestRun_WithErrors(t *testing.T) {
	jobs := []Job{
		{Name: "ok", Fn: func(context.Context) (string, error) { return "", nil }},
		{Name: "broken", Fn: func(context.Context) (string, error) { return "partial", fmt.Errorf("dangling edge") }},
	}

	var out bytes.Buffer
	results := Run(context.Background(), &out, jobs, 4)

	// Results should be in order
	if !results[0].OK {
		t.Error("first job should be OK")
	}
	if results[1].OK || results[1].Err == nil {
		t.Error("second job should have failed")
	}
	if results[1].Summary != "partial" {
		t.Errorf("expected summary %q, got %q", "partial", results[1].Summary)
	}
	if !strings.Contains(out.String(), "dangling edge") {
		t.Errorf("expected progress output to mention the error, got %q", out.String())
	}
	if len(Failed(results)) != 1 {
		t.Error("expected one failed job")
	}
}

func TestRun_Concurrency(t *testing.T) {
	var maxConcurrent int64
	var current int64

	jobs := make([]Job, 10)
	for i := range jobs {
		jobs[i] = Job{
			Name: fmt.Sprintf("job-%d", i),
			Fn: func(context.Context) (string, error) {
				c := atomic.AddInt64(&current, 1)
				for {
					old := atomic.LoadInt64(&maxConcurrent)
					if c <= old || atomic.CompareAndSwapInt64(&maxConcurrent, old, c) {
						break
					}
				}
				time.Sleep(20 * time.Millisecond)
				atomic.AddInt64(&current, -1)
				return "", nil
			},
		}
	}

	results := Run(context.Background(), nil, jobs, 2)
	if len(results) != 10 {
		t.Fatalf("expected 10 results, got %d", len(results))
	}
	if maxConcurrent > 2 {
		t.Errorf("max concurrent should be <= 2, got %d", maxConcurrent)
	}
}

func TestRun_DefaultConcurrency(t *testing.T) {
	jobs := []Job{{Name: "x", Fn: func(context.Context) (string, error) { return "done", nil }}}
	results := Run(context.Background(), nil, jobs, 0)
	if len(results) != 1 || results[0].Summary != "done" {
		t.Fatalf("unexpected results %+v", results)
	}
}

func TestChunks_CoversRange(t *testing.T) {
	for _, n := range []int{0, 1, 7, 100, 1001} {
		seen := make([]int32, n)
		Chunks(n, 4, func(lo, hi int) {
			for i := lo; i < hi; i++ {
				atomic.AddInt32(&seen[i], 1)
			}
		})
		for i, c := range seen {
			if c != 1 {
				t.Fatalf("n=%d: index %d visited %d times", n, i, c)
			}
		}
	}
}

func TestChunks_DefaultConcurrency(t *testing.T) {
	var total int64
	Chunks(10, 0, func(lo, hi int) { atomic.AddInt64(&total, int64(hi-lo)) })
	if total != 10 {
		t.Errorf("expected 10, got %d", total)
	}
}
