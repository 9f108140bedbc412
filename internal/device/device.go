package device

import (
	"runtime"
	"sync"
)

// Context describes the compute backend a model runs on. The core is agnostic
// to which backend is selected; it only asks for parallel row ranges.
type Context struct {
	name    string
	workers int
}

// Detect returns the best available backend. Accelerator probing is a
// build-tag hook; the portable backend is the host CPU with one worker per
// logical core.
func Detect() *Context {
	return &Context{
		name:    "cpu",
		workers: runtime.NumCPU(),
	}
}

// NewContext returns a CPU context with an explicit worker count.
// workers <= 0 falls back to runtime.NumCPU().
func NewContext(workers int) *Context {
	if workers <= 0 {
		workers = runtime.NumCPU()
	}
	return &Context{name: "cpu", workers: workers}
}

func (c *Context) Name() string {
	return c.name
}

func (c *Context) Workers() int {
	return c.workers
}

// Accelerated reports whether the backend is anything faster than the
// portable CPU path.
func (c *Context) Accelerated() bool {
	return c.name != "cpu"
}

// ParallelFor splits [0, n) into contiguous chunks, one per worker, and runs
// fn(start, end) on each chunk concurrently. Small ranges run inline to avoid
// goroutine overhead on tiny matrices.
func (c *Context) ParallelFor(n int, fn func(start, end int)) {
	if n <= 0 {
		return
	}
	if c.workers <= 1 || n < 2*c.workers {
		fn(0, n)
		return
	}
	chunk := (n + c.workers - 1) / c.workers
	var wg sync.WaitGroup
	for i := 0; i < n; i += chunk {
		end := i + chunk
		if end > n {
			end = n
		}
		wg.Add(1)
		go func(start, end int) {
			defer wg.Done()
			fn(start, end)
		}(i, end)
	}
	wg.Wait()
}
