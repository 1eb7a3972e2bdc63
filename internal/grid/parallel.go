package grid

import (
	"runtime"
	"sync"
)

// MinRowsPerWorker is the smallest row chunk handed to a goroutine. Below it
// the pass runs inline.
const MinRowsPerWorker = 8

// ParallelRows executes fn over the row range [0, rows) split into contiguous
// chunks, one goroutine per chunk. fn receives a half-open range [y0, y1).
func ParallelRows(rows int, fn func(y0, y1 int)) {
	ParallelFor(rows, MinRowsPerWorker, fn)
}

// ParallelFor executes a function in parallel over a range [0, n)
func ParallelFor(n, minChunk int, fn func(start, end int)) {
	if n <= 0 {
		return
	}
	if minChunk < 1 {
		minChunk = 1
	}
	numWorkers := runtime.GOMAXPROCS(0)
	if n <= minChunk || numWorkers <= 1 {
		fn(0, n)
		return
	}

	workers := numWorkers
	if n/minChunk < workers {
		workers = n / minChunk
	}
	if workers < 1 {
		workers = 1
	}

	chunkSize := (n + workers - 1) / workers

	var wg sync.WaitGroup
	for start := 0; start < n; start += chunkSize {
		end := start + chunkSize
		if end > n {
			end = n
		}

		wg.Add(1)
		go func(s, e int) {
			defer wg.Done()
			fn(s, e)
		}(start, end)
	}

	wg.Wait()
}
