package bake

import (
	"runtime"
	"sync"
	"sync/atomic"
	"time"

	"go.uber.org/zap"
)

// parallelFor calls fn once for every index in [0, n) on a pool of workers.
// Each fn call must write only to output owned by its index.
func parallelFor(n int, opts Options, name string, fn func(i int)) {
	if n <= 0 {
		return
	}
	log := opts.logger()

	workers := opts.Workers
	if workers < 1 {
		workers = runtime.NumCPU()
	}
	if workers > n {
		workers = n
	}

	var next, done int64
	nextPrint := int64(1)
	if n >= 10 {
		nextPrint = int64(n / 10) // ~10%
	}

	start := time.Now()
	var wg sync.WaitGroup
	wg.Add(workers)
	for w := 0; w < workers; w++ {
		go func() {
			defer wg.Done()
			for {
				i := atomic.AddInt64(&next, 1) - 1
				if i >= int64(n) {
					return
				}
				fn(int(i))
				finished := atomic.AddInt64(&done, 1)
				if finished%nextPrint == 0 {
					log.Debug("progress",
						zap.String("table", name),
						zap.Float64("percent", float64(finished)*100/float64(n)))
				}
			}
		}()
	}
	wg.Wait()

	log.Debug("pass complete",
		zap.String("table", name),
		zap.Int("tasks", n),
		zap.Int("workers", workers),
		zap.Duration("elapsed", time.Since(start)))
}
