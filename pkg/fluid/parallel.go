package fluid

import (
	"runtime"
	"sync"
)

// minParallelItems is the smallest range worth splitting across goroutines.
const minParallelItems = 16

// parallelRange executes fn for each i in [start,end). The range is split among
// available CPUs. Each i is handled by exactly one goroutine, so fn may write
// to state owned by i without locking.
func parallelRange(start, end int, fn func(i int)) {
	total := end - start
	if total <= 0 {
		return
	}
	workers := runtime.GOMAXPROCS(0)
	if total < minParallelItems || workers == 1 {
		for i := start; i < end; i++ {
			fn(i)
		}
		return
	}
	workers = min(workers, total)
	var wg sync.WaitGroup
	chunk := (total + workers - 1) / workers
	for s := start; s < end; s += chunk {
		e := min(s+chunk, end)
		wg.Add(1)
		go func(ss, ee int) {
			defer wg.Done()
			for i := ss; i < ee; i++ {
				fn(i)
			}
		}(s, e)
	}
	wg.Wait()
}
