package batch

import (
	"sync"
)

// workChunk represents a range of jobs for a worker to process.
type workChunk struct {
	start, end int
}

// workerPool runs jobs on a fixed set of persistent goroutines. Each job
// index is handled by exactly one worker; the caller blocks until the whole
// range is done.
type workerPool struct {
	numWorkers int
	compute    func(i int)

	// Worker pool channels
	workChan chan workChunk // sends work to workers
	doneChan chan struct{}  // workers signal completion
	stopChan chan struct{}  // signals workers to exit
	wg       sync.WaitGroup // tracks active workers
	running  bool           // true if workers are running
}

func newWorkerPool(numWorkers int, compute func(i int)) *workerPool {
	if numWorkers < 1 {
		numWorkers = 1
	}
	return &workerPool{numWorkers: numWorkers, compute: compute}
}

// startWorkers launches persistent worker goroutines.
func (p *workerPool) startWorkers() {
	if p.running {
		return
	}

	p.workChan = make(chan workChunk, p.numWorkers)
	p.doneChan = make(chan struct{}, p.numWorkers)
	p.stopChan = make(chan struct{})
	p.running = true

	for i := 0; i < p.numWorkers; i++ {
		p.wg.Add(1)
		go p.worker()
	}
}

// stopWorkers signals all workers to exit and waits for them.
func (p *workerPool) stopWorkers() {
	if !p.running {
		return
	}

	close(p.stopChan)
	p.wg.Wait()
	close(p.workChan)
	close(p.doneChan)
	p.running = false
}

// worker runs in a goroutine, processing chunks until stopped.
func (p *workerPool) worker() {
	defer p.wg.Done()

	for {
		select {
		case <-p.stopChan:
			return
		case chunk, ok := <-p.workChan:
			if !ok {
				return
			}
			for i := chunk.start; i < chunk.end; i++ {
				p.compute(i)
			}
			p.doneChan <- struct{}{}
		}
	}
}

// run processes jobs [0, n) and returns when every job has finished.
func (p *workerPool) run(n int) {
	if n == 0 {
		return
	}
	if !p.running {
		p.startWorkers()
	}

	chunkSize := (n + p.numWorkers - 1) / p.numWorkers

	// Dispatch chunks to workers
	chunksDispatched := 0
	for w := 0; w < p.numWorkers; w++ {
		start := w * chunkSize
		end := start + chunkSize
		if end > n {
			end = n
		}
		if start >= end {
			continue
		}

		p.workChan <- workChunk{start: start, end: end}
		chunksDispatched++
	}

	// Wait for all chunks to complete
	for i := 0; i < chunksDispatched; i++ {
		<-p.doneChan
	}
}
