// Package dispatch provides named, bounded worker pools for categories of
// blocking work, and futures for delivering their results back to the
// caller. Blocking store and file operations must run on a pool, never on
// the interactive goroutine; interactive code registers continuations or
// waits only at documented modal boundaries.
package dispatch

import "sync"

// Pool is a bounded set of workers consuming a task queue. Tasks submitted
// to the same pool have no ordering guarantee relative to each other;
// callers needing order chain futures instead. Once submitted, a task runs
// to completion or failure; there is no cancellation of in-flight tasks.
type Pool struct {
	name  string
	tasks chan func()
	wg    sync.WaitGroup

	mu     sync.Mutex
	closed bool
}

// NewPool starts workers goroutines consuming a queue of the given depth.
// workers and queueDepth are clamped to at least 1.
func NewPool(name string, workers, queueDepth int) *Pool {
	if workers < 1 {
		workers = 1
	}
	if queueDepth < 1 {
		queueDepth = 1
	}

	p := &Pool{
		name:  name,
		tasks: make(chan func(), queueDepth),
	}

	p.wg.Add(workers)
	for i := 0; i < workers; i++ {
		go p.worker()
	}

	return p
}

func (p *Pool) worker() {
	defer p.wg.Done()
	for task := range p.tasks {
		task()
	}
}

// Name returns the pool's name, used in log and error annotations.
func (p *Pool) Name() string {
	return p.name
}

// submit enqueues a task, blocking when the queue is full. Returns false
// when the pool is already closed.
func (p *Pool) submit(task func()) bool {
	p.mu.Lock()
	if p.closed {
		p.mu.Unlock()
		return false
	}
	// Holding the lock while sending keeps Close from racing the enqueue.
	defer p.mu.Unlock()
	p.tasks <- task
	return true
}

// Close stops accepting tasks and waits for queued ones to finish.
func (p *Pool) Close() {
	p.mu.Lock()
	if p.closed {
		p.mu.Unlock()
		return
	}
	p.closed = true
	close(p.tasks)
	p.mu.Unlock()

	p.wg.Wait()
}

// Set bundles the application's pools: db for store calls, io for file
// work, background for audit/logging, and a single-worker interactive pool
// standing in for the UI event thread.
type Set struct {
	DB          *Pool
	IO          *Pool
	Background  *Pool
	Interactive *Pool
}

// NewSet builds the standard pool set.
func NewSet(dbWorkers, ioWorkers, queueDepth int) *Set {
	return &Set{
		DB:          NewPool("db", dbWorkers, queueDepth),
		IO:          NewPool("io", ioWorkers, queueDepth),
		Background:  NewPool("background", 1, queueDepth),
		Interactive: NewPool("interactive", 1, queueDepth),
	}
}

// Close drains all pools. The background pool goes last so that audit
// records emitted by in-flight db tasks still land in the sink.
func (s *Set) Close() {
	s.Interactive.Close()
	s.DB.Close()
	s.IO.Close()
	s.Background.Close()
}
