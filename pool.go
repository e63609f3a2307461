package ember

import (
	"context"
	"sync"
	"sync/atomic"
	"time"
)

// workerState tracks each worker's lifecycle.
type workerState int32

const (
	workerIdle workerState = iota
	workerWorking
	workerStopped
)

// poolWorker is one worker thread's bookkeeping: its stop signal, current
// state, and its per-worker statistics.
type poolWorker struct {
	id     int64
	stopCh chan struct{}
	state  atomic.Int32

	requests     atomic.Int64
	bytesRead    atomic.Int64
	bytesWritten atomic.Int64
	workTimeNs   atomic.Int64
}

// workerPool is a bounded FIFO queue of ready connections served by a
// resizable set of worker goroutines, with golang.org/x/sync/semaphore
// bounding how many connections are actively inside communicate() at
// once, independent of how many idle workers exist.
type workerPool struct {
	server *Server

	queue chan *Connection
	idle  atomic.Int32

	mu      sync.Mutex
	workers map[int64]*poolWorker
	nextID  int64

	wg       sync.WaitGroup
	stopping atomic.Bool
}

func newWorkerPool(s *Server, queueSize int) *workerPool {
	qs := queueSize
	if qs <= 0 {
		qs = 1
	}
	return &workerPool{
		server:  s,
		queue:   make(chan *Connection, qs),
		workers: make(map[int64]*poolWorker),
	}
}

// enqueue pushes a ready connection onto the bounded queue. false means
// the queue was full; the caller (the server tick) must close the
// connection rather than block the acceptor.
func (p *workerPool) enqueue(c *Connection) bool {
	if p.stopping.Load() {
		return false
	}
	select {
	case p.queue <- c:
		return true
	default:
		return false
	}
}

// grow starts n additional worker goroutines.
func (p *workerPool) grow(n int) {
	if n <= 0 {
		return
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	for i := 0; i < n; i++ {
		id := p.nextID
		p.nextID++
		w := &poolWorker{id: id, stopCh: make(chan struct{})}
		p.workers[id] = w
		p.wg.Add(1)
		go p.runWorker(w)
	}
}

// shrink stops up to n idle-or-not worker goroutines. A worker mid-serve
// finishes its current connection before observing the stop signal.
func (p *workerPool) shrink(n int) {
	if n <= 0 {
		return
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	stopped := 0
	for id, w := range p.workers {
		if stopped >= n {
			break
		}
		close(w.stopCh)
		delete(p.workers, id)
		stopped++
	}
}

func (p *workerPool) runWorker(w *poolWorker) {
	defer p.wg.Done()
	w.state.Store(int32(workerIdle))
	p.idle.Add(1)
	defer p.idle.Add(-1)

	for {
		select {
		case <-w.stopCh:
			w.state.Store(int32(workerStopped))
			return
		case c, ok := <-p.queue:
			if !ok || c == nil {
				w.state.Store(int32(workerStopped))
				return
			}
			p.idle.Add(-1)
			w.state.Store(int32(workerWorking))
			p.serve(w, c)
			w.state.Store(int32(workerIdle))
			p.idle.Add(1)
		}
	}
}

// serve runs one connection's communicate() cycle, under the server's
// semaphore if one is configured, then hands the connection back to the
// manager for keep-alive reuse or closes it.
func (p *workerPool) serve(w *poolWorker, c *Connection) {
	if sem := p.server.sem; sem != nil {
		if err := sem.Acquire(context.Background(), 1); err != nil {
			c.close()
			return
		}
		defer sem.Release(1)
	}

	// The connection's counters run for its whole lifetime; record only
	// this exchange's delta or keep-alive reuse double-counts.
	r0, w0 := c.reader().BytesRead(), c.writer().BytesWritten()
	start := time.Now()
	keepAlive := c.communicate()
	elapsed := time.Since(start)
	bytesRead := c.reader().BytesRead() - r0
	bytesWritten := c.writer().BytesWritten() - w0

	w.requests.Add(1)
	w.bytesRead.Add(bytesRead)
	w.bytesWritten.Add(bytesWritten)
	w.workTimeNs.Add(elapsed.Nanoseconds())
	p.server.stats.recordExchange(bytesRead, bytesWritten, elapsed)

	if keepAlive {
		p.server.manager.put(c)
	} else {
		c.close()
	}
}

// stop is the graceful shutdown: signal every worker,
// then wait up to timeout before abandoning stragglers.
func (p *workerPool) stop(timeout time.Duration) {
	p.stopping.Store(true)

	p.mu.Lock()
	workers := make([]*poolWorker, 0, len(p.workers))
	for _, w := range p.workers {
		workers = append(workers, w)
	}
	p.workers = make(map[int64]*poolWorker)
	p.mu.Unlock()

	for _, w := range workers {
		close(w.stopCh)
	}

	done := make(chan struct{})
	go func() {
		p.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(timeout):
	}
}

// poolAdapter exposes the properties and operations the dynamic resizer
// reads and drives.
type poolAdapter interface {
	Size() int
	Idle() int
	QSize() int
	Min() int
	Max() int
	Grow(n int)
	Shrink(n int)
}

func (p *workerPool) Size() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.workers)
}

func (p *workerPool) Idle() int { return int(p.idle.Load()) }
func (p *workerPool) QSize() int { return len(p.queue) }
func (p *workerPool) Min() int   { return p.server.config.MinThreads }
func (p *workerPool) Max() int   { return p.server.config.MaxThreads }
func (p *workerPool) Grow(n int) { p.grow(n) }
func (p *workerPool) Shrink(n int) { p.shrink(n) }
