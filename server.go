package ember

import (
	"net"
	"sync"
	"sync/atomic"

	"golang.org/x/sync/semaphore"

	"github.com/emberhttp/ember/tlsadapter"
)

// Server is the facade: bind, listen, prepare, serve, stop, plus
// statistics. It owns the listener, the connection manager, the worker
// pool and the resizer.
type Server struct {
	config Config

	listener   net.Listener
	tlsAdapter tlsadapter.Adapter // nil when the server is plaintext-only

	manager *connectionManager
	pool    *workerPool
	resizer *DynamicResizer

	sem *semaphore.Weighted

	stats *Stats

	resizerStop chan struct{}
	ready       atomic.Bool
	stopOnce    sync.Once

	interrupt atomic.Value // error queued by Interrupt, re-raised by Serve
}

// New validates cfg and builds an unbound Server; call Prepare to bind
// and Serve to start accepting.
func New(cfg Config) (*Server, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	s := &Server{config: cfg, tlsAdapter: cfg.tlsAdapter()}
	s.stats = NewStats(nil, "ember")
	if cfg.MaxThreads > 0 {
		s.sem = semaphore.NewWeighted(int64(cfg.MaxThreads))
	}
	return s, nil
}

// Prepare binds and starts listening, starts the worker pool at its
// minimum size, and flips ready=true.
func (s *Server) Prepare() error {
	l, err := bindListener(s.config.BindAddr, s.config)
	if err != nil {
		return err
	}
	s.listener = l

	m, err := newConnectionManager(s)
	if err != nil {
		_ = l.Close()
		return err
	}
	s.manager = m

	s.pool = newWorkerPool(s, s.config.RequestQueueSize)
	min := s.config.MinThreads
	if min <= 0 {
		min = 1
	}
	s.pool.grow(min)

	s.resizer = newDynamicResizer(s.pool)
	s.resizerStop = make(chan struct{})
	go s.resizer.run(s.resizerStop)

	s.ready.Store(true)
	return nil
}

// Serve runs the server tick loop until Stop flips ready=false or an
// Interrupt is queued. A queued interrupt stops the server and is
// returned to the caller.
func (s *Server) Serve() error {
	for s.ready.Load() {
		if v := s.interrupt.Load(); v != nil {
			s.Stop()
			return v.(error)
		}
		s.tick()
	}
	return nil
}

// Interrupt queues err for the serve loop: the next iteration calls Stop
// and Serve returns err. Safe to call from any goroutine, including a
// signal handler's.
func (s *Server) Interrupt(err error) {
	if err == nil {
		return
	}
	s.interrupt.Store(err)
}

// tick pulls one ready connection and hands it to the worker pool, then
// expires stale keep-alive connections.
func (s *Server) tick() {
	conn := s.manager.getConn()
	if conn != nil {
		if !s.pool.enqueue(conn) {
			conn.close()
		}
	}
	s.manager.expire()
	s.stats.reportWorkers(s.pool.Size(), s.pool.Idle(), s.pool.QSize())
}

// Stop shuts the server down. Idempotent: only the first call performs
// observable work.
func (s *Server) Stop() {
	s.stopOnce.Do(func() {
		s.ready.Store(false)
		if s.resizerStop != nil {
			close(s.resizerStop)
		}
		if s.listener != nil {
			_ = s.listener.Close()
		}
		if s.manager != nil {
			s.manager.close()
		}
		if s.pool != nil {
			s.pool.stop(s.config.ShutdownTimeout)
		}
	})
}

// Stats returns a point-in-time snapshot of the server's counters.
func (s *Server) Stats() StatsSnapshot {
	if s.pool == nil {
		return StatsSnapshot{}
	}
	return s.stats.snapshot(s.pool.Size(), s.pool.Idle(), s.pool.QSize())
}

func (s *Server) serverName() string {
	if s.config.ServerName != "" {
		return s.config.ServerName
	}
	return "Ember/1.0"
}

func (s *Server) logError(msg string, lvl Level, err error) {
	if s.config.ErrorLog != nil {
		s.config.ErrorLog(msg, lvl, err)
	}
}
