package ember

import (
	"sync/atomic"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Stats is the server's statistics block: plain atomic counters backed
// by prometheus instruments. The Enabled flag is the single branch the
// hot path checks.
type Stats struct {
	Enabled bool

	accepts      atomic.Int64
	socketErrors atomic.Int64
	bytesRead    atomic.Int64
	bytesWritten atomic.Int64
	workTimeNs   atomic.Int64
	requests     atomic.Int64

	promAccepts      prometheus.Counter
	promSocketErrors prometheus.Counter
	promBytesRead    prometheus.Counter
	promBytesWritten prometheus.Counter
	promWorkSeconds  prometheus.Histogram
	promRequests     prometheus.Counter
	promWorkers      prometheus.Gauge
	promIdleWorkers  prometheus.Gauge
	promQueueDepth   prometheus.Gauge
}

// NewStats builds a Stats block and registers its instruments against
// reg. A nil registry disables prometheus entirely; counters still
// accumulate in-process for StatsSnapshot callers.
func NewStats(reg prometheus.Registerer, namespace string) *Stats {
	s := &Stats{Enabled: true}

	s.promAccepts = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: namespace, Name: "accepts_total", Help: "Accepted connections.",
	})
	s.promSocketErrors = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: namespace, Name: "socket_errors_total", Help: "Non-ignorable socket errors.",
	})
	s.promBytesRead = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: namespace, Name: "bytes_read_total", Help: "Bytes read from client connections.",
	})
	s.promBytesWritten = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: namespace, Name: "bytes_written_total", Help: "Bytes written to client connections.",
	})
	s.promWorkSeconds = prometheus.NewHistogram(prometheus.HistogramOpts{
		Namespace: namespace, Name: "work_seconds", Help: "Time a worker spent in communicate().",
	})
	s.promRequests = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: namespace, Name: "requests_total", Help: "Requests served.",
	})
	s.promWorkers = prometheus.NewGauge(prometheus.GaugeOpts{
		Namespace: namespace, Name: "workers", Help: "Current worker thread count.",
	})
	s.promIdleWorkers = prometheus.NewGauge(prometheus.GaugeOpts{
		Namespace: namespace, Name: "workers_idle", Help: "Idle worker thread count.",
	})
	s.promQueueDepth = prometheus.NewGauge(prometheus.GaugeOpts{
		Namespace: namespace, Name: "queue_depth", Help: "Ready connections waiting for a worker.",
	})

	if reg != nil {
		reg.MustRegister(s.promAccepts, s.promSocketErrors, s.promBytesRead,
			s.promBytesWritten, s.promWorkSeconds, s.promRequests,
			s.promWorkers, s.promIdleWorkers, s.promQueueDepth)
	}
	return s
}

func (s *Stats) recordAccept() {
	if s == nil || !s.Enabled {
		return
	}
	s.accepts.Add(1)
	s.promAccepts.Inc()
}

func (s *Stats) recordSocketError() {
	if s == nil || !s.Enabled {
		return
	}
	s.socketErrors.Add(1)
	s.promSocketErrors.Inc()
}

func (s *Stats) recordExchange(bytesRead, bytesWritten int64, work time.Duration) {
	if s == nil || !s.Enabled {
		return
	}
	s.requests.Add(1)
	s.bytesRead.Add(bytesRead)
	s.bytesWritten.Add(bytesWritten)
	s.workTimeNs.Add(work.Nanoseconds())
	s.promRequests.Inc()
	s.promBytesRead.Add(float64(bytesRead))
	s.promBytesWritten.Add(float64(bytesWritten))
	s.promWorkSeconds.Observe(work.Seconds())
}

func (s *Stats) reportWorkers(total, idle, queued int) {
	if s == nil || !s.Enabled {
		return
	}
	s.promWorkers.Set(float64(total))
	s.promIdleWorkers.Set(float64(idle))
	s.promQueueDepth.Set(float64(queued))
}

// StatsSnapshot is a point-in-time read of the counters, safe to expose
// to operators without holding prometheus internals.
type StatsSnapshot struct {
	Accepts      int64
	SocketErrors int64
	BytesRead    int64
	BytesWritten int64
	Requests     int64
	WorkTime     time.Duration
	Workers      int
	IdleWorkers  int
	QueueDepth   int
}

func (s *Stats) snapshot(workers, idle, queued int) StatsSnapshot {
	return StatsSnapshot{
		Accepts:      s.accepts.Load(),
		SocketErrors: s.socketErrors.Load(),
		BytesRead:    s.bytesRead.Load(),
		BytesWritten: s.bytesWritten.Load(),
		Requests:     s.requests.Load(),
		WorkTime:     time.Duration(s.workTimeNs.Load()),
		Workers:      workers,
		IdleWorkers:  idle,
		QueueDepth:   queued,
	}
}
