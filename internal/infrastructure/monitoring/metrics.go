package monitoring

import (
	"strconv"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds all Prometheus metrics
type Metrics struct {
	// Syscall surface metrics
	RequestsTotal   *prometheus.CounterVec
	RequestDuration *prometheus.HistogramVec
	SyscallsTotal   *prometheus.CounterVec

	// Scheduler metrics
	ContextSwitches prometheus.Counter
	Preemptions     prometheus.Counter
	IdleTicks       prometheus.Counter
	ProcessesLive   prometheus.Gauge
	ReadyQueueLen   prometheus.Gauge

	// IPC metrics
	MessagesSent      prometheus.Counter
	MessagesDelivered prometheus.Counter
	SendersBlocked    prometheus.Gauge

	// Interrupt metrics
	InterruptsTotal   *prometheus.CounterVec
	InterruptsDropped *prometheus.CounterVec

	// Memory metrics
	FramesInUse prometheus.Gauge

	// WebSocket observers
	WSConnections prometheus.Gauge

	// System metrics
	Uptime    prometheus.Gauge
	startTime time.Time

	// Snapshot for the JSON API - track current values
	snapshot MetricsSnapshot

	mu sync.RWMutex
}

// MetricsSnapshot holds current metric values for the JSON API
type MetricsSnapshot struct {
	TotalSyscalls     int64 `json:"total_syscalls"`
	TotalErrors       int64 `json:"total_errors"`
	ContextSwitches   int64 `json:"context_switches"`
	Preemptions       int64 `json:"preemptions"`
	MessagesSent      int64 `json:"messages_sent"`
	MessagesDelivered int64 `json:"messages_delivered"`
	InterruptsDropped int64 `json:"interrupts_dropped"`
	LiveProcesses     int64 `json:"live_processes"`
}

// NewMetrics creates a new metrics collector
func NewMetrics() *Metrics {
	return &Metrics{
		startTime: time.Now(),

		RequestsTotal: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "kernel_http_requests_total",
				Help: "Total number of HTTP requests against the syscall surface",
			},
			[]string{"method", "path", "status"},
		),
		RequestDuration: promauto.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "kernel_http_request_duration_seconds",
				Help:    "HTTP request duration in seconds",
				Buckets: []float64{.0001, .0005, .001, .005, .01, .05, .1, .5, 1},
			},
			[]string{"method", "path"},
		),
		SyscallsTotal: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "kernel_syscalls_total",
				Help: "Total syscalls dispatched, by call and outcome",
			},
			[]string{"call", "outcome"},
		),

		ContextSwitches: promauto.NewCounter(
			prometheus.CounterOpts{
				Name: "kernel_context_switches_total",
				Help: "Total context switches performed by the scheduler",
			},
		),
		Preemptions: promauto.NewCounter(
			prometheus.CounterOpts{
				Name: "kernel_preemptions_total",
				Help: "Total quantum-expiry preemptions",
			},
		),
		IdleTicks: promauto.NewCounter(
			prometheus.CounterOpts{
				Name: "kernel_idle_ticks_total",
				Help: "Timer ticks delivered while no process was running",
			},
		),
		ProcessesLive: promauto.NewGauge(
			prometheus.GaugeOpts{
				Name: "kernel_processes_live",
				Help: "Number of non-terminated processes in the table",
			},
		),
		ReadyQueueLen: promauto.NewGauge(
			prometheus.GaugeOpts{
				Name: "kernel_ready_queue_length",
				Help: "Current length of the ready queue",
			},
		),

		MessagesSent: promauto.NewCounter(
			prometheus.CounterOpts{
				Name: "kernel_ipc_messages_sent_total",
				Help: "Messages accepted by send, queued or delivered",
			},
		),
		MessagesDelivered: promauto.NewCounter(
			prometheus.CounterOpts{
				Name: "kernel_ipc_messages_delivered_total",
				Help: "Messages copied out to a receiver",
			},
		),
		SendersBlocked: promauto.NewGauge(
			prometheus.GaugeOpts{
				Name: "kernel_ipc_senders_blocked",
				Help: "Senders currently blocked on a full mailbox",
			},
		),

		InterruptsTotal: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "kernel_interrupts_total",
				Help: "Hardware interrupts dispatched, by line",
			},
			[]string{"line"},
		),
		InterruptsDropped: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "kernel_interrupts_dropped_total",
				Help: "Interrupt events dropped because the driver mailbox was full",
			},
			[]string{"line"},
		),

		FramesInUse: promauto.NewGauge(
			prometheus.GaugeOpts{
				Name: "kernel_frames_in_use",
				Help: "Physical frames currently allocated",
			},
		),

		WSConnections: promauto.NewGauge(
			prometheus.GaugeOpts{
				Name: "kernel_ws_connections",
				Help: "Connected event-stream observers",
			},
		),

		Uptime: promauto.NewGauge(
			prometheus.GaugeOpts{
				Name: "kernel_uptime_seconds",
				Help: "Kernel uptime in seconds",
			},
		),
	}
}

// RecordHTTPRequest records an HTTP request against the syscall surface
func (m *Metrics) RecordHTTPRequest(method, path, status string, duration time.Duration) {
	m.RequestsTotal.WithLabelValues(method, path, status).Inc()
	m.RequestDuration.WithLabelValues(method, path).Observe(duration.Seconds())
}

// RecordSyscall records a dispatched syscall and its outcome
func (m *Metrics) RecordSyscall(call, outcome string) {
	m.SyscallsTotal.WithLabelValues(call, outcome).Inc()

	m.mu.Lock()
	m.snapshot.TotalSyscalls++
	if outcome != "ok" && outcome != "blocked" {
		m.snapshot.TotalErrors++
	}
	m.mu.Unlock()
}

// RecordContextSwitch records one scheduler context switch
func (m *Metrics) RecordContextSwitch() {
	m.ContextSwitches.Inc()

	m.mu.Lock()
	m.snapshot.ContextSwitches++
	m.mu.Unlock()
}

// RecordPreemption records a quantum-expiry preemption
func (m *Metrics) RecordPreemption() {
	m.Preemptions.Inc()

	m.mu.Lock()
	m.snapshot.Preemptions++
	m.mu.Unlock()
}

// RecordMessageSent records a message accepted by send
func (m *Metrics) RecordMessageSent() {
	m.MessagesSent.Inc()

	m.mu.Lock()
	m.snapshot.MessagesSent++
	m.mu.Unlock()
}

// RecordMessageDelivered records a message copied out to a receiver
func (m *Metrics) RecordMessageDelivered() {
	m.MessagesDelivered.Inc()

	m.mu.Lock()
	m.snapshot.MessagesDelivered++
	m.mu.Unlock()
}

// RecordInterrupt records a dispatched interrupt
func (m *Metrics) RecordInterrupt(line uint32) {
	m.InterruptsTotal.WithLabelValues(strconv.FormatUint(uint64(line), 10)).Inc()
}

// RecordInterruptDropped records an event lost to a full driver mailbox
func (m *Metrics) RecordInterruptDropped(line uint32) {
	m.InterruptsDropped.WithLabelValues(strconv.FormatUint(uint64(line), 10)).Inc()

	m.mu.Lock()
	m.snapshot.InterruptsDropped++
	m.mu.Unlock()
}

// SetProcessesLive updates the live-process gauge
func (m *Metrics) SetProcessesLive(n int) {
	m.ProcessesLive.Set(float64(n))

	m.mu.Lock()
	m.snapshot.LiveProcesses = int64(n)
	m.mu.Unlock()
}

// SetReadyQueueLen updates the ready-queue gauge
func (m *Metrics) SetReadyQueueLen(n int) {
	m.ReadyQueueLen.Set(float64(n))
}

// Snapshot returns current metric values for the JSON API
func (m *Metrics) Snapshot() MetricsSnapshot {
	m.mu.RLock()
	defer m.mu.RUnlock()

	m.Uptime.Set(time.Since(m.startTime).Seconds())
	return m.snapshot
}

// UptimeSeconds returns seconds since the collector was created
func (m *Metrics) UptimeSeconds() float64 {
	return time.Since(m.startTime).Seconds()
}
