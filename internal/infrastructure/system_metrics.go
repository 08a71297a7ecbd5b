package infrastructure

import (
	"context"
	"fmt"
	"runtime"
	"time"

	"go.opentelemetry.io/otel/metric"
)

// SystemMetrics records Go runtime health. The service holds the whole
// dataset on the heap, so memory and GC movement are the first things to
// look at when query latency drifts.
type SystemMetrics struct {
	goRoutines      metric.Int64Gauge
	memoryUsage     metric.Int64Gauge
	memoryAllocated metric.Int64Gauge
	memorySystem    metric.Int64Gauge
	heapObjects     metric.Int64Gauge
	gcPause         metric.Float64Histogram

	cpuCount      metric.Int64Gauge
	processUptime metric.Float64Gauge
}

// NewSystemMetrics registers the runtime instruments.
func NewSystemMetrics(meter metric.Meter) (*SystemMetrics, error) {
	b := &instrumentBuilder{meter: meter}

	sm := &SystemMetrics{
		goRoutines:      b.gauge("system_goroutines", "Number of active goroutines"),
		memoryUsage:     b.gaugeBytes("system_memory_usage_bytes", "Live heap memory in bytes"),
		memoryAllocated: b.gaugeBytes("system_memory_allocated_bytes", "Cumulative bytes allocated by the Go runtime"),
		memorySystem:    b.gaugeBytes("system_memory_system_bytes", "Memory obtained from the OS in bytes"),
		heapObjects:     b.gauge("system_heap_objects", "Number of live heap objects"),
		gcPause:         b.seconds("system_gc_pause_seconds", "Garbage collection pause duration"),
		cpuCount:        b.gauge("system_cpu_count", "Number of logical CPUs"),
		processUptime:   b.gaugeSeconds("system_process_uptime_seconds", "Process uptime in seconds"),
	}

	if b.err != nil {
		return nil, b.err
	}
	return sm, nil
}

// SystemStats is one snapshot of the runtime, shaped for the health
// endpoint's JSON response.
type SystemStats struct {
	GoRoutines      int64         `json:"goroutines"`
	MemoryUsage     int64         `json:"memory_usage_bytes"`
	MemoryAllocated int64         `json:"memory_allocated_bytes"`
	MemorySystem    int64         `json:"memory_system_bytes"`
	HeapObjects     int64         `json:"heap_objects"`
	GCCount         uint32        `json:"gc_count"`
	LastGCPause     time.Duration `json:"last_gc_pause_ns"`
	CPUCount        int           `json:"cpu_count"`
	ProcessUptime   time.Duration `json:"process_uptime_ns"`
	Timestamp       time.Time     `json:"timestamp"`
}

// Collect snapshots the runtime and records every instrument.
func (sm *SystemMetrics) Collect(ctx context.Context, startTime time.Time) *SystemStats {
	var memStats runtime.MemStats
	runtime.ReadMemStats(&memStats)

	stats := &SystemStats{
		GoRoutines:      int64(runtime.NumGoroutine()),
		MemoryUsage:     int64(memStats.Alloc),
		MemoryAllocated: int64(memStats.TotalAlloc),
		MemorySystem:    int64(memStats.Sys),
		HeapObjects:     int64(memStats.HeapObjects),
		GCCount:         memStats.NumGC,
		LastGCPause:     time.Duration(memStats.PauseNs[(memStats.NumGC+255)%256]),
		CPUCount:        runtime.NumCPU(),
		ProcessUptime:   time.Since(startTime),
		Timestamp:       time.Now().UTC(),
	}

	sm.goRoutines.Record(ctx, stats.GoRoutines)
	sm.memoryUsage.Record(ctx, stats.MemoryUsage)
	sm.memoryAllocated.Record(ctx, stats.MemoryAllocated)
	sm.memorySystem.Record(ctx, stats.MemorySystem)
	sm.heapObjects.Record(ctx, stats.HeapObjects)
	sm.cpuCount.Record(ctx, int64(stats.CPUCount))
	sm.processUptime.Record(ctx, stats.ProcessUptime.Seconds())

	if stats.LastGCPause > 0 {
		sm.gcPause.Record(ctx, stats.LastGCPause.Seconds())
	}

	return stats
}

// SystemMetricsCollector drives periodic collection for the lifetime of
// the process.
type SystemMetricsCollector struct {
	metrics   *SystemMetrics
	startTime time.Time
	interval  time.Duration
	stopCh    chan struct{}
}

// NewSystemMetricsCollector creates a collector sampling at interval.
func NewSystemMetricsCollector(meter metric.Meter, interval time.Duration) (*SystemMetricsCollector, error) {
	metrics, err := NewSystemMetrics(meter)
	if err != nil {
		return nil, fmt.Errorf("failed to create system metrics: %w", err)
	}

	return &SystemMetricsCollector{
		metrics:   metrics,
		startTime: time.Now(),
		interval:  interval,
		stopCh:    make(chan struct{}),
	}, nil
}

// Start blocks collecting metrics until Stop or context cancellation.
// Run it on its own goroutine.
func (smc *SystemMetricsCollector) Start(ctx context.Context) {
	ticker := time.NewTicker(smc.interval)
	defer ticker.Stop()

	// First sample immediately, dashboards should not wait an interval
	smc.metrics.Collect(ctx, smc.startTime)

	for {
		select {
		case <-ticker.C:
			smc.metrics.Collect(ctx, smc.startTime)
		case <-smc.stopCh:
			return
		case <-ctx.Done():
			return
		}
	}
}

// Stop halts periodic collection.
func (smc *SystemMetricsCollector) Stop() {
	close(smc.stopCh)
}

// GetCurrentStats collects and returns a fresh snapshot.
func (smc *SystemMetricsCollector) GetCurrentStats(ctx context.Context) *SystemStats {
	return smc.metrics.Collect(ctx, smc.startTime)
}
