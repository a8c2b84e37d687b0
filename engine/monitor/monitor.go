// Package monitor collects per-frame performance samples into a sliding
// window and derives the numbers a tuning pass needs: frame rate, frame
// time, cache hit rate, memory growth trend, and draw call counts. It also
// exports the window as Prometheus metrics for external dashboards.
package monitor

import (
	"time"
)

// DefaultWindow is the default number of frames analyzed (two seconds at
// 60 fps).
const DefaultWindow = 120

// DefaultLowFPSThreshold is the frame rate below which the health check
// reports degradation.
const DefaultLowFPSThreshold = 30.0

// DefaultLowHitRateThreshold is the cache hit rate below which the health
// check reports cache thrash.
const DefaultLowHitRateThreshold = 0.5

// Config holds construction parameters for a Monitor.
type Config struct {
	// Window is the number of frames kept for analysis. Zero selects
	// the default.
	Window int

	// LowFPSThreshold is the health-check frame rate floor. Zero
	// selects the default.
	LowFPSThreshold float64

	// LowHitRateThreshold is the health-check cache hit rate floor.
	// Zero selects the default.
	LowHitRateThreshold float64

	// Metrics, when set, receives every sample for Prometheus export.
	Metrics *Metrics
}

// Monitor accumulates frame samples and summarizes them. Not safe for
// concurrent use: recording and snapshots both belong on the frame thread.
type Monitor struct {
	ring       *sampleRing
	lowFPS     float64
	lowHitRate float64
	metrics    *Metrics

	frameStart time.Time
	inFrame    bool
	pending    FrameSample

	scratch []FrameSample

	now func() time.Time
}

// New creates a Monitor from config.
func New(cfg Config) *Monitor {
	window := cfg.Window
	if window <= 0 {
		window = DefaultWindow
	}
	lowFPS := cfg.LowFPSThreshold
	if lowFPS <= 0 {
		lowFPS = DefaultLowFPSThreshold
	}
	lowHitRate := cfg.LowHitRateThreshold
	if lowHitRate <= 0 {
		lowHitRate = DefaultLowHitRateThreshold
	}
	return &Monitor{
		ring:       newSampleRing(window),
		lowFPS:     lowFPS,
		lowHitRate: lowHitRate,
		metrics:    cfg.Metrics,
		now:        time.Now,
	}
}

// BeginFrame marks the start of a frame.
func (m *Monitor) BeginFrame() {
	m.frameStart = m.now()
	m.inFrame = true
}

// AddDraw accumulates draw calls and sprites into the frame currently
// open. EndFrame folds the accumulation into the recorded sample.
func (m *Monitor) AddDraw(calls, sprites int) {
	m.pending.DrawCalls += calls
	m.pending.Sprites += sprites
}

// AddCacheEvents accumulates cache hits and misses into the frame
// currently open.
func (m *Monitor) AddCacheEvents(hits, misses uint64) {
	m.pending.CacheHits += hits
	m.pending.CacheMisses += misses
}

// AddPoolAcquires accumulates object pool acquisitions into the frame
// currently open.
func (m *Monitor) AddPoolAcquires(n uint64) {
	m.pending.PoolAcquires += n
}

// EndFrame closes the current frame, stamping the sample's timestamp and
// duration from the monitor's clock and folding in any counters
// accumulated since BeginFrame. EndFrame without a matching BeginFrame
// records a zero-duration sample.
func (m *Monitor) EndFrame(sample FrameSample) {
	end := m.now()
	sample.Timestamp = end
	if m.inFrame {
		sample.Duration = end.Sub(m.frameStart)
		m.inFrame = false
	}
	sample.DrawCalls += m.pending.DrawCalls
	sample.Sprites += m.pending.Sprites
	sample.CacheHits += m.pending.CacheHits
	sample.CacheMisses += m.pending.CacheMisses
	sample.PoolAcquires += m.pending.PoolAcquires
	m.pending = FrameSample{}
	m.Record(sample)
}

// Record adds a complete sample to the window.
func (m *Monitor) Record(sample FrameSample) {
	m.ring.push(sample)
	if m.metrics != nil {
		m.metrics.observe(sample)
	}
}

// Reset drops all samples.
func (m *Monitor) Reset() {
	m.ring.clear()
}

// Report summarizes the current sample window.
type Report struct {
	// Frames is the number of samples in the window.
	Frames int

	// FPS is the frame rate implied by the average frame duration.
	FPS float64

	// AvgFrameMs and MaxFrameMs are frame durations in milliseconds.
	AvgFrameMs float64
	MaxFrameMs float64

	// CacheHitRate is hits over lookups across the window, 0 when no
	// lookups happened. CacheLookups distinguishes the two cases.
	CacheHitRate float64
	CacheLookups uint64

	// MemoryBytes is the newest sample's memory usage.
	MemoryBytes int64

	// MemoryTrendBytesPerSec is the least-squares slope of memory usage
	// over the window. Positive values mean growth; a sustained positive
	// trend with a stable scene is the leak signature.
	MemoryTrendBytesPerSec float64

	// DrawCalls, Sprites, and PoolAcquires are the newest sample's counts.
	DrawCalls    int
	Sprites      int
	PoolAcquires uint64
}

// Snapshot computes a Report over the current window.
func (m *Monitor) Snapshot() Report {
	m.scratch = m.ring.oldestFirst(m.scratch[:0])
	window := m.scratch

	r := Report{Frames: len(window)}
	if len(window) == 0 {
		return r
	}

	var totalDur time.Duration
	var maxDur time.Duration
	var hits, misses uint64
	for _, s := range window {
		totalDur += s.Duration
		if s.Duration > maxDur {
			maxDur = s.Duration
		}
		hits += s.CacheHits
		misses += s.CacheMisses
	}

	avg := totalDur / time.Duration(len(window))
	r.AvgFrameMs = float64(avg) / float64(time.Millisecond)
	r.MaxFrameMs = float64(maxDur) / float64(time.Millisecond)
	if avg > 0 {
		r.FPS = float64(time.Second) / float64(avg)
	}
	r.CacheLookups = hits + misses
	if r.CacheLookups > 0 {
		r.CacheHitRate = float64(hits) / float64(r.CacheLookups)
	}

	newest := window[len(window)-1]
	r.MemoryBytes = newest.MemoryBytes
	r.DrawCalls = newest.DrawCalls
	r.Sprites = newest.Sprites
	r.PoolAcquires = newest.PoolAcquires
	r.MemoryTrendBytesPerSec = memoryTrend(window)
	return r
}

// HealthCheck reports human-readable problems with the current window and
// logs each at warning level. An empty slice means healthy.
func (m *Monitor) HealthCheck() []string {
	report := m.Snapshot()
	if report.Frames == 0 {
		return nil
	}

	var issues []string
	if report.FPS > 0 && report.FPS < m.lowFPS {
		issues = append(issues, "frame rate below threshold")
		logger().Warn("frame rate below threshold",
			"fps", report.FPS, "threshold", m.lowFPS)
	}
	if report.MemoryTrendBytesPerSec > 0 && report.Frames >= 10 {
		issues = append(issues, "memory usage trending upward")
		logger().Warn("memory usage trending upward",
			"bytes_per_sec", report.MemoryTrendBytesPerSec,
			"memory_bytes", report.MemoryBytes)
	}
	if report.CacheLookups > 0 && report.CacheHitRate < m.lowHitRate {
		issues = append(issues, "cache hit rate below threshold")
		logger().Warn("cache hit rate below threshold",
			"hit_rate", report.CacheHitRate,
			"threshold", m.lowHitRate)
	}
	return issues
}

// memoryTrend fits a least-squares line to (seconds since window start,
// memory bytes) and returns its slope.
func memoryTrend(window []FrameSample) float64 {
	if len(window) < 2 {
		return 0
	}

	t0 := window[0].Timestamp
	var sumX, sumY, sumXY, sumXX float64
	for _, s := range window {
		x := s.Timestamp.Sub(t0).Seconds()
		y := float64(s.MemoryBytes)
		sumX += x
		sumY += y
		sumXY += x * y
		sumXX += x * x
	}

	n := float64(len(window))
	denom := n*sumXX - sumX*sumX
	if denom == 0 {
		return 0
	}
	return (n*sumXY - sumX*sumY) / denom
}
