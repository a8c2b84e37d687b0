package monitor

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Metrics exports the monitor's frame data as Prometheus metrics.
type Metrics struct {
	FrameTime   prometheus.Histogram
	DrawCalls   prometheus.Gauge
	Sprites     prometheus.Gauge
	MemoryBytes prometheus.Gauge
	CacheHits    prometheus.Counter
	CacheMisses  prometheus.Counter
	PoolAcquires prometheus.Counter
}

// NewMetrics creates and registers all metrics with the provided registry.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	frameTime := prometheus.NewHistogram(prometheus.HistogramOpts{
		Name:    "engine_frame_duration_seconds",
		Help:    "Frame duration in seconds",
		Buckets: []float64{0.004, 0.008, 0.0167, 0.0333, 0.05, 0.1, 0.25},
	})
	drawCalls := prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "engine_draw_calls",
		Help: "Draw calls issued in the most recent frame",
	})
	sprites := prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "engine_sprites",
		Help: "Sprites submitted in the most recent frame",
	})
	memoryBytes := prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "engine_memory_bytes",
		Help: "Tracked memory usage at frame end",
	})
	cacheHits := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "engine_cache_hits_total",
		Help: "Total cache hits across the engine caches",
	})
	cacheMisses := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "engine_cache_misses_total",
		Help: "Total cache misses across the engine caches",
	})
	poolAcquires := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "engine_pool_acquires_total",
		Help: "Total object pool acquisitions",
	})

	reg.MustRegister(frameTime, drawCalls, sprites, memoryBytes, cacheHits, cacheMisses, poolAcquires)

	return &Metrics{
		FrameTime:    frameTime,
		DrawCalls:    drawCalls,
		Sprites:      sprites,
		MemoryBytes:  memoryBytes,
		CacheHits:    cacheHits,
		CacheMisses:  cacheMisses,
		PoolAcquires: poolAcquires,
	}
}

func (m *Metrics) observe(s FrameSample) {
	m.FrameTime.Observe(s.Duration.Seconds())
	m.DrawCalls.Set(float64(s.DrawCalls))
	m.Sprites.Set(float64(s.Sprites))
	m.MemoryBytes.Set(float64(s.MemoryBytes))
	m.CacheHits.Add(float64(s.CacheHits))
	m.CacheMisses.Add(float64(s.CacheMisses))
	m.PoolAcquires.Add(float64(s.PoolAcquires))
}
