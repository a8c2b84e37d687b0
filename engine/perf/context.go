// Package perf is the engine's runtime performance layer: one Context owns
// the transform and text caches, object pools, memory budget, batch queue,
// and frame monitor, and exposes the game-loop surface that drives them.
// All between-frame maintenance (cache sweeps, preload draining, memory
// cleanup) happens inside EndFrame, so subsystems never steal time
// mid-frame.
package perf

import (
	"errors"

	"github.com/gogpu/wgpu/hal"

	"github.com/hebedebe/TouchingJack2/engine/batch"
	"github.com/hebedebe/TouchingJack2/engine/internal/gpubatch"
	"github.com/hebedebe/TouchingJack2/engine/memmgr"
	"github.com/hebedebe/TouchingJack2/engine/monitor"
	"github.com/hebedebe/TouchingJack2/engine/pool"
	"github.com/hebedebe/TouchingJack2/engine/preload"
	"github.com/hebedebe/TouchingJack2/engine/sprite"
	"github.com/hebedebe/TouchingJack2/engine/textcache"
)

// ErrClosed is returned when driving a closed Context.
var ErrClosed = errors.New("perf: context closed")

// ErrExternalBackend is returned from the GPU surface when the Context was
// built with an injected batch backend, which owns its own device wiring.
var ErrExternalBackend = errors.New("perf: batch backend is externally managed")

// Context owns the performance subsystems and their wiring: caches and
// pools register with the memory manager, the batch queue feeds the
// monitor, and the preloader inserts into the sprite cache.
//
// Frame driving (BeginFrame, EndFrame, Close) belongs on the frame thread.
// The caches and pools themselves are safe for concurrent use.
type Context struct {
	sprites *sprite.TransformCache
	texts   *textcache.TextCache
	pools   *pool.Manager
	memory  *memmgr.Manager
	queue   *batch.Queue
	mon     *monitor.Monitor
	loader  *preload.Preloader

	// gpu is set when the Context built its own submission backend and
	// therefore owns its teardown.
	gpu *gpubatch.Backend

	// Cache and pool counters are cumulative; frame samples need deltas.
	lastHits     uint64
	lastMisses   uint64
	lastAcquires uint64

	closed bool
}

// New creates a Context with the given options.
func New(opts ...Option) *Context {
	o := defaultOptions()
	for _, opt := range opts {
		opt(&o)
	}

	c := &Context{
		sprites: sprite.NewTransformCache(o.spriteCfg),
		texts:   textcache.New(o.textCfg),
		pools:   pool.NewManager(),
		memory:  memmgr.New(o.memCfg),
	}

	backend := o.backend
	if backend == nil {
		c.gpu = gpubatch.New(o.provider)
		backend = c.gpu
	}
	c.queue = batch.NewQueue(batch.Config{
		Backend:            backend,
		MaxSpritesPerBatch: o.maxSpritesPerBatch,
	})

	monCfg := o.monitorCfg
	if monCfg.Metrics == nil && o.registry != nil {
		monCfg.Metrics = monitor.NewMetrics(o.registry)
	}
	c.mon = monitor.New(monCfg)

	c.loader = preload.New(c.sprites, preload.Config{Workers: o.preloadWorkers})

	// Cleanup order under pressure: text runs are cheapest to rebuild,
	// transformed sprites cost a render each.
	c.memory.RegisterTrimmer("text", c.texts)
	c.memory.RegisterTrimmer("sprites", c.sprites)
	c.memory.RegisterShrinker(c.pools)

	return c
}

// Sprites returns the sprite transform cache.
func (c *Context) Sprites() *sprite.TransformCache { return c.sprites }

// Text returns the shaped-text cache.
func (c *Context) Text() *textcache.TextCache { return c.texts }

// Pools returns the pool manager. Register typed pools here; registered
// pools shrink automatically under memory pressure.
func (c *Context) Pools() *pool.Manager { return c.pools }

// Memory returns the memory manager.
func (c *Context) Memory() *memmgr.Manager { return c.memory }

// Batch returns the frame's draw queue.
func (c *Context) Batch() *batch.Queue { return c.queue }

// Monitor returns the performance monitor.
func (c *Context) Monitor() *monitor.Monitor { return c.mon }

// Preloader returns the background preloader.
func (c *Context) Preloader() *preload.Preloader { return c.loader }

// InitGPU builds the sprite submission pipeline on the host's HAL device
// and queue. Hosts with a live device call this once at startup; without
// it, flushed batches are counted but not uploaded. Returns
// ErrExternalBackend when a custom batch backend was injected.
func (c *Context) InitGPU(device hal.Device, queue hal.Queue) error {
	if c.closed {
		return ErrClosed
	}
	if c.gpu == nil {
		return ErrExternalBackend
	}
	return c.gpu.InitPipeline(device, queue)
}

// SetViewport sets the pixel dimensions sprite positions map to. A no-op
// with an injected backend.
func (c *Context) SetViewport(width, height float32) {
	if c.gpu != nil {
		c.gpu.SetViewport(width, height)
	}
}

// RecordDraws records the current frame's uploaded batches into the host's
// render pass. Call between Flush (inside EndFrame) and the host's pass
// submission. A no-op with an injected backend or without a live device.
func (c *Context) RecordDraws(rp hal.RenderPassEncoder) {
	if c.gpu != nil {
		c.gpu.RecordDraws(rp)
	}
}

// BeginFrame marks the start of a frame.
func (c *Context) BeginFrame() error {
	if c.closed {
		return ErrClosed
	}
	c.mon.BeginFrame()
	return nil
}

// EndFrame flushes the draw queue, records the frame sample, and runs the
// between-frame maintenance: preload draining, expiry sweeps, and memory
// cleanup when pressure warrants. Returns the frame's batch stats.
func (c *Context) EndFrame() (batch.FrameStats, error) {
	if c.closed {
		return batch.FrameStats{}, ErrClosed
	}

	stats, err := c.queue.Flush()

	c.loader.Drain()
	c.sprites.SweepExpired()
	c.texts.SweepExpired()
	c.memory.MaybeCleanup()

	hits, misses := c.cacheTotals()
	acquires := c.poolAcquireTotal()
	c.mon.EndFrame(monitor.FrameSample{
		DrawCalls:    stats.Batches,
		Sprites:      stats.Sprites,
		CacheHits:    hits - c.lastHits,
		CacheMisses:  misses - c.lastMisses,
		PoolAcquires: acquires - c.lastAcquires,
		MemoryBytes:  c.memory.UsedBytes(),
	})
	c.lastHits, c.lastMisses = hits, misses
	c.lastAcquires = acquires

	return stats, err
}

func (c *Context) cacheTotals() (hits, misses uint64) {
	ss := c.sprites.Stats()
	ts := c.texts.Stats()
	return ss.Hits + ts.Hits, ss.Misses + ts.Misses
}

// poolAcquireTotal sums acquisitions (fresh constructions plus reuses)
// across every registered pool.
func (c *Context) poolAcquireTotal() uint64 {
	var total uint64
	for _, s := range c.pools.StatsAll() {
		total += s.Created + s.Reused
	}
	return total
}

// Snapshot is the on-screen dashboard view of the performance layer.
type Snapshot struct {
	FPS          float64
	FrameTimeMs  float64
	CacheHitRate float64

	MemoryBytes       int64
	MemoryBudgetBytes int64
	MemoryTrend       float64

	DrawCalls int
	Sprites   int

	SpriteCache CacheView
	TextCache   CacheView

	Pools map[string]pool.Stats
}

// CacheView is the per-cache slice of a Snapshot.
type CacheView struct {
	SizeBytes int64
	Entries   int
	HitRate   float64
}

// Snapshot assembles the dashboard view from every subsystem.
func (c *Context) Snapshot() Snapshot {
	report := c.mon.Snapshot()
	mem := c.memory.Stats()
	ss := c.sprites.Stats()
	ts := c.texts.Stats()

	return Snapshot{
		FPS:               report.FPS,
		FrameTimeMs:       report.AvgFrameMs,
		CacheHitRate:      report.CacheHitRate,
		MemoryBytes:       mem.UsedBytes,
		MemoryBudgetBytes: mem.BudgetBytes,
		MemoryTrend:       report.MemoryTrendBytesPerSec,
		DrawCalls:         report.DrawCalls,
		Sprites:           report.Sprites,
		SpriteCache:       CacheView{SizeBytes: ss.SizeBytes, Entries: ss.Len, HitRate: ss.HitRate},
		TextCache:         CacheView{SizeBytes: ts.SizeBytes, Entries: ts.Len, HitRate: ts.HitRate},
		Pools:             c.pools.StatsAll(),
	}
}

// Close tears the Context down: stops the preloader, clears the caches
// (releasing GPU artifacts), and releases the submission backend when the
// Context owns it. Idempotent.
func (c *Context) Close() {
	if c.closed {
		return
	}
	c.closed = true

	c.loader.Close()
	c.sprites.Clear()
	c.texts.Clear()
	c.pools.ShrinkAll(0)
	if c.gpu != nil {
		c.gpu.Close()
	}

	logger().Info("performance layer closed")
}
