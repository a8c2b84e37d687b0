package perf

import (
	"github.com/gogpu/gpucontext"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/hebedebe/TouchingJack2/engine/batch"
	"github.com/hebedebe/TouchingJack2/engine/memmgr"
	"github.com/hebedebe/TouchingJack2/engine/monitor"
	"github.com/hebedebe/TouchingJack2/engine/sprite"
	"github.com/hebedebe/TouchingJack2/engine/textcache"
)

// Option configures a Context during creation.
//
// Example:
//
//	ctx := perf.New(
//	    perf.WithSpriteCache(sprite.Config{CapacityBytes: 64 << 20}),
//	    perf.WithMemoryBudget(256 << 20),
//	)
type Option func(*options)

type options struct {
	spriteCfg  sprite.Config
	textCfg    textcache.Config
	memCfg     memmgr.Config
	monitorCfg monitor.Config

	maxSpritesPerBatch int
	backend            batch.Backend
	provider           gpucontext.DeviceProvider

	registry prometheus.Registerer

	preloadWorkers int
}

func defaultOptions() options {
	return options{
		spriteCfg: sprite.Config{CapacityBytes: 64 << 20},
		textCfg:   textcache.Config{CapacityBytes: 4 << 20},
	}
}

// WithSpriteCache sets the sprite transform cache configuration.
func WithSpriteCache(cfg sprite.Config) Option {
	return func(o *options) { o.spriteCfg = cfg }
}

// WithTextCache sets the shaped-text cache configuration.
func WithTextCache(cfg textcache.Config) Option {
	return func(o *options) { o.textCfg = cfg }
}

// WithMemoryBudget sets the memory budget in bytes, keeping the default
// thresholds. Use WithMemoryConfig for full control.
func WithMemoryBudget(bytes int64) Option {
	return func(o *options) { o.memCfg.BudgetBytes = bytes }
}

// WithMemoryConfig sets the full memory manager configuration.
func WithMemoryConfig(cfg memmgr.Config) Option {
	return func(o *options) { o.memCfg = cfg }
}

// WithMonitorConfig sets the performance monitor configuration. A Metrics
// field set here takes precedence over WithMetricsRegistry.
func WithMonitorConfig(cfg monitor.Config) Option {
	return func(o *options) { o.monitorCfg = cfg }
}

// WithMaxSpritesPerBatch bounds one draw call's sprite count.
func WithMaxSpritesPerBatch(n int) Option {
	return func(o *options) { o.maxSpritesPerBatch = n }
}

// WithBackend sets a custom batch backend (dependency injection). Without
// it, a GPU submission backend is built over the device provider, which
// degrades to a counting backend when no provider is set.
func WithBackend(b batch.Backend) Option {
	return func(o *options) { o.backend = b }
}

// WithDeviceProvider sets the host's GPU device boundary. The performance
// layer receives the device from the host; it never creates one.
func WithDeviceProvider(p gpucontext.DeviceProvider) Option {
	return func(o *options) { o.provider = p }
}

// WithMetricsRegistry registers the monitor's Prometheus collectors with
// the given registry.
func WithMetricsRegistry(reg prometheus.Registerer) Option {
	return func(o *options) { o.registry = reg }
}

// WithPreloadWorkers sets the number of background preload goroutines.
// Zero keeps the default single worker.
func WithPreloadWorkers(n int) Option {
	return func(o *options) { o.preloadWorkers = n }
}
