// Package preload renders sprite transforms ahead of need on background
// goroutines, so scene transitions can warm the transform cache without
// stalling the frame loop. Rendering happens off-thread; cache insertion
// happens on the frame thread when Drain runs.
package preload

import (
	"context"
	"sync"

	"github.com/hebedebe/TouchingJack2/engine/sprite"
)

// Default queue sizing.
const (
	DefaultWorkers   = 1
	DefaultQueueSize = 64
)

// Task is one preload request: render this asset at these params.
type Task struct {
	Asset  string
	Params sprite.Params
	Render sprite.RenderFunc
}

type result struct {
	task     Task
	artifact *sprite.Artifact
	err      error
}

// Config holds construction parameters for a Preloader.
type Config struct {
	// Workers is the number of render goroutines. Zero selects the
	// default.
	Workers int

	// QueueSize bounds pending tasks and undrained results. Zero
	// selects the default.
	QueueSize int

	// OnError is called from Drain for each failed render. Nil means
	// failures are logged and dropped.
	OnError func(asset string, err error)
}

// Preloader renders transforms in the background and inserts them into a
// transform cache when drained. Enqueue may be called from any goroutine;
// Drain belongs on the frame thread.
type Preloader struct {
	cache   *sprite.TransformCache
	tasks   chan Task
	results chan result
	onError func(asset string, err error)

	cancel context.CancelFunc
	wg     sync.WaitGroup

	mu     sync.Mutex
	closed bool
}

// New creates a Preloader inserting into cache and starts its workers.
func New(cache *sprite.TransformCache, cfg Config) *Preloader {
	workers := cfg.Workers
	if workers <= 0 {
		workers = DefaultWorkers
	}
	queue := cfg.QueueSize
	if queue <= 0 {
		queue = DefaultQueueSize
	}

	ctx, cancel := context.WithCancel(context.Background())
	p := &Preloader{
		cache:   cache,
		tasks:   make(chan Task, queue),
		results: make(chan result, queue),
		onError: cfg.OnError,
		cancel:  cancel,
	}

	p.wg.Add(workers)
	for range workers {
		go p.worker(ctx)
	}
	return p
}

// Enqueue submits a task. It never blocks: a full queue or a closed
// preloader drops the task and returns false. Preloading is advisory; a
// dropped task just means the transform renders on first use instead.
func (p *Preloader) Enqueue(task Task) bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.closed {
		return false
	}
	select {
	case p.tasks <- task:
		return true
	default:
		return false
	}
}

// Drain moves completed renders into the cache and reports failures. Call
// between frames from the frame thread. Returns the number of artifacts
// inserted. Results that do not land in the cache, because a frame-thread
// render of the same key superseded them or the artifact is too large to
// cache, are discarded and their resources released.
func (p *Preloader) Drain() int {
	inserted := 0
	for {
		select {
		case r := <-p.results:
			if r.err != nil {
				p.reportError(r.task.Asset, r.err)
				continue
			}
			if _, stored := p.cache.PutRendered(r.task.Asset, r.task.Params, r.artifact); !stored {
				r.artifact.Release()
				continue
			}
			inserted++
		default:
			return inserted
		}
	}
}

// Close stops the workers, discards undelivered results, and releases their
// resources. Pending tasks are abandoned.
func (p *Preloader) Close() {
	p.mu.Lock()
	if p.closed {
		p.mu.Unlock()
		return
	}
	p.closed = true
	p.mu.Unlock()

	p.cancel()
	close(p.tasks)
	p.wg.Wait()

	close(p.results)
	for r := range p.results {
		if r.artifact != nil {
			r.artifact.Release()
		}
	}
}

func (p *Preloader) worker(ctx context.Context) {
	defer p.wg.Done()
	for {
		select {
		case <-ctx.Done():
			return
		case task, ok := <-p.tasks:
			if !ok {
				return
			}
			a, err := task.Render()
			select {
			case p.results <- result{task: task, artifact: a, err: err}:
			case <-ctx.Done():
				if a != nil {
					a.Release()
				}
				return
			}
		}
	}
}

func (p *Preloader) reportError(asset string, err error) {
	if p.onError != nil {
		p.onError(asset, err)
		return
	}
	logger().Warn("preload failed", "asset", asset, "error", err)
}
