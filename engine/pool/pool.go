// Package pool provides per-type free-list pools that recycle short-lived
// objects (entities, particles, UI nodes) instead of allocating and freeing
// them every frame.
//
// Pool[T] hands out *T instances and tracks outstanding ownership, so a
// release of an instance the pool never handed out is detected instead of
// corrupting the free list. Pools are safe for concurrent use, though the
// intended driver is a single frame loop.
package pool

import (
	"errors"
	"sync"
)

// Pool errors. Both are recoverable: the caller falls back to direct
// allocation on ErrExhausted and may ignore ErrInvalidRelease.
var (
	// ErrExhausted is returned by Acquire when capacity is reached under
	// the Reject overflow policy.
	ErrExhausted = errors.New("pool: capacity reached")

	// ErrInvalidRelease is returned when releasing an instance that was
	// not acquired from this pool (or was already released). The pool
	// state is unaffected.
	ErrInvalidRelease = errors.New("pool: released instance not owned by pool")
)

// OverflowPolicy selects the behavior of Acquire at capacity with an empty
// free list.
type OverflowPolicy int

const (
	// Reject refuses the acquire with ErrExhausted. The default.
	Reject OverflowPolicy = iota

	// Grow constructs a fresh instance beyond capacity and logs the
	// overflow. Instances released while over capacity are discarded
	// rather than retained.
	Grow
)

// String returns the policy name.
func (p OverflowPolicy) String() string {
	switch p {
	case Grow:
		return "grow"
	default:
		return "reject"
	}
}

// Config holds construction parameters for a Pool.
type Config[T any] struct {
	// Name identifies the pool in logs and stats.
	Name string

	// Capacity is the maximum number of live instances (in use + free).
	// Zero or negative means a default of 64.
	Capacity int

	// Prealloc constructs this many instances up front.
	Prealloc int

	// Policy is the overflow policy. Defaults to Reject.
	Policy OverflowPolicy

	// New constructs a fresh instance. Required.
	New func() *T

	// Reset restores an instance to its canonical empty state before it
	// returns to the free list. Optional but strongly recommended.
	Reset func(*T)
}

// DefaultCapacity is used when Config.Capacity is not positive.
const DefaultCapacity = 64

// Pool is a typed free-list object pool.
type Pool[T any] struct {
	mu   sync.Mutex
	name string

	free  []*T
	inUse map[*T]struct{}

	capacity int
	policy   OverflowPolicy
	factory  func() *T
	reset    func(*T)

	// Statistics. Guarded by mu.
	created   uint64
	reused    uint64
	peak      int
	overflows uint64
	invalid   uint64
}

// New creates a Pool from config. Panics if cfg.New is nil, since a pool
// without a factory cannot hand out anything.
func New[T any](cfg Config[T]) *Pool[T] {
	if cfg.New == nil {
		panic("pool: Config.New is required")
	}
	capacity := cfg.Capacity
	if capacity <= 0 {
		capacity = DefaultCapacity
	}
	prealloc := cfg.Prealloc
	if prealloc > capacity {
		prealloc = capacity
	}

	p := &Pool[T]{
		name:     cfg.Name,
		inUse:    make(map[*T]struct{}),
		capacity: capacity,
		policy:   cfg.Policy,
		factory:  cfg.New,
		reset:    cfg.Reset,
	}
	for range prealloc {
		p.free = append(p.free, cfg.New())
		p.created++
	}
	return p
}

// Acquire returns an instance from the free list, constructing a fresh one
// under capacity. At capacity the overflow policy decides: Reject returns
// ErrExhausted, Grow constructs anyway and logs the overflow.
func (p *Pool[T]) Acquire() (*T, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	var obj *T
	switch {
	case len(p.free) > 0:
		obj = p.free[len(p.free)-1]
		p.free = p.free[:len(p.free)-1]
		p.reused++
	case len(p.inUse) < p.capacity:
		obj = p.factory()
		p.created++
	case p.policy == Grow:
		obj = p.factory()
		p.created++
		p.overflows++
		logger().Warn("pool grew past capacity",
			"pool", p.name,
			"capacity", p.capacity,
			"in_use", len(p.inUse)+1)
	default:
		return nil, ErrExhausted
	}

	p.inUse[obj] = struct{}{}
	if len(p.inUse) > p.peak {
		p.peak = len(p.inUse)
	}
	return obj, nil
}

// Release resets an instance and returns it to the free list.
// Releasing an instance not handed out by this pool is a caller bug: it is
// logged, reported as ErrInvalidRelease, and otherwise ignored.
func (p *Pool[T]) Release(obj *T) error {
	if obj == nil {
		return ErrInvalidRelease
	}

	p.mu.Lock()
	defer p.mu.Unlock()

	if _, ok := p.inUse[obj]; !ok {
		p.invalid++
		logger().Warn("invalid pool release ignored", "pool", p.name)
		return ErrInvalidRelease
	}
	delete(p.inUse, obj)

	if p.reset != nil {
		p.reset(obj)
	}

	// Over-capacity instances from the Grow policy are not retained.
	if len(p.inUse)+len(p.free) >= p.capacity {
		return nil
	}
	p.free = append(p.free, obj)
	return nil
}

// Shrink drops free instances down to targetFree and returns the number
// dropped. Used by the memory manager under pressure.
func (p *Pool[T]) Shrink(targetFree int) int {
	if targetFree < 0 {
		targetFree = 0
	}

	p.mu.Lock()
	defer p.mu.Unlock()

	if len(p.free) <= targetFree {
		return 0
	}
	dropped := len(p.free) - targetFree
	for i := targetFree; i < len(p.free); i++ {
		p.free[i] = nil
	}
	p.free = p.free[:targetFree]
	return dropped
}

// Name returns the pool's configured name.
func (p *Pool[T]) Name() string { return p.name }

// Stats contains pool statistics for monitoring.
type Stats struct {
	// Name is the pool's configured name.
	Name string
	// InUse is the number of instances currently acquired.
	InUse int
	// Free is the number of instances waiting for reuse.
	Free int
	// Capacity is the configured maximum of live instances.
	Capacity int
	// Peak is the highest simultaneous in-use count observed.
	Peak int
	// Created is the total number of factory constructions.
	Created uint64
	// Reused is the total number of free-list reuses.
	Reused uint64
	// Overflows is the number of Grow-policy constructions past capacity.
	Overflows uint64
	// InvalidReleases is the number of ignored bad releases.
	InvalidReleases uint64
	// ReuseRate is Reused/(Created+Reused), 0.0 to 1.0.
	ReuseRate float64
	// Utilization is InUse/Capacity, 0.0 to 1.0 (may exceed 1 under Grow).
	Utilization float64
}

// Stats returns current pool statistics.
func (p *Pool[T]) Stats() Stats {
	p.mu.Lock()
	defer p.mu.Unlock()

	var reuseRate float64
	if total := p.created + p.reused; total > 0 {
		reuseRate = float64(p.reused) / float64(total)
	}
	var utilization float64
	if p.capacity > 0 {
		utilization = float64(len(p.inUse)) / float64(p.capacity)
	}

	return Stats{
		Name:            p.name,
		InUse:           len(p.inUse),
		Free:            len(p.free),
		Capacity:        p.capacity,
		Peak:            p.peak,
		Created:         p.created,
		Reused:          p.reused,
		Overflows:       p.overflows,
		InvalidReleases: p.invalid,
		ReuseRate:       reuseRate,
		Utilization:     utilization,
	}
}
