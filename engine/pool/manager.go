package pool

import "sync"

// Shrinkable is the narrow contract the Manager needs from a pool of any
// element type: pressure response and stats reporting. Pool[T] satisfies it
// for every T.
type Shrinkable interface {
	Shrink(targetFree int) int
	Stats() Stats
	Name() string
}

// Manager holds heterogeneous named pools behind the Shrinkable contract so
// the memory manager and monitor can address them uniformly.
//
// Manager is safe for concurrent use.
type Manager struct {
	mu    sync.RWMutex
	pools map[string]Shrinkable
}

// NewManager creates an empty pool manager.
func NewManager() *Manager {
	return &Manager{pools: make(map[string]Shrinkable)}
}

// Register adds a pool under its name. A pool registered under an existing
// name replaces the previous registration.
func (m *Manager) Register(p Shrinkable) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.pools[p.Name()] = p
}

// Get returns the pool registered under name, or nil.
func (m *Manager) Get(name string) Shrinkable {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.pools[name]
}

// ShrinkAll shrinks every pool's free list to targetFree instances and
// returns the total number of instances dropped.
func (m *Manager) ShrinkAll(targetFree int) int {
	m.mu.RLock()
	defer m.mu.RUnlock()

	dropped := 0
	for _, p := range m.pools {
		dropped += p.Shrink(targetFree)
	}
	return dropped
}

// StatsAll returns per-pool statistics keyed by pool name.
func (m *Manager) StatsAll() map[string]Stats {
	m.mu.RLock()
	defer m.mu.RUnlock()

	out := make(map[string]Stats, len(m.pools))
	for name, p := range m.pools {
		out[name] = p.Stats()
	}
	return out
}
