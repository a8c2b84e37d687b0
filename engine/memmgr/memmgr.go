// Package memmgr enforces a memory budget across the engine's caches and
// pools. It tracks allocation bytes, classifies pressure against warning and
// critical thresholds, and runs tiered cleanups between frames so memory
// work never lands mid-frame.
package memmgr

import (
	"fmt"
	"runtime"
	"sync"
	"time"
)

// Default budget configuration.
const (
	// DefaultBudgetBytes is the default memory budget (256 MB).
	DefaultBudgetBytes = 256 << 20

	// DefaultWarningFraction is the usage fraction at which moderate
	// cleanup starts.
	DefaultWarningFraction = 0.8

	// DefaultCriticalFraction is the usage fraction at which aggressive
	// cleanup starts.
	DefaultCriticalFraction = 0.95

	// DefaultMinCleanupInterval throttles unforced cleanups so repeated
	// pressure checks do not thrash the caches.
	DefaultMinCleanupInterval = 5 * time.Second

	// WarningPoolFreeTarget is the per-pool free-list size a moderate
	// cleanup shrinks to. Aggressive cleanup shrinks to zero.
	WarningPoolFreeTarget = 4
)

// Pressure classifies current usage against the budget.
type Pressure int

const (
	// PressureNone means usage is at or below the warning threshold.
	PressureNone Pressure = iota
	// PressureWarning means usage is above the warning threshold.
	PressureWarning
	// PressureCritical means usage is above the critical threshold.
	PressureCritical
)

func (p Pressure) String() string {
	switch p {
	case PressureWarning:
		return "warning"
	case PressureCritical:
		return "critical"
	default:
		return "none"
	}
}

// Trimmer is a byte-bounded store the manager can shed memory from.
// The engine caches satisfy it.
type Trimmer interface {
	// Trim evicts until usage is at or below targetBytes and returns
	// the bytes freed.
	Trim(targetBytes int64) int64

	// SizeBytes returns the current usage.
	SizeBytes() int64
}

// Shrinker releases idle pooled objects. The pool manager satisfies it.
type Shrinker interface {
	// ShrinkAll drops free instances beyond targetFree in every pool and
	// returns the number dropped.
	ShrinkAll(targetFree int) int
}

// Config holds construction parameters for a Manager.
type Config struct {
	// BudgetBytes is the memory budget. Defaults to DefaultBudgetBytes
	// if <= 0.
	BudgetBytes int64

	// WarningFraction and CriticalFraction set the pressure thresholds
	// as fractions of the budget. Zero selects the defaults; Warning is
	// clamped below Critical.
	WarningFraction  float64
	CriticalFraction float64

	// MinCleanupInterval throttles unforced cleanups. Zero selects the
	// default; forced cleanups ignore it.
	MinCleanupInterval time.Duration
}

// Result describes one cleanup attempt.
type Result struct {
	// Ran reports whether any cleanup work happened. False when the
	// pressure was below warning or the interval throttle applied.
	Ran bool

	// Level is the pressure level the cleanup responded to.
	Level Pressure

	// FreedBytes is the total bytes shed by trimming.
	FreedBytes int64
}

type namedTrimmer struct {
	name string
	t    Trimmer
}

// Manager tracks memory usage against a budget and sheds memory from
// registered trimmers and shrinkers under pressure.
//
// Usage is the sum of explicitly tracked bytes (Track/Untrack, for
// allocations outside any cache) and the live sizes of registered trimmers.
// Trimmer-owned bytes must not also be tracked explicitly, or they count
// twice.
//
// Manager is safe for concurrent use; cleanups are intended to run from the
// frame thread between frames.
type Manager struct {
	mu sync.Mutex

	budgetBytes   int64
	warningBytes  int64
	criticalBytes int64
	minInterval   time.Duration

	tracked   int64
	trimmers  []namedTrimmer
	shrinkers []Shrinker

	lastCleanup time.Time
	cleanups    uint64
	freedTotal  int64

	now func() time.Time
}

// New creates a Manager from config.
func New(cfg Config) *Manager {
	budget := cfg.BudgetBytes
	if budget <= 0 {
		budget = DefaultBudgetBytes
	}
	warning := cfg.WarningFraction
	if warning <= 0 || warning > 1 {
		warning = DefaultWarningFraction
	}
	critical := cfg.CriticalFraction
	if critical <= 0 || critical > 1 {
		critical = DefaultCriticalFraction
	}
	if warning > critical {
		warning = critical
	}
	interval := cfg.MinCleanupInterval
	if interval <= 0 {
		interval = DefaultMinCleanupInterval
	}

	return &Manager{
		budgetBytes:   budget,
		warningBytes:  int64(float64(budget) * warning),
		criticalBytes: int64(float64(budget) * critical),
		minInterval:   interval,
		now:           time.Now,
	}
}

// RegisterTrimmer registers a byte-bounded store to shed memory from under
// pressure. Trimmers are trimmed in registration order, so register the
// most expendable stores first.
func (m *Manager) RegisterTrimmer(name string, t Trimmer) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.trimmers = append(m.trimmers, namedTrimmer{name: name, t: t})
}

// RegisterShrinker registers a pool set to release idle objects from during
// aggressive cleanup.
func (m *Manager) RegisterShrinker(s Shrinker) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.shrinkers = append(m.shrinkers, s)
}

// Track records n bytes of allocation outside any registered trimmer.
func (m *Manager) Track(n int64) {
	if n <= 0 {
		return
	}
	m.mu.Lock()
	m.tracked += n
	m.mu.Unlock()
}

// Untrack releases n previously tracked bytes. Releasing more than is
// tracked clamps at zero and logs the imbalance; the accounting stays
// usable either way.
func (m *Manager) Untrack(n int64) {
	if n <= 0 {
		return
	}
	m.mu.Lock()
	m.tracked -= n
	if m.tracked < 0 {
		logger().Warn("untracked more bytes than tracked",
			"excess", -m.tracked)
		m.tracked = 0
	}
	m.mu.Unlock()
}

// UsedBytes returns current usage: tracked bytes plus trimmer sizes.
func (m *Manager) UsedBytes() int64 {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.usedLocked()
}

func (m *Manager) usedLocked() int64 {
	used := m.tracked
	for _, nt := range m.trimmers {
		used += nt.t.SizeBytes()
	}
	return used
}

// Pressure returns the current pressure level.
func (m *Manager) Pressure() Pressure {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.pressureLocked(m.usedLocked())
}

func (m *Manager) pressureLocked(used int64) Pressure {
	switch {
	case used > m.criticalBytes:
		return PressureCritical
	case used > m.warningBytes:
		return PressureWarning
	default:
		return PressureNone
	}
}

// MaybeCleanup checks pressure and runs a cleanup when warranted. It is the
// between-frames entry point: no work below the warning threshold, and
// unforced cleanups are throttled by the minimum interval. Critical
// pressure bypasses the throttle.
func (m *Manager) MaybeCleanup() Result {
	m.mu.Lock()
	defer m.mu.Unlock()

	used := m.usedLocked()
	level := m.pressureLocked(used)
	if level == PressureNone {
		return Result{Level: level}
	}
	if level == PressureWarning && m.now().Sub(m.lastCleanup) < m.minInterval {
		return Result{Level: level}
	}
	return m.cleanupLocked(level)
}

// Cleanup runs a cleanup at the current pressure level regardless of the
// interval throttle. At or below the warning target there is no excess to
// shed, so a forced cleanup there frees nothing; repeating a cleanup with
// no intervening allocation likewise frees nothing further.
func (m *Manager) Cleanup() Result {
	m.mu.Lock()
	defer m.mu.Unlock()

	level := m.pressureLocked(m.usedLocked())
	if level == PressureNone {
		level = PressureWarning
	}
	return m.cleanupLocked(level)
}

// cleanupLocked sheds memory for the given pressure level.
//
// Moderate (warning) trims stores front to back by exactly the excess over
// the warning target, so repeating it with no intervening allocation frees
// nothing further, and shrinks pool free lists down to
// WarningPoolFreeTarget. Aggressive (critical) empties every store, shrinks
// the pools to zero, and hints the collector. The GC hint stays out of the
// moderate path; a forced collection is too expensive to run on soft
// pressure.
func (m *Manager) cleanupLocked(level Pressure) Result {
	var freed int64

	if level == PressureCritical {
		for _, nt := range m.trimmers {
			freed += nt.t.Trim(0)
		}
		for _, s := range m.shrinkers {
			s.ShrinkAll(0)
		}
		runtime.GC()
	} else {
		excess := m.usedLocked() - m.warningBytes
		for _, nt := range m.trimmers {
			if excess <= 0 {
				break
			}
			size := nt.t.SizeBytes()
			if size == 0 {
				continue
			}
			target := size - excess
			if target < 0 {
				target = 0
			}
			n := nt.t.Trim(target)
			freed += n
			excess -= n
		}
		for _, s := range m.shrinkers {
			s.ShrinkAll(WarningPoolFreeTarget)
		}
	}

	m.lastCleanup = m.now()
	m.cleanups++
	m.freedTotal += freed

	logger().Info("memory cleanup",
		"level", level.String(),
		"freed_bytes", freed,
		"used_bytes", m.usedLocked(),
		"budget_bytes", m.budgetBytes)

	return Result{Ran: true, Level: level, FreedBytes: freed}
}

// Stats contains memory manager statistics.
type Stats struct {
	// TrackedBytes is the explicitly tracked usage.
	TrackedBytes int64
	// UsedBytes is tracked bytes plus trimmer sizes.
	UsedBytes int64
	// BudgetBytes is the configured budget.
	BudgetBytes int64
	// Utilization is UsedBytes over BudgetBytes (0.0 to 1.0+).
	Utilization float64
	// Level is the current pressure level.
	Level Pressure
	// Cleanups is the number of cleanups performed.
	Cleanups uint64
	// FreedBytes is the total bytes shed by cleanups.
	FreedBytes int64
	// LastCleanup is when the last cleanup ran (zero if never).
	LastCleanup time.Time
}

// String returns a human-readable summary.
func (s Stats) String() string {
	return fmt.Sprintf("Memory[%.1f%% used, %d/%d MB, pressure=%s, %d cleanups]",
		s.Utilization*100,
		s.UsedBytes>>20,
		s.BudgetBytes>>20,
		s.Level,
		s.Cleanups)
}

// Stats returns a snapshot of the manager's statistics.
func (m *Manager) Stats() Stats {
	m.mu.Lock()
	defer m.mu.Unlock()

	used := m.usedLocked()
	return Stats{
		TrackedBytes: m.tracked,
		UsedBytes:    used,
		BudgetBytes:  m.budgetBytes,
		Utilization:  float64(used) / float64(m.budgetBytes),
		Level:        m.pressureLocked(used),
		Cleanups:     m.cleanups,
		FreedBytes:   m.freedTotal,
		LastCleanup:  m.lastCleanup,
	}
}
