package memmgr

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeStore is a Trimmer with a settable size.
type fakeStore struct {
	size  int64
	trims []int64
}

func (f *fakeStore) SizeBytes() int64 { return f.size }

func (f *fakeStore) Trim(target int64) int64 {
	f.trims = append(f.trims, target)
	if f.size <= target {
		return 0
	}
	freed := f.size - target
	f.size = target
	return freed
}

type fakeShrinker struct{ targets []int }

func (f *fakeShrinker) ShrinkAll(targetFree int) int {
	f.targets = append(f.targets, targetFree)
	return 0
}

func newTestManager(cfg Config) *Manager {
	m := New(cfg)
	m.now = func() time.Time { return time.Unix(0, 0) }
	return m
}

func TestTrackUntrack(t *testing.T) {
	m := New(Config{BudgetBytes: 1000})

	m.Track(600)
	assert.Equal(t, int64(600), m.UsedBytes())

	m.Untrack(200)
	assert.Equal(t, int64(400), m.UsedBytes())
}

func TestUntrackClampsAtZero(t *testing.T) {
	m := New(Config{BudgetBytes: 1000})

	m.Track(100)
	m.Untrack(300)
	assert.Equal(t, int64(0), m.UsedBytes(), "over-release clamps at zero")

	// Accounting stays usable afterwards.
	m.Track(50)
	assert.Equal(t, int64(50), m.UsedBytes())
}

func TestPressureLevels(t *testing.T) {
	m := New(Config{BudgetBytes: 1000, WarningFraction: 0.8, CriticalFraction: 0.95})

	m.Track(700)
	assert.Equal(t, PressureNone, m.Pressure())

	m.Track(100) // exactly the warning threshold: still fine
	assert.Equal(t, PressureNone, m.Pressure())

	m.Track(50) // 850: above warning
	assert.Equal(t, PressureWarning, m.Pressure())

	m.Track(101) // 951: above critical
	assert.Equal(t, PressureCritical, m.Pressure())
}

func TestUsedBytesIncludesTrimmers(t *testing.T) {
	m := New(Config{BudgetBytes: 1000})
	store := &fakeStore{size: 300}
	m.RegisterTrimmer("sprites", store)

	m.Track(200)
	assert.Equal(t, int64(500), m.UsedBytes())
}

func TestMaybeCleanupBelowWarningDoesNothing(t *testing.T) {
	m := newTestManager(Config{BudgetBytes: 1000})
	store := &fakeStore{size: 100}
	m.RegisterTrimmer("sprites", store)

	res := m.MaybeCleanup()
	assert.False(t, res.Ran)
	assert.Equal(t, PressureNone, res.Level)
	assert.Empty(t, store.trims)
}

func TestModerateCleanupTrimsToWarningTarget(t *testing.T) {
	m := newTestManager(Config{BudgetBytes: 1000, WarningFraction: 0.8})
	store := &fakeStore{size: 900}
	m.RegisterTrimmer("sprites", store)

	res := m.MaybeCleanup()
	require.True(t, res.Ran)
	assert.Equal(t, PressureWarning, res.Level)
	assert.Equal(t, int64(100), res.FreedBytes)
	assert.Equal(t, []int64{800}, store.trims)
	assert.Equal(t, int64(800), m.UsedBytes())
	assert.Equal(t, PressureNone, m.Pressure())
}

func TestModerateCleanupStopsOnceAtWarning(t *testing.T) {
	m := newTestManager(Config{BudgetBytes: 1000, WarningFraction: 0.8})
	a := &fakeStore{size: 800}
	b := &fakeStore{size: 100}
	m.RegisterTrimmer("a", a)
	m.RegisterTrimmer("b", b)

	res := m.MaybeCleanup()
	require.True(t, res.Ran)
	// The 100-byte excess comes out of a alone; b is untouched.
	assert.Equal(t, int64(700), a.size)
	assert.Empty(t, b.trims)
	assert.Equal(t, int64(800), m.UsedBytes())
}

func TestCriticalCleanupEmptiesStoresAndShrinksPools(t *testing.T) {
	m := newTestManager(Config{BudgetBytes: 1000, CriticalFraction: 0.9})
	store := &fakeStore{size: 950}
	shr := &fakeShrinker{}
	m.RegisterTrimmer("sprites", store)
	m.RegisterShrinker(shr)

	res := m.MaybeCleanup()
	require.True(t, res.Ran)
	assert.Equal(t, PressureCritical, res.Level)
	assert.Equal(t, []int64{0}, store.trims)
	assert.Equal(t, int64(0), store.size)
	assert.Equal(t, []int{0}, shr.targets, "critical cleanup empties pool free lists")
}

func TestModerateCleanupShrinksPoolsPartially(t *testing.T) {
	m := newTestManager(Config{BudgetBytes: 1000, WarningFraction: 0.5, CriticalFraction: 0.9})
	shr := &fakeShrinker{}
	m.RegisterShrinker(shr)
	m.Track(700)

	res := m.Cleanup()
	require.True(t, res.Ran)
	assert.Equal(t, PressureWarning, res.Level)
	assert.Equal(t, []int{WarningPoolFreeTarget}, shr.targets,
		"moderate cleanup shrinks pools to the partial target")
}

func TestIntervalThrottlesWarningCleanups(t *testing.T) {
	m := New(Config{BudgetBytes: 1000, WarningFraction: 0.5, MinCleanupInterval: time.Minute})
	clock := time.Unix(1000, 0)
	m.now = func() time.Time { return clock }

	store := &fakeStore{size: 600}
	m.RegisterTrimmer("sprites", store)

	res := m.MaybeCleanup()
	require.True(t, res.Ran)

	// Refill; too soon for another unforced cleanup.
	store.size = 600
	clock = clock.Add(30 * time.Second)
	res = m.MaybeCleanup()
	assert.False(t, res.Ran)

	clock = clock.Add(31 * time.Second)
	res = m.MaybeCleanup()
	assert.True(t, res.Ran)
}

func TestCriticalBypassesThrottle(t *testing.T) {
	m := New(Config{BudgetBytes: 1000, WarningFraction: 0.5, CriticalFraction: 0.9, MinCleanupInterval: time.Hour})
	clock := time.Unix(1000, 0)
	m.now = func() time.Time { return clock }

	store := &fakeStore{size: 600}
	m.RegisterTrimmer("sprites", store)
	require.True(t, m.MaybeCleanup().Ran)

	store.size = 950
	res := m.MaybeCleanup()
	assert.True(t, res.Ran, "critical pressure ignores the interval throttle")
	assert.Equal(t, PressureCritical, res.Level)
}

func TestForcedCleanupReachesWarningAndIsIdempotent(t *testing.T) {
	m := newTestManager(Config{BudgetBytes: 1000, WarningFraction: 0.8})
	store := &fakeStore{size: 950}
	m.RegisterTrimmer("sprites", store)

	res := m.Cleanup()
	require.True(t, res.Ran)
	assert.Equal(t, int64(150), res.FreedBytes)
	assert.Equal(t, int64(800), m.UsedBytes())

	// A second forced cleanup with no intervening allocation frees
	// nothing further.
	res = m.Cleanup()
	assert.True(t, res.Ran)
	assert.Equal(t, int64(0), res.FreedBytes)
	assert.Equal(t, int64(800), m.UsedBytes())
}

func TestForcedCleanupBelowWarningFreesNothing(t *testing.T) {
	m := newTestManager(Config{BudgetBytes: 1000})
	store := &fakeStore{size: 100}
	m.RegisterTrimmer("sprites", store)

	res := m.Cleanup()
	assert.True(t, res.Ran)
	assert.Equal(t, int64(0), res.FreedBytes)
	assert.Equal(t, int64(100), store.size)
}

func TestStats(t *testing.T) {
	m := newTestManager(Config{BudgetBytes: 1000, WarningFraction: 0.8})
	store := &fakeStore{size: 900}
	m.RegisterTrimmer("sprites", store)
	m.MaybeCleanup()

	s := m.Stats()
	assert.Equal(t, int64(1000), s.BudgetBytes)
	assert.Equal(t, int64(800), s.UsedBytes)
	assert.InDelta(t, 0.8, s.Utilization, 1e-9)
	assert.Equal(t, uint64(1), s.Cleanups)
	assert.Equal(t, int64(100), s.FreedBytes)
	assert.Contains(t, s.String(), "pressure=none")
}
