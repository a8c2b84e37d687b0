package monitor

import "time"

// FrameSample is one frame's worth of performance data.
type FrameSample struct {
	// Timestamp is when the frame ended.
	Timestamp time.Time

	// Duration is how long the frame took.
	Duration time.Duration

	// DrawCalls and Sprites come from the batch queue's frame stats.
	DrawCalls int
	Sprites   int

	// CacheHits and CacheMisses aggregate the engine caches this frame.
	CacheHits   uint64
	CacheMisses uint64

	// PoolAcquires counts object pool acquisitions serviced this frame.
	PoolAcquires uint64

	// MemoryBytes is the memory manager's usage at frame end.
	MemoryBytes int64
}

// sampleRing is a fixed-capacity ring of frame samples. The newest sample
// overwrites the oldest once full; analysis always sees the most recent
// window.
type sampleRing struct {
	samples []FrameSample
	next    int
	filled  bool
}

func newSampleRing(capacity int) *sampleRing {
	return &sampleRing{samples: make([]FrameSample, capacity)}
}

func (r *sampleRing) push(s FrameSample) {
	r.samples[r.next] = s
	r.next++
	if r.next == len(r.samples) {
		r.next = 0
		r.filled = true
	}
}

func (r *sampleRing) len() int {
	if r.filled {
		return len(r.samples)
	}
	return r.next
}

// oldestFirst appends the window to dst in chronological order.
func (r *sampleRing) oldestFirst(dst []FrameSample) []FrameSample {
	if r.filled {
		dst = append(dst, r.samples[r.next:]...)
	}
	return append(dst, r.samples[:r.next]...)
}

func (r *sampleRing) clear() {
	r.next = 0
	r.filled = false
}
