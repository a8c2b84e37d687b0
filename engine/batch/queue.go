package batch

import "errors"

// DefaultMaxSpritesPerBatch bounds one draw call's sprite count so a single
// huge group cannot exceed instance-buffer capacity.
const DefaultMaxSpritesPerBatch = 1024

// ErrNoBackend is returned when flushing a queue built without a backend.
var ErrNoBackend = errors.New("batch: no backend configured")

// Config holds construction parameters for a Queue.
type Config struct {
	// Backend receives flushed batches.
	Backend Backend

	// MaxSpritesPerBatch splits oversized groups. Zero selects the
	// default.
	MaxSpritesPerBatch int
}

// Queue accumulates draw commands over one frame and flushes them as
// batches. Not safe for concurrent use: submission and flushing happen on
// the frame thread.
//
// Grouping is by first appearance: the first command with a new state key
// opens its group, and later commands with the same key join it regardless
// of position. Within a group, submission order is preserved. Callers that
// need strict back-to-front layering sort by depth before submitting.
type Queue struct {
	backend     Backend
	maxPerBatch int

	commands []Command
	groups   []Batch
	index    map[StateKey]int
	batches  []Batch

	lastStats FrameStats
}

// NewQueue creates a Queue from config.
func NewQueue(cfg Config) *Queue {
	maxPer := cfg.MaxSpritesPerBatch
	if maxPer <= 0 {
		maxPer = DefaultMaxSpritesPerBatch
	}
	return &Queue{
		backend:     cfg.Backend,
		maxPerBatch: maxPer,
		index:       make(map[StateKey]int),
	}
}

// Submit queues one draw command for the current frame.
func (q *Queue) Submit(cmd Command) {
	q.commands = append(q.commands, cmd)
}

// Len returns the number of commands queued this frame.
func (q *Queue) Len() int {
	return len(q.commands)
}

// Flush groups the queued commands, hands the batches to the backend, and
// resets the queue for the next frame. The queue resets even when the
// backend fails, so one bad frame does not wedge the next.
func (q *Queue) Flush() (FrameStats, error) {
	stats := FrameStats{Sprites: len(q.commands)}

	if q.backend == nil {
		q.reset()
		return stats, ErrNoBackend
	}
	if len(q.commands) == 0 {
		q.lastStats = stats
		return stats, nil
	}

	// Group by first-seen state key, preserving intra-group order.
	for _, cmd := range q.commands {
		i, ok := q.index[cmd.State]
		if !ok {
			i = len(q.groups)
			q.index[cmd.State] = i
			q.groups = append(q.groups, Batch{State: cmd.State})
		}
		q.groups[i].Commands = append(q.groups[i].Commands, cmd)
	}
	stats.StateChanges = len(q.groups)

	// Split oversized groups into multiple draw calls.
	q.batches = q.batches[:0]
	for _, g := range q.groups {
		cmds := g.Commands
		for len(cmds) > q.maxPerBatch {
			q.batches = append(q.batches, Batch{State: g.State, Commands: cmds[:q.maxPerBatch]})
			cmds = cmds[q.maxPerBatch:]
		}
		q.batches = append(q.batches, Batch{State: g.State, Commands: cmds})
	}
	stats.Batches = len(q.batches)
	stats.CallsSaved = stats.Sprites - stats.Batches

	err := q.backend.Submit(q.batches)

	q.lastStats = stats
	q.reset()
	return stats, err
}

// LastStats returns the stats of the most recently flushed frame.
func (q *Queue) LastStats() FrameStats {
	return q.lastStats
}

// reset clears per-frame state while keeping capacity for reuse.
func (q *Queue) reset() {
	q.commands = q.commands[:0]
	for i := range q.groups {
		q.groups[i].Commands = nil
	}
	q.groups = q.groups[:0]
	clear(q.index)
}
