package batch

// CaptureBackend records flushed batches for inspection. It copies the
// batches it receives, so captured frames stay valid after the queue
// resets. Used in tests and for draw-call debugging overlays.
type CaptureBackend struct {
	// Frames holds one entry per Flush, in order.
	Frames [][]Batch

	// Err, when set, is returned from every Submit.
	Err error
}

// Submit implements Backend.
func (c *CaptureBackend) Submit(batches []Batch) error {
	frame := make([]Batch, len(batches))
	for i, b := range batches {
		frame[i] = Batch{
			State:    b.State,
			Commands: append([]Command(nil), b.Commands...),
		}
	}
	c.Frames = append(c.Frames, frame)
	return c.Err
}

// Last returns the most recently captured frame, or nil.
func (c *CaptureBackend) Last() []Batch {
	if len(c.Frames) == 0 {
		return nil
	}
	return c.Frames[len(c.Frames)-1]
}
