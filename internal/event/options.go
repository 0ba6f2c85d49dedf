package event

// StreamOption configures a Stream returned by Subscribe.
type StreamOption[C any] func(*streamConfig[C])

type streamConfig[C any] struct {
	// filter drops occurrences for which it returns false.
	filter func(C) bool

	// backlog caps the mailbox. Zero means unbounded.
	backlog int

	// paused starts the stream paused.
	paused bool
}

func defaultStreamConfig[C any]() streamConfig[C] {
	return streamConfig[C]{}
}

// WithFilter only delivers occurrences for which f returns true.
func WithFilter[C any](f func(C) bool) StreamOption[C] {
	return func(c *streamConfig[C]) {
		c.filter = f
	}
}

// WithBacklog caps the number of undelivered occurrences a stream holds.
// When the cap is reached the oldest occurrence is discarded and counted
// in Stream.Dropped. Streams are unbounded and lossless by default.
func WithBacklog[C any](n int) StreamOption[C] {
	return func(c *streamConfig[C]) {
		if n > 0 {
			c.backlog = n
		}
	}
}

// WithPaused creates the stream in the paused state.
func WithPaused[C any]() StreamOption[C] {
	return func(c *streamConfig[C]) {
		c.paused = true
	}
}
