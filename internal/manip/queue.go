package manip

// DefaultQueueSize is the input queue capacity used by NewQueue(0).
const DefaultQueueSize = 256

// Queue carries input events from the input goroutine to the frame loop.
// Post never blocks; Drain must only be called from the frame loop.
type Queue struct {
	ch chan Event
}

// NewQueue creates a queue holding up to size events.
func NewQueue(size int) *Queue {
	if size <= 0 {
		size = DefaultQueueSize
	}
	return &Queue{ch: make(chan Event, size)}
}

// Post enqueues ev. It reports false when the queue is full and the event
// was dropped.
func (q *Queue) Post(ev Event) bool {
	select {
	case q.ch <- ev:
		return true
	default:
		return false
	}
}

// Len returns the number of queued events.
func (q *Queue) Len() int { return len(q.ch) }

// Drain hands every queued event to e in arrival order.
func (q *Queue) Drain(e *Engine) []Effect {
	var effects []Effect
	for {
		select {
		case ev := <-q.ch:
			effects = append(effects, e.Handle(ev))
		default:
			return effects
		}
	}
}
