package core

// Transcript is the append-only ordered history of a single run. It is
// shared across every agent that participates in the run; a handoff does
// not reset it, so the receiving agent inherits the full conversational
// context including why it was invoked.
//
// A Transcript is not safe for concurrent mutation; each run owns its own
// instance for the duration of one orchestration call.
type Transcript struct {
	items []Item
}

// NewTranscript creates a transcript seeded with the given items.
func NewTranscript(items ...Item) *Transcript {
	t := &Transcript{}
	t.Append(items...)
	return t
}

// Append adds items to the end of the transcript preserving order.
func (t *Transcript) Append(items ...Item) {
	t.items = append(t.items, items...)
}

// Items returns the transcript entries in order. The returned slice is a
// copy; mutating it does not affect the transcript.
func (t *Transcript) Items() []Item {
	out := make([]Item, len(t.items))
	copy(out, t.items)
	return out
}

// Len returns the number of items recorded so far.
func (t *Transcript) Len() int { return len(t.items) }
