package memory

import "sync"

// tokenOverheadPerMessage is the constant per-message overhead added on
// top of the content/role length estimate (§4.E).
const tokenOverheadPerMessage = 5

// EstimateTokens approximates the token cost of a message the same way
// working memory's eviction accounting does: ceil((content+role)/4) + 5.
func EstimateTokens(role Role, content string) int {
	length := len(content) + len(string(role))
	return (length+3)/4 + tokenOverheadPerMessage
}

// WorkingMemory is a token-budgeted FIFO window of messages. It never
// persists anything itself: append returns an eviction batch the caller
// is responsible for summarizing and/or discarding.
type WorkingMemory struct {
	mu           sync.Mutex
	maxTokens    int
	messages     []Message
	currentTotal int
}

// NewWorkingMemory creates a window with the given token budget. A
// non-positive budget is replaced with the spec default of 50,000.
func NewWorkingMemory(maxTokens int) *WorkingMemory {
	if maxTokens <= 0 {
		maxTokens = 50_000
	}
	return &WorkingMemory{maxTokens: maxTokens}
}

// Append adds a message, updating the running token total. If the new
// total exceeds the budget, it evicts the oldest ceil(30%*count)
// messages (at least one), then further oldest messages while the total
// still exceeds the budget, and returns them; otherwise returns nil.
//
// Invariant: after Append returns a non-nil batch, CurrentTokens() <=
// the configured budget.
func (w *WorkingMemory) Append(msg Message) []Message {
	w.mu.Lock()
	defer w.mu.Unlock()

	if msg.TokenCount == 0 {
		msg.TokenCount = EstimateTokens(msg.Role, msg.Content)
	}
	w.messages = append(w.messages, msg)
	w.currentTotal += msg.TokenCount

	if w.currentTotal <= w.maxTokens {
		return nil
	}

	evictCount := (len(w.messages)*30 + 99) / 100
	if evictCount < 1 {
		evictCount = 1
	}
	if evictCount > len(w.messages) {
		evictCount = len(w.messages)
	}
	evictedTokens := 0
	for _, m := range w.messages[:evictCount] {
		evictedTokens += m.TokenCount
	}
	for evictCount < len(w.messages) && w.currentTotal-evictedTokens > w.maxTokens {
		evictedTokens += w.messages[evictCount].TokenCount
		evictCount++
	}

	evicted := make([]Message, evictCount)
	copy(evicted, w.messages[:evictCount])
	for _, m := range evicted {
		w.currentTotal -= m.TokenCount
	}
	w.messages = w.messages[evictCount:]

	return evicted
}

// Snapshot returns the currently live messages in order. The returned
// slice is a copy; mutating it does not affect the window.
func (w *WorkingMemory) Snapshot() []Message {
	w.mu.Lock()
	defer w.mu.Unlock()

	out := make([]Message, len(w.messages))
	copy(out, w.messages)
	return out
}

// Clear empties the window.
func (w *WorkingMemory) Clear() {
	w.mu.Lock()
	defer w.mu.Unlock()

	w.messages = nil
	w.currentTotal = 0
}

// CurrentTokens returns the running token total for the live window.
func (w *WorkingMemory) CurrentTokens() int {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.currentTotal
}
