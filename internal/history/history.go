// Package history keeps the rolling window of prompts that is resent with
// every code-generation request.
package history

import "sync"

// DefaultCapacity is the number of prompts retained when no capacity is configured.
const DefaultCapacity = 10

// History is a bounded FIFO of prompts. The oldest entry is evicted once
// the capacity is exceeded. It is safe for concurrent use.
type History struct {
	mu       sync.RWMutex
	capacity int
	entries  []string
}

// New returns an empty history holding at most capacity prompts.
func New(capacity int) *History {
	if capacity <= 0 {
		capacity = DefaultCapacity
	}
	return &History{
		capacity: capacity,
		entries:  make([]string, 0, capacity),
	}
}

// Append adds prompt and evicts the oldest entries past the capacity.
func (h *History) Append(prompt string) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.entries = appendBounded(h.entries, prompt, h.capacity)
}

// Window returns the entries the history would hold after appending next,
// without modifying it.
func (h *History) Window(next string) []string {
	h.mu.RLock()
	defer h.mu.RUnlock()
	window := make([]string, len(h.entries), len(h.entries)+1)
	copy(window, h.entries)
	return appendBounded(window, next, h.capacity)
}

// Entries returns a copy of the retained prompts in submission order.
func (h *History) Entries() []string {
	h.mu.RLock()
	defer h.mu.RUnlock()
	out := make([]string, len(h.entries))
	copy(out, h.entries)
	return out
}

func (h *History) Len() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.entries)
}

func (h *History) Capacity() int {
	return h.capacity
}

// Clear drops every retained prompt.
func (h *History) Clear() {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.entries = h.entries[:0]
}

func appendBounded(entries []string, prompt string, capacity int) []string {
	entries = append(entries, prompt)
	if over := len(entries) - capacity; over > 0 {
		entries = append(entries[:0], entries[over:]...)
	}
	return entries
}
