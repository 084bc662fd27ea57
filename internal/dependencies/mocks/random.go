package mocks

import (
	"sync"

	"github.com/mcoot/drawphone/internal/dependencies/random"
)

// MockRandom replays queued Intn results and never reorders on Shuffle, so
// tests decide turn order and name syllables
type MockRandom struct {
	mu    sync.Mutex
	intns []int

	// Shuffles counts calls to Shuffle
	Shuffles int
}

// Ensure MockRandom implements Random
var _ random.Random = (*MockRandom)(nil)

// NewMockRandom creates a new MockRandom
func NewMockRandom() *MockRandom {
	return &MockRandom{}
}

// Intn returns the next queued result clamped into [0, n), or 0 once the
// queue is empty
func (r *MockRandom) Intn(n int) int {
	r.mu.Lock()
	defer r.mu.Unlock()

	if len(r.intns) == 0 || n <= 0 {
		return 0
	}
	result := r.intns[0]
	r.intns = r.intns[1:]
	return min(max(result, 0), n-1)
}

// Shuffle leaves the order untouched
func (r *MockRandom) Shuffle(n int, swap func(i, j int)) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.Shuffles++
}

// QueueIntn adds values to the Intn result queue
func (r *MockRandom) QueueIntn(values ...int) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.intns = append(r.intns, values...)
}
