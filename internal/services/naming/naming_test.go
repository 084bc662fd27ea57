package naming

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/mcoot/drawphone/internal/dependencies/mocks"
	"github.com/mcoot/drawphone/internal/dependencies/random"
)

func TestNameLengthWithinBounds(t *testing.T) {
	g := New(random.NewSeeded(42))
	for i := 0; i < 500; i++ {
		name := string(g.Name())
		assert.GreaterOrEqual(t, len(name), MinLength, name)
		assert.LessOrEqual(t, len(name), MaxLength, name)
		assert.Regexp(t, "^[a-z]+$", name)
	}
}

func TestNameIsDeterministicForRandom(t *testing.T) {
	rnd := mocks.NewMockRandom()
	// length 7, then onset "bl", vowel "a", coda "" repeatedly
	rnd.QueueIntn(0, 1, 0, 0, 1, 0, 0, 1, 0, 0)

	assert.Equal(t, "blablab", string(New(rnd).Name()))
}

func TestNamesVary(t *testing.T) {
	g := New(random.NewSeeded(7))
	seen := make(map[string]bool)
	for i := 0; i < 50; i++ {
		seen[string(g.Name())] = true
	}
	assert.Greater(t, len(seen), 40)
}
