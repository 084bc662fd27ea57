package naming

import (
	"strings"

	"github.com/mcoot/drawphone/internal/dependencies/random"
	"github.com/mcoot/drawphone/internal/model"
)

const (
	MinLength = 7
	MaxLength = 12
)

var (
	onsets = []string{
		"b", "bl", "br", "ch", "cl", "cr", "d", "dr", "f", "fl", "fr", "g", "gl", "gr",
		"h", "j", "k", "l", "m", "n", "p", "pl", "pr", "qu", "r", "s", "sh", "sk", "sl",
		"sn", "sp", "st", "t", "th", "tr", "v", "w", "wh", "z",
	}
	vowels = []string{"a", "e", "i", "o", "u", "ai", "ea", "ee", "oo", "ou", "y"}
	codas  = []string{"", "", "", "b", "ck", "d", "g", "l", "m", "n", "nk", "p", "r", "rt", "sh", "st", "t", "x"}
)

// Generator produces pronounceable nonsense words for game names
type Generator struct {
	random random.Random
}

// New creates a new Generator
func New(random random.Random) *Generator {
	return &Generator{random: random}
}

// Name returns a lowercase fake word between MinLength and MaxLength letters
func (g *Generator) Name() model.GameName {
	target := MinLength + g.random.Intn(MaxLength-MinLength+1)

	var b strings.Builder
	for b.Len() < target {
		b.WriteString(g.pick(onsets))
		b.WriteString(g.pick(vowels))
		b.WriteString(g.pick(codas))
	}

	word := b.String()
	if len(word) > target {
		word = word[:target]
	}
	return model.GameName(word)
}

func (g *Generator) pick(options []string) string {
	return options[g.random.Intn(len(options))]
}
