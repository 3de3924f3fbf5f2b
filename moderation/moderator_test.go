package moderation

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

const replacementChar = '*'

// The dictionary uses specific words to avoid partial collisions
// (e.g., "he" inside "The").
func TestModerator_Censor(t *testing.T) {
	req := require.New(t)
	dictionary := []string{"badger", "snake", "mushroom"}
	mod, err := NewModerator(dictionary, replacementChar)
	req.NoError(err)

	tests := []struct {
		name     string
		input    string
		expected string
		words    []string
	}{
		{
			name:     "Simple word and space preservation",
			input:    "The badger is here",
			expected: "The ****** is here",
			words:    []string{"badger"},
		},
		{
			name:     "Multiple occurrences and preserved spacing",
			input:    "badger badger badger",
			expected: "****** ****** ******",
			words:    []string{"badger", "badger", "badger"},
		},
		{
			name: "Leet speak and internal punctuation",
			// B (index 8) . 4 . d . g . € r (index 17) -> 10 characters
			input:    "Look at B.4.d.g.€r !",
			expected: "Look at ********** !",
			words:    []string{"badger"},
		},
		{
			name:     "Uppercase and extreme noise",
			input:    "S-N-A-K-E is a B.A.D.G.E.R",
			expected: "********* is a ***********",
			words:    []string{"snake", "badger"},
		},
		{
			name:     "Accents and special characters (UTF-8)",
			input:    "Un été avec un badger",
			expected: "Un été avec un ******",
			words:    []string{"badger"},
		},
		{
			name:     "Word adjacent to trailing punctuation",
			input:    "I love badger!",
			expected: "I love ******!",
			words:    []string{"badger"},
		},
		{
			name:     "Nothing to censor",
			input:    "DM-Lab is amazing",
			expected: "DM-Lab is amazing",
			words:    nil,
		},
		{
			name:     "Empty string",
			input:    "",
			expected: "",
			words:    nil,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := require.New(t)
			censored, found := mod.Censor(tt.input)
			req.Equal(tt.expected, censored)
			req.Len(found, len(tt.words))
		})
	}
}

func TestLoadWords(t *testing.T) {
	req := require.New(t)

	input := strings.NewReader(`# censored words, one per line
badger

snake
  mushroom
`)
	words, err := LoadWords(input)
	req.NoError(err)
	req.Equal([]string{"badger", "snake", "mushroom"}, words)
}

func TestDetectLang(t *testing.T) {
	req := require.New(t)
	req.Equal("en", DetectLang("The quick brown fox jumps over the lazy dog"))
	req.Equal("fr", DetectLang("Le renard brun saute par-dessus le chien paresseux"))
}
