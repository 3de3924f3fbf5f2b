// Package moderation masks censored words in message content before the
// lifecycle persists it. Matching is accent- and case-insensitive and
// tolerates separator noise inside words.
package moderation

import (
	"bufio"
	"io"
	"strings"
	"unicode"

	"github.com/abadojack/whatlanggo"
	goahocorasick "github.com/anknown/ahocorasick"
)

type Moderator struct {
	matcher *goahocorasick.Machine
	mask    rune
}

// NewModerator builds the Aho-Corasick automaton from a normalized copy of
// the word list.
func NewModerator(words []string, mask rune) (*Moderator, error) {
	patterns := make([][]rune, 0, len(words))
	for _, word := range words {
		normalized := normalize([]rune(word))
		if len(normalized) > 0 {
			patterns = append(patterns, normalized)
		}
	}
	machine := new(goahocorasick.Machine)
	if err := machine.Build(patterns); err != nil {
		return nil, err
	}
	return &Moderator{matcher: machine, mask: mask}, nil
}

// LoadWords reads one censored word per line, skipping blanks and comments.
func LoadWords(r io.Reader) ([]string, error) {
	var words []string
	scanner := bufio.NewScanner(r)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		words = append(words, line)
	}
	return words, scanner.Err()
}

// Censor replaces every matched word with the mask rune and returns the list
// of matches, preserving the original spacing and length.
func (m *Moderator) Censor(original string) (string, []string) {
	origRunes := []rune(original)

	// Map each normalized position back to the original rune index so the
	// mask lands on the right characters even when noise was stripped.
	norm := make([]rune, 0, len(origRunes))
	origIdx := make([]int, 0, len(origRunes))
	for i, r := range origRunes {
		clean := simplify(r)
		if isNoise(clean) {
			continue
		}
		norm = append(norm, unicode.ToLower(clean))
		origIdx = append(origIdx, i)
	}
	if len(norm) == 0 {
		return original, nil
	}

	spans := m.matcher.MultiPatternSearch(norm, false)
	if len(spans) == 0 {
		return original, nil
	}

	var found []string
	for _, span := range spans {
		start := span.Pos
		end := start + len(span.Word)
		if start < 0 || end > len(origIdx) {
			continue
		}
		found = append(found, string(span.Word))
		for i := origIdx[start]; i <= origIdx[end-1]; i++ {
			origRunes[i] = m.mask
		}
	}
	return string(origRunes), found
}

// DetectLang reports the ISO 639-1 code of the content's likely language,
// empty when detection has nothing to work with.
func DetectLang(content string) string {
	info := whatlanggo.Detect(content)
	return info.Lang.Iso6391()
}

func normalize(input []rune) []rune {
	out := make([]rune, 0, len(input))
	for _, r := range input {
		clean := simplify(r)
		if isNoise(clean) {
			continue
		}
		out = append(out, unicode.ToLower(clean))
	}
	return out
}

// simplify folds common Latin diacritics and leet substitutions onto their
// base letter.
func simplify(r rune) rune {
	switch {
	case r >= 'à' && r <= 'å', r == 'â', r == 'ä':
		return 'a'
	case r >= 'è' && r <= 'ë':
		return 'e'
	case r >= 'ì' && r <= 'ï':
		return 'i'
	case r >= 'ò' && r <= 'ö':
		return 'o'
	case r >= 'ù' && r <= 'ü':
		return 'u'
	case r == 'ç':
		return 'c'
	case r == 'ñ':
		return 'n'
	case r == '4', r == '@':
		return 'a'
	case r == '3', r == '€':
		return 'e'
	case r == '1':
		return 'i'
	case r == '0':
		return 'o'
	case r == '5', r == '$':
		return 's'
	case r == '7':
		return 't'
	}
	return r
}

// isNoise drops separators attackers slip inside words (f.o-o_b a r).
func isNoise(r rune) bool {
	if unicode.IsLetter(r) || unicode.IsDigit(r) {
		return false
	}
	return true
}
