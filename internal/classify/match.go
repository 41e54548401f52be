package classify

import (
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/unicode/norm"
)

// DefaultPrefixLen is how many leading characters of a block identify it
// in the model's answer.
const DefaultPrefixLen = 20

// Matcher maps a free-text model answer back onto the blocks it describes.
// It returns one role per block.
type Matcher interface {
	Match(response string, blocks []ContentBlock) []Role
}

// LineMatcher looks for the first answer line that quotes the start of a
// block. When no line does, it falls back to the line at the block's
// position, and finally to RoleBody. A line marks a heading when it
// contains the word "heading" in any case.
type LineMatcher struct {
	// PrefixLen is measured in runes. Zero means DefaultPrefixLen.
	PrefixLen int
}

func (m LineMatcher) Match(response string, blocks []ContentBlock) []Role {
	n := m.PrefixLen
	if n <= 0 {
		n = DefaultPrefixLen
	}
	fold := cases.Fold()
	normalize := func(s string) string { return fold.String(norm.NFC.String(s)) }

	lines := strings.Split(normalize(response), "\n")
	roles := make([]Role, len(blocks))
	for i, b := range blocks {
		prefix := normalize(firstRunes(norm.NFC.String(b.Text), n))
		matched := false
		for _, line := range lines {
			if strings.Contains(line, prefix) {
				roles[i] = roleOf(line)
				matched = true
				break
			}
		}
		if !matched && i < len(lines) {
			roles[i] = roleOf(lines[i])
		}
	}
	return roles
}

func roleOf(foldedLine string) Role {
	if strings.Contains(foldedLine, "heading") {
		return RoleHeading
	}
	return RoleBody
}

func firstRunes(s string, n int) string {
	i := 0
	for pos := range s {
		if i == n {
			return s[:pos]
		}
		i++
	}
	return s
}
