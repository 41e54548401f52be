// Package classify decides, with help from a language model, which paragraphs
// of a target document are headings and which are body text.
package classify

import (
	"strings"

	"github.com/hyperifyio/restyle/internal/docx"
)

// Role is the structural role of a content block. The zero value is
// RoleBody, which is also the answer whenever classification is
// inconclusive.
type Role int

const (
	RoleBody Role = iota
	RoleHeading
)

func (r Role) String() string {
	if r == RoleHeading {
		return "heading"
	}
	return "body"
}

func (r Role) MarshalText() ([]byte, error) { return []byte(r.String()), nil }

// ContentBlock is one non-blank paragraph of the target document.
type ContentBlock struct {
	Text string `json:"text"`
	Role Role   `json:"role"`
}

// BlocksFromDocument returns the document's non-blank paragraphs in order,
// each with RoleBody. Table cell text is not included.
func BlocksFromDocument(doc *docx.Document) []ContentBlock {
	if doc == nil {
		return nil
	}
	var out []ContentBlock
	for _, p := range doc.Paragraphs() {
		text := p.Text()
		if strings.TrimSpace(text) == "" {
			continue
		}
		out = append(out, ContentBlock{Text: text})
	}
	return out
}

// Count returns how many blocks carry each role.
func Count(blocks []ContentBlock) (headings, body int) {
	for _, b := range blocks {
		if b.Role == RoleHeading {
			headings++
		} else {
			body++
		}
	}
	return headings, body
}
