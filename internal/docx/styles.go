package docx

import (
	"strconv"
	"strings"
)

// Style types as they appear in w:style/@w:type.
const (
	StyleParagraph = "paragraph"
	StyleCharacter = "character"
	StyleTable     = "table"
	StyleNumbering = "numbering"
)

// Style is a named style definition.
type Style struct {
	ID string
	// Name is the display name. Built-in names stored in lowercase
	// ("heading 1") are reported the way word processors show them.
	Name      string
	Type      string
	IsDefault bool
	BasedOn   string
	Alignment Alignment
	Font      Format

	outline *int
}

// StyleSheet is the document's styles collection in definition order.
type StyleSheet struct {
	styles []*Style
}

func (s *StyleSheet) add(st *Style) { s.styles = append(s.styles, st) }

// All returns the styles in definition order.
func (s *StyleSheet) All() []*Style {
	if s == nil {
		return nil
	}
	return s.styles
}

func (s *StyleSheet) ByID(id string) *Style {
	if s == nil {
		return nil
	}
	for _, st := range s.styles {
		if st.ID == id {
			return st
		}
	}
	return nil
}

// ByName looks a style up by its display name.
func (s *StyleSheet) ByName(name string) *Style {
	if s == nil {
		return nil
	}
	for _, st := range s.styles {
		if st.Name == name {
			return st
		}
	}
	return nil
}

// DefaultParagraph returns the paragraph style marked default, if any.
func (s *StyleSheet) DefaultParagraph() *Style {
	if s == nil {
		return nil
	}
	for _, st := range s.styles {
		if st.Type == StyleParagraph && st.IsDefault {
			return st
		}
	}
	return nil
}

// Inherit fills the properties f leaves unset from base.
func (f Format) Inherit(base Format) Format {
	if f.Bold == nil {
		f.Bold = base.Bold
	}
	if f.Italic == nil {
		f.Italic = base.Italic
	}
	if f.Underline == nil {
		f.Underline = base.Underline
	}
	if f.FontName == "" {
		f.FontName = base.FontName
	}
	if f.SizeHalfPoints == nil {
		f.SizeHalfPoints = base.SizeHalfPoints
	}
	if f.Color == "" {
		f.Color = base.Color
	}
	return f
}

// maxBasedOnDepth bounds basedOn chains, which may be cyclic in the wild.
const maxBasedOnDepth = 16

// Resolve returns the style's formatting and alignment with its basedOn
// chain applied.
func (s *StyleSheet) Resolve(st *Style) (Format, Alignment) {
	var f Format
	var a Alignment
	for i := 0; st != nil && i < maxBasedOnDepth; i++ {
		f = f.Inherit(st.Font)
		if a == AlignUnset {
			a = st.Alignment
		}
		if st.BasedOn == "" {
			break
		}
		st = s.ByID(st.BasedOn)
	}
	return f, a
}

// Effective returns the formatting a run is displayed with: its own
// properties over those of its paragraph's style chain.
func (p *Paragraph) Effective(r *Run) (Format, Alignment) {
	if p.doc == nil {
		return r.Format, p.Alignment
	}
	f, a := p.doc.styles.Resolve(p.Style())
	if p.Alignment != AlignUnset {
		a = p.Alignment
	}
	return r.Format.Inherit(f), a
}

// builtinAliases maps lowercase built-in names to display names.
var builtinAliases = map[string]string{
	"caption":        "Caption",
	"footer":         "Footer",
	"header":         "Header",
	"title":          "Title",
	"normal":         "Normal",
	"body text":      "Body Text",
	"list paragraph": "List Paragraph",
}

func init() {
	for i := 1; i <= 9; i++ {
		n := strconv.Itoa(i)
		builtinAliases["heading "+n] = "Heading " + n
	}
}

// displayName returns the display form of a stored style name.
func displayName(stored string) string {
	if ui, ok := builtinAliases[strings.ToLower(stored)]; ok && stored == strings.ToLower(stored) {
		return ui
	}
	return stored
}

// storedName is the inverse of displayName for the names Word expects in
// lowercase.
func storedName(display string) string {
	low := strings.ToLower(display)
	if strings.HasPrefix(low, "heading ") || low == "caption" || low == "footer" || low == "header" {
		return low
	}
	return display
}

// builtinStyles is the style set of a new document.
func builtinStyles() *StyleSheet {
	ss := &StyleSheet{}
	ss.add(&Style{ID: "Normal", Name: "Normal", Type: StyleParagraph, IsDefault: true})
	ss.add(&Style{ID: "Title", Name: "Title", Type: StyleParagraph, BasedOn: "Normal",
		Font: Format{SizeHalfPoints: intp(52), Color: "17365D"}})
	ss.add(&Style{ID: "Subtitle", Name: "Subtitle", Type: StyleParagraph, BasedOn: "Normal",
		Font: Format{SizeHalfPoints: intp(24), Italic: boolp(true), Color: "4F81BD"}})
	for i := 1; i <= 9; i++ {
		size := 22
		switch i {
		case 1:
			size = 28
		case 2:
			size = 26
		}
		lvl := i - 1
		ss.add(&Style{
			ID:      "Heading" + strconv.Itoa(i),
			Name:    "Heading " + strconv.Itoa(i),
			Type:    StyleParagraph,
			BasedOn: "Normal",
			Font:    Format{Bold: boolp(true), SizeHalfPoints: intp(size), Color: "365F91"},
			outline: &lvl,
		})
	}
	ss.add(&Style{ID: "BodyText", Name: "Body Text", Type: StyleParagraph, BasedOn: "Normal"})
	ss.add(&Style{ID: "Quote", Name: "Quote", Type: StyleParagraph, BasedOn: "Normal",
		Font: Format{Italic: boolp(true)}})
	ss.add(&Style{ID: "Caption", Name: "Caption", Type: StyleParagraph, BasedOn: "Normal",
		Font: Format{Bold: boolp(true), SizeHalfPoints: intp(18), Color: "4F81BD"}})
	ss.add(&Style{ID: "ListParagraph", Name: "List Paragraph", Type: StyleParagraph, BasedOn: "Normal"})
	return ss
}

func intp(v int) *int    { return &v }
func boolp(v bool) *bool { return &v }
