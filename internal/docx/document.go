// Package docx reads and writes WordprocessingML (.docx) documents through a
// small paragraph/run/table/section object model.
//
// Only what style transfer needs is modeled: paragraph style and alignment,
// character formatting of runs, table cell text, section margins and the
// named styles collection. Everything else in an opened package is ignored.
package docx

import (
	"errors"
	"math"
	"strings"

	colorful "github.com/lucasb-eyer/go-colorful"
)

var (
	// ErrMalformedDocument wraps any failure to read a package as a document.
	ErrMalformedDocument = errors.New("malformed document")
	// ErrUnknownStyle is returned when a named style is not in the document.
	ErrUnknownStyle = errors.New("unknown style")
	// ErrInvalidColor is returned for color values that are not 24-bit hex.
	ErrInvalidColor = errors.New("invalid color")
	// ErrInvalidSize is returned for non-positive or out of range font sizes.
	ErrInvalidSize = errors.New("invalid font size")
)

// Alignment is a paragraph justification. The zero value means unset.
type Alignment string

const (
	AlignUnset   Alignment = ""
	AlignLeft    Alignment = "left"
	AlignCenter  Alignment = "center"
	AlignRight   Alignment = "right"
	AlignJustify Alignment = "justify"
)

// parseJc maps a w:jc value to an Alignment. Values outside the four
// supported ones are reported as unset.
func parseJc(v string) Alignment {
	switch v {
	case "left", "start":
		return AlignLeft
	case "center":
		return AlignCenter
	case "right", "end":
		return AlignRight
	case "both", "distribute":
		return AlignJustify
	}
	return AlignUnset
}

func (a Alignment) jc() string {
	if a == AlignJustify {
		return "both"
	}
	return string(a)
}

// Valid reports whether a is one of the supported alignments or unset.
func (a Alignment) Valid() bool {
	switch a {
	case AlignUnset, AlignLeft, AlignCenter, AlignRight, AlignJustify:
		return true
	}
	return false
}

// Format is character formatting. Nil pointers and empty strings mean the
// property is not set at this level and is inherited.
type Format struct {
	Bold      *bool
	Italic    *bool
	Underline *bool
	FontName  string
	// SizeHalfPoints is the w:sz value.
	SizeHalfPoints *int
	// Color is an uppercase RRGGBB hex value or "auto".
	Color string
}

// SizePt returns the font size in points.
func (f Format) SizePt() (float64, bool) {
	if f.SizeHalfPoints == nil {
		return 0, false
	}
	return float64(*f.SizeHalfPoints) / 2, true
}

// Run is a span of text sharing one character format.
type Run struct {
	Text string
	Format
}

func (r *Run) SetBold(v bool)      { r.Bold = &v }
func (r *Run) SetItalic(v bool)    { r.Italic = &v }
func (r *Run) SetUnderline(v bool) { r.Underline = &v }
func (r *Run) SetFont(name string) { r.FontName = strings.TrimSpace(name) }

// SetSizePt sets the font size, rounded to the nearest half point.
func (r *Run) SetSizePt(pt float64) error {
	hp := math.Round(pt * 2)
	if math.IsNaN(pt) || hp < 1 || hp > 3276 {
		return ErrInvalidSize
	}
	v := int(hp)
	r.SizeHalfPoints = &v
	return nil
}

// SetColor sets the text color from a 3 or 6 digit hex value with an
// optional leading '#'. The run is left unchanged on error.
func (r *Run) SetColor(hex string) error {
	c, err := ParseHexColor(hex)
	if err != nil {
		return err
	}
	r.Color = strings.ToUpper(strings.TrimPrefix(c.Hex(), "#"))
	return nil
}

// ParseHexColor parses RRGGBB or RGB hex, with or without '#'.
func ParseHexColor(hex string) (colorful.Color, error) {
	h := strings.TrimPrefix(strings.TrimSpace(hex), "#")
	if len(h) != 6 && len(h) != 3 {
		return colorful.Color{}, ErrInvalidColor
	}
	c, err := colorful.Hex("#" + h)
	if err != nil {
		return colorful.Color{}, ErrInvalidColor
	}
	return c, nil
}

// Paragraph is a body paragraph.
type Paragraph struct {
	// StyleID is the w:pStyle reference; empty means the default style.
	StyleID   string
	Alignment Alignment
	// Runs holds the direct runs only; hyperlink runs contribute to Text.
	Runs []*Run

	all []*Run
	doc *Document
}

// Text returns the paragraph text including hyperlink runs.
func (p *Paragraph) Text() string {
	var sb strings.Builder
	for _, r := range p.all {
		sb.WriteString(r.Text)
	}
	return sb.String()
}

// AddRun appends a run with the given text.
func (p *Paragraph) AddRun(text string) *Run {
	r := &Run{Text: text}
	p.Runs = append(p.Runs, r)
	p.all = append(p.all, r)
	return r
}

// SetAlignment sets the paragraph justification.
func (p *Paragraph) SetAlignment(a Alignment) { p.Alignment = a }

// SetStyle applies the named style, looked up by its display name.
func (p *Paragraph) SetStyle(name string) error {
	if p.doc == nil {
		return ErrUnknownStyle
	}
	s := p.doc.styles.ByName(name)
	if s == nil || s.Type != StyleParagraph {
		return ErrUnknownStyle
	}
	p.StyleID = s.ID
	return nil
}

// Style resolves the paragraph style: the referenced style when it exists,
// otherwise the document's default paragraph style. It may return nil.
func (p *Paragraph) Style() *Style {
	if p.doc == nil {
		return nil
	}
	if p.StyleID != "" {
		if s := p.doc.styles.ByID(p.StyleID); s != nil {
			return s
		}
	}
	return p.doc.styles.DefaultParagraph()
}

// StyleName returns the resolved style's display name, or "Normal".
func (p *Paragraph) StyleName() string {
	if s := p.Style(); s != nil && s.Name != "" {
		return s.Name
	}
	return "Normal"
}

// Table is a body table.
type Table struct {
	Rows     []*TableRow
	gridCols int
}

// Cols returns the grid column count, falling back to the widest row.
func (t *Table) Cols() int {
	if t.gridCols > 0 {
		return t.gridCols
	}
	n := 0
	for _, r := range t.Rows {
		w := 0
		for _, c := range r.Cells {
			w += c.Span
		}
		if w > n {
			n = w
		}
	}
	return n
}

type TableRow struct {
	Cells []*TableCell
}

type TableCell struct {
	Paragraphs []*Paragraph
	// VerticalAlignment is the raw w:vAlign value (top, center, bottom).
	VerticalAlignment string
	// Span is the number of grid columns the cell covers, at least 1.
	Span int
}

// Text joins the cell's paragraph texts with newlines.
func (c *TableCell) Text() string {
	parts := make([]string, 0, len(c.Paragraphs))
	for _, p := range c.Paragraphs {
		parts = append(parts, p.Text())
	}
	return strings.Join(parts, "\n")
}

// Section carries page geometry in twips. Nil means not specified.
type Section struct {
	PageWidth, PageHeight    *int
	Top, Bottom, Left, Right *int
}

// Margins holds page margins in inches. Nil means not specified.
type Margins struct {
	Top, Bottom, Left, Right *float64
}

// Margins converts the section's margins to inches.
func (s *Section) Margins() Margins {
	conv := func(v *int) *float64 {
		if v == nil {
			return nil
		}
		in := TwipsToInches(*v)
		return &in
	}
	return Margins{Top: conv(s.Top), Bottom: conv(s.Bottom), Left: conv(s.Left), Right: conv(s.Right)}
}

// SetMargins overwrites the margins present in m.
func (s *Section) SetMargins(m Margins) {
	set := func(dst **int, v *float64) {
		if v == nil {
			return
		}
		tw := InchesToTwips(*v)
		*dst = &tw
	}
	set(&s.Top, m.Top)
	set(&s.Bottom, m.Bottom)
	set(&s.Left, m.Left)
	set(&s.Right, m.Right)
}

// Document is an opened or newly built document.
type Document struct {
	paragraphs []*Paragraph
	tables     []*Table
	sections   []*Section
	styles     *StyleSheet
}

func (d *Document) Paragraphs() []*Paragraph { return d.paragraphs }
func (d *Document) Tables() []*Table         { return d.tables }
func (d *Document) Sections() []*Section     { return d.sections }
func (d *Document) Styles() *StyleSheet      { return d.styles }

// HasStyle reports whether a paragraph style with the display name exists.
func (d *Document) HasStyle(name string) bool {
	s := d.styles.ByName(name)
	return s != nil && s.Type == StyleParagraph
}

// AddParagraph appends an empty paragraph to the body.
func (d *Document) AddParagraph() *Paragraph {
	p := &Paragraph{doc: d}
	d.paragraphs = append(d.paragraphs, p)
	return p
}

// ApplyMargins sets the margins present in m on every section.
func (d *Document) ApplyMargins(m Margins) {
	for _, s := range d.sections {
		s.SetMargins(m)
	}
}

// TwipsToInches converts twentieths of a point to inches.
func TwipsToInches(tw int) float64 { return float64(tw) / 1440 }

// InchesToTwips converts inches to the nearest twip.
func InchesToTwips(in float64) int { return int(math.Round(in * 1440)) }
