// Package profile extracts a reusable style profile from a reference
// document: sample heading and body paragraphs with their run formatting,
// table shapes, default font and page margins.
package profile

import (
	"errors"
	"strings"

	"github.com/rs/zerolog/log"

	"github.com/hyperifyio/restyle/internal/docx"
)

// ErrNilDocument is returned when Extract is called without a document.
var ErrNilDocument = errors.New("profile: nil document")

// StyleProfile is the extracted styling of one reference document. It is
// not modified after Extract returns.
type StyleProfile struct {
	Headings   []StyleSample  `yaml:"headings" json:"headings"`
	Paragraphs []StyleSample  `yaml:"paragraphs" json:"paragraphs"`
	Tables     []TableSample  `yaml:"tables,omitempty" json:"tables,omitempty"`
	Layout     DocumentLayout `yaml:"layout" json:"layout"`
}

// StyleSample is one non-blank reference paragraph.
type StyleSample struct {
	// SourceText is kept for traceability only.
	SourceText string         `yaml:"sourceText" json:"sourceText"`
	Alignment  docx.Alignment `yaml:"alignment,omitempty" json:"alignment,omitempty"`
	StyleName  string         `yaml:"styleName,omitempty" json:"styleName,omitempty"`
	// Runs are the non-blank runs in source order.
	Runs []RunProperty `yaml:"runs" json:"runs"`
}

// FirstRun returns the first run's properties, if any.
func (s StyleSample) FirstRun() (RunProperty, bool) {
	if len(s.Runs) == 0 {
		return RunProperty{}, false
	}
	return s.Runs[0], true
}

// RunProperty is the character formatting set directly on a run. Nil and
// empty values mean the run does not set the property.
type RunProperty struct {
	Text       string   `yaml:"text" json:"text"`
	Bold       *bool    `yaml:"bold,omitempty" json:"bold,omitempty"`
	Italic     *bool    `yaml:"italic,omitempty" json:"italic,omitempty"`
	Underline  *bool    `yaml:"underline,omitempty" json:"underline,omitempty"`
	FontName   string   `yaml:"fontName,omitempty" json:"fontName,omitempty"`
	FontSizePt *float64 `yaml:"fontSizePt,omitempty" json:"fontSizePt,omitempty"`
	Color      *RGB     `yaml:"color,omitempty" json:"color,omitempty"`
}

// TableSample records a table's shape and cell texts. It is informational;
// synthesis does not apply it.
type TableSample struct {
	Rows  int          `yaml:"rows" json:"rows"`
	Cols  int          `yaml:"cols" json:"cols"`
	Cells []CellSample `yaml:"cells" json:"cells"`
}

type CellSample struct {
	Text              string `yaml:"text" json:"text"`
	VerticalAlignment string `yaml:"verticalAlignment,omitempty" json:"verticalAlignment,omitempty"`
}

// DocumentLayout holds document-wide settings.
type DocumentLayout struct {
	DefaultFontName   string   `yaml:"defaultFontName,omitempty" json:"defaultFontName,omitempty"`
	DefaultFontSizePt *float64 `yaml:"defaultFontSizePt,omitempty" json:"defaultFontSizePt,omitempty"`
	Margins           Margins  `yaml:"margins" json:"margins"`
}

// Margins are page margins in inches.
type Margins struct {
	Top    *float64 `yaml:"top,omitempty" json:"top,omitempty"`
	Bottom *float64 `yaml:"bottom,omitempty" json:"bottom,omitempty"`
	Left   *float64 `yaml:"left,omitempty" json:"left,omitempty"`
	Right  *float64 `yaml:"right,omitempty" json:"right,omitempty"`
}

// IsHeadingStyle reports whether a resolved style name marks a heading: the
// name contains the literal, case-sensitive word "Heading".
func IsHeadingStyle(styleName string) bool {
	return strings.Contains(styleName, "Heading")
}

// Extract builds the profile of doc. It reads doc only.
func Extract(doc *docx.Document) (StyleProfile, error) {
	if doc == nil {
		return StyleProfile{}, ErrNilDocument
	}
	var p StyleProfile
	for _, para := range doc.Paragraphs() {
		text := para.Text()
		if strings.TrimSpace(text) == "" {
			continue
		}
		s := StyleSample{
			SourceText: text,
			Alignment:  para.Alignment,
			StyleName:  para.StyleName(),
		}
		for _, r := range para.Runs {
			if strings.TrimSpace(r.Text) == "" {
				continue
			}
			s.Runs = append(s.Runs, runProperty(r))
		}
		if IsHeadingStyle(s.StyleName) {
			p.Headings = append(p.Headings, s)
		} else {
			p.Paragraphs = append(p.Paragraphs, s)
		}
	}

	for _, t := range doc.Tables() {
		p.Tables = append(p.Tables, tableSample(t))
	}

	if normal := doc.Styles().ByName("Normal"); normal != nil {
		p.Layout.DefaultFontName = normal.Font.FontName
		if pt, ok := normal.Font.SizePt(); ok {
			p.Layout.DefaultFontSizePt = &pt
		}
	}
	if secs := doc.Sections(); len(secs) > 0 {
		m := secs[0].Margins()
		p.Layout.Margins = Margins{Top: m.Top, Bottom: m.Bottom, Left: m.Left, Right: m.Right}
	}

	log.Debug().Str("stage", "profile").
		Int("headings", len(p.Headings)).
		Int("paragraphs", len(p.Paragraphs)).
		Int("tables", len(p.Tables)).
		Msg("extracted style profile")
	return p, nil
}

func runProperty(r *docx.Run) RunProperty {
	rp := RunProperty{
		Text:      r.Text,
		Bold:      copyBool(r.Bold),
		Italic:    copyBool(r.Italic),
		Underline: copyBool(r.Underline),
		FontName:  r.FontName,
	}
	if pt, ok := r.SizePt(); ok {
		rp.FontSizePt = &pt
	}
	if r.Color != "" && r.Color != "auto" {
		if c, err := ParseRGB(r.Color); err == nil {
			rp.Color = &c
		} else {
			log.Debug().Str("stage", "profile").Str("color", r.Color).Msg("ignoring unparseable run color")
		}
	}
	return rp
}

func copyBool(b *bool) *bool {
	if b == nil {
		return nil
	}
	v := *b
	return &v
}

// tableSample lists cells the way a grid sees them: a cell spanning n
// columns appears n times.
func tableSample(t *docx.Table) TableSample {
	ts := TableSample{Rows: len(t.Rows), Cols: t.Cols()}
	for _, row := range t.Rows {
		for _, c := range row.Cells {
			cs := CellSample{Text: c.Text(), VerticalAlignment: c.VerticalAlignment}
			for i := 0; i < c.Span; i++ {
				ts.Cells = append(ts.Cells, cs)
			}
		}
	}
	return ts
}
