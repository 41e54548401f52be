package profile

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/nao1215/markdown"
	yaml "gopkg.in/yaml.v3"
)

// Format names accepted by Write and Decode.
const (
	FormatYAML     = "yaml"
	FormatJSON     = "json"
	FormatMarkdown = "markdown"
)

// Write renders p in the named format.
func Write(w io.Writer, p StyleProfile, format string) error {
	switch strings.ToLower(format) {
	case FormatYAML, "yml", "":
		return WriteYAML(w, p)
	case FormatJSON:
		return WriteJSON(w, p)
	case FormatMarkdown, "md":
		return WriteMarkdown(w, p)
	}
	return fmt.Errorf("unknown profile format %q", format)
}

// WriteYAML writes p as YAML, the format Load reads back by default.
func WriteYAML(w io.Writer, p StyleProfile) error {
	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	if err := enc.Encode(p); err != nil {
		return fmt.Errorf("encode yaml: %w", err)
	}
	return enc.Close()
}

// WriteJSON writes p as indented JSON.
func WriteJSON(w io.Writer, p StyleProfile) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(p)
}

// WriteMarkdown renders a human-readable summary of p.
func WriteMarkdown(w io.Writer, p StyleProfile) error {
	md := markdown.NewMarkdown(w)
	md.H1("Style profile")
	md.PlainText("")

	md.H2("Layout")
	md.PlainText("")
	md.Table(markdown.TableSet{
		Header: []string{"Property", "Value"},
		Rows: [][]string{
			{"Default font", orDash(p.Layout.DefaultFontName)},
			{"Default size (pt)", floatOrDash(p.Layout.DefaultFontSizePt)},
			{"Margin top (in)", floatOrDash(p.Layout.Margins.Top)},
			{"Margin bottom (in)", floatOrDash(p.Layout.Margins.Bottom)},
			{"Margin left (in)", floatOrDash(p.Layout.Margins.Left)},
			{"Margin right (in)", floatOrDash(p.Layout.Margins.Right)},
		},
	})
	md.PlainText("")

	writeSamples(md, "Headings", p.Headings)
	writeSamples(md, "Body paragraphs", p.Paragraphs)

	md.H2("Tables")
	md.PlainText("")
	if len(p.Tables) == 0 {
		md.PlainText("No tables.")
	} else {
		items := make([]string, 0, len(p.Tables))
		for i, t := range p.Tables {
			items = append(items, fmt.Sprintf("Table %d: %d rows x %d columns, %d cells", i+1, t.Rows, t.Cols, len(t.Cells)))
		}
		md.BulletList(items...)
		md.PlainText("")
		md.Note("Table styling is recorded for reference and is not applied to output documents.")
	}
	md.PlainText("")
	return md.Build()
}

func writeSamples(md *markdown.Markdown, title string, samples []StyleSample) {
	md.H2(title)
	md.PlainText("")
	if len(samples) == 0 {
		md.PlainText("None found; built-in defaults apply.")
		md.PlainText("")
		return
	}
	rows := make([][]string, 0, len(samples))
	for i, s := range samples {
		row := []string{strconv.Itoa(i + 1), excerpt(s.SourceText), orDash(s.StyleName), orDash(string(s.Alignment)), "-", "-", "-", "-"}
		if r, ok := s.FirstRun(); ok {
			row[4] = orDash(r.FontName)
			row[5] = floatOrDash(r.FontSizePt)
			row[6] = flags(r)
			if r.Color != nil {
				row[7] = "#" + r.Color.Hex()
			}
		}
		rows = append(rows, row)
	}
	md.Table(markdown.TableSet{
		Header: []string{"#", "Text", "Style", "Align", "Font", "Size", "Flags", "Color"},
		Rows:   rows,
	})
	md.PlainText("")
}

// Decode parses a profile previously written as YAML or JSON.
func Decode(data []byte, format string) (StyleProfile, error) {
	var p StyleProfile
	switch strings.ToLower(format) {
	case FormatJSON:
		if err := json.Unmarshal(data, &p); err != nil {
			return p, fmt.Errorf("parse profile json: %w", err)
		}
	case FormatYAML, "yml", "":
		if err := yaml.Unmarshal(data, &p); err != nil {
			return p, fmt.Errorf("parse profile yaml: %w", err)
		}
	default:
		return p, fmt.Errorf("unknown profile format %q", format)
	}
	for _, s := range append(append([]StyleSample{}, p.Headings...), p.Paragraphs...) {
		if !s.Alignment.Valid() {
			return p, fmt.Errorf("profile: invalid alignment %q", s.Alignment)
		}
	}
	return p, nil
}

// IsProfilePath reports whether path names a saved profile rather than a
// document, judging by its extension.
func IsProfilePath(path string) bool {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml", ".json":
		return true
	}
	return false
}

// Load reads a saved profile, picking the format from the extension.
func Load(path string) (StyleProfile, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return StyleProfile{}, err
	}
	format := FormatYAML
	if strings.EqualFold(filepath.Ext(path), ".json") {
		format = FormatJSON
	}
	return Decode(data, format)
}

func excerpt(s string) string {
	s = strings.Join(strings.Fields(s), " ")
	r := []rune(s)
	if len(r) > 40 {
		return string(r[:40]) + "…"
	}
	return s
}

func orDash(s string) string {
	if strings.TrimSpace(s) == "" {
		return "-"
	}
	return s
}

func floatOrDash(f *float64) string {
	if f == nil {
		return "-"
	}
	return strconv.FormatFloat(*f, 'f', -1, 64)
}

func flags(r RunProperty) string {
	var out []string
	add := func(b *bool, on, off string) {
		if b == nil {
			return
		}
		if *b {
			out = append(out, on)
		} else {
			out = append(out, off)
		}
	}
	add(r.Bold, "bold", "not bold")
	add(r.Italic, "italic", "not italic")
	add(r.Underline, "underline", "no underline")
	if len(out) == 0 {
		return "-"
	}
	return strings.Join(out, ", ")
}
