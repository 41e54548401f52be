// Package render draws a quick PDF preview of a document with the PDF core
// fonts. It approximates layout; it is not a faithful word processor.
package render

import (
	"errors"
	"io"
	"os"
	"strings"

	"github.com/jung-kurt/gofpdf"

	"github.com/hyperifyio/restyle/internal/docx"
)

const (
	defaultSizePt = 11
	lineFactor    = 1.25
	pointsPerTwip = 1.0 / 20
)

// fallbackPage stands in when the document has no section; newPage then
// lays out US Letter with 1" margins.
var fallbackPage = docx.Section{}

// WritePDF renders doc's body paragraphs to w.
func WritePDF(w io.Writer, doc *docx.Document) error {
	if doc == nil {
		return errors.New("render: nil document")
	}
	pdf := newPage(doc)
	tr := pdf.UnicodeTranslatorFromDescriptor("")
	for _, para := range doc.Paragraphs() {
		writeParagraph(pdf, tr, para)
	}
	if err := pdf.Error(); err != nil {
		return err
	}
	return pdf.Output(w)
}

// WritePDFFile renders doc to path.
func WritePDFFile(path string, doc *docx.Document) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	if err := WritePDF(f, doc); err != nil {
		_ = f.Close()
		return err
	}
	return f.Close()
}

func newPage(doc *docx.Document) *gofpdf.Fpdf {
	sec := &fallbackPage
	if secs := doc.Sections(); len(secs) > 0 {
		sec = secs[0]
	}
	twips := func(v *int, def int) float64 {
		if v == nil {
			return float64(def) * pointsPerTwip
		}
		return float64(*v) * pointsPerTwip
	}
	width, height := twips(sec.PageWidth, 12240), twips(sec.PageHeight, 15840)
	pdf := gofpdf.NewCustom(&gofpdf.InitType{
		UnitStr: "pt",
		Size:    gofpdf.SizeType{Wd: width, Ht: height},
	})
	pdf.SetMargins(twips(sec.Left, 1440), twips(sec.Top, 1440), twips(sec.Right, 1440))
	pdf.SetAutoPageBreak(true, twips(sec.Bottom, 1440))
	pdf.SetCreator("restyle", true)
	pdf.AddPage()
	return pdf
}

func writeParagraph(pdf *gofpdf.Fpdf, tr func(string) string, para *docx.Paragraph) {
	if len(para.Runs) == 0 {
		pdf.Ln(defaultSizePt * lineFactor)
		return
	}
	first, align := para.Effective(para.Runs[0])
	size := sizeOf(first)

	// Mixed formatting can only flow left to right; aligned paragraphs are
	// drawn in their first run's format.
	if len(para.Runs) == 1 || (align != docx.AlignUnset && align != docx.AlignLeft) {
		setFormat(pdf, first)
		pdf.MultiCell(0, size*lineFactor, tr(para.Text()), "", alignOf(align), false)
	} else {
		for _, r := range para.Runs {
			f, _ := para.Effective(r)
			setFormat(pdf, f)
			pdf.Write(sizeOf(f)*lineFactor, tr(r.Text))
		}
		pdf.Ln(size * lineFactor)
	}
	pdf.Ln(size * 0.5)
}

func sizeOf(f docx.Format) float64 {
	if pt, ok := f.SizePt(); ok {
		return pt
	}
	return defaultSizePt
}

func setFormat(pdf *gofpdf.Fpdf, f docx.Format) {
	style := ""
	if f.Bold != nil && *f.Bold {
		style += "B"
	}
	if f.Italic != nil && *f.Italic {
		style += "I"
	}
	if f.Underline != nil && *f.Underline {
		style += "U"
	}
	pdf.SetFont(CoreFont(f.FontName), style, sizeOf(f))
	r, g, b := textColor(f.Color)
	pdf.SetTextColor(r, g, b)
}

// CoreFont maps a font name onto the closest PDF core family.
func CoreFont(name string) string {
	n := strings.ToLower(name)
	switch {
	case n == "":
		return "Helvetica"
	case strings.Contains(n, "mono"), strings.Contains(n, "courier"), strings.Contains(n, "consolas"):
		return "Courier"
	case strings.Contains(n, "times"), strings.Contains(n, "georgia"), strings.Contains(n, "cambria"),
		strings.Contains(n, "garamond"), strings.Contains(n, "book"), strings.Contains(n, "serif") && !strings.Contains(n, "sans"):
		return "Times"
	}
	return "Helvetica"
}

func textColor(hex string) (int, int, int) {
	if hex == "" || hex == "auto" {
		return 0, 0, 0
	}
	c, err := docx.ParseHexColor(hex)
	if err != nil {
		return 0, 0, 0
	}
	r, g, b := c.Clamped().RGB255()
	return int(r), int(g), int(b)
}

func alignOf(a docx.Alignment) string {
	switch a {
	case docx.AlignCenter:
		return "C"
	case docx.AlignRight:
		return "R"
	case docx.AlignJustify:
		return "J"
	}
	return "L"
}
