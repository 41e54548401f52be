// Package synth builds a new document from classified content blocks,
// styled after a reference profile.
package synth

import (
	"github.com/rs/zerolog/log"

	"github.com/hyperifyio/restyle/internal/classify"
	"github.com/hyperifyio/restyle/internal/docx"
	"github.com/hyperifyio/restyle/internal/profile"
)

const (
	// FallbackHeadingStyle is used when the reference heading style is not
	// available in the new document.
	FallbackHeadingStyle = "Heading 1"
	// FallbackHeadingSizePt is used when no heading style is available.
	FallbackHeadingSizePt = 16
)

// Synthesizer renders blocks into a fresh document.
type Synthesizer struct {
	// NewDocument creates the empty output document. Nil means docx.New.
	NewDocument func() *docx.Document
}

// Synthesize appends one paragraph per block, in order, to a new document.
// Every heading takes the first heading sample's formatting and every body
// block the first body sample's. Formatting that cannot be applied is
// skipped and logged at debug level; it never fails the call.
func (s *Synthesizer) Synthesize(blocks []classify.ContentBlock, p profile.StyleProfile) (*docx.Document, error) {
	newDoc := docx.New
	if s != nil && s.NewDocument != nil {
		newDoc = s.NewDocument
	}
	doc := newDoc()

	m := p.Layout.Margins
	doc.ApplyMargins(docx.Margins{Top: m.Top, Bottom: m.Bottom, Left: m.Left, Right: m.Right})

	var heading, body *profile.StyleSample
	if len(p.Headings) > 0 {
		heading = &p.Headings[0]
	}
	if len(p.Paragraphs) > 0 {
		body = &p.Paragraphs[0]
	}

	for _, b := range blocks {
		para := doc.AddParagraph()
		run := para.AddRun(b.Text)
		if b.Role == classify.RoleHeading {
			writeHeading(doc, para, run, heading)
		} else {
			writeBody(doc, para, run, body)
		}
	}
	log.Debug().Str("stage", "synth").Int("blocks", len(blocks)).
		Bool("heading_sample", heading != nil).Bool("body_sample", body != nil).
		Msg("synthesized document")
	return doc, nil
}

func writeHeading(doc *docx.Document, para *docx.Paragraph, run *docx.Run, sample *profile.StyleSample) {
	if sample == nil {
		run.SetBold(true)
		headingFallback(doc, para, run)
		return
	}
	if sample.Alignment != docx.AlignUnset {
		para.SetAlignment(sample.Alignment)
	}
	if !applyStyle(doc, para, sample.StyleName) {
		headingFallback(doc, para, run)
	}
	applyRun(run, sample)
}

func headingFallback(doc *docx.Document, para *docx.Paragraph, run *docx.Run) {
	if applyStyle(doc, para, FallbackHeadingStyle) {
		return
	}
	run.SetBold(true)
	_ = run.SetSizePt(FallbackHeadingSizePt)
}

func writeBody(doc *docx.Document, para *docx.Paragraph, run *docx.Run, sample *profile.StyleSample) {
	if sample == nil {
		return
	}
	if sample.Alignment != docx.AlignUnset {
		para.SetAlignment(sample.Alignment)
	}
	applyStyle(doc, para, sample.StyleName)
	applyRun(run, sample)
}

// applyStyle sets the named style when the document has it.
func applyStyle(doc *docx.Document, para *docx.Paragraph, name string) bool {
	if name == "" || !doc.HasStyle(name) {
		return false
	}
	if err := para.SetStyle(name); err != nil {
		log.Debug().Err(err).Str("stage", "synth").Str("style", name).Msg("style not applied")
		return false
	}
	return true
}

// applyRun copies the sample's first run formatting onto run. Only present
// properties are set.
func applyRun(run *docx.Run, sample *profile.StyleSample) {
	rp, ok := sample.FirstRun()
	if !ok {
		return
	}
	if rp.Bold != nil {
		run.SetBold(*rp.Bold)
	}
	if rp.Italic != nil {
		run.SetItalic(*rp.Italic)
	}
	if rp.FontName != "" {
		run.SetFont(rp.FontName)
	}
	if rp.FontSizePt != nil {
		if err := run.SetSizePt(*rp.FontSizePt); err != nil {
			log.Debug().Err(err).Str("stage", "synth").Float64("size_pt", *rp.FontSizePt).Msg("font size not applied")
		}
	}
	if rp.Color != nil {
		if err := run.SetColor(rp.Color.Hex()); err != nil {
			log.Debug().Err(err).Str("stage", "synth").Str("color", rp.Color.Hex()).Msg("color not applied")
		}
	}
}
