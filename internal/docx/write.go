package docx

import (
	"archive/zip"
	"bytes"
	"encoding/xml"
	"fmt"
	"io"
	"strconv"
	"strings"
)

// MIMEType is the media type of a .docx package.
const MIMEType = "application/vnd.openxmlformats-officedocument.wordprocessingml.document"

// Default page geometry of a new document: US Letter, 1" top and bottom,
// 1.25" left and right.
const (
	defaultPageWidth  = 12240
	defaultPageHeight = 15840
	defaultMarginTB   = 1440
	defaultMarginLR   = 1800
)

// New returns an empty document with the built-in style set and one
// section.
func New() *Document {
	d := &Document{styles: builtinStyles()}
	d.sections = []*Section{defaultSection()}
	return d
}

// NewBare returns an empty document whose only style is Normal.
func NewBare() *Document {
	ss := &StyleSheet{}
	ss.add(&Style{ID: "Normal", Name: "Normal", Type: StyleParagraph, IsDefault: true})
	return &Document{styles: ss, sections: []*Section{defaultSection()}}
}

func defaultSection() *Section {
	return &Section{
		PageWidth: intp(defaultPageWidth), PageHeight: intp(defaultPageHeight),
		Top: intp(defaultMarginTB), Bottom: intp(defaultMarginTB),
		Left: intp(defaultMarginLR), Right: intp(defaultMarginLR),
	}
}

// Save writes the document as a .docx package. Body paragraphs and the
// first section are written; tables of an opened document are not.
func (d *Document) Save(w io.Writer) error {
	zw := zip.NewWriter(w)
	parts := []struct {
		name string
		body func() ([]byte, error)
	}{
		{"[Content_Types].xml", func() ([]byte, error) { return []byte(contentTypesXML), nil }},
		{"_rels/.rels", func() ([]byte, error) { return []byte(rootRelsXML), nil }},
		{"word/_rels/document.xml.rels", func() ([]byte, error) { return []byte(documentRelsXML), nil }},
		{partDocument, d.documentXML},
		{partStyles, d.stylesXML},
	}
	for _, p := range parts {
		data, err := p.body()
		if err != nil {
			return fmt.Errorf("encoding %s: %w", p.name, err)
		}
		f, err := zw.Create(p.name)
		if err != nil {
			return fmt.Errorf("creating %s: %w", p.name, err)
		}
		if _, err := f.Write(data); err != nil {
			return fmt.Errorf("writing %s: %w", p.name, err)
		}
	}
	return zw.Close()
}

// Bytes returns the serialized package.
func (d *Document) Bytes() ([]byte, error) {
	var buf bytes.Buffer
	if err := d.Save(&buf); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func (d *Document) documentXML() ([]byte, error) {
	doc := wDocument{NSW: nsMain, NSR: nsRel}
	for _, p := range d.paragraphs {
		doc.Body.Paragraphs = append(doc.Body.Paragraphs, encodeParagraph(p))
	}
	sec := defaultSection()
	if len(d.sections) > 0 {
		sec = d.sections[0]
	}
	doc.Body.SectPr = encodeSection(sec)
	return marshalPart(doc)
}

func (d *Document) stylesXML() ([]byte, error) {
	out := wStyles{NSW: nsMain}
	for _, st := range d.styles.All() {
		ws := wStyle{
			Type:    st.Type,
			StyleID: st.ID,
			Name:    wVal{Val: storedName(st.Name)},
			RPr:     encodeFormat(st.Font),
		}
		if st.IsDefault {
			ws.Default = "1"
		}
		if st.BasedOn != "" {
			ws.BasedOn = &wVal{Val: st.BasedOn}
		}
		if st.Type == StyleParagraph {
			ws.QFormat = &struct{}{}
		}
		if st.outline != nil || st.Alignment != AlignUnset {
			ws.PPr = &wPPr{}
			if st.outline != nil {
				ws.Next = &wVal{Val: "Normal"}
				ws.PPr.KeepNext = &wVal{}
				ws.PPr.Spacing = &wSpacing{Before: "480", After: "120"}
				ws.PPr.OutlineLvl = &wVal{Val: strconv.Itoa(*st.outline)}
			}
			if st.Alignment != AlignUnset {
				ws.PPr.Jc = &wVal{Val: st.Alignment.jc()}
			}
		}
		out.Styles = append(out.Styles, ws)
	}
	return marshalPart(out)
}

func encodeParagraph(p *Paragraph) wParagraph {
	var wp wParagraph
	if p.StyleID != "" || p.Alignment != AlignUnset {
		wp.PPr = &wPPr{}
		if p.StyleID != "" {
			wp.PPr.Style = &wVal{Val: p.StyleID}
		}
		if p.Alignment != AlignUnset {
			wp.PPr.Jc = &wVal{Val: p.Alignment.jc()}
		}
	}
	for _, r := range p.Runs {
		wr := wRun{RPr: encodeFormat(r.Format), Text: &wText{Value: r.Text}}
		if strings.TrimSpace(r.Text) != r.Text {
			wr.Text.Space = "preserve"
		}
		wp.Runs = append(wp.Runs, wr)
	}
	return wp
}

func encodeFormat(f Format) *wRPr {
	var x wRPr
	set := false
	onOffVal := func(b *bool) *wVal {
		if b == nil {
			return nil
		}
		set = true
		if *b {
			return &wVal{}
		}
		return &wVal{Val: "0"}
	}
	x.B = onOffVal(f.Bold)
	x.I = onOffVal(f.Italic)
	if f.Underline != nil {
		set = true
		if *f.Underline {
			x.U = &wVal{Val: "single"}
		} else {
			x.U = &wVal{Val: "none"}
		}
	}
	if f.FontName != "" {
		set = true
		x.Fonts = &wFonts{ASCII: f.FontName, HAnsi: f.FontName, CS: f.FontName}
	}
	if f.SizeHalfPoints != nil {
		set = true
		v := strconv.Itoa(*f.SizeHalfPoints)
		x.Sz = &wVal{Val: v}
		x.SzCs = &wVal{Val: v}
	}
	if f.Color != "" {
		set = true
		x.Color = &wVal{Val: f.Color}
	}
	if !set {
		return nil
	}
	return &x
}

func encodeSection(s *Section) *wSectPr {
	val := func(v *int, def int) int {
		if v == nil {
			return def
		}
		return *v
	}
	return &wSectPr{
		PgSz: wPgSz{W: val(s.PageWidth, defaultPageWidth), H: val(s.PageHeight, defaultPageHeight)},
		PgMar: wPgMar{
			Top:    val(s.Top, defaultMarginTB),
			Bottom: val(s.Bottom, defaultMarginTB),
			Left:   val(s.Left, defaultMarginLR),
			Right:  val(s.Right, defaultMarginLR),
			Header: 720,
			Footer: 720,
		},
	}
}

func marshalPart(v any) ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteString(xml.Header)
	enc := xml.NewEncoder(&buf)
	if err := enc.Encode(v); err != nil {
		return nil, err
	}
	if err := enc.Flush(); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

const contentTypesXML = `<?xml version="1.0" encoding="UTF-8" standalone="yes"?>
<Types xmlns="http://schemas.openxmlformats.org/package/2006/content-types">
<Default Extension="rels" ContentType="application/vnd.openxmlformats-package.relationships+xml"/>
<Default Extension="xml" ContentType="application/xml"/>
<Override PartName="/word/document.xml" ContentType="application/vnd.openxmlformats-officedocument.wordprocessingml.document.main+xml"/>
<Override PartName="/word/styles.xml" ContentType="application/vnd.openxmlformats-officedocument.wordprocessingml.styles+xml"/>
</Types>`

const rootRelsXML = `<?xml version="1.0" encoding="UTF-8" standalone="yes"?>
<Relationships xmlns="http://schemas.openxmlformats.org/package/2006/relationships">
<Relationship Id="rId1" Type="http://schemas.openxmlformats.org/officeDocument/2006/relationships/officeDocument" Target="word/document.xml"/>
</Relationships>`

const documentRelsXML = `<?xml version="1.0" encoding="UTF-8" standalone="yes"?>
<Relationships xmlns="http://schemas.openxmlformats.org/package/2006/relationships">
<Relationship Id="rId1" Type="http://schemas.openxmlformats.org/officeDocument/2006/relationships/styles" Target="styles.xml"/>
</Relationships>`
