package docx

import (
	"archive/zip"
	"bytes"
	"encoding/xml"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
)

const (
	partDocument = "word/document.xml"
	partStyles   = "word/styles.xml"
)

// maxPartBytes bounds the decompressed size of any single XML part.
var maxPartBytes int64 = 64 << 20

// Open parses a .docx package held in memory. Any structural problem is
// reported as ErrMalformedDocument.
func Open(data []byte) (*Document, error) {
	zr, err := zip.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return nil, fmt.Errorf("%w: opening zip archive: %v", ErrMalformedDocument, err)
	}
	files := make(map[string]*zip.File, len(zr.File))
	for _, f := range zr.File {
		files[f.Name] = f
	}
	if _, ok := files[partDocument]; !ok {
		return nil, fmt.Errorf("%w: missing %s", ErrMalformedDocument, partDocument)
	}

	d := &Document{styles: &StyleSheet{}}
	if f, ok := files[partStyles]; ok {
		var xs xmlStyles
		if err := decodePart(f, &xs); err != nil {
			return nil, err
		}
		d.styles = convertStyles(xs)
	}

	var xd xmlDocument
	if err := decodePart(files[partDocument], &xd); err != nil {
		return nil, err
	}
	for _, it := range xd.Body.Items {
		switch {
		case it.Para != nil:
			d.paragraphs = append(d.paragraphs, d.convertParagraph(it.Para))
			if it.Para.PPr != nil && it.Para.PPr.SectPr != nil {
				d.sections = append(d.sections, convertSection(it.Para.PPr.SectPr))
			}
		case it.Table != nil:
			d.tables = append(d.tables, d.convertTable(it.Table))
		case it.Section != nil:
			d.sections = append(d.sections, convertSection(it.Section))
		}
	}
	return d, nil
}

// OpenFile reads and parses a .docx file.
func OpenFile(path string) (*Document, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading file: %w", err)
	}
	return Open(data)
}

func decodePart(f *zip.File, v any) error {
	if f.UncompressedSize64 > uint64(maxPartBytes) {
		return fmt.Errorf("%w: %s exceeds %d bytes", ErrMalformedDocument, f.Name, maxPartBytes)
	}
	rc, err := f.Open()
	if err != nil {
		return fmt.Errorf("%w: opening %s: %v", ErrMalformedDocument, f.Name, err)
	}
	defer rc.Close()
	data, err := io.ReadAll(io.LimitReader(rc, maxPartBytes+1))
	if err != nil {
		return fmt.Errorf("%w: reading %s: %v", ErrMalformedDocument, f.Name, err)
	}
	if int64(len(data)) > maxPartBytes {
		return fmt.Errorf("%w: %s exceeds %d bytes", ErrMalformedDocument, f.Name, maxPartBytes)
	}
	dec := xml.NewDecoder(bytes.NewReader(data))
	dec.Strict = false
	dec.Entity = xml.HTMLEntity
	if err := dec.Decode(v); err != nil {
		return fmt.Errorf("%w: parsing %s: %v", ErrMalformedDocument, f.Name, err)
	}
	return nil
}

func (d *Document) convertParagraph(xp *xmlParagraph) *Paragraph {
	p := &Paragraph{doc: d}
	if xp.PPr != nil {
		if xp.PPr.Style != nil {
			p.StyleID = xp.PPr.Style.Val
		}
		if xp.PPr.Jc != nil {
			p.Alignment = parseJc(xp.PPr.Jc.Val)
		}
	}
	for _, xr := range xp.Runs {
		r := &Run{Text: xr.Text, Format: convertRPr(xr.RPr)}
		p.all = append(p.all, r)
		if !xr.Linked {
			p.Runs = append(p.Runs, r)
		}
	}
	return p
}

func (d *Document) convertTable(xt *xmlTable) *Table {
	t := &Table{gridCols: len(xt.Grid.Cols)}
	for _, xr := range xt.Rows {
		row := &TableRow{}
		for _, xc := range xr.Cells {
			c := &TableCell{Span: 1}
			if xc.TcPr != nil {
				if xc.TcPr.VAlign != nil {
					c.VerticalAlignment = xc.TcPr.VAlign.Val
				}
				if xc.TcPr.GridSpan != nil {
					if n, err := strconv.Atoi(xc.TcPr.GridSpan.Val); err == nil && n > 1 {
						c.Span = n
					}
				}
			}
			for i := range xc.Paragraphs {
				c.Paragraphs = append(c.Paragraphs, d.convertParagraph(&xc.Paragraphs[i]))
			}
			row.Cells = append(row.Cells, c)
		}
		t.Rows = append(t.Rows, row)
	}
	return t
}

func convertSection(xs *xmlSectPr) *Section {
	s := &Section{}
	if xs.PgSz != nil {
		s.PageWidth = atoip(xs.PgSz.W)
		s.PageHeight = atoip(xs.PgSz.H)
	}
	if xs.PgMar != nil {
		s.Top = atoip(xs.PgMar.Top)
		s.Bottom = atoip(xs.PgMar.Bottom)
		s.Left = atoip(xs.PgMar.Left)
		s.Right = atoip(xs.PgMar.Right)
	}
	return s
}

func convertStyles(xs xmlStyles) *StyleSheet {
	ss := &StyleSheet{}
	for _, x := range xs.Styles {
		st := &Style{
			ID:        x.StyleID,
			Type:      x.Type,
			IsDefault: onOff(x.Default, false),
			Font:      convertRPr(x.RPr),
		}
		if st.Type == "" {
			st.Type = StyleParagraph
		}
		if x.Name != nil {
			st.Name = displayName(x.Name.Val)
		}
		if x.BasedOn != nil {
			st.BasedOn = x.BasedOn.Val
		}
		if x.PPr != nil && x.PPr.Jc != nil {
			st.Alignment = parseJc(x.PPr.Jc.Val)
		}
		ss.add(st)
	}
	return ss
}

// convertRPr keeps unset properties nil so that inheritance stays visible.
func convertRPr(x *xmlRPr) Format {
	var f Format
	if x == nil {
		return f
	}
	if x.B != nil {
		f.Bold = boolp(onOff(x.B.Val, true))
	}
	if x.I != nil {
		f.Italic = boolp(onOff(x.I.Val, true))
	}
	if x.U != nil {
		f.Underline = boolp(x.U.Val != "none" && x.U.Val != "0" && x.U.Val != "false")
	}
	if x.Fonts != nil {
		f.FontName = x.Fonts.ASCII
		if f.FontName == "" {
			f.FontName = x.Fonts.HAnsi
		}
	}
	if x.Sz != nil {
		f.SizeHalfPoints = atoip(x.Sz.Val)
	}
	if x.Color != nil && x.Color.Val != "" {
		if strings.EqualFold(x.Color.Val, "auto") {
			f.Color = "auto"
		} else {
			f.Color = strings.ToUpper(x.Color.Val)
		}
	}
	return f
}

// onOff interprets an ST_OnOff attribute. An absent value takes def.
func onOff(v string, def bool) bool {
	switch strings.ToLower(strings.TrimSpace(v)) {
	case "":
		return def
	case "0", "false", "off":
		return false
	}
	return true
}

func atoip(s string) *int {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil
	}
	n, err := strconv.Atoi(s)
	if err != nil {
		// Some producers write fractional twips.
		f, ferr := strconv.ParseFloat(s, 64)
		if ferr != nil {
			return nil
		}
		n = int(f)
	}
	return &n
}
