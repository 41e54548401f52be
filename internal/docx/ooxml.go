package docx

import (
	"encoding/xml"
)

// Decoding structs. Tags carry only local names so that elements and
// attributes match regardless of the namespace prefix a producer picked.

type xmlVal struct {
	Val string `xml:"val,attr"`
}

type xmlDocument struct {
	XMLName xml.Name `xml:"document"`
	Body    xmlBody  `xml:"body"`
}

// xmlBody keeps paragraphs, tables and section properties in document order.
type xmlBody struct {
	Items []xmlBodyItem
}

type xmlBodyItem struct {
	Para    *xmlParagraph
	Table   *xmlTable
	Section *xmlSectPr
}

func (b *xmlBody) UnmarshalXML(d *xml.Decoder, _ xml.StartElement) error {
	for {
		tok, err := d.Token()
		if err != nil {
			return err
		}
		switch t := tok.(type) {
		case xml.StartElement:
			switch t.Name.Local {
			case "p":
				p := &xmlParagraph{}
				if err := d.DecodeElement(p, &t); err != nil {
					return err
				}
				b.Items = append(b.Items, xmlBodyItem{Para: p})
			case "tbl":
				tbl := &xmlTable{}
				if err := d.DecodeElement(tbl, &t); err != nil {
					return err
				}
				b.Items = append(b.Items, xmlBodyItem{Table: tbl})
			case "sectPr":
				s := &xmlSectPr{}
				if err := d.DecodeElement(s, &t); err != nil {
					return err
				}
				b.Items = append(b.Items, xmlBodyItem{Section: s})
			default:
				if err := d.Skip(); err != nil {
					return err
				}
			}
		case xml.EndElement:
			return nil
		}
	}
}

type xmlParagraph struct {
	PPr  *xmlPPr
	Runs []xmlRun
}

func (p *xmlParagraph) UnmarshalXML(d *xml.Decoder, _ xml.StartElement) error {
	for {
		tok, err := d.Token()
		if err != nil {
			return err
		}
		switch t := tok.(type) {
		case xml.StartElement:
			switch t.Name.Local {
			case "pPr":
				p.PPr = &xmlPPr{}
				if err := d.DecodeElement(p.PPr, &t); err != nil {
					return err
				}
			case "r":
				var r xmlRun
				if err := d.DecodeElement(&r, &t); err != nil {
					return err
				}
				p.Runs = append(p.Runs, r)
			case "hyperlink":
				var h xmlHyperlink
				if err := d.DecodeElement(&h, &t); err != nil {
					return err
				}
				for _, r := range h.Runs {
					r.Linked = true
					p.Runs = append(p.Runs, r)
				}
			default:
				if err := d.Skip(); err != nil {
					return err
				}
			}
		case xml.EndElement:
			return nil
		}
	}
}

type xmlHyperlink struct {
	Runs []xmlRun `xml:"r"`
}

type xmlPPr struct {
	Style  *xmlVal    `xml:"pStyle"`
	Jc     *xmlVal    `xml:"jc"`
	SectPr *xmlSectPr `xml:"sectPr"`
}

// xmlRun flattens text, tabs and breaks into one string in source order.
type xmlRun struct {
	RPr    *xmlRPr
	Text   string
	Linked bool
}

func (r *xmlRun) UnmarshalXML(d *xml.Decoder, _ xml.StartElement) error {
	var text []byte
	for {
		tok, err := d.Token()
		if err != nil {
			return err
		}
		switch t := tok.(type) {
		case xml.StartElement:
			switch t.Name.Local {
			case "rPr":
				r.RPr = &xmlRPr{}
				if err := d.DecodeElement(r.RPr, &t); err != nil {
					return err
				}
			case "t":
				var s string
				if err := d.DecodeElement(&s, &t); err != nil {
					return err
				}
				text = append(text, s...)
			case "tab":
				text = append(text, '\t')
				if err := d.Skip(); err != nil {
					return err
				}
			case "br", "cr":
				text = append(text, '\n')
				if err := d.Skip(); err != nil {
					return err
				}
			default:
				if err := d.Skip(); err != nil {
					return err
				}
			}
		case xml.EndElement:
			r.Text = string(text)
			return nil
		}
	}
}

type xmlRPr struct {
	Fonts *xmlFonts `xml:"rFonts"`
	B     *xmlVal   `xml:"b"`
	I     *xmlVal   `xml:"i"`
	U     *xmlVal   `xml:"u"`
	Color *xmlVal   `xml:"color"`
	Sz    *xmlVal   `xml:"sz"`
}

type xmlFonts struct {
	ASCII string `xml:"ascii,attr"`
	HAnsi string `xml:"hAnsi,attr"`
}

type xmlTable struct {
	Grid struct {
		Cols []struct{} `xml:"gridCol"`
	} `xml:"tblGrid"`
	Rows []xmlRow `xml:"tr"`
}

type xmlRow struct {
	Cells []xmlCell `xml:"tc"`
}

type xmlCell struct {
	TcPr       *xmlTcPr       `xml:"tcPr"`
	Paragraphs []xmlParagraph `xml:"p"`
}

type xmlTcPr struct {
	VAlign   *xmlVal `xml:"vAlign"`
	GridSpan *xmlVal `xml:"gridSpan"`
}

type xmlSectPr struct {
	PgSz  *xmlPgSz  `xml:"pgSz"`
	PgMar *xmlPgMar `xml:"pgMar"`
}

type xmlPgSz struct {
	W string `xml:"w,attr"`
	H string `xml:"h,attr"`
}

type xmlPgMar struct {
	Top    string `xml:"top,attr"`
	Bottom string `xml:"bottom,attr"`
	Left   string `xml:"left,attr"`
	Right  string `xml:"right,attr"`
}

type xmlStyles struct {
	XMLName xml.Name   `xml:"styles"`
	Styles  []xmlStyle `xml:"style"`
}

type xmlStyle struct {
	Type    string  `xml:"type,attr"`
	Default string  `xml:"default,attr"`
	StyleID string  `xml:"styleId,attr"`
	Name    *xmlVal `xml:"name"`
	BasedOn *xmlVal `xml:"basedOn"`
	PPr     *xmlPPr `xml:"pPr"`
	RPr     *xmlRPr `xml:"rPr"`
}

// Encoding structs. Prefixed tag names are written verbatim.

const (
	nsMain = "http://schemas.openxmlformats.org/wordprocessingml/2006/main"
	nsRel  = "http://schemas.openxmlformats.org/officeDocument/2006/relationships"
)

type wVal struct {
	Val string `xml:"w:val,attr,omitempty"`
}

type wDocument struct {
	XMLName xml.Name `xml:"w:document"`
	NSW     string   `xml:"xmlns:w,attr"`
	NSR     string   `xml:"xmlns:r,attr"`
	Body    wBody    `xml:"w:body"`
}

type wBody struct {
	Paragraphs []wParagraph `xml:"w:p"`
	SectPr     *wSectPr     `xml:"w:sectPr"`
}

type wParagraph struct {
	PPr  *wPPr  `xml:"w:pPr"`
	Runs []wRun `xml:"w:r"`
}

type wPPr struct {
	Style      *wVal     `xml:"w:pStyle"`
	KeepNext   *wVal     `xml:"w:keepNext"`
	Spacing    *wSpacing `xml:"w:spacing"`
	Jc         *wVal     `xml:"w:jc"`
	OutlineLvl *wVal     `xml:"w:outlineLvl"`
}

type wSpacing struct {
	Before string `xml:"w:before,attr,omitempty"`
	After  string `xml:"w:after,attr,omitempty"`
}

type wRun struct {
	RPr  *wRPr  `xml:"w:rPr"`
	Text *wText `xml:"w:t"`
}

type wText struct {
	Space string `xml:"xml:space,attr,omitempty"`
	Value string `xml:",chardata"`
}

// wRPr fields follow the schema sequence (rFonts, b, i, color, sz, szCs, u).
type wRPr struct {
	Fonts *wFonts `xml:"w:rFonts"`
	B     *wVal   `xml:"w:b"`
	I     *wVal   `xml:"w:i"`
	Color *wVal   `xml:"w:color"`
	Sz    *wVal   `xml:"w:sz"`
	SzCs  *wVal   `xml:"w:szCs"`
	U     *wVal   `xml:"w:u"`
}

type wFonts struct {
	ASCII string `xml:"w:ascii,attr,omitempty"`
	HAnsi string `xml:"w:hAnsi,attr,omitempty"`
	CS    string `xml:"w:cs,attr,omitempty"`
}

type wSectPr struct {
	PgSz  wPgSz  `xml:"w:pgSz"`
	PgMar wPgMar `xml:"w:pgMar"`
}

type wPgSz struct {
	W int `xml:"w:w,attr"`
	H int `xml:"w:h,attr"`
}

type wPgMar struct {
	Top    int `xml:"w:top,attr"`
	Right  int `xml:"w:right,attr"`
	Bottom int `xml:"w:bottom,attr"`
	Left   int `xml:"w:left,attr"`
	Header int `xml:"w:header,attr"`
	Footer int `xml:"w:footer,attr"`
	Gutter int `xml:"w:gutter,attr"`
}

type wStyles struct {
	XMLName xml.Name `xml:"w:styles"`
	NSW     string   `xml:"xmlns:w,attr"`
	Styles  []wStyle `xml:"w:style"`
}

type wStyle struct {
	Type    string    `xml:"w:type,attr"`
	Default string    `xml:"w:default,attr,omitempty"`
	StyleID string    `xml:"w:styleId,attr"`
	Name    wVal      `xml:"w:name"`
	BasedOn *wVal     `xml:"w:basedOn"`
	Next    *wVal     `xml:"w:next"`
	QFormat *struct{} `xml:"w:qFormat"`
	PPr     *wPPr     `xml:"w:pPr"`
	RPr     *wRPr     `xml:"w:rPr"`
}
