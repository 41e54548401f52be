// Package docxtest builds small .docx packages from raw WordprocessingML
// fragments for tests.
package docxtest

import (
	"archive/zip"
	"bytes"
	"testing"
)

const docHead = `<?xml version="1.0" encoding="UTF-8" standalone="yes"?>
<w:document xmlns:w="http://schemas.openxmlformats.org/wordprocessingml/2006/main"><w:body>`

const docTail = `</w:body></w:document>`

const stylesHead = `<?xml version="1.0" encoding="UTF-8" standalone="yes"?>
<w:styles xmlns:w="http://schemas.openxmlformats.org/wordprocessingml/2006/main">`

const stylesTail = `</w:styles>`

// Package zips the given parts into a .docx byte slice.
func Package(t testing.TB, parts map[string]string) []byte {
	t.Helper()
	var buf bytes.Buffer
	zw := zip.NewWriter(&buf)
	for name, body := range parts {
		f, err := zw.Create(name)
		if err != nil {
			t.Fatalf("create %s: %v", name, err)
		}
		if _, err := f.Write([]byte(body)); err != nil {
			t.Fatalf("write %s: %v", name, err)
		}
	}
	if err := zw.Close(); err != nil {
		t.Fatalf("close zip: %v", err)
	}
	return buf.Bytes()
}

// Build wraps body and styles fragments in their root elements. An empty
// styles fragment omits word/styles.xml entirely.
func Build(t testing.TB, body, styles string) []byte {
	t.Helper()
	parts := map[string]string{"word/document.xml": docHead + body + docTail}
	if styles != "" {
		parts["word/styles.xml"] = stylesHead + styles + stylesTail
	}
	return Package(t, parts)
}

// StandardStyles is a styles fragment with Normal (Calibri 11pt) and the
// built-in heading 1 and heading 2 styles stored under lowercase names.
const StandardStyles = `<w:style w:type="paragraph" w:default="1" w:styleId="Normal"><w:name w:val="Normal"/><w:rPr><w:rFonts w:ascii="Calibri" w:hAnsi="Calibri"/><w:sz w:val="22"/></w:rPr></w:style>` +
	`<w:style w:type="paragraph" w:styleId="Heading1"><w:name w:val="heading 1"/><w:basedOn w:val="Normal"/><w:rPr><w:b/><w:sz w:val="32"/></w:rPr></w:style>` +
	`<w:style w:type="paragraph" w:styleId="Heading2"><w:name w:val="heading 2"/><w:basedOn w:val="Normal"/></w:style>` +
	`<w:style w:type="paragraph" w:styleId="BodyText"><w:name w:val="Body Text"/><w:basedOn w:val="Normal"/></w:style>`

// Section returns a body-level sectPr with the given margins in twips.
func Section(top, bottom, left, right string) string {
	return `<w:sectPr><w:pgSz w:w="12240" w:h="15840"/><w:pgMar w:top="` + top + `" w:bottom="` + bottom +
		`" w:left="` + left + `" w:right="` + right + `" w:header="720" w:footer="720" w:gutter="0"/></w:sectPr>`
}

// Para returns a paragraph with an optional style id, optional jc value and
// the given raw run fragments.
func Para(styleID, jc string, runs ...string) string {
	s := `<w:p>`
	if styleID != "" || jc != "" {
		s += `<w:pPr>`
		if styleID != "" {
			s += `<w:pStyle w:val="` + styleID + `"/>`
		}
		if jc != "" {
			s += `<w:jc w:val="` + jc + `"/>`
		}
		s += `</w:pPr>`
	}
	for _, r := range runs {
		s += r
	}
	return s + `</w:p>`
}

// Run returns a run with raw rPr content and text.
func Run(rPr, text string) string {
	s := `<w:r>`
	if rPr != "" {
		s += `<w:rPr>` + rPr + `</w:rPr>`
	}
	return s + `<w:t xml:space="preserve">` + text + `</w:t></w:r>`
}
