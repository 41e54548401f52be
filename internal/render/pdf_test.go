package render

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/hyperifyio/restyle/internal/docx"
)

func TestWritePDF(t *testing.T) {
	doc := docx.New()
	h := doc.AddParagraph()
	if err := h.SetStyle("Heading 1"); err != nil {
		t.Fatal(err)
	}
	h.SetAlignment(docx.AlignCenter)
	h.AddRun("Überblick")
	p := doc.AddParagraph()
	p.AddRun("plain ")
	r := p.AddRun("bold")
	r.SetBold(true)
	_ = r.SetColor("336699")
	doc.AddParagraph()

	var buf bytes.Buffer
	if err := WritePDF(&buf, doc); err != nil {
		t.Fatalf("write: %v", err)
	}
	if !bytes.HasPrefix(buf.Bytes(), []byte("%PDF-")) {
		t.Fatalf("not a PDF: %q", buf.Bytes()[:8])
	}
}

func TestWritePDFFile(t *testing.T) {
	doc := docx.NewBare()
	doc.AddParagraph().AddRun("hello")
	path := filepath.Join(t.TempDir(), "out.pdf")
	if err := WritePDFFile(path, doc); err != nil {
		t.Fatalf("write: %v", err)
	}
	info, err := os.Stat(path)
	if err != nil || info.Size() == 0 {
		t.Fatalf("stat=%v err=%v", info, err)
	}
	if err := WritePDF(&bytes.Buffer{}, nil); err == nil {
		t.Fatal("expected error for nil document")
	}
}

func TestCoreFont(t *testing.T) {
	cases := map[string]string{
		"":                "Helvetica",
		"Calibri":         "Helvetica",
		"Georgia":         "Times",
		"Times New Roman": "Times",
		"DejaVu Sans":     "Helvetica",
		"Noto Serif":      "Times",
		"Courier New":     "Courier",
		"Consolas":        "Courier",
	}
	for in, want := range cases {
		if got := CoreFont(in); got != want {
			t.Errorf("CoreFont(%q)=%q, want %q", in, got, want)
		}
	}
}
