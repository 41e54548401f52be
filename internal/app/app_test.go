package app

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"sync/atomic"
	"testing"

	openai "github.com/sashabaranov/go-openai"

	"github.com/hyperifyio/restyle/internal/cache"
	"github.com/hyperifyio/restyle/internal/classify"
	"github.com/hyperifyio/restyle/internal/docx"
	"github.com/hyperifyio/restyle/internal/docx/docxtest"
	"github.com/hyperifyio/restyle/internal/profile"
	"github.com/hyperifyio/restyle/internal/synth"
)

// newStub serves an OpenAI-compatible API whose chat answer is computed by
// answer from the user prompt. A nil answer makes every chat call fail.
func newStub(t *testing.T, answer func(user string) string) (*httptest.Server, *int32) {
	t.Helper()
	var calls int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		switch r.URL.Path {
		case "/v1/models":
			_, _ = w.Write([]byte(`{"object":"list","data":[{"id":"stub","object":"model"}]}`))
		case "/v1/chat/completions":
			atomic.AddInt32(&calls, 1)
			if answer == nil {
				w.WriteHeader(http.StatusInternalServerError)
				_, _ = w.Write([]byte(`{"error":{"message":"boom","type":"server_error"}}`))
				return
			}
			var req openai.ChatCompletionRequest
			_ = json.NewDecoder(r.Body).Decode(&req)
			user := ""
			if len(req.Messages) > 1 {
				user = req.Messages[1].Content
			}
			_ = json.NewEncoder(w).Encode(openai.ChatCompletionResponse{
				Choices: []openai.ChatCompletionChoice{{Message: openai.ChatCompletionMessage{Role: "assistant", Content: answer(user)}}},
			})
		default:
			http.NotFound(w, r)
		}
	}))
	t.Cleanup(srv.Close)
	return srv, &calls
}

func writeFixtures(t *testing.T, dir string) (ref, target string) {
	t.Helper()
	refBody := docxtest.Para("Heading1", "center",
		docxtest.Run(`<w:b/><w:rFonts w:ascii="Georgia"/><w:sz w:val="40"/><w:color w:val="1F4E79"/>`, "Reference Title")) +
		docxtest.Para("BodyText", "both",
			docxtest.Run(`<w:rFonts w:ascii="Garamond"/><w:sz w:val="24"/>`, "Reference body paragraph.")) +
		docxtest.Section("720", "720", "1080", "1080")
	targetBody := docxtest.Para("", "", docxtest.Run("", "Introduction")) +
		docxtest.Para("", "", docxtest.Run("", "The quick brown fox jumps over the lazy dog.")) +
		docxtest.Para("", "", docxtest.Run("", " ")) +
		docxtest.Para("", "", docxtest.Run("", "Conclusion"))
	ref = filepath.Join(dir, "reference.docx")
	target = filepath.Join(dir, "target.docx")
	if err := os.WriteFile(ref, docxtest.Build(t, refBody, docxtest.StandardStyles), 0o644); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(target, docxtest.Build(t, targetBody, ""), 0o644); err != nil {
		t.Fatal(err)
	}
	return ref, target
}

func headingsAnswer(string) string {
	return "Introduction - heading\nThe quick brown fox jumps over - body\nConclusion - heading"
}

func TestRun_EndToEnd(t *testing.T) {
	srv, calls := newStub(t, headingsAnswer)
	dir := t.TempDir()
	ref, target := writeFixtures(t, dir)
	out := filepath.Join(dir, "out", "formatted.docx")
	pdf := filepath.Join(dir, "out", "formatted.pdf")

	a, err := New(context.Background(), Config{
		ReferencePath: ref, TargetPath: target, OutputPath: out, OutputPDFPath: pdf,
		LLMBaseURL: srv.URL + "/v1", LLMModel: "stub", LLMAPIKey: "k",
		CacheDir: filepath.Join(dir, "cache"),
	})
	if err != nil {
		t.Fatalf("new: %v", err)
	}
	if err := a.Run(context.Background()); err != nil {
		t.Fatalf("run: %v", err)
	}
	if atomic.LoadInt32(calls) != 1 {
		t.Fatalf("chat calls=%d, want 1", *calls)
	}

	doc, err := docx.OpenFile(out)
	if err != nil {
		t.Fatalf("open output: %v", err)
	}
	ps := doc.Paragraphs()
	if len(ps) != 3 {
		t.Fatalf("paragraphs=%d, want 3", len(ps))
	}
	for _, i := range []int{0, 2} {
		p := ps[i]
		r := p.Runs[0]
		if p.StyleName() != "Heading 1" || p.Alignment != docx.AlignCenter || r.FontName != "Georgia" || r.Color != "1F4E79" {
			t.Fatalf("heading %d: style=%q align=%q format=%+v", i, p.StyleName(), p.Alignment, r.Format)
		}
		if pt, _ := r.SizePt(); pt != 20 {
			t.Fatalf("heading %d size=%v", i, pt)
		}
	}
	if p := ps[1]; p.StyleName() != "Body Text" || p.Alignment != docx.AlignJustify || p.Runs[0].FontName != "Garamond" {
		t.Fatalf("body: style=%q align=%q format=%+v", p.StyleName(), p.Alignment, p.Runs[0].Format)
	}
	m := doc.Sections()[0].Margins()
	if *m.Top != 0.5 || *m.Left != 0.75 {
		t.Fatalf("margins top=%v left=%v", *m.Top, *m.Left)
	}

	raw, err := os.ReadFile(manifestPath(out))
	if err != nil {
		t.Fatalf("manifest: %v", err)
	}
	var man manifest
	if err := json.Unmarshal(raw, &man); err != nil {
		t.Fatalf("manifest json: %v", err)
	}
	if man.Counts.Blocks != 3 || man.Counts.Headings != 2 || man.Counts.Body != 1 || man.Meta.Model != "stub" {
		t.Fatalf("manifest=%+v", man)
	}
	if len(man.Inputs) != 2 || len(man.Inputs[0].SHA256) != 64 {
		t.Fatalf("manifest inputs=%+v", man.Inputs)
	}
	if info, err := os.Stat(pdf); err != nil || info.Size() == 0 {
		t.Fatalf("pdf preview missing: %v", err)
	}

	// A second run is answered from the cache.
	if err := a.Run(context.Background()); err != nil {
		t.Fatalf("second run: %v", err)
	}
	if atomic.LoadInt32(calls) != 1 {
		t.Fatalf("chat calls=%d after cached run, want 1", *calls)
	}
}

func TestRun_OracleFailureWritesNothing(t *testing.T) {
	srv, _ := newStub(t, nil)
	dir := t.TempDir()
	ref, target := writeFixtures(t, dir)
	out := filepath.Join(dir, "formatted.docx")

	a, err := New(context.Background(), Config{
		ReferencePath: ref, TargetPath: target, OutputPath: out,
		LLMBaseURL: srv.URL + "/v1", LLMAPIKey: "k", NoCache: true,
	})
	if err != nil {
		t.Fatalf("new: %v", err)
	}
	err = a.Run(context.Background())
	if !errors.Is(err, classify.ErrOracleCall) {
		t.Fatalf("err=%v, want ErrOracleCall", err)
	}
	if _, err := os.Stat(out); !os.IsNotExist(err) {
		t.Fatalf("no output expected after oracle failure, stat err=%v", err)
	}
	if _, err := os.Stat(manifestPath(out)); !os.IsNotExist(err) {
		t.Fatal("no manifest expected after oracle failure")
	}
}

func TestTransform_EmptyReferenceUsesDefaults(t *testing.T) {
	srv, _ := newStub(t, func(string) string { return "Intro: heading\nbody" })
	a, err := New(context.Background(), Config{LLMBaseURL: srv.URL + "/v1", NoCache: true})
	if err != nil {
		t.Fatal(err)
	}
	ref := Input{Name: "ref.docx", Data: docxtest.Build(t, "", "")}
	target := Input{Name: "t.docx", Data: docxtest.Build(t,
		docxtest.Para("", "", docxtest.Run("", "Intro"))+docxtest.Para("", "", docxtest.Run("", "Some text")), "")}
	res, err := a.Transform(context.Background(), ref, target)
	if err != nil {
		t.Fatalf("transform: %v", err)
	}
	ps := res.Document.Paragraphs()
	if ps[0].StyleName() != "Heading 1" || ps[0].Runs[0].Bold == nil || !*ps[0].Runs[0].Bold {
		t.Fatalf("default heading: style=%q format=%+v", ps[0].StyleName(), ps[0].Runs[0].Format)
	}
	if ps[1].StyleID != "" {
		t.Fatalf("default body should have no explicit style, got %q", ps[1].StyleID)
	}
}

func TestTransform_MalformedReference(t *testing.T) {
	srv, calls := newStub(t, headingsAnswer)
	a, err := New(context.Background(), Config{LLMBaseURL: srv.URL + "/v1", NoCache: true})
	if err != nil {
		t.Fatal(err)
	}
	target := Input{Name: "t.docx", Data: docxtest.Build(t, docxtest.Para("", "", docxtest.Run("", "x")), "")}
	_, err = a.Transform(context.Background(), Input{Name: "ref.docx", Data: []byte("not a zip")}, target)
	if !errors.Is(err, docx.ErrMalformedDocument) || !strings.Contains(err.Error(), "reference") {
		t.Fatalf("err=%v", err)
	}
	if atomic.LoadInt32(calls) != 0 {
		t.Fatal("model must not be called when an input is malformed")
	}
}

func TestTransform_ProfileAsReference(t *testing.T) {
	srv, _ := newStub(t, func(string) string { return "Only: heading" })
	a, err := New(context.Background(), Config{LLMBaseURL: srv.URL + "/v1", NoCache: true})
	if err != nil {
		t.Fatal(err)
	}
	yamlProfile := "headings:\n  - sourceText: T\n    styleName: Heading 2\n    alignment: right\n    runs:\n      - text: T\n        italic: true\n"
	target := Input{Name: "t.docx", Data: docxtest.Build(t, docxtest.Para("", "", docxtest.Run("", "Only")), "")}
	res, err := a.Transform(context.Background(), Input{Name: "saved.yaml", Data: []byte(yamlProfile)}, target)
	if err != nil {
		t.Fatalf("transform: %v", err)
	}
	p := res.Document.Paragraphs()[0]
	if p.StyleName() != "Heading 2" || p.Alignment != docx.AlignRight || p.Runs[0].Italic == nil || !*p.Runs[0].Italic {
		t.Fatalf("style=%q align=%q format=%+v", p.StyleName(), p.Alignment, p.Runs[0].Format)
	}
}

func TestTransformDocx(t *testing.T) {
	var gotAuth atomic.Value
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotAuth.Store(r.Header.Get("Authorization"))
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(openai.ChatCompletionResponse{
			Choices: []openai.ChatCompletionChoice{{Message: openai.ChatCompletionMessage{Role: "assistant", Content: "body"}}},
		})
	}))
	defer srv.Close()
	a := &App{cfg: Config{LLMBaseURL: srv.URL + "/v1"}, synth: &synth.Synthesizer{}}
	out, err := a.TransformDocx(context.Background(), "form-key",
		docxtest.Build(t, "", ""),
		docxtest.Build(t, docxtest.Para("", "", docxtest.Run("", "hello")), ""))
	if err != nil {
		t.Fatalf("transform: %v", err)
	}
	doc, err := docx.Open(out)
	if err != nil || len(doc.Paragraphs()) != 1 {
		t.Fatalf("output err=%v", err)
	}
	if gotAuth.Load() != "Bearer form-key" {
		t.Fatalf("authorization=%v", gotAuth.Load())
	}
}

func TestTransformDocx_WrongKeyIsNotServedFromCache(t *testing.T) {
	var calls int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&calls, 1)
		w.Header().Set("Content-Type", "application/json")
		if r.Header.Get("Authorization") != "Bearer good" {
			w.WriteHeader(http.StatusUnauthorized)
			_, _ = w.Write([]byte(`{"error":{"message":"invalid api key","type":"invalid_request_error"}}`))
			return
		}
		_ = json.NewEncoder(w).Encode(openai.ChatCompletionResponse{
			Choices: []openai.ChatCompletionChoice{{Message: openai.ChatCompletionMessage{Role: "assistant", Content: "Text: hello - heading"}}},
		})
	}))
	defer srv.Close()
	a := &App{
		cfg:   Config{LLMBaseURL: srv.URL + "/v1"},
		cache: &cache.LLMCache{Dir: t.TempDir()},
		synth: &synth.Synthesizer{},
	}
	ref := docxtest.Build(t, "", "")
	target := docxtest.Build(t, docxtest.Para("", "", docxtest.Run("", "hello")), "")

	if _, err := a.TransformDocx(context.Background(), "good", ref, target); err != nil {
		t.Fatalf("good key: %v", err)
	}
	if _, err := a.TransformDocx(context.Background(), "good", ref, target); err != nil {
		t.Fatalf("good key again: %v", err)
	}
	if n := atomic.LoadInt32(&calls); n != 1 {
		t.Fatalf("repeat with the same key should hit the cache, calls=%d", n)
	}
	out, err := a.TransformDocx(context.Background(), "WRONG", ref, target)
	if !errors.Is(err, classify.ErrOracleCall) || out != nil {
		t.Fatalf("wrong key must fail with ErrOracleCall, got out=%d bytes err=%v", len(out), err)
	}
	if n := atomic.LoadInt32(&calls); n != 2 {
		t.Fatalf("wrong key must reach the model, calls=%d", n)
	}
}

func TestExtractProfile(t *testing.T) {
	dir := t.TempDir()
	ref, _ := writeFixtures(t, dir)
	p, err := ExtractProfile(ref)
	if err != nil {
		t.Fatalf("extract: %v", err)
	}
	if len(p.Headings) != 1 || len(p.Paragraphs) != 1 {
		t.Fatalf("profile=%+v", p)
	}
	saved := filepath.Join(dir, "p.json")
	f, _ := os.Create(saved)
	if err := profile.WriteJSON(f, p); err != nil {
		t.Fatal(err)
	}
	_ = f.Close()
	back, err := ExtractProfile(saved)
	if err != nil || back.Headings[0].StyleName != "Heading 1" {
		t.Fatalf("reload err=%v profile=%+v", err, back)
	}
}
