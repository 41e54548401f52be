package main

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/hyperifyio/restyle/internal/classify"
	"github.com/hyperifyio/restyle/internal/docx"
	"github.com/hyperifyio/restyle/internal/docx/docxtest"
)

func TestNewRootCmd(t *testing.T) {
	cmd := NewRootCmd()
	if cmd.Use != "restyle" || cmd.Short == "" || cmd.Version == "" {
		t.Fatalf("use=%q short=%q version=%q", cmd.Use, cmd.Short, cmd.Version)
	}
	if !cmd.SilenceUsage || !cmd.SilenceErrors {
		t.Fatal("expected usage and errors to be silenced")
	}
	for _, name := range []string{"config", "env", "verbose", "llm.base", "llm.model", "llm.key", "cache.dir", "cache.maxAge", "llm.cacheOnly"} {
		if cmd.PersistentFlags().Lookup(name) == nil {
			t.Errorf("missing persistent flag %s", name)
		}
	}
	for _, name := range []string{"reference", "target", "output", "output.pdf", "no-manifest"} {
		if cmd.Flags().Lookup(name) == nil {
			t.Errorf("missing transfer flag %s on root", name)
		}
	}
	subs := map[string]bool{}
	for _, sub := range cmd.Commands() {
		subs[sub.Name()] = true
		if sub.Name() == "serve" {
			f := sub.Flags().Lookup("allow.configuredKey")
			if f == nil || f.DefValue != "false" {
				t.Errorf("serve must reject keyless requests by default, flag=%v", f)
			}
		}
	}
	for _, name := range []string{"transfer", "profile", "serve", "version"} {
		if !subs[name] {
			t.Errorf("missing subcommand %s", name)
		}
	}
}

func TestExitCode(t *testing.T) {
	cases := []struct {
		err  error
		want int
	}{
		{nil, 0},
		{fmt.Errorf("%w: %w", classify.ErrOracleCall, errors.New("503")), 2},
		{fmt.Errorf("reference r.docx: %w", docx.ErrMalformedDocument), 2},
		{errors.New("config: reference path is required"), 1},
	}
	for _, c := range cases {
		if got := exitCode(c.err); got != c.want {
			t.Errorf("exitCode(%v)=%d, want %d", c.err, got, c.want)
		}
	}
}

func writeConfig(t *testing.T, dir, body string) string {
	t.Helper()
	path := filepath.Join(dir, "restyle.yaml")
	if err := os.WriteFile(path, []byte(body), 0o600); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestBuildConfig_Precedence(t *testing.T) {
	dir := t.TempDir()
	cfgPath := writeConfig(t, dir, "reference: file-ref.docx\noutput: file-out.docx\nllm:\n  model: file-model\n  base: http://file/v1\ncache:\n  maxEntries: 7\n")
	t.Setenv("LLM_BASE_URL", "")
	t.Setenv("LLM_MODEL", "env-model")
	t.Setenv("CACHE_MAX_ENTRIES", "")
	t.Setenv("VERBOSE", "")

	o := &options{}
	cmd := newRootCmd(o)
	if err := cmd.ParseFlags([]string{"--config", cfgPath, "--env", filepath.Join(dir, "none.env"), "--output", "flag-out.docx"}); err != nil {
		t.Fatal(err)
	}
	cfg, err := buildConfig(cmd, o)
	if err != nil {
		t.Fatalf("buildConfig: %v", err)
	}
	if cfg.ReferencePath != "file-ref.docx" {
		t.Errorf("reference=%q, want file value", cfg.ReferencePath)
	}
	if cfg.LLMModel != "env-model" {
		t.Errorf("model=%q, want env over file", cfg.LLMModel)
	}
	if cfg.LLMBaseURL != "http://file/v1" {
		t.Errorf("base=%q, want file value", cfg.LLMBaseURL)
	}
	if cfg.OutputPath != "flag-out.docx" {
		t.Errorf("output=%q, want flag over file", cfg.OutputPath)
	}
	if cfg.CacheMaxEntries != 7 {
		t.Errorf("maxEntries=%d", cfg.CacheMaxEntries)
	}
	if cfg.CacheDir == "" || cfg.ServeAddr == "" {
		t.Errorf("defaults not applied: %+v", cfg)
	}
}

func TestBuildConfig_PromptFile(t *testing.T) {
	dir := t.TempDir()
	prompt := filepath.Join(dir, "prompt.txt")
	if err := os.WriteFile(prompt, []byte("  strict classifier\n"), 0o600); err != nil {
		t.Fatal(err)
	}
	o := &options{}
	cmd := newRootCmd(o)
	args := []string{"--config", writeConfig(t, dir, "verbose: false\n"), "--env", "", "--classify.systemPromptFile", prompt}
	if err := cmd.ParseFlags(args); err != nil {
		t.Fatal(err)
	}
	cfg, err := buildConfig(cmd, o)
	if err != nil {
		t.Fatal(err)
	}
	if cfg.ClassifySystemPrompt != "strict classifier" {
		t.Fatalf("prompt=%q", cfg.ClassifySystemPrompt)
	}
}

func newChatStub(t *testing.T, answer string) *httptest.Server {
	t.Helper()
	mux := http.NewServeMux()
	mux.HandleFunc("/v1/models", func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewEncoder(w).Encode(map[string]any{"object": "list", "data": []map[string]any{{"id": "stub", "object": "model"}}})
	})
	mux.HandleFunc("/v1/chat/completions", func(w http.ResponseWriter, r *http.Request) {
		_, _ = io.Copy(io.Discard, r.Body)
		_ = json.NewEncoder(w).Encode(map[string]any{
			"object":  "chat.completion",
			"choices": []map[string]any{{"index": 0, "message": map[string]string{"role": "assistant", "content": answer}}},
		})
	})
	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	return srv
}

func writeDocs(t *testing.T, dir string) (ref, target string) {
	t.Helper()
	ref = filepath.Join(dir, "reference.docx")
	target = filepath.Join(dir, "target.docx")
	refBody := docxtest.Para("Heading1", "center", docxtest.Run(`<w:b/><w:sz w:val="36"/>`, "Title")) +
		docxtest.Para("BodyText", "both", docxtest.Run(`<w:rFonts w:ascii="Garamond"/>`, "Body text."))
	targetBody := docxtest.Para("", "", docxtest.Run("", "Overview")) +
		docxtest.Para("", "", docxtest.Run("", "Plain paragraph of prose."))
	if err := os.WriteFile(ref, docxtest.Build(t, refBody, docxtest.StandardStyles), 0o644); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(target, docxtest.Build(t, targetBody, ""), 0o644); err != nil {
		t.Fatal(err)
	}
	return ref, target
}

func TestTransferCmd_WritesOutput(t *testing.T) {
	dir := t.TempDir()
	ref, target := writeDocs(t, dir)
	srv := newChatStub(t, "Text: Overview - heading\nText: Plain paragraph of prose. - body")
	out := filepath.Join(dir, "out.docx")

	cmd := NewRootCmd()
	cmd.SetArgs([]string{
		"transfer",
		"--config", writeConfig(t, dir, "verbose: false\n"),
		"--env", "",
		"--llm.base", srv.URL + "/v1", "--llm.key", "k", "--llm.model", "stub",
		"--cache.dir", filepath.Join(dir, "cache"),
		"-r", ref, "-t", target, "-o", out,
	})
	if err := cmd.Execute(); err != nil {
		t.Fatalf("execute: %v", err)
	}
	doc, err := docx.OpenFile(out)
	if err != nil {
		t.Fatalf("open output: %v", err)
	}
	paras := doc.Paragraphs()
	if len(paras) != 2 || paras[0].Text() != "Overview" || paras[1].Text() != "Plain paragraph of prose." {
		t.Fatalf("unexpected paragraphs: %d", len(paras))
	}
	if _, err := os.Stat(out + ".manifest.json"); err != nil {
		t.Fatalf("manifest: %v", err)
	}
}

func TestTransferCmd_MissingTarget(t *testing.T) {
	dir := t.TempDir()
	cmd := NewRootCmd()
	cmd.SetArgs([]string{"--config", writeConfig(t, dir, "verbose: false\n"), "--env", "", "-r", "ref.docx"})
	err := cmd.Execute()
	if err == nil || !strings.Contains(err.Error(), "target") {
		t.Fatalf("err=%v", err)
	}
}

func TestProfileCmd_Markdown(t *testing.T) {
	dir := t.TempDir()
	ref, _ := writeDocs(t, dir)
	var buf bytes.Buffer
	cmd := NewRootCmd()
	cmd.SetOut(&buf)
	cmd.SetArgs([]string{"profile", "--config", writeConfig(t, dir, "verbose: false\n"), "--env", "", "--format", "markdown", ref})
	if err := cmd.Execute(); err != nil {
		t.Fatalf("execute: %v", err)
	}
	if !strings.Contains(buf.String(), "# ") || !strings.Contains(buf.String(), "Garamond") {
		t.Fatalf("markdown report:\n%s", buf.String())
	}
}

func TestProfileCmd_WritesFileByExtension(t *testing.T) {
	dir := t.TempDir()
	ref, _ := writeDocs(t, dir)
	out := filepath.Join(dir, "profiles", "ref.json")
	cmd := NewRootCmd()
	cmd.SetArgs([]string{"profile", "--config", writeConfig(t, dir, "verbose: false\n"), "--env", "", "-o", out, ref})
	if err := cmd.Execute(); err != nil {
		t.Fatalf("execute: %v", err)
	}
	raw, err := os.ReadFile(out)
	if err != nil {
		t.Fatal(err)
	}
	if !json.Valid(raw) {
		t.Fatalf("expected JSON profile, got %s", raw)
	}
}

func TestVersionCmd(t *testing.T) {
	var buf bytes.Buffer
	cmd := NewVersionCmd()
	cmd.SetOut(&buf)
	cmd.SetArgs([]string{})
	if err := cmd.Execute(); err != nil {
		t.Fatal(err)
	}
	for _, want := range []string{"restyle version", "commit:", "built:"} {
		if !strings.Contains(buf.String(), want) {
			t.Errorf("output %q missing %q", buf.String(), want)
		}
	}
}

func TestServe_ShutsDownOnCancel(t *testing.T) {
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatal(err)
	}
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() {
		done <- serve(ctx, ln, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			_, _ = io.WriteString(w, "ok")
		}))
	}()

	resp, err := http.Get("http://" + ln.Addr().String() + "/")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	resp.Body.Close()

	cancel()
	select {
	case err := <-done:
		if err != nil {
			t.Fatalf("serve: %v", err)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("server did not stop")
	}
}
