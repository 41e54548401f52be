// Package app wires configuration, document I/O, the classifier and the
// synthesizer into a single style transfer run.
package app

import (
	"bytes"
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/rs/zerolog/log"
	"golang.org/x/sync/errgroup"

	"github.com/hyperifyio/restyle/internal/cache"
	"github.com/hyperifyio/restyle/internal/classify"
	"github.com/hyperifyio/restyle/internal/docx"
	"github.com/hyperifyio/restyle/internal/llm"
	"github.com/hyperifyio/restyle/internal/profile"
	"github.com/hyperifyio/restyle/internal/render"
	"github.com/hyperifyio/restyle/internal/synth"
)

// Input is one document handed to Transform. Name decides whether a
// reference is a saved profile (.yaml, .yml, .json) or a .docx.
type Input struct {
	Name string
	Data []byte
}

// Result is the outcome of a transfer.
type Result struct {
	Document *docx.Document
	Profile  profile.StyleProfile
	Blocks   []classify.ContentBlock
}

type App struct {
	cfg   Config
	ai    llm.Client
	cache *cache.LLMCache
	synth *synth.Synthesizer
}

// New prepares the cache and oracle client for cfg. The model list
// preflight is best-effort and only logs.
func New(ctx context.Context, cfg Config) (*App, error) {
	a := &App{cfg: cfg, synth: &synth.Synthesizer{}}
	if !cfg.LLMCacheOnly {
		a.ai = llm.NewOpenAIProvider(llm.Options{BaseURL: cfg.LLMBaseURL, APIKey: cfg.LLMAPIKey})
	}

	if !cfg.NoCache && strings.TrimSpace(cfg.CacheDir) != "" {
		if cfg.CacheClear {
			if err := cache.ClearDir(cfg.CacheDir); err != nil {
				log.Warn().Err(err).Str("dir", cfg.CacheDir).Msg("cache clear failed")
			}
		}
		if n, err := cache.PurgeByAge(cfg.CacheDir, cfg.CacheMaxAge); err != nil {
			log.Warn().Err(err).Msg("cache purge failed")
		} else if n > 0 {
			log.Debug().Int("removed", n).Msg("purged expired cache entries")
		}
		if n, err := cache.EnforceLimits(cfg.CacheDir, 0, cfg.CacheMaxEntries); err != nil {
			log.Warn().Err(err).Msg("cache limit enforcement failed")
		} else if n > 0 {
			log.Debug().Int("removed", n).Msg("evicted cache entries")
		}
		a.cache = &cache.LLMCache{Dir: cfg.CacheDir, StrictPerms: cfg.CacheStrictPerms}
	}

	if lister, ok := a.ai.(llm.ModelLister); ok {
		pctx, cancel := context.WithTimeout(ctx, 5*time.Second)
		defer cancel()
		models, err := lister.ListModels(pctx)
		switch {
		case err != nil:
			log.Warn().Err(err).Msg("LLM model list failed; continuing")
		case len(models.Models) == 0:
			log.Warn().Msg("LLM returned zero models")
		default:
			log.Info().Int("count", len(models.Models)).Msg("LLM models available")
		}
	}
	return a, nil
}

func (a *App) Close() {}

func (a *App) classifier(client llm.Client, scope string) *classify.Classifier {
	return &classify.Classifier{
		Client:       client,
		Model:        a.model(),
		SystemPrompt: a.cfg.ClassifySystemPrompt,
		Cache:        a.cache,
		CacheScope:   scope,
		CacheOnly:    a.cfg.LLMCacheOnly,
	}
}

func (a *App) model() string {
	if m := strings.TrimSpace(a.cfg.LLMModel); m != "" {
		return m
	}
	return llm.DefaultModel
}

// Transform runs the full pipeline in memory with the configured client.
func (a *App) Transform(ctx context.Context, reference, target Input) (Result, error) {
	return a.transform(ctx, a.classifier(a.ai, ""), reference, target)
}

// TransformDocx runs the pipeline for the HTTP surface. A non-empty apiKey
// replaces the configured credential for this call only, and cached answers
// are then scoped to that credential.
func (a *App) TransformDocx(ctx context.Context, apiKey string, reference, target []byte) ([]byte, error) {
	c := a.classifier(a.ai, "")
	if key := strings.TrimSpace(apiKey); key != "" && !a.cfg.LLMCacheOnly {
		c = a.classifier(llm.NewOpenAIProvider(llm.Options{BaseURL: a.cfg.LLMBaseURL, APIKey: key}), credentialScope(key))
	}
	res, err := a.transform(ctx, c, Input{Name: "reference.docx", Data: reference}, Input{Name: "target.docx", Data: target})
	if err != nil {
		return nil, err
	}
	return res.Document.Bytes()
}

// credentialScope names the cache partition of an API key without storing
// the key itself.
func credentialScope(apiKey string) string {
	h := sha256.Sum256([]byte(apiKey))
	return "key:" + hex.EncodeToString(h[:8])
}

func (a *App) transform(ctx context.Context, c *classify.Classifier, reference, target Input) (Result, error) {
	var (
		res    Result
		blocks []classify.ContentBlock
	)
	g, _ := errgroup.WithContext(ctx)
	g.Go(func() error {
		p, err := loadProfile(reference)
		if err != nil {
			return fmt.Errorf("reference %s: %w", reference.Name, err)
		}
		res.Profile = p
		return nil
	})
	g.Go(func() error {
		doc, err := docx.Open(target.Data)
		if err != nil {
			return fmt.Errorf("target %s: %w", target.Name, err)
		}
		blocks = classify.BlocksFromDocument(doc)
		return nil
	})
	if err := g.Wait(); err != nil {
		return Result{}, err
	}
	log.Debug().Str("stage", "load").
		Int("blocks", len(blocks)).
		Int("heading_samples", len(res.Profile.Headings)).
		Int("body_samples", len(res.Profile.Paragraphs)).
		Msg("inputs loaded")

	classified, err := c.Classify(ctx, blocks)
	if err != nil {
		return Result{}, err
	}
	res.Blocks = classified

	doc, err := a.synth.Synthesize(classified, res.Profile)
	if err != nil {
		return Result{}, fmt.Errorf("synthesize: %w", err)
	}
	res.Document = doc
	return res, nil
}

func loadProfile(in Input) (profile.StyleProfile, error) {
	if profile.IsProfilePath(in.Name) {
		format := profile.FormatYAML
		if strings.EqualFold(filepath.Ext(in.Name), ".json") {
			format = profile.FormatJSON
		}
		return profile.Decode(in.Data, format)
	}
	doc, err := docx.Open(in.Data)
	if err != nil {
		return profile.StyleProfile{}, err
	}
	return profile.Extract(doc)
}

// Run reads the configured inputs, transforms them and writes the output
// document plus optional PDF preview and manifest. Nothing is written when
// any stage fails.
func (a *App) Run(ctx context.Context) error {
	if err := ValidateConfig(a.cfg); err != nil {
		return err
	}
	refData, err := os.ReadFile(a.cfg.ReferencePath)
	if err != nil {
		return fmt.Errorf("read reference: %w", err)
	}
	targetData, err := os.ReadFile(a.cfg.TargetPath)
	if err != nil {
		return fmt.Errorf("read target: %w", err)
	}

	res, err := a.Transform(ctx,
		Input{Name: a.cfg.ReferencePath, Data: refData},
		Input{Name: a.cfg.TargetPath, Data: targetData})
	if err != nil {
		return err
	}

	var buf bytes.Buffer
	if err := res.Document.Save(&buf); err != nil {
		return fmt.Errorf("encode output: %w", err)
	}
	if err := writeFileAtomic(a.cfg.OutputPath, buf.Bytes()); err != nil {
		return fmt.Errorf("write output: %w", err)
	}
	h, b := classify.Count(res.Blocks)
	log.Info().Str("out", a.cfg.OutputPath).Int("headings", h).Int("body", b).Msg("wrote formatted document")

	if p := strings.TrimSpace(a.cfg.OutputPDFPath); p != "" {
		if err := render.WritePDFFile(p, res.Document); err != nil {
			log.Warn().Err(err).Str("pdf", p).Msg("PDF preview failed")
		} else {
			log.Info().Str("pdf", p).Msg("wrote PDF preview")
		}
	}

	if !a.cfg.NoManifest {
		m := manifest{
			Meta: manifestMeta{
				Tool:        AppName,
				Version:     Version(),
				Model:       a.model(),
				LLMBaseURL:  a.cfg.LLMBaseURL,
				LLMCache:    a.cache != nil,
				GeneratedAt: time.Now().UTC(),
			},
			Inputs: []manifestInput{
				newManifestInput("reference", a.cfg.ReferencePath, refData),
				newManifestInput("target", a.cfg.TargetPath, targetData),
			},
			Counts: countsFor(res.Profile, res.Blocks),
		}
		if err := writeManifest(manifestPath(a.cfg.OutputPath), m); err != nil {
			log.Warn().Err(err).Msg("manifest write failed")
		}
	}
	return nil
}

// ExtractProfile loads a reference document or saved profile from path.
func ExtractProfile(path string) (profile.StyleProfile, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return profile.StyleProfile{}, err
	}
	p, err := loadProfile(Input{Name: path, Data: data})
	if err != nil {
		return p, fmt.Errorf("reference %s: %w", path, err)
	}
	return p, nil
}

func writeFileAtomic(path string, data []byte) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return err
	}
	tmp, err := os.CreateTemp(dir, "."+filepath.Base(path)+".*.tmp")
	if err != nil {
		return err
	}
	name := tmp.Name()
	_, werr := tmp.Write(data)
	cerr := tmp.Close()
	if err := errors.Join(werr, cerr); err != nil {
		_ = os.Remove(name)
		return err
	}
	if err := os.Chmod(name, 0o644); err != nil {
		_ = os.Remove(name)
		return err
	}
	return os.Rename(name, path)
}
