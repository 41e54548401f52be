package app

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	yaml "gopkg.in/yaml.v3"
)

// FileConfig is the single-file configuration schema. Nested sections map
// onto the dotted flag names.
type FileConfig struct {
	Reference string `yaml:"reference" json:"reference"`
	Target    string `yaml:"target" json:"target"`
	Output    string `yaml:"output" json:"output"`
	OutputPDF string `yaml:"outputPDF" json:"outputPDF"`
	Verbose   bool   `yaml:"verbose" json:"verbose"`
	// Manifest, when explicitly false, disables the sidecar manifest.
	Manifest *bool `yaml:"manifest" json:"manifest"`

	LLM struct {
		BaseURL string `yaml:"base" json:"base"`
		Model   string `yaml:"model" json:"model"`
		APIKey  string `yaml:"key" json:"key"`
	} `yaml:"llm" json:"llm"`

	Cache struct {
		Dir         string   `yaml:"dir" json:"dir"`
		MaxAge      Duration `yaml:"maxAge" json:"maxAge"`
		MaxEntries  int      `yaml:"maxEntries" json:"maxEntries"`
		Clear       bool     `yaml:"clear" json:"clear"`
		StrictPerms bool     `yaml:"strictPerms" json:"strictPerms"`
		Disable     bool     `yaml:"disable" json:"disable"`
	} `yaml:"cache" json:"cache"`

	Prompts struct {
		ClassifySystemPrompt     string `yaml:"classifySystemPrompt" json:"classifySystemPrompt"`
		ClassifySystemPromptFile string `yaml:"classifySystemPromptFile" json:"classifySystemPromptFile"`
	} `yaml:"prompts" json:"prompts"`

	Serve struct {
		Addr string `yaml:"addr" json:"addr"`
	} `yaml:"serve" json:"serve"`
}

// Duration accepts Go duration strings ("36h") as well as plain
// nanosecond integers in config files.
type Duration time.Duration

func (d *Duration) parse(s string) error {
	s = strings.TrimSpace(s)
	if s == "" {
		*d = 0
		return nil
	}
	v, err := time.ParseDuration(s)
	if err != nil {
		return fmt.Errorf("invalid duration %q: %w", s, err)
	}
	*d = Duration(v)
	return nil
}

func (d *Duration) UnmarshalYAML(n *yaml.Node) error {
	var ns int64
	if err := n.Decode(&ns); err == nil {
		*d = Duration(ns)
		return nil
	}
	return d.parse(n.Value)
}

func (d *Duration) UnmarshalJSON(b []byte) error {
	var ns int64
	if err := json.Unmarshal(b, &ns); err == nil {
		*d = Duration(ns)
		return nil
	}
	var s string
	if err := json.Unmarshal(b, &s); err != nil {
		return err
	}
	return d.parse(s)
}

// LoadConfigFile reads YAML or JSON into FileConfig. Unknown extensions are
// tried as YAML first, then JSON. A relative prompt file is resolved next to
// the config file.
func LoadConfigFile(path string) (FileConfig, error) {
	var fc FileConfig
	b, err := os.ReadFile(path)
	if err != nil {
		return fc, err
	}
	switch ext := strings.ToLower(filepath.Ext(path)); ext {
	case ".yaml", ".yml":
		if err := yaml.Unmarshal(b, &fc); err != nil {
			return fc, fmt.Errorf("parse yaml: %w", err)
		}
	case ".json":
		if err := json.Unmarshal(b, &fc); err != nil {
			return fc, fmt.Errorf("parse json: %w", err)
		}
	default:
		if err := yaml.Unmarshal(b, &fc); err != nil {
			if jerr := json.Unmarshal(b, &fc); jerr != nil {
				return fc, fmt.Errorf("parse config: %v (yaml) / %v (json)", err, jerr)
			}
		}
	}
	if pf := strings.TrimSpace(fc.Prompts.ClassifySystemPromptFile); pf != "" && fc.Prompts.ClassifySystemPrompt == "" {
		if !filepath.IsAbs(pf) {
			pf = filepath.Join(filepath.Dir(path), pf)
		}
		prompt, err := os.ReadFile(pf)
		if err != nil {
			return fc, fmt.Errorf("read prompt file: %w", err)
		}
		fc.Prompts.ClassifySystemPrompt = strings.TrimSpace(string(prompt))
	}
	return fc, nil
}

// ApplyFileConfig fills fields of cfg that are still unset from fc. Flags
// are parsed first, so explicit flags keep precedence.
func ApplyFileConfig(cfg *Config, fc FileConfig) {
	if cfg == nil {
		return
	}
	setString := func(dst *string, v string) {
		if *dst == "" && v != "" {
			*dst = v
		}
	}
	setString(&cfg.ReferencePath, fc.Reference)
	setString(&cfg.TargetPath, fc.Target)
	setString(&cfg.OutputPath, fc.Output)
	setString(&cfg.OutputPDFPath, fc.OutputPDF)
	if !cfg.Verbose && fc.Verbose {
		cfg.Verbose = true
	}
	if fc.Manifest != nil && !*fc.Manifest {
		cfg.NoManifest = true
	}

	setString(&cfg.LLMBaseURL, fc.LLM.BaseURL)
	setString(&cfg.LLMModel, fc.LLM.Model)
	setString(&cfg.LLMAPIKey, fc.LLM.APIKey)
	setString(&cfg.ClassifySystemPrompt, fc.Prompts.ClassifySystemPrompt)

	setString(&cfg.CacheDir, fc.Cache.Dir)
	if cfg.CacheMaxAge == 0 && fc.Cache.MaxAge > 0 {
		cfg.CacheMaxAge = time.Duration(fc.Cache.MaxAge)
	}
	if cfg.CacheMaxEntries == 0 && fc.Cache.MaxEntries > 0 {
		cfg.CacheMaxEntries = fc.Cache.MaxEntries
	}
	if !cfg.CacheClear && fc.Cache.Clear {
		cfg.CacheClear = true
	}
	if !cfg.CacheStrictPerms && fc.Cache.StrictPerms {
		cfg.CacheStrictPerms = true
	}
	if !cfg.NoCache && fc.Cache.Disable {
		cfg.NoCache = true
	}

	setString(&cfg.ServeAddr, fc.Serve.Addr)
}

// ApplyDefaults fills whatever is still unset after flags, env and file.
func ApplyDefaults(cfg *Config) {
	if cfg == nil {
		return
	}
	if strings.TrimSpace(cfg.OutputPath) == "" {
		cfg.OutputPath = DefaultOutputName
	}
	if strings.TrimSpace(cfg.CacheDir) == "" && !cfg.NoCache {
		cfg.CacheDir = DefaultCacheDir()
	}
	if strings.TrimSpace(cfg.ServeAddr) == "" {
		cfg.ServeAddr = DefaultServeAddr
	}
}

// ValidateConfig checks the settings a transfer run needs.
func ValidateConfig(cfg Config) error {
	if strings.TrimSpace(cfg.ReferencePath) == "" {
		return errors.New("config: reference path is required")
	}
	if strings.TrimSpace(cfg.TargetPath) == "" {
		return errors.New("config: target path is required")
	}
	if strings.TrimSpace(cfg.OutputPath) == "" {
		return errors.New("config: output path is required")
	}
	if samePath(cfg.OutputPath, cfg.TargetPath) || samePath(cfg.OutputPath, cfg.ReferencePath) {
		return errors.New("config: output must not overwrite an input document")
	}
	if cfg.LLMCacheOnly && cfg.NoCache {
		return errors.New("config: cache-only mode needs the cache enabled")
	}
	if cfg.CacheMaxAge < 0 || cfg.CacheMaxEntries < 0 {
		return errors.New("config: negative cache limits are not allowed")
	}
	return nil
}

func samePath(a, b string) bool {
	if strings.TrimSpace(a) == "" || strings.TrimSpace(b) == "" {
		return false
	}
	aa, err1 := filepath.Abs(a)
	bb, err2 := filepath.Abs(b)
	if err1 != nil || err2 != nil {
		return filepath.Clean(a) == filepath.Clean(b)
	}
	return aa == bb
}
