package main

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"github.com/hyperifyio/restyle/internal/app"
)

// options holds every flag value. Only flags the user actually set are
// copied into app.Config, so env and config file values survive defaults.
type options struct {
	configPath string
	envFiles   []string
	verbose    bool

	llmBase  string
	llmModel string
	llmKey   string

	cacheDir        string
	cacheMaxAge     time.Duration
	cacheMaxEntries int
	cacheClear      bool
	cacheStrict     bool
	noCache         bool
	cacheOnly       bool

	reference        string
	target           string
	output           string
	outputPDF        string
	noManifest       bool
	systemPrompt     string
	systemPromptFile string

	addr string
}

// NewRootCmd creates the root command. Invoked without a subcommand it runs
// a transfer.
func NewRootCmd() *cobra.Command {
	return newRootCmd(&options{})
}

func newRootCmd(o *options) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "restyle",
		Short: "Rebuild a Word document with the look of a reference document",
		Long: `restyle reads the heading and body styling of a reference .docx, asks a
language model which paragraphs of a second .docx are headings, and writes a
new document with the target's text in the reference's styling.

Any OpenAI-compatible endpoint works; answers are cached on disk so repeated
runs over the same document do not call the model again.`,
		Version:       app.Version(),
		SilenceUsage:  true,
		SilenceErrors: true,
		Args:          cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runTransfer(cmd, o)
		},
	}

	pf := cmd.PersistentFlags()
	pf.StringVarP(&o.configPath, "config", "c", "", "Config file (YAML or JSON); defaults to "+app.DefaultConfigFile()+" when present")
	pf.StringSliceVar(&o.envFiles, "env", append([]string(nil), app.DefaultEnvFiles...), "Dotenv files loaded before reading the environment")
	pf.BoolVarP(&o.verbose, "verbose", "v", false, "Verbose logging")
	pf.StringVar(&o.llmBase, "llm.base", "", "OpenAI-compatible base URL (env LLM_BASE_URL)")
	pf.StringVar(&o.llmModel, "llm.model", "", "Model name (env LLM_MODEL)")
	pf.StringVar(&o.llmKey, "llm.key", "", "API key (env LLM_API_KEY or OPENAI_API_KEY)")
	pf.StringVar(&o.cacheDir, "cache.dir", "", "Classification cache directory")
	pf.DurationVar(&o.cacheMaxAge, "cache.maxAge", 0, "Purge cache entries older than this (e.g. 72h); 0 disables")
	pf.IntVar(&o.cacheMaxEntries, "cache.maxEntries", 0, "Keep at most this many cache entries; 0 disables")
	pf.BoolVar(&o.cacheClear, "cache.clear", false, "Clear the cache before running")
	pf.BoolVar(&o.cacheStrict, "cache.strictPerms", false, "Restrict cache permissions (0700 dirs, 0600 files)")
	pf.BoolVar(&o.noCache, "cache.disable", false, "Do not read or write the classification cache")
	pf.BoolVar(&o.cacheOnly, "llm.cacheOnly", false, "Answer from the cache only and fail on a miss")

	addTransferFlags(cmd.Flags(), o)

	cmd.AddCommand(newTransferCmd(o))
	cmd.AddCommand(newProfileCmd(o))
	cmd.AddCommand(newServeCmd(o))
	cmd.AddCommand(NewVersionCmd())
	return cmd
}

// buildConfig resolves configuration with precedence flags > env > config
// file > defaults.
func buildConfig(cmd *cobra.Command, o *options) (app.Config, error) {
	var cfg app.Config
	if err := app.LoadEnvFiles(o.envFiles...); err != nil {
		return cfg, fmt.Errorf("load env files: %w", err)
	}

	path := strings.TrimSpace(o.configPath)
	if path == "" {
		if def := app.DefaultConfigFile(); fileExists(def) {
			path = def
		}
	}
	if path != "" {
		fc, err := app.LoadConfigFile(path)
		if err != nil {
			return cfg, fmt.Errorf("config %s: %w", path, err)
		}
		app.ApplyFileConfig(&cfg, fc)
	}

	app.ApplyEnvOverrides(&cfg)
	if err := o.applyFlags(cmd.Flags(), &cfg); err != nil {
		return cfg, err
	}
	app.ApplyDefaults(&cfg)

	if cfg.Verbose {
		zerolog.SetGlobalLevel(zerolog.DebugLevel)
	} else {
		zerolog.SetGlobalLevel(zerolog.InfoLevel)
	}
	return cfg, nil
}

func (o *options) applyFlags(fs *pflag.FlagSet, cfg *app.Config) error {
	changed := func(name string) bool {
		f := fs.Lookup(name)
		return f != nil && f.Changed
	}
	strs := []struct {
		name string
		src  string
		dst  *string
	}{
		{"llm.base", o.llmBase, &cfg.LLMBaseURL},
		{"llm.model", o.llmModel, &cfg.LLMModel},
		{"llm.key", o.llmKey, &cfg.LLMAPIKey},
		{"cache.dir", o.cacheDir, &cfg.CacheDir},
		{"reference", o.reference, &cfg.ReferencePath},
		{"target", o.target, &cfg.TargetPath},
		{"output", o.output, &cfg.OutputPath},
		{"output.pdf", o.outputPDF, &cfg.OutputPDFPath},
		{"classify.systemPrompt", o.systemPrompt, &cfg.ClassifySystemPrompt},
		{"addr", o.addr, &cfg.ServeAddr},
	}
	for _, s := range strs {
		if changed(s.name) {
			*s.dst = s.src
		}
	}
	bools := []struct {
		name string
		src  bool
		dst  *bool
	}{
		{"verbose", o.verbose, &cfg.Verbose},
		{"cache.clear", o.cacheClear, &cfg.CacheClear},
		{"cache.strictPerms", o.cacheStrict, &cfg.CacheStrictPerms},
		{"cache.disable", o.noCache, &cfg.NoCache},
		{"llm.cacheOnly", o.cacheOnly, &cfg.LLMCacheOnly},
		{"no-manifest", o.noManifest, &cfg.NoManifest},
	}
	for _, b := range bools {
		if changed(b.name) {
			*b.dst = b.src
		}
	}
	if changed("cache.maxAge") {
		cfg.CacheMaxAge = o.cacheMaxAge
	}
	if changed("cache.maxEntries") {
		cfg.CacheMaxEntries = o.cacheMaxEntries
	}
	if changed("classify.systemPromptFile") && strings.TrimSpace(o.systemPromptFile) != "" {
		b, err := os.ReadFile(o.systemPromptFile)
		if err != nil {
			return fmt.Errorf("read prompt file: %w", err)
		}
		cfg.ClassifySystemPrompt = strings.TrimSpace(string(b))
	}
	return nil
}

func fileExists(path string) bool {
	st, err := os.Stat(path)
	return err == nil && !st.IsDir()
}
