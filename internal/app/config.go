package app

import "time"

// DefaultOutputName is the file name used for the formatted document when
// no output path is given.
const DefaultOutputName = "formatted_document.docx"

// Config holds runtime configuration for a style transfer run.
type Config struct {
	// ReferencePath is a .docx whose styling is copied, or a saved profile
	// (.yaml, .yml, .json).
	ReferencePath string
	// TargetPath is the .docx whose content is reformatted.
	TargetPath    string
	OutputPath    string
	OutputPDFPath string
	// NoManifest suppresses the <output>.manifest.json sidecar.
	NoManifest bool

	// LLM
	LLMBaseURL string
	LLMModel   string
	LLMAPIKey  string
	// ClassifySystemPrompt overrides the classifier's system message.
	ClassifySystemPrompt string

	// Cache
	CacheDir         string
	CacheMaxAge      time.Duration
	CacheMaxEntries  int
	CacheClear       bool
	CacheStrictPerms bool
	// NoCache disables the classification cache entirely.
	NoCache bool
	// LLMCacheOnly answers from the cache and fails on a miss.
	LLMCacheOnly bool

	// ServeAddr is the listen address of the HTTP surface.
	ServeAddr string

	Verbose bool
}
