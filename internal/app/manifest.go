package app

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"os"
	"time"

	"github.com/hyperifyio/restyle/internal/classify"
	"github.com/hyperifyio/restyle/internal/profile"
)

// manifestInput is the digest of one input file.
type manifestInput struct {
	Role   string `json:"role"`
	Path   string `json:"path"`
	SHA256 string `json:"sha256"`
	Bytes  int    `json:"bytes"`
}

// manifestMeta captures run details that aid reproducibility.
type manifestMeta struct {
	Tool        string    `json:"tool"`
	Version     string    `json:"version"`
	Model       string    `json:"model"`
	LLMBaseURL  string    `json:"llm_base_url,omitempty"`
	LLMCache    bool      `json:"llm_cache"`
	GeneratedAt time.Time `json:"generated_at"`
}

// manifestCounts summarizes what was extracted and produced.
type manifestCounts struct {
	Blocks         int `json:"blocks"`
	Headings       int `json:"headings"`
	Body           int `json:"body"`
	HeadingSamples int `json:"heading_samples"`
	BodySamples    int `json:"body_samples"`
	Tables         int `json:"tables"`
}

type manifest struct {
	Meta   manifestMeta    `json:"meta"`
	Inputs []manifestInput `json:"inputs"`
	Counts manifestCounts  `json:"counts"`
}

func computeSHA256Hex(data []byte) string {
	h := sha256.Sum256(data)
	return hex.EncodeToString(h[:])
}

func newManifestInput(role, path string, data []byte) manifestInput {
	return manifestInput{Role: role, Path: path, SHA256: computeSHA256Hex(data), Bytes: len(data)}
}

func countsFor(p profile.StyleProfile, blocks []classify.ContentBlock) manifestCounts {
	h, b := classify.Count(blocks)
	return manifestCounts{
		Blocks:         len(blocks),
		Headings:       h,
		Body:           b,
		HeadingSamples: len(p.Headings),
		BodySamples:    len(p.Paragraphs),
		Tables:         len(p.Tables),
	}
}

func writeManifest(path string, m manifest) error {
	b, err := json.MarshalIndent(m, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(path, append(b, '\n'), 0o644)
}
