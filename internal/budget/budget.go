// Package budget estimates whether a classification request fits the
// model's context window and whether the answer fits the response cap.
// Estimates are heuristic; they only drive warnings.
package budget

import (
	"math"
	"strings"
	"unicode/utf8"
)

// charsPerToken is a conservative average for English prose.
const charsPerToken = 4.0

// answerLineOverhead covers the "Text: " echo and the " - heading" label
// around each block in a typical answer.
const answerLineOverhead = 18

// EstimateTokensFromChars converts a character count into an estimated
// token count. The result is at least 1 when chars > 0.
func EstimateTokensFromChars(chars int) int {
	if chars <= 0 {
		return 0
	}
	return int(math.Ceil(float64(chars) / charsPerToken))
}

// EstimateTokens counts runes, so non-ASCII text is not overestimated.
func EstimateTokens(s string) int {
	return EstimateTokensFromChars(utf8.RuneCountInString(s))
}

// EstimatePromptTokens estimates a system plus user message pair.
func EstimatePromptTokens(system, user string) int {
	return EstimateTokens(system) + EstimateTokens(user)
}

// EstimateAnswerTokens estimates an answer that echoes every block on its
// own labeled line.
func EstimateAnswerTokens(texts []string) int {
	chars := 0
	for _, t := range texts {
		chars += utf8.RuneCountInString(t) + answerLineOverhead
	}
	return EstimateTokensFromChars(chars)
}

// ModelContextTokens returns an approximate context window for modelName.
// Unknown models fall back to 8192.
func ModelContextTokens(modelName string) int {
	name := strings.ToLower(strings.TrimSpace(modelName))
	if v, ok := knownModelMax[name]; ok {
		return v
	}
	for _, s := range sizeSuffixes {
		if strings.HasSuffix(name, s.suffix) {
			return s.tokens
		}
	}
	if strings.Contains(name, "-mini") {
		return 128_000
	}
	return 8192
}

// HeadroomTokens is the larger of 5% of the context and 512 tokens, to
// absorb tokenizer and message framing differences.
func HeadroomTokens(modelName string) int {
	dyn := (ModelContextTokens(modelName)*5 + 99) / 100
	if dyn < 512 {
		return 512
	}
	return dyn
}

// Report is the outcome of Check.
type Report struct {
	PromptTokens  int
	AnswerTokens  int
	ContextTokens int
	MaxTokens     int
	// FitsContext is false when prompt, answer cap and headroom exceed the
	// context window.
	FitsContext bool
	// FitsAnswer is false when the expected answer is longer than the
	// answer cap, so trailing blocks will likely fall back to body.
	FitsAnswer bool
}

// Check sizes a request for modelName with the given answer cap.
func Check(modelName string, maxTokens, promptTokens, answerTokens int) Report {
	if maxTokens < 0 {
		maxTokens = 0
	}
	ctx := ModelContextTokens(modelName)
	return Report{
		PromptTokens:  promptTokens,
		AnswerTokens:  answerTokens,
		ContextTokens: ctx,
		MaxTokens:     maxTokens,
		FitsContext:   promptTokens+maxTokens+HeadroomTokens(modelName) <= ctx,
		FitsAnswer:    answerTokens <= maxTokens,
	}
}

var knownModelMax = map[string]int{
	"gpt-4o":             128_000,
	"gpt-4o-mini":        128_000,
	"gpt-4-turbo":        128_000,
	"gpt-4":              8_192,
	"gpt-3.5-turbo":      16_384,
	"gpt-3.5-turbo-16k":  16_384,
	"llama-3":            8_192,
	"llama-3.1":          128_000,
	"openai/gpt-oss-20b": 4_096,
	"gpt-oss-20b":        4_096,
}

var sizeSuffixes = []struct {
	suffix string
	tokens int
}{
	{"1m", 1_000_000},
	{"512k", 512_000},
	{"200k", 200_000},
	{"128k", 128_000},
	{"32k", 32_768},
	{"16k", 16_384},
}
