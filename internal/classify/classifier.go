package classify

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/rs/zerolog/log"
	openai "github.com/sashabaranov/go-openai"

	"github.com/hyperifyio/restyle/internal/budget"
	"github.com/hyperifyio/restyle/internal/cache"
	"github.com/hyperifyio/restyle/internal/llm"
)

var (
	// ErrOracleCall marks any failure to obtain an answer from the model.
	// The whole run is aborted; no blocks are returned.
	ErrOracleCall = errors.New("classification request failed")
	// ErrCacheMiss is wrapped with ErrOracleCall in cache-only mode.
	ErrCacheMiss = errors.New("no cached classification")
	// ErrNotConfigured is wrapped with ErrOracleCall when no client is set
	// outside cache-only mode.
	ErrNotConfigured = errors.New("classifier not configured")
)

// DefaultMaxTokens caps the model's answer.
const DefaultMaxTokens = 1500

// Classifier assigns heading/body roles to blocks with one model request.
type Classifier struct {
	Client llm.Client
	// Model defaults to llm.DefaultModel.
	Model string
	// MaxTokens defaults to DefaultMaxTokens.
	MaxTokens int
	// SystemPrompt, when non-empty, overrides DefaultSystemPrompt.
	SystemPrompt string
	Cache        *cache.LLMCache
	// CacheScope partitions cache entries, e.g. by credential, so an answer
	// saved under one scope is never served to another.
	CacheScope string
	// CacheOnly answers from Cache and fails with ErrCacheMiss otherwise.
	CacheOnly bool
	// Matcher defaults to LineMatcher{}.
	Matcher Matcher
}

type cachedAnswer struct {
	Content string `json:"content"`
}

// Classify returns a copy of blocks with roles set. Zero blocks return an
// empty result without contacting the model.
func (c *Classifier) Classify(ctx context.Context, blocks []ContentBlock) ([]ContentBlock, error) {
	if len(blocks) == 0 {
		return []ContentBlock{}, nil
	}
	model := strings.TrimSpace(c.Model)
	if model == "" {
		model = llm.DefaultModel
	}
	system := DefaultSystemPrompt
	if strings.TrimSpace(c.SystemPrompt) != "" {
		system = c.SystemPrompt
	}
	user := BuildUserPrompt(blocks)

	answer, err := c.answer(ctx, model, system, user, blocks)
	if err != nil {
		return nil, err
	}

	matcher := c.Matcher
	if matcher == nil {
		matcher = LineMatcher{}
	}
	roles := matcher.Match(answer, blocks)
	out := make([]ContentBlock, len(blocks))
	for i, b := range blocks {
		out[i] = ContentBlock{Text: b.Text, Role: RoleBody}
		if i < len(roles) {
			out[i].Role = roles[i]
		}
	}
	h, body := Count(out)
	log.Debug().Str("stage", "classify").Str("model", model).
		Int("blocks", len(out)).Int("headings", h).Int("body", body).
		Msg("classified blocks")
	return out, nil
}

func (c *Classifier) answer(ctx context.Context, model, system, user string, blocks []ContentBlock) (string, error) {
	prompt := system + "\n\n" + user
	if c.CacheScope != "" {
		prompt = c.CacheScope + "\n\n" + prompt
	}
	key := cache.KeyFrom(model, prompt)
	if c.Cache != nil {
		if raw, ok, _ := c.Cache.Get(ctx, key); ok {
			var a cachedAnswer
			if err := json.Unmarshal(raw, &a); err == nil {
				log.Debug().Str("stage", "classify").Str("model", model).Msg("classification cache hit")
				return a.Content, nil
			}
		}
	}
	if c.CacheOnly {
		return "", fmt.Errorf("%w: %w", ErrOracleCall, ErrCacheMiss)
	}
	if c.Client == nil {
		return "", fmt.Errorf("%w: %w", ErrOracleCall, ErrNotConfigured)
	}

	maxTokens := c.MaxTokens
	if maxTokens <= 0 {
		maxTokens = DefaultMaxTokens
	}
	c.checkBudget(model, maxTokens, system, user, blocks)
	req := openai.ChatCompletionRequest{
		Model: model,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleSystem, Content: system},
			{Role: openai.ChatMessageRoleUser, Content: user},
		},
		MaxTokens: maxTokens,
	}
	log.Debug().Str("stage", "classify").Str("model", model).
		Int("prompt_chars", len(user)).Int("max_tokens", maxTokens).
		Msg("requesting classification")
	resp, err := c.Client.CreateChatCompletion(ctx, req)
	if err != nil {
		return "", fmt.Errorf("%w: %w", ErrOracleCall, err)
	}
	content, ok := llm.FirstContent(resp)
	if !ok {
		log.Warn().Str("stage", "classify").Msg("model returned no choices; treating every block as body")
	}
	if c.Cache != nil {
		payload, _ := json.Marshal(cachedAnswer{Content: content})
		if err := c.Cache.Save(ctx, key, payload); err != nil {
			log.Warn().Err(err).Msg("classification cache save failed")
		}
	}
	return content, nil
}

// checkBudget warns when the request is unlikely to fit the model. The
// request is sent regardless.
func (c *Classifier) checkBudget(model string, maxTokens int, system, user string, blocks []ContentBlock) {
	texts := make([]string, len(blocks))
	for i, b := range blocks {
		texts[i] = b.Text
	}
	r := budget.Check(model, maxTokens, budget.EstimatePromptTokens(system, user), budget.EstimateAnswerTokens(texts))
	if !r.FitsContext {
		log.Warn().Str("stage", "classify").Str("model", model).
			Int("prompt_tokens", r.PromptTokens).Int("context_tokens", r.ContextTokens).
			Msg("document may exceed the model context window")
	}
	if !r.FitsAnswer {
		log.Warn().Str("stage", "classify").Str("model", model).
			Int("answer_tokens", r.AnswerTokens).Int("max_tokens", r.MaxTokens).
			Msg("answer may be truncated; trailing blocks may be misclassified")
	}
}
