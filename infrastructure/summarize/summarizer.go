// Package summarize turns extracted repository context into a structured
// document index and a markdown summary using a Claude model.
package summarize

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/memdocs-io/memdocs/domain/docs"
	"github.com/memdocs-io/memdocs/domain/review"
	"github.com/memdocs-io/memdocs/infrastructure/provider"
	"github.com/memdocs-io/memdocs/internal/config"
)

// Summarizer generates a DocumentIndex and markdown summary for one review
// run. It owns a fixed-window rate limiter; when the budget is exhausted
// Summarize fails hard rather than blocking.
type Summarizer struct {
	generator provider.TextGenerator
	limiter   *provider.RateLimiter
	cfg       config.SummaryConfig
	logger    *slog.Logger
	now       func() time.Time
}

// Option configures a Summarizer.
type Option func(*Summarizer)

// WithGenerator substitutes the text generator.
func WithGenerator(g provider.TextGenerator) Option {
	return func(s *Summarizer) {
		s.generator = g
	}
}

// WithRateLimiter substitutes the call budget.
func WithRateLimiter(l *provider.RateLimiter) Option {
	return func(s *Summarizer) {
		s.limiter = l
	}
}

// WithClock substitutes the timestamp source.
func WithClock(now func() time.Time) Option {
	return func(s *Summarizer) {
		s.now = now
	}
}

// NewSummarizer creates a Summarizer. When no generator is supplied via
// options, an Anthropic provider is constructed from apiKey, falling back
// to ANTHROPIC_API_KEY.
func NewSummarizer(apiKey string, cfg config.SummaryConfig, logger *slog.Logger, opts ...Option) (*Summarizer, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if logger == nil {
		logger = slog.Default()
	}

	s := &Summarizer{
		cfg:    cfg,
		logger: logger,
		now:    time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}

	if s.generator == nil {
		if apiKey == "" {
			apiKey = os.Getenv("ANTHROPIC_API_KEY")
		}
		if apiKey == "" {
			return nil, errors.New("API key is required: set ANTHROPIC_API_KEY or ai.api_key in .memdocs.yml")
		}
		s.generator = provider.NewAnthropicProvider(apiKey, provider.WithAnthropicModel(cfg.Model()))
	}
	if s.limiter == nil {
		s.limiter = provider.NewRateLimiter(config.DefaultRateLimitCalls, config.DefaultRateLimitWindow)
	}

	return s, nil
}

// Summarize sends the extracted context to the model and returns the parsed
// DocumentIndex plus the rendered markdown summary.
func (s *Summarizer) Summarize(ctx context.Context, extracted review.ExtractedContext, scope review.Scope) (docs.DocumentIndex, string, error) {
	if err := s.limiter.Check(); err != nil {
		return docs.DocumentIndex{}, "", fmt.Errorf("summarization: %w", err)
	}

	prompt := buildPrompt(extracted, scope)
	req := provider.NewChatCompletionRequest([]provider.Message{
		provider.SystemMessage(systemPrompt),
		provider.UserMessage(prompt),
	}).WithMaxTokens(s.cfg.MaxTokens())

	resp, err := s.generator.ChatCompletion(ctx, req)
	if err != nil {
		return docs.DocumentIndex{}, "", fmt.Errorf("summarization request: %w", err)
	}

	index, err := parseResponse(resp.Content(), extracted, scope, s.now().UTC())
	if err != nil {
		return docs.DocumentIndex{}, "", err
	}

	s.logger.Debug("summarization complete",
		"doc_id", index.DocID(),
		"features", len(index.Features()),
		"tokens", resp.Usage().TotalTokens(),
		"remaining_calls", s.limiter.Remaining(),
	)

	return index, renderMarkdown(index, extracted.Diff()), nil
}

// Remaining returns how many model calls are left in the current window.
func (s *Summarizer) Remaining() int { return s.limiter.Remaining() }
