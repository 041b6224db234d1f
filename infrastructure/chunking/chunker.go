// Package chunking splits document text into token-bounded, overlapping
// chunks for embedding.
package chunking

import (
	"fmt"
	"strings"

	"github.com/pkoukk/tiktoken-go"
)

// encodingName is the tiktoken encoding used for token counting.
const encodingName = "cl100k_base"

// TokenParams configures the chunking window.
type TokenParams struct {
	MaxTokens int
	Overlap   int
}

// DefaultTokenParams returns the default window for embedding models
// with a 512 token input limit.
func DefaultTokenParams() TokenParams {
	return TokenParams{
		MaxTokens: 512,
		Overlap:   50,
	}
}

// TokenChunker splits text into chunks of at most MaxTokens tokens,
// overlapping adjacent chunks by Overlap tokens. Token counts are exact:
// the full text is tokenized once and windows are decoded back to text,
// so every chunk is guaranteed to fit the window.
type TokenChunker struct {
	encoding *tiktoken.Tiktoken
	params   TokenParams
}

// NewTokenChunker creates a TokenChunker. It fails when overlap is not
// smaller than the window, or when the token encoding cannot be loaded.
func NewTokenChunker(params TokenParams) (*TokenChunker, error) {
	if params.MaxTokens <= 0 {
		return nil, fmt.Errorf("max tokens (%d) must be positive", params.MaxTokens)
	}
	if params.Overlap < 0 || params.Overlap >= params.MaxTokens {
		return nil, fmt.Errorf("overlap (%d) must be in [0, max tokens %d)", params.Overlap, params.MaxTokens)
	}

	encoding, err := tiktoken.GetEncoding(encodingName)
	if err != nil {
		return nil, fmt.Errorf("load token encoding %s: %w", encodingName, err)
	}

	return &TokenChunker{
		encoding: encoding,
		params:   params,
	}, nil
}

// Params returns the configured window.
func (c *TokenChunker) Params() TokenParams { return c.params }

// CountTokens returns the exact token count of text.
func (c *TokenChunker) CountTokens(text string) int {
	return len(c.encoding.Encode(text, nil, nil))
}

// Chunk splits text into chunk strings. Empty and whitespace-only input
// yields no chunks; input within the window yields a single chunk equal
// to the trimmed input. A trailing window that would carry no tokens
// beyond the overlap is dropped.
func (c *TokenChunker) Chunk(text string) []string {
	trimmed := strings.TrimSpace(text)
	if trimmed == "" {
		return nil
	}

	tokens := c.encoding.Encode(trimmed, nil, nil)
	if len(tokens) <= c.params.MaxTokens {
		return []string{trimmed}
	}

	step := c.params.MaxTokens - c.params.Overlap
	var chunks []string
	for start := 0; start < len(tokens); start += step {
		end := min(start+c.params.MaxTokens, len(tokens))
		window := tokens[start:end]
		if start > 0 && len(window) <= c.params.Overlap {
			break
		}
		chunks = append(chunks, c.encoding.Decode(window))
	}
	return chunks
}
