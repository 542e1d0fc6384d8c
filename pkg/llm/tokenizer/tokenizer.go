// Package tokenizer provides token counting for prompt budgeting and
// transparency statistics, backed by tiktoken.
package tokenizer

import (
	"fmt"
	"sync"

	"github.com/pkoukk/tiktoken-go"
)

// defaultEncoding is used when a model has no registered encoding. cl100k_base
// covers the gpt-4 family and is a close enough approximation for budgeting.
const defaultEncoding = "cl100k_base"

// Tokenizer counts tokens for a specific model encoding.
// It is safe for concurrent use.
type Tokenizer struct {
	enc *tiktoken.Tiktoken
}

var (
	sharedOnce sync.Once
	shared     *Tokenizer
	sharedErr  error
)

// New creates a tokenizer for the given model, falling back to the default
// encoding when the model is unknown to tiktoken.
func New(model string) (*Tokenizer, error) {
	enc, err := tiktoken.EncodingForModel(model)
	if err != nil {
		enc, err = tiktoken.GetEncoding(defaultEncoding)
		if err != nil {
			return nil, fmt.Errorf("tokenizer: init encoding: %w", err)
		}
	}
	return &Tokenizer{enc: enc}, nil
}

// Shared returns a process-wide tokenizer on the default encoding,
// initialized once. Useful for callers that only need rough counts and do
// not care about per-model differences.
func Shared() (*Tokenizer, error) {
	sharedOnce.Do(func() {
		enc, err := tiktoken.GetEncoding(defaultEncoding)
		if err != nil {
			sharedErr = fmt.Errorf("tokenizer: init shared encoding: %w", err)
			return
		}
		shared = &Tokenizer{enc: enc}
	})
	return shared, sharedErr
}

// Count returns the number of tokens in text.
func (t *Tokenizer) Count(text string) int {
	if text == "" {
		return 0
	}
	return len(t.enc.Encode(text, nil, nil))
}

// CountAll returns the total token count across all texts.
func (t *Tokenizer) CountAll(texts ...string) int {
	total := 0
	for _, text := range texts {
		total += t.Count(text)
	}
	return total
}
