// Package llm provides abstractions for LLM provider integration.
//
// Example usage:
//
//	provider, err := openai.NewProvider(
//	    os.Getenv("OPENAI_API_KEY"),
//	    openai.WithModel("gpt-4o"),
//	)
//	if err != nil {
//	    log.Fatal(err)
//	}
//
//	resp, err := provider.Complete(ctx, []*types.Message{
//	    types.NewSystemMessage(systemPrompt),
//	    types.NewUserMessage("Hello!"),
//	})
//	if err != nil {
//	    log.Fatal(err)
//	}
//	fmt.Println(resp.Content)
package llm

import (
	"context"

	"github.com/lexhq/counsel/pkg/types"
)

// GenerationResponse is the full reply from one completion call.
type GenerationResponse struct {
	// Content is the raw free-text reply from the model.
	Content string

	// Model is the model identifier that produced the reply, as reported
	// by the backend.
	Model string

	// FinishReason reports why generation stopped ("stop", "length", ...).
	FinishReason string

	// Usage carries token counts when the backend reports them.
	Usage *types.TokenUsage
}

// Provider defines the interface for LLM integrations.
//
// Providers handle API communication with LLM services and nothing else.
// This design keeps providers focused on LLM concerns without coupling them
// to turn orchestration, which allows them to be:
// - Reusable in non-orchestrator contexts (CLI tools, batch processing, etc.)
// - Testable independently of orchestration logic
// - Simpler to implement and maintain
type Provider interface {
	// Complete sends messages to the LLM and returns the full response.
	//
	// Returns an error on any transport or API fault; the orchestrator is
	// responsible for degrading such faults into advisory turn responses.
	Complete(ctx context.Context, messages []*types.Message) (*GenerationResponse, error)

	// GetModelInfo returns information about the LLM model being used.
	GetModelInfo() *types.ModelInfo

	// GetModel returns the model name being used.
	GetModel() string

	// GetBaseURL returns the base URL being used for API requests.
	GetBaseURL() string

	// GetAPIKey returns the API key being used for authentication.
	GetAPIKey() string
}

// ModelCloner is an optional interface that providers can implement to
// support lightweight per-call model overrides without constructing a full
// second provider. The returned provider shares credentials and transport
// with the original but directs calls to the given model.
type ModelCloner interface {
	CloneWithModel(model string) Provider
}
