// Package types defines the shared data structures exchanged between the
// Counsel components: chat messages sent to the LLM provider, model
// metadata, and the client-facing turn result.
package types

// MessageRole identifies who authored a chat message.
type MessageRole string

const (
	RoleSystem    MessageRole = "system"
	RoleUser      MessageRole = "user"
	RoleAssistant MessageRole = "assistant"
)

// Message is a single chat message in a completion request.
type Message struct {
	Role    MessageRole `json:"role"`
	Content string      `json:"content"`
}

// NewSystemMessage creates a system-role message.
func NewSystemMessage(content string) *Message {
	return &Message{Role: RoleSystem, Content: content}
}

// NewUserMessage creates a user-role message.
func NewUserMessage(content string) *Message {
	return &Message{Role: RoleUser, Content: content}
}

// NewAssistantMessage creates an assistant-role message.
func NewAssistantMessage(content string) *Message {
	return &Message{Role: RoleAssistant, Content: content}
}

// TokenUsage contains token usage statistics from an LLM API call.
type TokenUsage struct {
	// PromptTokens is the number of tokens in the input/prompt.
	PromptTokens int `json:"prompt_tokens"`

	// CompletionTokens is the number of tokens in the generated completion.
	CompletionTokens int `json:"completion_tokens"`

	// TotalTokens is the total number of tokens used (prompt + completion).
	TotalTokens int `json:"total_tokens"`
}

// ModelInfo describes the LLM model behind a provider.
type ModelInfo struct {
	// Name is the model identifier (e.g. "gpt-4o").
	Name string

	// Provider is the provider family (e.g. "openai").
	Provider string

	// MaxTokens is the model's context window size, when known.
	MaxTokens int

	// Metadata holds provider-specific extras such as a non-default base URL.
	Metadata map[string]interface{}
}
