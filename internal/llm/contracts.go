package llm

import "context"

// Chat roles as carried on the wire.
const (
	RoleSystem    = "system"
	RoleUser      = "user"
	RoleAssistant = "assistant"
)

// Message is one turn of a conversation.
type Message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// Usage reports token consumption for one completion, as far as the backend
// exposes it.
type Usage struct {
	PromptTokens     int `json:"promptTokens"`
	CompletionTokens int `json:"completionTokens"`
	TotalTokens      int `json:"totalTokens"`
}

// Completer produces one assistant reply for a conversation. Implementations
// are safe for concurrent use.
type Completer interface {
	Complete(ctx context.Context, messages []Message) (string, Usage, error)
}
