package interfaces

import "context"

// ChatMessage is a single entry in a provider-agnostic chat transcript.
type ChatMessage struct {
	// Role is "user" or "assistant"
	Role    string
	Content string
}

// ChatRequest carries one complete prompt. The same request shape is handed
// to every provider; the factory translates it into provider wire formats.
type ChatRequest struct {
	// Model selects the provider by prefix (claude-*, gemini-*)
	Model string

	// SystemPrompt holds instructions plus the grounding context block
	SystemPrompt string

	Messages []ChatMessage

	MaxTokens   int
	Temperature float32
}

// ChatResponse is a successful completion.
type ChatResponse struct {
	Text  string
	Model string
}

// ChatClient generates completions. Implementations handle their own
// transient retry; a returned error means the call is not worth repeating
// at this layer.
type ChatClient interface {
	GenerateContent(ctx context.Context, req *ChatRequest) (*ChatResponse, error)
}
