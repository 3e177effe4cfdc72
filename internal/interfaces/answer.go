package interfaces

import "context"

// AnswerRequest is one user question routed through a flow.
type AnswerRequest struct {
	UserID           string
	Flow             string
	Text             string
	MediaURL         string
	ExtractedContent string
}

// AnswerResult carries the produced text plus how it was produced.
type AnswerResult struct {
	Text   string
	Cached bool
	// Success is false when the text is the fixed fallback message.
	Success bool
}

// AnswerOrchestrator turns a classified message into response text, using
// the cache, federated grounding and the model provider.
type AnswerOrchestrator interface {
	Answer(ctx context.Context, req AnswerRequest) AnswerResult
}
