package domain

import "context"

// Generator is the text generation contract. It receives a system
// instruction and a user turn and returns the model output verbatim.
type Generator interface {
	Generate(ctx context.Context, systemPrompt, userPrompt string) (GenerationResult, error)
}

// GenerationResult carries the generated text and token usage.
type GenerationResult struct {
	Text             string
	PromptTokens     int
	CompletionTokens int
}
