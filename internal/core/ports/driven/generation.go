package driven

import "context"

// GenerationProvider produces an answer from a system prompt and a user message.
// The answer service tries providers in order until one succeeds.
//
// Implementations include:
//   - OpenAI (chat completions)
//   - Gemini (generateContent)
//   - Anthropic (messages)
type GenerationProvider interface {
	// Name identifies the provider in logs, metrics and results.
	Name() string

	// Generate returns the model's answer text.
	Generate(ctx context.Context, req GenerationRequest) (string, error)

	// Close releases resources.
	Close() error
}

// GenerationRequest is a single-turn generation call.
type GenerationRequest struct {
	// System is the system instruction.
	System string

	// Prompt is the user message: context, user facts and the question.
	Prompt string

	// Temperature controls randomness (0.0 = deterministic).
	Temperature float64

	// MaxTokens caps the answer length. Zero means provider default.
	MaxTokens int
}
