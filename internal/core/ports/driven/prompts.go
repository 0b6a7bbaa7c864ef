package driven

// PromptStore provides access to prompt templates.
// Implementations may load prompts from files or embed them in the binary.
type PromptStore interface {
	// Load returns the prompt template for the given name.
	Load(name string) (string, error)

	// Reload clears any cached prompts, forcing fresh loads on next access.
	Reload()
}

// Well-known prompt names.
const (
	// PromptAnswerSystem is the system instruction for grounded answers.
	// The template expects a %s placeholder for the answer language name.
	PromptAnswerSystem = "answer_system"

	// PromptFallbackPrefix prefixes the per-language no-match answer,
	// e.g. "fallback_sr". The template expects a %s placeholder for the URL.
	PromptFallbackPrefix = "fallback_"
)
