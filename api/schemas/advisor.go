// File: api/schemas/advisor.go
package schemas

import "context"

// GenerationOptions tunes a single advisor round trip. Temperature is fixed
// at 0 by callers that need determinism-seeking behavior; the external
// service still makes no hard guarantee.
type GenerationOptions struct {
	Temperature     float32 `json:"temperature"`
	MaxTokens       int     `json:"max_tokens,omitempty"`
	ForceJSONFormat bool    `json:"force_json_format,omitempty"`
}

// GenerationRequest is the narrow contract with the external advice service:
// a fixed system instruction describing the stage's task plus a serialized
// profile as the user prompt. The response is free text expected to usually
// contain a JSON object.
type GenerationRequest struct {
	SystemPrompt string            `json:"system_prompt"`
	UserPrompt   string            `json:"user_prompt"`
	Options      GenerationOptions `json:"options"`
}

// AdvisorClient is implemented by every LLM transport provider.
type AdvisorClient interface {
	GenerateResponse(ctx context.Context, req GenerationRequest) (string, error)
}
