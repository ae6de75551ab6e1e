package domain

// ProviderAWSBedrock is the provider name accepted by the dispatch table for
// Anthropic models hosted on AWS Bedrock.
const ProviderAWSBedrock = "aws_bedrock"

type Message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// ChatPayload is the Anthropic-on-Bedrock request body. Optional fields are
// pointers so that "not provided" (nil) stays distinguishable from zero
// values the caller sent on purpose.
type ChatPayload struct {
	AnthropicVersion string    `json:"anthropic_version"`
	Messages         []Message `json:"messages"`
	MaxTokens        *int      `json:"max_tokens,omitempty"`
	Temperature      *float64  `json:"temperature,omitempty"`
	TopP             *float64  `json:"top_p,omitempty"`
	TopK             *int      `json:"top_k,omitempty"`
	StopSequences    *[]string `json:"stop_sequences,omitempty"`
	Streaming        *bool     `json:"streaming,omitempty"`
	GuardrailID      *string   `json:"guardrail_id,omitempty"`
	GuardrailVersion *string   `json:"guardrail_version,omitempty"`
}

// Fields flattens the payload into its wire keys. Unset optional fields map
// to a nil interface value.
func (p ChatPayload) Fields() map[string]any {
	return map[string]any{
		"anthropic_version": p.AnthropicVersion,
		"messages":          p.Messages,
		"max_tokens":        optional(p.MaxTokens),
		"temperature":       optional(p.Temperature),
		"top_p":             optional(p.TopP),
		"top_k":             optional(p.TopK),
		"stop_sequences":    optional(p.StopSequences),
		"streaming":         optional(p.Streaming),
		"guardrail_id":      optional(p.GuardrailID),
		"guardrail_version": optional(p.GuardrailVersion),
	}
}

func optional[T any](v *T) any {
	if v == nil {
		return nil
	}
	return *v
}

// InvokeRequest is the body of the protected invocation routes.
type InvokeRequest struct {
	Provider     string      `json:"provider,omitempty"`
	ModelID      string      `json:"model_id"`
	SystemPrompt string      `json:"system_prompt,omitempty"`
	Payload      ChatPayload `json:"payload"`
}

// InvokeResponse wraps the raw upstream body without parsing it.
type InvokeResponse struct {
	Result string `json:"result"`
}

type TokenResponse struct {
	AccessToken string `json:"access_token"`
	TokenType   string `json:"token_type"`
}
