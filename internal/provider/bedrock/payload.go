package bedrock

import (
	"encoding/json"
	"fmt"

	"github.com/felipepmaragno/bedrock-gateway/internal/domain"
)

// MergeSystemPrompt prefixes systemPrompt onto the first message when that
// message comes from the user. The input payload is not modified.
func MergeSystemPrompt(payload domain.ChatPayload, systemPrompt string) domain.ChatPayload {
	if systemPrompt == "" || len(payload.Messages) == 0 || payload.Messages[0].Role != "user" {
		return payload
	}

	messages := make([]domain.Message, len(payload.Messages))
	copy(messages, payload.Messages)
	messages[0].Content = systemPrompt + " " + messages[0].Content

	payload.Messages = messages
	return payload
}

// Prune drops entries whose value is nil or exactly false. Zero numbers,
// empty strings and empty lists are provided values and are kept.
func Prune(fields map[string]any) map[string]any {
	out := make(map[string]any, len(fields))
	for k, v := range fields {
		if v == nil {
			continue
		}
		if b, ok := v.(bool); ok && !b {
			continue
		}
		out[k] = v
	}
	return out
}

// BuildBody validates req and renders the InvokeModel request body.
func BuildBody(req domain.InvokeRequest) ([]byte, error) {
	if req.ModelID == "" {
		return nil, domain.NewError(domain.KindValidation, domain.ErrModelIDRequired)
	}
	if req.Payload.AnthropicVersion == "" || len(req.Payload.Messages) == 0 {
		return nil, domain.NewError(domain.KindValidation, domain.ErrPayloadIncomplete)
	}

	payload := MergeSystemPrompt(req.Payload, req.SystemPrompt)

	body, err := json.Marshal(Prune(payload.Fields()))
	if err != nil {
		return nil, fmt.Errorf("marshal request: %w", err)
	}
	return body, nil
}
