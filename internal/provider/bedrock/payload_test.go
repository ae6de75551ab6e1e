package bedrock

import (
	"encoding/json"
	"errors"
	"reflect"
	"testing"

	"github.com/felipepmaragno/bedrock-gateway/internal/domain"
)

func ptr[T any](v T) *T { return &v }

func TestPrune(t *testing.T) {
	in := map[string]any{
		"a": nil,
		"b": false,
		"c": 0,
		"d": []string{},
		"e": "x",
	}

	got := Prune(in)
	want := map[string]any{
		"c": 0,
		"d": []string{},
		"e": "x",
	}

	if !reflect.DeepEqual(got, want) {
		t.Errorf("Prune() = %#v, want %#v", got, want)
	}
	if len(in) != 5 {
		t.Error("Prune() must not modify its input")
	}
}

func TestPrune_KeepsTrueAndEmptyString(t *testing.T) {
	got := Prune(map[string]any{"streaming": true, "guardrail_id": "", "temperature": 0.0})

	if len(got) != 3 {
		t.Errorf("Prune() = %#v, want all three keys kept", got)
	}
}

func TestMergeSystemPrompt(t *testing.T) {
	tests := []struct {
		name         string
		messages     []domain.Message
		systemPrompt string
		wantFirst    string
	}{
		{
			name:         "user first message",
			messages:     []domain.Message{{Role: "user", Content: "Hi"}},
			systemPrompt: "Be terse.",
			wantFirst:    "Be terse. Hi",
		},
		{
			name:         "assistant first message",
			messages:     []domain.Message{{Role: "assistant", Content: "Hi"}, {Role: "user", Content: "Yo"}},
			systemPrompt: "Be terse.",
			wantFirst:    "Hi",
		},
		{
			name:         "empty system prompt",
			messages:     []domain.Message{{Role: "user", Content: "Hi"}},
			systemPrompt: "",
			wantFirst:    "Hi",
		},
		{
			name:         "empty user content",
			messages:     []domain.Message{{Role: "user", Content: ""}},
			systemPrompt: "Be terse.",
			wantFirst:    "Be terse. ",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			before := make([]domain.Message, len(tt.messages))
			copy(before, tt.messages)
			payload := domain.ChatPayload{AnthropicVersion: "bedrock-2023-05-31", Messages: tt.messages}

			merged := MergeSystemPrompt(payload, tt.systemPrompt)

			if merged.Messages[0].Content != tt.wantFirst {
				t.Errorf("first content = %q, want %q", merged.Messages[0].Content, tt.wantFirst)
			}
			if !reflect.DeepEqual(tt.messages, before) {
				t.Error("MergeSystemPrompt() must not modify the caller's messages")
			}
			if len(merged.Messages) > 1 && merged.Messages[1] != tt.messages[1] {
				t.Error("only the first message may change")
			}
		})
	}
}

func TestMergeSystemPrompt_NoMessages(t *testing.T) {
	payload := domain.ChatPayload{AnthropicVersion: "v"}

	merged := MergeSystemPrompt(payload, "Be terse.")

	if len(merged.Messages) != 0 {
		t.Errorf("messages = %v, want none", merged.Messages)
	}
}

func TestBuildBody(t *testing.T) {
	req := domain.InvokeRequest{
		ModelID:      "anthropic.claude-3-5-sonnet-20240620-v1:0",
		SystemPrompt: "You are a helpful assistant that provides concise answers.",
		Payload: domain.ChatPayload{
			AnthropicVersion: "bedrock-2023-05-31",
			Messages:         []domain.Message{{Role: "user", Content: "What is the capital of France?"}},
			MaxTokens:        ptr(4000),
			Temperature:      ptr(0.7),
			TopP:             ptr(1.0),
			TopK:             ptr(0),
			StopSequences:    ptr([]string{}),
			Streaming:        ptr(false),
		},
	}

	body, err := BuildBody(req)
	if err != nil {
		t.Fatalf("BuildBody() error = %v", err)
	}

	var got map[string]any
	if err := json.Unmarshal(body, &got); err != nil {
		t.Fatalf("body is not JSON: %v", err)
	}

	wantKeys := []string{"anthropic_version", "messages", "max_tokens", "temperature", "top_p", "top_k", "stop_sequences"}
	for _, k := range wantKeys {
		if _, ok := got[k]; !ok {
			t.Errorf("body missing key %q: %s", k, body)
		}
	}
	for _, k := range []string{"streaming", "guardrail_id", "guardrail_version"} {
		if _, ok := got[k]; ok {
			t.Errorf("body should not contain %q: %s", k, body)
		}
	}

	if got["top_k"] != float64(0) {
		t.Errorf("top_k = %v, want 0", got["top_k"])
	}
	if list, ok := got["stop_sequences"].([]any); !ok || len(list) != 0 {
		t.Errorf("stop_sequences = %#v, want []", got["stop_sequences"])
	}

	messages := got["messages"].([]any)
	first := messages[0].(map[string]any)
	want := "You are a helpful assistant that provides concise answers. What is the capital of France?"
	if first["content"] != want {
		t.Errorf("content = %q, want %q", first["content"], want)
	}
}

func TestBuildBody_Validation(t *testing.T) {
	valid := domain.ChatPayload{
		AnthropicVersion: "bedrock-2023-05-31",
		Messages:         []domain.Message{{Role: "user", Content: "Hi"}},
	}

	tests := []struct {
		name    string
		req     domain.InvokeRequest
		wantErr error
	}{
		{"missing model id", domain.InvokeRequest{Payload: valid}, domain.ErrModelIDRequired},
		{"missing version", domain.InvokeRequest{ModelID: "m", Payload: domain.ChatPayload{Messages: valid.Messages}}, domain.ErrPayloadIncomplete},
		{"missing messages", domain.InvokeRequest{ModelID: "m", Payload: domain.ChatPayload{AnthropicVersion: "v"}}, domain.ErrPayloadIncomplete},
		{"empty messages", domain.InvokeRequest{ModelID: "m", Payload: domain.ChatPayload{AnthropicVersion: "v", Messages: []domain.Message{}}}, domain.ErrPayloadIncomplete},
		{"missing payload", domain.InvokeRequest{ModelID: "m"}, domain.ErrPayloadIncomplete},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := BuildBody(tt.req)

			if !errors.Is(err, tt.wantErr) {
				t.Errorf("BuildBody() error = %v, want %v", err, tt.wantErr)
			}
			if domain.KindOf(err) != domain.KindValidation {
				t.Errorf("kind = %v, want validation", domain.KindOf(err))
			}
		})
	}
}
