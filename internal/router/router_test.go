package router

import (
	"context"
	"errors"
	"reflect"
	"testing"

	"github.com/felipepmaragno/bedrock-gateway/internal/domain"
)

type mockProvider struct {
	id    string
	calls int
}

func (m *mockProvider) ID() string { return m.id }
func (m *mockProvider) Invoke(ctx context.Context, req domain.InvokeRequest) (*domain.InvokeResponse, error) {
	m.calls++
	return &domain.InvokeResponse{Result: m.id + ":" + req.ModelID}, nil
}
func (m *mockProvider) HealthCheck(ctx context.Context) error { return nil }

func TestRouter_Dispatch_RegisteredProvider(t *testing.T) {
	bedrock := &mockProvider{id: domain.ProviderAWSBedrock}
	r := New(bedrock)

	resp, err := r.Dispatch(context.Background(), "aws_bedrock", domain.InvokeRequest{ModelID: "m"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if resp.Result != "aws_bedrock:m" {
		t.Errorf("Result = %q, want aws_bedrock:m", resp.Result)
	}
	if bedrock.calls != 1 {
		t.Errorf("provider calls = %d, want 1", bedrock.calls)
	}
}

func TestRouter_Dispatch_Unsupported(t *testing.T) {
	tests := []struct {
		name     string
		provider string
	}{
		{"absent", ""},
		{"unknown", "openai"},
		{"case differs", "AWS_BEDROCK"},
		{"short name", "bedrock"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			bedrock := &mockProvider{id: domain.ProviderAWSBedrock}
			r := New(bedrock)

			_, err := r.Dispatch(context.Background(), tt.provider, domain.InvokeRequest{ModelID: "m"})

			if !errors.Is(err, domain.ErrUnsupportedProvider) {
				t.Errorf("expected ErrUnsupportedProvider, got %v", err)
			}
			if domain.KindOf(err) != domain.KindValidation {
				t.Errorf("kind = %v, want validation", domain.KindOf(err))
			}
			if bedrock.calls != 0 {
				t.Errorf("provider must not be invoked, calls = %d", bedrock.calls)
			}
		})
	}
}

func TestRouter_MultipleProviders(t *testing.T) {
	a := &mockProvider{id: "aws_bedrock"}
	b := &mockProvider{id: "vertex"}
	r := New(b, a)

	if got := r.ListProviders(); !reflect.DeepEqual(got, []string{"aws_bedrock", "vertex"}) {
		t.Errorf("ListProviders() = %v", got)
	}

	if _, err := r.Dispatch(context.Background(), "vertex", domain.InvokeRequest{}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if a.calls != 0 || b.calls != 1 {
		t.Errorf("calls a=%d b=%d, want a=0 b=1", a.calls, b.calls)
	}

	if p, ok := r.GetProvider("aws_bedrock"); !ok || p.ID() != "aws_bedrock" {
		t.Error("GetProvider(aws_bedrock) should return the registered provider")
	}
	if _, ok := r.GetProvider("missing"); ok {
		t.Error("GetProvider(missing) should return false")
	}
}
