package bedrock

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/bedrockruntime"

	"github.com/felipepmaragno/bedrock-gateway/internal/domain"
	"github.com/felipepmaragno/bedrock-gateway/internal/metrics"
	"github.com/felipepmaragno/bedrock-gateway/internal/notifications"
	"github.com/felipepmaragno/bedrock-gateway/internal/telemetry"
)

// InvokeModelAPI is the part of the bedrockruntime client used here.
type InvokeModelAPI interface {
	InvokeModel(ctx context.Context, params *bedrockruntime.InvokeModelInput, optFns ...func(*bedrockruntime.Options)) (*bedrockruntime.InvokeModelOutput, error)
}

type Provider struct {
	client      InvokeModelAPI
	credentials aws.CredentialsProvider
	notifier    notifications.Notifier
}

// NewWithConfig builds a provider on a shared AWS configuration. notifier
// may be nil.
func NewWithConfig(cfg aws.Config, notifier notifications.Notifier) *Provider {
	return New(bedrockruntime.NewFromConfig(cfg), cfg.Credentials, notifier)
}

func New(client InvokeModelAPI, credentials aws.CredentialsProvider, notifier notifications.Notifier) *Provider {
	return &Provider{
		client:      client,
		credentials: credentials,
		notifier:    notifier,
	}
}

func (p *Provider) ID() string {
	return domain.ProviderAWSBedrock
}

func (p *Provider) Invoke(ctx context.Context, req domain.InvokeRequest) (*domain.InvokeResponse, error) {
	body, err := BuildBody(req)
	if err != nil {
		return nil, err
	}

	modelID := mapModelID(req.ModelID)

	ctx, span := telemetry.StartSpan(ctx, "bedrock.InvokeModel")
	defer span.End()
	telemetry.AddInvocationAttributes(span, p.ID(), modelID, len(body))

	start := time.Now()
	output, err := p.client.InvokeModel(ctx, &bedrockruntime.InvokeModelInput{
		ModelId:     aws.String(modelID),
		ContentType: aws.String("application/json"),
		Accept:      aws.String("application/json"),
		Body:        body,
	})
	elapsed := time.Since(start).Seconds()

	if err != nil {
		metrics.RecordUpstream(p.ID(), modelID, "error", elapsed)
		metrics.RecordUpstreamError(p.ID(), errorType(ctx, err))
		telemetry.AddErrorAttribute(span, err)
		p.notifyFailure(modelID, err)
		return nil, domain.NewError(domain.KindUpstream, fmt.Errorf("%w: %w", domain.ErrUpstream, err))
	}

	metrics.RecordUpstream(p.ID(), modelID, "success", elapsed)
	return &domain.InvokeResponse{Result: string(output.Body)}, nil
}

// HealthCheck verifies that AWS credentials resolve; it does not call the
// model API.
func (p *Provider) HealthCheck(ctx context.Context) error {
	if p.credentials == nil {
		return errors.New("no aws credentials provider configured")
	}
	if _, err := p.credentials.Retrieve(ctx); err != nil {
		return fmt.Errorf("retrieve aws credentials: %w", err)
	}
	return nil
}

func (p *Provider) notifyFailure(modelID string, cause error) {
	if p.notifier == nil {
		return
	}

	n := notifications.Notification{
		Type:    notifications.NotificationUpstreamFailure,
		Message: cause.Error(),
		Data: map[string]any{
			"provider": p.ID(),
			"model_id": modelID,
		},
	}

	// The caller's response must not wait on the notification.
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := p.notifier.Send(ctx, n); err != nil {
			slog.Warn("failed to send upstream failure notification", "error", err, "model_id", modelID)
		}
	}()
}

func errorType(ctx context.Context, err error) string {
	switch {
	case errors.Is(err, context.Canceled) || ctx.Err() == context.Canceled:
		return "canceled"
	case errors.Is(err, context.DeadlineExceeded):
		return "timeout"
	default:
		return "invoke"
	}
}

// mapModelID expands short aliases; anything else is sent unchanged.
func mapModelID(model string) string {
	modelMap := map[string]string{
		"claude-3-5-sonnet": "anthropic.claude-3-5-sonnet-20240620-v1:0",
		"claude-3-5-haiku":  "anthropic.claude-3-5-haiku-20241022-v1:0",
		"claude-3-opus":     "anthropic.claude-3-opus-20240229-v1:0",
		"claude-3-sonnet":   "anthropic.claude-3-sonnet-20240229-v1:0",
		"claude-3-haiku":    "anthropic.claude-3-haiku-20240307-v1:0",
	}

	if mapped, ok := modelMap[model]; ok {
		return mapped
	}
	return model
}
