package router

import (
	"context"
	"fmt"
	"sort"

	"github.com/felipepmaragno/bedrock-gateway/internal/domain"
)

// Provider is a model-hosting backend the gateway can dispatch to.
type Provider interface {
	ID() string
	Invoke(ctx context.Context, req domain.InvokeRequest) (*domain.InvokeResponse, error)
	HealthCheck(ctx context.Context) error
}

// Router is the dispatch table keyed by provider name. It is built once at
// startup and only read afterwards.
type Router struct {
	providers map[string]Provider
}

func New(providers ...Provider) *Router {
	r := &Router{providers: make(map[string]Provider, len(providers))}
	for _, p := range providers {
		r.providers[p.ID()] = p
	}
	return r
}

// Dispatch invokes the provider registered under name. Unknown and empty
// names fail with a validation error before any provider runs.
func (r *Router) Dispatch(ctx context.Context, name string, req domain.InvokeRequest) (*domain.InvokeResponse, error) {
	p, ok := r.providers[name]
	if !ok {
		return nil, domain.NewError(domain.KindValidation, fmt.Errorf("%w: %q", domain.ErrUnsupportedProvider, name))
	}
	return p.Invoke(ctx, req)
}

func (r *Router) GetProvider(id string) (Provider, bool) {
	p, ok := r.providers[id]
	return p, ok
}

// ListProviders returns the registered provider names in sorted order.
func (r *Router) ListProviders() []string {
	ids := make([]string, 0, len(r.providers))
	for id := range r.providers {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}
