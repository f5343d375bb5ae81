package provider

import (
	"context"
	"fmt"

	"atelier/pkg/circuitbreaker"
)

// CircuitBreakerAssetIndex shields the resolve path from a misbehaving
// asset index: once the breaker opens, lookups fail fast and the storefront
// falls back to the base image instead of queueing on a dead service.
type CircuitBreakerAssetIndex struct {
	index AssetIndex
	cb    *circuitbreaker.Wrapper
	name  string
}

func NewCircuitBreakerAssetIndex(index AssetIndex, name string, cfg circuitbreaker.Config) *CircuitBreakerAssetIndex {
	return &CircuitBreakerAssetIndex{
		index: index,
		cb:    circuitbreaker.NewWrapper(cfg),
		name:  name,
	}
}

func (p *CircuitBreakerAssetIndex) Lookup(ctx context.Context, productID, variantKey string) (Asset, error) {
	result, err := p.cb.ExecuteWithContext(ctx, func() (interface{}, error) {
		return p.index.Lookup(ctx, productID, variantKey)
	})

	p.cb.RecordRequest(err == nil)

	if err != nil {
		if p.cb.IsOpen() {
			return Asset{}, fmt.Errorf("circuit breaker is open for %s: %w", p.name, err)
		}
		return Asset{}, err
	}

	asset, ok := result.(Asset)
	if !ok {
		return Asset{}, fmt.Errorf("asset index returned invalid result type")
	}

	return asset, nil
}

func (p *CircuitBreakerAssetIndex) State() string {
	return p.cb.State().String()
}

func (p *CircuitBreakerAssetIndex) IsOpen() bool {
	return p.cb.IsOpen()
}
