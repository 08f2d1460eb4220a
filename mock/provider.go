// Package mock provides test doubles for blueprint interfaces using function fields.
package mock

import (
	"context"

	"github.com/fwojciec/blueprint"
)

// Interface compliance check.
var _ blueprint.Provider = (*Provider)(nil)

// Provider is a test double for blueprint.Provider.
// Set StreamFn before calling Stream.
type Provider struct {
	StreamFn func(ctx context.Context, req blueprint.Request) (blueprint.Stream, error)
}

// Stream delegates to StreamFn.
func (p *Provider) Stream(ctx context.Context, req blueprint.Request) (blueprint.Stream, error) {
	return p.StreamFn(ctx, req)
}
