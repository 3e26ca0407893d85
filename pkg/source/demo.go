package source

import (
	"context"

	"github.com/fleetglass/fleetglass/pkg/demo"
	"github.com/fleetglass/fleetglass/pkg/types"
)

// DemoSource serves canned records. It is always available but the
// coordinator only consults it in two situations: demo mode is
// globally active (authoritative), or the whole chain failed and the
// cell never had data (last resort).
type DemoSource struct {
	provider *demo.Provider
}

// NewDemoSource wraps a demo data provider as a chain source.
func NewDemoSource(p *demo.Provider) *DemoSource {
	return &DemoSource{provider: p}
}

// Name implements Source.
func (d *DemoSource) Name() string {
	return "demo"
}

// Available implements Source.
func (d *DemoSource) Available(ctx context.Context) error {
	return nil
}

// Fetch implements Source.
func (d *DemoSource) Fetch(ctx context.Context, family types.Family, scope types.Scope) ([]types.Resource, error) {
	return d.provider.Items(family.Name, scope), nil
}
