package core

import "context"

// Generator produces one layout for one slot request. Implementations must
// honour ctx cancellation; any returned error marks the slot as failed.
type Generator interface {
	Generate(ctx context.Context, req Request) (Layout, error)
}

// GeneratorFunc is a functional adapter so ordinary functions can be used as
// Generators.
type GeneratorFunc func(ctx context.Context, req Request) (Layout, error)

// Generate implements Generator.
func (f GeneratorFunc) Generate(ctx context.Context, req Request) (Layout, error) {
	return f(ctx, req)
}

// Renderer turns preview markup into a PNG image.
type Renderer interface {
	Render(ctx context.Context, html string, ec EditorContext) ([]byte, error)
}
