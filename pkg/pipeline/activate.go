package pipeline

import (
	"context"

	"github.com/matzehuels/kintree/pkg/core/layout"
	"github.com/matzehuels/kintree/pkg/core/viewport"
	"github.com/matzehuels/kintree/pkg/observability"
)

// ActivateRequest describes a tap or click on a rendered viewport. The
// client sends the transform it is currently showing; when Transform is nil
// the initial transform for Width x Height is assumed.
type ActivateRequest struct {
	X         float64             `json:"x"`
	Y         float64             `json:"y"`
	Width     float64             `json:"width"`
	Height    float64             `json:"height"`
	Transform *viewport.Transform `json:"transform,omitempty"`
}

// Activate resolves a screen point against l and returns the person under
// it. Zero options mean the viewport defaults. The controller is rebuilt
// for every call, so the server stays stateless between requests.
func Activate(ctx context.Context, treeID string, l layout.Layout, vopts viewport.Options, req ActivateRequest) (string, bool) {
	c := viewport.New(l, viewport.WithOptions(vopts.Resolve()))
	c.Initialize(req.Width, req.Height)
	if req.Transform != nil {
		c.SetTransform(*req.Transform)
	}
	id, ok := c.OnNodeActivated(viewport.Point{X: req.X, Y: req.Y})
	observability.Pipeline().OnActivation(ctx, treeID, ok)
	return id, ok
}
