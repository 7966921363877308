package pipeline

import (
	"context"
	"fmt"

	"github.com/matzehuels/kintree/pkg/core/kin"
	"github.com/matzehuels/kintree/pkg/core/layout"
	"github.com/matzehuels/kintree/pkg/core/render"
	"github.com/matzehuels/kintree/pkg/core/render/nodelink"
	"github.com/matzehuels/kintree/pkg/core/render/sink"
	"github.com/matzehuels/kintree/pkg/core/viewport"
)

// Render writes every requested format. The graph is only needed for the
// node-link view and DOT output.
func Render(ctx context.Context, l layout.Layout, g *kin.Graph, opts Options) (map[string][]byte, error) {
	if err := opts.ValidateForRender(); err != nil {
		return nil, err
	}

	artifacts := make(map[string][]byte, len(opts.Formats))
	for _, format := range opts.Formats {
		data, err := renderFormat(ctx, l, g, format, opts)
		if err != nil {
			return nil, fmt.Errorf("render %s: %w", format, err)
		}
		artifacts[format] = data
	}
	return artifacts, nil
}

func renderFormat(ctx context.Context, l layout.Layout, g *kin.Graph, format string, opts Options) ([]byte, error) {
	switch format {
	case FormatJSON:
		return sink.RenderJSON(l)
	case FormatDOT:
		if g == nil {
			return nil, fmt.Errorf("dot output needs the relationship graph")
		}
		return []byte(nodelink.ToDOT(g, nodelinkOptions(opts))), nil
	}

	if opts.IsNodelink() {
		return renderNodelink(ctx, g, format, opts)
	}
	return renderTree(ctx, l, format, opts)
}

func renderTree(ctx context.Context, l layout.Layout, format string, opts Options) ([]byte, error) {
	svgOpts := buildSVGOptions(l, opts)
	switch format {
	case FormatSVG:
		return sink.RenderSVG(l, svgOpts...), nil
	case FormatPNG:
		return sink.RenderPNG(ctx, l, sink.WithPNGSVGOptions(svgOpts...), sink.WithScale(pngScale(opts)))
	case FormatPDF:
		return sink.RenderPDF(ctx, l, svgOpts...)
	}
	return nil, fmt.Errorf("unsupported tree format: %s", format)
}

func renderNodelink(ctx context.Context, g *kin.Graph, format string, opts Options) ([]byte, error) {
	if g == nil {
		return nil, fmt.Errorf("node-link view needs the relationship graph")
	}
	dot := nodelink.ToDOT(g, nodelinkOptions(opts))
	switch format {
	case FormatSVG:
		return nodelink.RenderSVG(ctx, dot)
	case FormatPNG:
		return nodelink.RenderPNG(ctx, dot, pngScale(opts))
	case FormatPDF:
		return nodelink.RenderPDF(ctx, dot)
	}
	return nil, fmt.Errorf("unsupported nodelink format: %s", format)
}

func nodelinkOptions(opts Options) nodelink.Options {
	return nodelink.Options{Detailed: opts.Detailed}
}

func pngScale(opts Options) float64 {
	if opts.Scale > 0 {
		return opts.Scale
	}
	return render.DefaultPNGScale
}

// buildSVGOptions maps pipeline options to sink options. A fixed viewport
// without an explicit transform starts where an interactive client would.
func buildSVGOptions(l layout.Layout, opts Options) []sink.SVGOption {
	var svgOpts []sink.SVGOption
	if opts.Fixed() {
		t := InitialTransform(l, opts)
		if opts.Transform != nil {
			t = *opts.Transform
		}
		svgOpts = append(svgOpts, sink.WithViewport(opts.Width, opts.Height, t))
	}
	if opts.Interactive {
		svgOpts = append(svgOpts, sink.WithInteraction())
	}
	if opts.Title != "" {
		svgOpts = append(svgOpts, sink.WithTitle(opts.Title))
	}
	return svgOpts
}

// InitialTransform is the transform a fresh viewport of opts.Width x
// opts.Height starts with.
func InitialTransform(l layout.Layout, opts Options) viewport.Transform {
	c := viewport.New(l, viewport.WithOptions(opts.Viewport.Resolve()))
	return c.Initialize(opts.Width, opts.Height)
}
