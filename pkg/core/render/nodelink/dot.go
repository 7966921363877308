package nodelink

import (
	"bytes"
	"context"
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"github.com/goccy/go-graphviz"

	"github.com/matzehuels/kintree/pkg/core/kin"
	"github.com/matzehuels/kintree/pkg/core/render"
	"github.com/matzehuels/kintree/pkg/core/render/sink"
	"github.com/matzehuels/kintree/pkg/family"
)

// Options configures node-link diagram generation.
type Options struct {
	// Detailed adds lifespan and places to node labels.
	Detailed bool
	// HideDropped leaves out secondary parent edges.
	HideDropped bool
}

// ToDOT converts the relationship graph to Graphviz DOT.
func ToDOT(g *kin.Graph, opts Options) string {
	var buf bytes.Buffer
	buf.WriteString("digraph G {\n")
	buf.WriteString("  rankdir=TB;\n")
	buf.WriteString("  bgcolor=\"transparent\";\n")
	buf.WriteString("  node [shape=box, style=\"rounded,filled\", fillcolor=white, penwidth=2, fontname=\"Helvetica\", fontsize=14, margin=\"0.2,0.1\"];\n")
	buf.WriteString("  edge [color=\"" + sink.ColorLink + "\", penwidth=2];\n")
	buf.WriteString("  ranksep=0.6;\n")
	buf.WriteString("  nodesep=0.4;\n")
	buf.WriteString("\n")

	for _, n := range g.Nodes() {
		fmt.Fprintf(&buf, "  %q [%s];\n", n.ID(), strings.Join(fmtAttrs(n.Person, opts.Detailed), ", "))
	}

	buf.WriteString("\n")
	for _, e := range g.Edges() {
		fmt.Fprintf(&buf, "  %q -> %q;\n", e.Parent, e.Child)
	}
	if !opts.HideDropped {
		for _, e := range g.Dropped() {
			fmt.Fprintf(&buf, "  %q -> %q [style=dashed, color=%q];\n", e.Parent, e.Child, sink.ColorSubtle)
		}
	}
	for _, r := range g.OtherEdges() {
		fmt.Fprintf(&buf, "  %q -> %q [%s];\n", r.Person1ID, r.Person2ID, strings.Join(otherAttrs(r.Kind), ", "))
	}

	buf.WriteString("}\n")
	return buf.String()
}

func fmtLabel(p family.Person, detailed bool) string {
	label := p.DisplayName()
	if label == "" {
		label = p.ID
	}
	if !detailed {
		return label
	}
	var parts []string
	if span := p.Lifespan(); span != "" {
		parts = append(parts, span)
	}
	if p.BirthPlace != "" {
		parts = append(parts, "born: "+p.BirthPlace)
	}
	if p.DeathPlace != "" {
		parts = append(parts, "died: "+p.DeathPlace)
	}
	if len(parts) == 0 {
		return label
	}
	return label + "\n" + strings.Join(parts, "\n")
}

func fmtAttrs(p family.Person, detailed bool) []string {
	return []string{
		fmt.Sprintf("label=%q", fmtLabel(p, detailed)),
		fmt.Sprintf("color=%q", sink.GenderColor(p.Gender)),
	}
}

func otherAttrs(k family.Kind) []string {
	if k == family.KindSpouse {
		return []string{"dir=none", "style=dashed", "constraint=false"}
	}
	attrs := []string{"style=dotted", "constraint=false", fmt.Sprintf("label=%q", strings.ToLower(string(k)))}
	if !k.Directed() {
		attrs = append(attrs, "dir=none")
	}
	return attrs
}

// RenderSVG renders a DOT graph to SVG using Graphviz.
func RenderSVG(ctx context.Context, dot string) ([]byte, error) {
	gv, err := graphviz.New(ctx)
	if err != nil {
		return nil, fmt.Errorf("init graphviz: %w", err)
	}
	defer gv.Close()

	g, err := graphviz.ParseBytes([]byte(dot))
	if err != nil {
		return nil, fmt.Errorf("parse DOT: %w", err)
	}
	defer g.Close()

	var buf bytes.Buffer
	if err := gv.Render(ctx, g, graphviz.SVG, &buf); err != nil {
		return nil, fmt.Errorf("render: %w", err)
	}
	return normalizeViewBox(buf.Bytes()), nil
}

var (
	svgTagRe  = regexp.MustCompile(`<svg[^>]*>`)
	viewBoxRe = regexp.MustCompile(`viewBox="([0-9.]+)\s+([0-9.]+)\s+([0-9.]+)\s+([0-9.]+)"`)
)

// normalizeViewBox rewrites the root element so the drawing starts at the
// origin with explicit pixel dimensions.
func normalizeViewBox(svg []byte) []byte {
	match := viewBoxRe.FindSubmatch(svg)
	if match == nil {
		return svg
	}

	w, _ := strconv.ParseFloat(string(match[3]), 64)
	h, _ := strconv.ParseFloat(string(match[4]), 64)
	if w == 0 || h == 0 {
		return svg
	}

	root := fmt.Sprintf(`<svg xmlns="http://www.w3.org/2000/svg" viewBox="0 0 %.2f %.2f" width="%.0f" height="%.0f">`, w, h, w, h)
	return svgTagRe.ReplaceAll(svg, []byte(root))
}

// RenderPDF renders a DOT graph as PDF via SVG conversion.
func RenderPDF(ctx context.Context, dot string) ([]byte, error) {
	svg, err := RenderSVG(ctx, dot)
	if err != nil {
		return nil, err
	}
	return render.ToPDF(ctx, svg)
}

// RenderPNG renders a DOT graph as PNG via SVG conversion.
func RenderPNG(ctx context.Context, dot string, scale float64) ([]byte, error) {
	svg, err := RenderSVG(ctx, dot)
	if err != nil {
		return nil, err
	}
	return render.ToPNG(ctx, svg, scale)
}
