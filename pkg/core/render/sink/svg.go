package sink

import (
	"bytes"
	"encoding/xml"
	"fmt"

	"github.com/matzehuels/kintree/pkg/core/layout"
	"github.com/matzehuels/kintree/pkg/core/viewport"
	"github.com/matzehuels/kintree/pkg/family"
)

// Card outline colours by gender.
const (
	ColorMale    = "#60a5fa"
	ColorFemale  = "#f472b6"
	ColorNeutral = "#94a3b8"
	ColorLink    = "#cbd5e1"
	ColorSubtle  = "#64748b"
)

// Margin around the fitted drawing.
const Margin = 40.0

const treeCSS = `
    .link { fill: none; stroke: ` + ColorLink + `; stroke-width: 2; }
    .node rect { fill: #ffffff; stroke-width: 2; }
    .node text { font-family: system-ui, -apple-system, sans-serif; text-anchor: middle; }
    .node .first { font-size: 14px; font-weight: bold; fill: #0f172a; }
    .node .last { font-size: 12px; fill: ` + ColorSubtle + `; }`

const interactionCSS = `
    .node { cursor: pointer; }
    .node:hover rect { stroke-width: 4; }`

const interactionJS = `
    document.querySelectorAll('.node').forEach(el => {
      el.addEventListener('click', () => {
        el.dispatchEvent(new CustomEvent('person-activated', {
          bubbles: true,
          detail: { personId: el.dataset.personId },
        }));
      });
    });`

// GenderColor returns the card outline colour for g.
func GenderColor(g family.Gender) string {
	switch g {
	case family.GenderMale:
		return ColorMale
	case family.GenderFemale:
		return ColorFemale
	default:
		return ColorNeutral
	}
}

type SVGOption func(*svgRenderer)

type svgRenderer struct {
	width, height float64
	transform     viewport.Transform
	fixed         bool
	interactive   bool
	title         string
	background    string
}

// WithViewport draws a width x height view through transform t instead of
// fitting the layout.
func WithViewport(width, height float64, t viewport.Transform) SVGOption {
	return func(r *svgRenderer) {
		r.width, r.height, r.transform, r.fixed = width, height, t, true
	}
}

func WithInteraction() SVGOption            { return func(r *svgRenderer) { r.interactive = true } }
func WithTitle(s string) SVGOption          { return func(r *svgRenderer) { r.title = s } }
func WithBackground(color string) SVGOption { return func(r *svgRenderer) { r.background = color } }

// RenderSVG draws the layout.
func RenderSVG(l layout.Layout, opts ...SVGOption) []byte {
	r := svgRenderer{transform: viewport.Identity}
	for _, opt := range opts {
		opt(&r)
	}
	if r.fixed && !r.transform.Valid() {
		r.transform = viewport.Identity
	}

	minX, minY, w, h := r.frame(l)

	var buf bytes.Buffer
	fmt.Fprintf(&buf, `<svg xmlns="http://www.w3.org/2000/svg" viewBox="%s %s %s %s" width="%.0f" height="%.0f">`+"\n",
		num(minX), num(minY), num(w), num(h), w, h)
	if r.title != "" {
		fmt.Fprintf(&buf, "  <title>%s</title>\n", escapeXML(r.title))
	}
	css := treeCSS
	if r.interactive {
		css += interactionCSS
	}
	fmt.Fprintf(&buf, "  <style>%s\n  </style>\n", css)
	if r.background != "" {
		fmt.Fprintf(&buf, `  <rect class="background" x="%s" y="%s" width="%s" height="%s" fill="%s"/>`+"\n",
			num(minX), num(minY), num(w), num(h), escapeXML(r.background))
	}

	fmt.Fprintf(&buf, "  <g class=\"viewport\" transform=\"%s\">\n", r.transform)
	renderLinks(&buf, l)
	renderNodes(&buf, l)
	buf.WriteString("  </g>\n")

	if r.interactive {
		fmt.Fprintf(&buf, "  <script type=\"text/javascript\"><![CDATA[%s\n  ]]></script>\n", interactionJS)
	}
	buf.WriteString("</svg>\n")
	return buf.Bytes()
}

func (r svgRenderer) frame(l layout.Layout) (minX, minY, w, h float64) {
	if r.fixed {
		return 0, 0, r.width, r.height
	}
	if l.Empty() {
		return 0, 0, 2 * Margin, 2 * Margin
	}
	b := l.Bounds
	return b.MinX - Margin, b.MinY - Margin, b.Width() + 2*Margin, b.Height() + 2*Margin
}

func renderLinks(buf *bytes.Buffer, l layout.Layout) {
	buf.WriteString("    <g class=\"links\">\n")
	for _, link := range l.Links {
		src, okS := l.Lookup(link.Source)
		dst, okD := l.Lookup(link.Target)
		if !okS || !okD {
			continue
		}
		fmt.Fprintf(buf, `      <path class="link" data-source="%s" data-target="%s" d="%s"/>`+"\n",
			escapeXML(link.Source), escapeXML(link.Target), linkPath(src, dst))
	}
	buf.WriteString("    </g>\n")
}

// linkPath is a vertical cubic from parent centre to child centre with both
// control points at the vertical midpoint.
func linkPath(src, dst layout.Node) string {
	midY := (src.Y + dst.Y) / 2
	return fmt.Sprintf("M%s,%sC%s,%s %s,%s %s,%s",
		num(src.X), num(src.Y),
		num(src.X), num(midY),
		num(dst.X), num(midY),
		num(dst.X), num(dst.Y))
}

func renderNodes(buf *bytes.Buffer, l layout.Layout) {
	w, h := l.Options.NodeWidth, l.Options.NodeHeight
	buf.WriteString("    <g class=\"nodes\">\n")
	for _, n := range l.Nodes {
		fmt.Fprintf(buf, `      <g class="node" data-person-id="%s" transform="translate(%s,%s)">`+"\n",
			escapeXML(n.ID), num(n.X), num(n.Y))
		fmt.Fprintf(buf, `        <rect x="%s" y="%s" width="%s" height="%s" rx="%s" stroke="%s"/>`+"\n",
			num(-w/2), num(-h/2), num(w), num(h), num(h/2), GenderColor(n.Gender))
		fmt.Fprintf(buf, `        <text class="first" dy="-5">%s</text>`+"\n", escapeXML(n.FirstName))
		fmt.Fprintf(buf, `        <text class="last" dy="15">%s</text>`+"\n", escapeXML(n.LastName))
		buf.WriteString("      </g>\n")
	}
	buf.WriteString("    </g>\n")
}

func num(v float64) string { return fmt.Sprintf("%g", v) }

func escapeXML(s string) string {
	var buf bytes.Buffer
	xml.EscapeText(&buf, []byte(s))
	return buf.String()
}
