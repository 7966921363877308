// Package sink writes a computed [layout.Layout] to output formats.
//
//   - SVG: node cards, curved parent links and an optional click hook
//   - JSON: the layout itself, for caching and external clients
//   - PDF and PNG: SVG converted with rsvg-convert
//
// # SVG
//
// Cards are rounded pills centred on each node position. The outline colour
// follows the person's gender and every card group carries a
// data-person-id attribute so a host page can map clicks back to people.
// All content sits inside one <g class="viewport"> element whose transform
// attribute is the current viewport transform:
//
//	svg := sink.RenderSVG(l,
//	    sink.WithViewport(800, 600, ctrl.Transform()),
//	    sink.WithInteraction(),
//	)
//
// Without [WithViewport] the drawing is fitted to the layout bounds.
//
// [layout.Layout]: github.com/matzehuels/kintree/pkg/core/layout.Layout
package sink
