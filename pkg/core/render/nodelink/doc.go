// Package nodelink renders the complete relationship graph with Graphviz.
//
// The tree view shows one parent per person. This view shows everything the
// graph builder kept: owned parent edges, secondary parents the tree view
// dropped, spouses and any other relationship kind.
//
//	dot := nodelink.ToDOT(kin.Build(snap.People), nodelink.Options{})
//	svg, err := nodelink.RenderSVG(ctx, dot)
//
// Edge styles:
//
//   - PARENT_CHILD: solid arrow from parent to child
//   - SPOUSE: dashed, undirected, no rank constraint
//   - anything else: dotted with the kind as label
//
// Node outlines use the same gender colours as the tree view. SVG is
// rendered in-process with [github.com/goccy/go-graphviz]; PDF and PNG go
// through rsvg-convert.
package nodelink
