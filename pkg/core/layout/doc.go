// Package layout assigns 2D coordinates to a [hierarchy.Node] tree.
//
// # Algorithm
//
// Every node owns a horizontal extent. A leaf's extent is the sibling
// gutter; an inner node's extent is the sum of its children's extents.
// Children are packed left to right in child order with adjacent extents
// touching, and each node sits at the midpoint of its own extent. Depth
// maps to y:
//
//	y = depth * LevelGutter
//
// The result is translated so the root lands on x = 0. Subtrees therefore
// never overlap horizontally, and the same hierarchy always produces the
// same coordinates.
//
// # Coordinates
//
// (X, Y) is the centre of a node card. Cards are NodeWidth x NodeHeight
// (160 x 60 by default) and are centred on the node position, so renderers
// and hit-testing agree on the box.
//
// A [Layout] is an immutable value. It is safe to share between goroutines
// and round-trips through JSON for caching and the HTTP API.
package layout
