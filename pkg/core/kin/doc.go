// Package kin builds the adjacency structure the hierarchy is grown from.
//
// [Build] turns a flat, ordered list of [family.Person] records into a
// [Graph]: one [Node] per person, parent → children adjacency built from
// PARENT_CHILD edges, and a has-parent marker set used for root selection.
//
// # Input tolerance
//
// Genealogical data is user-entered and routinely inconsistent, so the
// builder never fails:
//
//   - Edges that reference a person absent from the list are skipped.
//   - Self-referencing parent edges are skipped.
//   - The same edge listed on both parties (once in relationshipsAsPerson1,
//     once in relationshipsAsPerson2) is counted once.
//   - Duplicate person IDs keep the first record.
//
// # Multiple parents
//
// The adjacency is a forest: every child is owned by exactly one parent.
// People are processed in input order and, per person, the edges where it is
// the first party come before the edges where it is the second party. The
// first PARENT_CHILD edge discovered for a child wins; later ones are kept
// in [Graph.Dropped] for diagnostics but do not create adjacency. The child
// is still marked as having a parent either way.
//
// # Other kinds
//
// SPOUSE, SIBLING and unknown kinds never contribute to adjacency. They are
// carried on both endpoint nodes in [Node.Others] so renderers that show
// the full relationship graph can use them.
package kin
