// Package hierarchy selects a root and grows the displayable tree from a
// [kin.Graph].
//
// # Root selection
//
// [SelectRoot] picks the first person, in input order, with no recorded
// parent. When every person has a parent (cyclic data) the first person is
// used instead, so malformed data still renders. An empty graph has no root.
//
// # Construction
//
// [Build] walks the adjacency depth-first from the root, keeping a set of
// placed identifiers. A child that is already placed is skipped, which both
// prevents duplicates and guarantees termination on cycles. Children keep
// adjacency order, so identical input always yields an identical tree.
// People not reachable from the root are left out.
package hierarchy
