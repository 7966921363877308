// Package pkg provides the core libraries for kintree family tree layout.
//
// # Overview
//
// Kintree turns a family snapshot (people plus the relationships between
// them) into a descendant tree, positions it as a tidy tree and drives an
// interactive viewport over the result. The pkg directory is organized into
// these areas:
//
//  1. [family] - Domain types: people, relationships, snapshots
//  2. [core] - Graph, hierarchy, layout, viewport and renderers
//  3. [pipeline] - Orchestration (build → layout → render) with caching
//  4. [store] - Ownership-scoped record storage (memory, MongoDB)
//  5. [cache] - Byte caches for layouts and artifacts (file, Redis)
//
// # Architecture
//
// The typical data flow:
//
//	Snapshot (people + relationships)
//	         ↓
//	    [core/kin] package (relationship graph, first parent wins)
//	         ↓
//	    [core/hierarchy] package (descendant tree from the chosen root)
//	         ↓
//	    [core/layout] package (tidy-tree positions)
//	         ↓
//	    [core/render] and [core/viewport] (SVG/PNG/PDF/JSON/DOT, pan/zoom/hit-test)
//
// # Quick Start
//
//	import (
//	    "github.com/matzehuels/kintree/pkg/core/layout"
//	    "github.com/matzehuels/kintree/pkg/core/render/sink"
//	    "github.com/matzehuels/kintree/pkg/core/viewport"
//	    "github.com/matzehuels/kintree/pkg/family"
//	    "github.com/matzehuels/kintree/pkg/pipeline"
//	)
//
//	snap, _ := family.ReadSnapshotFile("family.json")
//	_, _, l := pipeline.ComputeLayout(snap.People, layout.DefaultOptions())
//	svg := sink.RenderSVG(l)
//
//	vp := viewport.New(l)
//	vp.Initialize(800, 600)
//	if id, ok := vp.OnNodeActivated(viewport.Point{X: 400, Y: 100}); ok {
//	    // id is the person under the click
//	}
//
// Most callers go through [pipeline.Runner], which adds content-addressed
// caching around the layout and render stages and is shared by the CLI and
// the HTTP server.
//
// [family]: https://pkg.go.dev/github.com/matzehuels/kintree/pkg/family
// [core]: https://pkg.go.dev/github.com/matzehuels/kintree/pkg/core
// [core/kin]: https://pkg.go.dev/github.com/matzehuels/kintree/pkg/core/kin
// [core/hierarchy]: https://pkg.go.dev/github.com/matzehuels/kintree/pkg/core/hierarchy
// [core/layout]: https://pkg.go.dev/github.com/matzehuels/kintree/pkg/core/layout
// [core/render]: https://pkg.go.dev/github.com/matzehuels/kintree/pkg/core/render
// [core/viewport]: https://pkg.go.dev/github.com/matzehuels/kintree/pkg/core/viewport
// [pipeline]: https://pkg.go.dev/github.com/matzehuels/kintree/pkg/pipeline
// [pipeline.Runner]: https://pkg.go.dev/github.com/matzehuels/kintree/pkg/pipeline#Runner
// [store]: https://pkg.go.dev/github.com/matzehuels/kintree/pkg/store
// [cache]: https://pkg.go.dev/github.com/matzehuels/kintree/pkg/cache
package pkg
