package pipeline

import (
	"github.com/matzehuels/kintree/pkg/core/hierarchy"
	"github.com/matzehuels/kintree/pkg/core/kin"
	"github.com/matzehuels/kintree/pkg/core/layout"
	"github.com/matzehuels/kintree/pkg/family"
)

// Build turns people into the relationship graph and the displayed
// hierarchy. root is nil when there are no people.
func Build(people []family.Person) (g *kin.Graph, root *hierarchy.Node) {
	g = kin.Build(people)
	root, _ = hierarchy.FromGraph(g)
	return g, root
}

// ComputeLayout runs Build and positions the hierarchy. It never fails:
// malformed data is simplified and an empty snapshot yields an empty layout.
func ComputeLayout(people []family.Person, opts layout.Options) (*kin.Graph, *hierarchy.Node, layout.Layout) {
	g, root := Build(people)
	return g, root, layout.Compute(root, layout.WithOptions(opts))
}
