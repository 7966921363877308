package kin

import (
	"github.com/matzehuels/kintree/pkg/family"
)

// Node is the adjacency entry for one person.
type Node struct {
	// Person is the identity record (edge lists and media stripped).
	Person family.Person
	// Children are the nodes this person owns, in discovery order.
	Children []*Node
	// Others holds the non PARENT_CHILD edges this person takes part in.
	Others []family.Relationship

	parent *Node
	index  int
}

// ID returns the person identifier.
func (n *Node) ID() string { return n.Person.ID }

// Parent returns the owning parent, or nil for unowned nodes.
func (n *Node) Parent() *Node { return n.parent }

// Index returns the position of the person in the input list.
func (n *Node) Index() int { return n.index }

// Edge is a directed parent → child pair.
type Edge struct {
	Parent string
	Child  string
}

// Graph is the output of [Build]. It is immutable once built and safe for
// concurrent reads.
type Graph struct {
	order     []*Node
	nodes     map[string]*Node
	hasParent map[string]struct{}
	edges     []Edge
	dropped   []Edge
	skipped   int
}

// Build constructs the adjacency graph for people. The input is not modified.
func Build(people []family.Person) *Graph {
	g := &Graph{
		nodes:     make(map[string]*Node, len(people)),
		hasParent: make(map[string]struct{}),
	}

	accepted := make([]family.Person, 0, len(people))
	for _, p := range people {
		if p.ID == "" {
			continue
		}
		if _, dup := g.nodes[p.ID]; dup {
			continue
		}
		n := &Node{Person: p.Identity(), index: len(g.order)}
		g.nodes[p.ID] = n
		g.order = append(g.order, n)
		accepted = append(accepted, p)
	}

	b := builder{g: g, seen: make(map[Edge]struct{}), others: make(map[otherKey]struct{})}
	for _, p := range accepted {
		for _, r := range p.AsFirst {
			r.Person1ID = p.ID
			b.add(r)
		}
		for _, r := range p.AsSecond {
			r.Person2ID = p.ID
			b.add(r)
		}
	}
	return g
}

type otherKey struct {
	a, b string
	kind family.Kind
}

type builder struct {
	g      *Graph
	seen   map[Edge]struct{}
	others map[otherKey]struct{}
}

func (b *builder) add(r family.Relationship) {
	src, okS := b.g.nodes[r.Person1ID]
	dst, okD := b.g.nodes[r.Person2ID]
	if !okS || !okD || src == dst {
		b.g.skipped++
		return
	}

	if r.Kind != family.KindParentChild {
		b.addOther(src, dst, r)
		return
	}

	e := Edge{Parent: src.ID(), Child: dst.ID()}
	if _, ok := b.seen[e]; ok {
		return
	}
	b.seen[e] = struct{}{}
	b.g.hasParent[dst.ID()] = struct{}{}

	if dst.parent != nil {
		b.g.dropped = append(b.g.dropped, e)
		return
	}
	dst.parent = src
	src.Children = append(src.Children, dst)
	b.g.edges = append(b.g.edges, e)
}

func (b *builder) addOther(src, dst *Node, r family.Relationship) {
	k := otherKey{r.Person1ID, r.Person2ID, r.Kind}
	if !r.Kind.Directed() && k.a > k.b {
		k.a, k.b = k.b, k.a
	}
	if _, ok := b.others[k]; ok {
		return
	}
	b.others[k] = struct{}{}
	src.Others = append(src.Others, r)
	dst.Others = append(dst.Others, r)
}

// Len returns the number of people in the graph.
func (g *Graph) Len() int { return len(g.order) }

// Empty reports whether the graph has no people.
func (g *Graph) Empty() bool { return len(g.order) == 0 }

// Nodes returns all nodes in input order. The slice must not be modified.
func (g *Graph) Nodes() []*Node { return g.order }

// Node returns the node for id and true, or nil and false if absent.
func (g *Graph) Node(id string) (*Node, bool) {
	n, ok := g.nodes[id]
	return n, ok
}

// HasParent reports whether id is the target of at least one valid
// PARENT_CHILD edge, including edges dropped by the multi-parent rule.
func (g *Graph) HasParent(id string) bool {
	_, ok := g.hasParent[id]
	return ok
}

// Children returns the IDs of the children owned by id, in adjacency order.
func (g *Graph) Children(id string) []string {
	n, ok := g.nodes[id]
	if !ok {
		return nil
	}
	ids := make([]string, len(n.Children))
	for i, c := range n.Children {
		ids[i] = c.ID()
	}
	return ids
}

// Edges returns the parent → child edges that made it into the adjacency,
// in discovery order.
func (g *Graph) Edges() []Edge { return g.edges }

// Dropped returns secondary parent edges discarded by the first-edge-wins rule.
func (g *Graph) Dropped() []Edge { return g.dropped }

// Skipped returns the number of edge occurrences ignored because an endpoint
// was missing or the edge pointed at its own source.
func (g *Graph) Skipped() int { return g.skipped }

// OtherEdges returns all non PARENT_CHILD edges, each once, grouped by
// their first party in input order.
func (g *Graph) OtherEdges() []family.Relationship {
	var out []family.Relationship
	for _, n := range g.order {
		for _, r := range n.Others {
			if r.Person1ID == n.ID() {
				out = append(out, r)
			}
		}
	}
	return out
}
