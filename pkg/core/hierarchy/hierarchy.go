package hierarchy

import (
	"github.com/matzehuels/kintree/pkg/core/kin"
	"github.com/matzehuels/kintree/pkg/family"
)

// Node is one person placed in the hierarchy.
type Node struct {
	Person   family.Person
	Depth    int
	Children []*Node
	Parent   *Node
}

// ID returns the person identifier.
func (n *Node) ID() string { return n.Person.ID }

// IsLeaf reports whether the node has no children.
func (n *Node) IsLeaf() bool { return len(n.Children) == 0 }

// SelectRoot returns the identifier the hierarchy should be anchored at.
// ok is false when the graph is empty.
func SelectRoot(g *kin.Graph) (id string, ok bool) {
	nodes := g.Nodes()
	if len(nodes) == 0 {
		return "", false
	}
	for _, n := range nodes {
		if !g.HasParent(n.ID()) {
			return n.ID(), true
		}
	}
	return nodes[0].ID(), true
}

// Build grows the hierarchy from rootID. It returns nil if rootID is not in g.
func Build(g *kin.Graph, rootID string) *Node {
	start, ok := g.Node(rootID)
	if !ok {
		return nil
	}

	placed := map[string]struct{}{rootID: {}}
	root := &Node{Person: start.Person}

	var grow func(h *Node, a *kin.Node)
	grow = func(h *Node, a *kin.Node) {
		for _, c := range a.Children {
			if _, done := placed[c.ID()]; done {
				continue
			}
			placed[c.ID()] = struct{}{}
			child := &Node{Person: c.Person, Depth: h.Depth + 1, Parent: h}
			h.Children = append(h.Children, child)
			grow(child, c)
		}
	}
	grow(root, start)
	return root
}

// FromGraph selects the root and builds the hierarchy in one step.
// ok is false when there is no data.
func FromGraph(g *kin.Graph) (*Node, bool) {
	id, ok := SelectRoot(g)
	if !ok {
		return nil, false
	}
	return Build(g, id), true
}

// Walk visits n and its descendants in pre-order. Returning false from fn
// skips the children of the visited node.
func (n *Node) Walk(fn func(*Node) bool) {
	if n == nil {
		return
	}
	if !fn(n) {
		return
	}
	for _, c := range n.Children {
		c.Walk(fn)
	}
}

// Descendants returns n and all nodes below it in pre-order.
func (n *Node) Descendants() []*Node {
	var out []*Node
	n.Walk(func(d *Node) bool {
		out = append(out, d)
		return true
	})
	return out
}

// Link is a parent → child pair in the hierarchy.
type Link struct {
	Source *Node
	Target *Node
}

// Links returns every parent → child pair below n in pre-order.
func (n *Node) Links() []Link {
	var out []Link
	n.Walk(func(d *Node) bool {
		for _, c := range d.Children {
			out = append(out, Link{Source: d, Target: c})
		}
		return true
	})
	return out
}

// Size returns the number of nodes in the subtree rooted at n.
func (n *Node) Size() int {
	count := 0
	n.Walk(func(*Node) bool {
		count++
		return true
	})
	return count
}

// Height returns the depth of the deepest descendant relative to n.
func (n *Node) Height() int {
	h := 0
	n.Walk(func(d *Node) bool {
		if rel := d.Depth - n.Depth; rel > h {
			h = rel
		}
		return true
	})
	return h
}
