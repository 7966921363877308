package layout

import (
	"encoding/json"
	"math"

	"github.com/matzehuels/kintree/pkg/core/hierarchy"
	"github.com/matzehuels/kintree/pkg/family"
)

// Node is a positioned person. X and Y are the card centre.
type Node struct {
	ID        string        `json:"id"`
	FirstName string        `json:"firstName"`
	LastName  string        `json:"lastName"`
	Gender    family.Gender `json:"gender"`
	Depth     int           `json:"depth"`
	X         float64       `json:"x"`
	Y         float64       `json:"y"`
	Extent    float64       `json:"extent"`
	ParentID  string        `json:"parentId,omitempty"`
}

// Contains reports whether (px, py) falls on a w x h card centred on n.
// Edges count as inside.
func (n Node) Contains(px, py, w, h float64) bool {
	return math.Abs(px-n.X) <= w/2 && math.Abs(py-n.Y) <= h/2
}

// Link connects a parent to a child by identifier.
type Link struct {
	Source string `json:"source"`
	Target string `json:"target"`
}

// Bounds is the box enclosing every card.
type Bounds struct {
	MinX float64 `json:"minX"`
	MinY float64 `json:"minY"`
	MaxX float64 `json:"maxX"`
	MaxY float64 `json:"maxY"`
}

func (b Bounds) Width() float64  { return b.MaxX - b.MinX }
func (b Bounds) Height() float64 { return b.MaxY - b.MinY }

// Layout is the positioned tree. Nodes are in pre-order, root first.
type Layout struct {
	Nodes   []Node  `json:"nodes"`
	Links   []Link  `json:"links"`
	Bounds  Bounds  `json:"bounds"`
	Options Options `json:"options"`

	index map[string]int
}

// Compute positions root and its descendants. A nil root yields an empty
// layout.
func Compute(root *hierarchy.Node, opts ...Option) Layout {
	o := DefaultOptions()
	for _, opt := range opts {
		opt(&o)
	}
	o = o.WithDefaults()

	l := Layout{Nodes: []Node{}, Links: []Link{}, Options: o}
	if root == nil {
		l.index = map[string]int{}
		return l
	}

	extents := make(map[*hierarchy.Node]float64, root.Size())
	measure(root, o.SiblingGutter, extents)

	var place func(h *hierarchy.Node, left float64, parentID string)
	place = func(h *hierarchy.Node, left float64, parentID string) {
		ext := extents[h]
		l.Nodes = append(l.Nodes, Node{
			ID:        h.ID(),
			FirstName: h.Person.FirstName,
			LastName:  h.Person.LastName,
			Gender:    orUnspecified(h.Person.Gender),
			Depth:     h.Depth,
			X:         left + ext/2,
			Y:         float64(h.Depth) * o.LevelGutter,
			Extent:    ext,
			ParentID:  parentID,
		})
		for _, c := range h.Children {
			l.Links = append(l.Links, Link{Source: h.ID(), Target: c.ID()})
			place(c, left, h.ID())
			left += extents[c]
		}
	}
	// Starting at -extent/2 puts the root's midpoint on x = 0.
	place(root, -extents[root]/2, "")

	l.Bounds = bounds(l.Nodes, o)
	l.index = buildIndex(l.Nodes)
	return l
}

func orUnspecified(g family.Gender) family.Gender {
	if g == "" {
		return family.GenderUnspecified
	}
	return g
}

func measure(h *hierarchy.Node, gutter float64, out map[*hierarchy.Node]float64) float64 {
	if h.IsLeaf() {
		out[h] = gutter
		return gutter
	}
	var sum float64
	for _, c := range h.Children {
		sum += measure(c, gutter, out)
	}
	out[h] = sum
	return sum
}

func bounds(nodes []Node, o Options) Bounds {
	if len(nodes) == 0 {
		return Bounds{}
	}
	b := Bounds{
		MinX: math.Inf(1), MinY: math.Inf(1),
		MaxX: math.Inf(-1), MaxY: math.Inf(-1),
	}
	hw, hh := o.NodeWidth/2, o.NodeHeight/2
	for _, n := range nodes {
		b.MinX = math.Min(b.MinX, n.X-hw)
		b.MaxX = math.Max(b.MaxX, n.X+hw)
		b.MinY = math.Min(b.MinY, n.Y-hh)
		b.MaxY = math.Max(b.MaxY, n.Y+hh)
	}
	return b
}

func buildIndex(nodes []Node) map[string]int {
	idx := make(map[string]int, len(nodes))
	for i, n := range nodes {
		idx[n.ID] = i
	}
	return idx
}

// Empty reports whether the layout has no nodes.
func (l Layout) Empty() bool { return len(l.Nodes) == 0 }

// Len returns the number of positioned nodes.
func (l Layout) Len() int { return len(l.Nodes) }

// Root returns the first node. ok is false for an empty layout.
func (l Layout) Root() (Node, bool) {
	if len(l.Nodes) == 0 {
		return Node{}, false
	}
	return l.Nodes[0], true
}

// Lookup returns the node with the given identifier.
func (l Layout) Lookup(id string) (Node, bool) {
	if l.index != nil {
		i, ok := l.index[id]
		if !ok {
			return Node{}, false
		}
		return l.Nodes[i], true
	}
	for _, n := range l.Nodes {
		if n.ID == id {
			return n, true
		}
	}
	return Node{}, false
}

// At returns the topmost node whose card contains the layout-space point
// (x, y). Later nodes are painted over earlier ones, so the search runs
// back to front.
func (l Layout) At(x, y float64) (Node, bool) {
	for i := len(l.Nodes) - 1; i >= 0; i-- {
		if n := l.Nodes[i]; n.Contains(x, y, l.Options.NodeWidth, l.Options.NodeHeight) {
			return n, true
		}
	}
	return Node{}, false
}

// UnmarshalJSON decodes a layout and rebuilds its lookup index.
func (l *Layout) UnmarshalJSON(data []byte) error {
	type plain Layout
	var p plain
	if err := json.Unmarshal(data, &p); err != nil {
		return err
	}
	if p.Nodes == nil {
		p.Nodes = []Node{}
	}
	if p.Links == nil {
		p.Links = []Link{}
	}
	for i := range p.Nodes {
		p.Nodes[i].Gender = orUnspecified(p.Nodes[i].Gender)
	}
	p.Options = p.Options.WithDefaults()
	*l = Layout(p)
	l.index = buildIndex(l.Nodes)
	return nil
}

// Marshal encodes the layout as indented JSON.
func Marshal(l Layout) ([]byte, error) {
	return json.MarshalIndent(l, "", "  ")
}

// Unmarshal decodes a layout produced by [Marshal].
func Unmarshal(data []byte) (Layout, error) {
	var l Layout
	if err := json.Unmarshal(data, &l); err != nil {
		return Layout{}, err
	}
	return l, nil
}
