package kin

import (
	"slices"
	"testing"

	"github.com/matzehuels/kintree/pkg/family"
	"github.com/matzehuels/kintree/pkg/family/familytest"
)

func TestBuild(t *testing.T) {
	tests := []struct {
		name  string
		build func() []family.Person
		check func(t *testing.T, g *Graph)
	}{
		{
			name:  "Empty",
			build: func() []family.Person { return nil },
			check: func(t *testing.T, g *Graph) {
				if !g.Empty() || g.Len() != 0 {
					t.Errorf("Len = %d, want empty", g.Len())
				}
			},
		},
		{
			name: "Scenario",
			build: func() []family.Person {
				return familytest.New("A", "B", "C", "D").
					Parent("A", "B").Parent("A", "C").Parent("B", "D").People()
			},
			check: func(t *testing.T, g *Graph) {
				if got := g.Children("A"); !slices.Equal(got, []string{"B", "C"}) {
					t.Errorf("Children(A) = %v, want [B C]", got)
				}
				if got := g.Children("B"); !slices.Equal(got, []string{"D"}) {
					t.Errorf("Children(B) = %v, want [D]", got)
				}
				if g.HasParent("A") {
					t.Error("A should have no parent")
				}
				for _, id := range []string{"B", "C", "D"} {
					if !g.HasParent(id) {
						t.Errorf("%s should have a parent", id)
					}
				}
				if got := len(g.Edges()); got != 3 {
					t.Errorf("edges = %d, want 3 (dual-listed edges counted once)", got)
				}
			},
		},
		{
			name: "FirstParentEdgeWins",
			build: func() []family.Person {
				return familytest.New("A", "F", "E").
					Parent("A", "E").Parent("F", "E").People()
			},
			check: func(t *testing.T, g *Graph) {
				if got := g.Children("A"); !slices.Equal(got, []string{"E"}) {
					t.Errorf("Children(A) = %v, want [E]", got)
				}
				if got := g.Children("F"); len(got) != 0 {
					t.Errorf("Children(F) = %v, want none", got)
				}
				want := []Edge{{Parent: "F", Child: "E"}}
				if got := g.Dropped(); !slices.Equal(got, want) {
					t.Errorf("Dropped = %v, want %v", got, want)
				}
				e, _ := g.Node("E")
				if e.Parent().ID() != "A" {
					t.Errorf("E parent = %s, want A", e.Parent().ID())
				}
			},
		},
		{
			name: "SecondPartyEdgesConsumed",
			build: func() []family.Person {
				// Only the child lists the edge: the parent's own list is empty.
				p := familytest.New("child", "parent").People()
				p[0].AsSecond = []family.Relationship{{Person1ID: "parent", Person2ID: "child", Kind: family.KindParentChild}}
				return p
			},
			check: func(t *testing.T, g *Graph) {
				if got := g.Children("parent"); !slices.Equal(got, []string{"child"}) {
					t.Errorf("Children(parent) = %v, want [child]", got)
				}
				if !g.HasParent("child") {
					t.Error("child should have a parent")
				}
			},
		},
		{
			name: "DanglingEdgeSkipped",
			build: func() []family.Person {
				return familytest.New("A").Parent("A", "ghost").Parent("ghost2", "A").People()
			},
			check: func(t *testing.T, g *Graph) {
				if got := g.Children("A"); len(got) != 0 {
					t.Errorf("Children(A) = %v, want none", got)
				}
				if g.HasParent("A") {
					t.Error("dangling parent edge must not mark A as having a parent")
				}
				if g.Skipped() != 2 {
					t.Errorf("Skipped = %d, want 2", g.Skipped())
				}
			},
		},
		{
			name: "SelfEdgeSkipped",
			build: func() []family.Person {
				return familytest.New("A").Parent("A", "A").People()
			},
			check: func(t *testing.T, g *Graph) {
				if g.HasParent("A") || len(g.Children("A")) != 0 {
					t.Error("self edge should be ignored")
				}
			},
		},
		{
			name: "SpouseCarriedNotAdjacent",
			build: func() []family.Person {
				return familytest.New("A", "B").Spouse("A", "B").
					Edge("A", "B", "GODPARENT").People()
			},
			check: func(t *testing.T, g *Graph) {
				if len(g.Children("A")) != 0 || g.HasParent("B") {
					t.Error("non PARENT_CHILD edges must not create adjacency")
				}
				a, _ := g.Node("A")
				b, _ := g.Node("B")
				if len(a.Others) != 2 || len(b.Others) != 2 {
					t.Errorf("Others = %d/%d, want 2/2", len(a.Others), len(b.Others))
				}
				if got := len(g.OtherEdges()); got != 2 {
					t.Errorf("OtherEdges = %d, want 2", got)
				}
			},
		},
		{
			name: "DuplicatePersonFirstWins",
			build: func() []family.Person {
				p := familytest.New("A", "B").People()
				dup := p[0]
				dup.FirstName = "Impostor"
				return append(p, dup)
			},
			check: func(t *testing.T, g *Graph) {
				if g.Len() != 2 {
					t.Errorf("Len = %d, want 2", g.Len())
				}
				a, _ := g.Node("A")
				if a.Person.FirstName != "A" {
					t.Errorf("FirstName = %q, want first record", a.Person.FirstName)
				}
			},
		},
		{
			name: "Cycle",
			build: func() []family.Person {
				return familytest.New("A", "B", "C").
					Parent("A", "B").Parent("B", "C").Parent("C", "A").People()
			},
			check: func(t *testing.T, g *Graph) {
				for _, id := range []string{"A", "B", "C"} {
					if !g.HasParent(id) {
						t.Errorf("%s should have a parent", id)
					}
				}
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tt.check(t, Build(tt.build()))
		})
	}
}

func TestBuildPreservesInputOrder(t *testing.T) {
	g := Build(familytest.New("z", "a", "m").People())

	var got []string
	for i, n := range g.Nodes() {
		got = append(got, n.ID())
		if n.Index() != i {
			t.Errorf("Index(%s) = %d, want %d", n.ID(), n.Index(), i)
		}
	}
	if !slices.Equal(got, []string{"z", "a", "m"}) {
		t.Errorf("order = %v, want [z a m]", got)
	}
}

func TestBuildStripsEdgesFromIdentity(t *testing.T) {
	g := Build(familytest.New("A", "B").Parent("A", "B").People())
	a, _ := g.Node("A")
	if a.Person.AsFirst != nil || a.Person.AsSecond != nil {
		t.Error("node person should not carry edge lists")
	}
}
