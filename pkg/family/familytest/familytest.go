// Package familytest builds people and relationship fixtures for tests.
package familytest

import (
	"fmt"

	"github.com/matzehuels/kintree/pkg/family"
)

// Builder accumulates people and records every edge on both parties, the
// way the record store returns them.
type Builder struct {
	people []family.Person
	index  map[string]int
	next   int
}

// New creates a builder with one person per id, in order. First names
// default to the id.
func New(ids ...string) *Builder {
	b := &Builder{index: make(map[string]int)}
	for _, id := range ids {
		b.Person(id)
	}
	return b
}

// Person appends a person if it does not exist yet.
func (b *Builder) Person(id string) *Builder {
	if _, ok := b.index[id]; ok {
		return b
	}
	b.index[id] = len(b.people)
	b.people = append(b.people, family.Person{
		ID:        id,
		FirstName: id,
		Gender:    family.GenderUnspecified,
		AsFirst:   []family.Relationship{},
		AsSecond:  []family.Relationship{},
	})
	return b
}

// Gender sets the gender of an existing person.
func (b *Builder) Gender(id string, g family.Gender) *Builder {
	b.people[b.index[id]].Gender = g
	return b
}

// Edge records an edge of the given kind on both parties. Parties missing
// from the builder only get the edge on the side that exists, which is how
// dangling references look in real data.
func (b *Builder) Edge(from, to string, kind family.Kind) *Builder {
	b.next++
	r := family.Relationship{
		ID:        fmt.Sprintf("r%d", b.next),
		Person1ID: from,
		Person2ID: to,
		Kind:      kind,
	}
	if i, ok := b.index[from]; ok {
		b.people[i].AsFirst = append(b.people[i].AsFirst, r)
	}
	if i, ok := b.index[to]; ok {
		b.people[i].AsSecond = append(b.people[i].AsSecond, r)
	}
	return b
}

// Parent records a PARENT_CHILD edge.
func (b *Builder) Parent(parent, child string) *Builder {
	return b.Edge(parent, child, family.KindParentChild)
}

// Spouse records a SPOUSE edge.
func (b *Builder) Spouse(a, c string) *Builder {
	return b.Edge(a, c, family.KindSpouse)
}

// People returns the accumulated people in insertion order.
func (b *Builder) People() []family.Person { return b.people }

// Snapshot wraps the people in a snapshot with the given tree id.
func (b *Builder) Snapshot(treeID string) *family.Snapshot {
	return &family.Snapshot{TreeID: treeID, People: b.people}
}
