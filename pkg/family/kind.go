package family

import (
	"strings"

	"github.com/matzehuels/kintree/pkg/errors"
)

// Kind is the relationship discriminator.
type Kind string

const (
	// KindParentChild is a directed edge; Person1 is the parent of Person2.
	KindParentChild Kind = "PARENT_CHILD"
	// KindSpouse is an undirected partnership edge.
	KindSpouse Kind = "SPOUSE"
	// KindSibling is an undirected sibling edge recorded without shared parents.
	KindSibling Kind = "SIBLING"
)

// Kinds lists the known relationship kinds in display order.
var Kinds = []Kind{KindParentChild, KindSpouse, KindSibling}

// Known reports whether k is one of the closed set of kinds.
func (k Kind) Known() bool {
	switch k {
	case KindParentChild, KindSpouse, KindSibling:
		return true
	}
	return false
}

// Directed reports whether the edge has a meaningful source and target.
func (k Kind) Directed() bool { return k == KindParentChild }

// String returns the wire representation.
func (k Kind) String() string { return string(k) }

// ParseKind converts s to a known Kind. It accepts any letter case and
// surrounding whitespace, and returns an INVALID_KIND error for anything else.
func ParseKind(s string) (Kind, error) {
	k := normalizeKind(s)
	if !k.Known() {
		return k, errors.New(errors.ErrCodeInvalidKind, "unknown relationship kind: %q", s)
	}
	return k, nil
}

func normalizeKind(s string) Kind {
	return Kind(strings.ToUpper(strings.TrimSpace(s)))
}

// UnmarshalText keeps unknown kinds verbatim but normalises letter case of
// known ones, so "parent_child" and "PARENT_CHILD" are the same edge.
func (k *Kind) UnmarshalText(b []byte) error {
	if n := normalizeKind(string(b)); n.Known() {
		*k = n
		return nil
	}
	*k = Kind(b)
	return nil
}
