package store

import (
	"context"
	"fmt"

	"github.com/matzehuels/kintree/pkg/family"
)

// ImportStats summarises an Import.
type ImportStats struct {
	People        int `json:"people"`
	Relationships int `json:"relationships"`
	Skipped       int `json:"skipped"` // edges with unknown people, self edges or unknown kinds
}

// Import copies a snapshot into a new tree owned by owner. Records get
// fresh identifiers; an edge listed on both parties is created once.
// When name is empty the snapshot's name is used.
func Import(ctx context.Context, s Store, owner string, snap *family.Snapshot, name string) (*Tree, ImportStats, error) {
	var stats ImportStats
	if snap == nil {
		return nil, stats, fmt.Errorf("import: nil snapshot")
	}
	if name == "" {
		name = snap.Name
	}
	if name == "" {
		name = snap.TreeID
	}

	tree, err := s.CreateTree(ctx, owner, TreeInput{Name: name, Description: snap.Description})
	if err != nil {
		return nil, stats, fmt.Errorf("import: create tree: %w", err)
	}

	ids := make(map[string]string, len(snap.People))
	for _, p := range snap.People {
		if _, dup := ids[p.ID]; dup {
			continue
		}
		created, err := s.CreatePerson(ctx, owner, PersonInput{
			TreeID:     tree.ID,
			FirstName:  p.FirstName,
			LastName:   p.LastName,
			Gender:     p.Gender,
			BirthDate:  p.BirthDate,
			DeathDate:  p.DeathDate,
			BirthPlace: p.BirthPlace,
			DeathPlace: p.DeathPlace,
			Bio:        p.Bio,
		})
		if err != nil {
			return tree, stats, fmt.Errorf("import: person %s: %w", p.ID, err)
		}
		ids[p.ID] = created.ID
		stats.People++

		for _, m := range p.Media {
			if _, err := s.AddMedia(ctx, owner, created.ID, m); err != nil {
				return tree, stats, fmt.Errorf("import: media for %s: %w", p.ID, err)
			}
		}
	}

	type edgeKey struct {
		from, to string
		kind     family.Kind
	}
	seen := make(map[string]bool)
	seenKey := make(map[edgeKey]bool)
	for _, p := range snap.People {
		edges := make([]family.Relationship, 0, len(p.AsFirst)+len(p.AsSecond))
		for _, r := range p.AsFirst {
			r.Person1ID = p.ID
			edges = append(edges, r)
		}
		for _, r := range p.AsSecond {
			r.Person2ID = p.ID
			edges = append(edges, r)
		}
		for _, r := range edges {
			if r.ID != "" {
				if seen[r.ID] {
					continue
				}
				seen[r.ID] = true
			}
			k := edgeKey{r.Person1ID, r.Person2ID, r.Kind}
			if seenKey[k] {
				continue
			}
			seenKey[k] = true

			from, okFrom := ids[r.Person1ID]
			to, okTo := ids[r.Person2ID]
			in := RelationshipInput{Person1ID: from, Person2ID: to, Kind: r.Kind}
			if !okFrom || !okTo || in.Validate() != nil {
				stats.Skipped++
				continue
			}
			if _, err := s.CreateRelationship(ctx, owner, in); err != nil {
				return tree, stats, fmt.Errorf("import: relationship %s: %w", r.ID, err)
			}
			stats.Relationships++
		}
	}

	tree.PeopleCount = stats.People
	return tree, stats, nil
}
