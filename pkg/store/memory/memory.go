// Package memory implements an in-process [store.Store].
//
// Records live in maps guarded by a single mutex and are lost when the
// process exits. Suitable for tests, the CLI and single-instance servers.
package memory

import (
	"context"
	"sync"
	"time"

	"github.com/matzehuels/kintree/pkg/family"
	"github.com/matzehuels/kintree/pkg/store"
)

type personRecord struct {
	person family.Person // without edges
	treeID string
}

// Store is an in-memory record store.
type Store struct {
	mu sync.RWMutex

	trees     map[string]*store.Tree
	treeOrder []string

	people      map[string]*personRecord
	peopleOrder []string

	rels     map[string]family.Relationship
	relOrder []string

	now func() time.Time
}

var _ store.Store = (*Store)(nil)

// New creates an empty store.
func New() *Store {
	return &Store{
		trees:  make(map[string]*store.Tree),
		people: make(map[string]*personRecord),
		rels:   make(map[string]family.Relationship),
		now:    time.Now,
	}
}

// =============================================================================
// Trees
// =============================================================================

// ListTrees returns the owner's trees in creation order.
func (s *Store) ListTrees(ctx context.Context, owner string) ([]store.Tree, error) {
	if err := store.ValidateOwner(owner); err != nil {
		return nil, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := []store.Tree{}
	for _, id := range s.treeOrder {
		t := s.trees[id]
		if t.OwnerID != owner {
			continue
		}
		out = append(out, s.withCount(t))
	}
	return out, nil
}

func (s *Store) CreateTree(ctx context.Context, owner string, in store.TreeInput) (*store.Tree, error) {
	if err := store.ValidateOwner(owner); err != nil {
		return nil, err
	}
	in, err := in.Normalize()
	if err != nil {
		return nil, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now()
	t := &store.Tree{
		ID:          store.NewID(),
		Name:        in.Name,
		Description: in.Description,
		OwnerID:     owner,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	s.trees[t.ID] = t
	s.treeOrder = append(s.treeOrder, t.ID)
	cp := *t
	return &cp, nil
}

func (s *Store) GetTree(ctx context.Context, owner, id string) (*store.Tree, error) {
	if err := store.ValidateOwner(owner); err != nil {
		return nil, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()

	t, err := s.ownedTree(owner, id)
	if err != nil {
		return nil, err
	}
	cp := s.withCount(t)
	return &cp, nil
}

func (s *Store) UpdateTree(ctx context.Context, owner, id string, in store.TreeInput) (*store.Tree, error) {
	if err := store.ValidateOwner(owner); err != nil {
		return nil, err
	}
	in, err := in.Normalize()
	if err != nil {
		return nil, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	t, err := s.ownedTree(owner, id)
	if err != nil {
		return nil, err
	}
	t.Name = in.Name
	t.Description = in.Description
	t.UpdatedAt = s.now()
	cp := s.withCount(t)
	return &cp, nil
}

func (s *Store) DeleteTree(ctx context.Context, owner, id string) error {
	if err := store.ValidateOwner(owner); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, err := s.ownedTree(owner, id); err != nil {
		return err
	}
	for _, pid := range s.peopleOrder {
		if s.people[pid].treeID == id {
			s.removePerson(pid)
		}
	}
	s.peopleOrder = compact(s.peopleOrder, func(pid string) bool {
		_, ok := s.people[pid]
		return ok
	})
	delete(s.trees, id)
	s.treeOrder = compact(s.treeOrder, func(tid string) bool { return tid != id })
	return nil
}

// =============================================================================
// People
// =============================================================================

func (s *Store) CreatePerson(ctx context.Context, owner string, in store.PersonInput) (*family.Person, error) {
	if err := store.ValidateOwner(owner); err != nil {
		return nil, err
	}
	in, err := in.Normalize()
	if err != nil {
		return nil, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, err := s.ownedTree(owner, in.TreeID); err != nil {
		return nil, err
	}
	p := in.Apply(family.Person{ID: store.NewID()})
	s.people[p.ID] = &personRecord{person: p, treeID: in.TreeID}
	s.peopleOrder = append(s.peopleOrder, p.ID)
	s.touch(in.TreeID)

	out := s.assemble(p.ID)
	return &out, nil
}

func (s *Store) GetPerson(ctx context.Context, owner, id string) (*family.Person, error) {
	if err := store.ValidateOwner(owner); err != nil {
		return nil, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()

	if _, err := s.ownedPerson(owner, id); err != nil {
		return nil, err
	}
	out := s.assemble(id)
	return &out, nil
}

func (s *Store) UpdatePerson(ctx context.Context, owner, id string, in store.PersonInput) (*family.Person, error) {
	if err := store.ValidateOwner(owner); err != nil {
		return nil, err
	}
	in, err := in.Normalize()
	if err != nil {
		return nil, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	rec, err := s.ownedPerson(owner, id)
	if err != nil {
		return nil, err
	}
	rec.person = in.Apply(rec.person)
	s.touch(rec.treeID)
	out := s.assemble(id)
	return &out, nil
}

func (s *Store) DeletePerson(ctx context.Context, owner, id string) error {
	if err := store.ValidateOwner(owner); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	rec, err := s.ownedPerson(owner, id)
	if err != nil {
		return err
	}
	s.removePerson(id)
	s.peopleOrder = compact(s.peopleOrder, func(pid string) bool { return pid != id })
	s.touch(rec.treeID)
	return nil
}

// AddMedia appends a media reference to the person.
func (s *Store) AddMedia(ctx context.Context, owner, personID string, m family.Media) (*family.Media, error) {
	if err := store.ValidateOwner(owner); err != nil {
		return nil, err
	}
	m, err := store.NormalizeMedia(m)
	if err != nil {
		return nil, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	rec, err := s.ownedPerson(owner, personID)
	if err != nil {
		return nil, err
	}
	m.ID = store.NewID()
	rec.person.Media = append(rec.person.Media, m)
	return &m, nil
}

// =============================================================================
// Relationships
// =============================================================================

func (s *Store) CreateRelationship(ctx context.Context, owner string, in store.RelationshipInput) (*family.Relationship, error) {
	if err := store.ValidateOwner(owner); err != nil {
		return nil, err
	}
	if err := in.Validate(); err != nil {
		return nil, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	p1, err := s.ownedPerson(owner, in.Person1ID)
	if err != nil {
		return nil, err
	}
	p2, ok := s.people[in.Person2ID]
	if !ok {
		return nil, store.PersonNotFound(in.Person2ID)
	}
	if p2.treeID != p1.treeID {
		return nil, store.SameTreeError(in.Person1ID, in.Person2ID)
	}

	r := family.Relationship{
		ID:        store.NewID(),
		Person1ID: in.Person1ID,
		Person2ID: in.Person2ID,
		Kind:      in.Kind,
	}
	s.rels[r.ID] = r
	s.relOrder = append(s.relOrder, r.ID)
	s.touch(p1.treeID)
	return &r, nil
}

func (s *Store) DeleteRelationship(ctx context.Context, owner, id string) error {
	if err := store.ValidateOwner(owner); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	r, ok := s.rels[id]
	if !ok {
		return store.RelationshipNotFound(id)
	}
	p1, err := s.ownedPerson(owner, r.Person1ID)
	if err != nil {
		return store.Forbidden("relationship", id)
	}
	delete(s.rels, id)
	s.relOrder = compact(s.relOrder, func(rid string) bool { return rid != id })
	s.touch(p1.treeID)
	return nil
}

// =============================================================================
// Snapshot
// =============================================================================

// Snapshot returns the tree's people in creation order with edges attached.
func (s *Store) Snapshot(ctx context.Context, owner, treeID string) (*family.Snapshot, error) {
	if err := store.ValidateOwner(owner); err != nil {
		return nil, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()

	t, err := s.ownedTree(owner, treeID)
	if err != nil {
		return nil, err
	}
	snap := &family.Snapshot{
		TreeID:      t.ID,
		Name:        t.Name,
		Description: t.Description,
		OwnerID:     t.OwnerID,
		People:      []family.Person{},
	}
	for _, pid := range s.peopleOrder {
		if s.people[pid].treeID == treeID {
			snap.People = append(snap.People, s.assemble(pid))
		}
	}
	return snap, nil
}

// Close is a no-op.
func (s *Store) Close() error { return nil }

// =============================================================================
// Internals (callers hold s.mu)
// =============================================================================

func (s *Store) ownedTree(owner, id string) (*store.Tree, error) {
	t, ok := s.trees[id]
	if !ok {
		return nil, store.TreeNotFound(id)
	}
	if t.OwnerID != owner {
		return nil, store.Forbidden("tree", id)
	}
	return t, nil
}

func (s *Store) ownedPerson(owner, id string) (*personRecord, error) {
	rec, ok := s.people[id]
	if !ok {
		return nil, store.PersonNotFound(id)
	}
	if s.trees[rec.treeID].OwnerID != owner {
		return nil, store.Forbidden("person", id)
	}
	return rec, nil
}

func (s *Store) withCount(t *store.Tree) store.Tree {
	cp := *t
	cp.PeopleCount = 0
	for _, rec := range s.people {
		if rec.treeID == t.ID {
			cp.PeopleCount++
		}
	}
	return cp
}

func (s *Store) touch(treeID string) {
	if t, ok := s.trees[treeID]; ok {
		t.UpdatedAt = s.now()
	}
}

// assemble copies a person and attaches edges and media.
func (s *Store) assemble(id string) family.Person {
	p := s.people[id].person
	p.Media = append([]family.Media(nil), p.Media...)
	p.AsFirst = []family.Relationship{}
	p.AsSecond = []family.Relationship{}
	for _, rid := range s.relOrder {
		r := s.rels[rid]
		if r.Person1ID == id {
			p.AsFirst = append(p.AsFirst, r)
		}
		if r.Person2ID == id {
			p.AsSecond = append(p.AsSecond, r)
		}
	}
	return p
}

// removePerson deletes the person and its relationships. The caller
// compacts peopleOrder.
func (s *Store) removePerson(id string) {
	delete(s.people, id)
	for rid, r := range s.rels {
		if r.Person1ID == id || r.Person2ID == id {
			delete(s.rels, rid)
		}
	}
	s.relOrder = compact(s.relOrder, func(rid string) bool {
		_, ok := s.rels[rid]
		return ok
	})
}

func compact(ids []string, keep func(string) bool) []string {
	out := ids[:0]
	for _, id := range ids {
		if keep(id) {
			out = append(out, id)
		}
	}
	return out
}
