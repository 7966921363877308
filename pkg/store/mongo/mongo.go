// Package mongo implements [store.Store] on MongoDB.
//
// Trees, people and relationships live in their own collections. Record IDs
// are time-ordered UUIDs, so sorting by _id yields creation order. Media
// references are embedded in the person document.
//
//	s, err := mongo.New(ctx, mongo.Options{URI: "mongodb://localhost:27017", Database: "kintree"})
//	if err != nil {
//	    return err
//	}
//	defer s.Close()
package mongo

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.mongodb.org/mongo-driver/mongo/readpref"

	"github.com/matzehuels/kintree/pkg/cache"
	"github.com/matzehuels/kintree/pkg/family"
	"github.com/matzehuels/kintree/pkg/store"
)

// DefaultDatabase is used when Options.Database is empty.
const DefaultDatabase = "kintree"

// Collection names.
const (
	collTrees         = "trees"
	collPeople        = "people"
	collRelationships = "relationships"
)

// Options configures the connection.
type Options struct {
	URI      string `toml:"uri"`
	Database string `toml:"database"`
}

// Store is a MongoDB-backed record store.
type Store struct {
	client *mongo.Client
	trees  *mongo.Collection
	people *mongo.Collection
	rels   *mongo.Collection
	now    func() time.Time
}

var _ store.Store = (*Store)(nil)

// New connects, pings the primary with retries and ensures indexes.
func New(ctx context.Context, opts Options) (*Store, error) {
	if opts.URI == "" {
		return nil, fmt.Errorf("mongo: URI is required")
	}
	client, err := mongo.Connect(ctx, options.Client().ApplyURI(opts.URI))
	if err != nil {
		return nil, fmt.Errorf("mongo: connect: %w", err)
	}
	err = cache.RetryWithBackoff(ctx, func() error {
		if err := client.Ping(ctx, readpref.Primary()); err != nil {
			return cache.Retryable(err)
		}
		return nil
	})
	if err != nil {
		_ = client.Disconnect(context.Background())
		return nil, fmt.Errorf("mongo: ping: %w", err)
	}

	s := NewFromClient(client, opts.Database)
	if err := s.ensureIndexes(ctx); err != nil {
		_ = client.Disconnect(context.Background())
		return nil, err
	}
	return s, nil
}

// NewFromClient wraps an existing client. Indexes are not created.
func NewFromClient(client *mongo.Client, database string) *Store {
	if database == "" {
		database = DefaultDatabase
	}
	db := client.Database(database)
	return &Store{
		client: client,
		trees:  db.Collection(collTrees),
		people: db.Collection(collPeople),
		rels:   db.Collection(collRelationships),
		now:    time.Now,
	}
}

func (s *Store) ensureIndexes(ctx context.Context) error {
	if _, err := s.trees.Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys: bson.D{{Key: "ownerId", Value: 1}},
	}); err != nil {
		return fmt.Errorf("mongo: index trees: %w", err)
	}
	if _, err := s.people.Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys: bson.D{{Key: "treeId", Value: 1}},
	}); err != nil {
		return fmt.Errorf("mongo: index people: %w", err)
	}
	if _, err := s.rels.Indexes().CreateMany(ctx, []mongo.IndexModel{
		{Keys: bson.D{{Key: "treeId", Value: 1}}},
		{Keys: bson.D{{Key: "person1Id", Value: 1}}},
		{Keys: bson.D{{Key: "person2Id", Value: 1}}},
	}); err != nil {
		return fmt.Errorf("mongo: index relationships: %w", err)
	}
	return nil
}

// Close disconnects the client.
func (s *Store) Close() error {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return s.client.Disconnect(ctx)
}

// =============================================================================
// Documents
// =============================================================================

type treeDoc struct {
	ID          string    `bson:"_id"`
	Name        string    `bson:"name"`
	Description string    `bson:"description,omitempty"`
	OwnerID     string    `bson:"ownerId"`
	CreatedAt   time.Time `bson:"createdAt"`
	UpdatedAt   time.Time `bson:"updatedAt"`
}

func (d treeDoc) tree(count int) *store.Tree {
	return &store.Tree{
		ID:          d.ID,
		Name:        d.Name,
		Description: d.Description,
		OwnerID:     d.OwnerID,
		CreatedAt:   d.CreatedAt,
		UpdatedAt:   d.UpdatedAt,
		PeopleCount: count,
	}
}

type mediaDoc struct {
	ID   string `bson:"id"`
	URL  string `bson:"url"`
	Type string `bson:"type"`
}

type personDoc struct {
	ID         string     `bson:"_id"`
	TreeID     string     `bson:"treeId"`
	FirstName  string     `bson:"firstName"`
	LastName   string     `bson:"lastName"`
	Gender     string     `bson:"gender"`
	BirthDate  *time.Time `bson:"birthDate,omitempty"`
	DeathDate  *time.Time `bson:"deathDate,omitempty"`
	BirthPlace string     `bson:"birthPlace,omitempty"`
	DeathPlace string     `bson:"deathPlace,omitempty"`
	Bio        string     `bson:"bio,omitempty"`
	Media      []mediaDoc `bson:"media,omitempty"`
}

func personToDoc(p family.Person, treeID string) personDoc {
	return personDoc{
		ID:         p.ID,
		TreeID:     treeID,
		FirstName:  p.FirstName,
		LastName:   p.LastName,
		Gender:     string(p.Gender),
		BirthDate:  p.BirthDate,
		DeathDate:  p.DeathDate,
		BirthPlace: p.BirthPlace,
		DeathPlace: p.DeathPlace,
		Bio:        p.Bio,
	}
}

func (d personDoc) person() family.Person {
	p := family.Person{
		ID:         d.ID,
		FirstName:  d.FirstName,
		LastName:   d.LastName,
		Gender:     family.NormalizeGender(d.Gender),
		BirthDate:  d.BirthDate,
		DeathDate:  d.DeathDate,
		BirthPlace: d.BirthPlace,
		DeathPlace: d.DeathPlace,
		Bio:        d.Bio,
		AsFirst:    []family.Relationship{},
		AsSecond:   []family.Relationship{},
	}
	for _, m := range d.Media {
		p.Media = append(p.Media, family.Media{ID: m.ID, URL: m.URL, Type: m.Type})
	}
	return p
}

type relDoc struct {
	ID        string `bson:"_id"`
	TreeID    string `bson:"treeId"`
	Person1ID string `bson:"person1Id"`
	Person2ID string `bson:"person2Id"`
	Kind      string `bson:"type"`
}

func (d relDoc) relationship() family.Relationship {
	return family.Relationship{
		ID:        d.ID,
		Person1ID: d.Person1ID,
		Person2ID: d.Person2ID,
		Kind:      family.Kind(d.Kind),
	}
}

var byID = options.Find().SetSort(bson.D{{Key: "_id", Value: 1}})

// =============================================================================
// Trees
// =============================================================================

func (s *Store) ListTrees(ctx context.Context, owner string) ([]store.Tree, error) {
	if err := store.ValidateOwner(owner); err != nil {
		return nil, err
	}
	cur, err := s.trees.Find(ctx, bson.M{"ownerId": owner}, byID)
	if err != nil {
		return nil, fmt.Errorf("mongo: list trees: %w", err)
	}
	var docs []treeDoc
	if err := cur.All(ctx, &docs); err != nil {
		return nil, fmt.Errorf("mongo: list trees: %w", err)
	}

	out := make([]store.Tree, 0, len(docs))
	for _, d := range docs {
		n, err := s.people.CountDocuments(ctx, bson.M{"treeId": d.ID})
		if err != nil {
			return nil, fmt.Errorf("mongo: count people: %w", err)
		}
		out = append(out, *d.tree(int(n)))
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
	now := s.now().UTC()
	d := treeDoc{
		ID:          store.NewID(),
		Name:        in.Name,
		Description: in.Description,
		OwnerID:     owner,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if _, err := s.trees.InsertOne(ctx, d); err != nil {
		return nil, fmt.Errorf("mongo: create tree: %w", err)
	}
	return d.tree(0), nil
}

func (s *Store) GetTree(ctx context.Context, owner, id string) (*store.Tree, error) {
	if err := store.ValidateOwner(owner); err != nil {
		return nil, err
	}
	d, err := s.ownedTree(ctx, owner, id)
	if err != nil {
		return nil, err
	}
	n, err := s.people.CountDocuments(ctx, bson.M{"treeId": id})
	if err != nil {
		return nil, fmt.Errorf("mongo: count people: %w", err)
	}
	return d.tree(int(n)), nil
}

func (s *Store) UpdateTree(ctx context.Context, owner, id string, in store.TreeInput) (*store.Tree, error) {
	if err := store.ValidateOwner(owner); err != nil {
		return nil, err
	}
	in, err := in.Normalize()
	if err != nil {
		return nil, err
	}
	if _, err := s.ownedTree(ctx, owner, id); err != nil {
		return nil, err
	}
	_, err = s.trees.UpdateByID(ctx, id, bson.M{"$set": bson.M{
		"name":        in.Name,
		"description": in.Description,
		"updatedAt":   s.now().UTC(),
	}})
	if err != nil {
		return nil, fmt.Errorf("mongo: update tree: %w", err)
	}
	return s.GetTree(ctx, owner, id)
}

func (s *Store) DeleteTree(ctx context.Context, owner, id string) error {
	if err := store.ValidateOwner(owner); err != nil {
		return err
	}
	if _, err := s.ownedTree(ctx, owner, id); err != nil {
		return err
	}
	if _, err := s.rels.DeleteMany(ctx, bson.M{"treeId": id}); err != nil {
		return fmt.Errorf("mongo: delete relationships: %w", err)
	}
	if _, err := s.people.DeleteMany(ctx, bson.M{"treeId": id}); err != nil {
		return fmt.Errorf("mongo: delete people: %w", err)
	}
	if _, err := s.trees.DeleteOne(ctx, bson.M{"_id": id}); err != nil {
		return fmt.Errorf("mongo: delete tree: %w", err)
	}
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
	if _, err := s.ownedTree(ctx, owner, in.TreeID); err != nil {
		return nil, err
	}
	p := in.Apply(family.Person{ID: store.NewID()})
	if _, err := s.people.InsertOne(ctx, personToDoc(p, in.TreeID)); err != nil {
		return nil, fmt.Errorf("mongo: create person: %w", err)
	}
	s.touch(ctx, in.TreeID)
	p.AsFirst = []family.Relationship{}
	p.AsSecond = []family.Relationship{}
	return &p, nil
}

func (s *Store) GetPerson(ctx context.Context, owner, id string) (*family.Person, error) {
	if err := store.ValidateOwner(owner); err != nil {
		return nil, err
	}
	d, err := s.ownedPerson(ctx, owner, id)
	if err != nil {
		return nil, err
	}
	p := d.person()
	if err := s.attachEdges(ctx, &p); err != nil {
		return nil, err
	}
	return &p, nil
}

func (s *Store) UpdatePerson(ctx context.Context, owner, id string, in store.PersonInput) (*family.Person, error) {
	if err := store.ValidateOwner(owner); err != nil {
		return nil, err
	}
	in, err := in.Normalize()
	if err != nil {
		return nil, err
	}
	d, err := s.ownedPerson(ctx, owner, id)
	if err != nil {
		return nil, err
	}
	updated := personToDoc(in.Apply(d.person()), d.TreeID)
	updated.Media = d.Media
	if _, err := s.people.ReplaceOne(ctx, bson.M{"_id": id}, updated); err != nil {
		return nil, fmt.Errorf("mongo: update person: %w", err)
	}
	s.touch(ctx, d.TreeID)
	return s.GetPerson(ctx, owner, id)
}

func (s *Store) DeletePerson(ctx context.Context, owner, id string) error {
	if err := store.ValidateOwner(owner); err != nil {
		return err
	}
	d, err := s.ownedPerson(ctx, owner, id)
	if err != nil {
		return err
	}
	filter := bson.M{"$or": bson.A{bson.M{"person1Id": id}, bson.M{"person2Id": id}}}
	if _, err := s.rels.DeleteMany(ctx, filter); err != nil {
		return fmt.Errorf("mongo: delete relationships: %w", err)
	}
	if _, err := s.people.DeleteOne(ctx, bson.M{"_id": id}); err != nil {
		return fmt.Errorf("mongo: delete person: %w", err)
	}
	s.touch(ctx, d.TreeID)
	return nil
}

func (s *Store) AddMedia(ctx context.Context, owner, personID string, m family.Media) (*family.Media, error) {
	if err := store.ValidateOwner(owner); err != nil {
		return nil, err
	}
	m, err := store.NormalizeMedia(m)
	if err != nil {
		return nil, err
	}
	if _, err := s.ownedPerson(ctx, owner, personID); err != nil {
		return nil, err
	}
	m.ID = store.NewID()
	push := bson.M{"$push": bson.M{"media": mediaDoc{ID: m.ID, URL: m.URL, Type: m.Type}}}
	if _, err := s.people.UpdateByID(ctx, personID, push); err != nil {
		return nil, fmt.Errorf("mongo: add media: %w", err)
	}
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
	p1, err := s.ownedPerson(ctx, owner, in.Person1ID)
	if err != nil {
		return nil, err
	}
	p2, err := s.findPerson(ctx, in.Person2ID)
	if err != nil {
		return nil, err
	}
	if p2.TreeID != p1.TreeID {
		return nil, store.SameTreeError(in.Person1ID, in.Person2ID)
	}

	d := relDoc{
		ID:        store.NewID(),
		TreeID:    p1.TreeID,
		Person1ID: in.Person1ID,
		Person2ID: in.Person2ID,
		Kind:      string(in.Kind),
	}
	if _, err := s.rels.InsertOne(ctx, d); err != nil {
		return nil, fmt.Errorf("mongo: create relationship: %w", err)
	}
	s.touch(ctx, p1.TreeID)
	r := d.relationship()
	return &r, nil
}

func (s *Store) DeleteRelationship(ctx context.Context, owner, id string) error {
	if err := store.ValidateOwner(owner); err != nil {
		return err
	}
	var d relDoc
	if err := s.rels.FindOne(ctx, bson.M{"_id": id}).Decode(&d); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return store.RelationshipNotFound(id)
		}
		return fmt.Errorf("mongo: find relationship: %w", err)
	}
	if _, err := s.ownedTree(ctx, owner, d.TreeID); err != nil {
		return store.Forbidden("relationship", id)
	}
	if _, err := s.rels.DeleteOne(ctx, bson.M{"_id": id}); err != nil {
		return fmt.Errorf("mongo: delete relationship: %w", err)
	}
	s.touch(ctx, d.TreeID)
	return nil
}

// =============================================================================
// Snapshot
// =============================================================================

func (s *Store) Snapshot(ctx context.Context, owner, treeID string) (*family.Snapshot, error) {
	if err := store.ValidateOwner(owner); err != nil {
		return nil, err
	}
	t, err := s.ownedTree(ctx, owner, treeID)
	if err != nil {
		return nil, err
	}

	cur, err := s.people.Find(ctx, bson.M{"treeId": treeID}, byID)
	if err != nil {
		return nil, fmt.Errorf("mongo: list people: %w", err)
	}
	var pdocs []personDoc
	if err := cur.All(ctx, &pdocs); err != nil {
		return nil, fmt.Errorf("mongo: list people: %w", err)
	}

	cur, err = s.rels.Find(ctx, bson.M{"treeId": treeID}, byID)
	if err != nil {
		return nil, fmt.Errorf("mongo: list relationships: %w", err)
	}
	var rdocs []relDoc
	if err := cur.All(ctx, &rdocs); err != nil {
		return nil, fmt.Errorf("mongo: list relationships: %w", err)
	}

	snap := &family.Snapshot{
		TreeID:      t.ID,
		Name:        t.Name,
		Description: t.Description,
		OwnerID:     t.OwnerID,
		People:      make([]family.Person, 0, len(pdocs)),
	}
	index := make(map[string]int, len(pdocs))
	for i, d := range pdocs {
		index[d.ID] = i
		snap.People = append(snap.People, d.person())
	}
	for _, d := range rdocs {
		r := d.relationship()
		if i, ok := index[r.Person1ID]; ok {
			snap.People[i].AsFirst = append(snap.People[i].AsFirst, r)
		}
		if i, ok := index[r.Person2ID]; ok {
			snap.People[i].AsSecond = append(snap.People[i].AsSecond, r)
		}
	}
	return snap, nil
}

// =============================================================================
// Internals
// =============================================================================

func (s *Store) ownedTree(ctx context.Context, owner, id string) (treeDoc, error) {
	var d treeDoc
	if err := s.trees.FindOne(ctx, bson.M{"_id": id}).Decode(&d); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return d, store.TreeNotFound(id)
		}
		return d, fmt.Errorf("mongo: find tree: %w", err)
	}
	if d.OwnerID != owner {
		return d, store.Forbidden("tree", id)
	}
	return d, nil
}

func (s *Store) findPerson(ctx context.Context, id string) (personDoc, error) {
	var d personDoc
	if err := s.people.FindOne(ctx, bson.M{"_id": id}).Decode(&d); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return d, store.PersonNotFound(id)
		}
		return d, fmt.Errorf("mongo: find person: %w", err)
	}
	return d, nil
}

func (s *Store) ownedPerson(ctx context.Context, owner, id string) (personDoc, error) {
	d, err := s.findPerson(ctx, id)
	if err != nil {
		return d, err
	}
	if _, err := s.ownedTree(ctx, owner, d.TreeID); err != nil {
		if errors.Is(err, store.ErrNotFound) || errors.Is(err, store.ErrForbidden) {
			return d, store.Forbidden("person", id)
		}
		return d, err
	}
	return d, nil
}

func (s *Store) attachEdges(ctx context.Context, p *family.Person) error {
	filter := bson.M{"$or": bson.A{bson.M{"person1Id": p.ID}, bson.M{"person2Id": p.ID}}}
	cur, err := s.rels.Find(ctx, filter, byID)
	if err != nil {
		return fmt.Errorf("mongo: list relationships: %w", err)
	}
	var docs []relDoc
	if err := cur.All(ctx, &docs); err != nil {
		return fmt.Errorf("mongo: list relationships: %w", err)
	}
	for _, d := range docs {
		r := d.relationship()
		if r.Person1ID == p.ID {
			p.AsFirst = append(p.AsFirst, r)
		}
		if r.Person2ID == p.ID {
			p.AsSecond = append(p.AsSecond, r)
		}
	}
	return nil
}

// touch bumps the tree's updatedAt. Failures only affect the timestamp.
func (s *Store) touch(ctx context.Context, treeID string) {
	_, _ = s.trees.UpdateByID(ctx, treeID, bson.M{"$set": bson.M{"updatedAt": s.now().UTC()}})
}
