// Package store keeps family trees, people and relationships on behalf of
// their owners.
//
// Every operation is scoped to the caller: a record that exists but belongs
// to someone else yields [ErrForbidden], a record that does not exist
// yields [ErrNotFound]. Returned errors carry a pkg/errors code so the HTTP
// layer can map them to status codes; match them with errors.Is.
//
// Two backends implement [Store]:
//   - memory: process-local, used by tests, the CLI and the default server
//   - mongo: MongoDB-backed, for deployments that share records
//
// [Store.Snapshot] is the bridge to the layout core: it returns a tree's
// people in creation order with both edge lists filled.
package store

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"

	apperr "github.com/matzehuels/kintree/pkg/errors"
	"github.com/matzehuels/kintree/pkg/family"
)

// Sentinel errors for store operations.
var (
	// ErrNotFound is returned when a record does not exist.
	ErrNotFound = errors.New("not found")

	// ErrForbidden is returned when a record belongs to another owner.
	ErrForbidden = errors.New("access denied")
)

// Media types accepted by AddMedia.
const (
	MediaImage    = "IMAGE"
	MediaDocument = "DOCUMENT"
)

// Tree is a family tree record.
type Tree struct {
	ID          string    `json:"id"`
	Name        string    `json:"name"`
	Description string    `json:"description,omitempty"`
	OwnerID     string    `json:"ownerId"`
	CreatedAt   time.Time `json:"createdAt"`
	UpdatedAt   time.Time `json:"updatedAt"`
	PeopleCount int       `json:"peopleCount"`
}

// TreeInput holds the editable fields of a tree.
type TreeInput struct {
	Name        string `json:"name"`
	Description string `json:"description,omitempty"`
}

// PersonInput holds the editable fields of a person. TreeID is only read
// on creation.
type PersonInput struct {
	TreeID     string        `json:"treeId,omitempty"`
	FirstName  string        `json:"firstName"`
	LastName   string        `json:"lastName"`
	Gender     family.Gender `json:"gender"`
	BirthDate  *time.Time    `json:"birthDate,omitempty"`
	DeathDate  *time.Time    `json:"deathDate,omitempty"`
	BirthPlace string        `json:"birthPlace,omitempty"`
	DeathPlace string        `json:"deathPlace,omitempty"`
	Bio        string        `json:"bio,omitempty"`
}

// RelationshipInput describes a new edge.
type RelationshipInput struct {
	Person1ID string      `json:"person1Id"`
	Person2ID string      `json:"person2Id"`
	Kind      family.Kind `json:"type"`
}

// Store is the interface for record storage backends.
type Store interface {
	// ListTrees returns the owner's trees, oldest first, with PeopleCount set.
	ListTrees(ctx context.Context, owner string) ([]Tree, error)
	CreateTree(ctx context.Context, owner string, in TreeInput) (*Tree, error)
	GetTree(ctx context.Context, owner, id string) (*Tree, error)
	UpdateTree(ctx context.Context, owner, id string, in TreeInput) (*Tree, error)
	// DeleteTree removes the tree with all its people and relationships.
	DeleteTree(ctx context.Context, owner, id string) error

	// CreatePerson adds a person to a tree owned by owner.
	CreatePerson(ctx context.Context, owner string, in PersonInput) (*family.Person, error)
	// GetPerson returns the person with edges and media.
	GetPerson(ctx context.Context, owner, id string) (*family.Person, error)
	UpdatePerson(ctx context.Context, owner, id string, in PersonInput) (*family.Person, error)
	// DeletePerson removes the person and every relationship touching it.
	DeletePerson(ctx context.Context, owner, id string) error

	// CreateRelationship links two people of the same tree. Person1 must
	// be owned by owner.
	CreateRelationship(ctx context.Context, owner string, in RelationshipInput) (*family.Relationship, error)
	DeleteRelationship(ctx context.Context, owner, id string) error

	// AddMedia records a media reference on a person.
	AddMedia(ctx context.Context, owner, personID string, m family.Media) (*family.Media, error)

	// Snapshot returns the tree's people in creation order with both
	// edge lists filled.
	Snapshot(ctx context.Context, owner, treeID string) (*family.Snapshot, error)

	Close() error
}

// NewID returns a time-ordered record identifier, so sorting by ID
// preserves creation order.
func NewID() string {
	id, err := uuid.NewV7()
	if err != nil {
		return uuid.NewString()
	}
	return id.String()
}

// =============================================================================
// Errors
// =============================================================================

// TreeNotFound returns ErrNotFound tagged for a tree.
func TreeNotFound(id string) error {
	return apperr.Wrap(apperr.ErrCodeTreeNotFound, ErrNotFound, "tree %s", id)
}

// PersonNotFound returns ErrNotFound tagged for a person.
func PersonNotFound(id string) error {
	return apperr.Wrap(apperr.ErrCodePersonNotFound, ErrNotFound, "person %s", id)
}

// RelationshipNotFound returns ErrNotFound tagged for a relationship.
func RelationshipNotFound(id string) error {
	return apperr.Wrap(apperr.ErrCodeRelationshipNotFound, ErrNotFound, "relationship %s", id)
}

// Forbidden returns ErrForbidden tagged with the record kind.
func Forbidden(kind, id string) error {
	return apperr.Wrap(apperr.ErrCodeForbidden, ErrForbidden, "%s %s", kind, id)
}

// SameTreeError is returned when a relationship would span two trees.
func SameTreeError(person1, person2 string) error {
	return apperr.New(apperr.ErrCodeInvalidInput, "people %s and %s belong to different trees", person1, person2)
}

// =============================================================================
// Validation
// =============================================================================

// ValidateOwner rejects empty or malformed owner identifiers.
func ValidateOwner(owner string) error {
	if owner == "" {
		return apperr.New(apperr.ErrCodeUnauthorized, "missing owner")
	}
	return apperr.ValidateID("owner", owner)
}

// Normalize trims the tree input and validates it.
func (in TreeInput) Normalize() (TreeInput, error) {
	in.Name = strings.TrimSpace(in.Name)
	in.Description = strings.TrimSpace(in.Description)
	if err := apperr.ValidateName("name", in.Name, true); err != nil {
		return in, err
	}
	if err := apperr.ValidateText("description", in.Description); err != nil {
		return in, err
	}
	return in, nil
}

// Normalize trims the person input, maps the gender onto the known values
// and validates it.
func (in PersonInput) Normalize() (PersonInput, error) {
	in.FirstName = strings.TrimSpace(in.FirstName)
	in.LastName = strings.TrimSpace(in.LastName)
	in.BirthPlace = strings.TrimSpace(in.BirthPlace)
	in.DeathPlace = strings.TrimSpace(in.DeathPlace)
	in.Gender = family.NormalizeGender(string(in.Gender))

	for _, f := range []struct{ field, value string }{
		{"firstName", in.FirstName},
		{"lastName", in.LastName},
		{"birthPlace", in.BirthPlace},
		{"deathPlace", in.DeathPlace},
	} {
		if err := apperr.ValidateName(f.field, f.value, false); err != nil {
			return in, err
		}
	}
	if err := apperr.ValidateText("bio", in.Bio); err != nil {
		return in, err
	}
	if in.BirthDate != nil && in.DeathDate != nil && in.DeathDate.Before(*in.BirthDate) {
		return in, apperr.New(apperr.ErrCodeInvalidInput, "deathDate is before birthDate")
	}
	return in, nil
}

// Apply copies the input onto p, keeping its identity, edges and media.
func (in PersonInput) Apply(p family.Person) family.Person {
	p.FirstName = in.FirstName
	p.LastName = in.LastName
	p.Gender = in.Gender
	p.BirthDate = in.BirthDate
	p.DeathDate = in.DeathDate
	p.BirthPlace = in.BirthPlace
	p.DeathPlace = in.DeathPlace
	p.Bio = in.Bio
	return p
}

// Validate checks identifiers and the relationship kind.
func (in RelationshipInput) Validate() error {
	if err := apperr.ValidateID("person1", in.Person1ID); err != nil {
		return err
	}
	if err := apperr.ValidateID("person2", in.Person2ID); err != nil {
		return err
	}
	if in.Person1ID == in.Person2ID {
		return apperr.New(apperr.ErrCodeInvalidInput, "a person cannot be related to themselves")
	}
	if !in.Kind.Known() {
		return apperr.New(apperr.ErrCodeInvalidKind, "unknown relationship type %q", in.Kind)
	}
	return nil
}

// NormalizeMedia validates a media reference and upper-cases its type.
func NormalizeMedia(m family.Media) (family.Media, error) {
	if err := apperr.ValidateURL(m.URL); err != nil {
		return m, err
	}
	m.Type = strings.ToUpper(strings.TrimSpace(m.Type))
	switch m.Type {
	case "":
		m.Type = MediaImage
	case MediaImage, MediaDocument:
	default:
		return m, apperr.New(apperr.ErrCodeInvalidInput, "unknown media type %q", m.Type)
	}
	return m, nil
}
