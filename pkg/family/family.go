package family

import "time"

// Relationship is a single edge between two people.
// For directed kinds Person1 is the source (the parent).
type Relationship struct {
	ID        string `json:"id,omitempty"`
	Person1ID string `json:"person1Id"`
	Person2ID string `json:"person2Id"`
	Kind      Kind   `json:"type"`
}

// Other returns the identifier of the party that is not personID.
func (r Relationship) Other(personID string) string {
	if r.Person1ID == personID {
		return r.Person2ID
	}
	return r.Person1ID
}

// Media is a reference to an uploaded file attached to a person.
type Media struct {
	ID   string `json:"id,omitempty"`
	URL  string `json:"url"`
	Type string `json:"type"`
}

// Person is one individual in a tree. The core never mutates it.
type Person struct {
	ID         string     `json:"id"`
	FirstName  string     `json:"firstName"`
	LastName   string     `json:"lastName"`
	Gender     Gender     `json:"gender"`
	BirthDate  *time.Time `json:"birthDate,omitempty"`
	DeathDate  *time.Time `json:"deathDate,omitempty"`
	BirthPlace string     `json:"birthPlace,omitempty"`
	DeathPlace string     `json:"deathPlace,omitempty"`
	Bio        string     `json:"bio,omitempty"`
	Media      []Media    `json:"media,omitempty"`

	// AsFirst holds edges where this person is Person1.
	AsFirst []Relationship `json:"relationshipsAsPerson1"`
	// AsSecond holds edges where this person is Person2.
	AsSecond []Relationship `json:"relationshipsAsPerson2"`
}

// DisplayName joins first and last name, skipping empty parts.
func (p Person) DisplayName() string {
	switch {
	case p.FirstName == "":
		return p.LastName
	case p.LastName == "":
		return p.FirstName
	default:
		return p.FirstName + " " + p.LastName
	}
}

// Lifespan formats birth and death years as "1815–1852", "b. 1815" or "".
func (p Person) Lifespan() string {
	switch {
	case p.BirthDate != nil && p.DeathDate != nil:
		return p.BirthDate.Format("2006") + "–" + p.DeathDate.Format("2006")
	case p.BirthDate != nil:
		return "b. " + p.BirthDate.Format("2006")
	case p.DeathDate != nil:
		return "d. " + p.DeathDate.Format("2006")
	}
	return ""
}

// Identity returns a copy of p without edges and media, which is what the
// hierarchy and layout carry around.
func (p Person) Identity() Person {
	p.AsFirst = nil
	p.AsSecond = nil
	p.Media = nil
	return p
}

// Snapshot is the per-tree data set the core lays out.
type Snapshot struct {
	TreeID      string   `json:"id"`
	Name        string   `json:"name,omitempty"`
	Description string   `json:"description,omitempty"`
	OwnerID     string   `json:"ownerId,omitempty"`
	People      []Person `json:"people"`
}

// Empty reports whether there is nothing to lay out.
func (s *Snapshot) Empty() bool { return s == nil || len(s.People) == 0 }

// EdgeCount returns the number of distinct relationship edges referenced by
// the snapshot. Edges listed on both parties are counted once.
func (s *Snapshot) EdgeCount() int {
	if s == nil {
		return 0
	}
	type key struct {
		a, b string
		k    Kind
	}
	seen := make(map[key]struct{})
	add := func(r Relationship) {
		seen[key{r.Person1ID, r.Person2ID, r.Kind}] = struct{}{}
	}
	for _, p := range s.People {
		for _, r := range p.AsFirst {
			add(r)
		}
		for _, r := range p.AsSecond {
			add(r)
		}
	}
	return len(seen)
}
