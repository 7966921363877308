package family

import (
	"strings"

	"github.com/matzehuels/kintree/pkg/errors"
)

// Gender is drawn from a closed set.
type Gender string

const (
	GenderMale        Gender = "male"
	GenderFemale      Gender = "female"
	GenderOther       Gender = "other"
	GenderUnspecified Gender = "unspecified"
)

// NormalizeGender maps free-form input onto the closed set. Unrecognised
// values become GenderUnspecified.
func NormalizeGender(s string) Gender {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "m", "male":
		return GenderMale
	case "f", "female":
		return GenderFemale
	case "o", "other":
		return GenderOther
	default:
		return GenderUnspecified
	}
}

// ParseGender is the strict form of NormalizeGender: the empty string maps to
// GenderUnspecified, anything unrecognised is an INVALID_GENDER error.
func ParseGender(s string) (Gender, error) {
	trimmed := strings.ToLower(strings.TrimSpace(s))
	if trimmed == "" || trimmed == string(GenderUnspecified) {
		return GenderUnspecified, nil
	}
	g := NormalizeGender(trimmed)
	if g == GenderUnspecified {
		return g, errors.New(errors.ErrCodeInvalidGender, "unknown gender: %q", s)
	}
	return g, nil
}

// UnmarshalText normalises the value.
func (g *Gender) UnmarshalText(b []byte) error {
	*g = NormalizeGender(string(b))
	return nil
}

// MarshalText writes the canonical form; the zero value is written as unspecified.
func (g Gender) MarshalText() ([]byte, error) {
	if g == "" {
		return []byte(GenderUnspecified), nil
	}
	return []byte(g), nil
}
