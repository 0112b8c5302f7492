// Package domain contains the core packaging model: references, recipes,
// settings, copy rules, dependency graphs and pipeline outcomes.
package domain

import (
	"regexp"
	"strings"

	"go.trai.ch/zerr"
)

// UnsetField is the placeholder for an omitted user or channel.
const UnsetField = "_"

var referenceField = regexp.MustCompile(`^[A-Za-z0-9_][A-Za-z0-9_.+-]*$`)

// Reference identifies a package as name/version@user/channel.
type Reference struct {
	Name    string
	Version string
	User    string
	Channel string
}

// ParseReference parses "name/version" or "name/version@user/channel".
func ParseReference(s string) (Reference, error) {
	raw := strings.TrimSpace(s)
	nameVersion, userChannel, hasAt := strings.Cut(raw, "@")

	name, version, ok := strings.Cut(nameVersion, "/")
	if !ok {
		return Reference{}, zerr.With(ErrInvalidReference, "reference", s)
	}

	ref := Reference{Name: name, Version: version, User: UnsetField, Channel: UnsetField}
	if hasAt {
		user, channel, ok := strings.Cut(userChannel, "/")
		if !ok {
			return Reference{}, zerr.With(ErrInvalidReference, "reference", s)
		}
		ref.User, ref.Channel = user, channel
	}

	if err := ref.Validate(); err != nil {
		return Reference{}, zerr.With(err, "reference", s)
	}
	return ref, nil
}

// MustParseReference is like ParseReference but panics on error.
func MustParseReference(s string) Reference {
	ref, err := ParseReference(s)
	if err != nil {
		panic(err)
	}
	return ref
}

// Validate checks that every component is a non-empty identifier.
func (r Reference) Validate() error {
	for _, field := range []string{r.Name, r.Version, r.User, r.Channel} {
		if !referenceField.MatchString(field) {
			return zerr.With(ErrInvalidReference, "field", field)
		}
	}
	return nil
}

// String renders the canonical form, omitting an unset user and channel.
func (r Reference) String() string {
	s := r.Name + "/" + r.Version
	if r.User == UnsetField && r.Channel == UnsetField {
		return s
	}
	return s + "@" + r.User + "/" + r.Channel
}

// SameRecipe reports whether o names the same package, regardless of version.
func (r Reference) SameRecipe(o Reference) bool {
	return r.Name == o.Name && r.User == o.User && r.Channel == o.Channel
}

// MarshalText implements encoding.TextMarshaler.
func (r Reference) MarshalText() ([]byte, error) {
	return []byte(r.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (r *Reference) UnmarshalText(text []byte) error {
	parsed, err := ParseReference(string(text))
	if err != nil {
		return err
	}
	*r = parsed
	return nil
}
