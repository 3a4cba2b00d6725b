package engine

import (
	"fmt"
	"strings"
)

// Tag identifies which car a shape is and which silhouette accepts it.
// The set is closed; matching compares Tag values, never free-form strings.
type Tag uint8

const (
	TagNone Tag = iota
	TagSedan
	TagHatchback
	TagPickup
	TagVan
	TagBus
	TagTruck
	TagTaxi
	TagPolice
	TagAmbulance
	TagFireTruck
	TagRacer
	TagJeep

	tagCount
)

var tagNames = [...]string{
	TagNone:      "",
	TagSedan:     "sedan",
	TagHatchback: "hatchback",
	TagPickup:    "pickup",
	TagVan:       "van",
	TagBus:       "bus",
	TagTruck:     "truck",
	TagTaxi:      "taxi",
	TagPolice:    "police",
	TagAmbulance: "ambulance",
	TagFireTruck: "firetruck",
	TagRacer:     "racer",
	TagJeep:      "jeep",
}

// AllTags lists every valid tag in declaration order
func AllTags() []Tag {
	tags := make([]Tag, 0, tagCount-1)
	for t := TagSedan; t < tagCount; t++ {
		tags = append(tags, t)
	}
	return tags
}

// Valid reports whether t is one of the declared car tags
func (t Tag) Valid() bool {
	return t > TagNone && t < tagCount
}

func (t Tag) String() string {
	if int(t) < len(tagNames) {
		return tagNames[t]
	}
	return fmt.Sprintf("tag(%d)", uint8(t))
}

// ParseTag converts a tag name (case-insensitive) into a Tag
func ParseTag(s string) (Tag, error) {
	name := strings.ToLower(strings.TrimSpace(s))
	for t := TagSedan; t < tagCount; t++ {
		if tagNames[t] == name {
			return t, nil
		}
	}
	return TagNone, fmt.Errorf("unknown tag %q", s)
}

// MarshalText implements encoding.TextMarshaler
func (t Tag) MarshalText() ([]byte, error) {
	if !t.Valid() {
		return nil, fmt.Errorf("cannot marshal invalid tag %d", uint8(t))
	}
	return []byte(t.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler
func (t *Tag) UnmarshalText(b []byte) error {
	parsed, err := ParseTag(string(b))
	if err != nil {
		return err
	}
	*t = parsed
	return nil
}
