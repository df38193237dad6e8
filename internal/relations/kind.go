package relations

import (
	"errors"
	"fmt"
	"strings"
)

// ErrUnknownKind is returned when parsing a relation kind name fails.
var ErrUnknownKind = errors.New("unknown relation kind")

// Kind is the type of a relation edge.
type Kind uint8

const (
	KindNone Kind = iota
	Spouse
	Father // parent → child
	Mother // parent → child
	Leader // leader → member
	Member // member → leader; the reverse reading of a Leader bond
)

// FamilyKinds are the kinds that make a person part of a family.
var FamilyKinds = []Kind{Spouse, Father, Mother}

// TribeKinds are the kinds that tie a person to a tribe.
var TribeKinds = []Kind{Leader, Member}

var kindNames = map[Kind]string{
	Spouse: "spouse",
	Father: "father",
	Mother: "mother",
	Leader: "leader",
	Member: "member",
}

func (k Kind) String() string {
	if name, ok := kindNames[k]; ok {
		return name
	}
	return fmt.Sprintf("kind(%d)", uint8(k))
}

// Valid reports whether k is one of the five relation kinds.
func (k Kind) Valid() bool {
	_, ok := kindNames[k]
	return ok
}

// Directional reports whether the kind has a source and a target.
func (k Kind) Directional() bool {
	return k == Father || k == Mother || k == Leader || k == Member
}

// Tribal reports whether the kind belongs to the tribe layer.
func (k Kind) Tribal() bool {
	return k == Leader || k == Member
}

// ParseKind maps a kind name to a Kind.
func ParseKind(s string) (Kind, error) {
	s = strings.ToLower(strings.TrimSpace(s))
	for k, name := range kindNames {
		if name == s {
			return k, nil
		}
	}
	return KindNone, fmt.Errorf("%w: %q", ErrUnknownKind, s)
}

// MarshalText implements encoding.TextMarshaler.
func (k Kind) MarshalText() ([]byte, error) {
	if !k.Valid() {
		return nil, fmt.Errorf("%w: %d", ErrUnknownKind, uint8(k))
	}
	return []byte(k.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (k *Kind) UnmarshalText(text []byte) error {
	parsed, err := ParseKind(string(text))
	if err != nil {
		return err
	}
	*k = parsed
	return nil
}
