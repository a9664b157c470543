package model

import (
	"bytes"
	"encoding/hex"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
)

// IDMarker delimits entity references embedded in free text, e.g. "see @<uuid>@".
const IDMarker = '@'

// ErrInvalidID is returned by ParseID for any text that is neither a
// hyphenated, a compact nor the empty id.
var ErrInvalidID = errors.New("invalid id")

// ID is the 128-bit identifier shared by every entity.
//
// ID is a comparable value type, so it can be used directly as a map key.
// The zero value is reserved for the anonymous user.
type ID uuid.UUID

// ZeroID is the all-zero id. ParseID("") returns it.
var ZeroID ID

// NewID returns a random (version 4) id.
func NewID() ID {
	return ID(uuid.New())
}

// ParseID accepts the dashed form (8-4-4-4-12) and the compact 32 hex digit
// form, in any letter case. The empty string yields ZeroID.
func ParseID(s string) (ID, error) {
	switch len(s) {
	case 0:
		return ZeroID, nil
	case 36:
		u, err := uuid.Parse(s)
		if err != nil {
			return ZeroID, fmt.Errorf("%w: %q", ErrInvalidID, s)
		}
		return ID(u), nil
	case 32:
		var id ID
		if _, err := hex.Decode(id[:], []byte(s)); err != nil {
			return ZeroID, fmt.Errorf("%w: %q", ErrInvalidID, s)
		}
		return id, nil
	default:
		return ZeroID, fmt.Errorf("%w: %q", ErrInvalidID, s)
	}
}

// MustParseID is ParseID for literals in tests and fixtures.
func MustParseID(s string) ID {
	id, err := ParseID(s)
	if err != nil {
		panic(err)
	}
	return id
}

// IsZero reports whether id is the reserved zero id.
func (id ID) IsZero() bool {
	return id == ZeroID
}

// String returns the lowercase dashed form.
func (id ID) String() string {
	return uuid.UUID(id).String()
}

// Compact returns the lowercase 32 hex digit form.
func (id ID) Compact() string {
	return hex.EncodeToString(id[:])
}

// Compare orders ids bytewise. The order carries no meaning beyond being total.
func (id ID) Compare(other ID) int {
	return bytes.Compare(id[:], other[:])
}

func (id ID) MarshalText() ([]byte, error) {
	return []byte(id.String()), nil
}

func (id *ID) UnmarshalText(b []byte) error {
	parsed, err := ParseID(string(b))
	if err != nil {
		return err
	}
	*id = parsed
	return nil
}

// ExtractIDs returns every well formed id found between a pair of IDMarker
// characters in text, in order of appearance. Malformed candidates are skipped
// and their closing marker is reused as the next opening one.
func ExtractIDs(text string) []ID {
	var ids []ID
	for {
		start := strings.IndexRune(text, IDMarker)
		if start < 0 {
			return ids
		}
		rest := text[start+1:]
		end := strings.IndexRune(rest, IDMarker)
		if end < 0 {
			return ids
		}
		candidate := rest[:end]
		if candidate != "" {
			if id, err := ParseID(candidate); err == nil {
				ids = append(ids, id)
				text = rest[end+1:]
				continue
			}
		}
		text = rest[end:]
	}
}
