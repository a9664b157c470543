// Package privilege names every permission the forum knows about.
//
// PRIVILEGE SCOPES:
// Each privilege belongs to exactly one scope (message, thread, tag, category
// or forum-wide). A scope decides which entities may carry a level for it:
//
//	message privileges   -> message, thread, tag, forum-wide
//	thread privileges    -> thread, tag, forum-wide
//	tag privileges       -> tag, forum-wide
//	category privileges  -> category, forum-wide
//	forum-wide           -> forum-wide only
//
// The package only holds names and tables. Resolution lives in internal/authz.
package privilege

import (
	"fmt"
	"strings"
)

// Value is a signed privilege level. Values <= 0 deny, values > 0 allow.
type Value int16

const (
	MinValue Value = -32000
	MaxValue Value = 32000
)

// Valid reports whether v is inside [MinValue, MaxValue].
func (v Value) Valid() bool {
	return v >= MinValue && v <= MaxValue
}

// Abs returns |v|.
func (v Value) Abs() Value {
	if v < 0 {
		return -v
	}
	return v
}

// Scope identifies the kind of entity a privilege applies to.
type Scope uint8

const (
	ScopeMessage Scope = iota + 1
	ScopeThread
	ScopeTag
	ScopeCategory
	ScopeForumWide
)

var scopeNames = map[Scope]string{
	ScopeMessage:   "message",
	ScopeThread:    "thread",
	ScopeTag:       "tag",
	ScopeCategory:  "category",
	ScopeForumWide: "forum_wide",
}

func (s Scope) String() string {
	if name, ok := scopeNames[s]; ok {
		return name
	}
	return fmt.Sprintf("scope(%d)", uint8(s))
}

// ParseScope is the inverse of Scope.String.
func ParseScope(name string) (Scope, error) {
	for scope, n := range scopeNames {
		if n == name {
			return scope, nil
		}
	}
	return 0, fmt.Errorf("unknown privilege scope %q", name)
}

// Privilege is implemented by the per-scope enumerations below.
type Privilege interface {
	~uint8
	Scope() Scope
	String() string
}

// Key identifies a privilege independently of its Go type. It is what grants
// are stored under.
type Key struct {
	Scope Scope
	Kind  uint8
}

// KeyOf erases the type of p.
func KeyOf[P Privilege](p P) Key {
	return Key{Scope: p.Scope(), Kind: uint8(p)}
}

func (k Key) String() string {
	var name string
	switch k.Scope {
	case ScopeMessage:
		name = Message(k.Kind).String()
	case ScopeThread:
		name = Thread(k.Kind).String()
	case ScopeTag:
		name = Tag(k.Kind).String()
	case ScopeCategory:
		name = Category(k.Kind).String()
	case ScopeForumWide:
		name = ForumWide(k.Kind).String()
	}
	return k.Scope.String() + "." + name
}

func enumName(names []string, v uint8) string {
	if int(v) < len(names) {
		return names[v]
	}
	return fmt.Sprintf("unknown(%d)", v)
}

func parseEnum[P ~uint8](names []string, name string) (P, error) {
	name = strings.ToLower(strings.TrimSpace(name))
	for i, n := range names {
		if n == name {
			return P(i), nil
		}
	}
	return 0, fmt.Errorf("unknown privilege %q", name)
}

// ParseKey resolves a qualified name such as "thread.change_name" or
// "forum_wide.add_user".
func ParseKey(name string) (Key, error) {
	scopeName, kind, ok := strings.Cut(strings.TrimSpace(name), ".")
	if !ok {
		return Key{}, fmt.Errorf("privilege %q: expected <scope>.<name>", name)
	}
	scope, err := ParseScope(scopeName)
	if err != nil {
		return Key{}, err
	}

	var v uint8
	switch scope {
	case ScopeMessage:
		p, perr := ParseMessage(kind)
		v, err = uint8(p), perr
	case ScopeThread:
		p, perr := ParseThread(kind)
		v, err = uint8(p), perr
	case ScopeTag:
		p, perr := ParseTag(kind)
		v, err = uint8(p), perr
	case ScopeCategory:
		p, perr := ParseCategory(kind)
		v, err = uint8(p), perr
	case ScopeForumWide:
		p, perr := ParseForumWide(kind)
		v, err = uint8(p), perr
	}
	if err != nil {
		return Key{}, err
	}
	return Key{Scope: scope, Kind: v}, nil
}

func (k Key) MarshalText() ([]byte, error) {
	return []byte(k.String()), nil
}

func (k *Key) UnmarshalText(b []byte) error {
	parsed, err := ParseKey(string(b))
	if err != nil {
		return err
	}
	*k = parsed
	return nil
}
