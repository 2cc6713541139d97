// Package skill models the client-side unit of sync: a named markdown
// document with optional supporting files, identified by (type, name) and
// addressed by a deterministic content hash.
package skill

import (
	"errors"
	"fmt"
	"regexp"
	"strings"
)

// Type partitions skills into the three local directories.
type Type string

const (
	TypeCommand Type = "command"
	TypeSkill   Type = "skill"
	TypeAgent   Type = "agent"
)

var Types = []Type{TypeCommand, TypeSkill, TypeAgent}

var ErrBadType = errors.New("skill: type must be command, skill or agent")

func ParseType(s string) (Type, error) {
	switch Type(strings.ToLower(strings.TrimSpace(s))) {
	case TypeCommand:
		return TypeCommand, nil
	case TypeSkill:
		return TypeSkill, nil
	case TypeAgent:
		return TypeAgent, nil
	default:
		return "", fmt.Errorf("%w: %q", ErrBadType, s)
	}
}

// Dir is the per-type directory name under the sync root.
func (t Type) Dir() string {
	return string(t) + "s"
}

// Key identifies a skill within an account: the (type, name) pair, rendered
// as "type:name" everywhere a single string is needed (index entries, server
// paths, CLI arguments).
type Key struct {
	Type Type
	Name string
}

func (k Key) String() string {
	return string(k.Type) + ":" + k.Name
}

func ParseKey(s string) (Key, error) {
	typ, name, ok := strings.Cut(s, ":")
	if !ok || name == "" {
		return Key{}, fmt.Errorf("skill: key %q is not type:name", s)
	}
	t, err := ParseType(typ)
	if err != nil {
		return Key{}, err
	}
	if !ValidName(name) {
		return Key{}, fmt.Errorf("%w: %q", ErrBadName, name)
	}
	return Key{Type: t, Name: name}, nil
}

// Names double as directory names locally and path segments server-side, so
// the charset must keep out separators, "..", and the ":" that delimits the
// key itself. Must start with an alphanumeric so "." and ".." can never pass.
var nameRe = regexp.MustCompile(`^[a-zA-Z0-9][a-zA-Z0-9._-]{0,63}$`)

var ErrBadName = errors.New("skill: name must be 1-64 characters of [a-zA-Z0-9._-], starting with a letter or digit")

// ValidName reports whether name is safe to use as a skill name.
func ValidName(name string) bool {
	return nameRe.MatchString(name)
}

// SupportingFile is a named sidecar stored next to SKILL.md.
type SupportingFile struct {
	Name    string `json:"name"`
	Content []byte `json:"content"`
}

// Skill is the decrypted, logical form. Meta carries frontmatter keys the
// client does not recognize, preserved verbatim so a newer client's fields
// survive a round trip through an older one.
type Skill struct {
	Key         Key               `json:"key"`
	Description string            `json:"description,omitempty"`
	Body        string            `json:"body"`
	Files       []SupportingFile  `json:"files,omitempty"`
	Meta        map[string]string `json:"meta,omitempty"`
}
