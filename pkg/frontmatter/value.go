package frontmatter

import (
	"encoding/json"
	"strings"
)

// ValueKind tells which variant a Value holds.
type ValueKind int

const (
	// KindAbsent is the zero Value: the key is not set.
	KindAbsent ValueKind = iota
	// KindText is a single scalar rendered as text.
	KindText
	// KindList is a sequence of scalars.
	KindList
)

// Value is a frontmatter value: absent, a text scalar or a list.
// The zero Value is absent.
type Value struct {
	kind ValueKind
	text string
	list []string
}

// TextValue returns a text Value.
func TextValue(s string) Value {
	return Value{kind: KindText, text: s}
}

// ListValue returns a list Value holding a copy of items.
func ListValue(items ...string) Value {
	return Value{kind: KindList, list: append([]string(nil), items...)}
}

// Kind returns the variant.
func (v Value) Kind() ValueKind {
	return v.kind
}

// IsAbsent reports whether the value is unset.
func (v Value) IsAbsent() bool {
	return v.kind == KindAbsent
}

// String renders the value as text. Lists are joined with ", ".
func (v Value) String() string {
	switch v.kind {
	case KindText:
		return v.text
	case KindList:
		return strings.Join(v.list, ", ")
	default:
		return ""
	}
}

// Strings returns the value as a list. Text is split on commas and
// whitespace, the way tag strings are written by hand.
func (v Value) Strings() []string {
	switch v.kind {
	case KindList:
		return append([]string(nil), v.list...)
	case KindText:
		return strings.FieldsFunc(v.text, func(r rune) bool {
			return r == ',' || r == ' ' || r == '\t' || r == '\n'
		})
	default:
		return nil
	}
}

// MarshalJSON encodes text as a string, lists as an array and absent as null.
func (v Value) MarshalJSON() ([]byte, error) {
	switch v.kind {
	case KindText:
		return json.Marshal(v.text)
	case KindList:
		if v.list == nil {
			return []byte("[]"), nil
		}
		return json.Marshal(v.list)
	default:
		return []byte("null"), nil
	}
}

// UnmarshalJSON is the inverse of MarshalJSON. Scalars other than strings
// are kept as their JSON text.
func (v *Value) UnmarshalJSON(data []byte) error {
	trimmed := strings.TrimSpace(string(data))
	switch {
	case trimmed == "null":
		*v = Value{}
	case strings.HasPrefix(trimmed, "["):
		var items []string
		if err := json.Unmarshal(data, &items); err != nil {
			return err
		}
		*v = ListValue(items...)
	case strings.HasPrefix(trimmed, `"`):
		var text string
		if err := json.Unmarshal(data, &text); err != nil {
			return err
		}
		*v = TextValue(text)
	default:
		*v = TextValue(trimmed)
	}
	return nil
}

// Well-known metadata keys.
const (
	KeyTitle           = "title"
	KeyCategory        = "category"
	KeyTags            = "tags"
	KeyLastUpdated     = "lastUpdated"
	KeyOwner           = "owner"
	KeyStatus          = "status"
	KeyPriority        = "priority"
	KeyVersion         = "version"
	KeyConfidentiality = "confidentiality"
)

// Metadata maps frontmatter keys to values.
type Metadata map[string]Value

// Get returns the value for key, absent if unset. Safe on a nil map.
func (m Metadata) Get(key string) Value {
	return m[key]
}

