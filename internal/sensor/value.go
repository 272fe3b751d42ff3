package sensor

import (
	"fmt"
	"strconv"
)

// ValueKind tags the variant held by a Value.
type ValueKind uint8

const (
	KindFloat ValueKind = iota
	KindText
)

// String returns "float" or "text".
func (k ValueKind) String() string {
	switch k {
	case KindFloat:
		return "float"
	case KindText:
		return "text"
	default:
		return fmt.Sprintf("ValueKind(%d)", uint8(k))
	}
}

// Value is a reading payload: either a float64 or a text string.
// The zero Value is Float(0).
type Value struct {
	kind ValueKind
	num  float64
	text string
}

// Float returns a numeric Value.
func Float(v float64) Value {
	return Value{kind: KindFloat, num: v}
}

// Text returns a textual Value.
func Text(s string) Value {
	return Value{kind: KindText, text: s}
}

// Kind reports which variant v holds.
func (v Value) Kind() ValueKind { return v.kind }

// Float64 returns the numeric payload and whether v is numeric.
func (v Value) Float64() (float64, bool) {
	return v.num, v.kind == KindFloat
}

// Text returns the textual payload and whether v is textual.
func (v Value) Text() (string, bool) {
	return v.text, v.kind == KindText
}

// String formats the value for logs and errors.
func (v Value) String() string {
	if v.kind == KindText {
		return v.text
	}
	return strconv.FormatFloat(v.num, 'g', -1, 64)
}
