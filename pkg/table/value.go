package table

import (
	"bytes"
	"encoding/json"
)

// Kind is the JSON kind of a field value
type Kind int

const (
	Null Kind = iota
	Text
	Number
	Boolean
	Object
	Array
)

func (k Kind) String() string {
	switch k {
	case Null:
		return "null"
	case Text:
		return "text"
	case Number:
		return "number"
	case Boolean:
		return "boolean"
	case Object:
		return "object"
	case Array:
		return "array"
	}
	return "unknown"
}

// IsScalar reports whether values of this kind map directly to a single CSV cell
func (k Kind) IsScalar() bool {
	return k != Object && k != Array
}

// Value is a single field value. For Number the source holds the decimal
// literal exactly as it appeared in the document, for Object and Array it
// holds compact JSON.
type Value struct {
	kind   Kind
	source string
}

func NullValue() Value {
	return Value{kind: Null}
}

func TextValue(s string) Value {
	return Value{kind: Text, source: s}
}

func NumberValue(literal string) Value {
	return Value{kind: Number, source: literal}
}

func BooleanValue(b bool) Value {
	if b {
		return Value{kind: Boolean, source: "true"}
	}
	return Value{kind: Boolean, source: "false"}
}

// RawValue keeps a nested object or array as compact JSON text
func RawValue(kind Kind, raw []byte) Value {
	buf := &bytes.Buffer{}
	if err := json.Compact(buf, raw); err != nil {
		return Value{kind: kind, source: string(raw)}
	}
	return Value{kind: kind, source: buf.String()}
}

func (v Value) Kind() Kind {
	return v.kind
}

// String returns the text written to the CSV cell
func (v Value) String() string {
	if v.kind == Null {
		return ""
	}
	return v.source
}
