package rdf

import (
	"strconv"

	"github.com/forensix/aff4/errors"
)

// Value is one typed attribute value in the data store.
//
// Each kind has a stable serialization form; a triple store persists a
// value as its (TypeName, SerializeToString) pair and rehydrates it with
// NewValue + UnmarshalFromString. Values have no identity of their own:
// once handed to a store via Set, the store owns them, and values
// returned by Get remain store-owned (Clone to retain).
type Value interface {
	// TypeName is the stable datatype name, e.g. "xsd:string".
	TypeName() string
	// SerializeToString renders the value in its stable textual form.
	SerializeToString() string
	// UnmarshalFromString parses the stable textual form in place.
	UnmarshalFromString(s string) error
	// Clone returns an independent copy of the value.
	Clone() Value
}

// Datatype names for the built-in value kinds.
const (
	TypeXSDString  = "xsd:string"
	TypeXSDInteger = "xsd:integer"
	TypeXSDBoolean = "xsd:boolean"
	TypeURN        = "urn"
)

var valueKinds = map[string]func() Value{
	TypeXSDString:  func() Value { return new(XSDString) },
	TypeXSDInteger: func() Value { return new(XSDInteger) },
	TypeXSDBoolean: func() Value { return new(XSDBoolean) },
	TypeURN:        func() Value { return new(URN) },
}

// RegisterValueType makes a new value kind known to the codecs.
// The attribute namespace is open; collaborator packages may introduce
// their own kinds.
func RegisterValueType(name string, ctor func() Value) {
	valueKinds[name] = ctor
}

// NewValue returns a fresh zero value of the named kind, or
// ErrInvalidInput for an unknown type name.
func NewValue(typeName string) (Value, error) {
	ctor, ok := valueKinds[typeName]
	if !ok {
		return nil, errors.Wrapf(errors.ErrInvalidInput, "unknown value type %q", typeName)
	}
	return ctor(), nil
}

// ParseValue rehydrates a value from its (typeName, serialized) pair.
func ParseValue(typeName, serialized string) (Value, error) {
	v, err := NewValue(typeName)
	if err != nil {
		return nil, err
	}
	if err := v.UnmarshalFromString(serialized); err != nil {
		return nil, errors.Wrapf(err, "parse %s value", typeName)
	}
	return v, nil
}

// XSDString is a string literal.
type XSDString struct {
	Value string
}

// NewXSDString wraps a string literal as a Value.
func NewXSDString(v string) *XSDString {
	return &XSDString{Value: v}
}

func (s *XSDString) TypeName() string          { return TypeXSDString }
func (s *XSDString) SerializeToString() string { return s.Value }
func (s *XSDString) Clone() Value              { c := *s; return &c }

func (s *XSDString) UnmarshalFromString(raw string) error {
	s.Value = raw
	return nil
}

// XSDInteger is an integer literal.
type XSDInteger struct {
	Value int64
}

// NewXSDInteger wraps an integer literal as a Value.
func NewXSDInteger(v int64) *XSDInteger {
	return &XSDInteger{Value: v}
}

func (i *XSDInteger) TypeName() string          { return TypeXSDInteger }
func (i *XSDInteger) SerializeToString() string { return strconv.FormatInt(i.Value, 10) }
func (i *XSDInteger) Clone() Value              { c := *i; return &c }

func (i *XSDInteger) UnmarshalFromString(raw string) error {
	v, err := strconv.ParseInt(raw, 0, 64)
	if err != nil {
		return errors.Wrapf(errors.ErrInvalidInput, "not an integer: %q", raw)
	}
	i.Value = v
	return nil
}

// XSDBoolean is a boolean literal.
type XSDBoolean struct {
	Value bool
}

// NewXSDBoolean wraps a boolean literal as a Value.
func NewXSDBoolean(v bool) *XSDBoolean {
	return &XSDBoolean{Value: v}
}

func (b *XSDBoolean) TypeName() string { return TypeXSDBoolean }
func (b *XSDBoolean) Clone() Value     { c := *b; return &c }

func (b *XSDBoolean) SerializeToString() string {
	if b.Value {
		return "true"
	}
	return "false"
}

func (b *XSDBoolean) UnmarshalFromString(raw string) error {
	switch raw {
	case "true", "1":
		b.Value = true
	case "false", "0":
		b.Value = false
	default:
		return errors.Wrapf(errors.ErrInvalidInput, "not a boolean: %q", raw)
	}
	return nil
}

// URN doubles as an identifier-reference value, serialized as the URI
// itself. This lets one subject reference another (an image referencing
// its enclosing volume) without any direct object pointer.

func (u *URN) TypeName() string          { return TypeURN }
func (u *URN) SerializeToString() string { return string(*u) }
func (u *URN) Clone() Value              { c := *u; return &c }

func (u *URN) UnmarshalFromString(raw string) error {
	*u = URN(raw)
	return nil
}

// AsValue returns an owned identifier-reference value for the URN,
// suitable for handing to Set.
func (u URN) AsValue() *URN {
	v := u
	return &v
}
