// Package shape defines the reflected-shape input consumed by the schema
// builder: a structural description of a type (fields, variants, wrappers)
// with attached annotations. Shapes are identified by pointer: two handles
// to the same logical type are the same *Shape, which is what the builder's
// cycle-breaking memoization relies on.
package shape

import (
	"reflect"

	"github.com/reoring/bamlbridge/typeir"
)

// Kind identifies the structural category of a shape.
type Kind int

const (
	KindInvalid Kind = iota
	KindBool
	KindInt
	KindUint
	KindFloat
	KindString
	KindStruct
	KindEnum
	KindTaggedUnion
	KindPointer
	KindList
	KindMap
	KindMedia
	KindAny
	KindUnion   // inline, anonymous union of member shapes
	KindLiteral // single-value literal type
	KindNull    // the null primitive
)

// ConstraintSpec is a labeled boolean expression attached via annotation.
type ConstraintSpec struct {
	Label string
	Expr  string
}

// Annotations carries everything the macro/tag front-end can attach to a
// type, field, or variant.
type Annotations struct {
	Rename       string // overrides the internal name (types) or real name (fields)
	Alias        string // rendered alias, display only
	Skip         bool
	Description  string
	HasDefault   bool
	Default      any
	IntRepr      string // "", "string", "i64"
	MapKeyRepr   string // "", "string", "pairs"
	TagField     string // data-enum discriminator field name override
	AsUnion      bool   // render a unit enum as an inline union of literals
	Required     bool   // a pointer field is transparent indirection, not optional
	Dynamic      bool
	MediaKind    string
	Adapter      FieldAdapter
	Checks       []ConstraintSpec
	Asserts      []ConstraintSpec
	StreamNeeded bool
	StreamDone   bool
	StreamState  bool
}

// FieldShape is one struct field in declaration order.
type FieldShape struct {
	Name  string // real identifier
	Shape *Shape
	Doc   string
	Ann   Annotations
	// Index is the reflect field index path, set when derived from a Go
	// struct; empty for explicitly constructed or dynamic shapes.
	Index []int
}

// VariantShape is one enum variant. A variant with fields belongs to a
// tagged union (data enum); a variant without fields belongs to a unit enum.
type VariantShape struct {
	Name   string
	Doc    string
	Ann    Annotations
	Fields []FieldShape
	// GoType backs a data-enum variant with a native struct type.
	GoType reflect.Type
}

// Shape is an opaque-identity structural type description.
type Shape struct {
	Kind     Kind
	Name     string // bare type identifier
	PkgPath  string
	Doc      string
	Bits     int // int/uint/float width; 0 means platform int
	GoType   reflect.Type
	Elem     *Shape // pointer, list
	Key      *Shape // map
	Value    *Shape // map
	Fields   []FieldShape
	Variants []VariantShape
	Members  []*Shape        // inline union members
	Lit      *typeir.Literal // literal value
	Ann      Annotations
}

// Shaper lets a Go type supply its own shape descriptor. This is how unit
// enums and tagged unions, which Go reflection cannot see, enter the system.
type Shaper interface {
	BamlShape() *Shape
}

// ---- explicit constructors ----

// Bool returns the boolean primitive shape.
func Bool() *Shape { return &Shape{Kind: KindBool} }

// Int returns a signed integer shape of the given bit width (8..64).
func Int(bits int) *Shape { return &Shape{Kind: KindInt, Bits: bits} }

// Uint returns an unsigned integer shape of the given bit width.
func Uint(bits int) *Shape { return &Shape{Kind: KindUint, Bits: bits} }

// Float returns a float shape of the given bit width (32 or 64).
func Float(bits int) *Shape { return &Shape{Kind: KindFloat, Bits: bits} }

// Str returns the string primitive shape.
func Str() *Shape { return &Shape{Kind: KindString} }

// Media returns a media shape with the given subkind.
func Media(kind string) *Shape {
	return &Shape{Kind: KindMedia, Ann: Annotations{MediaKind: kind}}
}

// Any returns the accepts-anything shape.
func Any() *Shape { return &Shape{Kind: KindAny} }

// Null returns the null primitive shape.
func Null() *Shape { return &Shape{Kind: KindNull} }

// Optional wraps s in an optional (pointer-like) shape.
func Optional(s *Shape) *Shape { return &Shape{Kind: KindPointer, Elem: s} }

// ListOf returns a list shape.
func ListOf(s *Shape) *Shape { return &Shape{Kind: KindList, Elem: s} }

// MapOf returns a map shape.
func MapOf(key, value *Shape) *Shape {
	return &Shape{Kind: KindMap, Key: key, Value: value}
}

// Struct returns a named struct shape with no fields. Fields are added with
// AddField, which allows self-referential shapes to be declared before
// their fields mention them.
func Struct(name string) *Shape {
	return &Shape{Kind: KindStruct, Name: name}
}

// AddField appends a field in declaration order and returns the receiver.
func (s *Shape) AddField(f FieldShape) *Shape {
	s.Fields = append(s.Fields, f)
	return s
}

// F is shorthand for a plain field.
func F(name string, fs *Shape) FieldShape { return FieldShape{Name: name, Shape: fs} }

// Enum returns a unit enum shape with the given variant names.
func Enum(name string, values ...string) *Shape {
	s := &Shape{Kind: KindEnum, Name: name}
	for _, v := range values {
		s.Variants = append(s.Variants, VariantShape{Name: v})
	}
	return s
}

// TaggedUnion returns a data-enum shape whose variants carry fields.
func TaggedUnion(name string, variants ...VariantShape) *Shape {
	return &Shape{Kind: KindTaggedUnion, Name: name, Variants: variants}
}

// Variant builds a data-enum variant backed by a Go struct type; its fields
// are derived from that type.
func Variant(name string, goType reflect.Type) VariantShape {
	fields := structFields(goType)
	return VariantShape{Name: name, Fields: fields, GoType: goType}
}

// UnionOf returns an inline, anonymous union shape.
func UnionOf(members ...*Shape) *Shape {
	return &Shape{Kind: KindUnion, Members: members}
}

// LitStr returns a string literal shape.
func LitStr(s string) *Shape {
	return &Shape{Kind: KindLiteral, Lit: &typeir.Literal{Kind: typeir.LiteralString, Str: s}}
}

// LitInt returns an integer literal shape.
func LitInt(i int64) *Shape {
	return &Shape{Kind: KindLiteral, Lit: &typeir.Literal{Kind: typeir.LiteralInt, Int: i}}
}

// LitBool returns a boolean literal shape.
func LitBool(b bool) *Shape {
	return &Shape{Kind: KindLiteral, Lit: &typeir.Literal{Kind: typeir.LiteralBool, Bool: b}}
}
