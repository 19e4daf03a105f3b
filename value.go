package bamlbridge

// ValueKind identifies a dynamic value variant.
type ValueKind int

const (
	KindNull ValueKind = iota
	KindString
	KindInt
	KindFloat
	KindBool
	KindList
	KindMap
	KindClass
	KindEnum
	KindMedia
)

// String returns the lowercase kind name used in diagnostics.
func (k ValueKind) String() string {
	switch k {
	case KindNull:
		return "null"
	case KindString:
		return "string"
	case KindInt:
		return "int"
	case KindFloat:
		return "float"
	case KindBool:
		return "bool"
	case KindList:
		return "list"
	case KindMap:
		return "map"
	case KindClass:
		return "class"
	case KindEnum:
		return "enum"
	case KindMedia:
		return "media"
	default:
		return "invalid"
	}
}

// Value is the dynamic, schema-agnostic representation handed to prompt
// rendering and produced by response parsing. Values are immutable after
// construction; containers share structure freely, so cloning is cheap.
type Value interface {
	Kind() ValueKind
}

// String is a text value.
type String string

// Int is a 64-bit signed integer value.
type Int int64

// Float is a 64-bit floating point value.
type Float float64

// Bool is a boolean value.
type Bool bool

// Null is the absent value.
type Null struct{}

// List is an ordered sequence of values.
type List []Value

// Map is a string-keyed collection with insertion order preserved.
type Map struct{ Entries *Fields }

// Class is a named record value with insertion-ordered fields.
type Class struct {
	Name   string
	Fields *Fields
}

// Enum is a reference to one variant of a named enum.
type Enum struct {
	Type    string
	Variant string
}

// Media is an opaque media payload descriptor (image, audio, ...).
// Exactly one of URL or Base64 is expected to be set.
type Media struct {
	MediaKind string // "image", "audio", "pdf", "video"
	MIME      string
	URL       string
	Base64    string
}

func (String) Kind() ValueKind { return KindString }
func (Int) Kind() ValueKind    { return KindInt }
func (Float) Kind() ValueKind  { return KindFloat }
func (Bool) Kind() ValueKind   { return KindBool }
func (Null) Kind() ValueKind   { return KindNull }
func (List) Kind() ValueKind   { return KindList }
func (Map) Kind() ValueKind    { return KindMap }
func (Class) Kind() ValueKind  { return KindClass }
func (Enum) Kind() ValueKind   { return KindEnum }
func (Media) Kind() ValueKind  { return KindMedia }

// Equal reports structural equality of two values. Map and Class fields
// compare by content; insertion order matters for rendering, not equality.
func Equal(a, b Value) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	if a.Kind() != b.Kind() {
		return false
	}
	switch av := a.(type) {
	case String:
		return av == b.(String)
	case Int:
		return av == b.(Int)
	case Float:
		return av == b.(Float)
	case Bool:
		return av == b.(Bool)
	case Null:
		return true
	case List:
		bv := b.(List)
		if len(av) != len(bv) {
			return false
		}
		for i := range av {
			if !Equal(av[i], bv[i]) {
				return false
			}
		}
		return true
	case Map:
		return av.Entries.equalContent(b.(Map).Entries)
	case Class:
		bv := b.(Class)
		return av.Name == bv.Name && av.Fields.equalContent(bv.Fields)
	case Enum:
		bv := b.(Enum)
		return av.Type == bv.Type && av.Variant == bv.Variant
	case Media:
		return av == b.(Media)
	default:
		return false
	}
}
