// Package typeir defines the canonical algebraic type representation used to
// describe LLM-facing schemas, the class/enum registry backing it, the
// streaming type transformation, and schema fingerprinting.
package typeir

import "fmt"

// Kind identifies a TypeIR variant.
type Kind int

const (
	KindTop Kind = iota
	KindPrimitive
	KindEnum
	KindLiteral
	KindClass
	KindList
	KindMap
	KindTuple
	KindUnion
	KindRecursiveAlias
	KindArrow
)

// PrimitiveKind identifies a primitive type.
type PrimitiveKind int

const (
	PrimString PrimitiveKind = iota
	PrimInt
	PrimFloat
	PrimBool
	PrimNull
	PrimMedia
)

func (p PrimitiveKind) String() string {
	switch p {
	case PrimString:
		return "string"
	case PrimInt:
		return "int"
	case PrimFloat:
		return "float"
	case PrimBool:
		return "bool"
	case PrimNull:
		return "null"
	case PrimMedia:
		return "media"
	default:
		return "invalid"
	}
}

// Mode distinguishes the streaming and non-streaming definition of the same
// logical class or alias.
type Mode int

const (
	ModeNonStreaming Mode = iota
	ModeStreaming
)

// LiteralKind identifies the payload of a literal type.
type LiteralKind int

const (
	LiteralString LiteralKind = iota
	LiteralInt
	LiteralBool
)

// Literal is a type accepting exactly one value.
type Literal struct {
	Kind LiteralKind
	Str  string
	Int  int64
	Bool bool
}

func (l Literal) String() string {
	switch l.Kind {
	case LiteralString:
		return fmt.Sprintf("%q", l.Str)
	case LiteralInt:
		return fmt.Sprintf("%d", l.Int)
	default:
		return fmt.Sprintf("%t", l.Bool)
	}
}

// Arrow is a function type. It is only valid in generic "accepts anything"
// contexts, never as a concrete field type.
type Arrow struct {
	Params []*TypeIR
	Return *TypeIR
}

// TypeIR is the algebraic type descriptor. Class, Enum and RecursiveAlias
// nodes are lookup keys into a Registry, not owning structural embeddings;
// this arena+key layout is what makes cyclic class graphs representable.
type TypeIR struct {
	Kind      Kind
	Prim      PrimitiveKind // KindPrimitive
	MediaKind string        // KindPrimitive with PrimMedia
	Name      string        // KindEnum, KindClass, KindRecursiveAlias
	Mode      Mode          // KindClass, KindRecursiveAlias
	Dynamic   bool          // KindEnum, KindClass
	Lit       *Literal      // KindLiteral
	Elem      *TypeIR       // KindList
	Key       *TypeIR       // KindMap
	Value     *TypeIR       // KindMap
	Items     []*TypeIR     // KindTuple
	Members   []*TypeIR     // KindUnion
	Fn        *Arrow        // KindArrow
	Meta      Meta
}

// ---- constructors ----

// Top accepts anything.
func Top() *TypeIR { return &TypeIR{Kind: KindTop} }

// String is the string primitive.
func String() *TypeIR { return &TypeIR{Kind: KindPrimitive, Prim: PrimString} }

// Int is the integer primitive.
func Int() *TypeIR { return &TypeIR{Kind: KindPrimitive, Prim: PrimInt} }

// Float is the float primitive.
func Float() *TypeIR { return &TypeIR{Kind: KindPrimitive, Prim: PrimFloat} }

// Bool is the boolean primitive.
func Bool() *TypeIR { return &TypeIR{Kind: KindPrimitive, Prim: PrimBool} }

// Null is the null primitive.
func Null() *TypeIR { return &TypeIR{Kind: KindPrimitive, Prim: PrimNull} }

// MediaOf is the media primitive with the given subkind ("image", "audio",
// "pdf", "video").
func MediaOf(kind string) *TypeIR {
	return &TypeIR{Kind: KindPrimitive, Prim: PrimMedia, MediaKind: kind}
}

// EnumRef references a named enum definition in the registry.
func EnumRef(name string) *TypeIR { return &TypeIR{Kind: KindEnum, Name: name} }

// ClassRef references a named class definition in the registry.
func ClassRef(name string, mode Mode) *TypeIR {
	return &TypeIR{Kind: KindClass, Name: name, Mode: mode}
}

// AliasRef references a named recursive type alias resolved via the
// registry's alias table.
func AliasRef(name string, mode Mode) *TypeIR {
	return &TypeIR{Kind: KindRecursiveAlias, Name: name, Mode: mode}
}

// LitString is a string literal type.
func LitString(s string) *TypeIR {
	return &TypeIR{Kind: KindLiteral, Lit: &Literal{Kind: LiteralString, Str: s}}
}

// LitInt is an integer literal type.
func LitInt(i int64) *TypeIR {
	return &TypeIR{Kind: KindLiteral, Lit: &Literal{Kind: LiteralInt, Int: i}}
}

// LitBool is a boolean literal type.
func LitBool(b bool) *TypeIR {
	return &TypeIR{Kind: KindLiteral, Lit: &Literal{Kind: LiteralBool, Bool: b}}
}

// List is a list of elem.
func List(elem *TypeIR) *TypeIR { return &TypeIR{Kind: KindList, Elem: elem} }

// MapOf is a map from key to value.
func MapOf(key, value *TypeIR) *TypeIR {
	return &TypeIR{Kind: KindMap, Key: key, Value: value}
}

// Tuple is a fixed-arity sequence.
func Tuple(items ...*TypeIR) *TypeIR { return &TypeIR{Kind: KindTuple, Items: items} }

// ArrowOf is a function type.
func ArrowOf(params []*TypeIR, ret *TypeIR) *TypeIR {
	return &TypeIR{Kind: KindArrow, Fn: &Arrow{Params: params, Return: ret}}
}

// Union builds a union, collapsing duplicate null members to a single
// trailing null. The type system cannot enforce the at-most-one-null
// invariant, so the constructor does.
func Union(members ...*TypeIR) *TypeIR {
	out := make([]*TypeIR, 0, len(members))
	sawNull := false
	for _, m := range members {
		if m.IsNull() {
			sawNull = true
			continue
		}
		out = append(out, m)
	}
	if sawNull {
		out = append(out, Null())
	}
	return &TypeIR{Kind: KindUnion, Members: out}
}

// Optional wraps t in a (t | null) union. Wrapping an already optional union
// adds no second null.
func Optional(t *TypeIR) *TypeIR {
	if t.Kind == KindUnion {
		members := append([]*TypeIR{}, t.Members...)
		members = append(members, Null())
		u := Union(members...)
		u.Meta = t.Meta
		return u
	}
	return Union(t, Null())
}

// ---- predicates ----

// IsNull reports whether t is the null primitive.
func (t *TypeIR) IsNull() bool {
	return t != nil && t.Kind == KindPrimitive && t.Prim == PrimNull
}

// IsOptional reports whether t is a union containing a null member.
func (t *TypeIR) IsOptional() bool {
	if t == nil || t.Kind != KindUnion {
		return false
	}
	for _, m := range t.Members {
		if m.IsNull() {
			return true
		}
	}
	return false
}

// NonNullMembers returns the union members excluding the null primitive.
func (t *TypeIR) NonNullMembers() []*TypeIR {
	var out []*TypeIR
	for _, m := range t.Members {
		if !m.IsNull() {
			out = append(out, m)
		}
	}
	return out
}

// Describe returns a short human-readable type description for diagnostics.
func (t *TypeIR) Describe() string {
	if t == nil {
		return "<nil>"
	}
	switch t.Kind {
	case KindTop:
		return "any"
	case KindPrimitive:
		if t.Prim == PrimMedia {
			return "media:" + t.MediaKind
		}
		return t.Prim.String()
	case KindEnum:
		return "enum " + t.Name
	case KindLiteral:
		return "literal " + t.Lit.String()
	case KindClass:
		return "class " + t.Name
	case KindList:
		return t.Elem.Describe() + "[]"
	case KindMap:
		return "map<" + t.Key.Describe() + ", " + t.Value.Describe() + ">"
	case KindTuple:
		return "tuple"
	case KindUnion:
		s := ""
		for i, m := range t.Members {
			if i > 0 {
				s += " | "
			}
			s += m.Describe()
		}
		return "(" + s + ")"
	case KindRecursiveAlias:
		return "alias " + t.Name
	case KindArrow:
		return "fn"
	default:
		return "invalid"
	}
}

// Clone returns a shallow-meta deep-structure copy of t.
func (t *TypeIR) Clone() *TypeIR {
	if t == nil {
		return nil
	}
	c := *t
	c.Meta = t.Meta.clone()
	if t.Lit != nil {
		lit := *t.Lit
		c.Lit = &lit
	}
	c.Elem = t.Elem.Clone()
	c.Key = t.Key.Clone()
	c.Value = t.Value.Clone()
	if t.Items != nil {
		c.Items = make([]*TypeIR, len(t.Items))
		for i, it := range t.Items {
			c.Items[i] = it.Clone()
		}
	}
	if t.Members != nil {
		c.Members = make([]*TypeIR, len(t.Members))
		for i, m := range t.Members {
			c.Members[i] = m.Clone()
		}
	}
	if t.Fn != nil {
		fn := Arrow{Return: t.Fn.Return.Clone()}
		for _, p := range t.Fn.Params {
			fn.Params = append(fn.Params, p.Clone())
		}
		c.Fn = &fn
	}
	return &c
}

// Equal reports structural equality, including metadata. A nil resolved
// stream state compares equal to the zero state.
func Equal(a, b *TypeIR) bool {
	if a == nil || b == nil {
		return a == b
	}
	if a.Kind != b.Kind {
		return false
	}
	if !a.Meta.equal(b.Meta) {
		return false
	}
	switch a.Kind {
	case KindTop:
		return true
	case KindPrimitive:
		return a.Prim == b.Prim && a.MediaKind == b.MediaKind
	case KindEnum:
		return a.Name == b.Name && a.Dynamic == b.Dynamic
	case KindLiteral:
		return *a.Lit == *b.Lit
	case KindClass, KindRecursiveAlias:
		return a.Name == b.Name && a.Mode == b.Mode && a.Dynamic == b.Dynamic
	case KindList:
		return Equal(a.Elem, b.Elem)
	case KindMap:
		return Equal(a.Key, b.Key) && Equal(a.Value, b.Value)
	case KindTuple:
		if len(a.Items) != len(b.Items) {
			return false
		}
		for i := range a.Items {
			if !Equal(a.Items[i], b.Items[i]) {
				return false
			}
		}
		return true
	case KindUnion:
		if len(a.Members) != len(b.Members) {
			return false
		}
		for i := range a.Members {
			if !Equal(a.Members[i], b.Members[i]) {
				return false
			}
		}
		return true
	case KindArrow:
		if len(a.Fn.Params) != len(b.Fn.Params) {
			return false
		}
		for i := range a.Fn.Params {
			if !Equal(a.Fn.Params[i], b.Fn.Params[i]) {
				return false
			}
		}
		return Equal(a.Fn.Return, b.Fn.Return)
	default:
		return false
	}
}
