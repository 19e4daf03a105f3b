// Package schema turns reflected or explicitly declared shapes into TypeIR
// plus a populated class/enum registry. The walk is memoized by shape
// identity and inserts placeholder registry entries before descending into
// fields, so mutually recursive types terminate.
package schema

import (
	"fmt"
	"strconv"

	bridge "github.com/reoring/bamlbridge"
	"github.com/reoring/bamlbridge/shape"
	"github.com/reoring/bamlbridge/typeir"
)

// BuildOpt tunes a build pass.
type BuildOpt struct {
	// TagField is the discriminator field name synthesized into data-enum
	// variant classes when the union carries no tag annotation. Empty means
	// "type".
	TagField string
}

// Build walks a shape into TypeIR, registering every class and enum it
// reaches into reg. Errors are reported as bridge.Issues with
// CodeUnsupportedShape; a failed build may leave partial entries in reg,
// which callers should then discard.
func Build(s *shape.Shape, reg *typeir.Registry) (*typeir.TypeIR, error) {
	return BuildWith(s, reg, BuildOpt{})
}

// BuildWith is Build with options.
func BuildWith(s *shape.Shape, reg *typeir.Registry, opt BuildOpt) (*typeir.TypeIR, error) {
	if opt.TagField == "" {
		opt.TagField = "type"
	}
	b := &builder{
		reg:      reg,
		opt:      opt,
		visited:  make(map[*shape.Shape]*typeir.TypeIR),
		building: make(map[*shape.Shape]bool),
		names:    make(map[*shape.Shape]string),
		taken:    make(map[string]int),
	}
	return b.buildType(s, nil)
}

// Builder is the stateful walk. Names are assigned first-seen: the first
// shape to claim a base name keeps it bare, later distinct shapes with the
// same base name get a __1, __2, ... suffix. The assignment is recorded per
// shape identity so re-encounters reuse it.
type builder struct {
	reg      *typeir.Registry
	opt      BuildOpt
	visited  map[*shape.Shape]*typeir.TypeIR
	building map[*shape.Shape]bool
	names    map[*shape.Shape]string
	taken    map[string]int
}

// ownerCtx carries the namespace a field lives in, for naming synthesized
// entry classes and for adapter contexts.
type ownerCtx struct {
	internal              string
	rendered              string
	variantPrefix         string
	variantRenderedPrefix string
}

func (b *builder) buildType(s *shape.Shape, path bridge.Path) (*typeir.TypeIR, error) {
	if s == nil {
		return nil, b.errf(path, "missing shape")
	}
	if ref, ok := b.visited[s]; ok {
		if b.building[s] {
			b.reg.MarkRecursive(ref.Name)
		}
		return ref.Clone(), nil
	}
	switch s.Kind {
	case shape.KindBool:
		return typeir.Bool(), nil
	case shape.KindInt:
		return typeir.Int(), nil
	case shape.KindUint:
		if s.Bits >= 64 {
			return nil, b.errf(path, "unsigned 64-bit integer %s cannot be represented; annotate the field with an int repr", shapeLabel(s))
		}
		return typeir.Int(), nil
	case shape.KindFloat:
		return typeir.Float(), nil
	case shape.KindString:
		return typeir.String(), nil
	case shape.KindNull:
		return typeir.Null(), nil
	case shape.KindMedia:
		kind := s.Ann.MediaKind
		if kind == "" {
			kind = "image"
		}
		return typeir.MediaOf(kind), nil
	case shape.KindLiteral:
		lit := *s.Lit
		return &typeir.TypeIR{Kind: typeir.KindLiteral, Lit: &lit}, nil
	case shape.KindPointer:
		inner, err := b.buildType(s.Elem, path)
		if err != nil {
			return nil, err
		}
		return typeir.Optional(inner), nil
	case shape.KindList:
		elem, err := b.buildType(s.Elem, path)
		if err != nil {
			return nil, err
		}
		return typeir.List(elem), nil
	case shape.KindMap:
		return b.buildMap(s, path)
	case shape.KindUnion:
		members := make([]*typeir.TypeIR, 0, len(s.Members))
		for _, m := range s.Members {
			mt, err := b.buildType(m, path)
			if err != nil {
				return nil, err
			}
			members = append(members, mt)
		}
		return typeir.Union(members...), nil
	case shape.KindStruct:
		return b.buildClass(s, path)
	case shape.KindEnum:
		if s.Ann.AsUnion {
			return b.enumAsUnion(s), nil
		}
		return b.buildEnum(s)
	case shape.KindTaggedUnion:
		return b.buildTaggedUnion(s, path)
	case shape.KindAny:
		return nil, b.errf(path, "untyped value %s needs a field adapter", shapeLabel(s))
	default:
		return nil, b.errf(path, "unsupported type %s", shapeLabel(s))
	}
}

// buildMap handles a map in a bare type position: the key must already be a
// valid schema key (string, enum, or string literal). Other key types need a
// field-level map key repr annotation.
func (b *builder) buildMap(s *shape.Shape, path bridge.Path) (*typeir.TypeIR, error) {
	var key *typeir.TypeIR
	switch s.Key.Kind {
	case shape.KindString:
		key = typeir.String()
	case shape.KindEnum:
		k, err := b.buildType(s.Key, path)
		if err != nil {
			return nil, err
		}
		key = k
	case shape.KindLiteral:
		if s.Key.Lit.Kind != typeir.LiteralString {
			return nil, b.errf(path, "map key literal must be a string")
		}
		k, err := b.buildType(s.Key, path)
		if err != nil {
			return nil, err
		}
		key = k
	default:
		return nil, b.errf(path, "map key %s is not a string; annotate the field with a map key repr", shapeLabel(s.Key))
	}
	val, err := b.buildType(s.Value, path)
	if err != nil {
		return nil, err
	}
	return typeir.MapOf(key, val), nil
}

func (b *builder) buildClass(s *shape.Shape, path bridge.Path) (*typeir.TypeIR, error) {
	name, err := b.assignName(s, path)
	if err != nil {
		return nil, err
	}
	ref := typeir.ClassRef(name, typeir.ModeNonStreaming)
	ref.Dynamic = s.Ann.Dynamic
	b.visited[s] = ref
	b.building[s] = true
	defer delete(b.building, s)

	cls := &typeir.Class{
		Name:        typeir.Name{Real: name, Rendered: s.Ann.Alias},
		Mode:        typeir.ModeNonStreaming,
		Description: trimDoc(firstNonEmpty(s.Ann.Description, s.Doc)),
		Dynamic:     s.Ann.Dynamic,
		Constraints: constraintsOf(s.Ann),
		Behavior:    behaviorOf(s.Ann),
		Native:      s.GoType,
	}
	// Placeholder before fields so cyclic references resolve by name.
	b.reg.AddClass(cls)

	owner := ownerCtx{internal: name, rendered: renderedName(s)}
	fields, err := b.buildFields(s.Fields, owner, path)
	if err != nil {
		return nil, err
	}
	cls.Fields = fields
	b.reg.AddClass(cls)
	return ref.Clone(), nil
}

func (b *builder) buildFields(fs []shape.FieldShape, owner ownerCtx, path bridge.Path) ([]typeir.Field, error) {
	out := make([]typeir.Field, 0, len(fs))
	for _, f := range fs {
		if f.Ann.Skip {
			continue
		}
		real := f.Name
		if f.Ann.Rename != "" {
			real = f.Ann.Rename
		}
		fpath := path.Field(real)
		t, err := b.buildFieldType(f, owner, real, fpath)
		if err != nil {
			return nil, err
		}
		if cs := constraintsOf(f.Ann); len(cs) > 0 {
			t = t.WithConstraints(cs...)
		}
		if bits := behaviorOf(f.Ann); bits != 0 {
			t = t.WithBehavior(bits)
		}
		if f.Ann.HasDefault && !t.IsOptional() {
			t = typeir.Optional(t)
		}
		out = append(out, typeir.Field{
			Name:        typeir.Name{Real: real, Rendered: f.Ann.Alias},
			Type:        t,
			Description: trimDoc(firstNonEmpty(f.Ann.Description, f.Doc)),
			Dynamic:     f.Ann.Dynamic,
			Index:       f.Index,
		})
	}
	return out, nil
}

// buildFieldType resolves one field's type, applying field-level overrides in
// priority order: adapter, int repr, map key repr, then the default walk.
func (b *builder) buildFieldType(f shape.FieldShape, owner ownerCtx, real string, path bridge.Path) (*typeir.TypeIR, error) {
	if f.Ann.Adapter != nil {
		ctx := shape.NamingContext{
			OwnerInternalName:     owner.internal,
			OwnerRenderedName:     owner.rendered,
			VariantPrefix:         owner.variantPrefix,
			VariantRenderedPrefix: owner.variantRenderedPrefix,
			FieldName:             real,
			FieldRendered:         fieldRendered(real, f.Ann),
		}
		t, err := f.Ann.Adapter.TypeIR(ctx)
		if err != nil {
			return nil, b.errf(path, "adapter: %v", err)
		}
		if err := f.Ann.Adapter.Register(b.reg, ctx); err != nil {
			return nil, b.errf(path, "adapter: %v", err)
		}
		return t, nil
	}
	if f.Ann.IntRepr != "" {
		return b.intRepr(f.Shape, f.Ann.IntRepr, path)
	}
	if f.Ann.MapKeyRepr != "" {
		return b.mapKeyRepr(f, owner, real, path)
	}
	core := f.Shape
	optional := false
	if core.Kind == shape.KindPointer {
		if f.Ann.Required {
			// Transparent indirection: the pointer is a representation
			// detail, not an optional.
			core = core.Elem
		} else {
			core = core.Elem
			optional = true
		}
	}
	var t *typeir.TypeIR
	var err error
	switch {
	case f.Ann.AsUnion && core.Kind == shape.KindEnum:
		t = b.enumAsUnion(core)
	case f.Ann.MediaKind != "" && core.Kind == shape.KindMedia:
		t = typeir.MediaOf(f.Ann.MediaKind)
	default:
		t, err = b.buildType(core, path)
		if err != nil {
			return nil, err
		}
	}
	if optional {
		t = typeir.Optional(t)
	}
	return t, nil
}

// intRepr resolves an int-repr-annotated field. "string" renders the integer
// as a decimal string; "i64" keeps the int primitive with a runtime range
// check on conversion. A pointer wrapper stays optional.
func (b *builder) intRepr(s *shape.Shape, repr string, path bridge.Path) (*typeir.TypeIR, error) {
	if s.Kind == shape.KindPointer {
		inner, err := b.intRepr(s.Elem, repr, path)
		if err != nil {
			return nil, err
		}
		return typeir.Optional(inner), nil
	}
	if s.Kind != shape.KindInt && s.Kind != shape.KindUint {
		return nil, b.errf(path, "int repr on non-integer %s", shapeLabel(s))
	}
	switch repr {
	case "string":
		return typeir.String(), nil
	case "i64":
		return typeir.Int(), nil
	default:
		return nil, b.errf(path, "unknown int repr %q", repr)
	}
}

// mapKeyRepr resolves a mapkey-annotated field. "string" re-encodes a
// non-string scalar key as its decimal/boolean string form. "pairs" flattens
// the map into a list of synthesized two-field entry classes, which is the
// only representation that admits structured keys.
func (b *builder) mapKeyRepr(f shape.FieldShape, owner ownerCtx, real string, path bridge.Path) (*typeir.TypeIR, error) {
	core := f.Shape
	optional := false
	if core.Kind == shape.KindPointer {
		core = core.Elem
		optional = !f.Ann.Required
	}
	if core.Kind != shape.KindMap {
		return nil, b.errf(path, "map key repr on non-map %s", shapeLabel(core))
	}
	var t *typeir.TypeIR
	switch f.Ann.MapKeyRepr {
	case "string":
		switch core.Key.Kind {
		case shape.KindInt, shape.KindUint, shape.KindFloat, shape.KindBool, shape.KindString:
		default:
			return nil, b.errf(path, "map key %s has no string round-trip", shapeLabel(core.Key))
		}
		val, err := b.buildType(core.Value, path)
		if err != nil {
			return nil, err
		}
		t = typeir.MapOf(typeir.String(), val)
	case "pairs":
		key, err := b.buildType(core.Key, path)
		if err != nil {
			return nil, err
		}
		val, err := b.buildType(core.Value, path)
		if err != nil {
			return nil, err
		}
		internal, rendered := entryClassNames(owner, real, fieldRendered(real, f.Ann))
		entry := &typeir.Class{
			Name: typeir.Name{Real: internal, Rendered: rendered},
			Mode: typeir.ModeNonStreaming,
			Fields: []typeir.Field{
				{Name: typeir.Name{Real: "key"}, Type: key},
				{Name: typeir.Name{Real: "value"}, Type: val},
			},
			Synthetic: typeir.SyntheticMapEntry,
		}
		b.reg.AddClass(entry)
		t = typeir.List(typeir.ClassRef(internal, typeir.ModeNonStreaming))
	default:
		return nil, b.errf(path, "unknown map key repr %q", f.Ann.MapKeyRepr)
	}
	if optional {
		t = typeir.Optional(t)
	}
	return t, nil
}

func (b *builder) buildEnum(s *shape.Shape) (*typeir.TypeIR, error) {
	name, err := b.assignName(s, nil)
	if err != nil {
		return nil, err
	}
	ref := typeir.EnumRef(name)
	ref.Dynamic = s.Ann.Dynamic
	b.visited[s] = ref

	e := &typeir.Enum{
		Name:        typeir.Name{Real: name, Rendered: s.Ann.Alias},
		Description: trimDoc(firstNonEmpty(s.Ann.Description, s.Doc)),
		Dynamic:     s.Ann.Dynamic,
		Native:      s.GoType,
	}
	for _, v := range s.Variants {
		if v.Ann.Skip {
			continue
		}
		e.Values = append(e.Values, typeir.EnumValue{
			Name:        typeir.Name{Real: v.Name, Rendered: v.Ann.Alias},
			Description: trimDoc(firstNonEmpty(v.Ann.Description, v.Doc)),
		})
	}
	b.reg.AddEnum(e)
	return ref.Clone(), nil
}

// enumAsUnion renders a unit enum inline as a union of its variants' string
// literals. Nothing is registered; the enum identity is erased.
func (b *builder) enumAsUnion(s *shape.Shape) *typeir.TypeIR {
	members := make([]*typeir.TypeIR, 0, len(s.Variants))
	for _, v := range s.Variants {
		if v.Ann.Skip {
			continue
		}
		name := v.Name
		if v.Ann.Alias != "" {
			name = v.Ann.Alias
		}
		members = append(members, typeir.LitString(name))
	}
	return typeir.Union(members...)
}

// buildTaggedUnion lowers a data enum to a registry alias expanding to a
// union of one synthesized class per variant, each carrying a leading
// discriminator literal field. Referencing the union through an alias keeps
// recursive variants representable.
func (b *builder) buildTaggedUnion(s *shape.Shape, path bridge.Path) (*typeir.TypeIR, error) {
	name, err := b.assignName(s, path)
	if err != nil {
		return nil, err
	}
	ref := typeir.AliasRef(name, typeir.ModeNonStreaming)
	b.visited[s] = ref
	b.building[s] = true
	defer delete(b.building, s)

	tagField := s.Ann.TagField
	if tagField == "" {
		tagField = b.opt.TagField
	}
	rendered := renderedName(s)
	members := make([]*typeir.TypeIR, 0, len(s.Variants))
	for _, v := range s.Variants {
		if v.Ann.Skip {
			continue
		}
		variantName := v.Name
		if v.Ann.Alias != "" {
			variantName = v.Ann.Alias
		}
		internal := name + "__" + v.Name
		cls := &typeir.Class{
			Name:        typeir.Name{Real: internal, Rendered: rendered + "_" + variantName},
			Mode:        typeir.ModeNonStreaming,
			Description: trimDoc(firstNonEmpty(v.Ann.Description, v.Doc)),
			Synthetic:   typeir.SyntheticUnionVariant,
			Native:      v.GoType,
		}
		b.reg.AddClass(cls)
		owner := ownerCtx{
			internal:              name,
			rendered:              rendered,
			variantPrefix:         v.Name + "_",
			variantRenderedPrefix: variantName,
		}
		fields, err := b.buildFields(v.Fields, owner, path.Field(v.Name))
		if err != nil {
			return nil, err
		}
		cls.Fields = append([]typeir.Field{{
			Name: typeir.Name{Real: tagField},
			Type: typeir.LitString(variantName),
		}}, fields...)
		b.reg.AddClass(cls)
		members = append(members, typeir.ClassRef(internal, typeir.ModeNonStreaming))
	}
	b.reg.SetAlias(name, typeir.ModeNonStreaming, typeir.Union(members...))
	return ref.Clone(), nil
}

// assignName claims the internal name for a named shape, suffixing on
// collision with a previously claimed distinct shape.
func (b *builder) assignName(s *shape.Shape, path bridge.Path) (string, error) {
	if n, ok := b.names[s]; ok {
		return n, nil
	}
	base := baseInternalName(s)
	if base == "" {
		return "", b.errf(path, "anonymous %s needs a name annotation", shapeLabel(s))
	}
	n := b.taken[base]
	b.taken[base] = n + 1
	name := base
	if n > 0 {
		name = base + "__" + strconv.Itoa(n)
	}
	b.names[s] = name
	return name, nil
}

func (b *builder) errf(path bridge.Path, format string, args ...any) error {
	return bridge.Issues{{
		Path:    path,
		Code:    bridge.CodeUnsupportedShape,
		Message: fmt.Sprintf(format, args...),
	}}
}

func constraintsOf(ann shape.Annotations) []typeir.Constraint {
	var out []typeir.Constraint
	for _, c := range ann.Checks {
		out = append(out, typeir.Constraint{Label: c.Label, Expr: c.Expr, Level: typeir.LevelCheck})
	}
	for _, c := range ann.Asserts {
		out = append(out, typeir.Constraint{Label: c.Label, Expr: c.Expr, Level: typeir.LevelAssert})
	}
	return out
}

func behaviorOf(ann shape.Annotations) typeir.Behavior {
	var bits typeir.Behavior
	if ann.StreamNeeded {
		bits |= typeir.BehaviorNeeded
	}
	if ann.StreamDone {
		bits |= typeir.BehaviorDone
	}
	if ann.StreamState {
		bits |= typeir.BehaviorState
	}
	return bits
}

func fieldRendered(real string, ann shape.Annotations) string {
	if ann.Alias != "" {
		return ann.Alias
	}
	return real
}

func firstNonEmpty(a, b string) string {
	if a != "" {
		return a
	}
	return b
}

func shapeLabel(s *shape.Shape) string {
	if s == nil {
		return "<nil>"
	}
	if s.GoType != nil {
		return s.GoType.String()
	}
	if s.Name != "" {
		return s.Name
	}
	return fmt.Sprintf("kind %d", s.Kind)
}
