package typeir

import "reflect"

// Name pairs a real identifier with an optional rendered alias. The real
// name is the registry/matching key; the rendered name is display-only.
type Name struct {
	Real     string
	Rendered string // optional alias
}

// RenderedName returns the alias when present, otherwise the real name.
func (n Name) RenderedName() string {
	if n.Rendered != "" {
		return n.Rendered
	}
	return n.Real
}

// Field is one class field, in declaration order.
type Field struct {
	Name        Name
	Type        *TypeIR
	Description string
	Dynamic     bool
	// Index is the reflect field index path into the native Go struct
	// backing this class, when there is one. Empty for dynamic classes and
	// synthesized fields (tags, map entries).
	Index []int
}

// Synthetic markers for builder-synthesized classes.
const (
	SyntheticMapEntry     = "map_entry"
	SyntheticUnionVariant = "union_variant"
)

// Class is a named record definition.
type Class struct {
	Name        Name
	Mode        Mode
	Fields      []Field
	Description string
	Dynamic     bool
	Constraints []Constraint
	Behavior    Behavior
	// Synthetic records why the builder synthesized this class, when it did
	// (map-as-pairs entries, data-enum variants).
	Synthetic string
	// Native is the Go type backing this class, when derived by reflection.
	Native reflect.Type
}

// FieldByName looks a field up by real name first, then rendered alias.
func (c *Class) FieldByName(name string) (*Field, bool) {
	for i := range c.Fields {
		if c.Fields[i].Name.Real == name {
			return &c.Fields[i], true
		}
	}
	for i := range c.Fields {
		if c.Fields[i].Name.Rendered == name {
			return &c.Fields[i], true
		}
	}
	return nil, false
}

// EnumValue is one enum variant.
type EnumValue struct {
	Name        Name
	Description string
}

// Enum is a named set of string variants.
type Enum struct {
	Name        Name
	Values      []EnumValue
	Description string
	Dynamic     bool
	// Native is the Go type backing this enum, when derived by reflection.
	Native reflect.Type
}

// Match returns the variant whose real name or rendered alias equals s.
func (e *Enum) Match(s string) (*EnumValue, bool) {
	for i := range e.Values {
		if e.Values[i].Name.Real == s {
			return &e.Values[i], true
		}
	}
	for i := range e.Values {
		if e.Values[i].Name.Rendered == s {
			return &e.Values[i], true
		}
	}
	return nil, false
}

// ClassKey identifies a class definition: the same logical class may have
// one entry per streaming mode.
type ClassKey struct {
	Name string
	Mode Mode
}

// Registry is the arena holding class/enum definitions referenced by name
// from TypeIR nodes. It is append-only during a build pass and strictly
// immutable afterwards; finished registries are safe to share across
// goroutines without synchronization.
type Registry struct {
	classes    map[ClassKey]*Class
	classOrder []ClassKey
	enums      map[string]*Enum
	enumOrder  []string
	aliases    map[ClassKey]*TypeIR
	aliasOrder []ClassKey
	recursive  map[string]struct{}
}

// NewRegistry returns an empty registry.
func NewRegistry() *Registry {
	return &Registry{
		classes:   make(map[ClassKey]*Class),
		enums:     make(map[string]*Enum),
		aliases:   make(map[ClassKey]*TypeIR),
		recursive: make(map[string]struct{}),
	}
}

// AddClass registers a class definition under (name, mode). Re-adding the
// same key replaces the definition in place, which is how placeholder
// entries inserted for cycle breaking are completed.
func (r *Registry) AddClass(c *Class) {
	key := ClassKey{Name: c.Name.Real, Mode: c.Mode}
	if _, ok := r.classes[key]; !ok {
		r.classOrder = append(r.classOrder, key)
	}
	r.classes[key] = c
}

// Class looks up a class definition.
func (r *Registry) Class(name string, mode Mode) (*Class, bool) {
	c, ok := r.classes[ClassKey{Name: name, Mode: mode}]
	return c, ok
}

// Classes returns class keys in registration order.
func (r *Registry) Classes() []ClassKey { return r.classOrder }

// AddEnum registers an enum definition.
func (r *Registry) AddEnum(e *Enum) {
	if _, ok := r.enums[e.Name.Real]; !ok {
		r.enumOrder = append(r.enumOrder, e.Name.Real)
	}
	r.enums[e.Name.Real] = e
}

// Enum looks up an enum definition.
func (r *Registry) Enum(name string) (*Enum, bool) {
	e, ok := r.enums[name]
	return e, ok
}

// Enums returns enum names in registration order.
func (r *Registry) Enums() []string { return r.enumOrder }

// SetAlias records the expansion of a recursive type alias.
func (r *Registry) SetAlias(name string, mode Mode, target *TypeIR) {
	key := ClassKey{Name: name, Mode: mode}
	if _, ok := r.aliases[key]; !ok {
		r.aliasOrder = append(r.aliasOrder, key)
	}
	r.aliases[key] = target
}

// Alias resolves a recursive type alias by one level.
func (r *Registry) Alias(name string, mode Mode) (*TypeIR, bool) {
	t, ok := r.aliases[ClassKey{Name: name, Mode: mode}]
	return t, ok
}

// MarkRecursive records that a class participates in a reference cycle.
func (r *Registry) MarkRecursive(name string) {
	r.recursive[name] = struct{}{}
}

// IsRecursive reports whether a class participates in a reference cycle.
func (r *Registry) IsRecursive(name string) bool {
	_, ok := r.recursive[name]
	return ok
}
