package shape

import (
	"reflect"
	"strings"
	"sync"

	bridge "github.com/reoring/bamlbridge"
)

var (
	mu         sync.Mutex
	cache      = make(map[reflect.Type]*Shape) // guarded by mu
	registered sync.Map                        // reflect.Type -> *Shape (explicit registrations)

	mediaType  = reflect.TypeOf(bridge.Media{})
	shaperType = reflect.TypeOf((*Shaper)(nil)).Elem()
)

// Register binds an explicit shape to a Go type. It is the escape hatch for
// interface-typed fields (tagged unions) and other types reflection cannot
// describe.
func Register(t reflect.Type, s *Shape) {
	if s.GoType == nil {
		s.GoType = t
	}
	registered.Store(t, s)
}

// For derives (and caches) the shape of T.
func For[T any]() *Shape {
	return FromType(reflect.TypeOf((*T)(nil)).Elem())
}

// FromType derives a shape from a Go type. Derivation is memoized per type,
// so repeated calls return the identical *Shape and recursive types
// terminate. A single lock serializes derivation: a recursive type is
// interned before its members are filled, and the lock keeps that partially
// built handle invisible to concurrent callers until derivation completes.
// Types reflection cannot express map to KindInvalid and are rejected later,
// at schema build time.
func FromType(t reflect.Type) *Shape {
	if s, ok := registered.Load(t); ok {
		return s.(*Shape)
	}
	mu.Lock()
	defer mu.Unlock()
	return derive(t)
}

// derive runs with mu held.
func derive(t reflect.Type) *Shape {
	if s, ok := registered.Load(t); ok {
		return s.(*Shape)
	}
	if s, ok := cache[t]; ok {
		return s
	}
	// Shaper types describe themselves. BamlShape runs with the lock held,
	// so implementations build their shape from the explicit constructors
	// rather than calling back into For or FromType.
	if t.Implements(shaperType) && t.Kind() != reflect.Interface {
		s := reflect.New(t).Elem().Interface().(Shaper).BamlShape()
		if s.GoType == nil {
			s.GoType = t
		}
		return intern(t, s)
	}
	if t.Kind() == reflect.Pointer && t.Elem().Implements(shaperType) && t.Elem().Kind() != reflect.Interface {
		return &Shape{Kind: KindPointer, Elem: derive(t.Elem()), GoType: t}
	}

	switch t.Kind() {
	case reflect.Bool:
		return intern(t, &Shape{Kind: KindBool, GoType: t})
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return intern(t, &Shape{Kind: KindInt, Bits: intBits(t), GoType: t})
	case reflect.Uint8, reflect.Uint16, reflect.Uint32:
		return intern(t, &Shape{Kind: KindUint, Bits: intBits(t), GoType: t})
	case reflect.Uint, reflect.Uint64, reflect.Uintptr:
		// Unsupported by default; a field-level int repr annotation can
		// rescue these at build time.
		return intern(t, &Shape{Kind: KindUint, Bits: 64, GoType: t})
	case reflect.Float32, reflect.Float64:
		return intern(t, &Shape{Kind: KindFloat, Bits: intBits(t), GoType: t})
	case reflect.String:
		return intern(t, &Shape{Kind: KindString, Name: t.Name(), PkgPath: t.PkgPath(), GoType: t})
	case reflect.Pointer:
		return intern(t, &Shape{Kind: KindPointer, Elem: derive(t.Elem()), GoType: t})
	case reflect.Slice, reflect.Array:
		return intern(t, &Shape{Kind: KindList, Elem: derive(t.Elem()), GoType: t})
	case reflect.Map:
		s := &Shape{Kind: KindMap, GoType: t}
		// Intern before recursing so self references resolve to the same
		// handle instead of recursing forever.
		intern(t, s)
		s.Key = derive(t.Key())
		s.Value = derive(t.Elem())
		return s
	case reflect.Struct:
		if t == mediaType {
			return intern(t, &Shape{Kind: KindMedia, GoType: t, Ann: Annotations{MediaKind: "image"}})
		}
		s := &Shape{Kind: KindStruct, Name: t.Name(), PkgPath: t.PkgPath(), GoType: t}
		intern(t, s)
		s.Fields = fieldShapes(t, derive)
		return s
	case reflect.Interface:
		if t.NumMethod() == 0 {
			return intern(t, &Shape{Kind: KindAny, GoType: t})
		}
		return intern(t, &Shape{Kind: KindInvalid, Name: t.String(), GoType: t})
	default:
		return intern(t, &Shape{Kind: KindInvalid, Name: t.String(), GoType: t})
	}
}

func intern(t reflect.Type, s *Shape) *Shape {
	cache[t] = s
	return s
}

func intBits(t reflect.Type) int {
	switch t.Kind() {
	case reflect.Int8, reflect.Uint8:
		return 8
	case reflect.Int16, reflect.Uint16:
		return 16
	case reflect.Int32, reflect.Uint32, reflect.Float32:
		return 32
	default:
		return 64
	}
}

func structFields(t reflect.Type) []FieldShape {
	return fieldShapes(t, FromType)
}

func fieldShapes(t reflect.Type, from func(reflect.Type) *Shape) []FieldShape {
	var out []FieldShape
	for i := 0; i < t.NumField(); i++ {
		sf := t.Field(i)
		if !sf.IsExported() {
			continue
		}
		ann, skip := parseTags(sf.Tag)
		if skip {
			continue
		}
		name := sf.Name
		if ann.Rename != "" {
			name = ann.Rename
		}
		out = append(out, FieldShape{
			Name:  name,
			Shape: from(sf.Type),
			Ann:   ann,
			Index: sf.Index,
		})
	}
	return out
}

// parseTags reads the baml/desc/check/assert struct tags.
//
//	baml:"rename,alias=x,required,int=string,mapkey=pairs,tag=type,union,dynamic,media=audio,default=0,stream=needed"
//	desc:"human readable field description"
//	check:"label:expr;label2:expr2"   assert:"label:expr"
func parseTags(tag reflect.StructTag) (Annotations, bool) {
	var ann Annotations
	raw, ok := tag.Lookup("baml")
	if ok {
		parts := strings.Split(raw, ",")
		if parts[0] == "-" {
			return ann, true
		}
		ann.Rename = parts[0]
		for _, p := range parts[1:] {
			key, val, hasVal := strings.Cut(p, "=")
			switch key {
			case "alias":
				ann.Alias = val
			case "required":
				ann.Required = true
			case "int":
				ann.IntRepr = val
			case "mapkey":
				ann.MapKeyRepr = val
			case "tag":
				ann.TagField = val
			case "union":
				ann.AsUnion = true
			case "dynamic":
				ann.Dynamic = true
			case "media":
				ann.MediaKind = val
			case "default":
				ann.HasDefault = true
				if hasVal {
					ann.Default = val
				}
			case "stream":
				for _, f := range strings.Split(val, "|") {
					switch f {
					case "needed":
						ann.StreamNeeded = true
					case "done":
						ann.StreamDone = true
					case "state":
						ann.StreamState = true
					}
				}
			}
		}
	}
	if d, ok := tag.Lookup("desc"); ok {
		ann.Description = d
	}
	ann.Checks = parseConstraintTag(tag, "check")
	ann.Asserts = parseConstraintTag(tag, "assert")
	return ann, false
}

func parseConstraintTag(tag reflect.StructTag, name string) []ConstraintSpec {
	raw, ok := tag.Lookup(name)
	if !ok {
		return nil
	}
	var out []ConstraintSpec
	for _, part := range strings.Split(raw, ";") {
		if part == "" {
			continue
		}
		label, expr, found := strings.Cut(part, ":")
		if !found {
			expr = label
			label = name
		}
		out = append(out, ConstraintSpec{Label: label, Expr: expr})
	}
	return out
}
