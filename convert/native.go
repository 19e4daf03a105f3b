package convert

import (
	"reflect"

	"github.com/reoring/bamlbridge/shape"
	"github.com/reoring/bamlbridge/typeir"
)

// nativeInfo recovers per-field annotation data (adapters, defaults) that
// the type IR does not carry, by re-deriving the shape of the class's native
// Go type. Shape derivation is memoized, so this is a cache lookup after the
// first use.
type nativeInfo struct {
	fields map[string]shape.FieldShape
}

func infoFor(c *typeir.Class) nativeInfo {
	if c == nil || c.Native == nil {
		return nativeInfo{}
	}
	s := shape.FromType(c.Native)
	if s.Kind != shape.KindStruct {
		return nativeInfo{}
	}
	info := nativeInfo{fields: make(map[string]shape.FieldShape, len(s.Fields))}
	for _, f := range s.Fields {
		info.fields[f.Name] = f
	}
	return info
}

func (n nativeInfo) adapter(real string) shape.FieldAdapter {
	if f, ok := n.fields[real]; ok {
		return f.Ann.Adapter
	}
	return nil
}

func (n nativeInfo) field(real string) (shape.FieldShape, bool) {
	f, ok := n.fields[real]
	return f, ok
}

// resolveClassRef maps a class-reference node to its registry definition.
func resolveClassRef(t *typeir.TypeIR, reg *typeir.Registry) (*typeir.Class, bool) {
	if t == nil || t.Kind != typeir.KindClass {
		return nil, false
	}
	return reg.Class(t.Name, t.Mode)
}

// isNilish reports whether rv represents an absent value: an invalid
// reflect.Value, a nil pointer, or a nil interface. Nil slices and maps are
// empty containers, not absent values.
func isNilish(rv reflect.Value) bool {
	if !rv.IsValid() {
		return true
	}
	switch rv.Kind() {
	case reflect.Pointer, reflect.Interface:
		return rv.IsNil()
	default:
		return false
	}
}
