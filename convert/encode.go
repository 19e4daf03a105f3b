package convert

import (
	"fmt"
	"reflect"
	"sort"

	bridge "github.com/reoring/bamlbridge"
	"github.com/reoring/bamlbridge/codec"
	"github.com/reoring/bamlbridge/typeir"
)

type encoder struct {
	reg *typeir.Registry
}

func (e *encoder) encode(rv reflect.Value, t *typeir.TypeIR, path bridge.Path) (bridge.Value, error) {
	if t == nil {
		return nil, e.errf(path, bridge.CodeInvalidType, "missing type")
	}
	if t.Kind == typeir.KindRecursiveAlias {
		target, ok := e.reg.Alias(t.Name, t.Mode)
		if !ok {
			return nil, e.errf(path, bridge.CodeInvalidType, "unresolved alias %s", t.Name)
		}
		return e.encode(rv, target, path)
	}
	for rv.IsValid() && rv.Kind() == reflect.Interface && !rv.IsNil() {
		rv = rv.Elem()
	}
	if t.Kind == typeir.KindUnion {
		return e.encodeUnion(rv, t, path)
	}
	if isNilish(rv) {
		if t.Kind == typeir.KindPrimitive && t.Prim == typeir.PrimNull {
			return bridge.Null{}, nil
		}
		return nil, e.errf(path, bridge.CodeRequired, "missing value for %s", t.Describe())
	}
	// Transparent indirection: a pointer under a non-optional type is a
	// representation detail.
	if rv.Kind() == reflect.Pointer {
		rv = rv.Elem()
	}

	switch t.Kind {
	case typeir.KindTop:
		return e.encodeDynamic(rv, path)
	case typeir.KindPrimitive:
		return e.encodePrimitive(rv, t, path)
	case typeir.KindLiteral:
		return e.encodeLiteral(rv, t.Lit, path)
	case typeir.KindEnum:
		return e.encodeEnum(rv, t, path)
	case typeir.KindList:
		return e.encodeList(rv, t, path)
	case typeir.KindMap:
		return e.encodeMap(rv, t, path)
	case typeir.KindClass:
		return e.encodeClass(rv, t, path)
	case typeir.KindTuple:
		return e.encodeTuple(rv, t, path)
	default:
		return nil, e.errf(path, bridge.CodeInvalidType, "cannot encode %s", t.Describe())
	}
}

func (e *encoder) encodeUnion(rv reflect.Value, t *typeir.TypeIR, path bridge.Path) (bridge.Value, error) {
	if isNilish(rv) {
		if t.IsOptional() {
			return bridge.Null{}, nil
		}
		return nil, e.errf(path, bridge.CodeRequired, "missing value for %s", t.Describe())
	}
	members := t.NonNullMembers()
	if len(members) == 1 {
		return e.encode(rv, members[0], path)
	}
	// A data-enum value dispatches by its concrete Go type against the
	// variant classes' native types.
	dyn := rv
	if dyn.Kind() == reflect.Pointer && !dyn.IsNil() {
		dyn = dyn.Elem()
	}
	for _, m := range members {
		if c, ok := resolveClassRef(m, e.reg); ok && c.Native != nil && dyn.IsValid() && dyn.Type() == c.Native {
			return e.encode(rv, m, path)
		}
	}
	var lastErr error
	for _, m := range members {
		v, err := e.encode(rv, m, path)
		if err == nil {
			return v, nil
		}
		lastErr = err
	}
	if lastErr == nil {
		return nil, e.errf(path, bridge.CodeInvalidType, "empty union")
	}
	return nil, lastErr
}

func (e *encoder) encodePrimitive(rv reflect.Value, t *typeir.TypeIR, path bridge.Path) (bridge.Value, error) {
	switch t.Prim {
	case typeir.PrimString:
		switch rv.Kind() {
		case reflect.String:
			return bridge.String(rv.String()), nil
		case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64,
			reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64, reflect.Uintptr:
			// Wide-integer fields schematized as decimal strings.
			s, err := codec.StringScalar(rv.Type()).Encode(rv)
			if err != nil {
				return nil, e.errf(path, bridge.CodeInvalidType, "%v", err)
			}
			return bridge.String(s), nil
		}
		return nil, e.typeErr(path, "string", rv)
	case typeir.PrimInt:
		switch rv.Kind() {
		case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
			return bridge.Int(rv.Int()), nil
		case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64, reflect.Uintptr:
			u := rv.Uint()
			if !codec.FitsInt64(u) {
				// The builder only admits unsigned types here under the
				// range-checked repr; exceeding int64 is a defect in the
				// caller's schema/value pairing, not an input error.
				panic(fmt.Sprintf("convert: %d at %s exceeds the int64 range", u, path))
			}
			return bridge.Int(int64(u)), nil
		}
		return nil, e.typeErr(path, "int", rv)
	case typeir.PrimFloat:
		switch rv.Kind() {
		case reflect.Float32, reflect.Float64:
			return bridge.Float(rv.Float()), nil
		case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
			return bridge.Float(float64(rv.Int())), nil
		case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64, reflect.Uintptr:
			return bridge.Float(float64(rv.Uint())), nil
		}
		return nil, e.typeErr(path, "float", rv)
	case typeir.PrimBool:
		if rv.Kind() == reflect.Bool {
			return bridge.Bool(rv.Bool()), nil
		}
		return nil, e.typeErr(path, "bool", rv)
	case typeir.PrimNull:
		return nil, e.typeErr(path, "null", rv)
	case typeir.PrimMedia:
		if m, ok := rv.Interface().(bridge.Media); ok {
			if m.MediaKind == "" {
				m.MediaKind = t.MediaKind
			}
			return m, nil
		}
		return nil, e.typeErr(path, "media", rv)
	default:
		return nil, e.errf(path, bridge.CodeInvalidType, "invalid primitive")
	}
}

func (e *encoder) encodeLiteral(rv reflect.Value, lit *typeir.Literal, path bridge.Path) (bridge.Value, error) {
	switch lit.Kind {
	case typeir.LiteralString:
		if rv.Kind() == reflect.String && rv.String() == lit.Str {
			return bridge.String(lit.Str), nil
		}
	case typeir.LiteralInt:
		switch rv.Kind() {
		case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
			if rv.Int() == lit.Int {
				return bridge.Int(lit.Int), nil
			}
		case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64, reflect.Uintptr:
			if codec.FitsInt64(rv.Uint()) && int64(rv.Uint()) == lit.Int {
				return bridge.Int(lit.Int), nil
			}
		}
	case typeir.LiteralBool:
		if rv.Kind() == reflect.Bool && rv.Bool() == lit.Bool {
			return bridge.Bool(lit.Bool), nil
		}
	}
	return nil, e.errf(path, bridge.CodeInvalidLiteral, "value is not %s", lit)
}

func (e *encoder) encodeEnum(rv reflect.Value, t *typeir.TypeIR, path bridge.Path) (bridge.Value, error) {
	en, ok := e.reg.Enum(t.Name)
	if !ok {
		return nil, e.errf(path, bridge.CodeInvalidType, "unknown enum %s", t.Name)
	}
	if ev, ok := rv.Interface().(bridge.Enum); ok {
		if _, found := en.Match(ev.Variant); !found {
			return nil, e.errf(path, bridge.CodeInvalidEnum, "%q is not a variant of %s", ev.Variant, t.Name)
		}
		return bridge.Enum{Type: t.Name, Variant: ev.Variant}, nil
	}
	if rv.Kind() != reflect.String {
		return nil, e.typeErr(path, "enum "+t.Name, rv)
	}
	v, found := en.Match(rv.String())
	if !found {
		return nil, e.errf(path, bridge.CodeInvalidEnum, "%q is not a variant of %s", rv.String(), t.Name)
	}
	return bridge.Enum{Type: t.Name, Variant: v.Name.Real}, nil
}

func (e *encoder) encodeList(rv reflect.Value, t *typeir.TypeIR, path bridge.Path) (bridge.Value, error) {
	// A list of synthesized map-entry classes is the schematized form of a
	// native map with structured keys.
	if c, ok := resolveClassRef(t.Elem, e.reg); ok && c.Synthetic == typeir.SyntheticMapEntry && rv.Kind() == reflect.Map {
		return e.encodePairs(rv, c, path)
	}
	if rv.Kind() != reflect.Slice && rv.Kind() != reflect.Array {
		return nil, e.typeErr(path, "list", rv)
	}
	out := make(bridge.List, 0, rv.Len())
	for i := 0; i < rv.Len(); i++ {
		ev, err := e.encode(rv.Index(i), t.Elem, path.Index(i))
		if err != nil {
			return nil, err
		}
		out = append(out, ev)
	}
	return out, nil
}

func (e *encoder) encodePairs(rv reflect.Value, entry *typeir.Class, path bridge.Path) (bridge.Value, error) {
	keyType := entry.Fields[0].Type
	valType := entry.Fields[1].Type
	keys := sortedMapKeys(rv)
	out := make(bridge.List, 0, len(keys))
	for i, k := range keys {
		kv, err := e.encode(k, keyType, path.Index(i).Field("key"))
		if err != nil {
			return nil, err
		}
		vv, err := e.encode(rv.MapIndex(k), valType, path.Index(i).Field("value"))
		if err != nil {
			return nil, err
		}
		fields := bridge.NewFields().Set("key", kv).Set("value", vv)
		out = append(out, bridge.Class{Name: entry.Name.Real, Fields: fields})
	}
	return out, nil
}

func (e *encoder) encodeMap(rv reflect.Value, t *typeir.TypeIR, path bridge.Path) (bridge.Value, error) {
	if rv.Kind() != reflect.Map {
		return nil, e.typeErr(path, "map", rv)
	}
	entries := bridge.NewFields()
	keyCodec := codec.StringScalar(rv.Type().Key())
	for _, k := range sortedMapKeys(rv) {
		ks, err := keyCodec.Encode(k)
		if err != nil {
			return nil, e.errf(path, bridge.CodeInvalidType, "%v", err)
		}
		vv, err := e.encode(rv.MapIndex(k), t.Value, path.Key(ks))
		if err != nil {
			return nil, err
		}
		entries.Set(ks, vv)
	}
	return bridge.Map{Entries: entries}, nil
}

func (e *encoder) encodeClass(rv reflect.Value, t *typeir.TypeIR, path bridge.Path) (bridge.Value, error) {
	c, ok := e.reg.Class(t.Name, t.Mode)
	if !ok {
		return nil, e.errf(path, bridge.CodeInvalidType, "unknown class %s", t.Name)
	}
	if cv, ok := rv.Interface().(bridge.Class); ok {
		return cv, nil
	}
	switch rv.Kind() {
	case reflect.Struct:
		return e.encodeStructClass(rv, c, path)
	case reflect.Map:
		return e.encodeMapClass(rv, c, path)
	default:
		return nil, e.typeErr(path, "class "+c.Name.RenderedName(), rv)
	}
}

func (e *encoder) encodeStructClass(rv reflect.Value, c *typeir.Class, path bridge.Path) (bridge.Value, error) {
	info := infoFor(c)
	fields := bridge.NewFields()
	for i := range c.Fields {
		f := &c.Fields[i]
		fpath := path.Field(f.Name.Real)
		if ad := info.adapter(f.Name.Real); ad != nil {
			bv, err := ad.ToValue(rv.FieldByIndex(f.Index).Interface())
			if err != nil {
				return nil, e.errf(fpath, bridge.CodeInvalidValue, "adapter: %v", err)
			}
			fields.Set(f.Name.Real, bv)
			continue
		}
		if len(f.Index) == 0 {
			// Synthesized discriminator field; its literal type is the value.
			if f.Type.Kind == typeir.KindLiteral {
				fields.Set(f.Name.Real, literalValue(f.Type.Lit))
			}
			continue
		}
		fv, err := e.encode(rv.FieldByIndex(f.Index), f.Type, fpath)
		if err != nil {
			return nil, err
		}
		fields.Set(f.Name.Real, fv)
	}
	return bridge.Class{Name: c.Name.Real, Fields: fields}, nil
}

func (e *encoder) encodeMapClass(rv reflect.Value, c *typeir.Class, path bridge.Path) (bridge.Value, error) {
	fields := bridge.NewFields()
	for i := range c.Fields {
		f := &c.Fields[i]
		fpath := path.Field(f.Name.Real)
		mk := rv.MapIndex(reflect.ValueOf(f.Name.Real))
		if !mk.IsValid() && f.Name.Rendered != "" {
			mk = rv.MapIndex(reflect.ValueOf(f.Name.Rendered))
		}
		if !mk.IsValid() {
			if f.Type.IsOptional() {
				fields.Set(f.Name.Real, bridge.Null{})
				continue
			}
			return nil, e.errf(fpath, bridge.CodeRequired, "missing field %s", f.Name.Real)
		}
		fv, err := e.encode(mk, f.Type, fpath)
		if err != nil {
			return nil, err
		}
		fields.Set(f.Name.Real, fv)
	}
	return bridge.Class{Name: c.Name.Real, Fields: fields}, nil
}

func (e *encoder) encodeTuple(rv reflect.Value, t *typeir.TypeIR, path bridge.Path) (bridge.Value, error) {
	if rv.Kind() != reflect.Slice && rv.Kind() != reflect.Array {
		return nil, e.typeErr(path, "tuple", rv)
	}
	if rv.Len() != len(t.Items) {
		return nil, e.errf(path, bridge.CodeInvalidType, "tuple length %d, want %d", rv.Len(), len(t.Items))
	}
	out := make(bridge.List, 0, len(t.Items))
	for i, it := range t.Items {
		ev, err := e.encode(rv.Index(i), it, path.Index(i))
		if err != nil {
			return nil, err
		}
		out = append(out, ev)
	}
	return out, nil
}

// encodeDynamic encodes a value with no schema guidance (accepts-anything
// contexts).
func (e *encoder) encodeDynamic(rv reflect.Value, path bridge.Path) (bridge.Value, error) {
	switch rv.Kind() {
	case reflect.String:
		return bridge.String(rv.String()), nil
	case reflect.Bool:
		return bridge.Bool(rv.Bool()), nil
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return bridge.Int(rv.Int()), nil
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64, reflect.Uintptr:
		u := rv.Uint()
		if !codec.FitsInt64(u) {
			s, _ := codec.FormatScalar(rv)
			return bridge.String(s), nil
		}
		return bridge.Int(int64(u)), nil
	case reflect.Float32, reflect.Float64:
		return bridge.Float(rv.Float()), nil
	case reflect.Slice, reflect.Array:
		out := make(bridge.List, 0, rv.Len())
		for i := 0; i < rv.Len(); i++ {
			ev, err := e.encode(rv.Index(i), typeir.Top(), path.Index(i))
			if err != nil {
				return nil, err
			}
			out = append(out, ev)
		}
		return out, nil
	case reflect.Map:
		entries := bridge.NewFields()
		keyCodec := codec.StringScalar(rv.Type().Key())
		for _, k := range sortedMapKeys(rv) {
			ks, err := keyCodec.Encode(k)
			if err != nil {
				return nil, e.errf(path, bridge.CodeInvalidType, "%v", err)
			}
			vv, err := e.encode(rv.MapIndex(k), typeir.Top(), path.Key(ks))
			if err != nil {
				return nil, err
			}
			entries.Set(ks, vv)
		}
		return bridge.Map{Entries: entries}, nil
	default:
		if bv, ok := rv.Interface().(bridge.Value); ok {
			return bv, nil
		}
		return nil, e.typeErr(path, "any", rv)
	}
}

func literalValue(lit *typeir.Literal) bridge.Value {
	switch lit.Kind {
	case typeir.LiteralString:
		return bridge.String(lit.Str)
	case typeir.LiteralInt:
		return bridge.Int(lit.Int)
	default:
		return bridge.Bool(lit.Bool)
	}
}

// sortedMapKeys returns map keys ordered by their canonical string form, so
// encoding is deterministic regardless of Go's map iteration order.
func sortedMapKeys(rv reflect.Value) []reflect.Value {
	keys := rv.MapKeys()
	sort.Slice(keys, func(i, j int) bool {
		a, errA := codec.FormatScalar(keys[i])
		b, errB := codec.FormatScalar(keys[j])
		if errA != nil || errB != nil {
			return fmt.Sprint(keys[i].Interface()) < fmt.Sprint(keys[j].Interface())
		}
		return a < b
	})
	return keys
}

func (e *encoder) typeErr(path bridge.Path, expected string, rv reflect.Value) error {
	actual := "invalid"
	if rv.IsValid() {
		actual = rv.Type().String()
	}
	return bridge.Issues{{
		Path:     path,
		Code:     bridge.CodeInvalidType,
		Expected: expected,
		Actual:   actual,
	}}
}

func (e *encoder) errf(path bridge.Path, code, format string, args ...any) error {
	return bridge.Issues{{
		Path:    path,
		Code:    code,
		Message: fmt.Sprintf(format, args...),
	}}
}
