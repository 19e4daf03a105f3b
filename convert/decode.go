package convert

import (
	"context"
	"fmt"
	"reflect"

	bridge "github.com/reoring/bamlbridge"
	"github.com/reoring/bamlbridge/codec"
	"github.com/reoring/bamlbridge/typeir"
)

type decoder struct {
	ctx           context.Context
	reg           *typeir.Registry
	opt           Opt
	res           *bridge.Result
	failedAsserts []bridge.CheckResult
}

// into decodes bv into dst guided by t, then evaluates the node's
// constraints. Structural failure suppresses constraint evaluation.
func (d *decoder) into(bv bridge.Value, t *typeir.TypeIR, dst reflect.Value, path bridge.Path) bridge.Issues {
	if iss := d.intoType(bv, t, dst, path); len(iss) > 0 {
		return iss
	}
	return d.constraints(bv, t, path)
}

func (d *decoder) intoType(bv bridge.Value, t *typeir.TypeIR, dst reflect.Value, path bridge.Path) bridge.Issues {
	if t == nil {
		return d.issuef(path, bridge.CodeInvalidType, "missing type")
	}
	if t.Kind == typeir.KindRecursiveAlias {
		target, ok := d.reg.Alias(t.Name, t.Mode)
		if !ok {
			return d.issuef(path, bridge.CodeInvalidType, "unresolved alias %s", t.Name)
		}
		return d.intoType(bv, target, dst, path)
	}
	if t.Kind == typeir.KindUnion {
		return d.intoUnion(bv, t, dst, path)
	}
	if isNullValue(bv) {
		if t.Kind == typeir.KindPrimitive && t.Prim == typeir.PrimNull {
			dst.Set(reflect.Zero(dst.Type()))
			return nil
		}
		return bridge.Issues{{
			Path:     path,
			Code:     bridge.CodeRequired,
			Expected: t.Describe(),
			Actual:   "null",
		}}
	}
	if dst.Kind() == reflect.Pointer {
		// Transparent indirection under a non-optional type.
		if dst.IsNil() {
			dst.Set(reflect.New(dst.Type().Elem()))
		}
		return d.intoType(bv, t, dst.Elem(), path)
	}
	if dst.Kind() == reflect.Interface && dst.NumMethod() == 0 && t.Kind != typeir.KindClass {
		v, iss := d.dynamic(bv, t, path)
		if len(iss) > 0 {
			return iss
		}
		if v == nil {
			dst.Set(reflect.Zero(dst.Type()))
		} else {
			dst.Set(reflect.ValueOf(v))
		}
		return nil
	}

	switch t.Kind {
	case typeir.KindTop:
		v, iss := d.dynamic(bv, t, path)
		if len(iss) > 0 {
			return iss
		}
		return assign(dst, v, path)
	case typeir.KindPrimitive:
		return d.intoPrimitive(bv, t, dst, path)
	case typeir.KindLiteral:
		return d.intoLiteral(bv, t.Lit, dst, path)
	case typeir.KindEnum:
		return d.intoEnum(bv, t, dst, path)
	case typeir.KindList:
		return d.intoList(bv, t, dst, path)
	case typeir.KindMap:
		return d.intoMap(bv, t, dst, path)
	case typeir.KindClass:
		return d.intoClass(bv, t, dst, path)
	default:
		return d.issuef(path, bridge.CodeInvalidType, "cannot decode %s", t.Describe())
	}
}

func (d *decoder) intoUnion(bv bridge.Value, t *typeir.TypeIR, dst reflect.Value, path bridge.Path) bridge.Issues {
	if isNullValue(bv) {
		if t.IsOptional() {
			dst.Set(reflect.Zero(dst.Type()))
			return nil
		}
		return bridge.Issues{{
			Path:     path,
			Code:     bridge.CodeRequired,
			Expected: t.Describe(),
			Actual:   "null",
		}}
	}
	members := t.NonNullMembers()
	if len(members) == 0 {
		return d.issuef(path, bridge.CodeInvalidType, "union has no members")
	}
	if dst.Kind() == reflect.Pointer {
		tmp := reflect.New(dst.Type().Elem())
		if iss := d.intoUnion(bv, t, tmp.Elem(), path); len(iss) > 0 {
			return iss
		}
		dst.Set(tmp)
		return nil
	}
	if len(members) == 1 {
		return d.into(bv, members[0], dst, path)
	}
	// Discriminated dispatch: when every member is a synthesized variant
	// class, the tag field picks the member outright.
	if variants, tagField, ok := d.variantMembers(members); ok {
		return d.intoVariant(bv, variants, tagField, dst, path)
	}
	// Undiscriminated: try members in declaration order and keep the last
	// member's error on total failure.
	checks := len(d.res.Checks)
	flags := len(d.res.Flags)
	asserts := len(d.failedAsserts)
	var lastIss bridge.Issues
	for _, m := range members {
		tmp := reflect.New(dst.Type()).Elem()
		iss := d.into(bv, m, tmp, path)
		if len(iss) == 0 {
			dst.Set(tmp)
			return nil
		}
		d.res.Checks = d.res.Checks[:checks]
		d.res.Flags = d.res.Flags[:flags]
		d.failedAsserts = d.failedAsserts[:asserts]
		lastIss = iss
	}
	return lastIss
}

// variantMembers reports whether every union member is a synthesized
// data-enum variant class, returning the resolved classes and the shared
// discriminator field name.
func (d *decoder) variantMembers(members []*typeir.TypeIR) ([]*typeir.Class, string, bool) {
	out := make([]*typeir.Class, 0, len(members))
	tagField := ""
	for _, m := range members {
		c, ok := resolveClassRef(m, d.reg)
		if !ok || c.Synthetic != typeir.SyntheticUnionVariant || len(c.Fields) == 0 {
			return nil, "", false
		}
		if tagField == "" {
			tagField = c.Fields[0].Name.Real
		}
		out = append(out, c)
	}
	return out, tagField, tagField != ""
}

func (d *decoder) intoVariant(bv bridge.Value, variants []*typeir.Class, tagField string, dst reflect.Value, path bridge.Path) bridge.Issues {
	fields, ok := classFields(bv)
	if !ok {
		return d.typeIssue(path, "class", bv)
	}
	tagBV, ok := fields.Get(tagField)
	if !ok {
		return d.issuef(path.Field(tagField), bridge.CodeRequired, "missing discriminator %q", tagField)
	}
	tag, ok := tagBV.(bridge.String)
	if !ok {
		return d.typeIssue(path.Field(tagField), "string", tagBV)
	}
	for _, c := range variants {
		lit := c.Fields[0].Type.Lit
		if lit == nil || lit.Kind != typeir.LiteralString || lit.Str != string(tag) {
			continue
		}
		if c.Native == nil {
			v, iss := d.dynamic(bv, typeir.ClassRef(c.Name.Real, c.Mode), path)
			if len(iss) > 0 {
				return iss
			}
			return assign(dst, v, path)
		}
		tmp := reflect.New(c.Native).Elem()
		if iss := d.intoClass(bv, typeir.ClassRef(c.Name.Real, c.Mode), tmp, path); len(iss) > 0 {
			return iss
		}
		if !c.Native.AssignableTo(dst.Type()) {
			return d.issuef(path, bridge.CodeInvalidType, "variant %s is not assignable to %s", c.Native, dst.Type())
		}
		dst.Set(tmp)
		return nil
	}
	return bridge.Issues{{
		Path:   path.Field(tagField),
		Code:   bridge.CodeUnknownVariant,
		Actual: string(tag),
	}}
}

func (d *decoder) intoPrimitive(bv bridge.Value, t *typeir.TypeIR, dst reflect.Value, path bridge.Path) bridge.Issues {
	switch t.Prim {
	case typeir.PrimString:
		s, ok := bv.(bridge.String)
		if !ok {
			return d.typeIssue(path, "string", bv)
		}
		switch dst.Kind() {
		case reflect.String:
			dst.SetString(string(s))
			return nil
		case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64,
			reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64, reflect.Uintptr:
			// Decimal-string re-encoded integer.
			parsed, err := codec.StringScalar(dst.Type()).Decode(string(s))
			if err != nil {
				return bridge.Issues{{
					Path:     path,
					Code:     bridge.CodeOverflow,
					Expected: dst.Type().String(),
					Actual:   string(s),
					Message:  err.Error(),
				}}
			}
			dst.Set(parsed)
			return nil
		}
		return d.dstIssue(path, bv, dst)
	case typeir.PrimInt:
		iv, ok := bv.(bridge.Int)
		if !ok {
			return d.typeIssue(path, "int", bv)
		}
		switch dst.Kind() {
		case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64,
			reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64, reflect.Uintptr:
			if err := codec.SetInt(dst, int64(iv)); err != nil {
				return bridge.Issues{{
					Path:     path,
					Code:     bridge.CodeOverflow,
					Expected: dst.Type().String(),
					Actual:   fmt.Sprintf("%d", int64(iv)),
					Message:  err.Error(),
				}}
			}
			return nil
		case reflect.Float32, reflect.Float64:
			dst.SetFloat(float64(iv))
			return nil
		}
		return d.dstIssue(path, bv, dst)
	case typeir.PrimFloat:
		switch fv := bv.(type) {
		case bridge.Float:
			if dst.Kind() == reflect.Float32 || dst.Kind() == reflect.Float64 {
				dst.SetFloat(float64(fv))
				return nil
			}
		case bridge.Int:
			if dst.Kind() == reflect.Float32 || dst.Kind() == reflect.Float64 {
				dst.SetFloat(float64(fv))
				return nil
			}
		default:
			return d.typeIssue(path, "float", bv)
		}
		return d.dstIssue(path, bv, dst)
	case typeir.PrimBool:
		b, ok := bv.(bridge.Bool)
		if !ok {
			return d.typeIssue(path, "bool", bv)
		}
		if dst.Kind() != reflect.Bool {
			return d.dstIssue(path, bv, dst)
		}
		dst.SetBool(bool(b))
		return nil
	case typeir.PrimMedia:
		m, ok := bv.(bridge.Media)
		if !ok {
			return d.typeIssue(path, "media", bv)
		}
		return assign(dst, m, path)
	default:
		return d.typeIssue(path, t.Describe(), bv)
	}
}

func (d *decoder) intoLiteral(bv bridge.Value, lit *typeir.Literal, dst reflect.Value, path bridge.Path) bridge.Issues {
	mismatch := func(actual string) bridge.Issues {
		return bridge.Issues{{
			Path:     path,
			Code:     bridge.CodeInvalidLiteral,
			Expected: lit.String(),
			Actual:   actual,
		}}
	}
	switch lit.Kind {
	case typeir.LiteralString:
		s, ok := bv.(bridge.String)
		if !ok || string(s) != lit.Str {
			return mismatch(describeValue(bv))
		}
		if dst.Kind() == reflect.String {
			dst.SetString(lit.Str)
			return nil
		}
	case typeir.LiteralInt:
		i, ok := bv.(bridge.Int)
		if !ok || int64(i) != lit.Int {
			return mismatch(describeValue(bv))
		}
		if err := codec.SetInt(dst, lit.Int); err == nil {
			return nil
		}
	case typeir.LiteralBool:
		b, ok := bv.(bridge.Bool)
		if !ok || bool(b) != lit.Bool {
			return mismatch(describeValue(bv))
		}
		if dst.Kind() == reflect.Bool {
			dst.SetBool(lit.Bool)
			return nil
		}
	}
	return d.dstIssue(path, bv, dst)
}

func (d *decoder) intoEnum(bv bridge.Value, t *typeir.TypeIR, dst reflect.Value, path bridge.Path) bridge.Issues {
	en, ok := d.reg.Enum(t.Name)
	if !ok {
		return d.issuef(path, bridge.CodeInvalidType, "unknown enum %s", t.Name)
	}
	var s string
	switch v := bv.(type) {
	case bridge.Enum:
		s = v.Variant
	case bridge.String:
		s = string(v)
	default:
		return d.typeIssue(path, "enum "+en.Name.RenderedName(), bv)
	}
	variant, found := en.Match(s)
	if !found {
		return bridge.Issues{{
			Path:     path,
			Code:     bridge.CodeInvalidEnum,
			Expected: "enum " + en.Name.RenderedName(),
			Actual:   s,
		}}
	}
	if dst.Type() == reflect.TypeOf(bridge.Enum{}) {
		dst.Set(reflect.ValueOf(bridge.Enum{Type: t.Name, Variant: variant.Name.Real}))
		return nil
	}
	if dst.Kind() == reflect.String {
		dst.SetString(variant.Name.Real)
		return nil
	}
	return d.dstIssue(path, bv, dst)
}

func (d *decoder) intoList(bv bridge.Value, t *typeir.TypeIR, dst reflect.Value, path bridge.Path) bridge.Issues {
	list, ok := bv.(bridge.List)
	if !ok {
		return d.typeIssue(path, "list", bv)
	}
	// A pairs-encoded map comes back as a list of entry classes.
	if c, ok := resolveClassRef(t.Elem, d.reg); ok && c.Synthetic == typeir.SyntheticMapEntry && dst.Kind() == reflect.Map {
		return d.intoPairs(list, c, dst, path)
	}
	switch dst.Kind() {
	case reflect.Slice:
		out := reflect.MakeSlice(dst.Type(), len(list), len(list))
		var all bridge.Issues
		for i, ev := range list {
			all = append(all, d.into(ev, t.Elem, out.Index(i), path.Index(i))...)
		}
		if len(all) > 0 {
			return all
		}
		dst.Set(out)
		return nil
	case reflect.Array:
		if dst.Len() != len(list) {
			return d.issuef(path, bridge.CodeInvalidType, "array length %d, got %d elements", dst.Len(), len(list))
		}
		var all bridge.Issues
		for i, ev := range list {
			all = append(all, d.into(ev, t.Elem, dst.Index(i), path.Index(i))...)
		}
		return all
	default:
		return d.dstIssue(path, bv, dst)
	}
}

func (d *decoder) intoPairs(list bridge.List, entry *typeir.Class, dst reflect.Value, path bridge.Path) bridge.Issues {
	keyType := entry.Fields[0].Type
	valType := entry.Fields[1].Type
	out := reflect.MakeMapWithSize(dst.Type(), len(list))
	var all bridge.Issues
	for i, ev := range list {
		fields, ok := classFields(ev)
		if !ok {
			all = append(all, d.typeIssue(path.Index(i), "class "+entry.Name.RenderedName(), ev)...)
			continue
		}
		keyBV, ok := fields.Get("key")
		if !ok {
			all = append(all, d.issuef(path.Index(i).Field("key"), bridge.CodeRequired, "missing entry key")...)
			continue
		}
		valBV, ok := fields.Get("value")
		if !ok {
			all = append(all, d.issuef(path.Index(i).Field("value"), bridge.CodeRequired, "missing entry value")...)
			continue
		}
		k := reflect.New(dst.Type().Key()).Elem()
		v := reflect.New(dst.Type().Elem()).Elem()
		iss := d.into(keyBV, keyType, k, path.Index(i).Field("key"))
		iss = append(iss, d.into(valBV, valType, v, path.Index(i).Field("value"))...)
		if len(iss) > 0 {
			all = append(all, iss...)
			continue
		}
		out.SetMapIndex(k, v)
	}
	if len(all) > 0 {
		return all
	}
	dst.Set(out)
	return nil
}

func (d *decoder) intoMap(bv bridge.Value, t *typeir.TypeIR, dst reflect.Value, path bridge.Path) bridge.Issues {
	fields, ok := mapFields(bv)
	if !ok {
		return d.typeIssue(path, "map", bv)
	}
	if dst.Kind() != reflect.Map {
		return d.dstIssue(path, bv, dst)
	}
	out := reflect.MakeMapWithSize(dst.Type(), fields.Len())
	var all bridge.Issues
	for i := 0; i < fields.Len(); i++ {
		ks, vv := fields.At(i)
		kpath := path.Key(ks)
		var k reflect.Value
		if dst.Type().Key().Kind() == reflect.String {
			k = reflect.New(dst.Type().Key()).Elem()
			k.SetString(ks)
		} else {
			// String re-encoded key.
			parsed, err := codec.StringScalar(dst.Type().Key()).Decode(ks)
			if err != nil {
				all = append(all, bridge.Issue{
					Path:     kpath,
					Code:     bridge.CodeOverflow,
					Expected: dst.Type().Key().String(),
					Actual:   ks,
					Message:  err.Error(),
				})
				continue
			}
			k = parsed
		}
		v := reflect.New(dst.Type().Elem()).Elem()
		if iss := d.into(vv, t.Value, v, kpath); len(iss) > 0 {
			all = append(all, iss...)
			continue
		}
		out.SetMapIndex(k, v)
	}
	if len(all) > 0 {
		return all
	}
	dst.Set(out)
	return nil
}

func (d *decoder) intoClass(bv bridge.Value, t *typeir.TypeIR, dst reflect.Value, path bridge.Path) bridge.Issues {
	c, ok := d.reg.Class(t.Name, t.Mode)
	if !ok {
		return d.issuef(path, bridge.CodeInvalidType, "unknown class %s", t.Name)
	}
	fields, ok := classFields(bv)
	if !ok {
		return d.typeIssue(path, "class "+c.Name.RenderedName(), bv)
	}
	if dst.Kind() == reflect.Interface && dst.NumMethod() == 0 {
		v, iss := d.dynamic(bv, t, path)
		if len(iss) > 0 {
			return iss
		}
		return assign(dst, v, path)
	}
	if dst.Kind() != reflect.Struct {
		return d.dstIssue(path, bv, dst)
	}
	info := infoFor(c)
	var all bridge.Issues
	for i := range c.Fields {
		f := &c.Fields[i]
		fpath := path.Field(f.Name.Real)
		fieldBV, present := fields.Get(f.Name.Real)
		if !present && f.Name.Rendered != "" {
			fieldBV, present = fields.Get(f.Name.Rendered)
		}
		if len(f.Index) == 0 {
			// Synthesized discriminator; validated during dispatch.
			continue
		}
		fv := dst.FieldByIndex(f.Index)
		if ad := info.adapter(f.Name.Real); ad != nil {
			if !present {
				all = append(all, d.issuef(fpath, bridge.CodeRequired, "missing field %s", f.Name.Real)...)
				continue
			}
			native, err := ad.FromValue(fieldBV)
			if err != nil {
				all = append(all, d.issuef(fpath, bridge.CodeInvalidValue, "adapter: %v", err)...)
				continue
			}
			all = append(all, assign(fv, native, fpath)...)
			continue
		}
		if !present || isNullValue(fieldBV) {
			if ann, ok := info.field(f.Name.Real); ok && ann.Ann.HasDefault {
				if iss := applyDefault(fv, ann.Ann.Default, fpath); len(iss) > 0 {
					all = append(all, iss...)
				} else {
					d.res.AddFlag("field_defaulted", f.Name.Real)
				}
				continue
			}
			if f.Type.IsOptional() {
				continue
			}
			all = append(all, bridge.Issue{
				Path:     fpath,
				Code:     bridge.CodeRequired,
				Expected: f.Type.Describe(),
				Actual:   "missing",
			})
			continue
		}
		all = append(all, d.into(fieldBV, f.Type, fv, fpath)...)
	}
	return all
}

func (d *decoder) constraints(bv bridge.Value, t *typeir.TypeIR, path bridge.Path) bridge.Issues {
	if len(t.Meta.Constraints) == 0 || d.opt.Evaluator == nil {
		return nil
	}
	var iss bridge.Issues
	for _, c := range t.Meta.Constraints {
		ok, err := d.opt.Evaluator.Evaluate(d.ctx, c.Expr, bv)
		if err != nil {
			iss = append(iss, bridge.Issue{
				Path:    path,
				Code:    bridge.CodeInvalidValue,
				Message: fmt.Sprintf("constraint %s: %v", c.Label, err),
			})
			continue
		}
		result := bridge.CheckResult{Label: c.Label, Expr: c.Expr, Passed: ok}
		if c.Level == typeir.LevelCheck {
			d.res.AddCheck(result)
		} else if !ok {
			d.failedAsserts = append(d.failedAsserts, result)
		}
	}
	return iss
}

// applyDefault writes an annotation-supplied default into fv. Tag defaults
// arrive as strings and are parsed by the destination's kind; explicit shape
// defaults assign directly.
func applyDefault(fv reflect.Value, def any, path bridge.Path) bridge.Issues {
	if fv.Kind() == reflect.Pointer {
		if fv.IsNil() {
			fv.Set(reflect.New(fv.Type().Elem()))
		}
		fv = fv.Elem()
	}
	if s, ok := def.(string); ok && fv.Kind() != reflect.String {
		parsed, err := codec.ParseScalar(s, fv.Type())
		if err != nil {
			return bridge.Issues{{
				Path:    path,
				Code:    bridge.CodeInvalidValue,
				Message: fmt.Sprintf("default: %v", err),
			}}
		}
		fv.Set(parsed)
		return nil
	}
	return assign(fv, def, path)
}

func assign(dst reflect.Value, v any, path bridge.Path) bridge.Issues {
	if v == nil {
		dst.Set(reflect.Zero(dst.Type()))
		return nil
	}
	rv := reflect.ValueOf(v)
	if !rv.Type().AssignableTo(dst.Type()) {
		if rv.Type().ConvertibleTo(dst.Type()) {
			dst.Set(rv.Convert(dst.Type()))
			return nil
		}
		return bridge.Issues{{
			Path:     path,
			Code:     bridge.CodeInvalidType,
			Expected: dst.Type().String(),
			Actual:   rv.Type().String(),
		}}
	}
	dst.Set(rv)
	return nil
}

func isNullValue(bv bridge.Value) bool {
	if bv == nil {
		return true
	}
	_, ok := bv.(bridge.Null)
	return ok
}

// classFields returns the ordered fields behind a class-shaped value. Parsed
// output may surface classes as plain maps, so both are accepted.
func classFields(bv bridge.Value) (*bridge.Fields, bool) {
	switch v := bv.(type) {
	case bridge.Class:
		return v.Fields, true
	case bridge.Map:
		return v.Entries, true
	default:
		return nil, false
	}
}

func mapFields(bv bridge.Value) (*bridge.Fields, bool) {
	switch v := bv.(type) {
	case bridge.Map:
		return v.Entries, true
	case bridge.Class:
		return v.Fields, true
	default:
		return nil, false
	}
}

func describeValue(bv bridge.Value) string {
	if bv == nil {
		return "null"
	}
	return bv.Kind().String()
}

func (d *decoder) typeIssue(path bridge.Path, expected string, bv bridge.Value) bridge.Issues {
	return bridge.Issues{{
		Path:     path,
		Code:     bridge.CodeInvalidType,
		Expected: expected,
		Actual:   describeValue(bv),
	}}
}

func (d *decoder) dstIssue(path bridge.Path, bv bridge.Value, dst reflect.Value) bridge.Issues {
	return bridge.Issues{{
		Path:     path,
		Code:     bridge.CodeInvalidType,
		Expected: dst.Type().String(),
		Actual:   describeValue(bv),
		Message:  "destination cannot hold this value",
	}}
}

func (d *decoder) issuef(path bridge.Path, code, format string, args ...any) bridge.Issues {
	return bridge.Issues{{
		Path:    path,
		Code:    code,
		Message: fmt.Sprintf(format, args...),
	}}
}
