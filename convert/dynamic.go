package convert

import (
	bridge "github.com/reoring/bamlbridge"
	"github.com/reoring/bamlbridge/typeir"
)

// dynamic decodes bv against t into generic natives (string, int64, float64,
// bool, []any, map[string]any, nil). It is the destination-free decoding
// path used for empty-interface destinations and dynamic classes. The node
// itself is validated structurally; its constraints are evaluated by the
// caller, children are fully checked here.
func (d *decoder) dynamic(bv bridge.Value, t *typeir.TypeIR, path bridge.Path) (any, bridge.Issues) {
	if t == nil {
		return nil, d.issuef(path, bridge.CodeInvalidType, "missing type")
	}
	switch t.Kind {
	case typeir.KindRecursiveAlias:
		target, ok := d.reg.Alias(t.Name, t.Mode)
		if !ok {
			return nil, d.issuef(path, bridge.CodeInvalidType, "unresolved alias %s", t.Name)
		}
		return d.dynamic(bv, target, path)
	case typeir.KindUnion:
		return d.dynamicUnion(bv, t, path)
	case typeir.KindTop:
		return d.dynamicTop(bv, path)
	}
	if isNullValue(bv) {
		if t.Kind == typeir.KindPrimitive && t.Prim == typeir.PrimNull {
			return nil, nil
		}
		return nil, bridge.Issues{{
			Path:     path,
			Code:     bridge.CodeRequired,
			Expected: t.Describe(),
			Actual:   "null",
		}}
	}
	switch t.Kind {
	case typeir.KindPrimitive:
		return d.dynamicPrimitive(bv, t, path)
	case typeir.KindLiteral:
		switch t.Lit.Kind {
		case typeir.LiteralString:
			if s, ok := bv.(bridge.String); ok && string(s) == t.Lit.Str {
				return t.Lit.Str, nil
			}
		case typeir.LiteralInt:
			if i, ok := bv.(bridge.Int); ok && int64(i) == t.Lit.Int {
				return t.Lit.Int, nil
			}
		case typeir.LiteralBool:
			if b, ok := bv.(bridge.Bool); ok && bool(b) == t.Lit.Bool {
				return t.Lit.Bool, nil
			}
		}
		return nil, bridge.Issues{{
			Path:     path,
			Code:     bridge.CodeInvalidLiteral,
			Expected: t.Lit.String(),
			Actual:   describeValue(bv),
		}}
	case typeir.KindEnum:
		en, ok := d.reg.Enum(t.Name)
		if !ok {
			return nil, d.issuef(path, bridge.CodeInvalidType, "unknown enum %s", t.Name)
		}
		var s string
		switch v := bv.(type) {
		case bridge.Enum:
			s = v.Variant
		case bridge.String:
			s = string(v)
		default:
			return nil, d.typeIssue(path, "enum "+en.Name.RenderedName(), bv)
		}
		variant, found := en.Match(s)
		if !found {
			return nil, bridge.Issues{{
				Path:     path,
				Code:     bridge.CodeInvalidEnum,
				Expected: "enum " + en.Name.RenderedName(),
				Actual:   s,
			}}
		}
		return variant.Name.Real, nil
	case typeir.KindList:
		list, ok := bv.(bridge.List)
		if !ok {
			return nil, d.typeIssue(path, "list", bv)
		}
		out := make([]any, 0, len(list))
		var all bridge.Issues
		for i, ev := range list {
			v, iss := d.dynamicChecked(ev, t.Elem, path.Index(i))
			if len(iss) > 0 {
				all = append(all, iss...)
				continue
			}
			out = append(out, v)
		}
		if len(all) > 0 {
			return nil, all
		}
		return out, nil
	case typeir.KindMap:
		fields, ok := mapFields(bv)
		if !ok {
			return nil, d.typeIssue(path, "map", bv)
		}
		out := make(map[string]any, fields.Len())
		var all bridge.Issues
		for i := 0; i < fields.Len(); i++ {
			k, vv := fields.At(i)
			v, iss := d.dynamicChecked(vv, t.Value, path.Key(k))
			if len(iss) > 0 {
				all = append(all, iss...)
				continue
			}
			out[k] = v
		}
		if len(all) > 0 {
			return nil, all
		}
		return out, nil
	case typeir.KindClass:
		return d.dynamicClass(bv, t, path)
	default:
		return nil, d.issuef(path, bridge.CodeInvalidType, "cannot decode %s", t.Describe())
	}
}

func (d *decoder) dynamicPrimitive(bv bridge.Value, t *typeir.TypeIR, path bridge.Path) (any, bridge.Issues) {
	switch t.Prim {
	case typeir.PrimString:
		if s, ok := bv.(bridge.String); ok {
			return string(s), nil
		}
		return nil, d.typeIssue(path, "string", bv)
	case typeir.PrimInt:
		if i, ok := bv.(bridge.Int); ok {
			return int64(i), nil
		}
		return nil, d.typeIssue(path, "int", bv)
	case typeir.PrimFloat:
		switch v := bv.(type) {
		case bridge.Float:
			return float64(v), nil
		case bridge.Int:
			return float64(v), nil
		}
		return nil, d.typeIssue(path, "float", bv)
	case typeir.PrimBool:
		if b, ok := bv.(bridge.Bool); ok {
			return bool(b), nil
		}
		return nil, d.typeIssue(path, "bool", bv)
	case typeir.PrimMedia:
		if m, ok := bv.(bridge.Media); ok {
			return m, nil
		}
		return nil, d.typeIssue(path, "media", bv)
	default:
		return nil, d.typeIssue(path, t.Describe(), bv)
	}
}

// dynamicChecked is dynamic plus the node's own constraint evaluation.
func (d *decoder) dynamicChecked(bv bridge.Value, t *typeir.TypeIR, path bridge.Path) (any, bridge.Issues) {
	v, iss := d.dynamic(bv, t, path)
	if len(iss) > 0 {
		return nil, iss
	}
	if iss := d.constraints(bv, t, path); len(iss) > 0 {
		return nil, iss
	}
	return v, nil
}

func (d *decoder) dynamicUnion(bv bridge.Value, t *typeir.TypeIR, path bridge.Path) (any, bridge.Issues) {
	if isNullValue(bv) {
		if t.IsOptional() {
			return nil, nil
		}
		return nil, bridge.Issues{{
			Path:     path,
			Code:     bridge.CodeRequired,
			Expected: t.Describe(),
			Actual:   "null",
		}}
	}
	members := t.NonNullMembers()
	if len(members) == 0 {
		return nil, d.issuef(path, bridge.CodeInvalidType, "union has no members")
	}
	if variants, tagField, ok := d.variantMembers(members); ok {
		fields, isClass := classFields(bv)
		if !isClass {
			return nil, d.typeIssue(path, "class", bv)
		}
		tagBV, ok := fields.Get(tagField)
		if !ok {
			return nil, d.issuef(path.Field(tagField), bridge.CodeRequired, "missing discriminator %q", tagField)
		}
		tag, ok := tagBV.(bridge.String)
		if !ok {
			return nil, d.typeIssue(path.Field(tagField), "string", tagBV)
		}
		for _, c := range variants {
			lit := c.Fields[0].Type.Lit
			if lit != nil && lit.Kind == typeir.LiteralString && lit.Str == string(tag) {
				return d.dynamic(bv, typeir.ClassRef(c.Name.Real, c.Mode), path)
			}
		}
		return nil, bridge.Issues{{
			Path:   path.Field(tagField),
			Code:   bridge.CodeUnknownVariant,
			Actual: string(tag),
		}}
	}
	checks := len(d.res.Checks)
	flags := len(d.res.Flags)
	asserts := len(d.failedAsserts)
	var lastIss bridge.Issues
	for _, m := range members {
		v, iss := d.dynamicChecked(bv, m, path)
		if len(iss) == 0 {
			return v, nil
		}
		d.res.Checks = d.res.Checks[:checks]
		d.res.Flags = d.res.Flags[:flags]
		d.failedAsserts = d.failedAsserts[:asserts]
		lastIss = iss
	}
	return nil, lastIss
}

func (d *decoder) dynamicClass(bv bridge.Value, t *typeir.TypeIR, path bridge.Path) (any, bridge.Issues) {
	c, ok := d.reg.Class(t.Name, t.Mode)
	if !ok {
		return nil, d.issuef(path, bridge.CodeInvalidType, "unknown class %s", t.Name)
	}
	fields, ok := classFields(bv)
	if !ok {
		return nil, d.typeIssue(path, "class "+c.Name.RenderedName(), bv)
	}
	out := make(map[string]any, fields.Len())
	var all bridge.Issues
	seen := make(map[string]struct{}, len(c.Fields))
	for i := range c.Fields {
		f := &c.Fields[i]
		fpath := path.Field(f.Name.Real)
		fieldBV, present := fields.Get(f.Name.Real)
		key := f.Name.Real
		if !present && f.Name.Rendered != "" {
			fieldBV, present = fields.Get(f.Name.Rendered)
			key = f.Name.Rendered
		}
		seen[key] = struct{}{}
		if !present || isNullValue(fieldBV) {
			if f.Type.IsOptional() {
				out[f.Name.Real] = nil
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
		v, iss := d.dynamicChecked(fieldBV, f.Type, fpath)
		if len(iss) > 0 {
			all = append(all, iss...)
			continue
		}
		out[f.Name.Real] = v
	}
	// Dynamic classes admit undeclared fields; they pass through untyped.
	if c.Dynamic {
		for i := 0; i < fields.Len(); i++ {
			k, vv := fields.At(i)
			if _, ok := seen[k]; ok {
				continue
			}
			v, iss := d.dynamicTop(vv, path.Field(k))
			if len(iss) > 0 {
				all = append(all, iss...)
				continue
			}
			out[k] = v
			d.res.AddFlag("extra_field", k)
		}
	}
	if len(all) > 0 {
		return nil, all
	}
	return out, nil
}

// dynamicTop lowers a value with no schema guidance.
func (d *decoder) dynamicTop(bv bridge.Value, path bridge.Path) (any, bridge.Issues) {
	switch v := bv.(type) {
	case nil, bridge.Null:
		return nil, nil
	case bridge.String:
		return string(v), nil
	case bridge.Int:
		return int64(v), nil
	case bridge.Float:
		return float64(v), nil
	case bridge.Bool:
		return bool(v), nil
	case bridge.Enum:
		return v.Variant, nil
	case bridge.Media:
		return v, nil
	case bridge.List:
		out := make([]any, 0, len(v))
		for i, ev := range v {
			e, iss := d.dynamicTop(ev, path.Index(i))
			if len(iss) > 0 {
				return nil, iss
			}
			out = append(out, e)
		}
		return out, nil
	case bridge.Map:
		return d.fieldsToMap(v.Entries, path)
	case bridge.Class:
		return d.fieldsToMap(v.Fields, path)
	default:
		return nil, d.typeIssue(path, "any", bv)
	}
}

func (d *decoder) fieldsToMap(fields *bridge.Fields, path bridge.Path) (any, bridge.Issues) {
	out := make(map[string]any, fields.Len())
	for i := 0; i < fields.Len(); i++ {
		k, vv := fields.At(i)
		v, iss := d.dynamicTop(vv, path.Field(k))
		if len(iss) > 0 {
			return nil, iss
		}
		out[k] = v
	}
	return out, nil
}
