package typeir

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"

	json "github.com/goccy/go-json"
)

// FingerprintOpt is the rendering-options configuration included in the
// fingerprint: two schemas rendered under different options hash
// differently.
type FingerprintOpt struct {
	Mode Mode
	// HoistedClassPrefix and similar presentation options participate in
	// the hash because they change the rendered schema.
	Prefix string
}

// Fingerprint produces a stable content hash for a built registry plus root
// type. The same logical schema (classes, fields, names, declared order)
// yields the same fingerprint regardless of incidental construction
// artifacts: internal names are replaced by ordinals assigned during a
// deterministic walk from the root, so collision-counter suffixes never leak
// into the hash. Declared field order is part of the canonical form and does
// affect the result.
func Fingerprint(root *TypeIR, reg *Registry, opt FingerprintOpt) (string, error) {
	c := &canonicalizer{
		reg:      reg,
		mode:     opt.Mode,
		classIDs: make(map[ClassKey]int),
		enumIDs:  make(map[string]int),
		aliasIDs: make(map[ClassKey]int),
	}
	rootForm := c.typeForm(root)
	// Classes/enums/aliases discovered during the walk may themselves reach
	// further definitions; iterate until the frontier is exhausted.
	var classForms []any
	var enumForms []any
	var aliasForms []any
	for len(c.classQueue) > len(classForms) || len(c.enumQueue) > len(enumForms) || len(c.aliasQueue) > len(aliasForms) {
		for i := len(classForms); i < len(c.classQueue); i++ {
			classForms = append(classForms, c.classForm(c.classQueue[i]))
		}
		for i := len(enumForms); i < len(c.enumQueue); i++ {
			enumForms = append(enumForms, c.enumForm(c.enumQueue[i]))
		}
		for i := len(aliasForms); i < len(c.aliasQueue); i++ {
			aliasForms = append(aliasForms, c.aliasForm(c.aliasQueue[i]))
		}
	}
	payload := map[string]any{
		"root":    rootForm,
		"classes": classForms,
		"enums":   enumForms,
		"aliases": aliasForms,
		"options": map[string]any{"mode": int(opt.Mode), "prefix": opt.Prefix},
	}
	data, err := json.Marshal(payload)
	if err != nil {
		return "", err
	}
	sum := sha256.Sum256(data)
	return hex.EncodeToString(sum[:]), nil
}

type canonicalizer struct {
	reg        *Registry
	mode       Mode
	classIDs   map[ClassKey]int
	classQueue []ClassKey
	enumIDs    map[string]int
	enumQueue  []string
	aliasIDs   map[ClassKey]int
	aliasQueue []ClassKey
}

func (c *canonicalizer) aliasID(name string, mode Mode) int {
	key := ClassKey{Name: name, Mode: mode}
	if id, ok := c.aliasIDs[key]; ok {
		return id
	}
	id := len(c.aliasQueue)
	c.aliasIDs[key] = id
	c.aliasQueue = append(c.aliasQueue, key)
	return id
}

func (c *canonicalizer) classID(name string, mode Mode) int {
	key := ClassKey{Name: name, Mode: mode}
	if id, ok := c.classIDs[key]; ok {
		return id
	}
	id := len(c.classQueue)
	c.classIDs[key] = id
	c.classQueue = append(c.classQueue, key)
	return id
}

func (c *canonicalizer) enumID(name string) int {
	if id, ok := c.enumIDs[name]; ok {
		return id
	}
	id := len(c.enumQueue)
	c.enumIDs[name] = id
	c.enumQueue = append(c.enumQueue, name)
	return id
}

func (c *canonicalizer) typeForm(t *TypeIR) any {
	if t == nil {
		return nil
	}
	form := map[string]any{}
	switch t.Kind {
	case KindTop:
		form["k"] = "any"
	case KindPrimitive:
		form["k"] = t.Prim.String()
		if t.Prim == PrimMedia {
			form["media"] = t.MediaKind
		}
	case KindEnum:
		form["k"] = "enum"
		form["id"] = c.enumID(t.Name)
	case KindLiteral:
		form["k"] = "literal"
		form["v"] = t.Lit.String()
	case KindClass:
		form["k"] = "class"
		form["id"] = c.classID(t.Name, t.Mode)
		form["mode"] = int(t.Mode)
	case KindList:
		form["k"] = "list"
		form["elem"] = c.typeForm(t.Elem)
	case KindMap:
		form["k"] = "map"
		form["key"] = c.typeForm(t.Key)
		form["value"] = c.typeForm(t.Value)
	case KindTuple:
		form["k"] = "tuple"
		form["items"] = c.typeForms(t.Items)
	case KindUnion:
		form["k"] = "union"
		form["members"] = c.typeForms(t.Members)
	case KindRecursiveAlias:
		form["k"] = "alias"
		form["id"] = c.aliasID(t.Name, t.Mode)
		form["mode"] = int(t.Mode)
	case KindArrow:
		form["k"] = "fn"
	}
	if cs := constraintForms(t.Meta.Constraints); cs != nil {
		form["constraints"] = cs
	}
	return form
}

func (c *canonicalizer) typeForms(ts []*TypeIR) []any {
	out := make([]any, len(ts))
	for i, t := range ts {
		out[i] = c.typeForm(t)
	}
	return out
}

func (c *canonicalizer) classForm(key ClassKey) any {
	cls, ok := c.reg.Class(key.Name, key.Mode)
	if !ok {
		return map[string]any{"missing": key.Name}
	}
	fields := make([]any, len(cls.Fields))
	for i, f := range cls.Fields {
		ff := map[string]any{
			"name":     f.Name.Real,
			"rendered": f.Name.RenderedName(),
			"type":     c.typeForm(f.Type),
		}
		if f.Description != "" {
			ff["desc"] = f.Description
		}
		fields[i] = ff
	}
	form := map[string]any{
		"rendered": cls.Name.RenderedName(),
		"fields":   fields,
	}
	if cls.Description != "" {
		form["desc"] = cls.Description
	}
	if cs := constraintForms(cls.Constraints); cs != nil {
		form["constraints"] = cs
	}
	return form
}

func (c *canonicalizer) enumForm(name string) any {
	e, ok := c.reg.Enum(name)
	if !ok {
		return map[string]any{"missing": name}
	}
	values := make([]any, len(e.Values))
	for i, v := range e.Values {
		values[i] = map[string]any{
			"name":     v.Name.Real,
			"rendered": v.Name.RenderedName(),
		}
	}
	form := map[string]any{
		"rendered": e.Name.RenderedName(),
		"values":   values,
	}
	if e.Description != "" {
		form["desc"] = e.Description
	}
	return form
}

func (c *canonicalizer) aliasForm(key ClassKey) any {
	target, ok := c.reg.Alias(key.Name, key.Mode)
	if !ok {
		return map[string]any{"missing": true}
	}
	return map[string]any{"target": c.typeForm(target)}
}

func constraintForms(cs []Constraint) []any {
	if len(cs) == 0 {
		return nil
	}
	out := make([]any, len(cs))
	for i, con := range cs {
		out[i] = fmt.Sprintf("%d:%s:%s", con.Level, con.Label, con.Expr)
	}
	return out
}
