package shape

import (
	"fmt"

	json "github.com/goccy/go-json"
	"gopkg.in/yaml.v3"
)

// DynamicTypes declares classes and enums at runtime, outside the Go type
// system. It is the programmatic counterpart of reflection-derived shapes;
// the native representation of a dynamic class is map[string]any.
type DynamicTypes struct {
	Classes []DynamicClass `json:"classes,omitempty" yaml:"classes,omitempty"`
	Enums   []DynamicEnum  `json:"enums,omitempty" yaml:"enums,omitempty"`
}

// DynamicClass declares one class.
type DynamicClass struct {
	Name        string            `json:"name" yaml:"name"`
	Description string            `json:"description,omitempty" yaml:"description,omitempty"`
	Alias       string            `json:"alias,omitempty" yaml:"alias,omitempty"`
	Properties  []DynamicProperty `json:"properties" yaml:"properties"`
}

// DynamicProperty declares one class property, in declaration order.
type DynamicProperty struct {
	Name        string          `json:"name" yaml:"name"`
	Type        *DynamicTypeRef `json:"type" yaml:"type"`
	Description string          `json:"description,omitempty" yaml:"description,omitempty"`
	Alias       string          `json:"alias,omitempty" yaml:"alias,omitempty"`
}

// DynamicTypeRef is a recursive type reference: either a primitive or
// composite type name, or a $ref to a declared class or enum.
type DynamicTypeRef struct {
	Type   string            `json:"type,omitempty" yaml:"type,omitempty"`
	Ref    string            `json:"$ref,omitempty" yaml:"$ref,omitempty"`
	Items  *DynamicTypeRef   `json:"items,omitempty" yaml:"items,omitempty"`
	Inner  *DynamicTypeRef   `json:"inner,omitempty" yaml:"inner,omitempty"`
	OneOf  []*DynamicTypeRef `json:"oneOf,omitempty" yaml:"oneOf,omitempty"`
	Keys   *DynamicTypeRef   `json:"keys,omitempty" yaml:"keys,omitempty"`
	Values *DynamicTypeRef   `json:"values,omitempty" yaml:"values,omitempty"`
	Value  any               `json:"value,omitempty" yaml:"value,omitempty"`
}

// DynamicEnum declares one enum.
type DynamicEnum struct {
	Name        string             `json:"name" yaml:"name"`
	Description string             `json:"description,omitempty" yaml:"description,omitempty"`
	Alias       string             `json:"alias,omitempty" yaml:"alias,omitempty"`
	Values      []DynamicEnumValue `json:"values" yaml:"values"`
}

// DynamicEnumValue declares one enum variant.
type DynamicEnumValue struct {
	Name        string `json:"name" yaml:"name"`
	Description string `json:"description,omitempty" yaml:"description,omitempty"`
	Alias       string `json:"alias,omitempty" yaml:"alias,omitempty"`
	Skip        bool   `json:"skip,omitempty" yaml:"skip,omitempty"`
}

// ParseDynamicJSON decodes a DynamicTypes declaration from JSON.
func ParseDynamicJSON(data []byte) (*DynamicTypes, error) {
	var dt DynamicTypes
	if err := json.Unmarshal(data, &dt); err != nil {
		return nil, fmt.Errorf("dynamic types: %w", err)
	}
	return &dt, nil
}

// ParseDynamicYAML decodes a DynamicTypes declaration from YAML.
func ParseDynamicYAML(data []byte) (*DynamicTypes, error) {
	var dt DynamicTypes
	if err := yaml.Unmarshal(data, &dt); err != nil {
		return nil, fmt.Errorf("dynamic types: %w", err)
	}
	return &dt, nil
}

// Shapes resolves the declaration into shape handles, one per declared class
// and enum. Declarations may reference each other (including cycles) by
// $ref; every name is declared before any reference is resolved.
func (dt *DynamicTypes) Shapes() (map[string]*Shape, error) {
	named := make(map[string]*Shape)
	for i := range dt.Classes {
		c := &dt.Classes[i]
		if _, dup := named[c.Name]; dup {
			return nil, fmt.Errorf("dynamic types: duplicate name %q", c.Name)
		}
		s := Struct(c.Name)
		s.Doc = c.Description
		s.Ann.Alias = c.Alias
		s.Ann.Dynamic = true
		named[c.Name] = s
	}
	for i := range dt.Enums {
		e := &dt.Enums[i]
		if _, dup := named[e.Name]; dup {
			return nil, fmt.Errorf("dynamic types: duplicate name %q", e.Name)
		}
		s := &Shape{Kind: KindEnum, Name: e.Name, Doc: e.Description}
		s.Ann.Alias = e.Alias
		s.Ann.Dynamic = true
		for _, v := range e.Values {
			if v.Skip {
				continue
			}
			s.Variants = append(s.Variants, VariantShape{
				Name: v.Name,
				Doc:  v.Description,
				Ann:  Annotations{Alias: v.Alias, Description: v.Description},
			})
		}
		named[e.Name] = s
	}
	for i := range dt.Classes {
		c := &dt.Classes[i]
		owner := named[c.Name]
		for _, p := range c.Properties {
			fs, err := dt.resolveRef(p.Type, named)
			if err != nil {
				return nil, fmt.Errorf("dynamic types: class %q property %q: %w", c.Name, p.Name, err)
			}
			owner.AddField(FieldShape{
				Name:  p.Name,
				Shape: fs,
				Ann:   Annotations{Alias: p.Alias, Description: p.Description},
			})
		}
	}
	return named, nil
}

func (dt *DynamicTypes) resolveRef(ref *DynamicTypeRef, named map[string]*Shape) (*Shape, error) {
	if ref == nil {
		return nil, fmt.Errorf("missing type")
	}
	if ref.Ref != "" {
		s, ok := named[ref.Ref]
		if !ok {
			return nil, fmt.Errorf("unresolved $ref %q", ref.Ref)
		}
		return s, nil
	}
	switch ref.Type {
	case "string":
		return Str(), nil
	case "int":
		return Int(64), nil
	case "float":
		return Float(64), nil
	case "bool":
		return Bool(), nil
	case "null":
		return Null(), nil
	case "list":
		elem, err := dt.resolveRef(ref.Items, named)
		if err != nil {
			return nil, err
		}
		return ListOf(elem), nil
	case "optional":
		inner, err := dt.resolveRef(ref.Inner, named)
		if err != nil {
			return nil, err
		}
		return Optional(inner), nil
	case "map":
		key, err := dt.resolveRef(ref.Keys, named)
		if err != nil {
			return nil, err
		}
		val, err := dt.resolveRef(ref.Values, named)
		if err != nil {
			return nil, err
		}
		return MapOf(key, val), nil
	case "union":
		members := make([]*Shape, 0, len(ref.OneOf))
		for _, m := range ref.OneOf {
			ms, err := dt.resolveRef(m, named)
			if err != nil {
				return nil, err
			}
			members = append(members, ms)
		}
		return UnionOf(members...), nil
	case "literal_string":
		s, ok := ref.Value.(string)
		if !ok {
			return nil, fmt.Errorf("literal_string value %v", ref.Value)
		}
		return LitStr(s), nil
	case "literal_int":
		switch v := ref.Value.(type) {
		case int:
			return LitInt(int64(v)), nil
		case int64:
			return LitInt(v), nil
		case uint64:
			return LitInt(int64(v)), nil
		case float64:
			return LitInt(int64(v)), nil
		default:
			return nil, fmt.Errorf("literal_int value %v", ref.Value)
		}
	case "literal_bool":
		b, ok := ref.Value.(bool)
		if !ok {
			return nil, fmt.Errorf("literal_bool value %v", ref.Value)
		}
		return LitBool(b), nil
	default:
		return nil, fmt.Errorf("unknown type %q", ref.Type)
	}
}
