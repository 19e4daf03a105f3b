package bamlbridge

import (
	"strconv"
	"strings"

	json "github.com/goccy/go-json"
)

// MarshalJSON renders the ordered fields as a JSON object preserving
// insertion order.
func (f *Fields) MarshalJSON() ([]byte, error) {
	b := &strings.Builder{}
	b.WriteByte('{')
	for i, k := range f.Keys() {
		if i > 0 {
			b.WriteByte(',')
		}
		kb, err := json.Marshal(k)
		if err != nil {
			return nil, err
		}
		b.Write(kb)
		b.WriteByte(':')
		vb, err := MarshalValue(f.vals[i])
		if err != nil {
			return nil, err
		}
		b.Write(vb)
	}
	b.WriteByte('}')
	return []byte(b.String()), nil
}

// MarshalValue encodes a dynamic value as JSON. Class values render as plain
// objects, enums as their variant string, media as an object descriptor.
func MarshalValue(v Value) ([]byte, error) {
	switch t := v.(type) {
	case nil, Null:
		return []byte("null"), nil
	case String:
		return json.Marshal(string(t))
	case Int:
		return []byte(strconv.FormatInt(int64(t), 10)), nil
	case Float:
		return json.Marshal(float64(t))
	case Bool:
		if t {
			return []byte("true"), nil
		}
		return []byte("false"), nil
	case List:
		b := &strings.Builder{}
		b.WriteByte('[')
		for i, e := range t {
			if i > 0 {
				b.WriteByte(',')
			}
			eb, err := MarshalValue(e)
			if err != nil {
				return nil, err
			}
			b.Write(eb)
		}
		b.WriteByte(']')
		return []byte(b.String()), nil
	case Map:
		return t.Entries.MarshalJSON()
	case Class:
		return t.Fields.MarshalJSON()
	case Enum:
		return json.Marshal(t.Variant)
	case Media:
		return json.Marshal(map[string]string{
			"kind":   t.MediaKind,
			"mime":   t.MIME,
			"url":    t.URL,
			"base64": t.Base64,
		})
	default:
		return json.Marshal(v)
	}
}
