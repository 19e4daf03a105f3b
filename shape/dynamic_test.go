package shape_test

import (
	"testing"

	"github.com/reoring/bamlbridge/shape"
)

const dynamicYAML = `
classes:
  - name: Ticket
    description: A support ticket.
    properties:
      - name: title
        type: { type: string }
      - name: priority
        type: { $ref: Priority }
      - name: labels
        type:
          type: list
          items: { type: string }
      - name: parent
        type:
          type: optional
          inner: { $ref: Ticket }
enums:
  - name: Priority
    values:
      - name: Low
      - name: High
        alias: urgent
      - name: Hidden
        skip: true
`

func TestDynamicTypes_YAML(t *testing.T) {
	dt, err := shape.ParseDynamicYAML([]byte(dynamicYAML))
	if err != nil {
		t.Fatalf("unexpected err: %v", err)
	}
	shapes, err := dt.Shapes()
	if err != nil {
		t.Fatalf("unexpected err: %v", err)
	}
	ticket := shapes["Ticket"]
	if ticket == nil || ticket.Kind != shape.KindStruct || !ticket.Ann.Dynamic {
		t.Fatalf("ticket shape wrong: %#v", ticket)
	}
	if len(ticket.Fields) != 4 {
		t.Fatalf("expected 4 properties: %#v", ticket.Fields)
	}
	if ticket.Fields[1].Shape != shapes["Priority"] {
		t.Fatalf("$ref must resolve to the declared handle")
	}
	parent := ticket.Fields[3].Shape
	if parent.Kind != shape.KindPointer || parent.Elem != ticket {
		t.Fatalf("self reference must resolve to the same handle: %#v", parent)
	}
	prio := shapes["Priority"]
	if prio.Kind != shape.KindEnum || len(prio.Variants) != 2 {
		t.Fatalf("skipped variant must be dropped: %#v", prio.Variants)
	}
	if prio.Variants[1].Ann.Alias != "urgent" {
		t.Fatalf("variant alias lost: %#v", prio.Variants[1])
	}
}

func TestDynamicTypes_JSONUnionAndLiterals(t *testing.T) {
	data := []byte(`{
		"classes": [{
			"name": "Event",
			"properties": [{
				"name": "kind",
				"type": {"type": "union", "oneOf": [
					{"type": "literal_string", "value": "created"},
					{"type": "literal_string", "value": "deleted"}
				]}
			}]
		}]
	}`)
	dt, err := shape.ParseDynamicJSON(data)
	if err != nil {
		t.Fatalf("unexpected err: %v", err)
	}
	shapes, err := dt.Shapes()
	if err != nil {
		t.Fatalf("unexpected err: %v", err)
	}
	kind := shapes["Event"].Fields[0].Shape
	if kind.Kind != shape.KindUnion || len(kind.Members) != 2 {
		t.Fatalf("union not built: %#v", kind)
	}
	if kind.Members[0].Kind != shape.KindLiteral || kind.Members[0].Lit.Str != "created" {
		t.Fatalf("literal member wrong: %#v", kind.Members[0])
	}
}

func TestDynamicTypes_Errors(t *testing.T) {
	dt := &shape.DynamicTypes{
		Classes: []shape.DynamicClass{
			{Name: "A", Properties: []shape.DynamicProperty{
				{Name: "x", Type: &shape.DynamicTypeRef{Ref: "Missing"}},
			}},
		},
	}
	if _, err := dt.Shapes(); err == nil {
		t.Fatalf("unresolved $ref must error")
	}
	dup := &shape.DynamicTypes{
		Classes: []shape.DynamicClass{{Name: "A"}, {Name: "A"}},
	}
	if _, err := dup.Shapes(); err == nil {
		t.Fatalf("duplicate names must error")
	}
}
