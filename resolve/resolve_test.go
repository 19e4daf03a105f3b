package resolve_test

import (
	"testing"

	bridge "github.com/reoring/bamlbridge"
	"github.com/reoring/bamlbridge/resolve"
	"github.com/reoring/bamlbridge/typeir"
)

func petRegistry() *typeir.Registry {
	reg := typeir.NewRegistry()
	reg.AddClass(&typeir.Class{
		Name: typeir.Name{Real: "demo.Dog", Rendered: "Dog"},
		Mode: typeir.ModeNonStreaming,
		Fields: []typeir.Field{
			{Name: typeir.Name{Real: "name"}, Type: typeir.String()},
			{Name: typeir.Name{Real: "barks"}, Type: typeir.Bool()},
		},
	})
	reg.AddClass(&typeir.Class{
		Name: typeir.Name{Real: "demo.Cat", Rendered: "Cat"},
		Mode: typeir.ModeNonStreaming,
		Fields: []typeir.Field{
			{Name: typeir.Name{Real: "name"}, Type: typeir.String()},
			{Name: typeir.Name{Real: "lives"}, Type: typeir.Int()},
		},
	})
	reg.AddEnum(&typeir.Enum{
		Name: typeir.Name{Real: "demo.Color"},
		Values: []typeir.EnumValue{
			{Name: typeir.Name{Real: "Red"}},
			{Name: typeir.Name{Real: "Blue"}},
		},
	})
	return reg
}

func classValue(fields map[string]bridge.Value) bridge.Class {
	f := bridge.NewFields()
	for _, k := range []string{"name", "barks", "lives", "extra"} {
		if v, ok := fields[k]; ok {
			f.Set(k, v)
		}
	}
	return bridge.Class{Fields: f}
}

func TestResolve_ClassByFieldOverlap(t *testing.T) {
	reg := petRegistry()
	u := typeir.Union(
		typeir.ClassRef("demo.Dog", typeir.ModeNonStreaming),
		typeir.ClassRef("demo.Cat", typeir.ModeNonStreaming),
	)
	v := classValue(map[string]bridge.Value{
		"name":  bridge.String("felix"),
		"lives": bridge.Int(9),
	})
	res := resolve.Resolve(v, u, reg)
	if res.State != resolve.StateResolved {
		t.Fatalf("expected a winner: %#v", res)
	}
	if res.Type.Name != "demo.Cat" {
		t.Fatalf("overlap count must pick the cat: %#v", res.Type)
	}
}

func TestResolve_PositiveTieBreaksByOrder(t *testing.T) {
	reg := petRegistry()
	u := typeir.Union(
		typeir.ClassRef("demo.Dog", typeir.ModeNonStreaming),
		typeir.ClassRef("demo.Cat", typeir.ModeNonStreaming),
	)
	// Only the shared field matches: one point each.
	v := classValue(map[string]bridge.Value{"name": bridge.String("pat")})
	res := resolve.Resolve(v, u, reg)
	if res.State != resolve.StateResolved || res.Type.Name != "demo.Dog" {
		t.Fatalf("tie must break to the first declared member: %#v", res)
	}
}

func TestResolve_LiteralBeatsEverything(t *testing.T) {
	reg := petRegistry()
	u := typeir.Union(
		typeir.String(),
		typeir.EnumRef("demo.Color"),
		typeir.LitString("Red"),
	)
	res := resolve.Resolve(bridge.String("Red"), u, reg)
	if res.State != resolve.StateResolved || res.Type.Kind != typeir.KindLiteral {
		t.Fatalf("exact literal must win over enum and primitive: %#v", res)
	}
}

func TestResolve_EnumBeatsBareString(t *testing.T) {
	reg := petRegistry()
	u := typeir.Union(typeir.String(), typeir.EnumRef("demo.Color"))
	res := resolve.Resolve(bridge.String("Blue"), u, reg)
	if res.State != resolve.StateResolved || res.Type.Kind != typeir.KindEnum {
		t.Fatalf("variant match must outrank a bare string: %#v", res)
	}
	// A non-variant string leaves only the primitive in play.
	res = resolve.Resolve(bridge.String("Mauve"), u, reg)
	if res.State != resolve.StateResolved || res.Type.Kind != typeir.KindPrimitive {
		t.Fatalf("non-variant string must fall back to string: %#v", res)
	}
}

func TestResolve_EnumValueAgainstStringIsWeak(t *testing.T) {
	reg := petRegistry()
	u := typeir.Union(typeir.String(), typeir.EnumRef("demo.Color"))
	v := bridge.Enum{Type: "demo.Color", Variant: "Red"}
	res := resolve.Resolve(v, u, reg)
	if res.State != resolve.StateResolved || res.Type.Kind != typeir.KindEnum {
		t.Fatalf("an enum value must prefer its enum over string: %#v", res)
	}
}

func TestResolve_AllZeroIsAmbiguous(t *testing.T) {
	reg := petRegistry()
	u := typeir.Union(typeir.Int(), typeir.Bool())
	res := resolve.Resolve(bridge.String("neither"), u, reg)
	if res.State != resolve.StateAmbiguous {
		t.Fatalf("no signal must not guess: %#v", res)
	}
	if len(res.Candidates) != 2 {
		t.Fatalf("ambiguity must report the tied set: %#v", res.Candidates)
	}
}

func TestResolve_NullValue(t *testing.T) {
	reg := petRegistry()
	opt := typeir.Optional(typeir.Int())
	res := resolve.Resolve(bridge.Null{}, opt, reg)
	if res.State != resolve.StateResolved || res.Type.Prim != typeir.PrimNull {
		t.Fatalf("null against an optional union must resolve to null: %#v", res)
	}
	req := typeir.Union(typeir.Int(), typeir.Bool())
	res = resolve.Resolve(bridge.Null{}, req, reg)
	if res.State != resolve.StateAmbiguous {
		t.Fatalf("null against a required union is ambiguous: %#v", res)
	}
}

func TestResolve_ContainersScoreOnShape(t *testing.T) {
	reg := petRegistry()
	u := typeir.Union(
		typeir.List(typeir.Int()),
		typeir.MapOf(typeir.String(), typeir.Int()),
	)
	res := resolve.Resolve(bridge.List{bridge.Int(1)}, u, reg)
	if res.State != resolve.StateResolved || res.Type.Kind != typeir.KindList {
		t.Fatalf("list value must pick the list member: %#v", res)
	}
	res = resolve.Resolve(bridge.Map{Entries: bridge.NewFields()}, u, reg)
	if res.State != resolve.StateResolved || res.Type.Kind != typeir.KindMap {
		t.Fatalf("map value must pick the map member: %#v", res)
	}
}

func TestResolve_NestedUnionTakesMax(t *testing.T) {
	reg := petRegistry()
	inner := typeir.Union(typeir.LitString("go"), typeir.Int())
	u := typeir.Union(typeir.String(), inner)
	res := resolve.Resolve(bridge.String("go"), u, reg)
	if res.State != resolve.StateResolved || res.Type.Kind != typeir.KindUnion {
		t.Fatalf("the nested union carries the literal's score: %#v", res)
	}
}

func TestResolve_AliasMember(t *testing.T) {
	reg := petRegistry()
	reg.SetAlias("demo.Pet", typeir.ModeNonStreaming,
		typeir.ClassRef("demo.Dog", typeir.ModeNonStreaming))
	u := typeir.Union(
		typeir.AliasRef("demo.Pet", typeir.ModeNonStreaming),
		typeir.Int(),
	)
	v := classValue(map[string]bridge.Value{"barks": bridge.Bool(true)})
	res := resolve.Resolve(v, u, reg)
	if res.State != resolve.StateResolved || res.Type.Kind != typeir.KindClass {
		t.Fatalf("alias members must resolve before scoring: %#v", res)
	}
}

func TestView_FieldNavigation(t *testing.T) {
	reg := petRegistry()
	u := typeir.Union(
		typeir.ClassRef("demo.Dog", typeir.ModeNonStreaming),
		typeir.ClassRef("demo.Cat", typeir.ModeNonStreaming),
	)
	v := classValue(map[string]bridge.Value{
		"name":  bridge.String("rex"),
		"barks": bridge.Bool(true),
	})
	w := resolve.NewView(v, u, reg)
	fv, err := w.Field("barks")
	if err != nil {
		t.Fatalf("unexpected err: %v", err)
	}
	if fv.Value() != bridge.Bool(true) {
		t.Fatalf("field value wrong: %#v", fv.Value())
	}
	if _, err := w.Field("lives"); err == nil {
		t.Fatalf("absent field must fail")
	}
}

func TestView_ResolutionMemoized(t *testing.T) {
	reg := petRegistry()
	u := typeir.Union(typeir.Int(), typeir.Bool())
	w := resolve.NewView(bridge.Int(3), u, reg)
	first := w.Resolution()
	second := w.Resolution()
	if first.State != resolve.StateResolved || first.Type != second.Type {
		t.Fatalf("resolution must be computed once and reused: %#v vs %#v", first, second)
	}
}

func TestView_AmbiguousNavigationRefuses(t *testing.T) {
	reg := petRegistry()
	u := typeir.Union(typeir.Int(), typeir.Bool())
	w := resolve.NewView(bridge.String("x"), u, reg)
	_, err := w.Field("anything")
	iss, ok := bridge.AsIssues(err)
	if !ok || iss[0].Code != bridge.CodeUnionAmbiguous {
		t.Fatalf("expected union_ambiguous: %#v", err)
	}
	if _, err := w.Index(0); err == nil {
		t.Fatalf("Index must refuse on ambiguity")
	}
	if _, err := w.Iter(); err == nil {
		t.Fatalf("Iter must refuse on ambiguity")
	}
}

func TestView_IterList(t *testing.T) {
	reg := petRegistry()
	lt := typeir.List(typeir.Int())
	w := resolve.NewView(bridge.List{bridge.Int(1), bridge.Int(2)}, lt, reg)
	views, err := w.Iter()
	if err != nil {
		t.Fatalf("unexpected err: %v", err)
	}
	if len(views) != 2 || views[1].Value() != bridge.Int(2) {
		t.Fatalf("element views wrong: %#v", views)
	}
	ev, err := w.Index(0)
	if err != nil {
		t.Fatalf("unexpected err: %v", err)
	}
	if ev.Value() != bridge.Int(1) {
		t.Fatalf("indexed view wrong: %#v", ev.Value())
	}
	if _, err := w.Index(5); err == nil {
		t.Fatalf("out-of-range index must fail")
	}
}
