package convert_test

import (
	"context"
	"math"
	"reflect"
	"strings"
	"testing"

	bridge "github.com/reoring/bamlbridge"
	"github.com/reoring/bamlbridge/convert"
	"github.com/reoring/bamlbridge/schema"
	"github.com/reoring/bamlbridge/shape"
	"github.com/reoring/bamlbridge/typeir"
)

func build(t *testing.T, s *shape.Shape) (*typeir.TypeIR, *typeir.Registry) {
	t.Helper()
	reg := typeir.NewRegistry()
	ir, err := schema.Build(s, reg)
	if err != nil {
		t.Fatalf("build failed: %v", err)
	}
	return ir, reg
}

type user struct {
	Name string   `baml:"name"`
	Age  *int     `baml:"age"`
	Tags []string `baml:"tags"`
}

func TestRoundTrip_Struct(t *testing.T) {
	ir, reg := build(t, shape.For[user]())
	age := 41
	in := user{Name: "ada", Age: &age, Tags: []string{"x", "y"}}

	bv, err := convert.ToValue(in, ir, reg)
	if err != nil {
		t.Fatalf("encode failed: %v", err)
	}
	cv, ok := bv.(bridge.Class)
	if !ok {
		t.Fatalf("expected class value: %#v", bv)
	}
	if got, _ := cv.Fields.Get("name"); got != bridge.String("ada") {
		t.Fatalf("name wrong: %#v", got)
	}

	var out user
	if _, err := convert.Unmarshal(context.Background(), bv, ir, reg, &out, convert.Opt{}); err != nil {
		t.Fatalf("decode failed: %v", err)
	}
	if !reflect.DeepEqual(in, out) {
		t.Fatalf("round trip mismatch:\n in=%#v\nout=%#v", in, out)
	}
}

func TestRoundTrip_NilOptional(t *testing.T) {
	ir, reg := build(t, shape.For[user]())
	in := user{Name: "n"}
	bv, err := convert.ToValue(in, ir, reg)
	if err != nil {
		t.Fatalf("encode failed: %v", err)
	}
	cv := bv.(bridge.Class)
	if got, _ := cv.Fields.Get("age"); got != (bridge.Null{}) {
		t.Fatalf("nil pointer must encode as null: %#v", got)
	}
	var out user
	if _, err := convert.Unmarshal(context.Background(), bv, ir, reg, &out, convert.Opt{}); err != nil {
		t.Fatalf("decode failed: %v", err)
	}
	if out.Age != nil {
		t.Fatalf("null must decode to a nil pointer: %#v", out.Age)
	}
}

type wide struct {
	N uint64 `baml:"n,int=string"`
}

func TestRoundTrip_WideIntAsString(t *testing.T) {
	ir, reg := build(t, shape.For[wide]())
	in := wide{N: math.MaxUint64}
	bv, err := convert.ToValue(in, ir, reg)
	if err != nil {
		t.Fatalf("encode failed: %v", err)
	}
	cv := bv.(bridge.Class)
	if got, _ := cv.Fields.Get("n"); got != bridge.String("18446744073709551615") {
		t.Fatalf("u64 must encode as its decimal string: %#v", got)
	}
	var out wide
	if _, err := convert.Unmarshal(context.Background(), bv, ir, reg, &out, convert.Opt{}); err != nil {
		t.Fatalf("decode failed: %v", err)
	}
	if out.N != math.MaxUint64 {
		t.Fatalf("round trip lost precision: %d", out.N)
	}
}

type narrow struct {
	N uint32 `baml:"n"`
}

func TestDecode_IntRangeError(t *testing.T) {
	ir, reg := build(t, shape.For[narrow]())
	bv := bridge.Class{Name: ir.Name, Fields: bridge.NewFields().Set("n", bridge.Int(-1))}
	var out narrow
	_, err := convert.Unmarshal(context.Background(), bv, ir, reg, &out, convert.Opt{})
	if err == nil {
		t.Fatalf("negative value must not fit uint32")
	}
	iss, ok := bridge.AsIssues(err)
	if !ok || iss[0].Code != bridge.CodeOverflow {
		t.Fatalf("expected overflow issue: %#v", err)
	}
	if iss[0].Path.String() != "n" {
		t.Fatalf("path missing: %#v", iss[0])
	}
	if iss[0].Actual != "-1" {
		t.Fatalf("out-of-range value must be included: %#v", iss[0])
	}
}

type overwide struct {
	N uint64 `baml:"n,int=i64"`
}

func TestToValue_I64ReprPanicsAboveInt64(t *testing.T) {
	ir, reg := build(t, shape.For[overwide]())
	defer func() {
		r := recover()
		if r == nil {
			t.Fatalf("uint64 above the int64 range must panic under the i64 repr")
		}
		msg, ok := r.(string)
		if !ok || !strings.Contains(msg, "exceeds the int64 range") {
			t.Fatalf("unexpected panic value: %#v", r)
		}
	}()
	_, _ = convert.ToValue(overwide{N: math.MaxInt64 + 1}, ir, reg)
}

type pairsOwner struct {
	M map[int64]float64 `baml:"m,mapkey=pairs"`
}

func TestRoundTrip_MapAsPairs(t *testing.T) {
	ir, reg := build(t, shape.For[pairsOwner]())
	in := pairsOwner{M: map[int64]float64{1: 0.5, 2: 1.5}}
	bv, err := convert.ToValue(in, ir, reg)
	if err != nil {
		t.Fatalf("encode failed: %v", err)
	}
	list, _ := bv.(bridge.Class).Fields.Get("m")
	entries, ok := list.(bridge.List)
	if !ok || len(entries) != 2 {
		t.Fatalf("pairs map must encode as an entry list: %#v", list)
	}
	first := entries[0].(bridge.Class)
	if k, _ := first.Fields.Get("key"); k != bridge.Int(1) {
		t.Fatalf("entries must be key-ordered: %#v", k)
	}
	var out pairsOwner
	if _, err := convert.Unmarshal(context.Background(), bv, ir, reg, &out, convert.Opt{}); err != nil {
		t.Fatalf("decode failed: %v", err)
	}
	if !reflect.DeepEqual(in, out) {
		t.Fatalf("round trip mismatch: %#v vs %#v", in, out)
	}
}

type rekeyOwner struct {
	M map[int]string `baml:"m,mapkey=string"`
}

func TestRoundTrip_MapStringRekey(t *testing.T) {
	ir, reg := build(t, shape.For[rekeyOwner]())
	in := rekeyOwner{M: map[int]string{7: "seven"}}
	bv, err := convert.ToValue(in, ir, reg)
	if err != nil {
		t.Fatalf("encode failed: %v", err)
	}
	mv, _ := bv.(bridge.Class).Fields.Get("m")
	if got, _ := mv.(bridge.Map).Entries.Get("7"); got != bridge.String("seven") {
		t.Fatalf("key must be re-encoded as its decimal string: %#v", mv)
	}
	var out rekeyOwner
	if _, err := convert.Unmarshal(context.Background(), bv, ir, reg, &out, convert.Opt{}); err != nil {
		t.Fatalf("decode failed: %v", err)
	}
	if !reflect.DeepEqual(in, out) {
		t.Fatalf("round trip mismatch: %#v vs %#v", in, out)
	}
}

type mood string

func (mood) BamlShape() *shape.Shape {
	e := shape.Enum("Mood", "Happy", "Sad")
	e.Variants[1].Ann.Alias = "blue"
	return e
}

type feeling struct {
	M mood `baml:"m"`
}

func TestRoundTrip_EnumWithAlias(t *testing.T) {
	ir, reg := build(t, shape.For[feeling]())
	bv, err := convert.ToValue(feeling{M: "Sad"}, ir, reg)
	if err != nil {
		t.Fatalf("encode failed: %v", err)
	}
	ev, _ := bv.(bridge.Class).Fields.Get("m")
	if ev != (bridge.Enum{Type: "Mood", Variant: "Sad"}) {
		t.Fatalf("enum encode wrong: %#v", ev)
	}
	// The parsing layer may hand back the rendered alias instead.
	aliased := bridge.Class{Name: ir.Name, Fields: bridge.NewFields().Set("m", bridge.String("blue"))}
	var out feeling
	if _, err := convert.Unmarshal(context.Background(), aliased, ir, reg, &out, convert.Opt{}); err != nil {
		t.Fatalf("decode failed: %v", err)
	}
	if out.M != "Sad" {
		t.Fatalf("alias must decode to the real variant name: %q", out.M)
	}

	bad := bridge.Class{Name: ir.Name, Fields: bridge.NewFields().Set("m", bridge.String("Angry"))}
	if _, err := convert.Unmarshal(context.Background(), bad, ir, reg, &out, convert.Opt{}); err == nil {
		t.Fatalf("unknown variant must fail")
	}
}

type circle struct {
	Radius float64 `baml:"radius"`
}

func (circle) isFigure() {}

type rect struct {
	W float64 `baml:"w"`
	H float64 `baml:"h"`
}

func (rect) isFigure() {}

type figure interface{ isFigure() }

type drawing struct {
	F figure `baml:"f"`
}

func figureShape() *shape.Shape {
	return shape.TaggedUnion("Figure",
		shape.Variant("Circle", reflect.TypeOf(circle{})),
		shape.Variant("Rect", reflect.TypeOf(rect{})),
	)
}

func TestRoundTrip_DataEnum(t *testing.T) {
	shape.Register(reflect.TypeOf((*figure)(nil)).Elem(), figureShape())
	ir, reg := build(t, shape.For[drawing]())

	in := drawing{F: rect{W: 2, H: 3}}
	bv, err := convert.ToValue(in, ir, reg)
	if err != nil {
		t.Fatalf("encode failed: %v", err)
	}
	fv, _ := bv.(bridge.Class).Fields.Get("f")
	fc, ok := fv.(bridge.Class)
	if !ok {
		t.Fatalf("variant must encode as a class: %#v", fv)
	}
	if tag, _ := fc.Fields.Get("type"); tag != bridge.String("Rect") {
		t.Fatalf("discriminator wrong: %#v", tag)
	}

	var out drawing
	if _, err := convert.Unmarshal(context.Background(), bv, ir, reg, &out, convert.Opt{}); err != nil {
		t.Fatalf("decode failed: %v", err)
	}
	if !reflect.DeepEqual(in, out) {
		t.Fatalf("round trip mismatch: %#v vs %#v", in, out)
	}

	unknown := bridge.Class{Name: "Figure", Fields: bridge.NewFields().Set("type", bridge.String("Blob"))}
	wrapped := bridge.Class{Name: ir.Name, Fields: bridge.NewFields().Set("f", unknown)}
	_, err = convert.Unmarshal(context.Background(), wrapped, ir, reg, &out, convert.Opt{})
	iss, ok := bridge.AsIssues(err)
	if !ok || iss[0].Code != bridge.CodeUnknownVariant {
		t.Fatalf("expected unknown_variant: %#v", err)
	}
}

func TestDecode_UnionKeepsLastError(t *testing.T) {
	reg := typeir.NewRegistry()
	u := typeir.Union(typeir.Int(), typeir.Bool())
	var out any
	_, err := convert.Unmarshal(context.Background(), bridge.String("nope"), u, reg, &out, convert.Opt{})
	iss, ok := bridge.AsIssues(err)
	if !ok {
		t.Fatalf("expected issues: %#v", err)
	}
	if iss[len(iss)-1].Expected != "bool" {
		t.Fatalf("last member's error must win: %#v", iss)
	}
}

type cfg struct {
	Retries int `baml:"retries,default=3"`
}

func TestDecode_DefaultApplied(t *testing.T) {
	ir, reg := build(t, shape.For[cfg]())
	bv := bridge.Class{Name: ir.Name, Fields: bridge.NewFields()}
	var out cfg
	res, err := convert.Unmarshal(context.Background(), bv, ir, reg, &out, convert.Opt{})
	if err != nil {
		t.Fatalf("decode failed: %v", err)
	}
	if out.Retries != 3 {
		t.Fatalf("default not applied: %#v", out)
	}
	found := false
	for _, f := range res.Flags {
		if f.Name == "field_defaulted" && f.Detail == "retries" {
			found = true
		}
	}
	if !found {
		t.Fatalf("defaulting must be flagged: %#v", res.Flags)
	}
}

type evalFunc func(ctx context.Context, expr string, v bridge.Value) (bool, error)

func (f evalFunc) Evaluate(ctx context.Context, expr string, v bridge.Value) (bool, error) {
	return f(ctx, expr, v)
}

type checked struct {
	N int `baml:"n" check:"big:this > 10"`
}

type asserted struct {
	N int `baml:"n" assert:"positive:this > 0"`
}

func TestDecode_CheckRecordedNotFatal(t *testing.T) {
	ir, reg := build(t, shape.For[checked]())
	bv := bridge.Class{Name: ir.Name, Fields: bridge.NewFields().Set("n", bridge.Int(5))}
	var out checked
	opt := convert.Opt{Evaluator: evalFunc(func(_ context.Context, expr string, _ bridge.Value) (bool, error) {
		return false, nil
	})}
	res, err := convert.Unmarshal(context.Background(), bv, ir, reg, &out, opt)
	if err != nil {
		t.Fatalf("a failed check must not fail the parse: %v", err)
	}
	failed := res.FailedChecks()
	if len(failed) != 1 || failed[0].Label != "big" {
		t.Fatalf("check outcome not recorded: %#v", res.Checks)
	}
	if out.N != 5 {
		t.Fatalf("value must still decode: %#v", out)
	}
}

func TestDecode_AssertFailureIsDistinctError(t *testing.T) {
	ir, reg := build(t, shape.For[asserted]())
	bv := bridge.Class{Name: ir.Name, Fields: bridge.NewFields().Set("n", bridge.Int(-4))}
	var out asserted
	opt := convert.Opt{Evaluator: evalFunc(func(_ context.Context, expr string, v bridge.Value) (bool, error) {
		return v.(bridge.Int) > 0, nil
	})}
	_, err := convert.Unmarshal(context.Background(), bv, ir, reg, &out, opt)
	ae, ok := bridge.AsAssertError(err)
	if !ok {
		t.Fatalf("expected an assert error: %#v", err)
	}
	if len(ae.Failures) != 1 || ae.Failures[0].Label != "positive" || ae.Failures[0].Expr != "this > 0" {
		t.Fatalf("failure detail wrong: %#v", ae.Failures)
	}
}

func TestFromValue_DynamicClass(t *testing.T) {
	dt, err := shape.ParseDynamicJSON([]byte(`{
		"classes": [{
			"name": "Note",
			"properties": [
				{"name": "text", "type": {"type": "string"}},
				{"name": "stars", "type": {"type": "optional", "inner": {"type": "int"}}}
			]
		}]
	}`))
	if err != nil {
		t.Fatalf("parse failed: %v", err)
	}
	shapes, err := dt.Shapes()
	if err != nil {
		t.Fatalf("shapes failed: %v", err)
	}
	ir, reg := build(t, shapes["Note"])

	bv := bridge.Class{Name: "Note", Fields: bridge.NewFields().
		Set("text", bridge.String("hi")).
		Set("stars", bridge.Null{})}
	got, _, err := convert.FromValue(context.Background(), bv, ir, reg, convert.Opt{})
	if err != nil {
		t.Fatalf("decode failed: %v", err)
	}
	m, ok := got.(map[string]any)
	if !ok {
		t.Fatalf("dynamic class must decode to a map: %#v", got)
	}
	if m["text"] != "hi" || m["stars"] != nil {
		t.Fatalf("unexpected contents: %#v", m)
	}

	// And back: the map is the dynamic class's native representation.
	back, err := convert.ToValue(m, ir, reg)
	if err != nil {
		t.Fatalf("re-encode failed: %v", err)
	}
	if !bridge.Equal(back, bv) {
		t.Fatalf("dynamic round trip mismatch:\n%#v\n%#v", back, bv)
	}
}

func TestDecode_MissingRequiredFieldPath(t *testing.T) {
	ir, reg := build(t, shape.For[user]())
	bv := bridge.Class{Name: ir.Name, Fields: bridge.NewFields().Set("tags", bridge.List{})}
	var out user
	_, err := convert.Unmarshal(context.Background(), bv, ir, reg, &out, convert.Opt{})
	iss, ok := bridge.AsIssues(err)
	if !ok {
		t.Fatalf("expected issues: %#v", err)
	}
	if iss[0].Code != bridge.CodeRequired || iss[0].Path.String() != "name" {
		t.Fatalf("first missing required field must be reported deterministically: %#v", iss)
	}
}

func TestAdapter_RoundTrip(t *testing.T) {
	f := shape.F("code", shape.Str())
	f.Ann.Adapter = upperAdapter{}
	owner := shape.Struct("Doc")
	owner.AddField(f)
	// Adapter conversion needs the native struct backing.
	type doc struct {
		Code string
	}
	owner.GoType = reflect.TypeOf(doc{})
	owner.Fields[0].Index = []int{0}
	shape.Register(reflect.TypeOf(doc{}), owner)

	ir, reg := build(t, owner)
	bv, err := convert.ToValue(doc{Code: "abc"}, ir, reg)
	if err != nil {
		t.Fatalf("encode failed: %v", err)
	}
	if got, _ := bv.(bridge.Class).Fields.Get("code"); got != bridge.String("ABC") {
		t.Fatalf("adapter encode not applied: %#v", got)
	}
	var out doc
	if _, err := convert.Unmarshal(context.Background(), bv, ir, reg, &out, convert.Opt{}); err != nil {
		t.Fatalf("decode failed: %v", err)
	}
	if out.Code != "abc" {
		t.Fatalf("adapter decode not applied: %#v", out)
	}
}

type upperAdapter struct{}

func (upperAdapter) TypeIR(ctx shape.NamingContext) (*typeir.TypeIR, error) {
	return typeir.String(), nil
}

func (upperAdapter) Register(reg *typeir.Registry, ctx shape.NamingContext) error { return nil }

func (upperAdapter) ToValue(v any) (bridge.Value, error) {
	return bridge.String(strings.ToUpper(v.(string))), nil
}

func (upperAdapter) FromValue(bv bridge.Value) (any, error) {
	return strings.ToLower(string(bv.(bridge.String))), nil
}
