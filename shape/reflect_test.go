package shape_test

import (
	"reflect"
	"sync"
	"testing"

	bridge "github.com/reoring/bamlbridge"
	"github.com/reoring/bamlbridge/shape"
)

type profile struct {
	Name  string `baml:"name" desc:"display name"`
	Age   *int   `baml:"age,alias=years"`
	Score uint64 `baml:"score,int=string"`
	Tags  []string
	skip  bool
	Skip  string `baml:"-"`
}

type node struct {
	Value int
	Next  *node
}

func TestFromType_Struct(t *testing.T) {
	s := shape.For[profile]()
	if s.Kind != shape.KindStruct || s.Name != "profile" {
		t.Fatalf("unexpected shape: %#v", s)
	}
	if len(s.Fields) != 4 {
		t.Fatalf("expected 4 fields (unexported and skipped dropped): %#v", s.Fields)
	}
	if s.Fields[0].Name != "name" || s.Fields[0].Ann.Description != "display name" {
		t.Fatalf("rename/desc not applied: %#v", s.Fields[0])
	}
	if s.Fields[1].Ann.Alias != "years" || s.Fields[1].Shape.Kind != shape.KindPointer {
		t.Fatalf("alias/pointer wrong: %#v", s.Fields[1])
	}
	if s.Fields[2].Ann.IntRepr != "string" || s.Fields[2].Shape.Kind != shape.KindUint {
		t.Fatalf("int repr wrong: %#v", s.Fields[2])
	}
	if s.Fields[3].Shape.Kind != shape.KindList {
		t.Fatalf("slice should be a list: %#v", s.Fields[3])
	}
}

func TestFromType_IdentityMemoized(t *testing.T) {
	a := shape.For[profile]()
	b := shape.For[profile]()
	if a != b {
		t.Fatalf("repeated derivation must return the identical handle")
	}
}

func TestFromType_RecursiveTerminates(t *testing.T) {
	s := shape.For[node]()
	next := s.Fields[1].Shape
	if next.Kind != shape.KindPointer {
		t.Fatalf("unexpected next shape: %#v", next)
	}
	if next.Elem != s {
		t.Fatalf("recursive reference must resolve to the same handle")
	}
}

func TestFromType_ConcurrentDerivation(t *testing.T) {
	type tree struct {
		Label string
		Left  *tree
		Right *tree
	}
	shapes := make([]*shape.Shape, 16)
	var wg sync.WaitGroup
	for i := range shapes {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			shapes[i] = shape.For[tree]()
		}(i)
	}
	wg.Wait()
	for _, s := range shapes {
		if s != shapes[0] {
			t.Fatalf("concurrent derivation returned distinct handles")
		}
		// A caller must never observe a struct shape before its fields are
		// filled in.
		if len(s.Fields) != 3 {
			t.Fatalf("observed a partially built shape: %#v", s.Fields)
		}
	}
}

func TestFromType_MediaStruct(t *testing.T) {
	s := shape.FromType(reflect.TypeOf(bridge.Media{}))
	if s.Kind != shape.KindMedia {
		t.Fatalf("media struct not recognized: %#v", s)
	}
}

func TestFromType_ConstraintTags(t *testing.T) {
	type checked struct {
		N int `check:"positive:this > 0;small:this < 100" assert:"nonzero:this != 0"`
	}
	s := shape.For[checked]()
	ann := s.Fields[0].Ann
	if len(ann.Checks) != 2 || ann.Checks[0].Label != "positive" || ann.Checks[1].Expr != "this < 100" {
		t.Fatalf("check tags wrong: %#v", ann.Checks)
	}
	if len(ann.Asserts) != 1 || ann.Asserts[0].Label != "nonzero" {
		t.Fatalf("assert tags wrong: %#v", ann.Asserts)
	}
}

func TestFromType_StreamTags(t *testing.T) {
	type streamy struct {
		A string `baml:",stream=needed"`
		B string `baml:",stream=done|state"`
	}
	s := shape.For[streamy]()
	if !s.Fields[0].Ann.StreamNeeded {
		t.Fatalf("needed flag missing: %#v", s.Fields[0].Ann)
	}
	if !s.Fields[1].Ann.StreamDone || !s.Fields[1].Ann.StreamState {
		t.Fatalf("done|state flags missing: %#v", s.Fields[1].Ann)
	}
}

type color string

func (color) BamlShape() *shape.Shape {
	return shape.Enum("Color", "Red", "Green", "Blue")
}

func TestFromType_Shaper(t *testing.T) {
	s := shape.For[color]()
	if s.Kind != shape.KindEnum || len(s.Variants) != 3 {
		t.Fatalf("shaper enum not honored: %#v", s)
	}
}

func TestFromType_UnsupportedKinds(t *testing.T) {
	s := shape.FromType(reflect.TypeOf(func() {}))
	if s.Kind != shape.KindInvalid {
		t.Fatalf("func should be invalid: %#v", s)
	}
	var any0 any
	s = shape.FromType(reflect.TypeOf(&any0).Elem())
	if s.Kind != shape.KindAny {
		t.Fatalf("empty interface should be any: %#v", s)
	}
}
