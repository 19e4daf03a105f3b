package bamlbridge_test

import (
	"strings"
	"testing"

	bridge "github.com/reoring/bamlbridge"
	"github.com/reoring/bamlbridge/i18n"
)

func TestEqual_FieldOrderDoesNotMatter(t *testing.T) {
	a := bridge.Class{Name: "Point", Fields: bridge.NewFields().
		Set("x", bridge.Int(1)).
		Set("y", bridge.Int(2))}
	b := bridge.Class{Name: "Point", Fields: bridge.NewFields().
		Set("y", bridge.Int(2)).
		Set("x", bridge.Int(1))}
	if !bridge.Equal(a, b) {
		t.Fatalf("expected content equality regardless of insertion order")
	}
}

func TestEqual_KindMismatch(t *testing.T) {
	if bridge.Equal(bridge.Int(1), bridge.Float(1)) {
		t.Fatalf("int and float must not compare equal")
	}
	if bridge.Equal(bridge.Null{}, bridge.String("")) {
		t.Fatalf("null and empty string must not compare equal")
	}
}

func TestFields_ReplaceKeepsPosition(t *testing.T) {
	f := bridge.NewFields().
		Set("a", bridge.Int(1)).
		Set("b", bridge.Int(2)).
		Set("a", bridge.Int(3))
	keys := f.Keys()
	if len(keys) != 2 || keys[0] != "a" || keys[1] != "b" {
		t.Fatalf("unexpected keys: %#v", keys)
	}
	v, _ := f.Get("a")
	if v != bridge.Int(3) {
		t.Fatalf("replacement did not take: %#v", v)
	}
}

func TestPath_Rendering(t *testing.T) {
	cases := []struct {
		p    bridge.Path
		want string
	}{
		{nil, "$"},
		{bridge.Path{}.Field("a").Field("b"), "a.b"},
		{bridge.Path{}.Field("a").Index(3).Key("k"), `a[3]["k"]`},
		{bridge.Path{}.Index(0), "[0]"},
	}
	for _, c := range cases {
		if got := c.p.String(); got != c.want {
			t.Fatalf("path %#v rendered %q, want %q", c.p, got, c.want)
		}
	}
}

func TestPath_AppendDoesNotMutate(t *testing.T) {
	base := bridge.Path{}.Field("a")
	p1 := base.Field("b")
	p2 := base.Field("c")
	if p1.String() != "a.b" || p2.String() != "a.c" {
		t.Fatalf("paths share state: %q %q", p1, p2)
	}
	if base.String() != "a" {
		t.Fatalf("base mutated: %q", base)
	}
}

func TestMarshalValue_PreservesInsertionOrder(t *testing.T) {
	v := bridge.Class{Name: "C", Fields: bridge.NewFields().
		Set("z", bridge.String("last?")).
		Set("a", bridge.List{bridge.Int(1), bridge.Null{}})}
	data, err := bridge.MarshalValue(v)
	if err != nil {
		t.Fatalf("unexpected err: %v", err)
	}
	want := `{"z":"last?","a":[1,null]}`
	if string(data) != want {
		t.Fatalf("got %s, want %s", data, want)
	}
}

func TestIssues_ErrorSummary(t *testing.T) {
	iss := bridge.Issues{
		{Path: bridge.Path{}.Field("a"), Code: bridge.CodeInvalidType, Expected: "int", Actual: "string"},
		{Path: bridge.Path{}.Field("b"), Code: bridge.CodeRequired},
		{Code: bridge.CodeOverflow},
		{Code: bridge.CodeOverflow},
	}
	msg := iss.Error()
	if msg == "" {
		t.Fatalf("expected non-empty summary")
	}
	if want := "invalid_type at a: expected int, got string"; msg[:len(want)] != want {
		t.Fatalf("unexpected summary: %q", msg)
	}
}

func TestIssue_Localize(t *testing.T) {
	it := bridge.Issue{Path: bridge.Path{}.Field("n"), Code: bridge.CodeOverflow}
	if got := it.Localize(); got != "number out of range" {
		t.Fatalf("unexpected message: %q", got)
	}
	i18n.SetLanguage("ja")
	t.Cleanup(func() { i18n.SetLanguage("en") })
	if got := it.Localize(); got != "数値が範囲外です" {
		t.Fatalf("unexpected ja message: %q", got)
	}
	explicit := bridge.Issue{Code: bridge.CodeOverflow, Message: "too big"}
	if got := explicit.Localize(); got != "too big" {
		t.Fatalf("explicit message must win: %q", got)
	}
}

func TestIssues_ErrorUsesCatalogText(t *testing.T) {
	err := bridge.Issues{{Path: bridge.Path{}.Field("n"), Code: bridge.CodeOverflow}}
	if msg := err.Error(); !strings.Contains(msg, "number out of range") {
		t.Fatalf("summary missing catalog text: %q", msg)
	}
}

func TestAsIssues(t *testing.T) {
	var err error = bridge.Issues{{Code: bridge.CodeRequired}}
	iss, ok := bridge.AsIssues(err)
	if !ok || len(iss) != 1 || iss[0].Code != bridge.CodeRequired {
		t.Fatalf("AsIssues failed: %#v %v", iss, ok)
	}
	if _, ok := bridge.AsIssues(nil); ok {
		t.Fatalf("nil error must not yield issues")
	}
}

func TestResult_FailedChecks(t *testing.T) {
	var r bridge.Result
	r.AddCheck(bridge.CheckResult{Label: "ok", Passed: true})
	r.AddCheck(bridge.CheckResult{Label: "bad", Passed: false})
	failed := r.FailedChecks()
	if len(failed) != 1 || failed[0].Label != "bad" {
		t.Fatalf("unexpected failed checks: %#v", failed)
	}
}
