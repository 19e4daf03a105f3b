// Package convert moves values between native Go representations and the
// dynamic value model, driven by TypeIR. Encoding (native to dynamic) is
// structural and cannot fail on schema-approved types except for integer
// range defects, which panic. Decoding (dynamic to native) reports
// path-carrying issues and evaluates attached constraints.
package convert

import (
	"context"
	"reflect"

	bridge "github.com/reoring/bamlbridge"
	"github.com/reoring/bamlbridge/typeir"
)

// Evaluator evaluates a constraint expression against the value it is
// attached to. The expression language is owned by the caller.
type Evaluator interface {
	Evaluate(ctx context.Context, expr string, v bridge.Value) (bool, error)
}

// Opt tunes a conversion pass.
type Opt struct {
	// Evaluator runs check/assert constraint expressions. When nil,
	// constraints are skipped entirely: nothing is recorded and asserts
	// cannot fail.
	Evaluator Evaluator
}

// ToValue encodes a native Go value as a dynamic value according to t.
// Registered classes and enums are resolved through reg. Type mismatches
// between v and t are reported as errors; an unsigned integer exceeding the
// int64 range under an int-typed schema panics, because the builder already
// rejected that combination and reaching it means the schema and value
// disagree by construction.
func ToValue(v any, t *typeir.TypeIR, reg *typeir.Registry) (bridge.Value, error) {
	e := &encoder{reg: reg}
	return e.encode(reflect.ValueOf(v), t, nil)
}

// Unmarshal decodes a dynamic value into dst, which must be a non-nil
// pointer. The walk is guided by t and reg; dst's reflect structure supplies
// the native field layout. On success the returned Result carries provenance
// flags and recorded check outcomes. Failed assert-level constraints return
// an AssertError; structural problems return Issues.
func Unmarshal(ctx context.Context, bv bridge.Value, t *typeir.TypeIR, reg *typeir.Registry, dst any, opt Opt) (*bridge.Result, error) {
	rv := reflect.ValueOf(dst)
	if rv.Kind() != reflect.Pointer || rv.IsNil() {
		return nil, bridge.Issues{{
			Code:    bridge.CodeInvalidType,
			Message: "destination must be a non-nil pointer",
		}}
	}
	d := &decoder{ctx: ctx, reg: reg, opt: opt, res: &bridge.Result{Value: bv}}
	if iss := d.into(bv, t, rv.Elem(), nil); len(iss) > 0 {
		return nil, iss
	}
	if len(d.failedAsserts) > 0 {
		return d.res, &bridge.AssertError{Failures: d.failedAsserts}
	}
	return d.res, nil
}

// FromValue decodes a dynamic value into a generic native representation:
// scalars become string/int64/float64/bool, lists become []any, classes and
// maps become map[string]any, enums become their variant name. It is the
// decoding path for dynamic (runtime-declared) classes, which have no native
// Go struct. Constraints are evaluated the same way Unmarshal evaluates them.
func FromValue(ctx context.Context, bv bridge.Value, t *typeir.TypeIR, reg *typeir.Registry, opt Opt) (any, *bridge.Result, error) {
	var out any
	res, err := Unmarshal(ctx, bv, t, reg, &out, opt)
	if err != nil {
		return nil, res, err
	}
	return out, res, nil
}
