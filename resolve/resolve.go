// Package resolve picks the best-matching member of a union type for a
// concrete value. This governs navigation and rendering of values whose
// static type is a union; it is separate from the converter's
// try-each-in-order parse strategy.
package resolve

import (
	bridge "github.com/reoring/bamlbridge"
	"github.com/reoring/bamlbridge/typeir"
)

// State is the outcome kind of a resolution.
type State int

const (
	// StateResolved means exactly one member governs the value.
	StateResolved State = iota
	// StateAmbiguous means no member had positive signal; navigation into
	// the value must refuse rather than guess.
	StateAmbiguous
)

// Resolution is the outcome of matching a value against a union's members.
type Resolution struct {
	State State
	// Type is the winning member, alias-resolved, when State is Resolved.
	Type *typeir.TypeIR
	// Candidates is the tied member set when State is Ambiguous.
	Candidates []*typeir.TypeIR
}

// Resolve scores a value against each non-null member of a union and picks a
// winner deterministically. Members are scored in declaration order; a
// positive-score tie resolves to the first tied member, an all-zero outcome
// is Ambiguous. A null value resolves to the null type when the union is
// optional and is Ambiguous otherwise.
func Resolve(v bridge.Value, union *typeir.TypeIR, reg *typeir.Registry) Resolution {
	members := union.NonNullMembers()
	if isNull(v) {
		if union.IsOptional() {
			return Resolution{State: StateResolved, Type: typeir.Null()}
		}
		return Resolution{State: StateAmbiguous, Candidates: members}
	}
	if len(members) == 0 {
		return Resolution{State: StateAmbiguous}
	}
	best := -1
	var winners []*typeir.TypeIR
	for _, m := range members {
		resolved := aliasResolve(m, reg)
		s := score(v, resolved, reg)
		switch {
		case s > best:
			best = s
			winners = winners[:0]
			winners = append(winners, resolved)
		case s == best:
			winners = append(winners, resolved)
		}
	}
	if best > 0 {
		// Positive signal always produces a winner; ties break by
		// declaration order.
		return Resolution{State: StateResolved, Type: winners[0]}
	}
	return Resolution{State: StateAmbiguous, Candidates: winners}
}

// aliasResolve follows one level of recursive-alias indirection.
func aliasResolve(t *typeir.TypeIR, reg *typeir.Registry) *typeir.TypeIR {
	if t.Kind != typeir.KindRecursiveAlias {
		return t
	}
	if target, ok := reg.Alias(t.Name, t.Mode); ok {
		return target
	}
	return t
}

// score computes the match strength of a candidate member against a value.
// Literal matches are the strongest signal (100), enum variant matches next
// (90), bare primitives a weak default (10), containers shape-only (5), an
// enum value read as a plain string the weakest positive signal (2).
func score(v bridge.Value, cand *typeir.TypeIR, reg *typeir.Registry) int {
	switch cand.Kind {
	case typeir.KindClass:
		fields, ok := classFields(v)
		if !ok {
			return 0
		}
		c, found := reg.Class(cand.Name, cand.Mode)
		if !found {
			return 0
		}
		overlap := 0
		for _, k := range fields.Keys() {
			if _, ok := c.FieldByName(k); ok {
				overlap++
			}
		}
		return overlap
	case typeir.KindEnum:
		s, ok := stringish(v)
		if !ok {
			return 0
		}
		e, found := reg.Enum(cand.Name)
		if !found {
			return 0
		}
		if _, matched := e.Match(s); matched {
			return 90
		}
		return 0
	case typeir.KindLiteral:
		switch cand.Lit.Kind {
		case typeir.LiteralString:
			if s, ok := stringish(v); ok && s == cand.Lit.Str {
				return 100
			}
		case typeir.LiteralInt:
			if i, ok := v.(bridge.Int); ok && int64(i) == cand.Lit.Int {
				return 100
			}
		case typeir.LiteralBool:
			if b, ok := v.(bridge.Bool); ok && bool(b) == cand.Lit.Bool {
				return 100
			}
		}
		return 0
	case typeir.KindPrimitive:
		switch cand.Prim {
		case typeir.PrimString:
			if _, ok := v.(bridge.String); ok {
				return 10
			}
			if _, ok := v.(bridge.Enum); ok {
				return 2
			}
		case typeir.PrimInt:
			if _, ok := v.(bridge.Int); ok {
				return 10
			}
		case typeir.PrimFloat:
			if _, ok := v.(bridge.Float); ok {
				return 10
			}
		case typeir.PrimBool:
			if _, ok := v.(bridge.Bool); ok {
				return 10
			}
		case typeir.PrimMedia:
			if _, ok := v.(bridge.Media); ok {
				return 10
			}
		}
		return 0
	case typeir.KindList:
		if _, ok := v.(bridge.List); ok {
			return 5
		}
		return 0
	case typeir.KindMap:
		if _, ok := v.(bridge.Map); ok {
			return 5
		}
		return 0
	case typeir.KindUnion:
		max := 0
		for _, m := range cand.NonNullMembers() {
			if s := score(v, aliasResolve(m, reg), reg); s > max {
				max = s
			}
		}
		return max
	default:
		return 0
	}
}

func isNull(v bridge.Value) bool {
	if v == nil {
		return true
	}
	_, ok := v.(bridge.Null)
	return ok
}

func stringish(v bridge.Value) (string, bool) {
	switch s := v.(type) {
	case bridge.String:
		return string(s), true
	case bridge.Enum:
		return s.Variant, true
	default:
		return "", false
	}
}

func classFields(v bridge.Value) (*bridge.Fields, bool) {
	switch c := v.(type) {
	case bridge.Class:
		return c.Fields, true
	case bridge.Map:
		return c.Entries, true
	default:
		return nil, false
	}
}
