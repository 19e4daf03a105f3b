package typeir

// Level expresses the severity of a constraint.
type Level int

const (
	LevelCheck  Level = iota // non-fatal, recorded
	LevelAssert              // fatal on failure
)

// Constraint is a labeled boolean expression attached to a type or field.
// The expression language is owned by an external evaluator; this core only
// carries it.
type Constraint struct {
	Label string
	Expr  string
	Level Level
}

// Behavior is the authoring-time streaming behavior bit set attached to a
// type.
type Behavior uint8

const (
	BehaviorNeeded Behavior = 1 << iota // hold back the parent until this sub-value exists
	BehaviorDone                        // complete-only semantics: never show partial
	BehaviorState                       // expose an explicit streaming_state wrapper
)

// StreamState is the resolved streaming-behavior pair produced by the
// streaming transform. Needed has no resolved counterpart because it is
// applied structurally (by not auto-wrapping in an optional union).
type StreamState struct {
	Done  bool
	State bool
}

// Meta is the metadata payload carried by every TypeIR node. Behavior holds
// the authoring-time flags; Stream is set only on streaming-transformed
// types.
type Meta struct {
	Constraints []Constraint
	Behavior    Behavior
	Stream      *StreamState
}

// HasChecks reports whether any check-level constraint is attached.
func (m Meta) HasChecks() bool {
	for _, c := range m.Constraints {
		if c.Level == LevelCheck {
			return true
		}
	}
	return false
}

func (m Meta) clone() Meta {
	out := m
	if m.Constraints != nil {
		out.Constraints = append([]Constraint{}, m.Constraints...)
	}
	if m.Stream != nil {
		s := *m.Stream
		out.Stream = &s
	}
	return out
}

func (m Meta) equal(o Meta) bool {
	if m.Behavior != o.Behavior {
		return false
	}
	if len(m.Constraints) != len(o.Constraints) {
		return false
	}
	for i := range m.Constraints {
		if m.Constraints[i] != o.Constraints[i] {
			return false
		}
	}
	ms, os := m.Stream, o.Stream
	zero := StreamState{}
	if ms == nil {
		ms = &zero
	}
	if os == nil {
		os = &zero
	}
	return *ms == *os
}

// WithConstraints returns a copy of t with the constraints appended to its
// metadata.
func (t *TypeIR) WithConstraints(cs ...Constraint) *TypeIR {
	if len(cs) == 0 {
		return t
	}
	c := t.Clone()
	c.Meta.Constraints = append(c.Meta.Constraints, cs...)
	return c
}

// WithBehavior returns a copy of t with the behavior bits set.
func (t *TypeIR) WithBehavior(b Behavior) *TypeIR {
	c := t.Clone()
	c.Meta.Behavior |= b
	return c
}
