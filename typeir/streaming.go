package typeir

// ToStreaming converts a type built against the IR metadata into its
// streaming counterpart: the shape a value takes while still being
// incrementally received.
//
// Rules:
//   - a "done"-flagged subtree degrades to its non-streaming shape but is
//     tagged done in its resolved stream state, so consumers can tell
//     "inherently atomic" apart from "streams";
//   - primitives, enums, literals, classes and aliases become optional
//     unless flagged "needed", which keeps them bare to hold back rendering
//     of the parent until the sub-value exists;
//   - classes and aliases flip to streaming mode so registry lookups hit the
//     streaming-shaped definition (materialized here on first use);
//   - containers propagate streaming-ness into their elements without
//     themselves degrading to optional;
//   - "state"-flagged members nested two or more union levels deep keep an
//     explicit streaming-state wrapper instead of being erased into a bare
//     optional; at the top union level they stream like any other member.
//
// The result is normalized with Flatten. ToStreaming(ToIR(ToStreaming(x)))
// equals ToStreaming(x) for all x.
func ToStreaming(t *TypeIR, reg *Registry) (*TypeIR, error) {
	out, err := streamType(t, reg, 0)
	if err != nil {
		return nil, err
	}
	return Flatten(out), nil
}

func streamType(t *TypeIR, reg *Registry, unionDepth int) (*TypeIR, error) {
	if t == nil {
		return nil, nil
	}
	if t.Meta.Behavior&BehaviorDone != 0 {
		c := t.Clone()
		c.Meta.Stream = &StreamState{Done: true, State: t.Meta.Behavior&BehaviorState != 0}
		return c, nil
	}
	switch t.Kind {
	case KindPrimitive:
		if t.Prim == PrimNull {
			return t.Clone(), nil
		}
		return wrapStreamed(t.Clone(), t.Meta.Behavior, unionDepth), nil
	case KindEnum, KindLiteral:
		return wrapStreamed(t.Clone(), t.Meta.Behavior, unionDepth), nil
	case KindClass:
		if err := materializeStreamingClass(t.Name, reg); err != nil {
			return nil, err
		}
		c := t.Clone()
		c.Mode = ModeStreaming
		return wrapStreamed(c, t.Meta.Behavior, unionDepth), nil
	case KindRecursiveAlias:
		if err := materializeStreamingAlias(t.Name, reg); err != nil {
			return nil, err
		}
		c := t.Clone()
		c.Mode = ModeStreaming
		return wrapStreamed(c, t.Meta.Behavior, unionDepth), nil
	case KindList:
		elem, err := streamType(t.Elem, reg, 0)
		if err != nil {
			return nil, err
		}
		c := t.Clone()
		c.Elem = elem
		c.Meta.Stream = resolvedState(t.Meta.Behavior)
		return c, nil
	case KindMap:
		key, err := streamType(t.Key, reg, 0)
		if err != nil {
			return nil, err
		}
		val, err := streamType(t.Value, reg, 0)
		if err != nil {
			return nil, err
		}
		c := t.Clone()
		c.Key = key
		c.Value = val
		c.Meta.Stream = resolvedState(t.Meta.Behavior)
		return c, nil
	case KindTuple:
		c := t.Clone()
		for i, it := range t.Items {
			si, err := streamType(it, reg, 0)
			if err != nil {
				return nil, err
			}
			c.Items[i] = si
		}
		c.Meta.Stream = resolvedState(t.Meta.Behavior)
		return c, nil
	case KindUnion:
		c := t.Clone()
		for i, m := range t.Members {
			sm, err := streamType(m, reg, unionDepth+1)
			if err != nil {
				return nil, err
			}
			c.Members[i] = sm
		}
		c.Meta.Stream = resolvedState(t.Meta.Behavior)
		return c, nil
	default: // KindTop, KindArrow
		return t.Clone(), nil
	}
}

// wrapStreamed applies the leaf/record streaming default: auto-optional
// unless "needed". A "state"-flagged member two or more union levels deep
// keeps its explicit streaming-state wrapper instead of degrading to a bare
// optional; directly inside a union the member still becomes optional, and
// the added null flattens into the parent.
func wrapStreamed(c *TypeIR, b Behavior, unionDepth int) *TypeIR {
	c.Meta.Stream = resolvedState(b)
	if b&BehaviorNeeded != 0 {
		return c
	}
	if b&BehaviorState != 0 && unionDepth >= 2 {
		return c
	}
	return Optional(c)
}

func resolvedState(b Behavior) *StreamState {
	return &StreamState{Done: false, State: b&BehaviorState != 0}
}

// ToIR converts a streaming type back to its IR form: resolved stream
// states are cleared and class/alias references re-tagged non-streaming.
// Structural changes made by ToStreaming (optional wrappers) are kept; a
// second ToStreaming pass collapses them, which is what makes the transform
// idempotent.
func ToIR(t *TypeIR) *TypeIR {
	if t == nil {
		return nil
	}
	c := t.Clone()
	c.Meta.Stream = nil
	switch c.Kind {
	case KindClass, KindRecursiveAlias:
		c.Mode = ModeNonStreaming
	case KindList:
		c.Elem = ToIR(t.Elem)
	case KindMap:
		c.Key = ToIR(t.Key)
		c.Value = ToIR(t.Value)
	case KindTuple:
		for i, it := range t.Items {
			c.Items[i] = ToIR(it)
		}
	case KindUnion:
		for i, m := range t.Members {
			c.Members[i] = ToIR(m)
		}
	}
	return c
}

// materializeStreamingClass builds the (name, ModeStreaming) registry entry
// from the non-streaming definition on first use. A placeholder is inserted
// before field types are transformed so recursive classes terminate.
func materializeStreamingClass(name string, reg *Registry) error {
	if reg == nil {
		return nil
	}
	if _, ok := reg.Class(name, ModeStreaming); ok {
		return nil
	}
	base, ok := reg.Class(name, ModeNonStreaming)
	if !ok {
		return nil
	}
	sc := &Class{
		Name:        base.Name,
		Mode:        ModeStreaming,
		Description: base.Description,
		Dynamic:     base.Dynamic,
		Constraints: base.Constraints,
		Behavior:    base.Behavior,
		Synthetic:   base.Synthetic,
		Native:      base.Native,
	}
	reg.AddClass(sc)
	fields := make([]Field, len(base.Fields))
	for i, f := range base.Fields {
		st, err := streamType(f.Type, reg, 0)
		if err != nil {
			return err
		}
		fields[i] = Field{
			Name:        f.Name,
			Type:        Flatten(st),
			Description: f.Description,
			Dynamic:     f.Dynamic,
			Index:       f.Index,
		}
	}
	sc.Fields = fields
	return nil
}

func materializeStreamingAlias(name string, reg *Registry) error {
	if reg == nil {
		return nil
	}
	if _, ok := reg.Alias(name, ModeStreaming); ok {
		return nil
	}
	base, ok := reg.Alias(name, ModeNonStreaming)
	if !ok {
		return nil
	}
	// Placeholder first: a recursive alias may reach itself while its
	// streaming expansion is being built.
	reg.SetAlias(name, ModeStreaming, AliasRef(name, ModeStreaming))
	st, err := streamType(base, reg, 0)
	if err != nil {
		return err
	}
	reg.SetAlias(name, ModeStreaming, Flatten(st))
	return nil
}
