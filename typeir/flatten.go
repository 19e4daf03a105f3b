package typeir

// Flatten normalizes nested unions: Union(Union(A,B),C) becomes
// Union(A,B,C), duplicate members collapse by structural equality, and any
// number of nulls collapse to a single trailing null.
//
// A nested union carrying check constraints at its own metadata level is NOT
// flattened into its parent; it is preserved as an opaque unit so the
// constraint stays attached to the type it was written on.
func Flatten(t *TypeIR) *TypeIR {
	if t == nil {
		return nil
	}
	switch t.Kind {
	case KindList:
		c := t.Clone()
		c.Elem = Flatten(t.Elem)
		return c
	case KindMap:
		c := t.Clone()
		c.Key = Flatten(t.Key)
		c.Value = Flatten(t.Value)
		return c
	case KindTuple:
		c := t.Clone()
		for i, it := range t.Items {
			c.Items[i] = Flatten(it)
		}
		return c
	case KindUnion:
		flat := make([]*TypeIR, 0, len(t.Members))
		sawNull := false
		for _, m := range t.Members {
			fm := Flatten(m)
			if fm.Kind == KindUnion && !fm.Meta.HasChecks() {
				for _, inner := range fm.Members {
					if inner.IsNull() {
						sawNull = true
						continue
					}
					flat = appendUnique(flat, inner)
				}
				continue
			}
			if fm.IsNull() {
				sawNull = true
				continue
			}
			flat = appendUnique(flat, fm)
		}
		if sawNull {
			flat = append(flat, Null())
		}
		c := t.Clone()
		c.Members = flat
		return c
	default:
		return t.Clone()
	}
}

func appendUnique(members []*TypeIR, m *TypeIR) []*TypeIR {
	for _, existing := range members {
		if Equal(existing, m) {
			return members
		}
	}
	return append(members, m)
}
