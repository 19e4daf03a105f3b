package resolve

import (
	"sync"

	bridge "github.com/reoring/bamlbridge"
	"github.com/reoring/bamlbridge/typeir"
)

// View pairs a value with its static type and lazily resolves the governing
// union member on first navigation. Resolution is pure, so the memoized
// result is computed at most once per view; concurrent first accesses are
// serialized by the once cell.
type View struct {
	val bridge.Value
	t   *typeir.TypeIR
	reg *typeir.Registry

	once sync.Once
	res  Resolution
}

// NewView wraps a value with its declared type.
func NewView(v bridge.Value, t *typeir.TypeIR, reg *typeir.Registry) *View {
	return &View{val: v, t: t, reg: reg}
}

// Value returns the wrapped value.
func (w *View) Value() bridge.Value { return w.val }

// Resolution returns the memoized resolution of the view's type against its
// value. A non-union type resolves trivially to itself.
func (w *View) Resolution() Resolution {
	w.once.Do(func() {
		t := aliasResolve(w.t, w.reg)
		if t.Kind != typeir.KindUnion {
			w.res = Resolution{State: StateResolved, Type: t}
			return
		}
		w.res = Resolve(w.val, t, w.reg)
	})
	return w.res
}

// Field navigates into a class-shaped value. When the view's resolution is
// ambiguous the access fails: with no signal to pick a member, guessing a
// field list would silently render the wrong schema.
func (w *View) Field(name string) (*View, error) {
	t, err := w.resolved()
	if err != nil {
		return nil, err
	}
	fields, ok := classFields(w.val)
	if !ok {
		return nil, bridge.Issues{{
			Path:     bridge.Path{bridge.FieldSeg(name)},
			Code:     bridge.CodeInvalidType,
			Expected: "class",
			Actual:   w.val.Kind().String(),
		}}
	}
	var ft *typeir.TypeIR
	if t.Kind == typeir.KindClass {
		if c, found := w.reg.Class(t.Name, t.Mode); found {
			if f, found := c.FieldByName(name); found {
				ft = f.Type
			}
		}
	}
	v, ok := fields.Get(name)
	if !ok {
		return nil, bridge.Issues{{
			Path:    bridge.Path{bridge.FieldSeg(name)},
			Code:    bridge.CodeRequired,
			Message: "no such field",
		}}
	}
	if ft == nil {
		ft = typeir.Top()
	}
	return NewView(v, ft, w.reg), nil
}

// Index navigates into a list-shaped value.
func (w *View) Index(i int) (*View, error) {
	t, err := w.resolved()
	if err != nil {
		return nil, err
	}
	list, ok := w.val.(bridge.List)
	if !ok {
		return nil, bridge.Issues{{
			Path:     bridge.Path{bridge.IndexSeg(i)},
			Code:     bridge.CodeInvalidType,
			Expected: "list",
			Actual:   w.val.Kind().String(),
		}}
	}
	if i < 0 || i >= len(list) {
		return nil, bridge.Issues{{
			Path:    bridge.Path{bridge.IndexSeg(i)},
			Code:    bridge.CodeInvalidValue,
			Message: "index out of range",
		}}
	}
	et := typeir.Top()
	if t.Kind == typeir.KindList {
		et = t.Elem
	}
	return NewView(list[i], et, w.reg), nil
}

// Iter returns element views of a list- or map-shaped value in order.
func (w *View) Iter() ([]*View, error) {
	t, err := w.resolved()
	if err != nil {
		return nil, err
	}
	switch v := w.val.(type) {
	case bridge.List:
		et := typeir.Top()
		if t.Kind == typeir.KindList {
			et = t.Elem
		}
		out := make([]*View, len(v))
		for i, ev := range v {
			out[i] = NewView(ev, et, w.reg)
		}
		return out, nil
	case bridge.Map:
		vt := typeir.Top()
		if t.Kind == typeir.KindMap {
			vt = t.Value
		}
		out := make([]*View, 0, v.Entries.Len())
		for i := 0; i < v.Entries.Len(); i++ {
			_, ev := v.Entries.At(i)
			out = append(out, NewView(ev, vt, w.reg))
		}
		return out, nil
	default:
		return nil, bridge.Issues{{
			Code:     bridge.CodeInvalidType,
			Expected: "list or map",
			Actual:   w.val.Kind().String(),
		}}
	}
}

// resolved returns the governing type or the ambiguous-access error.
func (w *View) resolved() (*typeir.TypeIR, error) {
	res := w.Resolution()
	if res.State == StateAmbiguous {
		return nil, bridge.Issues{{
			Code:    bridge.CodeUnionAmbiguous,
			Message: "value does not match any union member; refusing to navigate",
		}}
	}
	return res.Type, nil
}
