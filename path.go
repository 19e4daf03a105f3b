package bamlbridge

import (
	"strconv"
	"strings"
)

type segmentKind int

const (
	segField segmentKind = iota
	segIndex
	segKey
)

// Segment is one step of a value path: a field name, a list index, or a map
// key.
type Segment struct {
	kind  segmentKind
	name  string
	index int
}

// FieldSeg returns a struct/class field segment.
func FieldSeg(name string) Segment { return Segment{kind: segField, name: name} }

// IndexSeg returns a list index segment.
func IndexSeg(i int) Segment { return Segment{kind: segIndex, index: i} }

// KeySeg returns a map key segment.
func KeySeg(key string) Segment { return Segment{kind: segKey, name: key} }

// Path is an ordered list of segments identifying a location inside a value.
type Path []Segment

// Field returns a new path with a field segment appended. The receiver is
// not mutated; paths accumulate on entry into each container during
// traversal.
func (p Path) Field(name string) Path { return p.push(FieldSeg(name)) }

// Index returns a new path with a list index segment appended.
func (p Path) Index(i int) Path { return p.push(IndexSeg(i)) }

// Key returns a new path with a map key segment appended.
func (p Path) Key(key string) Path { return p.push(KeySeg(key)) }

func (p Path) push(s Segment) Path {
	out := make(Path, len(p)+1)
	copy(out, p)
	out[len(p)] = s
	return out
}

// String renders the path in the canonical a.b[3]["k"] form. The empty path
// renders as "$".
func (p Path) String() string {
	if len(p) == 0 {
		return "$"
	}
	b := &strings.Builder{}
	for i, s := range p {
		switch s.kind {
		case segField:
			if i > 0 {
				b.WriteByte('.')
			}
			b.WriteString(s.name)
		case segIndex:
			b.WriteByte('[')
			b.WriteString(strconv.Itoa(s.index))
			b.WriteByte(']')
		case segKey:
			b.WriteString(`["`)
			b.WriteString(s.name)
			b.WriteString(`"]`)
		}
	}
	return b.String()
}
