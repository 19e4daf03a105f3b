// Package codec holds the scalar re-encoding helpers used when a native type
// and its schema representation disagree: wide integers rendered as decimal
// strings, and non-string map keys round-tripped through their string form.
package codec

// Codec converts between a wire representation A and a native representation
// B. Decode goes wire to native, Encode native to wire.
type Codec[A, B any] interface {
	Decode(a A) (B, error)
	Encode(b B) (A, error)
}
