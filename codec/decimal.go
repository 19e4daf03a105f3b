package codec

import (
	"fmt"
	"math"
	"reflect"
	"strconv"
)

// FitsInt64 reports whether u is representable as an int64.
func FitsInt64(u uint64) bool { return u <= math.MaxInt64 }

// StringScalar returns the Codec between the canonical string form of a
// scalar and a native value of type t. Decode range-checks against t's
// width; Encode rejects values of any other type.
func StringScalar(t reflect.Type) Codec[string, reflect.Value] {
	return stringScalar{t: t}
}

type stringScalar struct{ t reflect.Type }

func (c stringScalar) Decode(s string) (reflect.Value, error) { return ParseScalar(s, c.t) }

func (c stringScalar) Encode(v reflect.Value) (string, error) {
	if v.Type() != c.t {
		return "", fmt.Errorf("codec: %s value passed to a %s codec", v.Type(), c.t)
	}
	return FormatScalar(v)
}

// FormatScalar renders a scalar value in its canonical string form: decimal
// for integers, shortest round-trip form for floats.
func FormatScalar(v reflect.Value) (string, error) {
	switch v.Kind() {
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return strconv.FormatInt(v.Int(), 10), nil
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64, reflect.Uintptr:
		return strconv.FormatUint(v.Uint(), 10), nil
	case reflect.Float32, reflect.Float64:
		return strconv.FormatFloat(v.Float(), 'g', -1, v.Type().Bits()), nil
	case reflect.Bool:
		return strconv.FormatBool(v.Bool()), nil
	case reflect.String:
		return v.String(), nil
	default:
		return "", fmt.Errorf("codec: cannot format %s as a string scalar", v.Type())
	}
}

// ParseScalar parses the canonical string form of a scalar into a new value
// of type t, range-checked against t's width.
func ParseScalar(s string, t reflect.Type) (reflect.Value, error) {
	out := reflect.New(t).Elem()
	switch t.Kind() {
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		i, err := strconv.ParseInt(s, 10, t.Bits())
		if err != nil {
			return reflect.Value{}, fmt.Errorf("codec: %q does not fit %s: %w", s, t, err)
		}
		out.SetInt(i)
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64, reflect.Uintptr:
		u, err := strconv.ParseUint(s, 10, t.Bits())
		if err != nil {
			return reflect.Value{}, fmt.Errorf("codec: %q does not fit %s: %w", s, t, err)
		}
		out.SetUint(u)
	case reflect.Float32, reflect.Float64:
		f, err := strconv.ParseFloat(s, t.Bits())
		if err != nil {
			return reflect.Value{}, fmt.Errorf("codec: %q is not a %s: %w", s, t, err)
		}
		out.SetFloat(f)
	case reflect.Bool:
		b, err := strconv.ParseBool(s)
		if err != nil {
			return reflect.Value{}, fmt.Errorf("codec: %q is not a bool: %w", s, err)
		}
		out.SetBool(b)
	case reflect.String:
		out.SetString(s)
	default:
		return reflect.Value{}, fmt.Errorf("codec: cannot parse string scalar into %s", t)
	}
	return out, nil
}

// SetInt assigns i into an integer destination of any signedness and width,
// reporting overflow instead of truncating.
func SetInt(dst reflect.Value, i int64) error {
	switch dst.Kind() {
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		if dst.OverflowInt(i) {
			return fmt.Errorf("codec: %d overflows %s", i, dst.Type())
		}
		dst.SetInt(i)
		return nil
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64, reflect.Uintptr:
		if i < 0 || dst.OverflowUint(uint64(i)) {
			return fmt.Errorf("codec: %d overflows %s", i, dst.Type())
		}
		dst.SetUint(uint64(i))
		return nil
	default:
		return fmt.Errorf("codec: %s is not an integer", dst.Type())
	}
}
