package shape

import (
	bridge "github.com/reoring/bamlbridge"
	"github.com/reoring/bamlbridge/typeir"
)

// NamingContext threads the owner's naming through a field adapter so it can
// synthesize registry entries consistent with the owner's namespace.
type NamingContext struct {
	OwnerInternalName string
	OwnerRenderedName string
	// Variant prefixes are set when the owning field lives inside a
	// data-enum variant class.
	VariantPrefix         string
	VariantRenderedPrefix string
	FieldName             string
	FieldRendered         string
}

// FieldAdapter bypasses default type-IR derivation and value conversion for
// a single field. The adapter supplies its own schema representation and
// bidirectional conversion.
type FieldAdapter interface {
	// TypeIR returns the field's schema type.
	TypeIR(ctx NamingContext) (*typeir.TypeIR, error)
	// Register adds any classes or enums the adapter's type references.
	Register(reg *typeir.Registry, ctx NamingContext) error
	// ToValue converts the native field value to its dynamic representation.
	ToValue(v any) (bridge.Value, error)
	// FromValue converts the dynamic representation back to the native
	// field value.
	FromValue(bv bridge.Value) (any, error)
}
