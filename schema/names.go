package schema

import (
	"strings"

	"github.com/stoewer/go-strcase"

	"github.com/reoring/bamlbridge/shape"
)

// baseInternalName returns the pre-collision internal name of a shape: the
// explicit rename when annotated, else the package-qualified identifier.
func baseInternalName(s *shape.Shape) string {
	if s.Ann.Rename != "" {
		return s.Ann.Rename
	}
	if s.PkgPath != "" {
		return s.PkgPath + "." + s.Name
	}
	return s.Name
}

// renderedName returns the display name: the alias when annotated, else the
// bare type identifier.
func renderedName(s *shape.Shape) string {
	if s.Ann.Alias != "" {
		return s.Ann.Alias
	}
	return s.Name
}

// entryClassNames returns the internal and rendered names of a synthesized
// map-entry class for a map-as-pairs field.
func entryClassNames(owner ownerCtx, fieldReal, fieldRendered string) (internal, rendered string) {
	internal = owner.internal + "::" + owner.variantPrefix + fieldReal + "__Entry"
	rendered = owner.variantRenderedPrefix + strcase.UpperCamelCase(fieldRendered) + "Entry"
	return internal, rendered
}

// trimDoc normalizes a doc comment: trailing whitespace removed per line,
// empty result treated as absent.
func trimDoc(doc string) string {
	lines := strings.Split(doc, "\n")
	for i, l := range lines {
		lines[i] = strings.TrimRight(l, " \t")
	}
	out := strings.TrimSpace(strings.Join(lines, "\n"))
	return out
}
