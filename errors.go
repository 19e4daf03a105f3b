package bamlbridge

import (
	"errors"
	"fmt"
	"strings"

	"github.com/reoring/bamlbridge/i18n"
)

// Issue codes (exported consts for IDE completion and type safety by convention)
const (
	CodeInvalidType      = "invalid_type"
	CodeRequired         = "required"
	CodeInvalidEnum      = "invalid_enum"
	CodeInvalidLiteral   = "invalid_literal"
	CodeUnknownVariant   = "unknown_variant"
	CodeOverflow         = "overflow"
	CodeInvalidValue     = "invalid_value"
	CodeUnsupportedShape = "unsupported_shape"
	CodeUnionAmbiguous   = "union_ambiguous"
	CodeAssertFailed     = "assert_failed"
)

// Issue represents a single conversion or schema-definition problem.
type Issue struct {
	Path     Path
	Code     string // One of the codes listed above.
	Expected string // Expected type description, when known.
	Actual   string // Actual value description, when known.
	Message  string
	Hint     string // Optional remediation hint.
	// Params carries structured parameters (e.g., {"min":1, "got":42}) for
	// i18n and observability.
	Params map[string]any
}

// Localize renders the issue's human-readable message. An explicit Message
// wins; otherwise the text for the code comes from the i18n catalog, with
// path and expected/actual passed through as message data.
func (it Issue) Localize() string {
	if it.Message != "" {
		return it.Message
	}
	data := map[string]string{"path": it.Path.String()}
	if it.Expected != "" {
		data["expected"] = it.Expected
	}
	if it.Actual != "" {
		data["actual"] = it.Actual
	}
	return i18n.T(it.Code, data)
}

// Issues is a collection of issues that implements error.
type Issues []Issue

// Error summarizes the first few issues.
func (iss Issues) Error() string {
	if len(iss) == 0 {
		return ""
	}
	const maxShown = 3
	b := &strings.Builder{}
	n := len(iss)
	lim := n
	if lim > maxShown {
		lim = maxShown
	}
	for i := 0; i < lim; i++ {
		if i > 0 {
			b.WriteString("; ")
		}
		it := iss[i]
		fmt.Fprintf(b, "%s at %s", it.Code, it.Path)
		if it.Expected != "" {
			fmt.Fprintf(b, ": expected %s", it.Expected)
			if it.Actual != "" {
				fmt.Fprintf(b, ", got %s", it.Actual)
			}
		} else if msg := it.Localize(); msg != it.Code {
			fmt.Fprintf(b, ": %s", msg)
		}
	}
	if n > lim {
		fmt.Fprintf(b, "; ... (total %d)", n)
	}
	return b.String()
}

// AppendIssues appends issues to the destination, initializing the slice when
// needed.
func AppendIssues(dst Issues, more ...Issue) Issues {
	if dst == nil {
		dst = Issues{}
	}
	dst = append(dst, more...)
	return dst
}

// AsIssues extracts Issues from an error using errors.As internally.
func AsIssues(err error) (Issues, bool) {
	if err == nil {
		return nil, false
	}
	var iss Issues
	if errors.As(err, &iss) {
		return iss, true
	}
	return nil, false
}

// CheckResult records the outcome of one constraint evaluation.
type CheckResult struct {
	Label  string
	Expr   string
	Passed bool
}

// AssertError reports failed assert-level constraints. It is a distinct
// error kind because callers need to enumerate every failed assertion, not
// just the first.
type AssertError struct {
	Failures []CheckResult
}

// Error lists every failed assertion.
func (e *AssertError) Error() string {
	b := &strings.Builder{}
	b.WriteString("assertions failed:")
	for _, f := range e.Failures {
		fmt.Fprintf(b, " %s(%s)", f.Label, f.Expr)
	}
	return b.String()
}

// AsAssertError extracts an AssertError from an error chain.
func AsAssertError(err error) (*AssertError, bool) {
	var ae *AssertError
	if errors.As(err, &ae) {
		return ae, true
	}
	return nil, false
}
