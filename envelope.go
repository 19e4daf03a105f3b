package bamlbridge

// Flag is an informational provenance marker attached by a conversion or by
// the parsing layer (e.g. "used union member 2", "field defaulted"). Flags
// are opaque to this core and are simply threaded through.
type Flag struct {
	Name   string
	Detail string
}

// Result is the parse-result envelope returned alongside a typed value: the
// resolved dynamic value plus provenance flags, constraint check outcomes,
// and human-readable explanations for recoverable discrepancies.
type Result struct {
	Value        Value
	Flags        []Flag
	Checks       []CheckResult
	Explanations []string
}

// AddFlag appends a provenance flag.
func (r *Result) AddFlag(name, detail string) {
	r.Flags = append(r.Flags, Flag{Name: name, Detail: detail})
}

// AddCheck records a constraint check outcome.
func (r *Result) AddCheck(c CheckResult) {
	r.Checks = append(r.Checks, c)
}

// Explain appends a human-readable explanation for a recoverable discrepancy.
func (r *Result) Explain(msg string) {
	r.Explanations = append(r.Explanations, msg)
}

// FailedChecks returns the subset of checks that did not pass.
func (r *Result) FailedChecks() []CheckResult {
	var out []CheckResult
	for _, c := range r.Checks {
		if !c.Passed {
			out = append(out, c)
		}
	}
	return out
}
