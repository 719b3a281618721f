package emailrule

// Result is the full outcome of one rule evaluation.
// Valid is the verdict; the remaining fields are diagnostics.
type Result struct {
	Email string `json:"email"`
	Modes Modes  `json:"-"`
	Valid bool   `json:"valid"`
	// Reason is empty when Valid is true.
	Reason Reason `json:"reason,omitempty"`
	// Degraded is true when the verdict came from the fallback policy
	// because the remote lookup failed.
	Degraded bool          `json:"degraded,omitempty"`
	Remote   *RemoteResult `json:"remote,omitempty"`
	Checks   []CheckResult `json:"checks"`
	// LookupErr is the lookup failure behind a degraded verdict.
	LookupErr error `json:"-"`
}

// FailedChecks returns those CheckResults that did not pass. A degraded
// result that was accepted still reports its failed lookup here.
func (r Result) FailedChecks() []CheckResult {
	var out []CheckResult
	for _, c := range r.Checks {
		if !c.Passed {
			out = append(out, c)
		}
	}
	return out
}

// CheckFor returns the CheckResult for the given level, if it exists.
// The second return value indicates whether the level was executed.
func (r Result) CheckFor(level CheckLevel) (CheckResult, bool) {
	for _, c := range r.Checks {
		if c.Level == level {
			return c, true
		}
	}
	return CheckResult{}, false
}
