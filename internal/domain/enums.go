package domain

// Outcome classifies a finished sanity-check run.
type Outcome string

const (
	OutcomePassed    Outcome = "passed"
	OutcomeDivergent Outcome = "divergent"
	OutcomeFailed    Outcome = "failed"
)

func (o Outcome) Valid() bool {
	switch o {
	case OutcomePassed, OutcomeDivergent, OutcomeFailed:
		return true
	}
	return false
}

// ExitCode maps an outcome to the CLI exit status:
// 0 = all checks passed, 1 = divergence detected, 2 = error.
func (o Outcome) ExitCode() int {
	switch o {
	case OutcomePassed:
		return 0
	case OutcomeDivergent:
		return 1
	default:
		return 2
	}
}
