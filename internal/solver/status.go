package solver

// Status reports how an outer solve ended. Zero means the solve should
// continue; positive values are successful terminations, negative values are
// failures.
type Status int

const (
	Continue Status = iota
	Converged
	MaxOuterIterations
)

const (
	_                     = iota
	EvaluationError Status = -1 * iota
	QPError
	InnerIterationError
	TimeLimitReached
	Cancelled
)

var statusStrings = map[Status]string{
	Continue:            "Continue",
	Converged:           "Converged",
	MaxOuterIterations:  "MaximumOuterIterations",
	EvaluationError:     "ErrorInObjectiveEvaluation",
	QPError:             "QPSolverFailure",
	InnerIterationError: "InnerIterationLimit",
	TimeLimitReached:    "TimeLimitReached",
	Cancelled:           "Cancelled",
}

func (s Status) String() string {
	str, ok := statusStrings[s]
	if !ok {
		return "UnregisteredStatus"
	}
	return str
}

// Success reports whether the status is a successful termination.
func (s Status) Success() bool { return s > 0 }
