package bundle

// Outcome is the terminal condition of a direction computation. OutcomeUnset
// is the in-progress value and must never be returned to the caller.
type Outcome int

const (
	OutcomeUnset Outcome = iota
	OutcomeSuccess
	OutcomeCPUTimeLimit
	OutcomeEvaluationFailure
	OutcomeIterationLimit
	OutcomeQPFailure
)

var outcomeStrings = map[Outcome]string{
	OutcomeUnset:             "Unset",
	OutcomeSuccess:           "Success",
	OutcomeCPUTimeLimit:      "CpuTimeLimit",
	OutcomeEvaluationFailure: "EvaluationFailure",
	OutcomeIterationLimit:    "IterationLimit",
	OutcomeQPFailure:         "QPFailure",
}

func (o Outcome) String() string {
	s, ok := outcomeStrings[o]
	if !ok {
		return "UnknownOutcome"
	}
	return s
}
