package resolver

import (
	"errors"
)

// Coarse result of a resolution call, for logs and metrics.
type Outcome int

const (
	OutcomeFound Outcome = iota
	OutcomeNotFound
	OutcomeFailed
)

func (o Outcome) String() string {
	switch o {
	case OutcomeFound:
		return "found"
	case OutcomeNotFound:
		return "notfound"
	default:
		return "failed"
	}
}

// Maps an error returned by [Resolver.ResolveLocation] (or nil) to an Outcome. Any error other than ErrHandleNotFound counts as a failure.
func Classify(err error) Outcome {
	switch {
	case err == nil:
		return OutcomeFound
	case errors.Is(err, ErrHandleNotFound):
		return OutcomeNotFound
	default:
		return OutcomeFailed
	}
}
