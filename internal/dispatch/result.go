package dispatch

import (
	"github.com/hyperengineering/fastline/internal/types"
)

// Outcome summarises a flush.
type Outcome string

const (
	OutcomeOK      Outcome = "ok"
	OutcomePartial Outcome = "partial"
	OutcomeFailed  Outcome = "failed"
	OutcomeSkipped Outcome = "skipped"
)

// FamilyResult is the outcome of one family write.
type FamilyResult struct {
	Family types.Family `json:"family"`
	Count  int          `json:"count"`
	Err    error        `json:"-"`
}

// OK reports whether the family write succeeded.
func (r FamilyResult) OK() bool { return r.Err == nil }

// Result reports a flush. Families lists only the families that were attempted.
type Result struct {
	Outcome  Outcome        `json:"outcome"`
	Families []FamilyResult `json:"families"`
	// Pending is the queue length after the flush.
	Pending int   `json:"pending"`
	Err     error `json:"-"`
}

// Succeeded reports whether f was written in this flush.
func (r Result) Succeeded(f types.Family) bool {
	for _, fr := range r.Families {
		if fr.Family == f {
			return fr.OK()
		}
	}
	return false
}

// Failed returns the families whose write failed.
func (r Result) Failed() []types.Family {
	var failed []types.Family
	for _, fr := range r.Families {
		if !fr.OK() {
			failed = append(failed, fr.Family)
		}
	}
	return failed
}

func outcomeOf(results []FamilyResult) Outcome {
	ok := 0
	for _, r := range results {
		if r.OK() {
			ok++
		}
	}
	switch {
	case ok == len(results):
		return OutcomeOK
	case ok == 0:
		return OutcomeFailed
	default:
		return OutcomePartial
	}
}
