package classify

import (
	"fmt"

	"github.com/franz/score-librarian/internal/catalog"
)

// QuotaState summarises a version's instrument count against its bounds
type QuotaState string

const (
	QuotaUnbounded    QuotaState = "unbounded"
	QuotaUnderMinimum QuotaState = "under_minimum"
	QuotaComplete     QuotaState = "complete"
	QuotaOverMaximum  QuotaState = "over_maximum"
)

// Quota is the instrument-count status of one version
type Quota struct {
	Type  catalog.VersionType
	Count int
	Min   int
	Max   int
	State QuotaState
}

// Full reports whether another upload would be rejected
func (q Quota) Full() bool {
	return q.Max > 0 && q.Count >= q.Max
}

func (q Quota) String() string {
	switch q.State {
	case QuotaUnderMinimum:
		return fmt.Sprintf("%d instruments, needs at least %d", q.Count, q.Min)
	case QuotaOverMaximum:
		return fmt.Sprintf("%d instruments, exceeds maximum of %d", q.Count, q.Max)
	case QuotaComplete:
		if q.Max > 0 {
			return fmt.Sprintf("%d instruments (%d-%d)", q.Count, q.Min, q.Max)
		}
		return fmt.Sprintf("%d instruments (%d+)", q.Count, q.Min)
	}
	return fmt.Sprintf("%d files", q.Count)
}

// QuotaStatus classifies count, the number of child records a version of
// type t currently has
func QuotaStatus(t catalog.VersionType, count int) (Quota, error) {
	d, err := DescribeType(t)
	if err != nil {
		return Quota{}, err
	}

	q := Quota{Type: t, Count: count, Min: d.MinCount, Max: d.MaxCount, State: QuotaUnbounded}
	switch {
	case !d.HasMin() && !d.HasMax():
	case d.HasMax() && count > d.MaxCount:
		q.State = QuotaOverMaximum
	case d.HasMin() && count < d.MinCount:
		q.State = QuotaUnderMinimum
	default:
		q.State = QuotaComplete
	}
	return q, nil
}
