package health

import (
	"cmp"
	"fmt"
	"slices"
)

func rank(s Status) int {
	switch s.Status {
	case StatusHealthy:
		return 0
	case StatusDegraded:
		return 1
	default:
		return 2
	}
}

// Aggregate reports the worst of subs: any unhealthy sub makes the result
// unhealthy, otherwise any degraded sub makes it degraded.
func Aggregate(component string, subs []Status) Status {
	if len(subs) == 0 {
		return NewHealthy(component, "no sub-components")
	}

	worst := slices.MaxFunc(subs, func(a, b Status) int { return cmp.Compare(rank(a), rank(b)) })

	var status Status
	switch rank(worst) {
	case 0:
		status = NewHealthy(component, "all sub-components healthy")
	case 1:
		status = NewDegraded(component, worst.Component+" degraded")
	default:
		status = NewUnhealthy(component, worst.Component+" unhealthy")
	}
	status.SubStatuses = sorted(subs)
	return status
}

// Quorum aggregates interchangeable replicas such as workers sharing a load.
// The group is healthy while every replica is, degraded while at least one
// still is, and unhealthy once none is.
func Quorum(component string, replicas []Status) Status {
	if len(replicas) == 0 {
		return NewUnhealthy(component, "no replicas")
	}

	healthy := 0
	for _, r := range replicas {
		if r.IsHealthy() {
			healthy++
		}
	}
	message := fmt.Sprintf("%d/%d healthy", healthy, len(replicas))

	var status Status
	switch {
	case healthy == len(replicas):
		status = NewHealthy(component, message)
	case healthy > 0:
		status = NewDegraded(component, message)
	default:
		status = NewUnhealthy(component, message)
	}
	status.SubStatuses = sorted(replicas)
	return status
}

func sorted(statuses []Status) []Status {
	out := slices.Clone(statuses)
	slices.SortStableFunc(out, func(a, b Status) int {
		return cmp.Compare(a.Component, b.Component)
	})
	return out
}
