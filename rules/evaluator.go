package rules

import (
	"github.com/c360/complianceflow/ecs"
	"github.com/c360/complianceflow/errors"
)

// Evaluator applies the rule systems to a batch in a worker's store.
type Evaluator struct {
	policy *Policy
}

// NewEvaluator creates an evaluator for policy.
func NewEvaluator(policy *Policy) *Evaluator {
	if policy == nil {
		panic(errors.Invariant("Evaluator", "NewEvaluator", "nil policy"))
	}
	return &Evaluator{policy: policy}
}

// Policy returns the compiled policy.
func (e *Evaluator) Policy() *Policy {
	return e.policy
}

// Run evaluates every event in batch in place: EU-AI-Act, GDPR and
// Internal-Policy update the compliance status, then the risk assessment is
// written from the final status.
func (e *Evaluator) Run(store *ecs.Store, batch ecs.IDRange) {
	for id := batch.First; id < batch.End; id++ {
		svc := store.Service(id)
		usage := store.Usage(id)
		status := store.Status(id)

		final, risk := e.policy.Evaluate(id, svc, usage, *status)
		*status = final
		*store.Risk(id) = risk
	}
}

func checked(id ecs.ID, system System, in, out ecs.ComplianceStatus) ecs.ComplianceStatus {
	if out&in != in {
		panic(errors.Invariant("Evaluator", "Run", "event %d: %s cleared bits %08b", id, system, in&^out))
	}
	if foreign := (out &^ in) &^ system.Mask(); foreign != 0 {
		panic(errors.Invariant("Evaluator", "Run", "event %d: %s set foreign bits %08b", id, system, foreign))
	}
	return out
}
