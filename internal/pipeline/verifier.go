package pipeline

import (
	"os/exec"

	"forge/internal/predicate"
)

// GuardrailViolation is one guardrail whose check_command reported a
// violation.
type GuardrailViolation struct {
	Description string
	Severity    GuardrailSeverity
}

// VerificationOutcome is the Verifier's result for one module
// (spec.md §4.I).
type VerificationOutcome struct {
	Passed           bool
	FailedPredicates []string
	Violations       []GuardrailViolation
}

// Verify runs each output_contract predicate through the Predicate
// Evaluator and each guardrail's check_command as a violation detector
// (exit status 0 means the violation is present; any other outcome counts
// as compliant). passed = all predicates pass AND no Block violations. Pure function of
// (module, filesystem snapshot at workspaceRoot).
func Verify(m WorkerModule, workspaceRoot string) VerificationOutcome {
	outcome := VerificationOutcome{Passed: true}

	for _, p := range m.OutputContract {
		result := predicate.Evaluate(p, workspaceRoot)
		if !result.Passed {
			outcome.Passed = false
			outcome.FailedPredicates = append(outcome.FailedPredicates, result.Description)
		}
	}

	for _, g := range m.Guardrails {
		if g.CheckCommand == "" {
			continue
		}
		cmd := exec.Command(g.CheckCommand, g.CheckArgs...)
		cmd.Dir = workspaceRoot
		if err := cmd.Run(); err == nil {
			outcome.Violations = append(outcome.Violations, GuardrailViolation{
				Description: g.Description,
				Severity:    g.Severity,
			})
			if g.Severity == GuardrailBlock {
				outcome.Passed = false
			}
		}
	}

	return outcome
}
