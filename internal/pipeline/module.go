// Package pipeline implements the Architect / Worker / Verifier / Split
// Executor repair loop (SPEC_FULL.md §4.G-J), grounded on the teacher's
// campaign-split planner (internal/campaign/splitter.go) and its
// verification retry loop (internal/verification/loop.go).
package pipeline

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"

	"forge/internal/predicate"
)

// GuardrailSeverity mirrors the Block/Warn distinction used by guardrail
// checks inside a module (spec.md §4.G).
type GuardrailSeverity string

const (
	GuardrailBlock GuardrailSeverity = "block"
	GuardrailWarn  GuardrailSeverity = "warn"
)

// Guardrail is a local check attached to a module; CheckCommand, when
// non-empty, is run as a violation detector by the Verifier.
type Guardrail struct {
	Description  string
	Severity     GuardrailSeverity
	CheckCommand string
	CheckArgs    []string
}

// WorkerModule is one unit of work in a SplitPlan.
type WorkerModule struct {
	ID               string
	DestinationState string
	OutputContract   []predicate.Predicate
	InputContract    []predicate.Predicate
	Dependencies     []string
	AllowedPaths     []string
	ForbiddenPaths   []string
	Guardrails       []Guardrail
	ContractHash     string
}

// ComputeContractHash hashes the fields a Worker must never tamper with,
// so RunWorker can detect a mutated module and refuse it before generating
// code (spec.md §4.H).
func (m *WorkerModule) ComputeContractHash() string {
	h := sha256.New()
	fmt.Fprintf(h, "%s|%s|%d", m.ID, m.DestinationState, len(m.OutputContract))
	for _, p := range m.OutputContract {
		fmt.Fprintf(h, "|%s", predicate.Describe(p))
	}
	for _, d := range m.Dependencies {
		fmt.Fprintf(h, "|dep:%s", d)
	}
	return hex.EncodeToString(h.Sum(nil))
}

// SplitPlan is the Architect's output: an ordered set of modules plus the
// dependency chain linking them.
type SplitPlan struct {
	Intent  string
	Modules []WorkerModule
}

// ModuleReport is the per-module outcome recorded by the Split Executor.
type ModuleReport struct {
	ModuleID        string
	Status          string // "passed", "failed", "skipped"
	Attempts        int
	FailedPredicates []string
	SkipReason      string
}

// SessionReport is the Split Executor's final, aggregate output
// (spec.md §4.J, §6).
type SessionReport struct {
	Total      int
	Passed     int
	Failed     int
	Skipped    int
	AllPassed  bool
	Modules    []ModuleReport
}
