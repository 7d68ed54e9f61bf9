package pipeline

import (
	"fmt"
	"strings"

	"forge/internal/predicate"
)

// mandatoryGuardrails are attached to every module regardless of its
// content (spec.md §4.G).
func mandatoryGuardrails() []Guardrail {
	return []Guardrail{
		{Description: "stay within module scope", Severity: GuardrailBlock},
		{Description: "output contract not satisfied", Severity: GuardrailBlock},
	}
}

// Plan is the deterministic structural planner: each root predicate
// becomes one WorkerModule, modules form a linear dependency chain
// (module i depends on module i-1), capped at maxModules.
func Plan(intent string, rootPredicates []predicate.Predicate, maxModules int) SplitPlan {
	if maxModules <= 0 {
		maxModules = 8
	}
	predicates := rootPredicates
	if len(predicates) > maxModules {
		predicates = predicates[:maxModules]
	}

	modules := make([]WorkerModule, 0, len(predicates))
	for i, p := range predicates {
		m := WorkerModule{
			ID:               fmt.Sprintf("module-%d", i+1),
			DestinationState: predicate.Describe(p),
			OutputContract:   []predicate.Predicate{p},
			Guardrails:       mandatoryGuardrails(),
			AllowedPaths:     []string{"."},
		}
		if i > 0 {
			m.Dependencies = []string{modules[i-1].ID}
			m.InputContract = modules[i-1].OutputContract
		}
		m.ContractHash = m.ComputeContractHash()
		modules = append(modules, m)
	}

	plan := SplitPlan{Intent: intent, Modules: modules}
	applyBuildPredicate(&plan, intent)
	return plan
}

// projectType is inferred by inferProjectType: a manifest among
// producedFiles (the caller's workspace snapshot) decides first, and only
// when none matches are intent keywords used; ApplyBuildPredicateForFiles
// refines it once files exist.
type projectType string

const (
	projectRust    projectType = "rust"
	projectNode    projectType = "node"
	projectPython  projectType = "python"
	projectUnknown projectType = ""
)

func inferProjectType(intent string, producedFiles []string) projectType {
	lower := strings.ToLower(intent)
	for _, f := range producedFiles {
		switch {
		case strings.HasSuffix(f, "Cargo.toml"):
			return projectRust
		case strings.HasSuffix(f, "package.json"):
			return projectNode
		case strings.HasSuffix(f, "pyproject.toml"), strings.HasSuffix(f, "requirements.txt"):
			return projectPython
		}
	}
	switch {
	case strings.Contains(lower, "rust") || strings.Contains(lower, "cargo"):
		return projectRust
	case strings.Contains(lower, "node") || strings.Contains(lower, "typescript") || strings.Contains(lower, "javascript"):
		return projectNode
	case strings.Contains(lower, "python"):
		return projectPython
	default:
		return projectUnknown
	}
}

// buildPredicateFor returns the CommandSucceeds predicate for a project
// type, or false if none is inferable (spec.md §6 build predicate
// semantics).
func buildPredicateFor(pt projectType) (predicate.Predicate, bool) {
	switch pt {
	case projectRust:
		return predicate.CommandSucceeds("cargo", []string{"build"}, 0), true
	case projectNode:
		return predicate.CommandSucceeds("npm", []string{"run", "build"}, 0), true
	case projectPython:
		return predicate.CommandSucceeds("python", []string{"-m", "py_compile", "."}, 0), true
	default:
		return predicate.Predicate{}, false
	}
}

// applyBuildPredicate appends a build predicate to the last module when
// the project type is inferable from intent keywords alone (no files yet
// at plan time).
func applyBuildPredicate(plan *SplitPlan, intent string) {
	ApplyBuildPredicateForFiles(plan, intent, nil)
}

// ApplyBuildPredicateForFiles re-runs the build-predicate inference once
// the produced file set is known (post-processing pass, spec.md §4.G),
// appending the build predicate to the last module's output contract and
// recomputing its contract hash.
func ApplyBuildPredicateForFiles(plan *SplitPlan, intent string, producedFiles []string) {
	if len(plan.Modules) == 0 {
		return
	}
	pt := inferProjectType(intent, producedFiles)
	bp, ok := buildPredicateFor(pt)
	if !ok {
		return
	}
	last := &plan.Modules[len(plan.Modules)-1]
	for _, existing := range last.OutputContract {
		if existing.Kind == bp.Kind && existing.Cmd == bp.Cmd {
			return
		}
	}
	last.OutputContract = append(last.OutputContract, bp)
	last.ContractHash = last.ComputeContractHash()
}
