package manifold

import (
	"strings"
)

// implementationVerbs boosts contribution when an action directly
// implements rather than merely discusses a goal (spec.md §4.C).
var implementationVerbs = []string{"implement", "create", "build", "add", "write"}

// antiGoalMarkers is the fixed catalogue the Open Questions section of
// spec.md leaves implementation-defined; magnitude is fixed at -35 on the
// 0-100 scale as the spec requires. The catalogue and the "apply once, flat"
// mechanism both follow original_source's compute_alignment_for_suggestion
// (crates/sentinel-agent-native/src/llm_integration.rs).
var antiGoalMarkers = []string{
	"ignore requirement", "skip tests", "temporary hack", "disable validation", "hardcode secret",
}

const antiGoalMarkerPenalty = 35.0

// securityBypassPenalty is constraint_penalty's "+0.8 for explicit security
// bypass patterns" term (spec.md §4.C), grounded on original_source's
// assess_constraint_violations (crates/sentinel-core/src/intent_preservation/mod.rs):
// a flat 0.8 applied whenever the anchor carries a Security constraint and
// the action contains both "skip" and "auth".
const securityBypassPenalty = 0.8

// contribution estimates how much action A serves goal g via keyword
// overlap, boosted for direct-implementation verbs.
func contribution(action string, g Goal) float64 {
	actionWords := tokenize(action)
	goalWords := tokenize(g.Description)
	if len(goalWords) == 0 {
		return 0
	}

	overlap := 0
	goalSet := make(map[string]bool, len(goalWords))
	for _, w := range goalWords {
		goalSet[w] = true
	}
	for _, w := range actionWords {
		if goalSet[w] {
			overlap++
		}
	}
	score := float64(overlap) / float64(len(goalSet))

	lowerAction := strings.ToLower(action)
	for _, verb := range implementationVerbs {
		if strings.Contains(lowerAction, verb) {
			score *= 1.5
			break
		}
	}
	if score > 1 {
		score = 1
	}
	return score
}

// constraintPenalty sums severity-weighted penalties for every constraint an
// action appears to violate (the action contains "violat" and one of the
// constraint's own keywords), plus the distinct security-bypass term, clamped to [0,1].
func constraintPenalty(action string, constraints []Constraint) float64 {
	lower := strings.ToLower(action)
	penalty := 0.0
	hasSecurityConstraint := false
	for _, c := range constraints {
		if c.Category == ConstraintSecurity {
			hasSecurityConstraint = true
		}
		for _, kw := range c.Keywords {
			if strings.Contains(lower, "violat") && strings.Contains(lower, kw) {
				penalty += c.Severity.PenaltyWeight()
				break
			}
		}
	}
	if hasSecurityConstraint && strings.Contains(lower, "skip") && strings.Contains(lower, "auth") {
		penalty += securityBypassPenalty
	}
	if penalty > 1 {
		penalty = 1
	}
	return penalty
}

// applyAntiGoalMarkers applies the flat, single-fire -35 penalty on the
// final 0-100 score when the action contains any anti-goal marker. This is
// deliberately a separate, additive mechanism from constraintPenalty: it
// fires at most once regardless of how many markers match.
func applyAntiGoalMarkers(action string, score float64) float64 {
	lower := strings.ToLower(action)
	for _, marker := range antiGoalMarkers {
		if strings.Contains(lower, marker) {
			return score - antiGoalMarkerPenalty
		}
	}
	return score
}

// Score computes the alignment score(A, M) formula from spec.md §4.C,
// clamped to [0,100].
func (m *GoalManifold) Score(action string) float64 {
	m.mu.RLock()
	defer m.mu.RUnlock()

	var total float64
	for _, id := range m.order {
		g := m.goals[id]
		if g.Status == StatusCompleted || g.Status == StatusFailed {
			continue
		}
		total += contribution(action, *g) * g.ValueToRoot
	}
	total *= 100
	penalty := constraintPenalty(action, m.RootIntent.Constraints)
	total *= (1 - penalty)
	total = applyAntiGoalMarkers(action, total)

	if total < 0 {
		total = 0
	}
	if total > 100 {
		total = 100
	}
	return total
}

func tokenize(s string) []string {
	fields := strings.FieldsFunc(strings.ToLower(s), func(r rune) bool {
		return !(r >= 'a' && r <= 'z' || r >= '0' && r <= '9')
	})
	return fields
}
