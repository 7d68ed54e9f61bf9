package consensus

import "sort"

type tally struct {
	approve int
	reject  int
	other   int
}

// Evaluate tallies per-dimension approval, detects disputes, and applies
// the decision table (spec.md §4.L). The min_validators gate is checked
// first: if fewer than minValidators distinct validators voted at all,
// the round escalates regardless of the computed overall score, since an
// overall score from too few votes is not a reliable signal.
func Evaluate(votes []Vote, pool *Pool, minValidators int) Result {
	distinctValidators := make(map[string]bool)
	byDimension := make(map[ValidationDimension]*tally)
	for _, v := range votes {
		distinctValidators[v.Validator] = true
		t, ok := byDimension[v.Dimension]
		if !ok {
			t = &tally{}
			byDimension[v.Dimension] = t
		}
		switch v.Value {
		case VoteApprove:
			t.approve++
		case VoteReject:
			t.reject++
		default:
			t.other++
		}
	}

	if len(distinctValidators) < minValidators {
		return Result{Decision: DecisionEscalateToHuman, VotesSeen: len(votes)}
	}

	weights := make(map[string]float64)
	pool.mu.RLock()
	for name, v := range pool.validators {
		weights[name] = v.Weight
	}
	pool.mu.RUnlock()

	var weightedSum, weightTotal float64
	dimensionApproval := make(map[ValidationDimension]float64)
	for dim, t := range byDimension {
		total := t.approve + t.reject + t.other
		if total == 0 {
			continue
		}
		approval := float64(t.approve) / float64(total)
		dimensionApproval[dim] = approval
	}

	for _, v := range votes {
		w := weights[v.Validator]
		if w == 0 {
			w = 1.0 / float64(maxInt(len(pool.validators), 1))
		}
		weightTotal += w
		if v.Value == VoteApprove {
			weightedSum += w
		}
	}
	var overall float64
	if weightTotal > 0 {
		overall = weightedSum / weightTotal
	}

	var disputes []Dispute
	for dim, t := range byDimension {
		if t.approve > 0 && t.reject > 0 {
			disputes = append(disputes, Dispute{
				Dimension: dim,
				Severity:  classifyDisputeSeverity(t.approve, t.reject),
				Approve:   t.approve,
				Reject:    t.reject,
			})
		}
	}
	sort.SliceStable(disputes, func(i, j int) bool { return disputes[i].Dimension < disputes[j].Dimension })

	hasCritical := false
	for _, d := range disputes {
		if d.Severity == DisputeCritical {
			hasCritical = true
		}
	}

	result := Result{Overall: overall, Disputes: disputes, VotesSeen: len(votes), DimensionApproval: dimensionApproval}
	switch {
	case overall >= 0.80 && !hasCritical:
		result.Decision = DecisionApprove
	case hasCritical:
		result.Decision = DecisionEscalateToHuman
	case overall < 0.30:
		result.Decision = DecisionReject
	default:
		result.Decision = DecisionRequestRevision
	}
	return result
}

// classifyDisputeSeverity classifies a dimension's approve/reject split:
// an equal split is Critical, a split with both sides over 30% of the
// total is Major, otherwise Minor (spec.md §4.L step 5).
func classifyDisputeSeverity(approve, reject int) DisputeSeverity {
	total := approve + reject
	if total == 0 {
		return DisputeMinor
	}
	if approve == reject {
		return DisputeCritical
	}
	approveShare := float64(approve) / float64(total)
	rejectShare := float64(reject) / float64(total)
	if approveShare > 0.30 && rejectShare > 0.30 {
		return DisputeMajor
	}
	return DisputeMinor
}

func maxInt(a, b int) int {
	if a > b {
		return a
	}
	return b
}
