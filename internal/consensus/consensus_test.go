package consensus

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestRequiredDimensionsForCodeChange(t *testing.T) {
	dims := RequiredDimensions(ProposalCodeChange)
	assert.Contains(t, dims, DimLogicCorrectness)
	assert.Contains(t, dims, DimTestability)
}

func TestPoolEligibleFiltersOnDimension(t *testing.T) {
	pool := NewPool()
	pool.Register(Validator{Name: "sec", Expertise: []ValidationDimension{DimSecurityPosture}, Weight: 1})
	pool.Register(Validator{Name: "logic", Expertise: []ValidationDimension{DimLogicCorrectness}, Weight: 1})

	eligible := pool.Eligible([]ValidationDimension{DimLogicCorrectness, DimTestability})
	assert.Len(t, eligible, 1)
	assert.Equal(t, "logic", eligible[0].Name)
}

func TestDispatchVotesCollectsFromEligibleValidators(t *testing.T) {
	pool := NewPool()
	pool.Register(Validator{Name: "v1", Expertise: []ValidationDimension{DimLogicCorrectness}, Weight: 1})
	pool.Register(Validator{Name: "v2", Expertise: []ValidationDimension{DimTestability}, Weight: 1})

	proposal := Proposal{ID: "p1", Type: ProposalCodeChange}
	cast := func(ctx context.Context, v Validator, p Proposal, dims []ValidationDimension) []Vote {
		var out []Vote
		for _, d := range dims {
			out = append(out, Vote{Validator: v.Name, Dimension: d, Value: VoteApprove})
		}
		return out
	}

	votes := DispatchVotes(context.Background(), pool, proposal, 1, cast)
	assert.NotEmpty(t, votes)
}

func TestEvaluateApprovesHighConsensus(t *testing.T) {
	pool := NewPool()
	pool.Register(Validator{Name: "v1", Weight: 1})
	pool.Register(Validator{Name: "v2", Weight: 1})

	votes := []Vote{
		{Validator: "v1", Dimension: DimLogicCorrectness, Value: VoteApprove},
		{Validator: "v2", Dimension: DimLogicCorrectness, Value: VoteApprove},
	}
	result := Evaluate(votes, pool, 1)
	assert.Equal(t, DecisionApprove, result.Decision)
	assert.Empty(t, result.Disputes)
}

func TestEvaluateEscalatesOnCriticalDispute(t *testing.T) {
	pool := NewPool()
	pool.Register(Validator{Name: "v1", Weight: 1})
	pool.Register(Validator{Name: "v2", Weight: 1})

	votes := []Vote{
		{Validator: "v1", Dimension: DimSecurityPosture, Value: VoteApprove},
		{Validator: "v2", Dimension: DimSecurityPosture, Value: VoteReject},
	}
	result := Evaluate(votes, pool, 1)
	assert.Equal(t, DecisionEscalateToHuman, result.Decision)
	assert.Len(t, result.Disputes, 1)
	assert.Equal(t, DisputeCritical, result.Disputes[0].Severity)
}

func TestEvaluateRejectsLowConsensus(t *testing.T) {
	pool := NewPool()
	pool.Register(Validator{Name: "v1", Weight: 1})
	pool.Register(Validator{Name: "v2", Weight: 1})
	pool.Register(Validator{Name: "v3", Weight: 1})

	votes := []Vote{
		{Validator: "v1", Dimension: DimLogicCorrectness, Value: VoteReject},
		{Validator: "v2", Dimension: DimLogicCorrectness, Value: VoteReject},
		{Validator: "v3", Dimension: DimLogicCorrectness, Value: VoteReject},
	}
	result := Evaluate(votes, pool, 1)
	assert.Equal(t, DecisionReject, result.Decision)
}

func TestEvaluateEscalatesBelowMinValidators(t *testing.T) {
	pool := NewPool()
	pool.Register(Validator{Name: "v1", Weight: 1})

	votes := []Vote{
		{Validator: "v1", Dimension: DimLogicCorrectness, Value: VoteApprove},
	}
	result := Evaluate(votes, pool, 3)
	assert.Equal(t, DecisionEscalateToHuman, result.Decision)
}

func TestEvaluateExposesPerDimensionApproval(t *testing.T) {
	pool := NewPool()
	pool.Register(Validator{Name: "v1", Weight: 1})
	pool.Register(Validator{Name: "v2", Weight: 1})

	votes := []Vote{
		{Validator: "v1", Dimension: DimLogicCorrectness, Value: VoteApprove},
		{Validator: "v2", Dimension: DimLogicCorrectness, Value: VoteReject},
		{Validator: "v1", Dimension: DimTestability, Value: VoteApprove},
		{Validator: "v2", Dimension: DimTestability, Value: VoteApprove},
	}
	result := Evaluate(votes, pool, 1)
	assert.InDelta(t, 0.5, result.DimensionApproval[DimLogicCorrectness], 0.001)
	assert.InDelta(t, 1.0, result.DimensionApproval[DimTestability], 0.001)
}

func TestClassifyDisputeSeverityEqualSplitIsCritical(t *testing.T) {
	assert.Equal(t, DisputeCritical, classifyDisputeSeverity(2, 2))
}

func TestClassifyDisputeSeverityLopsidedIsMinor(t *testing.T) {
	assert.Equal(t, DisputeMinor, classifyDisputeSeverity(9, 1))
}
