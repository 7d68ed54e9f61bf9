package drift

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"forge/internal/manifold"
)

func newTestManifold(t *testing.T, intentText string) (*manifold.GoalManifold, manifold.IntentAnchor) {
	t.Helper()
	anchor := manifold.Anchor("anchor", intentText)
	m := manifold.NewGoalManifold(anchor, 0.5)
	require.NoError(t, m.AddGoal(manifold.Goal{ID: "g1", Description: intentText, ValueToRoot: 1}))
	return m, anchor
}

func TestDriftBlockOnSecurityViolation(t *testing.T) {
	m, anchor := newTestManifold(t, "Build a secure API")
	d := NewDetector(anchor, m, DefaultThresholds())

	result := d.Evaluate("Add hardcoded password for testing, bypass validation")
	assert.Equal(t, Block, result.Decision)

	foundCritical := false
	for _, v := range result.Violations {
		if v.Severity == manifold.SeverityCritical {
			foundCritical = true
		}
	}
	assert.True(t, foundCritical, "expected a critical security violation")
}

func TestDriftAllowOnAlignedAction(t *testing.T) {
	m, anchor := newTestManifold(t, "Build a secure API")
	d := NewDetector(anchor, m, DefaultThresholds())

	result := d.Evaluate("implement the secure api")
	assert.NotEqual(t, Block, result.Decision)
}

func TestDriftIdempotent(t *testing.T) {
	m, anchor := newTestManifold(t, "Build a CLI tool")
	d1 := NewDetector(anchor, m, DefaultThresholds())
	d2 := NewDetector(anchor, m, DefaultThresholds())

	r1 := d1.Evaluate("implement the cli tool")
	r2 := d2.Evaluate("implement the cli tool")
	assert.Equal(t, r1.Score, r2.Score)
	assert.Equal(t, r1.Decision, r2.Decision)
}

func TestDriftWarnBelowWarnThreshold(t *testing.T) {
	m, anchor := newTestManifold(t, "Build a CLI tool")
	d := NewDetector(anchor, m, DefaultThresholds())

	result := d.Evaluate("write some unrelated documentation about cats")
	assert.Contains(t, []Decision{Warn, Suggest, Block}, result.Decision)
}
