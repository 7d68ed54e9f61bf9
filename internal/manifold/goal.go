package manifold

import (
	"forge/internal/predicate"
)

// Status is a Goal's lifecycle state (spec.md §3).
type Status string

const (
	StatusPending    Status = "pending"
	StatusReady      Status = "ready"
	StatusInProgress Status = "in_progress"
	StatusCompleted  Status = "completed"
	StatusFailed     Status = "failed"
)

// ComplexityEstimate models the Normal(mu, sigma) complexity estimate
// spec.md attaches to each Goal.
type ComplexityEstimate struct {
	Mu    float64
	Sigma float64
}

// Goal is one node of the hierarchical goal DAG (spec.md §3).
type Goal struct {
	ID                string
	Description        string
	ParentID           string
	Status             Status
	SuccessCriteria    []predicate.Predicate
	Dependencies       []string
	ComplexityEstimate ComplexityEstimate
	ValueToRoot        float64
}
