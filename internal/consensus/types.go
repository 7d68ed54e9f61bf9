// Package consensus implements the Consensus Validator (SPEC_FULL.md
// §4.L): a registered pool of validators voting on proposals across fixed
// dimensions, with dispute detection and a threshold-based decision table,
// grounded on the teacher's review-finding aggregation
// (internal/store/local_review.go) generalized from single-reviewer
// findings to multi-validator weighted voting.
package consensus

// ValidationDimension is one axis validators can vote on (spec.md §4.L).
type ValidationDimension string

const (
	DimArchitecturalAlignment ValidationDimension = "architectural_alignment"
	DimSecurityPosture        ValidationDimension = "security_posture"
	DimLogicCorrectness       ValidationDimension = "logic_correctness"
	DimPerformanceImpact      ValidationDimension = "performance_impact"
	DimIntentPreservation     ValidationDimension = "intent_preservation"
	DimTestability            ValidationDimension = "testability"
	DimMaintainability        ValidationDimension = "maintainability"
)

// ProposalType classifies the kind of change under review.
type ProposalType string

const (
	ProposalCodeChange            ProposalType = "code_change"
	ProposalArchitectureDecision  ProposalType = "architecture_decision"
	ProposalSecurityConfiguration ProposalType = "security_configuration"
	ProposalDependencyAddition    ProposalType = "dependency_addition"
	ProposalGoalModification      ProposalType = "goal_modification"
	ProposalInvariantRelaxation   ProposalType = "invariant_relaxation"
)

// requiredDimensions is the fixed table mapping proposal type to the
// dimensions that must be voted on (spec.md §4.L step 1).
var requiredDimensions = map[ProposalType][]ValidationDimension{
	ProposalCodeChange:            {DimLogicCorrectness, DimTestability, DimMaintainability},
	ProposalArchitectureDecision:  {DimArchitecturalAlignment, DimMaintainability, DimPerformanceImpact},
	ProposalSecurityConfiguration: {DimSecurityPosture, DimArchitecturalAlignment},
	ProposalDependencyAddition:    {DimSecurityPosture, DimMaintainability},
	ProposalGoalModification:      {DimIntentPreservation, DimArchitecturalAlignment},
	ProposalInvariantRelaxation:   {DimIntentPreservation, DimSecurityPosture, DimArchitecturalAlignment},
}

// RequiredDimensions returns the fixed dimension set for a proposal type.
func RequiredDimensions(pt ProposalType) []ValidationDimension {
	return requiredDimensions[pt]
}

// Proposal is the change under review.
type Proposal struct {
	ID   string
	Type ProposalType
	Text string
}

// Validator is a registered pool member.
type Validator struct {
	Name      string
	Expertise []ValidationDimension
	Weight    float64 // [0,1]
}

// VoteValue is one validator's decision on one dimension.
type VoteValue string

const (
	VoteApprove        VoteValue = "approve"
	VoteReject          VoteValue = "reject"
	VoteRequestChanges VoteValue = "request_changes"
	VoteAbstain        VoteValue = "abstain"
)

// Vote is one validator's vote on one dimension of one proposal.
type Vote struct {
	Validator string
	Dimension ValidationDimension
	Value     VoteValue
}

// DisputeSeverity classifies how contested a dimension's vote split is.
type DisputeSeverity string

const (
	DisputeCritical DisputeSeverity = "critical"
	DisputeMajor    DisputeSeverity = "major"
	DisputeMinor    DisputeSeverity = "minor"
)

// Dispute records a dimension with both approves and rejects.
type Dispute struct {
	Dimension ValidationDimension
	Severity  DisputeSeverity
	Approve   int
	Reject    int
}

// Decision is the final consensus outcome.
type Decision string

const (
	DecisionApprove         Decision = "approve"
	DecisionEscalateToHuman Decision = "escalate_to_human"
	DecisionReject          Decision = "reject"
	DecisionRequestRevision Decision = "request_revision"
)

// Result is the aggregate outcome of one consensus round.
type Result struct {
	Overall           float64
	Disputes          []Dispute
	Decision          Decision
	VotesSeen         int
	DimensionApproval map[ValidationDimension]float64
}
