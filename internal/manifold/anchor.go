// Package manifold implements the Goal Manifold and Intent Anchor
// (SPEC_FULL.md §4.C, §4.D), grounded on the teacher's Northstar vision
// guardian (internal/northstar/types.go, guardian.go): an immutable vision
// definition plus a DAG of goals scored for alignment.
package manifold

import (
	"crypto/sha256"
	"encoding/hex"
	"strings"
	"time"
)

// ConstraintCategory classifies an extracted constraint.
type ConstraintCategory string

const (
	ConstraintTechnical  ConstraintCategory = "technical"
	ConstraintSecurity   ConstraintCategory = "security"
	ConstraintPerformance ConstraintCategory = "performance"
	ConstraintCompliance ConstraintCategory = "compliance"
	ConstraintDomain     ConstraintCategory = "domain"
)

// Severity of a constraint violation.
type Severity string

const (
	SeverityCritical Severity = "critical"
	SeverityHigh     Severity = "high"
	SeverityMedium   Severity = "medium"
	SeverityLow      Severity = "low"
)

// PenaltyWeight returns the constraint_penalty weight for a severity
// (spec.md §4.C).
func (s Severity) PenaltyWeight() float64 {
	switch s {
	case SeverityCritical:
		return 0.5
	case SeverityHigh:
		return 0.3
	case SeverityMedium:
		return 0.1
	case SeverityLow:
		return 0.05
	default:
		return 0
	}
}

// Constraint is one extracted obligation the anchored intent imposes.
type Constraint struct {
	Category    ConstraintCategory
	Severity    Severity
	Description string
	Keywords    []string
}

// IntentAnchor is the immutable cryptographic root of the user's original
// intent (spec.md §3).
type IntentAnchor struct {
	AnchorID        string
	OriginalText    string
	IntegrityHash   string
	AnchoredAt      time.Time
	Constraints     []Constraint
	SuccessCriteria []string
}

// keywordConstraintRules drives the deterministic extractor. Each rule fires
// when its keyword appears (case-insensitively) anywhere in the intent text.
var keywordConstraintRules = []struct {
	keyword  string
	category ConstraintCategory
	severity Severity
	desc     string
}{
	{"secure", ConstraintSecurity, SeverityHigh, "intent requires security hardening"},
	{"auth", ConstraintSecurity, SeverityHigh, "intent involves authentication"},
	{"encrypt", ConstraintSecurity, SeverityHigh, "intent requires encryption"},
	{"performance", ConstraintPerformance, SeverityMedium, "intent has a performance requirement"},
	{"fast", ConstraintPerformance, SeverityLow, "intent implies a speed expectation"},
	{"compliance", ConstraintCompliance, SeverityHigh, "intent must satisfy a compliance requirement"},
	{"gdpr", ConstraintCompliance, SeverityCritical, "intent must satisfy GDPR"},
	{"rust", ConstraintTechnical, SeverityLow, "intent names Rust as the target stack"},
	{"typescript", ConstraintTechnical, SeverityLow, "intent names TypeScript as the target stack"},
	{"python", ConstraintTechnical, SeverityLow, "intent names Python as the target stack"},
	{"api", ConstraintDomain, SeverityLow, "intent is API-shaped"},
	{"cli", ConstraintDomain, SeverityLow, "intent is CLI-shaped"},
}

// Anchor runs the deterministic keyword extractor and installs default
// success criteria (spec.md §4.D).
func Anchor(anchorID, text string) IntentAnchor {
	a := IntentAnchor{
		AnchorID:     anchorID,
		OriginalText: text,
		AnchoredAt:   time.Now(),
		SuccessCriteria: []string{
			"core functionality tests pass",
		},
	}

	lower := strings.ToLower(text)
	for _, rule := range keywordConstraintRules {
		if strings.Contains(lower, rule.keyword) {
			a.Constraints = append(a.Constraints, Constraint{
				Category:    rule.category,
				Severity:    rule.severity,
				Description: rule.desc,
				Keywords:    []string{rule.keyword},
			})
		}
	}

	a.IntegrityHash = computeIntegrityHash(text, anchorID)
	return a
}

// computeIntegrityHash computes H(text ‖ anchor_id) (spec.md §3).
func computeIntegrityHash(text, anchorID string) string {
	sum := sha256.Sum256([]byte(text + "\x00" + anchorID))
	return hex.EncodeToString(sum[:])
}

// VerifyIntegrity recomputes H and compares (P1: intent integrity). Any
// mutation to text or id after anchoring is detectable in O(1).
func (a IntentAnchor) VerifyIntegrity() bool {
	return computeIntegrityHash(a.OriginalText, a.AnchorID) == a.IntegrityHash
}
