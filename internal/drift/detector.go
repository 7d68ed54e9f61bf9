// Package drift implements the Drift Detector (SPEC_FULL.md §4.E), grounded
// on the teacher's Northstar Guardian alignment-check machinery
// (internal/northstar/guardian.go): a bounded history of scores, trend
// classification, and a fixed decision table.
package drift

import (
	"math"
	"regexp"
	"strings"

	"forge/internal/manifold"
)

// Decision is the outcome of evaluating one action.
type Decision string

const (
	Allow    Decision = "allow"
	Warn     Decision = "warn"
	Suggest  Decision = "suggest"
	Block    Decision = "block"
	Escalate Decision = "escalate"
)

// Trend classifies the last 5 snapshots' score delta.
type Trend string

const (
	TrendImproving Trend = "improving"
	TrendStable    Trend = "stable"
	TrendDegrading Trend = "degrading"
	TrendCritical  Trend = "critical"
)

// Snapshot is one scored action in the bounded history.
type Snapshot struct {
	Action string
	Score  float64
}

// Violation describes a detected constraint or scope-creep issue.
type Violation struct {
	Description string
	Severity    manifold.Severity
}

// Thresholds configures the decision table (spec.md §4.E defaults).
type Thresholds struct {
	BlockThreshold   float64
	WarnThreshold    float64
	MaxPathDeviation float64
	HistoryLimit     int
}

// DefaultThresholds returns the spec's defaults.
func DefaultThresholds() Thresholds {
	return Thresholds{BlockThreshold: 50, WarnThreshold: 80, MaxPathDeviation: 0.3, HistoryLimit: 100}
}

// Result is the full outcome of evaluating one action.
type Result struct {
	Score      float64
	Decision   Decision
	Trend      Trend
	Deviation  float64
	Violations []Violation
}

// Detector holds an anchor, a manifold reference, and bounded score history.
type Detector struct {
	anchor     manifold.IntentAnchor
	m          *manifold.GoalManifold
	thresholds Thresholds
	history    []Snapshot
}

// NewDetector constructs a Detector over a manifold and its anchor.
func NewDetector(anchor manifold.IntentAnchor, m *manifold.GoalManifold, t Thresholds) *Detector {
	return &Detector{anchor: anchor, m: m, thresholds: t}
}

var constraintViolationPattern = regexp.MustCompile(`(?i)\b(skip|disable|bypass|ignore|hardcod\w*)\b`)

// securityBypassTargetPattern names the security-sensitive surface an
// explicit bypass pattern acts on. An action that pairs a bypass verb with
// one of these targets is an explicit security bypass: it is recorded as a
// Critical violation of every Security constraint, whether or not the action
// contains that constraint's own keyword, and regardless of the constraint's
// declared severity.
var securityBypassTargetPattern = regexp.MustCompile(`(?i)\b(auth\w*|password|secret|valid\w*)\b`)

func isExplicitSecurityBypass(action string) bool {
	return constraintViolationPattern.MatchString(action) && securityBypassTargetPattern.MatchString(action)
}

// Evaluate scores an action description, classifies its trend, and returns
// a decision. Calling Evaluate again with identical history+anchor+action
// returns the identical Result (idempotent, spec.md §4.E contract).
func (d *Detector) Evaluate(action string) Result {
	score := d.m.Score(action)

	violations := d.detectViolations(action)
	trend := d.classifyTrend(score)
	deviation := d.pathDeviation()

	decision := d.decide(score, trend, deviation, violations)

	d.history = append(d.history, Snapshot{Action: action, Score: score})
	if len(d.history) > d.thresholds.HistoryLimit {
		d.history = d.history[len(d.history)-d.thresholds.HistoryLimit:]
	}

	return Result{Score: score, Decision: decision, Trend: trend, Deviation: deviation, Violations: violations}
}

// detectViolations checks per-constraint keyword matches (and explicit
// security bypasses against Security constraints) in the action
// and flags scope creep when contribution to every active goal is weak and
// overlap with the original intent is also weak.
func (d *Detector) detectViolations(action string) []Violation {
	var violations []Violation
	lower := strings.ToLower(action)

	for _, c := range d.anchor.Constraints {
		if constraintViolationPattern.MatchString(action) {
			if c.Category == manifold.ConstraintSecurity && isExplicitSecurityBypass(action) {
				violations = append(violations, Violation{
					Description: "possible violation of constraint: " + c.Description,
					Severity:    manifold.SeverityCritical,
				})
				continue
			}
			for _, kw := range c.Keywords {
				if strings.Contains(lower, kw) {
					violations = append(violations, Violation{
						Description: "possible violation of constraint: " + c.Description,
						Severity:    c.Severity,
					})
					break
				}
			}
		}
	}

	if d.isScopeCreep(action) {
		violations = append(violations, Violation{
			Description: "action shows low contribution to active goals and low overlap with original intent (scope creep)",
			Severity:    manifold.SeverityMedium,
		})
	}
	return violations
}

func (d *Detector) isScopeCreep(action string) bool {
	goals := d.m.ActiveGoals()
	if len(goals) == 0 {
		return false
	}
	maxContribution := 0.0
	for _, g := range goals {
		c := contributionScore(action, g.Description)
		if c > maxContribution {
			maxContribution = c
		}
	}
	overlap := keywordOverlap(action, d.anchor.OriginalText)
	return maxContribution < 0.2 && overlap < 0.3
}

func (d *Detector) classifyTrend(newScore float64) Trend {
	n := len(d.history)
	window := 5
	if n < window {
		return TrendStable
	}
	prior := d.history[n-window].Score
	delta := newScore - prior
	switch {
	case delta > 10:
		return TrendImproving
	case delta < -20:
		return TrendCritical
	case delta < -10:
		return TrendDegrading
	default:
		return TrendStable
	}
}

// pathDeviation = clamp(sqrt(var(scores)/10000), 0, 1) over recent history.
func (d *Detector) pathDeviation() float64 {
	if len(d.history) < 2 {
		return 0
	}
	scores := make([]float64, 0, len(d.history))
	for _, s := range d.history {
		scores = append(scores, s.Score)
	}
	mean := 0.0
	for _, s := range scores {
		mean += s
	}
	mean /= float64(len(scores))

	variance := 0.0
	for _, s := range scores {
		variance += (s - mean) * (s - mean)
	}
	variance /= float64(len(scores))

	dev := math.Sqrt(variance / 10000)
	return clamp01(dev)
}

// decide applies the first-match decision table (spec.md §4.E).
func (d *Detector) decide(score float64, trend Trend, deviation float64, violations []Violation) Decision {
	for _, v := range violations {
		if v.Severity == manifold.SeverityCritical {
			return Block
		}
	}
	if score < d.thresholds.BlockThreshold {
		return Block
	}
	if trend == TrendCritical && score < 60 {
		return Escalate
	}
	if score < d.thresholds.WarnThreshold || deviation > d.thresholds.MaxPathDeviation {
		return Warn
	}
	if score < 90 || len(violations) > 0 {
		return Suggest
	}
	return Allow
}

func clamp01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}

func contributionScore(action, goalDescription string) float64 {
	return keywordOverlap(action, goalDescription)
}

func keywordOverlap(a, b string) float64 {
	aw := tokenize(a)
	bw := tokenize(b)
	if len(bw) == 0 {
		return 0
	}
	set := make(map[string]bool, len(bw))
	for _, w := range bw {
		set[w] = true
	}
	overlap := 0
	for _, w := range aw {
		if set[w] {
			overlap++
		}
	}
	return float64(overlap) / float64(len(set))
}

func tokenize(s string) []string {
	return strings.FieldsFunc(strings.ToLower(s), func(r rune) bool {
		return !(r >= 'a' && r <= 'z' || r >= '0' && r <= '9')
	})
}
