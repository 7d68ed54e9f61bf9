package manifold

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"sort"
	"sync"

	"forge/internal/forgeerr"
	"forge/internal/logging"
)

// InvariantSeverity classifies how serious a violated invariant is.
type InvariantSeverity string

const (
	InvariantCritical InvariantSeverity = "critical"
	InvariantError    InvariantSeverity = "error"
	InvariantWarning  InvariantSeverity = "warning"
)

// Violation is one invariant failure found by ValidateInvariants.
type Violation struct {
	Invariant string
	Severity  InvariantSeverity
	Detail    string
}

// InvariantCheck inspects the manifold's current state and reports any
// violations of one named invariant.
type InvariantCheck func(m *GoalManifold) []Violation

// Invariant pairs a named check with the severity of its failure.
type Invariant struct {
	Name     string
	Severity InvariantSeverity
	Check    InvariantCheck
}

// GoalManifold holds a goal DAG and its invariants (spec.md §3, §4.C). It is
// created once per session from an Intent and mutated only via AddGoal /
// UpdateStatus; its integrity hash is recomputed on every mutation.
type GoalManifold struct {
	mu sync.RWMutex

	RootIntent    IntentAnchor
	goals         map[string]*Goal
	order         []string // insertion order, for stable iteration/hash
	Invariants    []Invariant
	Sensitivity   float64
	IntegrityHash string

	logic *LogicStore // optional Mangle cross-check, see logic.go
}

// NewGoalManifold creates a manifold rooted at the given anchored intent,
// installing the two structural invariants spec.md requires.
func NewGoalManifold(root IntentAnchor, sensitivity float64) *GoalManifold {
	m := &GoalManifold{
		RootIntent:  root,
		goals:       make(map[string]*Goal),
		Sensitivity: sensitivity,
		logic:       NewLogicStore(),
	}
	m.Invariants = []Invariant{
		{Name: "acyclic", Severity: InvariantCritical, Check: checkAcyclic},
		{Name: "value_to_root_budget", Severity: InvariantError, Check: checkValueBudget},
	}
	m.rehash()
	return m
}

// AddGoal inserts a goal, rejecting it with InvariantViolation if doing so
// would create a dependency cycle (spec.md §4.C, P2).
func (m *GoalManifold) AddGoal(g Goal) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if g.ID == "" {
		return forgeerr.New(forgeerr.InvalidInput, "AddGoal", fmt.Errorf("goal id required"))
	}
	if _, exists := m.goals[g.ID]; exists {
		return forgeerr.New(forgeerr.InvalidInput, "AddGoal", fmt.Errorf("goal %s already exists", g.ID))
	}

	trial := m.cloneGoals()
	trial[g.ID] = &g
	if cycleAt := findCycle(trial); cycleAt != "" {
		return forgeerr.New(forgeerr.InvariantViolation, "AddGoal",
			fmt.Errorf("adding goal %s creates a dependency cycle at %s", g.ID, cycleAt))
	}

	m.goals[g.ID] = &g
	m.order = append(m.order, g.ID)
	if m.logic != nil {
		m.logic.AddGoal(g)
	}
	m.rehash()
	logging.Get(logging.CategoryManifold).Info("goal added: %s", g.ID)
	return nil
}

// UpdateStatus transitions a goal's status and rehashes the manifold.
func (m *GoalManifold) UpdateStatus(id string, status Status) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	g, ok := m.goals[id]
	if !ok {
		return forgeerr.New(forgeerr.InvalidInput, "UpdateStatus", fmt.Errorf("unknown goal %s", id))
	}
	g.Status = status
	m.rehash()
	return nil
}

// Goal returns a copy of a goal by id.
func (m *GoalManifold) Goal(id string) (Goal, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	g, ok := m.goals[id]
	if !ok {
		return Goal{}, false
	}
	return *g, true
}

// ActiveGoals returns all goals not yet Completed or Failed, in insertion
// order — the Σ_{g∈active(M)} set used by the alignment formula.
func (m *GoalManifold) ActiveGoals() []Goal {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var out []Goal
	for _, id := range m.order {
		g := m.goals[id]
		if g.Status != StatusCompleted && g.Status != StatusFailed {
			out = append(out, *g)
		}
	}
	return out
}

// TopologicalSort returns goal ids respecting dependency order, or an error
// if the graph is cyclic.
func (m *GoalManifold) TopologicalSort() ([]string, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	if cycleAt := findCycle(m.goals); cycleAt != "" {
		return nil, forgeerr.New(forgeerr.InvariantViolation, "TopologicalSort",
			fmt.Errorf("cycle detected at %s", cycleAt))
	}
	return kahnSort(m.goals), nil
}

// ValidateInvariants runs every registered invariant against current state.
func (m *GoalManifold) ValidateInvariants() []Violation {
	m.mu.RLock()
	defer m.mu.RUnlock()

	var violations []Violation
	for _, inv := range m.Invariants {
		violations = append(violations, inv.Check(m)...)
	}
	if m.logic != nil {
		violations = append(violations, m.logic.CrossCheckAcyclic()...)
	}
	return violations
}

func (m *GoalManifold) cloneGoals() map[string]*Goal {
	clone := make(map[string]*Goal, len(m.goals))
	for k, v := range m.goals {
		cp := *v
		clone[k] = &cp
	}
	return clone
}

// rehash recomputes IntegrityHash deterministically from goal ids, their
// dependency sets, and statuses — any mutation changes the hash (P2).
func (m *GoalManifold) rehash() {
	ids := make([]string, 0, len(m.goals))
	for id := range m.goals {
		ids = append(ids, id)
	}
	sort.Strings(ids)

	h := sha256.New()
	h.Write([]byte(m.RootIntent.AnchorID))
	for _, id := range ids {
		g := m.goals[id]
		fmt.Fprintf(h, "%s|%s|%s|", g.ID, g.Status, g.ParentID)
		deps := append([]string(nil), g.Dependencies...)
		sort.Strings(deps)
		for _, d := range deps {
			fmt.Fprintf(h, "%s,", d)
		}
	}
	m.IntegrityHash = hex.EncodeToString(h.Sum(nil))
}

// findCycle returns the id of a goal participating in a cycle, or "" if the
// graph (keyed by Dependencies) is acyclic.
func findCycle(goals map[string]*Goal) string {
	const (
		white = 0
		gray  = 1
		black = 2
	)
	color := make(map[string]int, len(goals))
	var cycleNode string

	var visit func(id string) bool
	visit = func(id string) bool {
		color[id] = gray
		g, ok := goals[id]
		if ok {
			for _, dep := range g.Dependencies {
				switch color[dep] {
				case gray:
					cycleNode = dep
					return true
				case white:
					if visit(dep) {
						return true
					}
				}
			}
		}
		color[id] = black
		return false
	}

	ids := make([]string, 0, len(goals))
	for id := range goals {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	for _, id := range ids {
		if color[id] == white {
			if visit(id) {
				return cycleNode
			}
		}
	}
	return ""
}

// kahnSort runs Kahn's algorithm over Dependencies edges (dep must run
// before the goal that declares it).
func kahnSort(goals map[string]*Goal) []string {
	indegree := make(map[string]int, len(goals))
	dependents := make(map[string][]string, len(goals))
	for id := range goals {
		indegree[id] = 0
	}
	for id, g := range goals {
		for _, dep := range g.Dependencies {
			indegree[id]++
			dependents[dep] = append(dependents[dep], id)
		}
	}

	var queue []string
	for id, deg := range indegree {
		if deg == 0 {
			queue = append(queue, id)
		}
	}
	sort.Strings(queue)

	var order []string
	for len(queue) > 0 {
		sort.Strings(queue)
		next := queue[0]
		queue = queue[1:]
		order = append(order, next)
		for _, dep := range dependents[next] {
			indegree[dep]--
			if indegree[dep] == 0 {
				queue = append(queue, dep)
			}
		}
	}
	return order
}

// checkAcyclic is the built-in acyclicity invariant.
func checkAcyclic(m *GoalManifold) []Violation {
	if cycleAt := findCycle(m.goals); cycleAt != "" {
		return []Violation{{Invariant: "acyclic", Severity: InvariantCritical, Detail: "cycle at " + cycleAt}}
	}
	return nil
}

// checkValueBudget enforces that each goal's children's value_to_root sums
// to no more than the parent's own value_to_root (spec.md §3).
func checkValueBudget(m *GoalManifold) []Violation {
	sums := make(map[string]float64)
	for _, g := range m.goals {
		if g.ParentID != "" {
			sums[g.ParentID] += g.ValueToRoot
		}
	}
	var violations []Violation
	for parentID, sum := range sums {
		parent, ok := m.goals[parentID]
		if !ok {
			continue
		}
		if sum > parent.ValueToRoot+1e-9 {
			violations = append(violations, Violation{
				Invariant: "value_to_root_budget",
				Severity:  InvariantError,
				Detail:    fmt.Sprintf("children of %s sum to %.3f > parent value %.3f", parentID, sum, parent.ValueToRoot),
			})
		}
	}
	return violations
}
