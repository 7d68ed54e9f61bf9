package swarm

import (
	"regexp"
)

// ConflictKind tags the Conflict variant (spec.md §3).
type ConflictKind string

const (
	ConflictResource        ConflictKind = "resource"
	ConflictGoal            ConflictKind = "goal"
	ConflictDependencyCycle ConflictKind = "dependency_cycle"
	ConflictAntiDependency  ConflictKind = "anti_dependency"
)

// Conflict is a detected scheduling conflict between tasks/agents.
type Conflict struct {
	Kind     ConflictKind
	Resource string
	GoalID   string
	Cycle    []string
	Tasks    []string
}

var filePathPattern = regexp.MustCompile(`[\w./-]+\.(go|rs|py|js|ts|tsx|jsx|java|c|cpp|h|hpp|yaml|yml|json|toml|md)\b`)

// DetectConflicts runs the four detectors from spec.md §4.K over the
// currently scheduled tasks and their assigned agents.
func DetectConflicts(assignments map[string]Task) []Conflict {
	var conflicts []Conflict
	conflicts = append(conflicts, detectResourceConflicts(assignments)...)
	conflicts = append(conflicts, detectGoalConflicts(assignments)...)
	conflicts = append(conflicts, detectDependencyCycles(assignments)...)
	conflicts = append(conflicts, detectAntiDependencyViolations(assignments)...)
	return conflicts
}

// detectResourceConflicts flags two tasks that mention the same file path
// in their descriptions (regex on extensions).
func detectResourceConflicts(assignments map[string]Task) []Conflict {
	pathsSeen := make(map[string][]string)
	for id, t := range assignments {
		for _, path := range filePathPattern.FindAllString(t.Description, -1) {
			pathsSeen[path] = append(pathsSeen[path], id)
		}
	}
	var out []Conflict
	for path, ids := range pathsSeen {
		if len(ids) > 1 {
			out = append(out, Conflict{Kind: ConflictResource, Resource: path, Tasks: ids})
		}
	}
	return out
}

// detectGoalConflicts flags two agents assigned the identical task_id.
func detectGoalConflicts(assignments map[string]Task) []Conflict {
	taskIDCount := make(map[string][]string)
	for agentID, t := range assignments {
		taskIDCount[t.ID] = append(taskIDCount[t.ID], agentID)
	}
	var out []Conflict
	for taskID, agents := range taskIDCount {
		if len(agents) > 1 {
			out = append(out, Conflict{Kind: ConflictGoal, GoalID: taskID, Tasks: agents})
		}
	}
	return out
}

// detectDependencyCycles runs a DFS over task dependency edges and returns
// the path of nodes in the recursion stack for any cycle found.
func detectDependencyCycles(assignments map[string]Task) []Conflict {
	byID := make(map[string]Task)
	for _, t := range assignments {
		byID[t.ID] = t
	}

	const (
		white = 0
		gray  = 1
		black = 2
	)
	color := make(map[string]int)
	var stack []string
	var cycle []string

	var visit func(id string) bool
	visit = func(id string) bool {
		color[id] = gray
		stack = append(stack, id)
		for _, dep := range byID[id].Dependencies {
			switch color[dep] {
			case gray:
				// Found the cycle: slice from dep's position in stack.
				for i, s := range stack {
					if s == dep {
						cycle = append(cycle, stack[i:]...)
						return true
					}
				}
				return true
			case white:
				if visit(dep) {
					return true
				}
			}
		}
		stack = stack[:len(stack)-1]
		color[id] = black
		return false
	}

	for id := range byID {
		if color[id] == white {
			if visit(id) {
				return []Conflict{{Kind: ConflictDependencyCycle, Cycle: cycle}}
			}
		}
	}
	return nil
}

// detectAntiDependencyViolations flags two tasks with mutual
// anti_dependencies scheduled in the same level (i.e. both present in
// assignments simultaneously).
func detectAntiDependencyViolations(assignments map[string]Task) []Conflict {
	var out []Conflict
	tasks := make([]Task, 0, len(assignments))
	for _, t := range assignments {
		tasks = append(tasks, t)
	}
	for i := 0; i < len(tasks); i++ {
		for j := i + 1; j < len(tasks); j++ {
			if hasAntiDependency(tasks[i], tasks[j]) && hasAntiDependency(tasks[j], tasks[i]) {
				out = append(out, Conflict{Kind: ConflictAntiDependency, Tasks: []string{tasks[i].ID, tasks[j].ID}})
			}
		}
	}
	return out
}

func hasAntiDependency(a, b Task) bool {
	for _, id := range a.AntiDependencies {
		if id == b.ID {
			return true
		}
	}
	return false
}

// ResolutionStrategy names the strategy applied to resolve one conflict.
type ResolutionStrategy string

const (
	ResolutionEscalate  ResolutionStrategy = "escalate"
	ResolutionSerialize ResolutionStrategy = "serialize"
	ResolutionAuthority ResolutionStrategy = "authority"
	ResolutionDeferral  ResolutionStrategy = "deferral"
)

// Resolution is the outcome of applying the first-applicable strategy to
// one conflict (spec.md §4.K).
type Resolution struct {
	Conflict Conflict
	Strategy ResolutionStrategy
	// Demoted is the task/agent id demoted to a later level (Serialize),
	// deferred under authority (Authority), or dropped to break a cycle
	// (Deferral).
	Demoted string
}

// Resolve applies the first-applicable resolution strategy:
// critical disputes escalate; Resource conflicts serialize (demote one
// to a later level); Goal conflicts resolve by authority (highest wins,
// others deferred); DependencyCycle resolves by deferral (drop the
// lowest-priority edge).
func Resolve(c Conflict, authorityOf func(taskOrAgentID string) Authority, priorityOf func(taskID string) float64) Resolution {
	switch c.Kind {
	case ConflictResource:
		demoted := lowestPriority(c.Tasks, priorityOf)
		return Resolution{Conflict: c, Strategy: ResolutionSerialize, Demoted: demoted}
	case ConflictGoal:
		demoted := lowestAuthority(c.Tasks, authorityOf)
		return Resolution{Conflict: c, Strategy: ResolutionAuthority, Demoted: demoted}
	case ConflictDependencyCycle:
		demoted := lowestPriority(c.Cycle, priorityOf)
		return Resolution{Conflict: c, Strategy: ResolutionDeferral, Demoted: demoted}
	case ConflictAntiDependency:
		return Resolution{Conflict: c, Strategy: ResolutionEscalate}
	default:
		return Resolution{Conflict: c, Strategy: ResolutionEscalate}
	}
}

func lowestPriority(ids []string, priorityOf func(string) float64) string {
	if len(ids) == 0 {
		return ""
	}
	best := ids[0]
	bestP := priorityOf(best)
	for _, id := range ids[1:] {
		if p := priorityOf(id); p < bestP {
			best, bestP = id, p
		}
	}
	return best
}

func lowestAuthority(ids []string, authorityOf func(string) Authority) string {
	if len(ids) == 0 {
		return ""
	}
	best := ids[0]
	bestA := authorityOf(best)
	for _, id := range ids[1:] {
		if a := authorityOf(id); a < bestA {
			best, bestA = id, a
		}
	}
	return best
}
