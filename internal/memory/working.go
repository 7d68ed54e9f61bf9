// Package memory implements the three-tier Distributed Memory
// (SPEC_FULL.md §4.F): Working, Episodic, and Semantic, grounded on the
// teacher's tiered local stores (internal/store/local_knowledge.go,
// internal/store/local_review.go) and its token-budget compressor
// (internal/context/compressor.go).
package memory

import (
	"sort"
	"sync"
	"time"
)

// WorkingGoal is one of up to 7 active goals tracked by priority.
type WorkingGoal struct {
	ID       string
	Priority float64
}

// Action is a recent action recorded in working memory.
type Action struct {
	Description string
	At          time.Time
}

const (
	maxActiveGoals = 7
	maxRecentActions = 10
)

// Working is the O(1) read/write tier: active goals, recent actions, and a
// shared key-value scratch space plus attention focus.
type Working struct {
	mu             sync.RWMutex
	goals          []WorkingGoal
	recentActions  []Action
	state          map[string]interface{}
	attentionFocus string
}

// NewWorking constructs an empty working-memory tier.
func NewWorking() *Working {
	return &Working{state: make(map[string]interface{})}
}

// SetGoal inserts or updates a goal's priority, evicting the lowest-priority
// goal on overflow past maxActiveGoals.
func (w *Working) SetGoal(id string, priority float64) {
	w.mu.Lock()
	defer w.mu.Unlock()

	for i, g := range w.goals {
		if g.ID == id {
			w.goals[i].Priority = priority
			w.sortGoalsLocked()
			return
		}
	}

	w.goals = append(w.goals, WorkingGoal{ID: id, Priority: priority})
	w.sortGoalsLocked()
	if len(w.goals) > maxActiveGoals {
		w.goals = w.goals[:maxActiveGoals]
	}
}

func (w *Working) sortGoalsLocked() {
	sort.SliceStable(w.goals, func(i, j int) bool { return w.goals[i].Priority > w.goals[j].Priority })
}

// Goals returns the active goals, highest priority first.
func (w *Working) Goals() []WorkingGoal {
	w.mu.RLock()
	defer w.mu.RUnlock()
	out := make([]WorkingGoal, len(w.goals))
	copy(out, w.goals)
	return out
}

// RecordAction appends to the last-10 action ring.
func (w *Working) RecordAction(description string) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.recentActions = append(w.recentActions, Action{Description: description, At: time.Now()})
	if len(w.recentActions) > maxRecentActions {
		w.recentActions = w.recentActions[len(w.recentActions)-maxRecentActions:]
	}
}

// RecentActions returns the last-10 actions, oldest first.
func (w *Working) RecentActions() []Action {
	w.mu.RLock()
	defer w.mu.RUnlock()
	out := make([]Action, len(w.recentActions))
	copy(out, w.recentActions)
	return out
}

// SetState writes to the shared key-value state.
func (w *Working) SetState(key string, value interface{}) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.state[key] = value
}

// GetState reads from the shared key-value state.
func (w *Working) GetState(key string) (interface{}, bool) {
	w.mu.RLock()
	defer w.mu.RUnlock()
	v, ok := w.state[key]
	return v, ok
}

// SetAttentionFocus records what the session is currently focused on.
func (w *Working) SetAttentionFocus(focus string) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.attentionFocus = focus
}

// AttentionFocus returns the current attention focus.
func (w *Working) AttentionFocus() string {
	w.mu.RLock()
	defer w.mu.RUnlock()
	return w.attentionFocus
}
