package memory

import (
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
)

// Outcome captures the result of an episode's event.
type Outcome struct {
	Success     bool
	Metrics     map[string]float64
	SideEffects []string
}

// Episode is an append-only event in the episodic log (spec.md §3).
type Episode struct {
	ID         string
	AgentID    string
	EventType  string
	Description string
	Outcome    Outcome
	Importance float64
	Timestamp  time.Time
}

// Episodic is the append-only tier, indexed by agent and type, bounded by
// a configurable retention count.
type Episodic struct {
	mu        sync.RWMutex
	episodes  []Episode
	byAgent   map[string][]int
	byType    map[string][]int
	retention int
}

// NewEpisodic constructs an episodic log with the given retention bound
// (0 means unbounded).
func NewEpisodic(retention int) *Episodic {
	return &Episodic{
		byAgent:   make(map[string][]int),
		byType:    make(map[string][]int),
		retention: retention,
	}
}

// Append records a new episode, assigning a uuid if the caller left ID
// empty. Idempotent on ID: re-appending an existing id is a no-op.
func (e *Episodic) Append(ep Episode) Episode {
	e.mu.Lock()
	defer e.mu.Unlock()

	if ep.ID == "" {
		ep.ID = uuid.NewString()
	} else {
		for _, existing := range e.episodes {
			if existing.ID == ep.ID {
				return existing
			}
		}
	}
	if ep.Timestamp.IsZero() {
		ep.Timestamp = time.Now()
	}

	idx := len(e.episodes)
	e.episodes = append(e.episodes, ep)
	e.byAgent[ep.AgentID] = append(e.byAgent[ep.AgentID], idx)
	e.byType[ep.EventType] = append(e.byType[ep.EventType], idx)

	if e.retention > 0 && len(e.episodes) > e.retention {
		e.compactLocked()
	}
	return ep
}

func (e *Episodic) compactLocked() {
	drop := len(e.episodes) - e.retention
	e.episodes = e.episodes[drop:]
	e.byAgent = make(map[string][]int)
	e.byType = make(map[string][]int)
	for i, ep := range e.episodes {
		e.byAgent[ep.AgentID] = append(e.byAgent[ep.AgentID], i)
		e.byType[ep.EventType] = append(e.byType[ep.EventType], i)
	}
}

// RecentEpisodes returns the last n episodes, newest first.
func (e *Episodic) RecentEpisodes(n int) []Episode {
	e.mu.RLock()
	defer e.mu.RUnlock()
	total := len(e.episodes)
	if n > total {
		n = total
	}
	out := make([]Episode, n)
	for i := 0; i < n; i++ {
		out[i] = e.episodes[total-1-i]
	}
	return out
}

// SimilarPatterns finds episodes whose description shares a keyword with
// query (keyword intersection).
func (e *Episodic) SimilarPatterns(query string) []Episode {
	e.mu.RLock()
	defer e.mu.RUnlock()
	queryWords := tokenSet(query)
	var out []Episode
	for _, ep := range e.episodes {
		if keywordsIntersect(queryWords, tokenSet(ep.Description)) {
			out = append(out, ep)
		}
	}
	return out
}

// RelatedDecisions returns episodes of type "decision" related to query.
func (e *Episodic) RelatedDecisions(query string) []Episode {
	return e.filterByTypeAndQuery("decision", query)
}

// LearnedLessons returns episodes of type "lesson" related to query.
func (e *Episodic) LearnedLessons(query string) []Episode {
	return e.filterByTypeAndQuery("lesson", query)
}

func (e *Episodic) filterByTypeAndQuery(eventType, query string) []Episode {
	e.mu.RLock()
	defer e.mu.RUnlock()
	queryWords := tokenSet(query)
	var out []Episode
	for _, idx := range e.byType[eventType] {
		ep := e.episodes[idx]
		if query == "" || keywordsIntersect(queryWords, tokenSet(ep.Description)) {
			out = append(out, ep)
		}
	}
	return out
}

// ByAgent returns all episodes attributed to agentID.
func (e *Episodic) ByAgent(agentID string) []Episode {
	e.mu.RLock()
	defer e.mu.RUnlock()
	var out []Episode
	for _, idx := range e.byAgent[agentID] {
		out = append(out, e.episodes[idx])
	}
	return out
}

func tokenSet(s string) map[string]bool {
	words := strings.FieldsFunc(strings.ToLower(s), func(r rune) bool {
		return !(r >= 'a' && r <= 'z' || r >= '0' && r <= '9')
	})
	set := make(map[string]bool, len(words))
	for _, w := range words {
		set[w] = true
	}
	return set
}

func keywordsIntersect(a, b map[string]bool) bool {
	for w := range a {
		if b[w] {
			return true
		}
	}
	return false
}
