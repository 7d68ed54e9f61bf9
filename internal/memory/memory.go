package memory

import (
	"sort"
	"strings"
)

// DistributedMemory composes the three tiers and implements the unified
// retrieval contract (spec.md §4.F). Cross-tier queries always acquire
// locks in the fixed order working -> episodic -> semantic to avoid
// deadlock; each tier guards itself, so this package only needs to call
// them in that order.
type DistributedMemory struct {
	Working  *Working
	Episodic *Episodic
	Semantic *Semantic
}

// NewDistributedMemory wires the three tiers together.
func NewDistributedMemory(episodicRetention int) *DistributedMemory {
	return &DistributedMemory{
		Working:  NewWorking(),
		Episodic: NewEpisodic(episodicRetention),
		Semantic: NewSemantic(),
	}
}

// ContextItem is one unit of merged, scored, deduplicated context.
type ContextItem struct {
	ID       string
	Tier     string
	Content  string
	Score    float64
	Category string // "critical" or "verbose" after compression
}

const (
	workingWeight = 1.5
	episodicScoreWeight    = 0.8
	episodicRecencyWeight  = 0.2
	semanticScoreWeight    = 0.6
)

var criticalKeywords = []string{"decision", "rationale", "error", "learning", "success", "goal", "progress"}

// RetrieveContext merges across tiers with per-tier weighting, deduplicates
// by item id, and returns at most limit items sorted by score descending.
// working -> episodic -> semantic lock order is observed throughout.
func (d *DistributedMemory) RetrieveContext(query string, limit int) []ContextItem {
	seen := make(map[string]bool)
	var items []ContextItem

	for _, g := range d.Working.Goals() {
		id := "working:goal:" + g.ID
		if seen[id] {
			continue
		}
		seen[id] = true
		items = append(items, ContextItem{ID: id, Tier: "working", Content: g.ID, Score: workingWeight * g.Priority})
	}
	for i, a := range d.Working.RecentActions() {
		id := "working:action:" + a.Description
		if seen[id] {
			continue
		}
		seen[id] = true
		recency := 1.0 - float64(i)/float64(maxRecentActions)
		items = append(items, ContextItem{ID: id, Tier: "working", Content: a.Description, Score: workingWeight * recency})
	}

	for i, ep := range d.Episodic.SimilarPatterns(query) {
		id := "episodic:" + ep.ID
		if seen[id] {
			continue
		}
		seen[id] = true
		recency := 1.0 / float64(i+1)
		score := episodicScoreWeight*ep.Importance + episodicRecencyWeight*recency
		items = append(items, ContextItem{ID: id, Tier: "episodic", Content: ep.Description, Score: score})
	}

	for _, p := range d.Semantic.FindPatterns(query) {
		id := "semantic:" + p.Name
		if seen[id] {
			continue
		}
		seen[id] = true
		score := semanticScoreWeight * p.SuccessRate
		items = append(items, ContextItem{ID: id, Tier: "semantic", Content: p.Name, Score: score})
	}

	sort.SliceStable(items, func(i, j int) bool { return items[i].Score > items[j].Score })
	if limit > 0 && len(items) > limit {
		items = items[:limit]
	}
	return items
}

// CompressedContext groups context for a token budget: critical items kept
// verbatim, verbose items aggregated per tier with counts and top-3 by
// score (spec.md §4.F).
type CompressedContext struct {
	Critical []ContextItem
	Verbose  map[string]VerboseSummary
}

// VerboseSummary aggregates the non-critical items of one tier.
type VerboseSummary struct {
	Count int
	Top   []ContextItem
}

// Compress splits items into critical (keyword match) and verbose
// (aggregated per tier, top 3 by score).
func Compress(items []ContextItem) CompressedContext {
	out := CompressedContext{Verbose: make(map[string]VerboseSummary)}
	byTier := make(map[string][]ContextItem)

	for _, item := range items {
		if isCritical(item.Content) {
			item.Category = "critical"
			out.Critical = append(out.Critical, item)
			continue
		}
		item.Category = "verbose"
		byTier[item.Tier] = append(byTier[item.Tier], item)
	}

	for tier, group := range byTier {
		sort.SliceStable(group, func(i, j int) bool { return group[i].Score > group[j].Score })
		top := group
		if len(top) > 3 {
			top = top[:3]
		}
		out.Verbose[tier] = VerboseSummary{Count: len(group), Top: top}
	}
	return out
}

func isCritical(content string) bool {
	lower := strings.ToLower(content)
	for _, kw := range criticalKeywords {
		if strings.Contains(lower, kw) {
			return true
		}
	}
	return false
}
