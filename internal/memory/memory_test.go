package memory

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestWorkingGoalEvictionAndOrdering(t *testing.T) {
	w := NewWorking()
	for i := 0; i < maxActiveGoals+2; i++ {
		w.SetGoal(string(rune('a'+i)), float64(i))
	}
	goals := w.Goals()
	assert.Len(t, goals, maxActiveGoals)
	assert.True(t, goals[0].Priority > goals[len(goals)-1].Priority)
}

func TestWorkingRecentActionsBounded(t *testing.T) {
	w := NewWorking()
	for i := 0; i < maxRecentActions+3; i++ {
		w.RecordAction("action")
	}
	assert.Len(t, w.RecentActions(), maxRecentActions)
}

func TestEpisodicAppendIdempotent(t *testing.T) {
	e := NewEpisodic(0)
	ep := e.Append(Episode{ID: "fixed", Description: "did a thing"})
	again := e.Append(Episode{ID: "fixed", Description: "different text"})
	assert.Equal(t, ep.Description, again.Description)
	assert.Len(t, e.RecentEpisodes(10), 1)
}

func TestEpisodicRetentionCompaction(t *testing.T) {
	e := NewEpisodic(3)
	for i := 0; i < 5; i++ {
		e.Append(Episode{AgentID: "a1", EventType: "decision", Description: "step"})
	}
	assert.Len(t, e.RecentEpisodes(10), 3)
	assert.Len(t, e.ByAgent("a1"), 3)
}

func TestEpisodicSimilarPatternsKeywordMatch(t *testing.T) {
	e := NewEpisodic(0)
	e.Append(Episode{Description: "refactored the auth middleware"})
	e.Append(Episode{Description: "unrelated cooking recipe"})
	matches := e.SimilarPatterns("auth middleware bug")
	assert.Len(t, matches, 1)
}

func TestSemanticFindPatternsSortedTop5(t *testing.T) {
	s := NewSemantic()
	for i := 0; i < 7; i++ {
		s.AddPattern(Pattern{
			Name:          string(rune('a' + i)),
			Applicability: []string{"api design"},
			SuccessRate:   float64(i),
		})
	}
	matches := s.FindPatterns("api design work")
	assert.Len(t, matches, 5)
	assert.Equal(t, "g", matches[0].Name)
}

func TestRetrieveContextMergesTiersAndDedupes(t *testing.T) {
	d := NewDistributedMemory(0)
	d.Working.SetGoal("g1", 1.0)
	d.Episodic.Append(Episode{Description: "api design decision", Importance: 0.9})
	d.Semantic.AddPattern(Pattern{Name: "retry-with-backoff", Applicability: []string{"api design"}, SuccessRate: 0.8})

	items := d.RetrieveContext("api design", 10)
	assert.NotEmpty(t, items)
	for i := 1; i < len(items); i++ {
		assert.GreaterOrEqual(t, items[i-1].Score, items[i].Score)
	}
}

func TestRetrieveContextRespectsLimit(t *testing.T) {
	d := NewDistributedMemory(0)
	for i := 0; i < 5; i++ {
		d.Working.SetGoal(string(rune('a'+i)), float64(i))
	}
	items := d.RetrieveContext("", 2)
	assert.Len(t, items, 2)
}

func TestCompressSplitsCriticalAndVerbose(t *testing.T) {
	items := []ContextItem{
		{ID: "1", Tier: "episodic", Content: "critical decision made", Score: 1},
		{ID: "2", Tier: "episodic", Content: "minor log line one", Score: 0.5},
		{ID: "3", Tier: "episodic", Content: "minor log line two", Score: 0.4},
	}
	c := Compress(items)
	assert.Len(t, c.Critical, 1)
	assert.Equal(t, 2, c.Verbose["episodic"].Count)
}
