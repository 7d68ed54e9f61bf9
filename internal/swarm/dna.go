package swarm

import (
	"encoding/json"
	"fmt"
	"sort"

	"forge/internal/store"
)

// dnaEventType names the episode event_type DNA generations are persisted
// under (SPEC_FULL.md §4.K supplement).
const dnaEventType = "swarm_dna_evolution"

// DNA is the swarm's evolving track record across runs: a generation
// counter, the patterns that produced successful outcomes, and the
// personalities that performed best (spec.md §4.K step 5). Persisted via
// the Manifold Store's episodes table (SPEC_FULL.md supplement) so a
// swarm can resume its learned tendencies across sessions.
type DNA struct {
	Generation        int
	SuccessfulPatterns []string
	TopPersonalities   []PersonalityScore
}

// PersonalityScore pairs a personality profile with its observed success
// rate, keyed by the agent type it was derived for.
type PersonalityScore struct {
	AgentType   AgentType
	Personality Personality
	SuccessRate float64
}

// NewDNA starts a fresh lineage at generation 0.
func NewDNA() DNA {
	return DNA{Generation: 0}
}

// Evolve folds one run's outputs into the DNA: increments the generation,
// records successful-task descriptions as patterns, and updates the
// per-agent-type personality leaderboard.
func (d DNA) Evolve(outputs []AgentOutput, agents map[string]Agent) DNA {
	next := DNA{
		Generation:         d.Generation + 1,
		SuccessfulPatterns: append([]string{}, d.SuccessfulPatterns...),
		TopPersonalities:   append([]PersonalityScore{}, d.TopPersonalities...),
	}

	scoreByType := make(map[AgentType]*PersonalityScore)
	for _, ps := range next.TopPersonalities {
		ps := ps
		scoreByType[ps.AgentType] = &ps
	}

	for _, out := range outputs {
		agent, ok := agents[out.AgentID]
		if !ok {
			continue
		}
		if out.Success {
			next.SuccessfulPatterns = append(next.SuccessfulPatterns, out.Detail)
			if existing, ok := scoreByType[agent.Type]; ok {
				existing.SuccessRate = (existing.SuccessRate + 1.0) / 2.0
			} else {
				scoreByType[agent.Type] = &PersonalityScore{AgentType: agent.Type, Personality: agent.Personality, SuccessRate: 1.0}
			}
		} else if existing, ok := scoreByType[agent.Type]; ok {
			existing.SuccessRate = existing.SuccessRate / 2.0
		}
	}

	next.TopPersonalities = next.TopPersonalities[:0]
	for _, ps := range scoreByType {
		next.TopPersonalities = append(next.TopPersonalities, *ps)
	}
	sort.SliceStable(next.TopPersonalities, func(i, j int) bool {
		return next.TopPersonalities[i].SuccessRate > next.TopPersonalities[j].SuccessRate
	})

	if len(next.SuccessfulPatterns) > 200 {
		next.SuccessfulPatterns = next.SuccessfulPatterns[len(next.SuccessfulPatterns)-200:]
	}
	return next
}

// Persist appends this DNA generation to the Manifold Store as an episode,
// so a swarm's learned personalities and patterns survive process restarts
// (SPEC_FULL.md §4.K supplement; the spec names the concept but leaves
// persistence unspecified).
func (d DNA) Persist(st *store.ManifoldStore, swarmID string, timestampMs int64) error {
	payload, err := json.Marshal(d)
	if err != nil {
		return fmt.Errorf("swarm: marshal dna: %w", err)
	}
	return st.AppendEpisode(store.StoredEpisode{
		ID:          fmt.Sprintf("%s-dna-gen-%d", swarmID, d.Generation),
		AgentID:     swarmID,
		EventType:   dnaEventType,
		Description: fmt.Sprintf("dna evolved to generation %d", d.Generation),
		Payload:     string(payload),
		Importance:  0.3,
		TimestampMs: timestampMs,
	})
}

// LoadDNA finds the highest-generation DNA episode recorded for swarmID and
// deserializes it, or returns NewDNA() if none exists yet.
func LoadDNA(st *store.ManifoldStore, swarmID string) (DNA, error) {
	episodes, err := st.EpisodesByAgent(swarmID)
	if err != nil {
		return DNA{}, fmt.Errorf("swarm: load dna episodes: %w", err)
	}
	best := NewDNA()
	found := false
	for _, e := range episodes {
		if e.EventType != dnaEventType {
			continue
		}
		var d DNA
		if err := json.Unmarshal([]byte(e.Payload), &d); err != nil {
			continue
		}
		if !found || d.Generation > best.Generation {
			best = d
			found = true
		}
	}
	return best, nil
}
