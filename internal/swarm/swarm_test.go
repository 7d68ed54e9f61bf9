package swarm

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"forge/internal/store"
)

func TestSwarmIDAndAgentIDDeterministic(t *testing.T) {
	id1 := SwarmID("build an api")
	id2 := SwarmID("build an api")
	assert.Equal(t, id1, id2)
	assert.Len(t, id1, 32) // 16 bytes hex-encoded

	a1 := AgentID("build an api", AgentWorker, 0)
	a2 := AgentID("build an api", AgentWorker, 0)
	assert.Equal(t, a1, a2)

	a3 := AgentID("build an api", AgentWorker, 1)
	assert.NotEqual(t, a1, a3)
}

func TestDerivePersonalityDeterministic(t *testing.T) {
	p1 := DerivePersonality("goal text", AgentArchitect)
	p2 := DerivePersonality("goal text", AgentArchitect)
	assert.Equal(t, p1, p2)
}

func TestSpawnAgentsAddsManagerAboveThree(t *testing.T) {
	c := NewCoordinator("build something big", 10, nil)
	spawned := c.SpawnAgents([]AgentType{AgentArchitect, AgentWorker, AgentVerifier, AgentTesting})

	assert.Len(t, spawned, 5) // 4 requested + 1 manager
	foundManager := false
	for _, a := range spawned {
		if a.Type == AgentManager {
			foundManager = true
		}
	}
	assert.True(t, foundManager)
}

func TestSpawnAgentsCapsAtMaxAgents(t *testing.T) {
	c := NewCoordinator("goal", 2, nil)
	spawned := c.SpawnAgents([]AgentType{AgentArchitect, AgentWorker, AgentVerifier})
	assert.LessOrEqual(t, len(spawned), 2)
}

func TestDetectResourceConflict(t *testing.T) {
	assignments := map[string]Task{
		"agent-1": {ID: "t1", Description: "edit main.go to add logging"},
		"agent-2": {ID: "t2", Description: "refactor main.go error handling"},
	}
	conflicts := DetectConflicts(assignments)
	found := false
	for _, c := range conflicts {
		if c.Kind == ConflictResource {
			found = true
		}
	}
	assert.True(t, found)
}

func TestDetectGoalConflict(t *testing.T) {
	assignments := map[string]Task{
		"agent-1": {ID: "shared-task"},
		"agent-2": {ID: "shared-task"},
	}
	conflicts := DetectConflicts(assignments)
	found := false
	for _, c := range conflicts {
		if c.Kind == ConflictGoal {
			found = true
		}
	}
	assert.True(t, found)
}

func TestDetectDependencyCycle(t *testing.T) {
	assignments := map[string]Task{
		"agent-1": {ID: "a", Dependencies: []string{"b"}},
		"agent-2": {ID: "b", Dependencies: []string{"a"}},
	}
	conflicts := DetectConflicts(assignments)
	found := false
	for _, c := range conflicts {
		if c.Kind == ConflictDependencyCycle {
			found = true
		}
	}
	assert.True(t, found)
}

func TestResolveResourceConflictSerializes(t *testing.T) {
	c := Conflict{Kind: ConflictResource, Tasks: []string{"t1", "t2"}}
	priorities := map[string]float64{"t1": 0.8, "t2": 0.2}
	res := Resolve(c, func(string) Authority { return AuthoritySenior }, func(id string) float64 { return priorities[id] })
	assert.Equal(t, ResolutionSerialize, res.Strategy)
	assert.Equal(t, "t2", res.Demoted)
}

func TestExecutePlanRunsAgentsAndEvolvesDNA(t *testing.T) {
	runner := func(ctx context.Context, agent Agent, task Task) AgentOutput {
		return AgentOutput{AgentID: agent.ID, TaskID: task.ID, Success: true, Detail: "wrote file"}
	}
	c := NewCoordinator("build a cli", 10, runner)
	spawned := c.SpawnAgents([]AgentType{AgentWorker})
	require := spawned[0]

	assignments := map[string]Task{require.ID: {ID: "t1", RequiredAgentType: AgentWorker, Priority: 0.5}}
	outputs, _ := c.ExecutePlan(context.Background(), assignments, 5)

	assert.Len(t, outputs, 1)
	assert.True(t, outputs[0].Success)
	assert.Equal(t, 1, c.DNA().Generation)
}

func TestPredictNextConfidence(t *testing.T) {
	tasks := []Task{
		{RequiredAgentType: AgentWorker},
		{RequiredAgentType: AgentWorker},
		{RequiredAgentType: AgentTesting},
	}
	pred := PredictNext(tasks)
	assert.Equal(t, AgentWorker, pred.NextType)
	assert.InDelta(t, 2.0/3.0, pred.Confidence, 0.001)
}

func TestDNAPersistAndLoadRoundTrips(t *testing.T) {
	st, err := store.Open(filepath.Join(t.TempDir(), "swarm.db"))
	require.NoError(t, err)
	defer st.Close()

	d := NewDNA().Evolve([]AgentOutput{
		{AgentID: "a1", TaskID: "t1", Success: true, Detail: "wrote handler.go"},
	}, map[string]Agent{
		"a1": {ID: "a1", Type: AgentWorker, Personality: Personality{Caution: 0.4}},
	})

	require.NoError(t, d.Persist(st, "swarm-1", 1000))

	loaded, err := LoadDNA(st, "swarm-1")
	require.NoError(t, err)
	assert.Equal(t, d.Generation, loaded.Generation)
	assert.Equal(t, d.SuccessfulPatterns, loaded.SuccessfulPatterns)
}

func TestLoadDNAReturnsFreshWhenNoneStored(t *testing.T) {
	st, err := store.Open(filepath.Join(t.TempDir(), "swarm.db"))
	require.NoError(t, err)
	defer st.Close()

	d, err := LoadDNA(st, "never-seen-swarm")
	require.NoError(t, err)
	assert.Equal(t, 0, d.Generation)
}

func TestReassignQueuedPicksLeastLoaded(t *testing.T) {
	agents := map[string]Agent{
		"a1": {ID: "a1", Type: AgentWorker, Stats: AgentStats{TasksCompleted: 5}},
		"a2": {ID: "a2", Type: AgentWorker, Stats: AgentStats{TasksCompleted: 1}},
	}
	queued := []Task{{ID: "t1", RequiredAgentType: AgentWorker}}
	assignment := ReassignQueued(queued, agents)
	assert.Equal(t, "a2", assignment["t1"])
}
