package swarm

import (
	"context"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"
)

// AgentRunner executes one agent's assigned task and returns its output.
// Backed by an LLM-driven worker in the full pipeline; kept abstract here
// so the coordinator has no dependency on chatclient.
type AgentRunner func(ctx context.Context, agent Agent, task Task) AgentOutput

// Coordinator is the Swarm Coordinator (spec.md §4.K). The agent registry
// is a shared map protected by a read-write lock so Manager agents may
// inspect it concurrently with spawning and dispatch.
type Coordinator struct {
	mu          sync.RWMutex
	goalText    string
	agents      map[string]Agent
	maxAgents   int
	dna         DNA
	runner      AgentRunner
}

// NewCoordinator constructs a coordinator for one goal text.
func NewCoordinator(goalText string, maxAgents int, runner AgentRunner) *Coordinator {
	if maxAgents <= 0 {
		maxAgents = 10
	}
	return &Coordinator{
		goalText:  goalText,
		agents:    make(map[string]Agent),
		maxAgents: maxAgents,
		dna:       NewDNA(),
		runner:    runner,
	}
}

// SpawnAgents deterministically spawns one agent per requiredAgentType,
// capped at maxAgents. If the total exceeds 3, a Manager agent is
// additionally spawned (spec.md §4.K).
func (c *Coordinator) SpawnAgents(requiredAgentTypes []AgentType) []Agent {
	c.mu.Lock()
	defer c.mu.Unlock()

	var spawned []Agent
	for i, t := range requiredAgentTypes {
		if len(c.agents) >= c.maxAgents {
			break
		}
		agent := Agent{
			ID:          agentIDLabel(c.goalText, t, i),
			Type:        t,
			Authority:   AuthoritySenior,
			Personality: DerivePersonality(c.goalText, t),
		}
		c.agents[agent.ID] = agent
		spawned = append(spawned, agent)
	}

	if len(spawned) > 3 && len(c.agents) < c.maxAgents {
		manager := Agent{
			ID:          agentIDLabel(c.goalText, AgentManager, len(spawned)),
			Type:        AgentManager,
			Authority:   AuthoritySenior,
			Personality: DerivePersonality(c.goalText, AgentManager),
		}
		c.agents[manager.ID] = manager
		spawned = append(spawned, manager)
	}

	return spawned
}

// Agents returns a snapshot of the current agent registry.
func (c *Coordinator) Agents() map[string]Agent {
	c.mu.RLock()
	defer c.mu.RUnlock()
	out := make(map[string]Agent, len(c.agents))
	for k, v := range c.agents {
		out[k] = v
	}
	return out
}

// ExecutePlan detects and resolves conflicts among the assigned tasks,
// runs executeParallel on every task not demoted by a resolution, evolves
// SwarmDNA, and returns
// the outputs plus any resolutions applied. The whole run is wrapped in
// maxExecutionTimeSecs; cancellation propagates to every agent future
// (spec.md §4.K, §5).
func (c *Coordinator) ExecutePlan(ctx context.Context, assignments map[string]Task, maxExecutionTimeSecs int) ([]AgentOutput, []Resolution) {
	if maxExecutionTimeSecs <= 0 {
		maxExecutionTimeSecs = 300
	}
	runCtx, cancel := context.WithTimeout(ctx, time.Duration(maxExecutionTimeSecs)*time.Second)
	defer cancel()

	conflicts := DetectConflicts(assignments)
	var resolutions []Resolution
	demoted := make(map[string]bool)
	for _, conflict := range conflicts {
		res := Resolve(conflict, c.authorityOf, c.priorityOf(assignments))
		resolutions = append(resolutions, res)
		if res.Demoted != "" {
			demoted[res.Demoted] = true
		}
	}

	outputs := c.executeParallel(runCtx, assignments, demoted)

	c.mu.Lock()
	c.dna = c.dna.Evolve(outputs, c.agents)
	c.mu.Unlock()

	return outputs, resolutions
}

// executeParallel fans agents into tasks via goroutines/futures
// (golang.org/x/sync/errgroup); each agent future returns an output
// record (spec.md §4.K step 3). Demoted task/agent ids are skipped this
// round (they were serialized/deferred by conflict resolution).
func (c *Coordinator) executeParallel(ctx context.Context, assignments map[string]Task, demoted map[string]bool) []AgentOutput {
	agents := c.Agents()

	var mu sync.Mutex
	var outputs []AgentOutput
	g, gctx := errgroup.WithContext(ctx)

	for agentID, task := range assignments {
		if demoted[agentID] || demoted[task.ID] {
			continue
		}
		agent, ok := agents[agentID]
		if !ok {
			continue
		}
		agent, task := agent, task
		g.Go(func() error {
			out := c.runner(gctx, agent, task)
			mu.Lock()
			outputs = append(outputs, out)
			mu.Unlock()
			return nil
		})
	}
	_ = g.Wait()
	return outputs
}

func (c *Coordinator) authorityOf(id string) Authority {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if a, ok := c.agents[id]; ok {
		return a.Authority
	}
	return AuthorityJunior
}

func (c *Coordinator) priorityOf(assignments map[string]Task) func(string) float64 {
	return func(id string) float64 {
		if t, ok := assignments[id]; ok {
			return t.Priority
		}
		for _, t := range assignments {
			if t.ID == id {
				return t.Priority
			}
		}
		return 0
	}
}

// DNA returns the coordinator's current DNA snapshot.
func (c *Coordinator) DNA() DNA {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.dna
}
