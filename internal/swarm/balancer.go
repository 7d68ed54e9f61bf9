package swarm

import (
	"context"
	"time"
)

// LoadBalancer reassigns queued tasks to the least-loaded eligible agent
// every 5s (spec.md §4.K).
type LoadBalancer struct {
	interval time.Duration
}

// NewLoadBalancer constructs a balancer with the spec default interval.
func NewLoadBalancer() *LoadBalancer {
	return &LoadBalancer{interval: 5 * time.Second}
}

// Load returns the number of tasks an agent has completed or failed, plus
// one if it has a current task, used as the "least loaded" ranking key.
func Load(agent Agent) int {
	if agent.CurrentTask != nil {
		return agent.Stats.TasksCompleted + agent.Stats.TasksFailed + 1
	}
	return agent.Stats.TasksCompleted + agent.Stats.TasksFailed
}

// ReassignQueued picks, for each queued task, the least-loaded agent among
// those whose type matches task.RequiredAgentType.
func ReassignQueued(queued []Task, agents map[string]Agent) map[string]string {
	assignment := make(map[string]string, len(queued))
	for _, task := range queued {
		var best string
		bestLoad := -1
		for id, agent := range agents {
			if agent.Type != task.RequiredAgentType {
				continue
			}
			l := Load(agent)
			if bestLoad == -1 || l < bestLoad {
				best, bestLoad = id, l
			}
		}
		if best != "" {
			assignment[task.ID] = best
		}
	}
	return assignment
}

// Run starts the periodic reassignment loop; it returns when ctx is
// cancelled.
func (b *LoadBalancer) Run(ctx context.Context, queue func() []Task, agents func() map[string]Agent, apply func(map[string]string)) {
	ticker := time.NewTicker(b.interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			apply(ReassignQueued(queue(), agents()))
		}
	}
}

// Predictor inspects in-progress tasks every 1s and pre-spawns an agent
// for the predicted next task type if confidence exceeds threshold
// (spec.md §4.K).
type Predictor struct {
	interval  time.Duration
	threshold float64
}

// NewPredictor constructs a predictor with the spec default interval and
// the given confidence threshold.
func NewPredictor(threshold float64) *Predictor {
	return &Predictor{interval: 1 * time.Second, threshold: threshold}
}

// Prediction is a forecasted next task type with a confidence score.
type Prediction struct {
	NextType   AgentType
	Confidence float64
}

// PredictNext counts in-progress task types and forecasts the most common
// type continuing, with confidence = its share of the in-progress set.
func PredictNext(inProgress []Task) Prediction {
	if len(inProgress) == 0 {
		return Prediction{}
	}
	counts := make(map[AgentType]int)
	for _, t := range inProgress {
		counts[t.RequiredAgentType]++
	}
	var best AgentType
	bestCount := 0
	for t, n := range counts {
		if n > bestCount {
			best, bestCount = t, n
		}
	}
	return Prediction{NextType: best, Confidence: float64(bestCount) / float64(len(inProgress))}
}

// Run starts the periodic prediction loop, invoking preSpawn whenever the
// predicted confidence exceeds the predictor's threshold.
func (p *Predictor) Run(ctx context.Context, inProgress func() []Task, preSpawn func(AgentType)) {
	ticker := time.NewTicker(p.interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			pred := PredictNext(inProgress())
			if pred.Confidence > p.threshold {
				preSpawn(pred.NextType)
			}
		}
	}
}
