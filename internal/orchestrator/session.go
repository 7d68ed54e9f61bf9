// Package orchestrator wires the session: Intent -> Anchor -> Manifold ->
// Drift Detector (evaluated once, on the intent text; Block aborts the run)
// -> Architect (plan) -> Split Executor (per module: Worker then Verifier,
// repair on failure), with the Manifold Store recording the plan and each
// module outcome. Individual module actions are not passed through the
// Drift Detector, and no Swarm or Consensus Validator step runs. Grounded on the teacher's top-level OODA run loop
// (internal/core/tdd_loop.go, cmd/nerd/cmd_instruction.go) generalized
// from a single instruction turn to a full decompose-execute session.
package orchestrator

import (
	"context"
	"fmt"
	"time"

	"forge/internal/config"
	"forge/internal/drift"
	"forge/internal/manifold"
	"forge/internal/pipeline"
	"forge/internal/predicate"
	"forge/internal/store"
)

// Session wires every component together for one end-to-end run.
type Session struct {
	cfg       config.Config
	store     *store.ManifoldStore
	generate  pipeline.Generator
	agentID   string
}

// NewSession constructs a session over an already-open store.
func NewSession(cfg config.Config, st *store.ManifoldStore, generate pipeline.Generator) *Session {
	return &Session{cfg: cfg, store: st, generate: generate, agentID: "architect"}
}

// Report is the CLI-facing session result (spec.md §6 `run` entry point).
type Report struct {
	TotalModules   int
	Passed         int
	Failed         int
	RepairAttempts int
	DurationSecs   float64
	Success        bool
	Modules        []pipeline.ModuleReport
	Workspace      string
}

// Run drives intentText to a verifiable artifact at workspaceRoot
// (spec.md §6, §4.G-J). rootPredicates seeds the Architect's structural
// plan; in the full system these come from an external decomposition
// front-end, kept as a caller-supplied parameter here since that front-end
// is explicitly out of scope (spec.md §1).
func (s *Session) Run(ctx context.Context, intentText string, rootPredicates []predicate.Predicate, workspaceRoot string) (Report, error) {
	start := nowFunc()

	anchor := manifold.Anchor(anchorID(intentText), intentText)
	gm := manifold.NewGoalManifold(anchor, 0.5)
	if err := gm.AddGoal(manifold.Goal{
		ID:              "root",
		Description:     intentText,
		ValueToRoot:     1.0,
		SuccessCriteria: rootPredicates,
	}); err != nil {
		return Report{}, fmt.Errorf("orchestrator: seed root goal: %w", err)
	}

	detector := drift.NewDetector(anchor, gm, drift.Thresholds{
		BlockThreshold:   s.cfg.Drift.BlockThreshold,
		WarnThreshold:    s.cfg.Drift.WarnThreshold,
		MaxPathDeviation: s.cfg.Drift.MaxPathDeviation,
		HistoryLimit:     s.cfg.Drift.HistoryLimit,
	})

	decision := detector.Evaluate(intentText)
	if decision.Decision == drift.Block {
		return Report{Workspace: workspaceRoot}, fmt.Errorf("orchestrator: intent blocked by drift detector: score=%.2f", decision.Score)
	}

	plan := pipeline.Plan(intentText, rootPredicates, s.cfg.Pipeline.MaxModules)

	if s.store != nil {
		payload := fmt.Sprintf(`{"intent":%q,"modules":%d}`, intentText, len(plan.Modules))
		if _, err := s.store.SaveManifold(payload, nowMs(), s.agentID); err != nil {
			return Report{}, fmt.Errorf("orchestrator: persist manifold: %w", err)
		}
	}

	sessionReport := pipeline.Run(ctx, plan, workspaceRoot, s.cfg.Pipeline.MaxRepairAttempts, s.cfg.Pipeline.ParallelismPerLevel, s.generate)

	repairAttempts := 0
	for _, m := range sessionReport.Modules {
		repairAttempts += m.Attempts
	}

	if s.store != nil {
		for i, m := range sessionReport.Modules {
			ep := store.StoredEpisode{
				ID:          fmt.Sprintf("%s-module-%d", s.agentID, i),
				AgentID:     s.agentID,
				EventType:   "module_outcome",
				Description: fmt.Sprintf("module %s: %s", m.ModuleID, m.Status),
				Importance:  0.5,
				TimestampMs: nowMs(),
			}
			_ = s.store.AppendEpisode(ep)
		}
	}

	report := Report{
		TotalModules:   sessionReport.Total,
		Passed:         sessionReport.Passed,
		Failed:         sessionReport.Failed,
		RepairAttempts: repairAttempts,
		DurationSecs:   elapsedSecs(start),
		Success:        sessionReport.AllPassed,
		Modules:        sessionReport.Modules,
		Workspace:      workspaceRoot,
	}
	return report, nil
}

func anchorID(intentText string) string {
	return fmt.Sprintf("anchor-%d", len(intentText))
}

// nowFunc/nowMs/elapsedSecs are thin wrappers over time.Now and time.Since.
func nowFunc() time.Time { return time.Now() }
func nowMs() int64       { return time.Now().UnixMilli() }
func elapsedSecs(start time.Time) float64 { return time.Since(start).Seconds() }
