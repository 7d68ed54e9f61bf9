package pipeline

import (
	"context"
	"sync"

	"golang.org/x/sync/errgroup"
	"golang.org/x/sync/semaphore"

	"forge/internal/predicate"
)

// executionLevels groups modules into dependency levels via a variant of
// Kahn's algorithm: level 0 has no dependencies, level k+1 depends only on
// modules in levels ≤ k. A detected cycle collapses the remaining,
// unassigned modules into one final level (spec.md §4.J).
func executionLevels(modules []WorkerModule) [][]WorkerModule {
	byID := make(map[string]WorkerModule, len(modules))
	inDegree := make(map[string]int, len(modules))
	for _, m := range modules {
		byID[m.ID] = m
		inDegree[m.ID] = len(m.Dependencies)
	}

	assigned := make(map[string]bool, len(modules))
	var levels [][]WorkerModule

	for len(assigned) < len(modules) {
		var level []string
		for _, m := range modules {
			if assigned[m.ID] {
				continue
			}
			ready := true
			for _, dep := range m.Dependencies {
				if !assigned[dep] {
					ready = false
					break
				}
			}
			if ready {
				level = append(level, m.ID)
			}
		}

		if len(level) == 0 {
			// Cycle: collapse everything remaining into one level.
			var remaining []WorkerModule
			for _, m := range modules {
				if !assigned[m.ID] {
					remaining = append(remaining, m)
					assigned[m.ID] = true
				}
			}
			levels = append(levels, remaining)
			break
		}

		var levelModules []WorkerModule
		for _, id := range level {
			levelModules = append(levelModules, byID[id])
			assigned[id] = true
		}
		levels = append(levels, levelModules)
	}
	return levels
}

// Run executes a SplitPlan: modules at dependency level k+1 observe the
// filesystem effects of level k (happens-before across level completion),
// modules within a level run concurrently bounded by parallelism, each
// getting up to maxRepairAttempts repair iterations (spec.md §4.J, §5).
func Run(ctx context.Context, plan SplitPlan, workspaceRoot string, maxRepairAttempts, parallelism int, generate Generator) SessionReport {
	if maxRepairAttempts <= 0 {
		maxRepairAttempts = 3
	}
	if parallelism <= 0 {
		parallelism = 3
	}

	levels := executionLevels(plan.Modules)

	var mu sync.Mutex
	passedIDs := make(map[string]bool)
	report := SessionReport{}

	for _, level := range levels {
		sem := semaphore.NewWeighted(int64(parallelism))
		g, gctx := errgroup.WithContext(ctx)

		for _, module := range level {
			module := module
			g.Go(func() error {
				if err := sem.Acquire(gctx, 1); err != nil {
					return err
				}
				defer sem.Release(1)

				mr := runModule(module, workspaceRoot, maxRepairAttempts, passedIDs, &mu, generate)

				mu.Lock()
				report.Modules = append(report.Modules, mr)
				if mr.Status == "passed" {
					passedIDs[module.ID] = true
				}
				mu.Unlock()
				return nil
			})
		}
		_ = g.Wait()
	}

	for _, mr := range report.Modules {
		report.Total++
		switch mr.Status {
		case "passed":
			report.Passed++
		case "failed":
			report.Failed++
		case "skipped":
			report.Skipped++
		}
	}
	report.AllPassed = report.Total > 0 && report.Failed == 0 && report.Skipped == 0
	return report
}

func runModule(module WorkerModule, workspaceRoot string, maxRepairAttempts int, passedIDs map[string]bool, mu *sync.Mutex, generate Generator) ModuleReport {
	mu.Lock()
	for _, dep := range module.Dependencies {
		if !passedIDs[dep] {
			mu.Unlock()
			return ModuleReport{ModuleID: module.ID, Status: "skipped", SkipReason: "dep:" + dep}
		}
	}
	mu.Unlock()

	for _, p := range module.InputContract {
		if !predicate.Evaluate(p, workspaceRoot).Passed {
			return ModuleReport{ModuleID: module.ID, Status: "skipped", SkipReason: "input:" + predicate.Describe(p)}
		}
	}

	var priorFailures []string
	for attempt := 1; attempt <= maxRepairAttempts; attempt++ {
		if _, err := RunWorker(module, workspaceRoot, priorFailures, generate); err != nil {
			priorFailures = append(priorFailures, err.Error())
			continue
		}
		outcome := Verify(module, workspaceRoot)
		if outcome.Passed {
			return ModuleReport{ModuleID: module.ID, Status: "passed", Attempts: attempt}
		}
		priorFailures = append(priorFailures, outcome.FailedPredicates...)
		if attempt == maxRepairAttempts {
			return ModuleReport{ModuleID: module.ID, Status: "failed", Attempts: attempt, FailedPredicates: outcome.FailedPredicates}
		}
	}
	return ModuleReport{ModuleID: module.ID, Status: "failed", Attempts: maxRepairAttempts}
}
