package pipeline

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"forge/internal/predicate"
)

func TestPlanBuildsLinearDependencyChain(t *testing.T) {
	preds := []predicate.Predicate{
		predicate.FileExists("a.txt"),
		predicate.FileExists("b.txt"),
		predicate.FileExists("c.txt"),
	}
	plan := Plan("build three files", preds, 8)

	require.Len(t, plan.Modules, 3)
	assert.Empty(t, plan.Modules[0].Dependencies)
	assert.Equal(t, []string{"module-1"}, plan.Modules[1].Dependencies)
	assert.Equal(t, []string{"module-2"}, plan.Modules[2].Dependencies)

	for _, m := range plan.Modules {
		assert.Len(t, m.Guardrails, 2)
	}
}

func TestPlanCapsAtMaxModules(t *testing.T) {
	var preds []predicate.Predicate
	for i := 0; i < 10; i++ {
		preds = append(preds, predicate.AlwaysTrue())
	}
	plan := Plan("intent", preds, 8)
	assert.Len(t, plan.Modules, 8)
}

func TestApplyBuildPredicateInfersRustFromCargoFile(t *testing.T) {
	plan := Plan("write a library", []predicate.Predicate{predicate.FileExists("src/lib.rs")}, 8)
	ApplyBuildPredicateForFiles(&plan, "write a library", []string{"Cargo.toml"})

	last := plan.Modules[len(plan.Modules)-1]
	found := false
	for _, p := range last.OutputContract {
		if p.Kind == predicate.KindCommandSucceeds && p.Cmd == "cargo" {
			found = true
		}
	}
	assert.True(t, found)
}

func TestParseFileBlocksExtractsPathAndContent(t *testing.T) {
	response := "FILE: src/main.go\n```go\npackage main\n\nfunc main() {}\n```\n"
	blocks := ParseFileBlocks(response)
	require.Len(t, blocks, 1)
	assert.Equal(t, "src/main.go", blocks[0].Path)
	assert.Contains(t, blocks[0].Content, "package main")
}

func TestRunWorkerRejectsPathTraversal(t *testing.T) {
	dir := t.TempDir()
	m := WorkerModule{ID: "m1", AllowedPaths: []string{"src"}}
	m.ContractHash = m.ComputeContractHash()

	generate := func(system, user string) (string, error) {
		return "FILE: ../../etc/passwd\n```\nmalicious\n```\n", nil
	}
	written, err := RunWorker(m, dir, nil, generate)
	require.NoError(t, err)
	assert.Empty(t, written)

	_, statErr := os.Stat(filepath.Join(dir, "..", "..", "etc", "passwd"))
	assert.Error(t, statErr)
}

func TestRunWorkerDetectsTamperedContract(t *testing.T) {
	dir := t.TempDir()
	m := WorkerModule{ID: "m1", ContractHash: "not-the-real-hash"}
	_, err := RunWorker(m, dir, nil, func(s, u string) (string, error) { return "", nil })
	require.Error(t, err)
}

func TestVerifyPassesWhenPredicatesSatisfied(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "a.txt"), []byte("x"), 0o644))

	m := WorkerModule{OutputContract: []predicate.Predicate{predicate.FileExists("a.txt")}}
	outcome := Verify(m, dir)
	assert.True(t, outcome.Passed)
}

func TestVerifyFailsOnMissingFile(t *testing.T) {
	dir := t.TempDir()
	m := WorkerModule{OutputContract: []predicate.Predicate{predicate.FileExists("missing.txt")}}
	outcome := Verify(m, dir)
	assert.False(t, outcome.Passed)
	assert.Len(t, outcome.FailedPredicates, 1)
}

func TestExecutionLevelsRespectDependencies(t *testing.T) {
	modules := []WorkerModule{
		{ID: "a"},
		{ID: "b", Dependencies: []string{"a"}},
		{ID: "c", Dependencies: []string{"a"}},
		{ID: "d", Dependencies: []string{"b", "c"}},
	}
	levels := executionLevels(modules)
	require.Len(t, levels, 3)
	assert.Len(t, levels[0], 1)
	assert.Len(t, levels[1], 2)
	assert.Len(t, levels[2], 1)
}

func TestExecutionLevelsCollapsesCycle(t *testing.T) {
	modules := []WorkerModule{
		{ID: "a", Dependencies: []string{"b"}},
		{ID: "b", Dependencies: []string{"a"}},
	}
	levels := executionLevels(modules)
	require.Len(t, levels, 1)
	assert.Len(t, levels[0], 2)
}

func TestRunProducesSessionReportWithSkips(t *testing.T) {
	dir := t.TempDir()
	generate := func(system, user string) (string, error) {
		return "FILE: out.txt\n```\ndone\n```\n", nil
	}

	m1 := WorkerModule{ID: "m1", OutputContract: []predicate.Predicate{predicate.FileExists("out.txt")}, AllowedPaths: []string{"."}}
	m1.ContractHash = m1.ComputeContractHash()
	m2 := WorkerModule{ID: "m2", Dependencies: []string{"missing-dep"}}
	m2.ContractHash = m2.ComputeContractHash()

	plan := SplitPlan{Modules: []WorkerModule{m1, m2}}
	report := Run(context.Background(), plan, dir, 3, 2, generate)

	assert.Equal(t, 2, report.Total)
	assert.Equal(t, 1, report.Passed)
	assert.Equal(t, 1, report.Skipped)
	assert.False(t, report.AllPassed)
}
