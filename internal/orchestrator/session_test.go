package orchestrator

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"forge/internal/config"
	"forge/internal/pipeline"
	"forge/internal/predicate"
	"forge/internal/store"
)

func fileExistsGenerator(relPath, content string) pipeline.Generator {
	return func(systemPrompt, userPrompt string) (string, error) {
		return "FILE: " + relPath + "\n```\n" + content + "\n```\n", nil
	}
}

func TestSessionRunProducesPassingReport(t *testing.T) {
	dir := t.TempDir()
	cfg := config.Default()

	dbPath := filepath.Join(dir, "manifold.db")
	st, err := store.Open(dbPath)
	require.NoError(t, err)
	defer st.Close()

	gen := fileExistsGenerator("out.txt", "hello world")
	rootPredicates := []predicate.Predicate{
		predicate.FileExists("out.txt"),
	}

	s := NewSession(cfg, st, gen)
	report, err := s.Run(context.Background(), "build a small CLI tool", rootPredicates, dir)
	require.NoError(t, err)

	assert.Equal(t, report.TotalModules, report.Passed+report.Failed)
	assert.Equal(t, dir, report.Workspace)
	assert.GreaterOrEqual(t, report.DurationSecs, 0.0)

	eps, err := st.RecentEpisodes(10)
	require.NoError(t, err)
	assert.NotEmpty(t, eps)
}

func TestSessionRunBlocksWhenDriftThresholdUnreachable(t *testing.T) {
	dir := t.TempDir()
	cfg := config.Default()
	cfg.Drift.BlockThreshold = 1000 // unreachable: every action scores below it

	s := NewSession(cfg, nil, fileExistsGenerator("x.txt", "x"))
	_, err := s.Run(context.Background(), "build a small CLI tool", nil, dir)
	require.Error(t, err)
}

func TestSessionRunWithoutStoreStillSucceeds(t *testing.T) {
	dir := t.TempDir()
	cfg := config.Default()

	s := NewSession(cfg, nil, fileExistsGenerator("a.txt", "a"))
	report, err := s.Run(context.Background(), "write a file", []predicate.Predicate{
		predicate.FileExists("a.txt"),
	}, dir)
	require.NoError(t, err)
	assert.True(t, report.Success || report.Failed > 0)
}

func TestMain(m *testing.M) {
	code := m.Run()
	os.Exit(code)
}
