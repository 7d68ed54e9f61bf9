package predicate

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEvaluateFileExists(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "a.txt"), []byte("x"), 0o644))

	ok := Evaluate(FileExists("a.txt"), dir)
	assert.True(t, ok.Passed)

	missing := Evaluate(FileExists("missing.txt"), dir)
	assert.False(t, missing.Passed)
}

func TestEvaluateDirectoryExists(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.Mkdir(filepath.Join(dir, "sub"), 0o755))

	assert.True(t, Evaluate(DirectoryExists("sub"), dir).Passed)
	assert.False(t, Evaluate(DirectoryExists("nope"), dir).Passed)
}

func TestEvaluateCommandSucceeds(t *testing.T) {
	dir := t.TempDir()
	ok := Evaluate(CommandSucceeds("true", nil, 0), dir)
	assert.True(t, ok.Passed)

	fail := Evaluate(CommandSucceeds("false", nil, 0), dir)
	assert.False(t, fail.Passed)
}

func TestEvaluateAndOrNot(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "a.txt"), []byte("x"), 0o644))

	and := Evaluate(And(FileExists("a.txt"), FileExists("b.txt")), dir)
	assert.False(t, and.Passed)

	or := Evaluate(Or(FileExists("a.txt"), FileExists("b.txt")), dir)
	assert.True(t, or.Passed)

	not := Evaluate(Not(FileExists("b.txt")), dir)
	assert.True(t, not.Passed)
}

func TestEvaluateAlwaysTrueFalse(t *testing.T) {
	dir := t.TempDir()
	assert.True(t, Evaluate(AlwaysTrue(), dir).Passed)
	assert.False(t, Evaluate(AlwaysFalse(), dir).Passed)
}

func TestEvaluateApiEndpointOfflineUnevaluatable(t *testing.T) {
	dir := t.TempDir()
	out := Evaluate(ApiEndpoint("http://127.0.0.1:1/health", 200), dir)
	assert.False(t, out.Passed)
	assert.Equal(t, "unevaluatable offline", out.Detail)
}

func TestEvaluatePathTraversalStripped(t *testing.T) {
	dir := t.TempDir()
	outside := filepath.Join(dir, "..", "escaped.txt")
	_ = os.WriteFile(outside, []byte("x"), 0o644)
	defer os.Remove(outside)

	out := Evaluate(FileExists("../escaped.txt"), dir)
	assert.False(t, out.Passed, "traversal outside workspace root must not be visible")
}

func TestEvaluateDeterministic(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "a.txt"), []byte("x"), 0o644))
	p := FileExists("a.txt")
	first := Evaluate(p, dir)
	second := Evaluate(p, dir)
	assert.Equal(t, first, second)
}
