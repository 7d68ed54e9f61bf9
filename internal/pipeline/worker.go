package pipeline

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"forge/internal/forgeerr"
)

// Generator produces raw worker output text given a prompt built from the
// module's destination_state and output_contract, plus the prior failed
// approaches fed back for repair (spec.md §4.H, §4.J). It is typically
// backed by an LLM call through chatclient.Client.
type Generator func(systemPrompt, userPrompt string) (string, error)

// FileBlock is one parsed `FILE: <relpath>` + fenced code block pair.
type FileBlock struct {
	Path    string
	Content string
}

// BuildWorkerPrompt assembles the user prompt for a module, including
// prior failed predicate descriptions so the worker does not repeat them
// verbatim (spec.md §4.J).
func BuildWorkerPrompt(m WorkerModule, priorFailures []string) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Destination state: %s\n", m.DestinationState)
	b.WriteString("Output format: one or more blocks of `FILE: <relpath>` followed by a fenced code block.\n")
	if len(priorFailures) > 0 {
		b.WriteString("Approaches that failed, do not repeat verbatim:\n")
		for _, f := range priorFailures {
			fmt.Fprintf(&b, "- %s\n", f)
		}
	}
	return b.String()
}

// ParseFileBlocks parses the simple file-block format: "FILE: <relpath>"
// followed by a fenced code block (spec.md §4.H).
func ParseFileBlocks(response string) []FileBlock {
	var blocks []FileBlock
	parts := strings.Split(response, "FILE:")
	for _, part := range parts[1:] {
		lines := strings.SplitN(part, "\n", 2)
		if len(lines) < 2 {
			continue
		}
		path := strings.TrimSpace(lines[0])
		rest := lines[1]

		fenceStart := strings.Index(rest, "```")
		if fenceStart == -1 {
			continue
		}
		afterFence := rest[fenceStart+3:]
		if nl := strings.Index(afterFence, "\n"); nl != -1 {
			afterFence = afterFence[nl+1:]
		}
		fenceEnd := strings.Index(afterFence, "```")
		if fenceEnd == -1 {
			continue
		}
		content := afterFence[:fenceEnd]
		if path == "" {
			continue
		}
		blocks = append(blocks, FileBlock{Path: path, Content: content})
	}
	return blocks
}

// resolveAllowedPath strips ".." and root components before joining to
// workspaceRoot, then verifies the result still falls under one of
// allowedPaths (spec.md §4.H, §6 workspace layout).
func resolveAllowedPath(workspaceRoot string, relPath string, allowedPaths []string) (string, error) {
	cleaned := filepath.Clean("/" + relPath)
	cleaned = strings.TrimPrefix(cleaned, "/")
	full := filepath.Join(workspaceRoot, cleaned)

	if len(allowedPaths) == 0 {
		return full, nil
	}
	for _, allowed := range allowedPaths {
		allowedFull := filepath.Join(workspaceRoot, filepath.Clean("/"+allowed))
		if full == allowedFull || strings.HasPrefix(full, allowedFull+string(filepath.Separator)) {
			return full, nil
		}
	}
	return "", forgeerr.New(forgeerr.PolicyDenial, "resolve_allowed_path",
		fmt.Errorf("path %q escapes allowed_paths %v", relPath, allowedPaths))
}

// RunWorker invokes generate with the module's prompt, parses the
// resulting file blocks, and writes each to workspaceRoot, enforcing
// allowed_paths and rejecting any block that lands under a forbidden
// path. It verifies the module's contract hash first, refusing to run
// against a tampered module (spec.md §4.H).
func RunWorker(m WorkerModule, workspaceRoot string, priorFailures []string, generate Generator) ([]FileBlock, error) {
	if m.ContractHash != "" && m.ComputeContractHash() != m.ContractHash {
		return nil, forgeerr.New(forgeerr.IntegrityFailure, "run_worker",
			fmt.Errorf("module %s contract_hash mismatch, refusing to execute", m.ID))
	}

	userPrompt := BuildWorkerPrompt(m, priorFailures)
	response, err := generate("You are a focused implementation worker operating within a single module's scope.", userPrompt)
	if err != nil {
		return nil, forgeerr.New(forgeerr.ProviderError, "run_worker", err)
	}

	blocks := ParseFileBlocks(response)
	written := make([]FileBlock, 0, len(blocks))
	for _, block := range blocks {
		if isForbidden(block.Path, m.ForbiddenPaths) {
			continue
		}
		full, err := resolveAllowedPath(workspaceRoot, block.Path, m.AllowedPaths)
		if err != nil {
			continue
		}
		if err := os.MkdirAll(filepath.Dir(full), 0o755); err != nil {
			return written, fmt.Errorf("pipeline: mkdir for %s: %w", block.Path, err)
		}
		if err := os.WriteFile(full, []byte(block.Content), 0o644); err != nil {
			return written, fmt.Errorf("pipeline: write %s: %w", block.Path, err)
		}
		written = append(written, block)
	}
	return written, nil
}

func isForbidden(relPath string, forbidden []string) bool {
	cleaned := filepath.Clean("/" + relPath)
	for _, f := range forbidden {
		forbiddenClean := filepath.Clean("/" + f)
		if cleaned == forbiddenClean || strings.HasPrefix(cleaned, forbiddenClean+"/") {
			return true
		}
	}
	return false
}
