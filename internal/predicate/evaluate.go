package predicate

import (
	"fmt"
	"net/http"
	"os"
	"os/exec"
	"path/filepath"
	"time"
)

// Outcome is the pure result of evaluating a Predicate against a workspace.
type Outcome struct {
	Description string
	Passed      bool
	Detail      string
}

// httpClient is used by ApiEndpoint; a package-level var so tests can stub it.
var httpClient = &http.Client{Timeout: 5 * time.Second}

// Evaluate is a pure function: the same predicate and the same filesystem
// tree always produce the same Outcome (spec.md §4.A). It never mutates
// state. Command predicates spawn a subprocess with working dir = root.
func Evaluate(p Predicate, workspaceRoot string) Outcome {
	desc := Describe(p)

	switch p.Kind {
	case KindFileExists:
		info, err := os.Stat(resolve(workspaceRoot, p.Path))
		if err != nil || info.IsDir() {
			return Outcome{desc, false, fmt.Sprintf("not found or is a directory: %v", err)}
		}
		return Outcome{desc, true, "found"}

	case KindDirectoryExists:
		info, err := os.Stat(resolve(workspaceRoot, p.Path))
		if err != nil || !info.IsDir() {
			return Outcome{desc, false, fmt.Sprintf("not found or is a file: %v", err)}
		}
		return Outcome{desc, true, "found"}

	case KindCommandSucceeds:
		cmd := exec.Command(p.Cmd, p.Args...)
		cmd.Dir = workspaceRoot
		out, err := cmd.CombinedOutput()
		exitCode := 0
		if err != nil {
			if ee, ok := err.(*exec.ExitError); ok {
				exitCode = ee.ExitCode()
			} else {
				return Outcome{desc, false, fmt.Sprintf("failed to spawn: %v", err)}
			}
		}
		passed := exitCode == p.ExpectedExit
		return Outcome{desc, passed, fmt.Sprintf("exit=%d output=%s", exitCode, truncate(string(out), 500))}

	case KindTestsPassing, KindApiEndpoint:
		return evaluateExternal(p, desc)

	case KindAnd:
		for _, c := range p.Children {
			o := Evaluate(c, workspaceRoot)
			if !o.Passed {
				return Outcome{desc, false, o.Detail}
			}
		}
		return Outcome{desc, true, "all children passed"}

	case KindOr:
		var lastDetail string
		for _, c := range p.Children {
			o := Evaluate(c, workspaceRoot)
			if o.Passed {
				return Outcome{desc, true, o.Detail}
			}
			lastDetail = o.Detail
		}
		return Outcome{desc, false, lastDetail}

	case KindNot:
		if len(p.Children) != 1 {
			return Outcome{desc, false, "invalid Not predicate"}
		}
		o := Evaluate(p.Children[0], workspaceRoot)
		return Outcome{desc, !o.Passed, "negated: " + o.Detail}

	case KindAlwaysTrue:
		return Outcome{desc, true, "always true"}

	case KindAlwaysFalse:
		return Outcome{desc, false, "always false"}

	default:
		return Outcome{desc, false, "unknown predicate kind"}
	}
}

// evaluateExternal handles predicates that require a live runtime (a test
// harness, a reachable network endpoint). Offline, these are unevaluatable
// rather than silently passing or failing (spec.md §4.A).
func evaluateExternal(p Predicate, desc string) Outcome {
	switch p.Kind {
	case KindApiEndpoint:
		resp, err := httpClient.Get(p.URL)
		if err != nil {
			return Outcome{desc, false, "unevaluatable offline"}
		}
		defer resp.Body.Close()
		return Outcome{desc, resp.StatusCode == p.ExpectedStatus, fmt.Sprintf("status=%d", resp.StatusCode)}
	default:
		return Outcome{desc, false, "unevaluatable offline"}
	}
}

// resolve joins a relative path to root, stripping ".." and leading root
// components so a predicate can never escape the workspace (spec.md §6
// path-traversal rule, shared with the Worker).
func resolve(root, path string) string {
	return filepath.Join(root, filepath.Clean(string(filepath.Separator)+path))
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "...[truncated]"
}
