// Package predicate implements the declarative, filesystem-evaluable
// assertions used throughout forge's contracts (SPEC_FULL.md §4.A). It is
// grounded on the teacher's per-kind validator files
// (internal/core/validator_file.go, validator_dir.go, validator_exec.go):
// one small function per predicate kind, composed through And/Or/Not.
package predicate

import (
	"fmt"
)

// Kind tags the variant of a Predicate.
type Kind string

const (
	KindFileExists      Kind = "file_exists"
	KindDirectoryExists Kind = "directory_exists"
	KindCommandSucceeds Kind = "command_succeeds"
	KindTestsPassing    Kind = "tests_passing"
	KindApiEndpoint     Kind = "api_endpoint"
	KindAnd             Kind = "and"
	KindOr              Kind = "or"
	KindNot             Kind = "not"
	KindAlwaysTrue      Kind = "always_true"
	KindAlwaysFalse     Kind = "always_false"
)

// Predicate is a closed, tagged variant over the kinds above. Only the
// fields relevant to Kind are populated; the rest are zero.
type Predicate struct {
	Kind Kind `json:"kind"`

	// FileExists / DirectoryExists
	Path string `json:"path,omitempty"`

	// CommandSucceeds
	Cmd          string   `json:"cmd,omitempty"`
	Args         []string `json:"args,omitempty"`
	ExpectedExit int      `json:"expected_exit,omitempty"`

	// TestsPassing
	Suite       string  `json:"suite,omitempty"`
	MinCoverage float64 `json:"min_coverage,omitempty"`

	// ApiEndpoint
	URL            string `json:"url,omitempty"`
	ExpectedStatus int    `json:"expected_status,omitempty"`

	// And / Or / Not
	Children []Predicate `json:"children,omitempty"`
}

// Constructors give call sites a readable way to build predicates.

func FileExists(path string) Predicate      { return Predicate{Kind: KindFileExists, Path: path} }
func DirectoryExists(path string) Predicate { return Predicate{Kind: KindDirectoryExists, Path: path} }

func CommandSucceeds(cmd string, args []string, expectedExit int) Predicate {
	return Predicate{Kind: KindCommandSucceeds, Cmd: cmd, Args: args, ExpectedExit: expectedExit}
}

func TestsPassing(suite string, minCoverage float64) Predicate {
	return Predicate{Kind: KindTestsPassing, Suite: suite, MinCoverage: minCoverage}
}

func ApiEndpoint(url string, expectedStatus int) Predicate {
	return Predicate{Kind: KindApiEndpoint, URL: url, ExpectedStatus: expectedStatus}
}

func And(children ...Predicate) Predicate { return Predicate{Kind: KindAnd, Children: children} }
func Or(children ...Predicate) Predicate  { return Predicate{Kind: KindOr, Children: children} }
func Not(child Predicate) Predicate       { return Predicate{Kind: KindNot, Children: []Predicate{child}} }

func AlwaysTrue() Predicate  { return Predicate{Kind: KindAlwaysTrue} }
func AlwaysFalse() Predicate { return Predicate{Kind: KindAlwaysFalse} }

// Describe renders a human-readable description of a predicate, used for
// destination_state text (spec.md §4.G) and failed-predicate reporting.
func Describe(p Predicate) string {
	switch p.Kind {
	case KindFileExists:
		return fmt.Sprintf("file exists: %s", p.Path)
	case KindDirectoryExists:
		return fmt.Sprintf("directory exists: %s", p.Path)
	case KindCommandSucceeds:
		return fmt.Sprintf("command succeeds: %s %v (expect exit %d)", p.Cmd, p.Args, p.ExpectedExit)
	case KindTestsPassing:
		return fmt.Sprintf("tests passing: %s (min coverage %.2f)", p.Suite, p.MinCoverage)
	case KindApiEndpoint:
		return fmt.Sprintf("api endpoint: %s (expect status %d)", p.URL, p.ExpectedStatus)
	case KindAnd:
		return joinChildren(p.Children, "AND")
	case KindOr:
		return joinChildren(p.Children, "OR")
	case KindNot:
		if len(p.Children) == 1 {
			return fmt.Sprintf("NOT (%s)", Describe(p.Children[0]))
		}
		return "NOT (invalid)"
	case KindAlwaysTrue:
		return "always true"
	case KindAlwaysFalse:
		return "always false"
	default:
		return "unknown predicate"
	}
}

func joinChildren(children []Predicate, op string) string {
	out := "("
	for i, c := range children {
		if i > 0 {
			out += " " + op + " "
		}
		out += Describe(c)
	}
	return out + ")"
}
