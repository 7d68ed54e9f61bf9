package manifold

import (
	"bytes"
	"sync"

	"github.com/google/mangle/analysis"
	"github.com/google/mangle/ast"
	_ "github.com/google/mangle/builtin"
	mengine "github.com/google/mangle/engine"
	"github.com/google/mangle/factstore"
	"github.com/google/mangle/parse"
)

// logicSchema declares the two predicates the cross-check needs: the raw
// dependency edges the manifold inserts, and their transitive closure. A
// goal that can reach itself through `reachable` is a cycle witness — the
// same fact the Go-native DFS in manifold.go computes, evaluated a second,
// independent way as the "hard engineering" cross-check spec.md calls for.
const logicSchema = `
Decl depends_on(X, Y) descr [mode("+", "+")].
Decl reachable(X, Y) descr [mode("+", "+")].

reachable(X, Y) :- depends_on(X, Y).
reachable(X, Z) :- depends_on(X, Y), reachable(Y, Z).
`

// LogicStore is a small, disposable Google Mangle Datalog engine used only
// to cross-check acyclicity. It is grounded on the teacher's
// internal/mangle/engine.go wrapper, trimmed to one fixed schema instead of
// a general-purpose knowledge graph.
type LogicStore struct {
	mu          sync.Mutex
	store       factstore.ConcurrentFactStore
	programInfo *analysis.ProgramInfo
	dependsOn   ast.PredicateSym
	reachable   ast.PredicateSym
	ready       bool
}

// NewLogicStore compiles the fixed schema. On any compilation error the
// store is left not-ready and every cross-check becomes a silent no-op: the
// Go-native DFS in manifold.go remains the authoritative acyclicity check.
func NewLogicStore() *LogicStore {
	ls := &LogicStore{
		store: factstore.NewConcurrentFactStore(factstore.NewSimpleInMemoryStore()),
	}

	unit, err := parse.Unit(bytes.NewReader([]byte(logicSchema)))
	if err != nil {
		return ls
	}
	info, err := analysis.AnalyzeOneUnit(parse.SourceUnit{Clauses: unit.Clauses, Decls: unit.Decls}, nil)
	if err != nil {
		return ls
	}
	ls.programInfo = info
	for sym := range info.Decls {
		switch sym.Symbol {
		case "depends_on":
			ls.dependsOn = sym
		case "reachable":
			ls.reachable = sym
		}
	}
	ls.ready = ls.dependsOn.Symbol != "" && ls.reachable.Symbol != ""
	return ls
}

// AddGoal pushes the goal's dependency edges into the fact store.
func (ls *LogicStore) AddGoal(g Goal) {
	if ls == nil || !ls.ready {
		return
	}
	ls.mu.Lock()
	defer ls.mu.Unlock()
	for _, dep := range g.Dependencies {
		ls.store.Add(ast.NewAtom(ls.dependsOn.Symbol, ast.String(g.ID), ast.String(dep)))
	}
}

// CrossCheckAcyclic recomputes the transitive closure and reports a
// violation for every goal from which itself is reachable.
func (ls *LogicStore) CrossCheckAcyclic() []Violation {
	if ls == nil || !ls.ready {
		return nil
	}
	ls.mu.Lock()
	defer ls.mu.Unlock()

	if _, err := mengine.EvalProgramWithStats(ls.programInfo, ls.store); err != nil {
		return nil
	}

	var violations []Violation
	ls.store.GetFacts(ast.NewQuery(ls.reachable.Symbol, ast.NewVariable("X"), ast.NewVariable("Y")), func(a ast.Atom) error {
		if len(a.Args) == 2 && a.Args[0] == a.Args[1] {
			violations = append(violations, Violation{
				Invariant: "acyclic_datalog_cross_check",
				Severity:  InvariantCritical,
				Detail:    "mangle cross-check found a self-reachable goal: " + a.Args[0].String(),
			})
		}
		return nil
	})
	return violations
}
