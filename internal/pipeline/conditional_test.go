package pipeline

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/require"
)

type fakeProgram struct {
	result bool
	err    error
}

func (f fakeProgram) Eval(map[string]any) (bool, error) { return f.result, f.err }

func TestIfWalkPicksFirstMatchingBranch(t *testing.T) {
	chain := &Section{
		Kind:    KindIf,
		Expr:    "method == 'POST'",
		Program: fakeProgram{result: false},
		Overlay: &PerDirConfig{Root: "/post"},
		Branches: []*Section{
			{Kind: KindIf, Expr: "", Overlay: &PerDirConfig{Root: "/else"}},
		},
	}
	tree := &SectionTree{Root: &PerDirConfig{}, Nodes: []*Section{chain}}
	cache := NewWalkCache(PhaseIf, tree.Root)

	cfg := IfWalk(tree, cache, map[string]any{"method": "GET"}, "GET /x", nil)
	require.Equal(t, "/else", cfg.Root)
}

func TestIfWalkRecursesIntoNestedChain(t *testing.T) {
	nested := &Section{
		Kind:    KindIf,
		Expr:    "path == '/admin'",
		Program: fakeProgram{result: true},
		Overlay: &PerDirConfig{Satisfy: SatisfyAny, SatisfySet: true},
	}
	outer := &Section{
		Kind:     KindIf,
		Expr:     "",
		Overlay:  &PerDirConfig{Root: "/outer"},
		Children: []*Section{nested},
	}
	tree := &SectionTree{Root: &PerDirConfig{}, Nodes: []*Section{outer}}
	cache := NewWalkCache(PhaseIf, tree.Root)

	cfg := IfWalk(tree, cache, map[string]any{"path": "/admin"}, "GET /admin", nil)
	require.Equal(t, "/outer", cfg.Root)
	require.Equal(t, SatisfyAny, cfg.Satisfy)
}

func TestIfWalkTreatsEvalErrorAsNonMatchingAndLogsIt(t *testing.T) {
	failing := &Section{
		Kind:    KindIf,
		Expr:    "garbage",
		Program: fakeProgram{err: errors.New("boom")},
		Overlay: &PerDirConfig{Root: "/failing"},
	}
	fallback := &Section{
		Kind:    KindIf,
		Expr:    "",
		Overlay: &PerDirConfig{Root: "/fallback"},
	}
	tree := &SectionTree{Root: &PerDirConfig{Root: "/root"}, Nodes: []*Section{failing, fallback}}
	cache := NewWalkCache(PhaseIf, tree.Root)

	var logged error
	cfg := IfWalk(tree, cache, map[string]any{}, "GET /x", func(err error) { logged = err })

	require.Error(t, logged)
	require.Equal(t, "/fallback", cfg.Root)
}
