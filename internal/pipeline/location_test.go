package pipeline

import (
	"net/http"
	"regexp"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestLocationWalkMergesMatchingPrefixSections(t *testing.T) {
	tree := &SectionTree{
		Root: &PerDirConfig{Satisfy: SatisfyAll},
		Nodes: []*Section{
			{Kind: KindLocation, Pattern: "/admin", Overlay: &PerDirConfig{Satisfy: SatisfyAny, SatisfySet: true}},
			{Kind: KindLocation, Pattern: "/public", Overlay: &PerDirConfig{Satisfy: SatisfyAll, SatisfySet: true}},
		},
	}
	cache := NewWalkCache(PhaseLocation, tree.Root)

	cfg := LocationWalk(tree, cache, "/admin/panel", nil)
	require.Equal(t, SatisfyAny, cfg.Satisfy)

	cache2 := NewWalkCache(PhaseLocation, tree.Root)
	cfg2 := LocationWalk(tree, cache2, "/administrator", nil)
	require.Equal(t, SatisfyAll, cfg2.Satisfy) // "/admin" must not prefix-match "/administrator"
}

func TestLocationWalkUsesCacheOnRepeatedKey(t *testing.T) {
	tree := &SectionTree{Root: &PerDirConfig{}, Nodes: nil}
	cache := NewWalkCache(PhaseLocation, tree.Root)
	first := LocationWalk(tree, cache, "/x", nil)
	second := LocationWalk(tree, cache, "/x", nil)
	require.Same(t, first, second)
}

func TestLocationWalkRegexMatchBindsNamedCaptures(t *testing.T) {
	tree := &SectionTree{
		Root: &PerDirConfig{},
		Nodes: []*Section{
			{
				Kind:    KindLocationMatch,
				Regex:   regexp.MustCompile(`^/user/(?P<id>[0-9]+)$`),
				Overlay: &PerDirConfig{Satisfy: SatisfyAny, SatisfySet: true},
			},
		},
	}
	cache := NewWalkCache(PhaseLocation, tree.Root)
	r := NewRequest(http.MethodGet, "/user/42", nil, "127.0.0.1")

	cfg := LocationWalk(tree, cache, "/user/42", r)
	require.Equal(t, SatisfyAny, cfg.Satisfy)
	require.Equal(t, "42", r.SubprocessEnv["id"])
}

func TestLocationWalkRegexMatchMissDoesNotBindCaptures(t *testing.T) {
	tree := &SectionTree{
		Root: &PerDirConfig{},
		Nodes: []*Section{
			{
				Kind:    KindLocationMatch,
				Regex:   regexp.MustCompile(`^/user/(?P<id>[0-9]+)$`),
				Overlay: &PerDirConfig{Satisfy: SatisfyAny, SatisfySet: true},
			},
		},
	}
	cache := NewWalkCache(PhaseLocation, tree.Root)
	r := NewRequest(http.MethodGet, "/user/abc", nil, "127.0.0.1")

	cfg := LocationWalk(tree, cache, "/user/abc", r)
	require.Equal(t, SatisfyAll, cfg.Satisfy)
	require.NotContains(t, r.SubprocessEnv, "id")
}
