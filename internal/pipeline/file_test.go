package pipeline

import (
	"net/http"
	"regexp"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestFileWalkMatchesExactBasename(t *testing.T) {
	tree := &SectionTree{
		Nodes: []*Section{
			{Kind: KindFiles, Pattern: ".htpasswd", Overlay: &PerDirConfig{ForceAuthn: true, ForceAuthnSet: true}},
		},
	}
	cache := NewWalkCache(PhaseFile, nil)
	dirCfg := &PerDirConfig{}

	cfg := FileWalk(tree, cache, dirCfg, "/srv/www/.htpasswd", nil)
	require.True(t, cfg.ForceAuthn)

	cache2 := NewWalkCache(PhaseFile, nil)
	cfg2 := FileWalk(tree, cache2, dirCfg, "/srv/www/index.html", nil)
	require.False(t, cfg2.ForceAuthn)
}

func TestFileWalkRegexMatchBindsNamedCaptures(t *testing.T) {
	tree := &SectionTree{
		Nodes: []*Section{
			{
				Kind:    KindFilesMatch,
				Regex:   regexp.MustCompile(`^(?P<stem>.+)\.php$`),
				Overlay: &PerDirConfig{Satisfy: SatisfyAny, SatisfySet: true},
			},
		},
	}
	cache := NewWalkCache(PhaseFile, nil)
	r := NewRequest(http.MethodGet, "/index.php", nil, "127.0.0.1")

	cfg := FileWalk(tree, cache, &PerDirConfig{}, "/srv/www/index.php", r)
	require.Equal(t, SatisfyAny, cfg.Satisfy)
	require.Equal(t, "index", r.SubprocessEnv["stem"])
}
