package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/sudip-ibm/httpd/internal/pipeline"
	"github.com/stretchr/testify/require"
)

const sampleYAML = `
document_root: /srv/www
satisfy: all
sym_links: owner_match
options:
  indexes: true
locations:
  - match: /admin
    satisfy: any
    require: ["alice"]
directories:
  - match: /app
    indexes: ["index.html"]
files:
  - regex: "\\.php$"
    satisfy: any
ifs:
  - expr: "method == \"POST\""
    root: /post
    else:
      root: /get
`

func writeTemp(t *testing.T, content string) string {
	t.Helper()
	dir := t.TempDir()
	p := filepath.Join(dir, "site.yaml")
	require.NoError(t, os.WriteFile(p, []byte(content), 0o644))
	return p
}

func TestLoadAndBuild(t *testing.T) {
	path := writeTemp(t, sampleYAML)
	doc, err := Load(path)
	require.NoError(t, err)
	require.Equal(t, "/srv/www", doc.DocumentRoot)

	root, locTree, dirTree, fileTree, ifTree, err := doc.Build()
	require.NoError(t, err)
	require.Equal(t, pipeline.SymOwnerMatch, root.SymLinks)
	require.Len(t, locTree.Nodes, 1)
	require.Len(t, dirTree.Nodes, 1)
	require.Len(t, fileTree.Nodes, 1)
	require.Len(t, ifTree.Nodes, 1)

	cache := pipeline.NewWalkCache(pipeline.PhaseIf, root)
	cfg := pipeline.IfWalk(ifTree, cache, map[string]any{"method": "GET"}, "k", nil)
	require.Equal(t, "/get", cfg.Root)
}

func TestBuildRejectsInvalidIfExpression(t *testing.T) {
	path := writeTemp(t, `
document_root: /srv/www
ifs:
  - expr: "method =="
`)
	doc, err := Load(path)
	require.NoError(t, err)
	_, _, _, _, _, err = doc.Build()
	require.Error(t, err)
}
