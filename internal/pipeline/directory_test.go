package pipeline

import (
	"io/fs"
	"os"
	"testing"

	"github.com/stretchr/testify/require"
)

type memFS struct {
	dirs map[string]bool
}

func (m memFS) Lstat(path string) (os.FileInfo, error) {
	if m.dirs[path] {
		return fakeFileInfo{mode: fs.ModeDir}, nil
	}
	return fakeFileInfo{}, nil
}
func (m memFS) Stat(path string) (os.FileInfo, error) { return m.Lstat(path) }
func (m memFS) ReadDir(string) ([]os.DirEntry, error)  { return nil, nil }

func TestDirectoryWalkMergesSegmentSections(t *testing.T) {
	fsys := memFS{dirs: map[string]bool{
		"/srv/www":     true,
		"/srv/www/app": true,
	}}
	tree := &SectionTree{
		Root: &PerDirConfig{SymLinks: SymAllowed},
		Nodes: []*Section{
			{Kind: KindDirectory, Pattern: "/app", Overlay: &PerDirConfig{Indexes: []string{"index.html"}}},
		},
	}
	cache := NewWalkCache(PhaseDirectory, tree.Root)

	cfg, err := DirectoryWalk(fsys, tree, cache, NoHtaccess{}, "/srv/www", "/app/page.html", nil)
	require.NoError(t, err)
	require.Equal(t, []string{"index.html"}, cfg.Indexes)
}

func TestDirectoryWalkRejectsPathEscapingRoot(t *testing.T) {
	fsys := memFS{dirs: map[string]bool{}}
	tree := &SectionTree{Root: &PerDirConfig{}}
	cache := NewWalkCache(PhaseDirectory, tree.Root)

	_, err := DirectoryWalk(fsys, tree, cache, NoHtaccess{}, "/srv/www", "../../etc/passwd", nil)
	require.Error(t, err)
}
