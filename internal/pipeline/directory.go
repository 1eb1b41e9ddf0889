package pipeline

import (
	"path/filepath"
	"strings"

	"github.com/sudip-ibm/httpd/internal/httperror"
)

// HtaccessLoader is the .htaccess-equivalent merge point C6 calls at each
// directory level when AllowOverride permits it. This package ships no
// real per-directory config file grammar (that is explicitly out of
// scope); callers needing one provide their own loader. The only loader
// shipped is NoHtaccess below.
type HtaccessLoader interface {
	Load(dir string) (*PerDirConfig, error)
}

// NoHtaccess is an HtaccessLoader that never finds anything to merge.
type NoHtaccess struct{}

func (NoHtaccess) Load(string) (*PerDirConfig, error) { return nil, nil }

// DirectoryWalk is C6: starting from the document root, it walks one path
// segment at a time down to filename, at each level (a) applying any
// <Directory>/<DirectoryMatch> sections whose pattern matches the
// directory path so far, (b) consulting the .htaccess merge point if
// AllowOverride permits, and (c) policing symlinks per C4 using the
// symlink policy in effect *before* this segment's own sections are
// merged, matching resolve_symlink's use of the parent directory's policy
// to judge the child segment. r is threaded through so a DirectoryMatch
// hit can bind its named capture groups into r.SubprocessEnv; r may be
// nil for a walk not attached to a live request (tests, mostly).
func DirectoryWalk(fsys FileSystem, tree *SectionTree, cache *WalkCache, htaccess HtaccessLoader, root, relPath string, r *Request) (*PerDirConfig, error) {
	if EscapesRoot(relPath) {
		return nil, httperror.New(403, "directory: path escapes root")
	}
	if cache.Hit(relPath) {
		if err := restatTerminal(fsys, filepath.Join(root, relPath)); err != nil {
			return nil, err
		}
		return cache.ResultConfig, nil
	}

	result := tree.Root.Clone()
	segments := strings.Split(strings.Trim(relPath, "/"), "/")
	if relPath == "" || relPath == "/" {
		segments = nil
	}

	walked := make([]MatchedSection, 0, len(tree.Nodes))
	current := root
	for i, seg := range segments {
		parentPolicy := result.SymLinks
		current = filepath.Join(current, seg)

		if i < len(segments)-1 || strings.HasSuffix(relPath, "/") {
			// An intermediate segment (or a terminal segment that the
			// caller already knows is a directory) must itself be
			// policed as a symlink before its own sections apply.
			lst, lerr := fsys.Lstat(current)
			if lerr != nil {
				return nil, httperror.Forbidden("directory: lstat failed", lerr)
			}
			st, serr := fsys.Stat(current)
			if serr != nil {
				return nil, httperror.Forbidden("directory: stat failed", serr)
			}
			if err := ResolveSymlink(parentPolicy, lst, st); err != nil {
				return nil, err
			}
		}

		dirKey := strings.TrimPrefix(current, root)
		for _, sec := range tree.Nodes {
			if !matchesDirectory(sec, dirKey, r) {
				continue
			}
			result = MergeConfig(result, sec.Overlay)
			walked = append(walked, MatchedSection{Section: sec, Config: result})
		}

		if result.AllowOverride && htaccess != nil {
			overlay, err := htaccess.Load(current)
			if err != nil {
				return nil, httperror.Wrap(500, "directory: htaccess load failed", err)
			}
			if overlay != nil {
				result = MergeConfig(result, overlay)
			}
		}
	}

	cache.CachedKey = relPath
	cache.ResultConfig = result
	cache.Walked = walked
	return result, nil
}

// restatTerminal re-validates a cached directory walk's terminal node
// still exists; any unexpected failure here is conservatively denied
// rather than silently served from a stale cache.
func restatTerminal(fsys FileSystem, path string) error {
	if _, err := fsys.Lstat(path); err != nil {
		return httperror.Forbidden("directory: cache re-stat failed", err)
	}
	return nil
}

func matchesDirectory(sec *Section, dirPath string, r *Request) bool {
	switch sec.Kind {
	case KindDirectory:
		return pathHasPrefix(dirPath, sec.Pattern)
	case KindDirectoryMatch:
		return bindCaptures(sec.Regex, dirPath, r)
	default:
		return false
	}
}
