package pipeline

import "path"

// FileWalk is C7: it folds every <Files>/<FilesMatch> section whose
// pattern matches the final path segment (the basename) onto the config
// produced by C6's directory walk. Unlike Location/Directory, the File
// walk's cache key is the full file path, since a <Files> section cannot
// be meaningfully cached independent of which directory it was reached
// through. r is threaded through so a FilesMatch hit can bind its named
// capture groups into r.SubprocessEnv; r may be nil for a walk not
// attached to a live request (tests, mostly).
func FileWalk(tree *SectionTree, cache *WalkCache, dirConfig *PerDirConfig, filePath string, r *Request) *PerDirConfig {
	if cache.Hit(filePath) {
		return cache.ResultConfig
	}
	base := path.Base(filePath)
	result := dirConfig.Clone()
	walked := make([]MatchedSection, 0, len(tree.Nodes))
	for _, sec := range tree.Nodes {
		if !matchesFile(sec, base, r) {
			continue
		}
		result = MergeConfig(result, sec.Overlay)
		walked = append(walked, MatchedSection{Section: sec, Config: result})
	}
	cache.CachedKey = filePath
	cache.ResultConfig = result
	cache.Walked = walked
	return result
}

func matchesFile(sec *Section, base string, r *Request) bool {
	switch sec.Kind {
	case KindFiles:
		return base == sec.Pattern
	case KindFilesMatch:
		return bindCaptures(sec.Regex, base, r)
	default:
		return false
	}
}
