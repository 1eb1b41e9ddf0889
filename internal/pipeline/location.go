package pipeline

import "strings"

// LocationWalk is C5: it folds every <Location>/<LocationMatch> section
// whose pattern matches the request's normalized URI onto the tree's root
// config, in declaration order, caching the result against the URI. r is
// threaded through purely so a LocationMatch hit can bind its named
// capture groups into r.SubprocessEnv; r may be nil for a walk over a URI
// that is not attached to a live request (tests, mostly).
func LocationWalk(tree *SectionTree, cache *WalkCache, uri string, r *Request) *PerDirConfig {
	if cache.Hit(uri) {
		return cache.ResultConfig
	}
	result := tree.Root.Clone()
	walked := make([]MatchedSection, 0, len(tree.Nodes))
	for _, sec := range tree.Nodes {
		if !matchesLocation(sec, uri, r) {
			continue
		}
		result = MergeConfig(result, sec.Overlay)
		walked = append(walked, MatchedSection{Section: sec, Config: result})
	}
	cache.CachedKey = uri
	cache.ResultConfig = result
	cache.Walked = walked
	return result
}

func matchesLocation(sec *Section, uri string, r *Request) bool {
	switch sec.Kind {
	case KindLocation:
		return pathHasPrefix(uri, sec.Pattern)
	case KindLocationMatch:
		return bindCaptures(sec.Regex, uri, r)
	default:
		return false
	}
}

// pathHasPrefix matches a <Location "/admin"> style prefix the way the
// teacher's httpserver.Path.Matches does: a prefix match that also
// requires the next character (if any) to be a path separator, so
// "/admin" does not also match "/administration".
func pathHasPrefix(uri, prefix string) bool {
	if !strings.HasPrefix(uri, prefix) {
		return false
	}
	if len(uri) == len(prefix) {
		return true
	}
	if strings.HasSuffix(prefix, "/") {
		return true
	}
	return uri[len(prefix)] == '/'
}
