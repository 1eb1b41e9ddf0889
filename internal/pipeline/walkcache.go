package pipeline

// WalkPhase identifies which of the four independently-cached config
// walks a WalkCache belongs to.
type WalkPhase int

const (
	PhaseLocation WalkPhase = iota
	PhaseDirectory
	PhaseFile
	PhaseIf
)

func (p WalkPhase) String() string {
	switch p {
	case PhaseLocation:
		return "location"
	case PhaseDirectory:
		return "directory"
	case PhaseFile:
		return "file"
	case PhaseIf:
		return "if"
	default:
		return "unknown"
	}
}

// MatchedSection is one (matched section, config after merging it) pair
// recorded in walk order, so a cache hit can replay the walk without
// re-testing every section in the tree.
type MatchedSection struct {
	Section *Section
	Config  *PerDirConfig
}

// WalkCache is the per-phase cache described by the data model: a walk is
// only replayed from scratch when the key it was computed against (the
// normalized URI for Location, the request path below the document root
// for Directory, the full file path for File, the caller-chosen key for
// If) no longer matches.
type WalkCache struct {
	Phase          WalkPhase
	CachedKey      string
	SectionsTested int
	BaseConfig     *PerDirConfig
	ResultConfig   *PerDirConfig
	Walked         []MatchedSection
	Prev           *WalkCache
	Count          int
}

// NewWalkCache starts an empty cache for the given phase, seeded from the
// section tree's top-level config.
func NewWalkCache(phase WalkPhase, base *PerDirConfig) *WalkCache {
	return &WalkCache{Phase: phase, BaseConfig: base}
}

// Hit reports whether this cache can be reused verbatim for key: the key
// must match exactly, matching prep_walk_cache's single string comparison
// rather than any kind of prefix or fuzzy match.
func (wc *WalkCache) Hit(key string) bool {
	return wc != nil && wc.ResultConfig != nil && wc.CachedKey == key
}

// InheritFrom returns prev unchanged if it was computed at the same
// generation count as count, the condition under which a sub-request (or
// an internal redirect that reused the same main request) may reuse its
// parent's walk cache instead of re-walking the section tree, mirroring
// request.c's count-matching reuse of cache entries across sub-requests.
func InheritFrom(prev *WalkCache, count int) *WalkCache {
	if prev != nil && prev.Count == count {
		return prev
	}
	return nil
}

// Reset clears a cache to force a full re-walk, used when a component
// upstream of this phase (e.g. a changed Location result feeding into the
// Directory walk) invalidates whatever was cached here.
func (wc *WalkCache) Reset(key string, base *PerDirConfig) {
	wc.CachedKey = key
	wc.SectionsTested = 0
	wc.BaseConfig = base
	wc.ResultConfig = nil
	wc.Walked = nil
}
