package pipeline

// IfWalk is C8: it evaluates each top-level <If>/<ElseIf>/<Else> chain in
// tree.Nodes against vars, merges the Overlay of the first branch in a
// chain whose expression evaluates true (exactly one branch per chain, as
// with Apache's if/elseif/else), and recurses into that branch's nested
// chains (an <If> nested inside another <If>), mirroring
// ap_if_walk_sub's recursive descent.
//
// A branch whose expression fails to evaluate is logged through logError
// (nil-safe) and treated as non-matching, so one malformed or
// runtime-failing condition only drops its own branch rather than
// aborting the whole walk — the spec requires the request to keep going
// as if that section had not matched, not fail closed for the entire
// request.
//
// Unlike the other three walks, an <If> walk's cache key is not a single
// string: expressions can reference any request attribute, so the cache
// is keyed by the caller on whatever subset of vars it knows is stable
// across a request's lifetime (the orchestrator uses the method and the
// normalized URI; headers are not part of the key).
func IfWalk(tree *SectionTree, cache *WalkCache, vars map[string]any, key string, logError func(error)) *PerDirConfig {
	if cache.Hit(key) {
		return cache.ResultConfig
	}
	result := tree.Root.Clone()
	walked := make([]MatchedSection, 0, len(tree.Nodes))
	for _, chain := range tree.Nodes {
		branch := firstMatchingBranch(chain, vars, logError)
		if branch == nil {
			continue
		}
		result = MergeConfig(result, branch.Overlay)
		walked = append(walked, MatchedSection{Section: branch, Config: result})

		if len(branch.Children) > 0 {
			nested := &SectionTree{Root: result, Nodes: branch.Children}
			result = ifWalkUncached(nested, vars, logError)
		}
	}
	cache.CachedKey = key
	cache.ResultConfig = result
	cache.Walked = walked
	return result
}

// ifWalkUncached is IfWalk's recursive step: nested chains have no cache
// of their own, since they only ever exist as part of their parent's
// single cache entry.
func ifWalkUncached(tree *SectionTree, vars map[string]any, logError func(error)) *PerDirConfig {
	result := tree.Root
	for _, chain := range tree.Nodes {
		branch := firstMatchingBranch(chain, vars, logError)
		if branch == nil {
			continue
		}
		result = MergeConfig(result, branch.Overlay)
		if len(branch.Children) > 0 {
			result = ifWalkUncached(&SectionTree{Root: result, Nodes: branch.Children}, vars, logError)
		}
	}
	return result
}

// firstMatchingBranch evaluates an <If> followed by its <ElseIf>/<Else>
// alternatives (chain.Branches, kept apart from Children since
// If/ElseIf/Else are siblings not descendants) and returns the first one whose expression is true, or whose Expr is
// empty (an <Else>, unconditionally true). A branch whose Eval errors is
// reported through logError and skipped, same as a false result, rather
// than stopping the search.
func firstMatchingBranch(chain *Section, vars map[string]any, logError func(error)) *Section {
	if chain.Kind != KindIf {
		return nil
	}
	candidates := append([]*Section{chain}, chain.elseBranches()...)
	for _, c := range candidates {
		if c.Expr == "" {
			return c
		}
		if c.Program == nil {
			continue
		}
		ok, err := c.Program.Eval(vars)
		if err != nil {
			if logError != nil {
				logError(err)
			}
			continue
		}
		if ok {
			return c
		}
	}
	return nil
}

// elseBranches is a helper distinguishing "children that are nested <If>
// sections under a matched branch" from "sibling ElseIf/Else branches of
// this chain." Branches are recorded on Section.Branches; Children is
// reserved for genuinely nested sections. See Section's doc comment.
func (s *Section) elseBranches() []*Section {
	return s.Branches
}
