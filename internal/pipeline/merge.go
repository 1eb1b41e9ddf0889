package pipeline

// DirectiveMerger folds one concern of an overlay PerDirConfig onto the
// working result, in the style of Apache's per-module merge callback
// invoked by ap_merge_per_dir_configs: each directive only ever touches
// the fields it owns, so unrelated directives can be registered and
// reordered independently.
type DirectiveMerger func(result, base, overlay *PerDirConfig)

var directiveRegistry []DirectiveMerger

// RegisterDirective adds a merge step to the end of the fold order. Order
// matters only between directives that read each other's fields; none of
// the directives registered here do, so registration order is simply
// registration order below.
func RegisterDirective(m DirectiveMerger) {
	directiveRegistry = append(directiveRegistry, m)
}

func init() {
	RegisterDirective(mergeOptionsDirective)
	RegisterDirective(mergeSymLinksDirective)
	RegisterDirective(mergeSatisfyDirective)
	RegisterDirective(mergeAuthDirective)
	RegisterDirective(mergeRootDirective)
	RegisterDirective(mergeIndexesDirective)
	RegisterDirective(mergeOverrideDirective)
	RegisterDirective(mergeHiddenFilesDirective)
	RegisterDirective(mergeEncodedSlashesDirective)
}

func mergeOptionsDirective(result, _, overlay *PerDirConfig) {
	result.Options = MergeOptions(result.Options, overlay.Options)
}

// mergeSymLinksDirective, like every directive below guarded by a "Set"
// flag, only overwrites result's field when the overlay section actually
// carried this directive — a section that never mentioned sym_links must
// leave the inherited parent/root policy alone rather than resetting it
// to SymForbidden, the zero value.
func mergeSymLinksDirective(result, _, overlay *PerDirConfig) {
	if overlay.SymLinksSet {
		result.SymLinks = overlay.SymLinks
	}
}

func mergeSatisfyDirective(result, _, overlay *PerDirConfig) {
	if overlay.SatisfySet {
		result.Satisfy = overlay.Satisfy
	}
}

func mergeAuthDirective(result, _, overlay *PerDirConfig) {
	if overlay.Auth != nil {
		result.Auth = overlay.Auth
	}
	if overlay.ForceAuthnSet {
		result.ForceAuthn = overlay.ForceAuthn
	}
}

func mergeRootDirective(result, _, overlay *PerDirConfig) {
	if overlay.Root != "" {
		result.Root = overlay.Root
	}
}

func mergeIndexesDirective(result, _, overlay *PerDirConfig) {
	if len(overlay.Indexes) > 0 {
		result.Indexes = append([]string(nil), overlay.Indexes...)
	}
}

func mergeOverrideDirective(result, _, overlay *PerDirConfig) {
	if overlay.AllowOverrideSet {
		result.AllowOverride = overlay.AllowOverride
	}
}

func mergeHiddenFilesDirective(result, _, overlay *PerDirConfig) {
	if overlay.HiddenFilesSet {
		result.HiddenFiles = overlay.HiddenFiles
	}
}

func mergeEncodedSlashesDirective(result, _, overlay *PerDirConfig) {
	if overlay.AllowEncodedSlashesSet {
		result.AllowEncodedSlashes = overlay.AllowEncodedSlashes
	}
	if overlay.DecodeEncodedSlashesSet {
		result.DecodeEncodedSlashes = overlay.DecodeEncodedSlashes
	}
}

// MergeConfig folds overlay onto base through every registered directive,
// returning a fresh PerDirConfig that leaves both inputs untouched. A nil
// overlay (a section whose children matched but which itself carried no
// directives) leaves base unchanged.
func MergeConfig(base, overlay *PerDirConfig) *PerDirConfig {
	result := base.Clone()
	if overlay == nil {
		return result
	}
	for _, m := range directiveRegistry {
		m(result, base, overlay)
	}
	return result
}
