package pipeline

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestMergeConfigPreservesUnsetFieldsFromBase(t *testing.T) {
	base := &PerDirConfig{
		SymLinks:      SymAllowed,
		Satisfy:       SatisfyAny,
		AllowOverride: true,
		HiddenFiles:   true,
	}
	overlay := &PerDirConfig{Indexes: []string{"index.html"}}

	result := MergeConfig(base, overlay)
	require.Equal(t, SymAllowed, result.SymLinks)
	require.Equal(t, SatisfyAny, result.Satisfy)
	require.True(t, result.AllowOverride)
	require.True(t, result.HiddenFiles)
	require.Equal(t, []string{"index.html"}, result.Indexes)
}

func TestMergeConfigAppliesExplicitlySetFields(t *testing.T) {
	base := &PerDirConfig{
		SymLinks:      SymAllowed,
		Satisfy:       SatisfyAny,
		AllowOverride: true,
		HiddenFiles:   true,
	}
	overlay := &PerDirConfig{
		SymLinks:      SymForbidden,
		SymLinksSet:   true,
		Satisfy:       SatisfyAll,
		SatisfySet:    true,
		AllowOverride: false,
		AllowOverrideSet: true,
		HiddenFiles:   false,
		HiddenFilesSet: true,
	}

	result := MergeConfig(base, overlay)
	require.Equal(t, SymForbidden, result.SymLinks)
	require.Equal(t, SatisfyAll, result.Satisfy)
	require.False(t, result.AllowOverride)
	require.False(t, result.HiddenFiles)
}

func TestMergeConfigForceAuthnRequiresExplicitSet(t *testing.T) {
	base := &PerDirConfig{ForceAuthn: true}
	overlay := &PerDirConfig{Indexes: []string{"index.html"}}

	result := MergeConfig(base, overlay)
	require.True(t, result.ForceAuthn, "ForceAuthn must survive an overlay that never mentioned it")
}

func TestMergeConfigEncodedSlashesRequireExplicitSet(t *testing.T) {
	base := &PerDirConfig{AllowEncodedSlashes: true, DecodeEncodedSlashes: true}
	overlay := &PerDirConfig{}

	result := MergeConfig(base, overlay)
	require.True(t, result.AllowEncodedSlashes)
	require.True(t, result.DecodeEncodedSlashes)

	overlay2 := &PerDirConfig{AllowEncodedSlashesSet: true, DecodeEncodedSlashesSet: true}
	result2 := MergeConfig(base, overlay2)
	require.False(t, result2.AllowEncodedSlashes)
	require.False(t, result2.DecodeEncodedSlashes)
}
