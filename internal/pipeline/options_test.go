package pipeline

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestMergeOptionsUnsetInherits(t *testing.T) {
	parent := OptionsConfig{Opts: OptIndexes | OptFollowSymLinks}
	child := OptionsConfig{Unset: true}
	got := MergeOptions(parent, child)
	require.Equal(t, parent.Opts, got.Opts)
}

func TestMergeOptionsOverwriteReplaces(t *testing.T) {
	parent := OptionsConfig{Opts: OptIndexes | OptFollowSymLinks}
	child := OptionsConfig{Opts: OptExecCGI}
	got := MergeOptions(parent, child)
	require.Equal(t, OptExecCGI, got.Opts)
	require.False(t, got.Opts.Has(OptIndexes))
}

func TestMergeOptionsAdditiveAdjustsParent(t *testing.T) {
	parent := OptionsConfig{Opts: OptIndexes | OptFollowSymLinks}
	child := OptionsConfig{Add: OptExecCGI, Remove: OptIndexes}
	got := MergeOptions(parent, child)
	require.True(t, got.Opts.Has(OptFollowSymLinks))
	require.True(t, got.Opts.Has(OptExecCGI))
	require.False(t, got.Opts.Has(OptIndexes))
}
