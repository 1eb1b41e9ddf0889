package logging

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestNewBuildsProductionLogger(t *testing.T) {
	logger, err := New(false)
	require.NoError(t, err)
	require.NotNil(t, logger)
}

func TestNewBuildsDevelopmentLogger(t *testing.T) {
	logger, err := New(true)
	require.NoError(t, err)
	require.NotNil(t, logger)
}

func TestCodeFieldCarriesStableString(t *testing.T) {
	f := Code("couldn't translate")
	require.Equal(t, "code", f.Key)
	require.Equal(t, "couldn't translate", f.String)
}
