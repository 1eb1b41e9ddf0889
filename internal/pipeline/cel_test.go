package pipeline

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestCompileIfEvaluatesRequestAttributes(t *testing.T) {
	prog, err := CompileIf(`method == "GET" && path.startsWith("/admin")`)
	require.NoError(t, err)

	ok, err := prog.Eval(map[string]any{"method": "GET", "path": "/admin/panel"})
	require.NoError(t, err)
	require.True(t, ok)

	ok, err = prog.Eval(map[string]any{"method": "POST", "path": "/admin/panel"})
	require.NoError(t, err)
	require.False(t, ok)
}

func TestCompileIfRejectsMalformedExpression(t *testing.T) {
	_, err := CompileIf("method ==")
	require.Error(t, err)
}
