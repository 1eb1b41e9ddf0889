package basicauth

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/sudip-ibm/httpd/internal/pipeline"
	"github.com/stretchr/testify/require"
)

func TestCheckUserIDAcceptsCorrectCredentials(t *testing.T) {
	p := &Provider{Username: "alice", Password: "hunter2", Realm: "test"}
	req := httptest.NewRequest(http.MethodGet, "/secret", nil)
	req.SetBasicAuth("alice", "hunter2")

	r := pipeline.NewRequest(http.MethodGet, "/secret", nil, "127.0.0.1")
	result, err := p.CheckUserID(req)(r)
	require.NoError(t, err)
	require.Equal(t, pipeline.ResultOK, result)
	require.Equal(t, "alice", r.User)
	require.Equal(t, "Basic", r.AuthType)
}

func TestCheckUserIDRejectsWrongPassword(t *testing.T) {
	p := &Provider{Username: "alice", Password: "hunter2"}
	req := httptest.NewRequest(http.MethodGet, "/secret", nil)
	req.SetBasicAuth("alice", "wrong")

	r := pipeline.NewRequest(http.MethodGet, "/secret", nil, "127.0.0.1")
	_, err := p.CheckUserID(req)(r)
	require.Error(t, err)

	var sc interface{ Status() int }
	require.ErrorAs(t, err, &sc)
	require.Equal(t, http.StatusUnauthorized, sc.Status())
}

func TestAuthCheckerRequiresListedUser(t *testing.T) {
	r := pipeline.NewRequest(http.MethodGet, "/secret", nil, "127.0.0.1")
	r.PerDirConfig = &pipeline.PerDirConfig{Auth: &pipeline.AuthRule{Require: []string{"bob"}}}
	r.User = "alice"

	result, err := AuthChecker()(r)
	require.NoError(t, err)
	require.Equal(t, pipeline.ResultDeclined, result)
}

func TestAuthCheckerAllowsAnyAuthenticatedWhenRequireEmpty(t *testing.T) {
	r := pipeline.NewRequest(http.MethodGet, "/secret", nil, "127.0.0.1")
	r.PerDirConfig = &pipeline.PerDirConfig{Auth: &pipeline.AuthRule{}}
	r.User = "alice"

	result, err := AuthChecker()(r)
	require.NoError(t, err)
	require.Equal(t, pipeline.ResultOK, result)
}
