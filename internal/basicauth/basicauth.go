// Package basicauth is C15: an HTTP Basic Authentication provider
// supplying check_user_id (Provider.CheckUserID) and auth_checker
// (AuthChecker) hooks for the pipeline's auth protocol. It provides no
// token_checker hook.
package basicauth

import (
	"crypto/subtle"
	"net/http"

	"github.com/sudip-ibm/httpd/internal/pipeline"
)

// Provider holds one realm's username/password and the pipeline.Hooks
// that enforce it. Unlike the teacher's BasicAuth middleware (which
// matches resource paths itself), path scoping here is handled entirely
// by which Section's Overlay.Auth is non-nil — Provider only ever runs
// once the orchestrator has already decided authentication applies.
type Provider struct {
	Username string
	Password string
	Realm    string
}

// CheckUserID reads the Authorization header, verifies it against the
// configured credentials with a constant-time comparison (matching the
// teacher's use of crypto/subtle in PlainMatcher), and populates
// Request.User/AuthType on success.
func (p *Provider) CheckUserID(req *http.Request) pipeline.Hook {
	return func(r *pipeline.Request) (pipeline.HookResult, error) {
		username, password, ok := req.BasicAuth()
		if !ok {
			return pipeline.ResultDeclined, unauthorized(p.Realm)
		}
		if subtle.ConstantTimeCompare([]byte(username), []byte(p.Username)) != 1 ||
			subtle.ConstantTimeCompare([]byte(password), []byte(p.Password)) != 1 {
			return pipeline.ResultDeclined, unauthorized(p.Realm)
		}
		r.User = username
		r.AuthType = "Basic"
		return pipeline.ResultOK, nil
	}
}

// AuthChecker authorizes the already-identified user against the
// Require list carried on the matched section's AuthRule; an empty
// Require list means "any authenticated user is authorized."
func AuthChecker() pipeline.Hook {
	return func(r *pipeline.Request) (pipeline.HookResult, error) {
		if r.PerDirConfig == nil || r.PerDirConfig.Auth == nil {
			return pipeline.ResultOK, nil
		}
		required := r.PerDirConfig.Auth.Require
		if len(required) == 0 {
			return pipeline.ResultOK, nil
		}
		for _, name := range required {
			if name == r.User {
				return pipeline.ResultOK, nil
			}
		}
		return pipeline.ResultDeclined, nil
	}
}

// unauthorizedError carries the 401 status and the realm so the caller
// can set WWW-Authenticate before writing the response.
type unauthorizedError struct {
	realm string
}

func (e *unauthorizedError) Error() string { return "unauthorized" }
func (e *unauthorizedError) Status() int   { return http.StatusUnauthorized }
func (e *unauthorizedError) Realm() string { return e.realm }

func unauthorized(realm string) error {
	if realm == "" {
		realm = "Restricted"
	}
	return &unauthorizedError{realm: realm}
}
