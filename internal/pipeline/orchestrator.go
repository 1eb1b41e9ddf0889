package pipeline

import (
	"net/http"
	"net/url"
	"path/filepath"
	"strings"

	"github.com/sudip-ibm/httpd/internal/httperror"
	"go.uber.org/zap"
)

// HookResult is what one phase hook reports back to the phase runner,
// collapsing Apache's OK/DECLINED/DONE trio into a single value instead
// of the plain bool this package started with: DECLINED lets the next
// hook in the phase run, OK satisfies the phase and stops it there, and
// DONE additionally tells the orchestrator to skip the URI-transformation
// work that would otherwise follow (pre_translate_name's DONE return
// meaning "I've already produced the final URI, don't run
// translate_name").
type HookResult int

const (
	ResultDeclined HookResult = iota
	ResultOK
	ResultDone
)

// grants reports whether a HookResult should count as "this hook granted
// the request" for the access-control hooks, where OK and DONE are both
// treated as a grant (a hook has no reason to return DONE from an
// access-control phase, but treating it the same as OK keeps the phase
// runner's contract uniform rather than special-casing it away).
func (res HookResult) grants() bool {
	return res == ResultOK || res == ResultDone
}

// Hook is one pluggable step of a phase. A non-nil err short-circuits the
// whole phase with the status it carries; otherwise the returned
// HookResult decides whether the next registered hook in the phase runs.
type Hook func(r *Request) (HookResult, error)

// noteStaleUser is the key a module can set on Request.Notes to flag
// that it populated Request.User speculatively, ahead of the real authn
// phase; the orchestrator clears User before the satisfy-mode switch
// runs if this note is present, the way BASIC_AUTH_PW_NOTE defends
// against a stale username leaking into an authorization decision that
// never actually verified a password.
const noteStaleUser = "pending_user"

// Pipeline wires the section trees and hook phases into C9's request
// orchestrator: the single fixed-order state machine every request (main
// or sub-) is run through.
type Pipeline struct {
	DocumentRoot string
	LocationTree *SectionTree
	DirectoryTree *SectionTree
	FileTree     *SectionTree
	IfTree       *SectionTree
	FileSystem   FileSystem
	Htaccess     HtaccessLoader
	Logger       *zap.Logger

	PreTranslateName []Hook
	TranslateName    []Hook
	MapToStorage     []Hook
	HeaderParser     []Hook
	TokenChecker     []Hook
	AccessChecker    []Hook
	AccessCheckerEx  []Hook
	ForceAuthn       []Hook
	CheckUserID      []Hook
	AuthChecker      []Hook
	TypeChecker      []Hook
	PostPerDirConfig []Hook
	Fixups           []Hook
}

// NewPipeline builds a Pipeline with the bundled FileSystem/Htaccess
// defaults; section trees must still be assigned by the caller (normally
// internal/config's loader).
func NewPipeline(documentRoot string, logger *zap.Logger) *Pipeline {
	return &Pipeline{
		DocumentRoot: documentRoot,
		FileSystem:   OSFileSystem{},
		Htaccess:     NoHtaccess{},
		Logger:       logger,
	}
}

// Process runs r through the full per-request state machine, in the
// fixed order ap_process_request_internal lays out: normalize →
// Location/If walk → pre_translate_name → Location/If walk again →
// translate_name → map_to_storage (Directory/File walk) →
// Location/If walk a third time → post_perdir_config → header_parser
// (main requests only) → access control → type_checker → fixups. The
// Location/If walk repeats at three points because each of
// pre_translate_name/translate_name is free to change r.URI, and the
// per-dir config driving the rest of the request must reflect whatever
// URI is current when each subsequent phase runs. It returns the HTTP
// status to write and, on any phase failure, the error that produced it.
func (p *Pipeline) Process(r *Request) (int, error) {
	log := p.Logger
	if log == nil {
		log = zap.NewNop()
	}
	log = log.With(zap.String("request_id", r.ID), zap.String("uri", r.RawURI))

	allowSlashes, decodeSlashes := false, false
	if r.PerDirConfig != nil {
		allowSlashes = r.PerDirConfig.AllowEncodedSlashes
		decodeSlashes = r.PerDirConfig.DecodeEncodedSlashes
	}
	uri, err := NormalizePath(r.RawURI, allowSlashes, decodeSlashes)
	if err != nil {
		return httperror.StatusOf(err), err
	}
	r.URI = uri

	p.applyLocationAndIf(r, log)

	// per_dir_config is snapshotted before pre_translate_name and restored
	// unconditionally after, so a hook that mutates it for its own
	// purposes never leaks that mutation into the rest of the pipeline.
	snapshot := r.PerDirConfig
	preResult, status, err := runPhase(r, p.PreTranslateName)
	if err != nil {
		return status, err
	}
	r.PerDirConfig = snapshot

	p.applyLocationAndIf(r, log)

	if preResult != ResultDone {
		if _, status, err := runPhase(r, p.TranslateName); err != nil {
			return status, err
		}
	}

	if err := p.mapToStorage(r); err != nil {
		return httperror.StatusOf(err), err
	}
	if _, status, err := runPhase(r, p.MapToStorage); err != nil {
		return status, err
	}

	p.applyLocationAndIf(r, log)

	if _, status, err := runPhase(r, p.PostPerDirConfig); err != nil {
		return status, err
	}

	if r.IsInitial() {
		if _, status, err := runPhase(r, p.HeaderParser); err != nil {
			return status, err
		}
	}

	if status, err := p.runAccessControl(r); err != nil {
		log.Info("access denied", zap.Int("status", status), zap.Error(err))
		return status, err
	}

	if _, status, err := runPhase(r, p.TypeChecker); err != nil {
		return status, err
	}
	if _, status, err := runPhase(r, p.Fixups); err != nil {
		return status, err
	}
	return http.StatusOK, nil
}

// applyLocationAndIf re-runs C5 (Location walk) and C8 (If walk) against
// r's current URI/PerDirConfig. Both walks are cheap to repeat: a WalkCache
// hit on an unchanged key returns immediately, so calling this at each of
// the spec's three checkpoints only does real work the checkpoints where
// a preceding hook actually changed something.
func (p *Pipeline) applyLocationAndIf(r *Request, log *zap.Logger) {
	if p.LocationTree != nil {
		if r.LocationCache == nil {
			r.LocationCache = NewWalkCache(PhaseLocation, p.LocationTree.Root)
		}
		r.PerDirConfig = LocationWalk(p.LocationTree, r.LocationCache, r.URI, r)
	}
	if p.IfTree != nil {
		if r.IfCache == nil {
			r.IfCache = NewWalkCache(PhaseIf, r.PerDirConfig)
		}
		vars := ifVars(r)
		r.PerDirConfig = IfWalk(p.IfTree, r.IfCache, vars, ifCacheKey(r), func(err error) {
			log.Warn("if expression evaluation failed; treating section as non-matching", zap.Error(err))
		})
	}
}

// mapToStorage resolves r.URI to a candidate filesystem path under the
// document root and runs C6/C7 (Directory then File walk) against it,
// the core of Apache's core_map_to_storage.
func (p *Pipeline) mapToStorage(r *Request) error {
	rel := strings.TrimPrefix(r.URI, "/")
	candidate := filepath.Join(p.DocumentRoot, rel)
	r.Filename = candidate

	if p.DirectoryTree != nil {
		if r.DirectoryCache == nil {
			r.DirectoryCache = NewWalkCache(PhaseDirectory, p.DirectoryTree.Root)
		}
		cfg, err := DirectoryWalk(p.FileSystem, p.DirectoryTree, r.DirectoryCache, p.Htaccess, p.DocumentRoot, r.URI, r)
		if err != nil {
			return err
		}
		r.PerDirConfig = cfg
	}
	if p.FileTree != nil {
		if r.FileCache == nil {
			r.FileCache = NewWalkCache(PhaseFile, r.PerDirConfig)
		}
		r.PerDirConfig = FileWalk(p.FileTree, r.FileCache, r.PerDirConfig, candidate, r)
	}
	return nil
}

// runAccessControl implements the spec's two-mode Satisfy protocol: under
// SatisfyAll, both the access checkers and the authn/authz checkers (if
// any auth is configured) must succeed; under SatisfyAny, a grant from
// either the access checkers or the access_checker_ex set is enough
// *unless* ForceAuthn is set, which forces check_user_id/auth_checker to
// still run even though access was otherwise already granted anonymously.
// access_checker_ex mirrors mod_access_compat's finer-grained hook: it
// only factors into the decision under SatisfyAny, the mode where an
// early, non-authoritative grant actually matters.
func (p *Pipeline) runAccessControl(r *Request) (int, error) {
	if _, stale := r.Notes[noteStaleUser]; stale {
		r.User = ""
		delete(r.Notes, noteStaleUser)
	}

	if _, status, err := runPhase(r, p.TokenChecker); err != nil {
		return status, err
	}

	accessGranted, err := anyHookGrants(r, p.AccessChecker)
	if err != nil {
		return httperror.StatusOf(err), err
	}

	cfg := r.PerDirConfig
	satisfyAny := cfg != nil && cfg.Satisfy == SatisfyAny

	if satisfyAny && len(p.AccessCheckerEx) > 0 {
		exGranted, err := anyHookGrants(r, p.AccessCheckerEx)
		if err != nil {
			return httperror.StatusOf(err), err
		}
		accessGranted = accessGranted || exGranted
	}

	if cfg == nil || cfg.Auth == nil {
		if cfg != nil && cfg.Satisfy == SatisfyAll && !accessGranted && (len(p.AccessChecker) > 0 || len(p.AccessCheckerEx) > 0) {
			return http.StatusForbidden, httperror.New(403, "access: denied")
		}
		return http.StatusOK, nil
	}

	forceAuthn, _ := anyHookGrants(r, p.ForceAuthn)
	forceAuthn = forceAuthn || cfg.ForceAuthn

	if satisfyAny && accessGranted && !forceAuthn {
		return http.StatusOK, nil
	}
	if !satisfyAny && !accessGranted && len(p.AccessChecker) > 0 {
		return http.StatusForbidden, httperror.New(403, "access: denied")
	}

	if inheritedAuth(r) {
		return http.StatusOK, nil
	}

	if _, status, err := runPhase(r, p.CheckUserID); err != nil {
		return status, err
	}
	authorized, err := anyHookGrants(r, p.AuthChecker)
	if err != nil {
		return httperror.StatusOf(err), err
	}
	if !authorized {
		if satisfyAny && accessGranted {
			return http.StatusOK, nil
		}
		return http.StatusForbidden, httperror.New(403, "auth: not authorized")
	}
	return http.StatusOK, nil
}

// inheritedAuth mirrors request.c's shortcut: if this request's per_dir_config
// is identical (same pointer) to the request it was produced from, the
// already-authenticated user and auth type carry over and authn is
// skipped entirely.
func inheritedAuth(r *Request) bool {
	prev := r.Prev
	if prev == nil {
		prev = r.Main
	}
	if prev == nil || prev.PerDirConfig != r.PerDirConfig || prev.User == "" {
		return false
	}
	r.User = prev.User
	r.AuthType = prev.AuthType
	return true
}

// runPhase runs hooks in order until one returns a non-DECLINED result or
// a non-nil error. It reports the result of whichever hook stopped it (or
// ResultDeclined if every hook declined), the HTTP status to use on
// error, and the error itself.
func runPhase(r *Request, hooks []Hook) (HookResult, int, error) {
	for _, h := range hooks {
		res, err := h(r)
		if err != nil {
			return res, httperror.StatusOf(err), err
		}
		if res != ResultDeclined {
			return res, http.StatusOK, nil
		}
	}
	return ResultDeclined, http.StatusOK, nil
}

func anyHookGrants(r *Request, hooks []Hook) (bool, error) {
	for _, h := range hooks {
		res, err := h(r)
		if err != nil {
			return false, err
		}
		if res.grants() {
			return true, nil
		}
	}
	return false, nil
}

func ifCacheKey(r *Request) string {
	return r.Method + " " + r.URI
}

func ifVars(r *Request) map[string]any {
	q := ""
	if u, err := url.Parse(r.RawURI); err == nil {
		q = u.RawQuery
	}
	headers := make(map[string]string, len(r.Header))
	for k := range r.Header {
		headers[k] = r.Header.Get(k)
	}
	return map[string]any{
		"path":      r.URI,
		"method":    r.Method,
		"query":     q,
		"remote_ip": r.RemoteIP,
		"header":    headers,
	}
}
