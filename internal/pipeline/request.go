// Package pipeline implements the per-request processing state machine:
// path normalization, the four cached configuration walks, symlink
// policy, the auth protocol, and the sub-request mechanism that lets one
// phase resolve a sibling URI or file without a new network round trip.
package pipeline

import (
	"net/http"
	"time"

	"github.com/google/uuid"
)

// Request is the per-request record the whole pipeline operates on. It is
// deliberately a plain struct rather than something carried entirely in
// context.Context: the walk caches and Prev/Main/Next links need stable
// identity across the lifetime of a request and any sub-requests it
// spawns, the same way request_rec does in the original design.
type Request struct {
	ID     string
	Method string
	RawURI string // as received, before C1 normalization
	URI    string // normalized path, set once C1 runs
	Header http.Header

	Notes         map[string]string
	SubprocessEnv map[string]any

	PerDirConfig *PerDirConfig

	LocationCache  *WalkCache
	DirectoryCache *WalkCache
	FileCache      *WalkCache
	IfCache        *WalkCache

	Filename string
	User     string
	AuthType string
	Mtime    time.Time

	RemoteIP string

	// Prev links to the request this one was produced from by an internal
	// redirect; Main links to the request a sub-request was spawned from
	// (TopMain follows these links to the outermost one); Next is the
	// reverse of Prev. Exactly one of Prev/Main
	// is non-nil for any non-initial request.
	Prev *Request
	Main *Request
	Next *Request

	count int // generation counter; see WalkCache.Count / InheritFrom
}

// NewRequest builds the initial (non-sub-) request for one incoming HTTP
// request.
func NewRequest(method, rawURI string, header http.Header, remoteIP string) *Request {
	return &Request{
		ID:            uuid.NewString(),
		Method:        method,
		RawURI:        rawURI,
		Header:        header,
		RemoteIP:      remoteIP,
		Notes:         make(map[string]string),
		SubprocessEnv: make(map[string]any),
	}
}

// IsInitial reports whether this request is the original request for the
// connection, as opposed to an internal redirect or a sub-request,
// mirroring ap_is_initial_req.
func (r *Request) IsInitial() bool {
	return r.Prev == nil && r.Main == nil
}

// TopMain walks Main links up to the outermost request a chain of
// sub-requests was spawned from, or r itself if r is not a sub-request.
func (r *Request) TopMain() *Request {
	cur := r
	for cur.Main != nil {
		cur = cur.Main
	}
	return cur
}

// SomeAuthnRequired reports whether, given the effective PerDirConfig,
// authentication would be invoked at all for this request, without
// performing it or mutating User/AuthType. Content handlers use this to
// decide whether to suppress a "log in" affordance, the way
// ap_some_authn_required lets a module ask the same question.
func (r *Request) SomeAuthnRequired() bool {
	return r.PerDirConfig != nil && r.PerDirConfig.Auth != nil
}

// UpdateMtime folds a dependency's modification time into this request
// (and, if this is a sub-request, into its top-level Main request too),
// the way ap_update_mtime lets an included sub-request influence the
// Last-Modified header computed for the response as a whole.
func (r *Request) UpdateMtime(t time.Time) {
	if t.After(r.Mtime) {
		r.Mtime = t
	}
	if r.Main != nil {
		r.Main.UpdateMtime(t)
	}
}
