package pipeline

import (
	"fmt"

	"github.com/sudip-ibm/httpd/internal/httperror"
)

// maxSubrequestDepth bounds how many sub-requests may chain off one
// another (a sub-request that itself looks up a sub-request, and so on),
// guarding against a misconfigured section tree causing unbounded
// recursion the way request.c guards make_sub_request with a nesting
// counter.
const maxSubrequestDepth = 10

func depth(r *Request) int {
	n := 0
	for cur := r; cur.Main != nil; cur = cur.Main {
		n++
	}
	return n
}

// newSubRequest is the shared factory behind every NewSubRequestFor*
// constructor: it clones the parent's notes/environment, links the child
// to its Main, and inherits every walk cache (Location/Directory/File/If)
// whose generation count still matches the parent's — the same
// reuse-if-unchanged rule request.c applies uniformly regardless of
// whether the sub-request came from ap_sub_req_lookup_uri,
// ap_sub_req_lookup_file, or ap_sub_req_lookup_dirent, so every
// constructor built on top of this one gets it for free.
func newSubRequest(parent *Request, method, uri string) (*Request, error) {
	if depth(parent)+1 > maxSubrequestDepth {
		return nil, httperror.New(500, fmt.Sprintf("subrequest: nesting exceeds %d", maxSubrequestDepth))
	}
	sub := NewRequest(method, uri, parent.Header.Clone(), parent.RemoteIP)
	sub.Main = parent
	sub.count = parent.count
	for k, v := range parent.Notes {
		sub.Notes[k] = v
	}
	for k, v := range parent.SubprocessEnv {
		sub.SubprocessEnv[k] = v
	}
	sub.LocationCache = InheritFrom(parent.LocationCache, sub.count)
	sub.DirectoryCache = InheritFrom(parent.DirectoryCache, sub.count)
	sub.FileCache = InheritFrom(parent.FileCache, sub.count)
	sub.IfCache = InheritFrom(parent.IfCache, sub.count)
	return sub, nil
}

// NewSubRequestForURI is ap_sub_req_lookup_uri: resolve a URI as if it had
// been requested directly, without a new network round trip. The caller
// still has to run the resulting request through the orchestrator (C9) to
// populate PerDirConfig/Filename/etc.
func NewSubRequestForURI(parent *Request, uri string) (*Request, error) {
	return newSubRequest(parent, "GET", uri)
}

// NewSubRequestForFile is ap_sub_req_lookup_file: build a sub-request for
// a filesystem path. filename is used as given, both as the child's
// Filename and as its URI; it is not resolved against the parent's
// directory.
func NewSubRequestForFile(parent *Request, filename string) (*Request, error) {
	sub, err := newSubRequest(parent, "GET", filename)
	if err != nil {
		return nil, err
	}
	sub.Filename = filename
	return sub, nil
}

// NewSubRequestForDirent is ap_sub_req_lookup_dirent: the entry point for
// a single directory entry discovered while generating a listing. It
// passes dirent to NewSubRequestForFile unchanged; the entry name is not
// joined onto the parent's directory, so callers pass the full path.
func NewSubRequestForDirent(parent *Request, dirent string) (*Request, error) {
	return NewSubRequestForFile(parent, dirent)
}

// NewSubRequestMethodURI is ap_sub_req_method_uri: like
// NewSubRequestForURI but for a method other than GET, used by content
// handlers that need to know how a different verb would be authorized
// against the same URI.
func NewSubRequestMethodURI(parent *Request, method, uri string) (*Request, error) {
	return newSubRequest(parent, method, uri)
}
