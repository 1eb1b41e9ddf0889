package pipeline

import (
	"net/url"
	"regexp"
	"strings"

	"github.com/sudip-ibm/httpd/internal/httperror"
)

// encodedSlashPattern matches a percent-encoded '/' in either case, the
// way request.c's ap_unescape_url_keep2f distinguishes %2f/%2F from every
// other escape before the rest of normalization runs.
var encodedSlashPattern = regexp.MustCompile(`(?i)%2f`)

// NormalizePath is C1: it turns a raw request-line URI path into the
// decoded, collapsed path the rest of the pipeline walks against. It never
// consults the filesystem — that is C4/C6's job once a candidate path
// exists.
//
// allowEncodedSlashes/decodeEncodedSlashes gate how a percent-encoded '/'
// is handled, mirroring AllowEncodedSlashes/merge_slashes in request.c: a
// request whose URI carries %2f is rejected with 404 unless encoded
// slashes are allowed, and even when allowed the token is only actually
// decoded into a real path separator when decodeEncodedSlashes is set —
// otherwise it survives normalization as a literal, inert %2f so it never
// participates in segment splitting.
//
// Percent-decoding happens first (rejecting %00 outright, the way
// ap_unescape_url refuses an embedded NUL), then dot-segment collapse,
// mirroring path.Clean but keeping a record of whether the original had a
// trailing slash, which downstream directory-vs-file decisions (C6)
// depend on. A ".." that would climb above the root is rejected rather
// than clamped, since silently clamping it would let a crafted path probe
// around the document root undetected.
func NormalizePath(rawPath string, allowEncodedSlashes, decodeEncodedSlashes bool) (string, error) {
	if strings.Contains(rawPath, "%00") || strings.ContainsRune(rawPath, 0) {
		return "", httperror.New(400, "path: embedded NUL")
	}

	hasEncodedSlash := encodedSlashPattern.MatchString(rawPath)
	if hasEncodedSlash && !allowEncodedSlashes {
		return "", httperror.New(404, "path: encoded slash not allowed")
	}

	var decoded string
	var err error
	if hasEncodedSlash && !decodeEncodedSlashes {
		decoded, err = unescapeExceptEncodedSlash(rawPath)
	} else {
		decoded, err = url.PathUnescape(rawPath)
	}
	if err != nil {
		return "", httperror.Wrap(400, "path: bad escape", err)
	}
	if strings.ContainsRune(decoded, 0) {
		return "", httperror.New(400, "path: embedded NUL after decode")
	}

	hadTrailingSlash := len(decoded) > 1 && strings.HasSuffix(decoded, "/")
	clean, err := cleanMaskedPath(decoded, "://")
	if err != nil {
		return "", err
	}
	if hadTrailingSlash && !strings.HasSuffix(clean, "/") {
		clean += "/"
	}
	return clean, nil
}

// unescapeExceptEncodedSlash percent-decodes every escape in s except a
// literal %2f/%2F, which is left untouched so it cannot later be mistaken
// for a path separator by cleanPath.
func unescapeExceptEncodedSlash(s string) (string, error) {
	var b strings.Builder
	last := 0
	for _, loc := range encodedSlashPattern.FindAllStringIndex(s, -1) {
		part, err := url.PathUnescape(s[last:loc[0]])
		if err != nil {
			return "", err
		}
		b.WriteString(part)
		b.WriteString(s[loc[0]:loc[1]])
		last = loc[1]
	}
	rest, err := url.PathUnescape(s[last:])
	if err != nil {
		return "", err
	}
	b.WriteString(rest)
	return b.String(), nil
}

// cleanMaskedPath runs path.Clean's collapse-slash / eliminate-dot /
// eliminate-dot-dot normalization while temporarily masking any
// occurrence of the given substrings, so that e.g. a URI argument
// embedding "http://" is not mangled by slash collapsing. Adapted from
// the teacher's CleanMaskedPath, replacing its random-string masking
// (which this package has no pool allocator to amortize) with a
// placeholder that cannot collide with path syntax.
func cleanMaskedPath(p string, masks ...string) (string, error) {
	const placeholder = "\x00MASK\x00"
	replaced := false
	for _, m := range masks {
		if strings.Contains(p, m) {
			p = strings.ReplaceAll(p, m, placeholder)
			replaced = true
		}
	}
	p, err := cleanPath(p)
	if err != nil {
		return "", err
	}
	if replaced {
		for _, m := range masks {
			p = strings.ReplaceAll(p, placeholder, m)
		}
	}
	return p, nil
}

// cleanPath is path.Clean restricted to '/'-separated URL paths (path.Clean
// already assumes this), kept as its own function so NormalizePath's
// trailing-slash bookkeeping reads clearly against it. For a rooted path,
// a ".." segment that would pop above an already-empty stack is an attempt
// to climb above the document root and is rejected outright, matching
// request.c's NOT_ABOVE_ROOT check in ap_getparents.
func cleanPath(p string) (string, error) {
	if p == "" {
		return "/", nil
	}
	segments := strings.Split(p, "/")
	out := make([]string, 0, len(segments))
	rooted := strings.HasPrefix(p, "/")
	for _, seg := range segments {
		switch seg {
		case "", ".":
			continue
		case "..":
			if len(out) > 0 && out[len(out)-1] != ".." {
				out = out[:len(out)-1]
			} else if rooted {
				return "", httperror.New(400, "path: .. climbs above root")
			} else {
				out = append(out, "..")
			}
		default:
			out = append(out, seg)
		}
	}
	result := strings.Join(out, "/")
	if rooted {
		result = "/" + result
	}
	if result == "" {
		if rooted {
			return "/", nil
		}
		return ".", nil
	}
	return result, nil
}

// EscapesRoot reports whether a path still contains a leading ".."
// component, which can only happen for a non-rooted path produced outside
// NormalizePath (a sub-request filename assembled directly, say) — C6's
// directory walk uses this as a second line of defense against resolving
// any such path above the configured document root.
func EscapesRoot(cleanedPath string) bool {
	return cleanedPath == ".." || strings.HasPrefix(cleanedPath, "../")
}
