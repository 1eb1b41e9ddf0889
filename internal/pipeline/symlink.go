package pipeline

import (
	"io/fs"
	"os"
	"syscall"

	"github.com/sudip-ibm/httpd/internal/httperror"
)

// ResolveSymlink is C4: given the symlink policy in effect for a directory
// level and the lstat/stat pair for one path segment, it decides whether
// that segment may be followed.
//
//   - SymForbidden: any symlink segment is denied outright.
//   - SymAllowed: every symlink is followed.
//   - SymOwnerMatch: a symlink is followed only if its target has the same
//     owning UID as the symlink itself (resolve_symlink's "owner match").
//
// lst is always the lstat of the segment (so its Mode() reports whether it
// is itself a symlink); st is the stat of what it resolves to, required
// only for the SymOwnerMatch branch.
func ResolveSymlink(policy SymPolicy, lst, st os.FileInfo) error {
	if lst == nil {
		return httperror.Forbidden("symlink: missing lstat", nil)
	}
	if lst.Mode()&fs.ModeSymlink == 0 {
		return nil // not a symlink, nothing to police
	}
	switch policy {
	case SymAllowed:
		return nil
	case SymForbidden:
		return httperror.New(403, "symlink: forbidden")
	case SymOwnerMatch:
		if st == nil {
			return httperror.Forbidden("symlink: missing stat for owner check", nil)
		}
		ok, err := sameOwner(lst, st)
		if err != nil {
			return httperror.Forbidden("symlink: owner check failed", err)
		}
		if !ok {
			return httperror.New(403, "symlink: owner mismatch")
		}
		return nil
	default:
		return httperror.New(403, "symlink: unknown policy")
	}
}

// sameOwner compares the POSIX UID of a symlink and its target. On a
// platform where the underlying Sys() value is not *syscall.Stat_t (no
// POSIX UID concept), it returns false with no error: SymOwnerMatch then
// degrades to "never grants," the conservative choice. Nothing logs this
// fallback.
func sameOwner(lst, st os.FileInfo) (bool, error) {
	lsys, lok := lst.Sys().(*syscall.Stat_t)
	ssys, sok := st.Sys().(*syscall.Stat_t)
	if !lok || !sok {
		return false, nil
	}
	return lsys.Uid == ssys.Uid, nil
}
