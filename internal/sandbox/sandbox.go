// Package sandbox resolves the specforge project root and validates
// that any path handed in by an operation parameter stays inside it.
// The resolution precedence and marker-walk are both spelled out
// exactly; this package has no direct analog elsewhere in the corpus
// and is written fresh in its idiom (explicit error returns, a small
// functional-option free constructor, os.Getenv read once at Resolve
// time).
package sandbox

import (
	"encoding/json"
	"os"
	"path/filepath"
	"strings"

	"github.com/specforged/specforge/internal/specerrors"
)

// markers ascended toward when locating the true project root from a
// resolved candidate directory.
var markers = []string{".git", "pyproject.toml", "package.json", "Cargo.toml", "go.mod"}

// systemDirs are rejected outright as a project root even if a
// precedence source points at them.
var systemDirs = map[string]bool{
	"/":     true,
	"/etc":  true,
	"/usr":  true,
	"/bin":  true,
	"/sbin": true,
	"/var":  true,
	"/tmp":  true,
	"/root": true,
	"/home": true,
}

const maxAscend = 64

// Sandbox validates paths against a resolved project root.
type Sandbox struct {
	root string
}

// Root returns the resolved, canonicalized project root.
func (s *Sandbox) Root() string { return s.root }

// Resolve determines the project root using the documented precedence
// chain: explicit argument > WORKSPACE_FOLDER_PATHS hint >
// SPECFORGE_PROJECT_ROOT (absolute and existing) > PWD (existing) >
// current directory. The chosen candidate is then walked upward toward
// a filesystem marker, bounded to maxAscend levels.
func Resolve(explicit string) (*Sandbox, error) {
	candidate := explicit

	if candidate == "" {
		if hint := os.Getenv("WORKSPACE_FOLDER_PATHS"); hint != "" {
			if p := firstExistingFromHint(hint); p != "" {
				candidate = p
			}
		}
	}
	if candidate == "" {
		if p := os.Getenv("SPECFORGE_PROJECT_ROOT"); p != "" && filepath.IsAbs(p) {
			if _, err := os.Stat(p); err == nil {
				candidate = p
			}
		}
	}
	if candidate == "" {
		if p := os.Getenv("PWD"); p != "" {
			if _, err := os.Stat(p); err == nil {
				candidate = p
			}
		}
	}
	if candidate == "" {
		wd, err := os.Getwd()
		if err != nil {
			return nil, specerrors.Wrap("sandbox.Resolve", specerrors.ErrFatal, err)
		}
		candidate = wd
	}

	abs, err := filepath.Abs(candidate)
	if err != nil {
		return nil, specerrors.Wrap("sandbox.Resolve", specerrors.ErrFatal, err)
	}
	canon, err := filepath.EvalSymlinks(abs)
	if err != nil {
		// Directory may not exist yet under tests; fall back to the
		// cleaned absolute path rather than failing resolution.
		canon = filepath.Clean(abs)
	}

	root := ascendToMarker(canon)

	if err := checkSafe(root); err != nil {
		return nil, err
	}

	return &Sandbox{root: root}, nil
}

// firstExistingFromHint accepts a single path, a JSON array of paths,
// or a list separated by os.PathListSeparator (":" on unix, ";" on
// windows), returning the first that exists on disk.
func firstExistingFromHint(hint string) string {
	var paths []string

	trimmed := strings.TrimSpace(hint)
	if strings.HasPrefix(trimmed, "[") {
		var arr []string
		if err := json.Unmarshal([]byte(trimmed), &arr); err == nil {
			paths = arr
		}
	}
	if len(paths) == 0 {
		sep := string(os.PathListSeparator)
		for _, candidate := range strings.Split(hint, sep) {
			if c := strings.TrimSpace(candidate); c != "" {
				paths = append(paths, c)
			}
		}
	}

	for _, p := range paths {
		p = strings.TrimSpace(p)
		if p == "" {
			continue
		}
		if _, err := os.Stat(p); err == nil {
			return p
		}
	}
	return ""
}

func ascendToMarker(start string) string {
	dir := start
	for i := 0; i < maxAscend; i++ {
		for _, m := range markers {
			if _, err := os.Stat(filepath.Join(dir, m)); err == nil {
				return dir
			}
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			break
		}
		dir = parent
	}
	// No marker found within the bound; the original candidate stands.
	return start
}

func checkSafe(root string) error {
	if countComponents(root) <= 2 {
		return specerrors.New("sandbox.Resolve", specerrors.ErrPermissionDenied, "project root too shallow: "+root)
	}
	if systemDirs[root] {
		return specerrors.New("sandbox.Resolve", specerrors.ErrPermissionDenied, "project root is a system directory: "+root)
	}
	for sysDir := range systemDirs {
		if sysDir == "/" {
			continue
		}
		if root == sysDir || strings.HasPrefix(root, sysDir+string(filepath.Separator)) {
			return specerrors.New("sandbox.Resolve", specerrors.ErrPermissionDenied, "project root is inside a system directory: "+root)
		}
	}
	return nil
}

func countComponents(p string) int {
	clean := filepath.ToSlash(filepath.Clean(p))
	clean = strings.Trim(clean, "/")
	if clean == "" {
		return 0
	}
	return len(strings.Split(clean, "/"))
}

// Validate returns the canonicalized path if p is the project root or
// a descendant of it, else a PermissionDenied error. p may be relative
// (resolved against the root) or absolute.
func (s *Sandbox) Validate(p string) (string, error) {
	var abs string
	if filepath.IsAbs(p) {
		abs = filepath.Clean(p)
	} else {
		abs = filepath.Clean(filepath.Join(s.root, p))
	}

	canon, err := filepath.EvalSymlinks(abs)
	if err != nil {
		// Target may not exist yet (about to be created); validate the
		// cleaned path as given instead.
		canon = abs
	}

	rel, err := filepath.Rel(s.root, canon)
	if err != nil || rel == ".." || strings.HasPrefix(rel, ".."+string(filepath.Separator)) {
		return "", specerrors.New("sandbox.Validate", specerrors.ErrPermissionDenied, "path escapes project root: "+p)
	}
	return canon, nil
}
