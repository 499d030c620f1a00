package archive

import (
	"path/filepath"
	"strings"
)

// Built-in exclusions: version-control metadata, editor state, Python
// caches and virtual environments, and compiled or debug artifacts that
// must never reach the target device.
var (
	//nolint:gochecknoglobals // Static read-only rule set.
	defaultExcludedNames = []string{
		".git",
		".github",
		".vscode",
		"__pycache__",
		".mypy_cache",
		".pytest_cache",
		".venv",
		"venv",
		"terminals",
	}

	//nolint:gochecknoglobals // Static read-only rule set.
	defaultExcludedSuffixes = []string{".pyc", ".pyo", ".pdb"}
)

// Rules decides which entries are left out of the deployment archive.
// The zero value excludes nothing; use DefaultRules for the standard set.
type Rules struct {
	// names are path-component names excluded wherever they appear.
	names map[string]struct{}
	// suffixes are filename suffixes excluded regardless of directory.
	suffixes []string
}

// DefaultRules returns the standard exclusion set, extended with any
// additional names and suffixes the caller provides.
func DefaultRules(extraNames, extraSuffixes []string) *Rules {
	names := make(map[string]struct{}, len(defaultExcludedNames)+len(extraNames))
	for _, name := range defaultExcludedNames {
		names[name] = struct{}{}
	}

	for _, name := range extraNames {
		if name = strings.TrimSpace(name); name != "" {
			names[name] = struct{}{}
		}
	}

	suffixes := make([]string, 0, len(defaultExcludedSuffixes)+len(extraSuffixes))
	suffixes = append(suffixes, defaultExcludedSuffixes...)

	for _, suffix := range extraSuffixes {
		if suffix = strings.TrimSpace(suffix); suffix != "" {
			suffixes = append(suffixes, suffix)
		}
	}

	return &Rules{names: names, suffixes: suffixes}
}

// Excludes reports whether the given archive-relative path must be left out.
// A path is excluded when any of its components matches an excluded name or
// when its final component ends with an excluded suffix. Excluding a
// directory excludes its entire subtree, which the archive walk enforces by
// pruning. Pure predicate, no filesystem access.
func (r *Rules) Excludes(relPath string) bool {
	if r == nil {
		return false
	}

	relPath = filepath.ToSlash(relPath)

	for _, part := range strings.Split(relPath, "/") {
		if _, found := r.names[part]; found {
			return true
		}
	}

	base := relPath
	if i := strings.LastIndex(relPath, "/"); i >= 0 {
		base = relPath[i+1:]
	}

	for _, suffix := range r.suffixes {
		if strings.HasSuffix(base, suffix) {
			return true
		}
	}

	return false
}
