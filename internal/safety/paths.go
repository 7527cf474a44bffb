package safety

import (
	"os"
	"path/filepath"
	"strings"
)

// Verdict is the outcome of checking one filesystem path.
type Verdict string

const (
	VerdictSafe      Verdict = "safe"
	VerdictDangerous Verdict = "dangerous"
	VerdictBlocked   Verdict = "blocked"
)

// PathGuard checks deletion and move targets against protected
// prefixes. All comparisons run on canonicalized paths so symlink
// indirection, casing, and trailing separators cannot bypass the
// check.
type PathGuard struct {
	protected []string // canonicalized, lowercased
}

// suspiciousDirs are path components that mark a target as dangerous
// even when it sits outside every protected prefix.
var suspiciousDirs = map[string]bool{
	"system32": true,
	"syswow64": true,
	"boot":     true,
	"recovery": true,
}

// NewPathGuard canonicalizes the configured protected prefixes. The
// running binary's own directory tree is always protected — the agent
// cannot modify its own installation.
func NewPathGuard(protectedPaths []string) *PathGuard {
	g := &PathGuard{}
	for _, p := range protectedPaths {
		if canonical, err := canonicalize(p); err == nil {
			g.protected = append(g.protected, strings.ToLower(canonical))
		}
	}
	if exe, err := os.Executable(); err == nil {
		if canonical, err := canonicalize(filepath.Dir(exe)); err == nil {
			g.protected = append(g.protected, strings.ToLower(canonical))
		}
	}
	return g
}

// Check classifies a target path. Empty or unresolvable paths and
// anything equal to or under a protected prefix come back blocked;
// paths touching suspicious system directories come back dangerous.
func (g *PathGuard) Check(path string) Verdict {
	if strings.TrimSpace(path) == "" {
		return VerdictBlocked
	}
	if isRootPath(path) {
		return VerdictBlocked
	}

	canonical, err := canonicalize(path)
	if err != nil {
		return VerdictBlocked
	}
	if isRootPath(canonical) {
		return VerdictBlocked
	}

	lower := strings.ToLower(canonical)
	for _, prot := range g.protected {
		if lower == prot || strings.HasPrefix(lower, prot+string(filepath.Separator)) {
			return VerdictBlocked
		}
	}

	for _, part := range strings.Split(lower, string(filepath.Separator)) {
		if suspiciousDirs[part] {
			return VerdictDangerous
		}
	}

	return VerdictSafe
}

// Canonical returns the canonical form of a path for rewriting into
// the sanitized action. Falls back to the input when resolution fails.
func (g *PathGuard) Canonical(path string) string {
	canonical, err := canonicalize(path)
	if err != nil {
		return path
	}
	return canonical
}

// isRootPath catches the filesystem root and drive roots in any
// casing or trailing-separator variant.
func isRootPath(path string) bool {
	p := strings.TrimSpace(path)
	p = strings.TrimRight(p, "/\\")
	if p == "" {
		return true
	}
	// Drive roots like "C:" survive the trim above.
	if len(p) == 2 && p[1] == ':' {
		return true
	}
	return false
}

// canonicalize expands the home directory, makes the path absolute,
// resolves symlinks (walking up for not-yet-existing leaves), and
// strips trailing separators.
func canonicalize(path string) (string, error) {
	expanded := path
	if strings.HasPrefix(expanded, "~/") || expanded == "~" {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", err
		}
		expanded = filepath.Join(home, strings.TrimPrefix(expanded, "~"))
	}

	abs, err := filepath.Abs(expanded)
	if err != nil {
		return "", err
	}

	resolved, err := resolveWalkUp(abs)
	if err != nil {
		resolved = abs
	}

	cleaned := filepath.Clean(resolved)
	if len(cleaned) > 1 {
		cleaned = strings.TrimRight(cleaned, string(filepath.Separator))
	}
	return cleaned, nil
}

// resolveWalkUp resolves symlinks for a path whose leaf may not exist
// yet: it walks up until a resolvable ancestor is found, then rebuilds
// the path below it.
func resolveWalkUp(path string) (string, error) {
	resolved, err := filepath.EvalSymlinks(path)
	if err == nil {
		return resolved, nil
	}

	parent := filepath.Dir(path)
	if parent == path {
		return path, nil
	}

	resolvedParent, err := resolveWalkUp(parent)
	if err != nil {
		return "", err
	}
	return filepath.Join(resolvedParent, filepath.Base(path)), nil
}
