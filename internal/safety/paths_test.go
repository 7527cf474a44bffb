package safety

import (
	"os"
	"path/filepath"
	"testing"
)

func TestPathGuard_ProtectedPrefix(t *testing.T) {
	protected := t.TempDir()
	g := NewPathGuard([]string{protected})

	cases := []string{
		protected,
		protected + "/",
		protected + "///",
		filepath.Join(protected, "inner.txt"),
		filepath.Join(protected, "a", "b", "c.txt"),
	}
	for _, p := range cases {
		if v := g.Check(p); v != VerdictBlocked {
			t.Errorf("Check(%q) = %s, want blocked", p, v)
		}
	}

	outside := filepath.Join(t.TempDir(), "free.txt")
	if v := g.Check(outside); v != VerdictSafe {
		t.Errorf("Check(%q) = %s, want safe", outside, v)
	}
}

func TestPathGuard_SymlinkResolution(t *testing.T) {
	protected := t.TempDir()
	other := t.TempDir()

	link := filepath.Join(other, "sneaky")
	if err := os.Symlink(protected, link); err != nil {
		t.Skipf("symlinks unavailable: %v", err)
	}

	// A delete aimed through the symlink resolves into the protected
	// tree and must be blocked.
	if v := g(t, protected).Check(filepath.Join(link, "victim.txt")); v != VerdictBlocked {
		t.Errorf("Symlinked path verdict = %s, want blocked", v)
	}
}

func g(t *testing.T, protected string) *PathGuard {
	t.Helper()
	return NewPathGuard([]string{protected})
}

func TestPathGuard_RootBlocked(t *testing.T) {
	guard := NewPathGuard(nil)
	for _, p := range []string{"/", "C:", "C:\\", "c:\\", "C:/", ""} {
		if v := guard.Check(p); v != VerdictBlocked {
			t.Errorf("Check(%q) = %s, want blocked", p, v)
		}
	}
}

func TestPathGuard_SuspiciousDirs(t *testing.T) {
	base := t.TempDir()
	target := filepath.Join(base, "system32", "drivers.txt")
	guard := NewPathGuard(nil)
	if v := guard.Check(target); v != VerdictDangerous {
		t.Errorf("Check(%q) = %s, want dangerous", target, v)
	}
}

func TestPathGuard_CanonicalIdempotent(t *testing.T) {
	guard := NewPathGuard(nil)
	p := filepath.Join(t.TempDir(), "sub", "..", "file.txt")
	once := guard.Canonical(p)
	twice := guard.Canonical(once)
	if once != twice {
		t.Errorf("Canonical not idempotent: %q -> %q", once, twice)
	}
}
