package exec

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/rahul/max/internal/plan"
	"github.com/rahul/max/internal/safety"
)

// Files performs the file operations. Paths arrive already sanitized,
// but the guard is consulted again here so a handler invoked outside
// the normal pipeline still cannot touch protected locations.
type Files struct {
	Guard *safety.PathGuard
}

func (f *Files) check(path string) error {
	if f.Guard == nil {
		return nil
	}
	if v := f.Guard.Check(path); v == safety.VerdictBlocked {
		return fmt.Errorf("path %q is protected", path)
	}
	return nil
}

func (f *Files) Create(ctx context.Context, params plan.Params) (string, map[string]any, error) {
	path := strParam(params, "path")
	if path == "" {
		return "", nil, fmt.Errorf("file_create needs a path")
	}
	if err := f.check(path); err != nil {
		return "", nil, err
	}
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return "", nil, fmt.Errorf("failed to create parent directory: %v", err)
	}
	if err := os.WriteFile(path, []byte(strParam(params, "content")), 0644); err != nil {
		return "", nil, fmt.Errorf("failed to create file: %v", err)
	}
	return fmt.Sprintf("Created %s", path), map[string]any{"path": path}, nil
}

func (f *Files) Delete(ctx context.Context, params plan.Params) (string, map[string]any, error) {
	path := strParam(params, "path")
	if path == "" {
		return "", nil, fmt.Errorf("file_delete needs a path")
	}
	if err := f.check(path); err != nil {
		return "", nil, err
	}
	info, err := os.Stat(path)
	if err != nil {
		return "", nil, fmt.Errorf("cannot delete %s: %v", path, err)
	}
	if info.IsDir() {
		return "", nil, fmt.Errorf("refusing to delete directory %s", path)
	}
	if err := os.Remove(path); err != nil {
		return "", nil, fmt.Errorf("failed to delete %s: %v", path, err)
	}
	return fmt.Sprintf("Deleted %s", path), map[string]any{"path": path}, nil
}

func (f *Files) Move(ctx context.Context, params plan.Params) (string, map[string]any, error) {
	src := strParam(params, "source")
	dst := strParam(params, "destination")
	if src == "" || dst == "" {
		return "", nil, fmt.Errorf("file_move needs source and destination")
	}
	if err := f.check(src); err != nil {
		return "", nil, err
	}
	if err := f.check(dst); err != nil {
		return "", nil, err
	}
	if err := os.MkdirAll(filepath.Dir(dst), 0755); err != nil {
		return "", nil, fmt.Errorf("failed to create destination directory: %v", err)
	}
	if err := os.Rename(src, dst); err != nil {
		return "", nil, fmt.Errorf("failed to move %s: %v", src, err)
	}
	return fmt.Sprintf("Moved %s to %s", src, dst), map[string]any{"source": src, "destination": dst}, nil
}
