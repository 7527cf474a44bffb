// Package exec contains the action handlers: the only code that
// touches the host. Each handler maps one catalog action type to a
// host utility or a controlled browser, and blocks until the effect is
// observable or the context is done.
package exec

import (
	"context"
	"errors"
	"fmt"
	"os/exec"
	"strings"

	"github.com/rahul/max/internal/plan"
)

// hostRun executes a host utility and returns its trimmed output. A
// missing binary is reported as an installation hint rather than a raw
// exec error.
func hostRun(ctx context.Context, name string, args ...string) (string, error) {
	out, err := exec.CommandContext(ctx, name, args...).CombinedOutput()
	if err != nil {
		if errors.Is(err, exec.ErrNotFound) || strings.Contains(err.Error(), "executable file not found") {
			return "", fmt.Errorf("%s is not installed on this host", name)
		}
		return "", fmt.Errorf("%s failed: %v (output: %s)", name, err, strings.TrimSpace(string(out)))
	}
	return strings.TrimSpace(string(out)), nil
}

func strParam(p plan.Params, key string) string {
	v, _ := p[key].(string)
	return v
}

// numParam reads a numeric parameter. Model JSON decodes numbers as
// float64 but rule-built plans may carry int.
func numParam(p plan.Params, key string, def float64) float64 {
	switch v := p[key].(type) {
	case float64:
		return v
	case float32:
		return float64(v)
	case int:
		return float64(v)
	case int64:
		return float64(v)
	}
	return def
}
