package exec

import (
	"context"
	"fmt"
	"strings"

	"github.com/rahul/max/internal/plan"
)

// Installer handles install_software. The package identifier arrives
// sanitized; anything that still looks unlike a bare package id is
// refused here rather than passed to a package manager.
type Installer struct{}

func (Installer) Install(ctx context.Context, params plan.Params) (string, map[string]any, error) {
	id := strParam(params, "package_id")
	if id == "" {
		id = strParam(params, "name")
	}
	if id == "" {
		return "", nil, fmt.Errorf("install_software needs a package name")
	}
	if strings.ContainsAny(id, " ;|&$<>`\n") {
		return "", nil, fmt.Errorf("refusing suspicious package identifier %q", id)
	}

	method := strings.ToLower(strParam(params, "method"))
	var err error
	switch method {
	case "flatpak":
		_, err = hostRun(ctx, "flatpak", "install", "-y", id)
	case "snap":
		_, err = hostRun(ctx, "snap", "install", id)
	default: // apt
		_, err = hostRun(ctx, "apt-get", "install", "-y", id)
	}
	if err != nil {
		return "", nil, err
	}
	return fmt.Sprintf("Installed %s", id), map[string]any{"package": id, "method": method}, nil
}
