package exec

import (
	"context"
	"fmt"
	osexec "os/exec"
	"strings"

	"github.com/rahul/max/internal/plan"
)

// appCommands maps the friendly names the planner emits to the
// binaries a typical desktop install carries.
var appCommands = map[string]string{
	"firefox":    "firefox",
	"edge":       "microsoft-edge",
	"editor":     "gedit",
	"files":      "nautilus",
	"taskmgr":    "gnome-system-monitor",
	"calculator": "gnome-calculator",
	"settings":   "gnome-control-center",
	"terminal":   "gnome-terminal",
}

// PrefStore looks up stored user preferences. Satisfied by
// store.HistoryStore.
type PrefStore interface {
	GetPreference(key, def string) string
}

// Apps launches and closes desktop applications. A stored "app.<name>"
// preference overrides the built-in binary choice, so a user who set
// their editor to code gets code.
type Apps struct {
	Prefs PrefStore
}

func (a *Apps) resolve(name string) string {
	bin, ok := appCommands[name]
	if !ok {
		bin = name
	}
	if a.Prefs != nil {
		bin = a.Prefs.GetPreference("app."+name, bin)
	}
	return bin
}

// Open launches an application detached; the handler does not wait for
// the application to exit, only for the launch to succeed.
func (a *Apps) Open(ctx context.Context, params plan.Params) (string, map[string]any, error) {
	name := strings.ToLower(strParam(params, "name"))
	if name == "" {
		return "", nil, fmt.Errorf("open_app needs a name")
	}
	bin := a.resolve(name)

	cmd := osexec.Command(bin)
	if err := cmd.Start(); err != nil {
		return "", nil, fmt.Errorf("failed to launch %s: %v", name, err)
	}
	go cmd.Wait() // reap, don't block

	return fmt.Sprintf("Opened %s", name), map[string]any{"pid": cmd.Process.Pid}, nil
}

func (a *Apps) Close(ctx context.Context, params plan.Params) (string, map[string]any, error) {
	name := strings.ToLower(strParam(params, "name"))
	if name == "" {
		return "", nil, fmt.Errorf("close_app needs a name")
	}
	if _, err := hostRun(ctx, "pkill", "-f", a.resolve(name)); err != nil {
		return "", nil, fmt.Errorf("failed to close %s: %v", name, err)
	}
	return fmt.Sprintf("Closed %s", name), nil, nil
}
