package exec

import (
	"context"
	"errors"

	"github.com/tmc/langchaingo/llms"

	"github.com/rahul/max/internal/dispatch"
	"github.com/rahul/max/internal/plan"
	"github.com/rahul/max/internal/safety"
)

// Deps carries the shared resources the handlers need. Browser and
// Searcher may be nil when the host lacks them; their action types are
// then registered with a handler that fails gracefully.
type Deps struct {
	Browser    *BrowserSession
	Guard      *safety.PathGuard
	Searcher   *Searcher
	Summarizer llms.Model
	Prefs      PrefStore
}

// RegisterAll wires a handler for every action type in the default
// catalog. Validation guarantees dispatched plans only contain catalog
// types, so the registry and the catalog must stay in lockstep.
func RegisterAll(reg *dispatch.Registry, deps Deps) {
	files := &Files{Guard: deps.Guard}
	input := &Input{Browser: deps.Browser}
	reader := &Reader{Browser: deps.Browser, Summarizer: deps.Summarizer}
	apps := &Apps{Prefs: deps.Prefs}

	reg.RegisterFunc("open_app", apps.Open)
	reg.RegisterFunc("close_app", apps.Close)

	if deps.Browser != nil {
		reg.RegisterFunc("open_browser", deps.Browser.OpenBrowser)
		reg.RegisterFunc("navigate", deps.Browser.HandleNavigate)
	} else {
		reg.RegisterFunc("open_browser", unavailable("no browser is configured"))
		reg.RegisterFunc("navigate", unavailable("no browser is configured"))
	}

	reg.RegisterFunc("click", input.Click)
	reg.RegisterFunc("type_text", input.TypeText)
	reg.RegisterFunc("press_key", input.PressKey)
	reg.RegisterFunc("move_mouse", input.MoveMouse)

	reg.RegisterFunc("file_create", files.Create)
	reg.RegisterFunc("file_delete", files.Delete)
	reg.RegisterFunc("file_move", files.Move)

	reg.RegisterFunc("install_software", Installer{}.Install)

	reg.RegisterFunc("system_volume", Volume)
	reg.RegisterFunc("system_brightness", Brightness)
	reg.RegisterFunc("system_mute", Mute)
	reg.RegisterFunc("system_unmute", Unmute)
	reg.RegisterFunc("system_lock", Lock)
	reg.RegisterFunc("system_sleep", Sleep)
	reg.RegisterFunc("system_shutdown", Shutdown)
	reg.RegisterFunc("system_restart", Restart)
	reg.RegisterFunc("system_wifi", Wifi)
	reg.RegisterFunc("system_bluetooth", Bluetooth)
	reg.RegisterFunc("system_screensaver", Screensaver)

	reg.RegisterFunc("read_screen", reader.ReadScreen)
	reg.RegisterFunc("summarize_screen", reader.SummarizeScreen)

	if deps.Searcher != nil {
		reg.RegisterFunc("search_web", deps.Searcher.Search)
	} else {
		reg.RegisterFunc("search_web", unavailable("web search is not configured"))
	}

	reg.RegisterFunc("wait", Wait)
}

func unavailable(reason string) dispatch.HandlerFunc {
	return func(ctx context.Context, params plan.Params) (string, map[string]any, error) {
		return "", nil, errors.New(reason)
	}
}
