package exec

import (
	"context"
	"fmt"
	"strconv"

	"github.com/rahul/max/internal/plan"
)

// Input drives the desktop through xdotool. A click with a CSS
// selector is routed to the browser session instead, since it targets
// page content rather than screen coordinates.
type Input struct {
	Browser *BrowserSession
}

func (in *Input) MoveMouse(ctx context.Context, params plan.Params) (string, map[string]any, error) {
	x := int(numParam(params, "x", -1))
	y := int(numParam(params, "y", -1))
	if x < 0 || y < 0 {
		return "", nil, fmt.Errorf("move_mouse needs x and y coordinates")
	}
	if _, err := hostRun(ctx, "xdotool", "mousemove", strconv.Itoa(x), strconv.Itoa(y)); err != nil {
		return "", nil, err
	}
	return fmt.Sprintf("Moved mouse to %d,%d", x, y), nil, nil
}

func (in *Input) Click(ctx context.Context, params plan.Params) (string, map[string]any, error) {
	if sel := strParam(params, "selector"); sel != "" && in.Browser != nil && in.Browser.Active() {
		if err := in.Browser.Click(ctx, sel); err != nil {
			return "", nil, err
		}
		return fmt.Sprintf("Clicked %s", sel), nil, nil
	}

	if _, ok := params["x"]; ok {
		if msg, _, err := in.MoveMouse(ctx, params); err != nil {
			return msg, nil, err
		}
	}
	if _, err := hostRun(ctx, "xdotool", "click", "1"); err != nil {
		return "", nil, err
	}
	return "Clicked", nil, nil
}

func (in *Input) TypeText(ctx context.Context, params plan.Params) (string, map[string]any, error) {
	text := strParam(params, "text")
	if text == "" {
		return "", nil, fmt.Errorf("type_text needs text")
	}
	if _, err := hostRun(ctx, "xdotool", "type", "--delay", "30", text); err != nil {
		return "", nil, err
	}
	return "Typed text", nil, nil
}

func (in *Input) PressKey(ctx context.Context, params plan.Params) (string, map[string]any, error) {
	key := strParam(params, "key")
	if key == "" {
		return "", nil, fmt.Errorf("press_key needs a key")
	}
	if _, err := hostRun(ctx, "xdotool", "key", key); err != nil {
		return "", nil, err
	}
	return fmt.Sprintf("Pressed %s", key), nil, nil
}
