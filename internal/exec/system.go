package exec

import (
	"context"
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/rahul/max/internal/plan"
)

// Volume drives the default PulseAudio sink. An explicit level wins
// over an action verb.
func Volume(ctx context.Context, params plan.Params) (string, map[string]any, error) {
	if _, ok := params["level"]; ok {
		n := int(numParam(params, "level", 50))
		if n < 0 {
			n = 0
		}
		if n > 100 {
			n = 100
		}
		if _, err := hostRun(ctx, "pactl", "set-sink-volume", "@DEFAULT_SINK@", fmt.Sprintf("%d%%", n)); err != nil {
			return "", nil, err
		}
		return fmt.Sprintf("Volume set to %d%%", n), map[string]any{"level": n}, nil
	}

	switch strings.ToLower(strParam(params, "action")) {
	case "up":
		_, err := hostRun(ctx, "pactl", "set-sink-volume", "@DEFAULT_SINK@", "+10%")
		return "Volume raised", nil, err
	case "down":
		_, err := hostRun(ctx, "pactl", "set-sink-volume", "@DEFAULT_SINK@", "-10%")
		return "Volume lowered", nil, err
	default:
		return "", nil, fmt.Errorf("system_volume needs a level or an action")
	}
}

func Mute(ctx context.Context, params plan.Params) (string, map[string]any, error) {
	_, err := hostRun(ctx, "pactl", "set-sink-mute", "@DEFAULT_SINK@", "1")
	return "Audio muted", nil, err
}

func Unmute(ctx context.Context, params plan.Params) (string, map[string]any, error) {
	_, err := hostRun(ctx, "pactl", "set-sink-mute", "@DEFAULT_SINK@", "0")
	return "Audio unmuted", nil, err
}

func Brightness(ctx context.Context, params plan.Params) (string, map[string]any, error) {
	n := int(numParam(params, "level", -1))
	if n < 0 || n > 100 {
		return "", nil, fmt.Errorf("brightness level must be between 0 and 100")
	}
	if _, err := hostRun(ctx, "brightnessctl", "set", fmt.Sprintf("%d%%", n)); err != nil {
		return "", nil, err
	}
	return fmt.Sprintf("Brightness set to %d%%", n), map[string]any{"level": n}, nil
}

func Lock(ctx context.Context, params plan.Params) (string, map[string]any, error) {
	_, err := hostRun(ctx, "loginctl", "lock-session")
	return "Screen locked", nil, err
}

// Sleep waits out the requested delay (cancellable) and suspends.
func Sleep(ctx context.Context, params plan.Params) (string, map[string]any, error) {
	delay := time.Duration(numParam(params, "delay", 0)) * time.Second
	if delay > 0 {
		select {
		case <-time.After(delay):
		case <-ctx.Done():
			return "", nil, ctx.Err()
		}
	}
	_, err := hostRun(ctx, "systemctl", "suspend")
	return "System suspending", nil, err
}

// Shutdown and Restart schedule through shutdown(8) so the host's own
// timer survives this process exiting.
func Shutdown(ctx context.Context, params plan.Params) (string, map[string]any, error) {
	return powerOff(ctx, params, "-h", "Shutdown")
}

func Restart(ctx context.Context, params plan.Params) (string, map[string]any, error) {
	return powerOff(ctx, params, "-r", "Restart")
}

func powerOff(ctx context.Context, params plan.Params, flag, verb string) (string, map[string]any, error) {
	delay := numParam(params, "delay", 60)
	minutes := int(math.Ceil(delay / 60))
	if _, err := hostRun(ctx, "shutdown", flag, fmt.Sprintf("+%d", minutes)); err != nil {
		return "", nil, err
	}
	return fmt.Sprintf("%s scheduled in %d minute(s)", verb, minutes), map[string]any{"minutes": minutes}, nil
}

func Wifi(ctx context.Context, params plan.Params) (string, map[string]any, error) {
	action := strings.ToLower(strParam(params, "action"))
	if action == "toggle" {
		state, err := hostRun(ctx, "nmcli", "radio", "wifi")
		if err != nil {
			return "", nil, err
		}
		if strings.EqualFold(state, "enabled") {
			action = "off"
		} else {
			action = "on"
		}
	}
	if _, err := hostRun(ctx, "nmcli", "radio", "wifi", action); err != nil {
		return "", nil, err
	}
	return "WiFi turned " + action, map[string]any{"state": action}, nil
}

func Bluetooth(ctx context.Context, params plan.Params) (string, map[string]any, error) {
	action := strings.ToLower(strParam(params, "action"))
	if action == "toggle" {
		state, err := hostRun(ctx, "bluetoothctl", "show")
		if err != nil {
			return "", nil, err
		}
		if strings.Contains(state, "Powered: yes") {
			action = "off"
		} else {
			action = "on"
		}
	}
	if _, err := hostRun(ctx, "bluetoothctl", "power", action); err != nil {
		return "", nil, err
	}
	return "Bluetooth turned " + action, map[string]any{"state": action}, nil
}

func Screensaver(ctx context.Context, params plan.Params) (string, map[string]any, error) {
	switch strings.ToLower(strParam(params, "action")) {
	case "off":
		_, err := hostRun(ctx, "xdg-screensaver", "reset")
		return "Screensaver dismissed", nil, err
	default: // on, toggle
		_, err := hostRun(ctx, "xdg-screensaver", "activate")
		return "Screensaver activated", nil, err
	}
}
