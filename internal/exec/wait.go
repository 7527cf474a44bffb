package exec

import (
	"context"
	"fmt"
	"time"

	"github.com/rahul/max/internal/plan"
)

const maxWait = 60 * time.Second

// Wait pauses between actions. Bounded so a plan cannot park the
// session indefinitely.
func Wait(ctx context.Context, params plan.Params) (string, map[string]any, error) {
	d := time.Duration(numParam(params, "seconds", 1)) * time.Second
	if d < 0 {
		d = 0
	}
	if d > maxWait {
		d = maxWait
	}
	select {
	case <-time.After(d):
	case <-ctx.Done():
		return "", nil, ctx.Err()
	}
	msg := strParam(params, "message")
	if msg == "" {
		msg = fmt.Sprintf("Waited %s", d)
	}
	return msg, nil, nil
}
