package plan

// ParamKind restricts the type a catalog schema accepts for a
// parameter. Values decoded from model JSON are float64 for numbers.
type ParamKind string

const (
	KindString ParamKind = "string"
	KindNumber ParamKind = "number"
	KindBool   ParamKind = "bool"
)

// Schema maps parameter names to their expected kinds for one action
// type. Parameters not listed here are still accepted as long as they
// are primitives; listed parameters must match their declared kind.
type Schema map[string]ParamKind

// Catalog is the process-wide registry of allowed action types. It is
// built once at startup and read-only afterwards.
type Catalog struct {
	entries map[string]Schema
	order   []string
}

func NewCatalog() *Catalog {
	return &Catalog{entries: make(map[string]Schema)}
}

// Register adds an action type and its parameter schema. Registering
// an existing type replaces its schema.
func (c *Catalog) Register(actionType string, schema Schema) {
	if _, ok := c.entries[actionType]; !ok {
		c.order = append(c.order, actionType)
	}
	c.entries[actionType] = schema
}

// Has reports whether the action type is registered.
func (c *Catalog) Has(actionType string) bool {
	_, ok := c.entries[actionType]
	return ok
}

// SchemaFor returns the parameter schema for an action type.
func (c *Catalog) SchemaFor(actionType string) (Schema, bool) {
	s, ok := c.entries[actionType]
	return s, ok
}

// Types returns all registered action types in registration order.
func (c *Catalog) Types() []string {
	out := make([]string, len(c.order))
	copy(out, c.order)
	return out
}

// Matches reports whether the value satisfies the declared kind.
func (k ParamKind) Matches(v any) bool {
	switch k {
	case KindString:
		_, ok := v.(string)
		return ok
	case KindBool:
		_, ok := v.(bool)
		return ok
	case KindNumber:
		switch v.(type) {
		case float64, float32, int, int64:
			return true
		}
	}
	return false
}

// DefaultCatalog returns the catalog of every action type the agent
// knows how to execute.
func DefaultCatalog() *Catalog {
	c := NewCatalog()

	c.Register("open_app", Schema{"name": KindString})
	c.Register("close_app", Schema{"name": KindString})
	c.Register("open_browser", Schema{"browser": KindString})
	c.Register("navigate", Schema{"url": KindString})
	c.Register("click", Schema{"x": KindNumber, "y": KindNumber, "text": KindString, "selector": KindString})
	c.Register("type_text", Schema{"text": KindString})
	c.Register("press_key", Schema{"key": KindString})
	c.Register("move_mouse", Schema{"x": KindNumber, "y": KindNumber})
	c.Register("file_create", Schema{"path": KindString, "content": KindString})
	c.Register("file_delete", Schema{"path": KindString})
	c.Register("file_move", Schema{"source": KindString, "destination": KindString})
	c.Register("install_software", Schema{"name": KindString, "method": KindString, "package_id": KindString})
	c.Register("system_volume", Schema{"level": KindNumber, "action": KindString})
	c.Register("system_brightness", Schema{"level": KindNumber})
	c.Register("system_sleep", Schema{"delay": KindNumber})
	c.Register("system_lock", Schema{})
	c.Register("system_shutdown", Schema{"delay": KindNumber, "force": KindBool})
	c.Register("system_restart", Schema{"delay": KindNumber})
	c.Register("system_wifi", Schema{"action": KindString})
	c.Register("system_bluetooth", Schema{"action": KindString})
	c.Register("system_screensaver", Schema{"action": KindString})
	c.Register("system_mute", Schema{})
	c.Register("system_unmute", Schema{})
	c.Register("read_screen", Schema{"region": KindString})
	c.Register("summarize_screen", Schema{})
	c.Register("search_web", Schema{"query": KindString})
	c.Register("wait", Schema{"seconds": KindNumber, "message": KindString})

	return c
}

// DangerousActions is the static set of action types that are labeled
// dangerous by the classifier: irreversible file operations, software
// installation, and power-state changes.
var DangerousActions = map[string]bool{
	"file_delete":      true,
	"file_move":        true,
	"install_software": true,
	"system_shutdown":  true,
	"system_restart":   true,
	"system_sleep":     true,
}
