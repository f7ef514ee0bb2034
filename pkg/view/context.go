package view

// Context maps template variable names to values for a single render.
type Context map[string]any

// Well-known context keys.
const (
	KeyMessage  = "message"
	KeyGreeting = "greeting"
	KeyTime     = "time"
	KeyName     = "name"

	// Keys set by the renderer for layouts.
	KeyBody    = "body"
	KeyTitle   = "title"
	KeyScripts = "scripts"
	KeyTheme   = "theme"
)

func NewContext() Context {
	return make(Context)
}

// Clone returns a shallow copy. A nil Context clones to an empty one.
func (c Context) Clone() Context {
	out := make(Context, len(c))
	for key, value := range c {
		out[key] = value
	}
	return out
}

// With returns a copy of c with key set to value.
func (c Context) With(key string, value any) Context {
	out := c.Clone()
	out[key] = value
	return out
}

// String returns the value at key when it is a string.
func (c Context) String(key string) string {
	if c == nil {
		return ""
	}
	value, _ := c[key].(string)
	return value
}
