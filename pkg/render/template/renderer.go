package template

import (
	"io"
)

// TemplateRenderer is the seam between the view layer and a concrete template
// engine.
type TemplateRenderer interface {
	// RenderTemplate resolves name against the engine's loaders and renders
	// it with data merged over the global context.
	RenderTemplate(name string, data map[string]any, out ...io.Writer) (string, error)
	GlobalContext(data map[string]any) error
	// Reset drops any parsed templates so the next render reloads them from
	// their source.
	Reset()
}
