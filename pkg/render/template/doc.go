// Package template defines the engine contract the view layer renders
// through. Page and fragment rendering both go through TemplateRenderer so
// the engine can be swapped in tests without touching the request router.
package template
