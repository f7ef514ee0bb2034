package view

import "fmt"

// TargetKind tags the Target variant.
type TargetKind int

const (
	// KindPage renders a template composed into a layout.
	KindPage TargetKind = iota
	// KindFragment renders one addressed element of a template.
	KindFragment
)

func (k TargetKind) String() string {
	switch k {
	case KindPage:
		return "page"
	case KindFragment:
		return "fragment"
	default:
		return fmt.Sprintf("TargetKind(%d)", int(k))
	}
}

// Target identifies what to render. The zero value is not a valid target;
// build one with Page or Fragment.
type Target struct {
	kind     TargetKind
	template string
	layout   string
	fragment string
}

// Page targets the full-page render of template inside layout.
func Page(template, layout string) Target {
	return Target{kind: KindPage, template: template, layout: layout}
}

// Fragment targets the element identified by fragmentID inside template.
func Fragment(template, fragmentID string) Target {
	return Target{kind: KindFragment, template: template, fragment: fragmentID}
}

func (t Target) Kind() TargetKind { return t.kind }

func (t Target) Template() string { return t.template }

// Layout is empty for fragment targets.
func (t Target) Layout() string { return t.layout }

// FragmentID is empty for page targets.
func (t Target) FragmentID() string { return t.fragment }

func (t Target) IsFragment() bool { return t.kind == KindFragment }

// Valid reports whether the target names everything its variant needs.
func (t Target) Valid() bool {
	if t.template == "" {
		return false
	}
	switch t.kind {
	case KindPage:
		return t.layout != ""
	case KindFragment:
		return t.fragment != ""
	default:
		return false
	}
}

// WithLayout returns a copy of a page target using layout. Fragment targets
// are returned unchanged.
func (t Target) WithLayout(layout string) Target {
	if t.kind != KindPage || layout == "" {
		return t
	}
	t.layout = layout
	return t
}

func (t Target) String() string {
	switch t.kind {
	case KindFragment:
		return fmt.Sprintf("fragment(%s#%s)", t.template, t.fragment)
	default:
		return fmt.Sprintf("page(%s in %s)", t.template, t.layout)
	}
}
