// Package view turns a render Target plus a Context into HTML.
//
// A Target is either a full page, whose body template is composed into an
// explicitly named layout, or a fragment, a single element addressed by id
// inside a template and rendered without any page shell. Both variants read
// the same Context, so a page and its fragment always agree on content.
//
//	renderer := view.NewRenderer(engine, view.WithTheme(cfg))
//	err := renderer.Render(ctx, view.Fragment("greet", "content"), data, w)
package view
