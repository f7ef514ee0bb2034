// Package greeting implements the demo's form-and-greeting pages and their
// fragment-aware request routing.
//
// The Greeter holds the pure operations: each returns a Result pairing a
// view.Target with the view.Context to render it with. SubmitGreeting builds
// its context before choosing a target, so the full page and the "content"
// fragment always carry the same greeting, name and time.
//
// The HTTP side detects enhancement-aware clients (HTMX, Unpoly, Turbo) once
// per request and hands the resulting boolean to the Greeter:
//
//	GET  /        full home page
//	GET  /greet   full greet page with the default greeting
//	POST /greet   full greet page, or only the "content" fragment when a
//	              marker header is present
//	GET  /logo    the lazily loaded logo fragment
package greeting
