// Package templates holds the HTML components served by the web layer.
// Components are written in .templ files; run `templ generate` after
// editing them.
package templates
