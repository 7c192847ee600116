// Package interp renders {{ path }} and {{ helper path }} placeholders in
// template text. Paths are accessor chains resolved through the engine;
// helpers are looked up when the placeholder is rendered.
package interp
