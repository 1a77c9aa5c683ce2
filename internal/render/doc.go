// Package render maps normalized badge data onto overlay images. Rendering
// is deterministic: the same data and options always produce byte-identical
// pixels.
package render
