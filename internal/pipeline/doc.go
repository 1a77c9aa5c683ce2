// Package pipeline turns one media item into a badged poster.
//
// The Controller fetches the item and its primary poster from the media
// server, resolves badge data through the per-type fallback chains, renders
// overlays, composites them deterministically, writes the result to the
// output directory, and optionally uploads it back to the server. Batches
// run under a scheduling mode: immediate, pooled, or automatic based on
// batch size.
package pipeline
