// Package badge defines the badge domain types shared by the resolver,
// renderer, compositor, and pipeline.
package badge
