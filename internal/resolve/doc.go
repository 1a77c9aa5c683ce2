// Package resolve turns item metadata into normalized badge data through an
// ordered fallback chain per badge type: cached data, live providers, then a
// static demo tier. Network tiers are rate limited and circuit broken.
package resolve
