// Package mediaserver implements the Jellyfin-compatible HTTP client used to
// read item metadata, fetch poster bytes, and upload composited posters.
package mediaserver
