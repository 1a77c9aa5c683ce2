// Package omdb implements the OMDb API client used for critic ratings and
// award lookups.
package omdb
