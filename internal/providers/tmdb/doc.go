// Package tmdb implements the subset of The Movie Database API used as a
// secondary ratings provider.
package tmdb
