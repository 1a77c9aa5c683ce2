// Package main hosts the Lacquer CLI entrypoint and command graph.
//
// The Cobra-based command tree translates terminal invocations into job
// queue operations against the shared SQLite store, immediate single-poster
// processing, media-server library enumeration, notification checks, and
// configuration scaffolding. It centralizes configuration resolution and
// store setup so subcommands can focus on user experience instead of wiring.
//
// Keep this package lean: add new functionality by extending the internal
// packages first, then surface it through dedicated commands or flags here.
package main
