// Package worker runs the background job scheduler.
//
// The Scheduler polls the job store for queued work, claims one job at a
// time, and fans its items out to a bounded pool. Items retry with backoff
// before recording a failure, cancellation takes effect between items, and
// progress notifications are fire-and-forget. Jobs interrupted by shutdown
// or store outages stay Running and are requeued by crash recovery on the
// next daemon start.
package worker
