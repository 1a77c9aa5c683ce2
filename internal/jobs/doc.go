// Package jobs persists the job and per-item workflow state in SQLite.
// All job state mutation flows through the Store's conditional updates so
// claims, counter increments, and finalization stay atomic under concurrent
// workers.
package jobs
