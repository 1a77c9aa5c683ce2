// Package daemon coordinates the long-running Lacquer process.
//
// It wires configuration, the job store, and the scheduler into a single
// lifecycle with flock-based locking to prevent multiple instances, and
// requeues jobs interrupted by a previous crash before work resumes.
//
// Keep orchestration logic here: job processing lives in the worker and
// pipeline packages while the daemon focuses on startup, shutdown, and
// high level coordination.
package daemon
