// Package notifications delivers job lifecycle events via pluggable notifiers.
//
// The default implementation publishes to ntfy using the topic configured in
// config.toml and gracefully degrades to a no-op when notifications are
// disabled. The scheduler emits start, progress, completion, and cancellation
// messages through the Service interface without duplicating HTTP glue.
//
// Extend this package if you need alternative transports; all scheduler code
// depends only on the simple Service interface.
package notifications
