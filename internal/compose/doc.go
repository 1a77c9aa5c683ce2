// Package compose merges badge overlays onto poster images under a
// deterministic layout policy.
package compose
