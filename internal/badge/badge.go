package badge

import (
	"image"
	"sort"
	"strings"
	"time"
)

// Type identifies one badge kind overlaid onto a poster.
type Type string

const (
	TypeResolution Type = "resolution"
	TypeAudio      Type = "audio"
	TypeReview     Type = "review"
	TypeAwards     Type = "awards"
)

// stackPriority fixes the order badges stack within a shared corner so
// placement is reproducible regardless of processing order.
var stackPriority = map[Type]int{
	TypeResolution: 0,
	TypeAudio:      1,
	TypeReview:     2,
	TypeAwards:     3,
}

var allTypes = []Type{TypeResolution, TypeAudio, TypeReview, TypeAwards}

// AllTypes returns the known badge types in stacking priority order.
func AllTypes() []Type {
	cp := make([]Type, len(allTypes))
	copy(cp, allTypes)
	return cp
}

// ParseType converts a string into a known badge Type.
func ParseType(value string) (Type, bool) {
	normalized := Type(strings.ToLower(strings.TrimSpace(value)))
	if _, ok := stackPriority[normalized]; ok {
		return normalized, true
	}
	return "", false
}

// Priority returns the stacking rank of the badge type. Lower renders first.
func (t Type) Priority() int {
	if p, ok := stackPriority[t]; ok {
		return p
	}
	return len(stackPriority)
}

// SortByPriority orders badge types by stacking priority in place.
func SortByPriority(types []Type) {
	sort.SliceStable(types, func(i, j int) bool {
		return types[i].Priority() < types[j].Priority()
	})
}

// Source records which fallback tier produced a badge's data.
type Source string

const (
	SourcePrimary  Source = "primary"
	SourceCached   Source = "cached"
	SourceFallback Source = "fallback"
)

// Status describes the outcome of one badge on one item.
type Status string

const (
	StatusApplied Status = "applied"
	StatusSkipped Status = "skipped"
	StatusFailed  Status = "failed"
)

// Data is the normalized metadata a renderer consumes. The enumerated core
// covers every built-in badge; provider-specific leftovers ride in Extra.
type Data struct {
	// Value is the normalized value the display label is derived from,
	// e.g. "truehd" or "2160p".
	Value string
	// Score holds a numeric rating when the badge carries one (0-100 scale).
	Score float64
	// Extra carries provider fields with no enumerated home.
	Extra map[string]string
}

// Result is the outcome of resolving and rendering one badge type.
// StatusApplied implies Overlay is non-nil and Source is set.
type Result struct {
	Type    Type
	Status  Status
	Source  Source
	Overlay image.Image
	Err     error
}

// CompositeResult is the terminal artifact of one item's processing.
type CompositeResult struct {
	ItemID     string
	OutputPath string
	Applied    []Type
	Failed     []Type
	Elapsed    time.Duration
}
