// Package stage maps the backend's free-form consultation stage labels
// onto the fixed workflow sequence and derives a progress percentage.
package stage

import (
	"math"
	"strings"
)

// Sequence is the ordered consultation workflow. The order is a product
// constant; progress is derived from position, not from the backend.
var Sequence = []string{
	"GREETING",
	"SYMPTOM_COLLECTION",
	"DETAILED_ASSESSMENT",
	"MEDICAL_HISTORY",
	"RECOMMENDATIONS",
	"FOLLOW_UP",
}

const (
	// DefaultProgress is reported when no stage is known yet.
	DefaultProgress = 10
	// UnknownProgress is reported for labels that match no stage.
	UnknownProgress = 20
)

// First returns the initial stage of the sequence.
func First() string {
	return Sequence[0]
}

// index resolves a backend label to a sequence position. Matching is
// deliberately fuzzy: labels are upper-cased and compared against each
// underscore-stripped sequence entry with contains-or-exact semantics,
// first match wins. A label that is a substring of a later stage's
// normalized form can therefore resolve to the earlier stage; that
// behavior is long-standing and must not change without product
// sign-off.
func index(label string) int {
	upper := strings.ToUpper(label)
	for i, s := range Sequence {
		if strings.Contains(upper, strings.ReplaceAll(s, "_", "")) || upper == s {
			return i
		}
	}
	return -1
}

// Progress converts a stage label to a completion percentage in
// [10,100]. Empty labels report DefaultProgress, unmatched labels
// UnknownProgress.
func Progress(label string) int {
	if label == "" {
		return DefaultProgress
	}
	i := index(label)
	if i == -1 {
		return UnknownProgress
	}
	p := int(math.Round(float64(i+1) / float64(len(Sequence)) * 100))
	if p < DefaultProgress {
		p = DefaultProgress
	}
	if p > 100 {
		p = 100
	}
	return p
}

// Next returns the stage following the current one. Empty input starts
// the sequence; unmatched labels are treated as stable custom stages and
// returned unchanged, as is the terminal stage.
func Next(current string) string {
	if current == "" {
		return Sequence[0]
	}
	i := index(current)
	if i == -1 || i == len(Sequence)-1 {
		return current
	}
	return Sequence[i+1]
}
