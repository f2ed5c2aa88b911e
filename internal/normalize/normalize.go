// Package normalize turns free-form backend replies into displayable
// text. The conversational backend sometimes wraps its answer in a JSON
// object (occasionally inside a markdown code fence), sometimes returns
// plain prose; this package sniffs which shape arrived and extracts the
// human-readable message without ever failing.
package normalize

import (
	"encoding/json"
	"regexp"
	"strings"
)

// Outcome tags which branch of the heuristic produced the result, so
// callers and tests can tell a clean extraction from a degraded one.
type Outcome int

const (
	// PlainText means the input was returned unchanged.
	PlainText Outcome = iota
	// ExtractedJSON means a message field was pulled out of an embedded
	// JSON object.
	ExtractedJSON
	// FallbackPrompt means the input looked like JSON with a message
	// field but could not be parsed; the fixed re-prompt was returned.
	FallbackPrompt
)

// FallbackMessage is shown when a reply visibly carries a JSON message
// payload that cannot be parsed.
const FallbackMessage = "I'm processing your information. Could you please provide more details?"

// jsonSpanRE captures the first brace- or bracket-delimited span,
// optionally preceded by a ```json fence or a bare json tag.
var jsonSpanRE = regexp.MustCompile("(?s)(```json\\s*|\"?json\"?\\s*)?(\\{.*?\\}|\\[.*?\\])(\\s*```)?")

// Normalize extracts display text from a raw backend reply. It never
// panics; every parse failure degrades to something displayable.
func Normalize(raw string) (string, Outcome) {
	if raw == "" {
		return raw, PlainText
	}
	// Fast path: nothing JSON-ish in sight.
	if !strings.Contains(raw, "{") && !strings.Contains(raw, `"message"`) {
		return raw, PlainText
	}

	span := raw
	if m := jsonSpanRE.FindStringSubmatch(raw); m != nil && m[2] != "" {
		span = m[2]
	}

	trimmed := strings.TrimSpace(span)
	if !strings.HasPrefix(trimmed, "{") && !strings.HasPrefix(trimmed, "[") {
		return raw, PlainText
	}

	var parsed any
	if err := json.Unmarshal([]byte(trimmed), &parsed); err != nil {
		if strings.Contains(raw, "{") && strings.Contains(raw, `"message"`) {
			return FallbackMessage, FallbackPrompt
		}
		return raw, PlainText
	}

	// Only top-level message fields count; nested objects are not walked.
	if obj, ok := parsed.(map[string]any); ok {
		if msg, ok := obj["message"].(string); ok {
			return msg, ExtractedJSON
		}
	}
	return raw, PlainText
}

// Clean is Normalize without the outcome tag.
func Clean(raw string) string {
	text, _ := Normalize(raw)
	return text
}
