package session

import (
	"strings"
	"testing"
)

func TestNewIDShape(t *testing.T) {
	id := NewID()
	if !strings.HasPrefix(id, "sess-") {
		t.Fatalf("id %q missing sess- prefix", id)
	}
	suffix := strings.TrimPrefix(id, "sess-")
	if len(suffix) != 10 {
		t.Fatalf("suffix %q length = %d, want 10", suffix, len(suffix))
	}
	for _, r := range suffix {
		if !strings.ContainsRune(alphabet, r) {
			t.Fatalf("suffix %q contains non-base36 rune %q", suffix, r)
		}
	}
}

func TestNewIDVaries(t *testing.T) {
	seen := make(map[string]bool)
	for i := 0; i < 100; i++ {
		id := NewID()
		if seen[id] {
			t.Fatalf("duplicate id %q after %d draws", id, i)
		}
		seen[id] = true
	}
}

func TestResolveActive(t *testing.T) {
	gen := func() string { return "sess-generated0" }

	if got := ResolveActive("sess-persisted0", gen); got != "sess-persisted0" {
		t.Fatalf("persisted value not preferred: %q", got)
	}
	if got := ResolveActive("", gen); got != "sess-generated0" {
		t.Fatalf("generator not used for empty value: %q", got)
	}
	if got := ResolveActive("   ", gen); got != "sess-generated0" {
		t.Fatalf("generator not used for blank value: %q", got)
	}
}

func TestNewMessageIDNonEmpty(t *testing.T) {
	if NewMessageID() == "" {
		t.Fatal("empty message id")
	}
	if NewMessageID() == NewMessageID() {
		t.Fatal("message ids repeat")
	}
}
