package store

import (
	"testing"

	"github.com/GarvGoel08/DocOnGo/models"
)

func entry(texts ...string) models.ConversationEntry {
	e := models.ConversationEntry{
		Metadata: models.ConversationMetadata{
			Stage:            "GREETING",
			ConfidenceLevel:  0.95,
			DetectedSymptoms: []string{"headache"},
		},
	}
	for _, text := range texts {
		e.Messages = append(e.Messages, models.Message{Sender: models.SenderAI, Text: text})
	}
	return e
}

func TestPutGetRemove(t *testing.T) {
	s := New()

	if _, ok := s.Get("sess-a"); ok {
		t.Fatal("empty store returned an entry")
	}

	s.Put("sess-a", entry("hello"))
	got, ok := s.Get("sess-a")
	if !ok || len(got.Messages) != 1 || got.Messages[0].Text != "hello" {
		t.Fatalf("unexpected entry: %+v ok=%v", got, ok)
	}
	if !s.Contains("sess-a") || s.Len() != 1 {
		t.Fatalf("Contains/Len wrong after put")
	}

	s.Remove("sess-a")
	if s.Contains("sess-a") || s.Len() != 0 {
		t.Fatal("entry survived Remove")
	}
}

func TestPutReplacesWholesale(t *testing.T) {
	s := New()
	s.Put("sess-a", entry("one", "two"))
	s.Put("sess-a", entry("three"))

	got, _ := s.Get("sess-a")
	if len(got.Messages) != 1 || got.Messages[0].Text != "three" {
		t.Fatalf("Put merged instead of replacing: %+v", got.Messages)
	}
}

func TestGetReturnsIsolatedCopy(t *testing.T) {
	s := New()
	s.Put("sess-a", entry("original"))

	got, _ := s.Get("sess-a")
	got.Messages[0].Text = "mutated"
	got.Metadata.DetectedSymptoms[0] = "mutated"

	again, _ := s.Get("sess-a")
	if again.Messages[0].Text != "original" {
		t.Fatal("cached messages aliased by Get")
	}
	if again.Metadata.DetectedSymptoms[0] != "headache" {
		t.Fatal("cached symptoms aliased by Get")
	}
}

func TestPutCopiesInput(t *testing.T) {
	s := New()
	e := entry("original")
	s.Put("sess-a", e)
	e.Messages[0].Text = "mutated"

	got, _ := s.Get("sess-a")
	if got.Messages[0].Text != "original" {
		t.Fatal("cached messages aliased by Put")
	}
}
