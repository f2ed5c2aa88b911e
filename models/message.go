package models

// Sender identifies who authored a transcript message.
type Sender string

const (
	SenderUser Sender = "user"
	SenderAI   Sender = "ai"
)

// Message is one entry in a consultation transcript. Messages are
// append-only; the only exception is the transient typing placeholder,
// which is inserted while a reply is pending and removed again before
// any success or failure mutation touches the transcript.
type Message struct {
	ID                 string `json:"id,omitempty"`
	Sender             Sender `json:"sender"`
	Text               string `json:"text"`
	IsTyping           bool   `json:"is_typing,omitempty"`
	IsError            bool   `json:"is_error,omitempty"`
	IsStageTransition  bool   `json:"is_stage_transition,omitempty"`
	IsPrescriptionNote bool   `json:"is_prescription_note,omitempty"`
}
