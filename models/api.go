package models

import "time"

// ChatRequest is the payload for sending a patient message to the
// conversation backend. The Gemini API key rides along per request so
// the backend can call the model on the user's quota.
type ChatRequest struct {
	Message   string `json:"message"`
	SessionID string `json:"sessionId"`
	APIKey    string `json:"apiKey,omitempty"`
}

// ResponseMetadata mirrors the metadata object the backend attaches to
// a chat reply. Older backend revisions report the stage under
// current_stage, newer ones under stage; both are kept so callers can
// apply the documented precedence.
type ResponseMetadata struct {
	Stage             string   `json:"stage"`
	CurrentStage      string   `json:"current_stage"`
	ConfidenceLevel   float64  `json:"confidence_level"`
	DetectedSymptoms  []string `json:"detected_symptoms"`
	SuggestedFollowup string   `json:"suggested_followup"`
}

// ChatResponse is the backend's reply to a chat message. Message may be
// plain text or a JSON-wrapped payload; it is normalized client-side
// before display.
type ChatResponse struct {
	Message  string           `json:"message"`
	Metadata ResponseMetadata `json:"metadata"`
}

// ResetResponse acknowledges a session reset.
type ResetResponse struct {
	Success bool `json:"success"`
}

// TranscriptMessage is one stored message in a server-side transcript.
type TranscriptMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// ConversationPayload is a full transcript fetched from the backend.
// The stage appears under current_stage or stage depending on the
// backend revision.
type ConversationPayload struct {
	Messages         []TranscriptMessage `json:"messages"`
	CurrentStage     string              `json:"current_stage"`
	Stage            string              `json:"stage"`
	DetectedSymptoms []string            `json:"detectedSymptoms"`
	ConfidenceLevel  float64             `json:"confidence_level"`
}

// SessionStatus is the backend's lightweight view of one session.
type SessionStatus struct {
	SessionID        string   `json:"sessionId"`
	Stage            string   `json:"stage"`
	MessageCount     int      `json:"messageCount"`
	DetectedSymptoms []string `json:"detectedSymptoms"`
}

// ChatSummary is one row of the user's chat history listing.
type ChatSummary struct {
	SessionID        string    `json:"sessionId"`
	Title            string    `json:"title"`
	Stage            string    `json:"stage"`
	MessageCount     int       `json:"messageCount"`
	DetectedSymptoms []string  `json:"detectedSymptoms"`
	LastMessage      string    `json:"lastMessage,omitempty"`
	UpdatedAt        time.Time `json:"updatedAt"`
}
