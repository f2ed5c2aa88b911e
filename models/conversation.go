package models

// ConversationMetadata is the non-message state attached to a
// consultation: the current workflow stage, the backend's confidence in
// that classification and the symptoms it has detected so far.
// Stage is always non-empty; callers fall back to the first stage of the
// fixed sequence when the backend reports nothing usable.
type ConversationMetadata struct {
	Stage             string   `json:"stage"`
	ConfidenceLevel   float64  `json:"confidence_level"`
	DetectedSymptoms  []string `json:"detected_symptoms"`
	SuggestedFollowup string   `json:"suggested_followup,omitempty"`
}

// ConversationEntry is the cached client-side state for one session:
// its full transcript plus metadata. Entries are owned by the
// conversation store and replaced wholesale, never merged.
type ConversationEntry struct {
	Messages []Message            `json:"messages"`
	Metadata ConversationMetadata `json:"metadata"`
}
