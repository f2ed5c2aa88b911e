package models

// Medicine is one prescribed item. Composition is optional; the backend
// omits it for generic medicines.
type Medicine struct {
	Name         string `json:"name"`
	Composition  string `json:"composition,omitempty"`
	Dosage       string `json:"dosage"`
	Duration     string `json:"duration"`
	Instructions string `json:"instructions,omitempty"`
}

// Prescription is the AI-generated recommendation for a session. It is
// produced and stored by the backend; the client surfaces it read-only
// and caches it only for the active session.
type Prescription struct {
	DescriptionOfIssue   string     `json:"description_of_issue,omitempty"`
	AIAnalysis           string     `json:"ai_analysis,omitempty"`
	Medicines            []Medicine `json:"medicines,omitempty"`
	GeneralTips          []string   `json:"general_tips,omitempty"`
	DietaryAdvice        []string   `json:"dietary_advice,omitempty"`
	FollowUpInstructions string     `json:"follow_up_instructions,omitempty"`
}

// PrescriptionResponse wraps a prescription fetched or generated for a
// session.
type PrescriptionResponse struct {
	Prescription *Prescription `json:"prescription"`
}
