package stage

import "testing"

func TestProgress(t *testing.T) {
	cases := []struct {
		label string
		want  int
	}{
		{"", DefaultProgress},
		{"unknown_stage_xyz", UnknownProgress},
		{"GREETING", 17}, // round(1/6*100)
		{"greeting", 17},
		{"SYMPTOM_COLLECTION", 33},
		{"symptomcollection", 33},
		{"DETAILED_ASSESSMENT", 50},
		{"MEDICAL_HISTORY", 67},
		{"RECOMMENDATIONS", 83},
		{"FOLLOW_UP", 100},
		{"now in FOLLOWUP phase", 100},
	}
	for _, tc := range cases {
		if got := Progress(tc.label); got != tc.want {
			t.Errorf("Progress(%q) = %d, want %d", tc.label, got, tc.want)
		}
	}
}

func TestNext(t *testing.T) {
	cases := []struct {
		current string
		want    string
	}{
		{"", "GREETING"},
		{"GREETING", "SYMPTOM_COLLECTION"},
		{"symptom_collection", "DETAILED_ASSESSMENT"},
		{"FOLLOW_UP", "FOLLOW_UP"}, // terminal stage is idempotent
		{"custom_stage", "custom_stage"},
	}
	for _, tc := range cases {
		if got := Next(tc.current); got != tc.want {
			t.Errorf("Next(%q) = %q, want %q", tc.current, got, tc.want)
		}
	}
}

func TestFirst(t *testing.T) {
	if First() != "GREETING" {
		t.Fatalf("First() = %q", First())
	}
}
